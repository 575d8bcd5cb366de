// Command migrate manages the PostgreSQL schema: it applies and rolls back
// the SQL migrations built into the binary (or read from --path) and
// scaffolds new migration pairs.
package main

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/config"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/logger"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/migration"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/migrations"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// defaultMigrationsDir is where create writes when --path is not set
const defaultMigrationsDir = "migrations"

type options struct {
	path     string
	url      string
	logLevel string
	log      *zap.Logger
}

// source returns the migration files: the embedded set unless --path is set
func (o *options) source() fs.FS {
	if o.path == "" {
		return migrations.FS
	}
	return os.DirFS(o.path)
}

// databaseURL prefers --url and falls back to the FLOWSALES_DATABASE_* settings
func (o *options) databaseURL() (string, error) {
	if o.url != "" {
		return o.url, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return "", fmt.Errorf("driver %q has no SQL migrations; sqlite is migrated at server startup", cfg.Database.Driver)
	}
	return cfg.Database.DSN(), nil
}

// openMigrator connects and hands the connection to the migrator, whose
// Close also closes it
func (o *options) openMigrator() (*migration.Migrator, error) {
	url, err := o.databaseURL()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	m, err := migration.New(db, o.source(), o.log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

// withMigrator wraps a command body that needs a live migrator
func (o *options) withMigrator(fn func(cmd *cobra.Command, args []string, m *migration.Migrator) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		m, err := o.openMigrator()
		if err != nil {
			return err
		}
		defer func() {
			if err := m.Close(); err != nil {
				o.log.Warn("Failed to close migrator", zap.Error(err))
			}
		}()
		return fn(cmd, args, m)
	}
}

func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "migrate",
		Short: "FlowSales Co-Pilot schema migrations",
		Long: `migrate applies the PostgreSQL schema migrations.

The connection comes from --url or from the FLOWSALES_DATABASE_HOST, _PORT,
_USER, _PASSWORD, _DBNAME and _SSLMODE settings.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logger.New(logger.Config{
				Level:      opts.logLevel,
				Format:     "console",
				TimeFormat: "2006-01-02 15:04:05",
			})
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			opts.log = log
			return nil
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.path, "path", "", "migrations directory (default: the migrations built into the binary)")
	flags.StringVar(&opts.url, "url", "", "PostgreSQL URL (default: from configuration)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		newUpCmd(opts),
		newDownCmd(opts),
		newStepCmd(opts),
		newGotoCmd(opts),
		newVersionCmd(opts),
		newForceCmd(opts),
		newDropCmd(opts),
		newCreateCmd(opts),
		newListCmd(opts),
	)
	return root
}

func main() {
	opts := &options{log: zap.NewNop()}
	err := newRootCmd(opts).Execute()
	_ = opts.log.Sync()
	if err != nil {
		opts.log.Error("Migration command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
