package main

import (
	"fmt"
	"strconv"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/migration"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newUpCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: opts.withMigrator(func(_ *cobra.Command, _ []string, m *migration.Migrator) error {
			return m.Up()
		}),
	}
}

func newDownCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back every applied migration",
		Args:  cobra.NoArgs,
		RunE: opts.withMigrator(func(_ *cobra.Command, _ []string, m *migration.Migrator) error {
			return m.Down()
		}),
	}
}

func newStepCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "step <n>",
		Short:   "Apply n migrations, or roll back when n is negative",
		Example: "  migrate step -1",
		Args:    cobra.ExactArgs(1),
		RunE: opts.withMigrator(func(_ *cobra.Command, args []string, m *migration.Migrator) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			return m.Steps(n)
		}),
	}
}

func newGotoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "goto <version>",
		Short: "Migrate up or down to a version",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withMigrator(func(_ *cobra.Command, args []string, m *migration.Migrator) error {
			version, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return m.GoTo(uint(version))
		}),
	}
}

func newVersionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: opts.withMigrator(func(cmd *cobra.Command, _ []string, m *migration.Migrator) error {
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			if version == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
				return nil
			}
			if dirty {
				fmt.Fprintf(cmd.OutOrStdout(), "%d (dirty)\n", version)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		}),
	}
}

func newForceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "force <version>",
		Short: "Mark a version as applied without running it",
		Long:  "force clears the dirty flag left by a failed migration. Fix the schema by hand first.",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withMigrator(func(_ *cobra.Command, args []string, m *migration.Migrator) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return m.Force(version)
		}),
	}
}

func newDropCmd(opts *options) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop every database object",
		Args:  cobra.NoArgs,
		PreRunE: func(*cobra.Command, []string) error {
			if !confirm {
				return fmt.Errorf("drop destroys all data; rerun with --confirm")
			}
			return nil
		},
		RunE: opts.withMigrator(func(_ *cobra.Command, _ []string, m *migration.Migrator) error {
			return m.Drop()
		}),
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "confirm dropping all data")
	return cmd
}

func newCreateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "create <name> [description]",
		Short:   "Scaffold the next numbered up/down migration pair",
		Example: `  migrate create add_entry_tags "Index catalog entry tags"`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.path
			if dir == "" {
				dir = defaultMigrationsDir
			}
			description := ""
			if len(args) == 2 {
				description = args[1]
			}
			mf, err := migration.CreateMigration(dir, args[0], description)
			if err != nil {
				return err
			}
			opts.log.Info("Migration created",
				zap.Uint("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
			return nil
		},
	}
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos, err := migration.ListMigrations(opts.source())
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no migrations found")
				return nil
			}
			for _, info := range infos {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  up:%t down:%t\n", info.BaseName(), info.HasUp, info.HasDown)
			}
			return nil
		},
	}
}
