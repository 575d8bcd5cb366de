package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/config"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database wraps the GORM handle shared by the repositories
type Database struct {
	DB *gorm.DB
}

// Open connects with the driver named by cfg.Driver (postgres when empty)
// and applies the pool limits. SQLite is pinned to one connection because an
// in-memory database lives and dies with its connection.
func Open(cfg *config.DatabaseConfig, gormLogger logger.Interface) (*Database, error) {
	if gormLogger == nil {
		gormLogger = logger.Discard
	}
	gormCfg := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN())
		gormCfg.PrepareStmt = true
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialector.Name(), err)
	}
	d := &Database{DB: db}
	pool, err := d.Pool()
	if err != nil {
		return nil, err
	}
	configurePool(pool, cfg)

	if err := pool.Ping(); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialector.Name(), err)
	}
	return d, nil
}

func configurePool(pool *sql.DB, cfg *config.DatabaseConfig) {
	if cfg.Driver == config.DriverSQLite {
		pool.SetMaxOpenConns(1)
		return
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	pool.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
}

// Pool returns the database/sql handle underneath GORM
func (d *Database) Pool() (*sql.DB, error) {
	pool, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	return pool, nil
}

// AutoMigrate creates or updates the tables of every persistence model.
// PostgreSQL deployments run the SQL files under migrations/ instead.
func (d *Database) AutoMigrate() error {
	return d.DB.AutoMigrate(AllModels()...)
}

// AllModels lists the persistence models owned by this package
func AllModels() []any {
	return []any{
		&models.CatalogEntryModel{},
		&models.UploadBatchModel{},
		&models.ProposalModel{},
		&models.ProposalItemModel{},
	}
}

// Ping is the readiness probe for the database
func (d *Database) Ping(ctx context.Context) error {
	pool, err := d.Pool()
	if err != nil {
		return err
	}
	return pool.PingContext(ctx)
}

func (d *Database) Close() error {
	pool, err := d.Pool()
	if err != nil {
		return err
	}
	return pool.Close()
}
