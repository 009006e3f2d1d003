package persistence

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/restaurant/internal/infrastructure/config"
	"github.com/erp/restaurant/internal/infrastructure/persistence/models"
	"github.com/erp/restaurant/internal/infrastructure/telemetry"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

// DatabaseOption customizes NewDatabase
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	logger  logger.Interface
	tracing *telemetry.DBTracingPlugin
}

// WithGormLogger replaces the default silent GORM logger
func WithGormLogger(l logger.Interface) DatabaseOption {
	return func(o *databaseOptions) { o.logger = l }
}

// WithTracing registers otelgorm spans on the connection
func WithTracing(p *telemetry.DBTracingPlugin) DatabaseOption {
	return func(o *databaseOptions) { o.tracing = p }
}

// NewDatabase opens a PostgreSQL or SQLite connection according to cfg.Driver
func NewDatabase(cfg *config.DatabaseConfig, opts ...DatabaseOption) (*Database, error) {
	options := databaseOptions{logger: logger.Default.LogMode(logger.Silent)}
	for _, opt := range opts {
		opt(&options)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN())
	case config.DriverPostgres, "":
		dialector = postgres.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 options.logger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if options.tracing != nil {
		if err := options.tracing.Register(db); err != nil {
			return nil, fmt.Errorf("failed to register database tracing: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if cfg.Driver == config.DriverSQLite && strings.Contains(cfg.DSN(), ":memory:") {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db}, nil
}

// AutoMigrate creates the settlement tables from the GORM models. It is meant
// for SQLite and tests; PostgreSQL deployments use the SQL migrations.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.CashierSessionModel{},
		&models.PaymentModel{},
		&models.OrderModel{},
		&models.CustomerModel{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}
	// One open session per cashier.
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uq_cashier_sessions_open
		ON cashier_sessions (cashier_id) WHERE status = 'open'`).Error
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// Stats returns database connection pool statistics
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
	}, nil
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int           `json:"max_open_connections"`
	OpenConnections    int           `json:"open_connections"`
	InUse              int           `json:"in_use"`
	Idle               int           `json:"idle"`
	WaitCount          int64         `json:"wait_count"`
	WaitDuration       time.Duration `json:"wait_duration"`
}
