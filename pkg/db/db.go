package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNoDatabaseURL is returned by Connect when neither Config.URL nor
// DATABASE_URL is set
var ErrNoDatabaseURL = errors.New("DATABASE_URL environment variable is required")

// Pool defaults. Runs are written once per request, so a handful of
// connections is plenty for one server.
const (
	DefaultMaxOpenConns    = 10
	DefaultMaxIdleConns    = 2
	DefaultConnMaxLifetime = 30 * time.Minute
)

// Config holds database connection configuration
type Config struct {
	// URL defaults to DATABASE_URL
	URL string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (c Config) withDefaults() Config {
	if c.URL == "" {
		c.URL = URL()
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = DefaultMaxOpenConns
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = DefaultMaxIdleConns
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = DefaultConnMaxLifetime
	}
	return c
}

// Connect opens the run history database, sizes the pool and pings it so a
// bad DATABASE_URL fails at startup rather than on the first run.
func Connect(ctx context.Context, cfg Config) (*gorm.DB, error) {
	cfg = cfg.withDefaults()
	if cfg.URL == "" {
		return nil, ErrNoDatabaseURL
	}

	gdb, err := gorm.Open(
		postgres.New(postgres.Config{
			DSN: cfg.URL,
			// pgbouncer in transaction mode cannot hold prepared statements
			PreferSimpleProtocol: true,
		}),
		&gorm.Config{Logger: logger.Default.LogMode(logLevel())},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get raw db: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return gdb, nil
}

// logLevel is silent unless PAWGUARDIAN_LOG_LEVEL=debug
func logLevel() logger.LogLevel {
	if os.Getenv("PAWGUARDIAN_LOG_LEVEL") == "debug" {
		return logger.Info
	}
	return logger.Silent
}

// URL returns DATABASE_URL, or "" when unset
func URL() string {
	return os.Getenv("DATABASE_URL")
}

// Configured reports whether a database URL is available
func Configured() bool {
	return URL() != ""
}
