// Package database provides connection management for the seed stores: SQL pools for the
// database store, a Redis client for the redis store, and transaction helpers.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// Supported SQL drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// connectTimeout bounds the initial ping so a misconfigured DSN fails fast at startup.
const connectTimeout = 10 * time.Second

// ErrUnsupportedDriver is returned for drivers without a seed store implementation.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Config holds database configuration settings.
type Config struct {
	Driver             string
	ConnectionString   string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// Connect opens a pool for cfg and pings it. The pool is closed again when the ping fails.
func Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	switch cfg.Driver {
	case DriverPostgres, DriverMySQL:
	default:
		return nil, fmt.Errorf("%w: %q (valid options: %s, %s)", ErrUnsupportedDriver, cfg.Driver, DriverPostgres, DriverMySQL)
	}

	db, err := sql.Open(cfg.Driver, cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
