package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ddmr2811/Facturas/internal/models"
)

// ErrNoDatabase is returned when no database is configured or reachable
var ErrNoDatabase = errors.New("database not available")

// Pool is the global database connection pool
var Pool *pgxpool.Pool

const schema = `
CREATE TABLE IF NOT EXISTS facturas (
	id                 uuid PRIMARY KEY,
	batch_id           uuid NOT NULL,
	owner              text NOT NULL,
	source_name        text NOT NULL DEFAULT '',
	stored_path        text NOT NULL DEFAULT '',
	extract_error      text NOT NULL DEFAULT '',
	expense_type       text NOT NULL,
	service_identifier text,
	address            text,
	total              numeric(12,2),
	issue_date         text,
	billing_period     text,
	supply_code        text,
	policy_number      text,
	meter_code         text,
	holder_name        text,
	community          text NOT NULL,
	account            text NOT NULL,
	resolution_tier    smallint NOT NULL,
	confidence         text NOT NULL,
	filename           text NOT NULL,
	memo               text NOT NULL,
	warnings           jsonb NOT NULL DEFAULT '[]',
	processed          boolean NOT NULL DEFAULT false,
	booked_at          timestamptz,
	created_at         timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS facturas_owner_created_idx ON facturas (owner, created_at DESC);
`

// Init initializes the database connection pool and creates the schema
func Init(cfg models.DatabaseConfig) error {
	if cfg.URL == "" {
		return ErrNoDatabase
	}

	config, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	if cfg.MaxConns > 0 {
		config.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 && cfg.MinConns <= config.MaxConns {
		config.MinConns = cfg.MinConns
	}
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}

	Pool = pool
	return nil
}

// Close closes the database connection pool
func Close() {
	if Pool != nil {
		Pool.Close()
		Pool = nil
	}
}

// Available reports whether Init succeeded
func Available() bool {
	return Pool != nil
}
