// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"marketplace-compat/internal/common/config"

	_ "github.com/lib/pq"
)

// schemaStatements create the tables the profile and listing stores read.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS preference_profiles (
		user_id                TEXT PRIMARY KEY,
		version                TEXT NOT NULL DEFAULT '1',
		skills                 JSONB,
		target_price           DOUBLE PRECISION,
		min_price              DOUBLE PRECISION,
		max_price              DOUBLE PRECISION,
		latitude               DOUBLE PRECISION,
		longitude              DOUBLE PRECISION,
		max_distance_km        DOUBLE PRECISION,
		remote_only            BOOLEAN NOT NULL DEFAULT FALSE,
		available_immediately  BOOLEAN,
		available_from         TIMESTAMPTZ,
		available_until        TIMESTAMPTZ,
		premium                BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS listings (
		id                     TEXT PRIMARY KEY,
		owner_id               TEXT NOT NULL,
		version                TEXT NOT NULL DEFAULT '1',
		category               TEXT NOT NULL,
		subcategory            TEXT,
		title                  TEXT,
		required_skills        JSONB,
		price                  DOUBLE PRECISION,
		latitude               DOUBLE PRECISION,
		longitude              DOUBLE PRECISION,
		remote_eligible        BOOLEAN NOT NULL DEFAULT FALSE,
		urgency                TEXT,
		window_start           TIMESTAMPTZ,
		window_end             TIMESTAMPTZ,
		owner_rating           DOUBLE PRECISION,
		response_time_minutes  DOUBLE PRECISION,
		verified               BOOLEAN NOT NULL DEFAULT FALSE,
		owner_premium          BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_category ON listings (category)`,
}

type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// Migrate creates the profile and listing tables when missing.
func (c *PostgresClient) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func (c *PostgresClient) GetDB() *sql.DB {
	return c.DB
}
