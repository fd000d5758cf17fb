package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

const (
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 10
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 1 * time.Minute
)

const schema = `
CREATE TABLE IF NOT EXISTS weather_forecast (
    date_ms            BIGINT PRIMARY KEY,
    condition_id       INTEGER NOT NULL,
    high_temp          DOUBLE PRECISION NOT NULL,
    low_temp           DOUBLE PRECISION NOT NULL,
    humidity           DOUBLE PRECISION NOT NULL,
    pressure_hpa       DOUBLE PRECISION NOT NULL,
    wind_speed_mps     DOUBLE PRECISION NOT NULL,
    wind_direction_deg DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS notification_state (
    id               SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
    last_notified_at TIMESTAMPTZ NOT NULL
);`

// NewPostgresConnection opens a pool and pings the database.
func NewPostgresConnection(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// EnsureSchema creates the forecast and notification tables if missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("error creating schema: %w", err)
	}
	return nil
}
