package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/i474232898/forecast-sync/internal/daytime"
	"github.com/i474232898/forecast-sync/internal/weather"
)

// PostgresStore persists the forecast dataset in the weather_forecast table.
// ReplaceAll runs in a single transaction so other sessions see either the
// previous or the new dataset.
type PostgresStore struct {
	db   *sql.DB
	norm *daytime.Normalizer
}

func NewPostgresStore(db *sql.DB, norm *daytime.Normalizer) *PostgresStore {
	return &PostgresStore{db: db, norm: norm}
}

func (s *PostgresStore) ReplaceAll(ctx context.Context, ds weather.Dataset) error {
	if !ds.Valid() {
		return ErrInvalidDataset
	}

	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for replace: %w", err)
	}
	defer txn.Rollback() // no-op after Commit

	if _, err := txn.ExecContext(ctx, `DELETE FROM weather_forecast`); err != nil {
		return fmt.Errorf("error clearing forecast: %w", err)
	}

	stmt, err := txn.PrepareContext(ctx, `INSERT INTO weather_forecast
        (date_ms, condition_id, high_temp, low_temp, humidity, pressure_hpa, wind_speed_mps, wind_direction_deg)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for replace: %w", err)
	}
	defer stmt.Close()

	for _, r := range ds {
		_, err := stmt.ExecContext(ctx, r.Date.UnixMilli(), r.ConditionID, r.HighTemp, r.LowTemp,
			r.Humidity, r.PressureHPa, r.WindSpeedMps, r.WindDirectionDeg)
		if err != nil {
			return fmt.Errorf("error inserting forecast for %s: %w", r.Date.Format("2006-01-02"), err)
		}
	}

	if err := txn.Commit(); err != nil {
		return fmt.Errorf("error committing forecast replace: %w", err)
	}
	return nil
}

func (s *PostgresStore) QueryFromToday(ctx context.Context) (weather.Dataset, error) {
	anchor := s.norm.StartOfTodayUTC().UnixMilli()

	rows, err := s.db.QueryContext(ctx, `SELECT date_ms, condition_id, high_temp, low_temp, humidity,
        pressure_hpa, wind_speed_mps, wind_direction_deg
        FROM weather_forecast WHERE date_ms >= $1 ORDER BY date_ms ASC`, anchor)
	if err != nil {
		return nil, fmt.Errorf("error querying forecast: %w", err)
	}
	defer rows.Close()

	ds := make(weather.Dataset, 0)
	for rows.Next() {
		var (
			r      weather.Record
			dateMS int64
		)
		if err := rows.Scan(&dateMS, &r.ConditionID, &r.HighTemp, &r.LowTemp, &r.Humidity,
			&r.PressureHPa, &r.WindSpeedMps, &r.WindDirectionDeg); err != nil {
			return nil, fmt.Errorf("error scanning forecast row: %w", err)
		}
		r.Date = time.UnixMilli(dateMS).UTC()
		ds = append(ds, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating forecast rows: %w", err)
	}
	return ds, nil
}

func (s *PostgresStore) IsEmpty(ctx context.Context) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM weather_forecast)`).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking forecast table: %w", err)
	}
	return !exists, nil
}

var _ weather.Store = (*PostgresStore)(nil)
