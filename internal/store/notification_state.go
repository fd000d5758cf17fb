package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/i474232898/forecast-sync/internal/notify"
)

// MemoryStateStore keeps lastNotifiedAt for the life of the process.
type MemoryStateStore struct {
	mu   sync.RWMutex
	last time.Time
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{}
}

func (s *MemoryStateStore) LastNotifiedAt(_ context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, nil
}

func (s *MemoryStateStore) SetLastNotifiedAt(_ context.Context, at time.Time) error {
	s.mu.Lock()
	s.last = at
	s.mu.Unlock()
	return nil
}

// PostgresStateStore keeps lastNotifiedAt in the single-row notification_state table.
type PostgresStateStore struct {
	db *sql.DB
}

func NewPostgresStateStore(db *sql.DB) *PostgresStateStore {
	return &PostgresStateStore{db: db}
}

func (s *PostgresStateStore) LastNotifiedAt(ctx context.Context) (time.Time, error) {
	var last time.Time
	err := s.db.QueryRowContext(ctx, `SELECT last_notified_at FROM notification_state WHERE id = 1`).Scan(&last)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("error getting notification state: %w", err)
	}
	return last, nil
}

func (s *PostgresStateStore) SetLastNotifiedAt(ctx context.Context, at time.Time) error {
	query := `INSERT INTO notification_state (id, last_notified_at) VALUES (1, $1)
              ON CONFLICT (id) DO UPDATE SET last_notified_at = EXCLUDED.last_notified_at`
	if _, err := s.db.ExecContext(ctx, query, at.UTC()); err != nil {
		return fmt.Errorf("error updating notification state: %w", err)
	}
	return nil
}

var (
	_ notify.StateStore = (*MemoryStateStore)(nil)
	_ notify.StateStore = (*PostgresStateStore)(nil)
)
