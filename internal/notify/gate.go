// Package notify decides whether today's forecast should be announced and
// formats the announcement. Delivery belongs to a Sink; the gate only records
// lastNotifiedAt once a delivery has been attempted.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/forecast-sync/internal/weather"
)

const (
	// DefaultThreshold is the minimum gap between two notifications.
	DefaultThreshold = 24 * time.Hour
	// Title is the heading used for every forecast notification.
	Title = "Forecast Sync"
)

// State is the notification bookkeeping consulted by ShouldNotify.
type State struct {
	LastNotifiedAt       time.Time
	NotificationsEnabled bool
}

// StateStore persists lastNotifiedAt. A zero time means never notified.
type StateStore interface {
	LastNotifiedAt(ctx context.Context) (time.Time, error)
	SetLastNotifiedAt(ctx context.Context, at time.Time) error
}

// Notification is a formatted message awaiting delivery.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}

// ShouldNotify is true only when notifications are enabled and at least
// threshold has elapsed since the last one.
func ShouldNotify(state State, now time.Time, threshold time.Duration) bool {
	if !state.NotificationsEnabled {
		return false
	}
	return now.Sub(state.LastNotifiedAt) >= threshold
}

// BuildMessage formats a record as "Clear - High: 30°C Low: 20°C".
func BuildMessage(r weather.Record, units weather.Units) string {
	return fmt.Sprintf("%s - High: %s Low: %s",
		weather.DescribeCondition(r.ConditionID),
		weather.FormatTemperature(r.HighTemp, units),
		weather.FormatTemperature(r.LowTemp, units),
	)
}

// Gate combines the decision rule with persisted state.
type Gate struct {
	states    StateStore
	threshold time.Duration
}

func NewGate(states StateStore, threshold time.Duration) *Gate {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Gate{states: states, threshold: threshold}
}

// Decide returns a notification for r when one is due. It never writes state.
func (g *Gate) Decide(ctx context.Context, r weather.Record, prefs weather.Preferences, now time.Time) (Notification, bool, error) {
	last, err := g.states.LastNotifiedAt(ctx)
	if err != nil {
		return Notification{}, false, fmt.Errorf("load notification state: %w", err)
	}

	state := State{LastNotifiedAt: last, NotificationsEnabled: prefs.NotificationsEnabled()}
	if !ShouldNotify(state, now, g.threshold) {
		return Notification{}, false, nil
	}

	return Notification{
		ID:        uuid.NewString(),
		Title:     Title,
		Message:   BuildMessage(r, prefs.Units()),
		Date:      r.Date,
		CreatedAt: now,
	}, true, nil
}

// Confirm records that a notification was delivered (or attempted) at at.
func (g *Gate) Confirm(ctx context.Context, at time.Time) error {
	if err := g.states.SetLastNotifiedAt(ctx, at); err != nil {
		return fmt.Errorf("save notification state: %w", err)
	}
	return nil
}
