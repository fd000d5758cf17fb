// Package daytime converts between local wall-clock instants and the
// UTC-midnight aligned dates used for stored forecasts.
//
// A stored forecast date is a normalized timestamp: an instant exactly on a
// UTC day boundary whose day index equals the local calendar day it describes.
// That lets every persisted date be both normalized and locally meaningful
// without keeping a timezone per record.
package daytime

import "time"

// DayLength is the length of one day in milliseconds.
const DayLength int64 = 24 * 60 * 60 * 1000

// DayKey is a count of whole days since the Unix epoch in local civil time.
type DayKey int64

// Normalizer performs day arithmetic against a Clock.
type Normalizer struct {
	clock Clock
}

func NewNormalizer(clock Clock) *Normalizer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Normalizer{clock: clock}
}

// Clock returns the clock this normalizer reads from.
func (n *Normalizer) Clock() Clock {
	return n.clock
}

// LocalDayKey returns the local calendar day of t, using the offset valid at t.
func (n *Normalizer) LocalDayKey(t time.Time) DayKey {
	ms := t.UnixMilli() + n.clock.OffsetAt(t).Milliseconds()
	return DayKey(floorDiv(ms, DayLength))
}

// DayKeyOf returns the day index encoded by a normalized date.
func DayKeyOf(normalized time.Time) DayKey {
	return DayKey(floorDiv(normalized.UnixMilli(), DayLength))
}

// DateOf returns the normalized date for a day index.
func DateOf(key DayKey) time.Time {
	return time.UnixMilli(int64(key) * DayLength).UTC()
}

// UTCFromLocal adds the offset evaluated at t.
func (n *Normalizer) UTCFromLocal(t time.Time) time.Time {
	return t.Add(n.clock.OffsetAt(t))
}

// LocalFromUTC subtracts the offset evaluated at t.
func (n *Normalizer) LocalFromUTC(t time.Time) time.Time {
	return t.Add(-n.clock.OffsetAt(t))
}

// NormalizeToMidnightUTC truncates t to the start of its UTC day.
func NormalizeToMidnightUTC(t time.Time) time.Time {
	return time.UnixMilli(floorDiv(t.UnixMilli(), DayLength) * DayLength).UTC()
}

// IsNormalized reports whether t lies exactly on a UTC day boundary.
func IsNormalized(t time.Time) bool {
	return floorMod(t.UnixMilli(), DayLength) == 0
}

// StartOfTodayUTC returns the anchor for day 0: local midnight of today
// expressed as a normalized timestamp.
func (n *Normalizer) StartOfTodayUTC() time.Time {
	return DateOf(n.TodayKey())
}

// TodayKey is the current local day.
func (n *Normalizer) TodayKey() DayKey {
	return n.LocalDayKey(n.clock.Now())
}

// FriendlyLabel names a stored date relative to today: "Today", "Tomorrow",
// the weekday for the rest of the coming week, otherwise "Mon, Jan 2".
// Past days always get the abbreviated date.
func (n *Normalizer) FriendlyLabel(date time.Time) string {
	key := n.LocalDayKey(n.LocalFromUTC(date))
	today := n.TodayKey()
	day := DateOf(key)

	switch {
	case key == today:
		return "Today"
	case key == today+1:
		return "Tomorrow"
	case key > today && key < today+7:
		return day.Weekday().String()
	default:
		return day.Format("Mon, Jan 2")
	}
}

// FullDateLabel is the detail-view variant: today and tomorrow keep their
// relative name followed by the calendar date.
func (n *Normalizer) FullDateLabel(date time.Time) string {
	key := n.LocalDayKey(n.LocalFromUTC(date))
	today := n.TodayKey()
	day := DateOf(key)

	switch key {
	case today:
		return "Today, " + day.Format("January 2")
	case today + 1:
		return "Tomorrow, " + day.Format("January 2")
	default:
		return day.Format("Monday, January 2")
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}
