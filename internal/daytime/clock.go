package daytime

import "time"

// Clock supplies the current instant and the local timezone offset valid at
// an arbitrary instant.
type Clock interface {
	Now() time.Time
	OffsetAt(t time.Time) time.Duration
}

// SystemClock reads the wall clock and resolves offsets in Location.
// A nil Location means time.Local.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	return time.Now()
}

// OffsetAt returns the UTC offset in effect at t, so DST transitions are honoured.
func (c SystemClock) OffsetAt(t time.Time) time.Duration {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	_, secs := t.In(loc).Zone()
	return time.Duration(secs) * time.Second
}

// FixedClock always reports the same instant. Used by tests and one-shot runs
// that need a reproducible "now".
type FixedClock struct {
	At       time.Time
	Location *time.Location
}

func (c FixedClock) Now() time.Time {
	return c.At
}

func (c FixedClock) OffsetAt(t time.Time) time.Duration {
	return SystemClock{Location: c.Location}.OffsetAt(t)
}
