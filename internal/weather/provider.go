package weather

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrNetwork wraps transport failures. A later trigger may succeed.
	ErrNetwork = errors.New("network error")
	// ErrMalformedResponse is returned when the payload does not have the expected shape.
	ErrMalformedResponse = errors.New("malformed forecast response")
	// ErrUpstream is returned when the payload embeds a status other than 200 or 404.
	ErrUpstream = errors.New("upstream error")
	// ErrInvalidQuery is returned when neither a location nor coordinates are configured.
	ErrInvalidQuery = errors.New("location query is empty")
	// ErrNotConfigured is returned when a fetcher lacks credentials.
	ErrNotConfigured = errors.New("fetcher not configured")
)

// Fetcher retrieves the raw forecast document for a query. It does not parse
// or interpret the status of the response.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]byte, error)
}

// Store holds the current forecast dataset. ReplaceAll is all-or-nothing and
// readers never observe a mix of old and new records.
type Store interface {
	ReplaceAll(ctx context.Context, ds Dataset) error
	QueryFromToday(ctx context.Context) (Dataset, error)
	IsEmpty(ctx context.Context) (bool, error)
}

// Preferences is the user-facing configuration the sync pipeline consumes.
type Preferences interface {
	Query() Query
	Units() Units
	NotificationsEnabled() bool
}

func formatCoord(c Coord) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
