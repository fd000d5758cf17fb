package weather

import (
	"time"

	"github.com/i474232898/forecast-sync/internal/daytime"
)

// Units selects how temperatures are presented. Stored values are always metric.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// Coord is a latitude/longitude pair.
type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Query identifies the location to fetch. When Coord is set it takes
// precedence over the free-text Location.
type Query struct {
	Location string `json:"location,omitempty"`
	Coord    *Coord `json:"coord,omitempty"`
}

// Key returns a human-readable identifier for logs.
func (q Query) Key() string {
	if q.Coord != nil {
		return formatCoord(*q.Coord)
	}
	return q.Location
}

// Record is one day of forecast. Date is a normalized timestamp.
// Temperatures are Celsius, wind speed is m/s.
type Record struct {
	Date             time.Time `json:"date"`
	ConditionID      int       `json:"conditionId"`
	HighTemp         float64   `json:"highTemp"`
	LowTemp          float64   `json:"lowTemp"`
	Humidity         float64   `json:"humidity"`
	PressureHPa      float64   `json:"pressureHpa"`
	WindSpeedMps     float64   `json:"windSpeedMps"`
	WindDirectionDeg float64   `json:"windDirectionDeg"`
}

// DayKey is the calendar day this record describes.
func (r Record) DayKey() daytime.DayKey {
	return daytime.DayKeyOf(r.Date)
}

// Dataset is an ordered run of records with contiguous, increasing days.
type Dataset []Record

// Valid reports whether every date is normalized and each record is exactly
// one day after the previous one.
func (d Dataset) Valid() bool {
	for i, r := range d {
		if !daytime.IsNormalized(r.Date) {
			return false
		}
		if i > 0 && r.DayKey() != d[i-1].DayKey()+1 {
			return false
		}
	}
	return true
}

// From returns the records whose day is on or after key. The receiver is
// never modified.
func (d Dataset) From(key daytime.DayKey) Dataset {
	for i, r := range d {
		if r.DayKey() >= key {
			out := make(Dataset, len(d)-i)
			copy(out, d[i:])
			return out
		}
	}
	return Dataset{}
}

// City is the resolved location reported by the upstream payload.
type City struct {
	Name  string `json:"name,omitempty"`
	Coord Coord  `json:"coord"`
}
