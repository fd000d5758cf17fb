package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/i474232898/forecast-sync/internal/daytime"
)

func datasetFrom(start daytime.DayKey, n int) Dataset {
	ds := make(Dataset, n)
	for i := range ds {
		ds[i] = Record{Date: daytime.DateOf(start + daytime.DayKey(i)), ConditionID: 800}
	}
	return ds
}

func TestDatasetValid(t *testing.T) {
	assert.True(t, Dataset{}.Valid())
	assert.True(t, datasetFrom(19000, 5).Valid())

	gap := datasetFrom(19000, 3)
	gap[2].Date = daytime.DateOf(19005)
	assert.False(t, gap.Valid())

	unordered := datasetFrom(19000, 2)
	unordered[0], unordered[1] = unordered[1], unordered[0]
	assert.False(t, unordered.Valid())

	skewed := datasetFrom(19000, 2)
	skewed[1].Date = skewed[1].Date.Add(time.Minute)
	assert.False(t, skewed.Valid())
}

func TestDatasetFrom(t *testing.T) {
	ds := datasetFrom(19000, 5)

	got := ds.From(19002)
	assert.Len(t, got, 3)
	assert.Equal(t, daytime.DayKey(19002), got[0].DayKey())

	assert.Len(t, ds.From(18000), 5)
	assert.Empty(t, ds.From(19010))

	got[0].ConditionID = 200
	assert.Equal(t, 800, ds[2].ConditionID, "From must copy")
}

func TestQueryKey(t *testing.T) {
	assert.Equal(t, "Ann Arbor, MI 48104", Query{Location: "Ann Arbor, MI 48104"}.Key())
	assert.Equal(t, "42.27821,-83.74567", Query{Location: "ignored", Coord: &Coord{Lat: 42.27821, Lon: -83.74567}}.Key())
}

func TestDescribeCondition(t *testing.T) {
	tests := map[int]string{
		200: "Storm",
		232: "Storm",
		301: "Drizzle",
		500: "Light Rain",
		502: "Rain",
		511: "Freezing Rain",
		521: "Showers",
		600: "Light Snow",
		612: "Sleet",
		620: "Snow",
		701: "Mist",
		741: "Fog",
		781: "Tornado",
		800: "Clear",
		801: "Mostly Clear",
		803: "Partly Cloudy",
		804: "Cloudy",
		906: "Hail",
		955: "Breezy",
		42:  "Unknown (42)",
	}
	for id, want := range tests {
		assert.Equal(t, want, DescribeCondition(id), "id %d", id)
	}
}

func TestFormatTemperature(t *testing.T) {
	assert.Equal(t, "30°C", FormatTemperature(30, UnitsMetric))
	assert.Equal(t, "21°C", FormatTemperature(20.5, UnitsMetric))
	assert.Equal(t, "0°C", FormatTemperature(-0.2, UnitsMetric))
	assert.Equal(t, "86°F", FormatTemperature(30, UnitsImperial))
	assert.Equal(t, "32°F", FormatTemperature(0, UnitsImperial))
	assert.Equal(t, "-40°F", FormatTemperature(-40, UnitsImperial))
	assert.InDelta(t, 50.0, ConvertTemperature(10, UnitsImperial), 1e-9)
}
