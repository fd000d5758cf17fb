package weather

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/forecast-sync/internal/daytime"
)

type testDay struct {
	id        int
	high, low float64
}

// forecastPayload builds an upstream document with one entry per day.
func forecastPayload(t *testing.T, code any, days []testDay) []byte {
	t.Helper()

	list := make([]map[string]any, 0, len(days))
	for i, d := range days {
		list = append(list, map[string]any{
			"dt": 1641600000 + i*86400,
			"main": map[string]any{
				"temp_max": d.high,
				"temp_min": d.low,
				"humidity": 81,
				"pressure": 1013.2,
			},
			"wind": map[string]any{
				"speed": 4.1,
				"deg":   270,
			},
			"weather": []map[string]any{
				{"id": d.id, "main": "x", "description": "x"},
			},
		})
	}

	doc := map[string]any{
		"cod":  code,
		"city": map[string]any{"name": "Ann Arbor", "coord": map[string]any{"lat": 42.2782, "lon": -83.7457}},
		"cnt":  len(days),
		"list": list,
	}
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	return b
}

var anchor19000 = daytime.DateOf(19000)

func TestParseForecastScenario(t *testing.T) {
	body := forecastPayload(t, "200", []testDay{
		{800, 30, 20},
		{500, 25, 15},
		{200, 18, 10},
	})

	res, err := ParseForecast(body, anchor19000)
	require.NoError(t, err)
	require.Equal(t, ParseOK, res.Status)
	require.Len(t, res.Dataset, 3)

	want := []struct {
		day       daytime.DayKey
		cond      int
		high, low float64
	}{
		{19000, 800, 30, 20},
		{19001, 500, 25, 15},
		{19002, 200, 18, 10},
	}
	for i, w := range want {
		r := res.Dataset[i]
		assert.Equal(t, w.day, r.DayKey())
		assert.Equal(t, w.cond, r.ConditionID)
		assert.Equal(t, w.high, r.HighTemp)
		assert.Equal(t, w.low, r.LowTemp)
		assert.Equal(t, 81.0, r.Humidity)
		assert.Equal(t, 1013.2, r.PressureHPa)
		assert.Equal(t, 4.1, r.WindSpeedMps)
		assert.Equal(t, 270.0, r.WindDirectionDeg)
		assert.True(t, daytime.IsNormalized(r.Date))
	}
	assert.True(t, res.Dataset.Valid())

	require.NotNil(t, res.City)
	assert.Equal(t, "Ann Arbor", res.City.Name)
	assert.Equal(t, Coord{Lat: 42.2782, Lon: -83.7457}, res.City.Coord)
}

func TestParseForecastPositionalDates(t *testing.T) {
	for _, n := range []int{1, 7, 14} {
		days := make([]testDay, n)
		for i := range days {
			days[i] = testDay{id: 801, high: 10, low: 5}
		}

		res, err := ParseForecast(forecastPayload(t, 200, days), anchor19000)
		require.NoError(t, err)
		require.Len(t, res.Dataset, n)
		for i, r := range res.Dataset {
			assert.Equal(t, daytime.DayKey(19000+i), r.DayKey())
		}
	}
}

func TestParseForecastStatusCodes(t *testing.T) {
	days := []testDay{{800, 1, 0}}

	tests := []struct {
		name       string
		body       []byte
		wantStatus ParseStatus
		wantErr    error
	}{
		{name: "numeric 200", body: forecastPayload(t, 200, days), wantStatus: ParseOK},
		{name: "string 200", body: forecastPayload(t, "200", days), wantStatus: ParseOK},
		{name: "404 is no data", body: []byte(`{"cod":"404","message":"city not found"}`), wantStatus: ParseNoData},
		{name: "numeric 404", body: []byte(`{"cod":404}`), wantStatus: ParseNoData},
		{name: "401 is upstream error", body: []byte(`{"cod":401,"message":"Invalid API key"}`), wantErr: ErrUpstream},
		{name: "500 is upstream error", body: []byte(`{"cod":"500"}`), wantErr: ErrUpstream},
		{name: "non numeric cod", body: []byte(`{"cod":"abc","list":[]}`), wantErr: ErrMalformedResponse},
		{name: "no cod field", body: []byte(`{"list":[]}`), wantStatus: ParseNoData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ParseForecast(tt.body, anchor19000)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.Status)
		})
	}
}

func TestParseForecastEmptyList(t *testing.T) {
	res, err := ParseForecast(forecastPayload(t, 200, nil), anchor19000)
	require.NoError(t, err)
	assert.Equal(t, ParseNoData, res.Status)
	assert.Empty(t, res.Dataset)
}

func TestParseForecastMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"array document", `[1,2,3]`},
		{"null document", `null`},
		{"missing list", `{"cod":"200"}`},
		{"list is object", `{"cod":"200","list":{}}`},
		{"list is null", `{"cod":"200","list":null}`},
		{"missing weather array", `{"list":[{"main":{"temp_max":1,"temp_min":0,"humidity":1,"pressure":1},"wind":{"speed":1,"deg":1}}]}`},
		{"empty weather array", `{"list":[{"main":{"temp_max":1,"temp_min":0,"humidity":1,"pressure":1},"wind":{"speed":1,"deg":1},"weather":[]}]}`},
		{"weather without id", `{"list":[{"main":{"temp_max":1,"temp_min":0,"humidity":1,"pressure":1},"wind":{"speed":1,"deg":1},"weather":[{"main":"Rain"}]}]}`},
		{"missing main", `{"list":[{"wind":{"speed":1,"deg":1},"weather":[{"id":500}]}]}`},
		{"missing temp_min", `{"list":[{"main":{"temp_max":1,"humidity":1,"pressure":1},"wind":{"speed":1,"deg":1},"weather":[{"id":500}]}]}`},
		{"missing wind", `{"list":[{"main":{"temp_max":1,"temp_min":0,"humidity":1,"pressure":1},"weather":[{"id":500}]}]}`},
		{"wind without deg", `{"list":[{"main":{"temp_max":1,"temp_min":0,"humidity":1,"pressure":1},"wind":{"speed":1},"weather":[{"id":500}]}]}`},
		{"string temperature", `{"list":[{"main":{"temp_max":"hot","temp_min":0,"humidity":1,"pressure":1},"wind":{"speed":1,"deg":1},"weather":[{"id":500}]}]}`},
		{"city without coord", `{"city":{"name":"x"},"list":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ParseForecast([]byte(tt.body), anchor19000)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedResponse)
			assert.Nil(t, res.Dataset)
		})
	}
}

func TestParseForecastSecondEntryBrokenYieldsNothing(t *testing.T) {
	body := `{"list":[
		{"main":{"temp_max":1,"temp_min":0,"humidity":1,"pressure":1},"wind":{"speed":1,"deg":1},"weather":[{"id":500}]},
		{"main":{"temp_max":1,"temp_min":0,"humidity":1,"pressure":1},"wind":{"speed":1,"deg":1}}
	]}`

	res, err := ParseForecast([]byte(body), anchor19000)
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Nil(t, res.Dataset)
}

func TestParseForecastZeroValuesAreKept(t *testing.T) {
	body := `{"list":[{"main":{"temp_max":0,"temp_min":-3.5,"humidity":0,"pressure":0},"wind":{"speed":0,"deg":0},"weather":[{"id":0}]}]}`

	res, err := ParseForecast([]byte(body), anchor19000)
	require.NoError(t, err)
	require.Len(t, res.Dataset, 1)
	assert.Equal(t, 0, res.Dataset[0].ConditionID)
	assert.Equal(t, -3.5, res.Dataset[0].LowTemp)
	assert.Nil(t, res.City)
}

func TestParseForecastRejectsUnnormalizedAnchor(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = ParseForecast([]byte(`{"list":[]}`), anchor19000.Add(time.Hour))
	})
}
