package weather

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/i474232898/forecast-sync/internal/daytime"
)

var validate = validator.New()

// ParseStatus tells whether a successfully decoded payload carried a forecast.
type ParseStatus int

const (
	ParseOK ParseStatus = iota
	// ParseNoData means the upstream answered 404 or returned an empty list.
	ParseNoData
)

func (s ParseStatus) String() string {
	if s == ParseNoData {
		return "no_data"
	}
	return "ok"
}

// ParseResult is the decoded forecast document.
type ParseResult struct {
	Status  ParseStatus
	Dataset Dataset
	// City is nil when the payload carries no city object.
	City *City
}

type coordJSON struct {
	Lat *float64 `json:"lat" validate:"required"`
	Lon *float64 `json:"lon" validate:"required"`
}

type cityJSON struct {
	Name  string     `json:"name"`
	Coord *coordJSON `json:"coord" validate:"required"`
}

type mainJSON struct {
	TempMax  *float64 `json:"temp_max" validate:"required"`
	TempMin  *float64 `json:"temp_min" validate:"required"`
	Humidity *float64 `json:"humidity" validate:"required"`
	Pressure *float64 `json:"pressure" validate:"required"`
}

type windJSON struct {
	Speed *float64 `json:"speed" validate:"required"`
	Deg   *float64 `json:"deg" validate:"required"`
}

type conditionJSON struct {
	ID *int `json:"id" validate:"required"`
}

type dayJSON struct {
	Main    *mainJSON       `json:"main" validate:"required"`
	Wind    *windJSON       `json:"wind" validate:"required"`
	Weather []conditionJSON `json:"weather" validate:"required,min=1,dive"`
}

// ParseForecast decodes an upstream forecast document. Record i is dated
// anchor + i days; per-entry timestamps in the payload are ignored.
//
// Any shape violation fails the whole parse with ErrMalformedResponse, an
// embedded status other than 200/404 fails with ErrUpstream. Both 404 and an
// empty list yield ParseNoData.
//
// anchor must be normalized; passing anything else is a programming error.
func ParseForecast(body []byte, anchor time.Time) (ParseResult, error) {
	if !daytime.IsNormalized(anchor) {
		panic(fmt.Sprintf("weather: forecast anchor %s is not normalized", anchor.UTC().Format(time.RFC3339Nano)))
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return ParseResult{}, malformed("decode document: %v", err)
	}
	if top == nil {
		return ParseResult{}, malformed("document is not an object")
	}

	if rawCode, ok := top["cod"]; ok {
		code, err := parseStatusCode(rawCode)
		if err != nil {
			return ParseResult{}, err
		}
		switch code {
		case http.StatusOK:
		case http.StatusNotFound:
			return ParseResult{Status: ParseNoData, Dataset: Dataset{}}, nil
		default:
			return ParseResult{}, fmt.Errorf("%w: status %d: %s", ErrUpstream, code, upstreamMessage(top))
		}
	}

	rawList, ok := top["list"]
	if !ok {
		return ParseResult{}, malformed("list is missing")
	}
	if !bytes.HasPrefix(bytes.TrimSpace(rawList), []byte("[")) {
		return ParseResult{}, malformed("list is not an array")
	}
	var days []dayJSON
	if err := json.Unmarshal(rawList, &days); err != nil {
		return ParseResult{}, malformed("decode list: %v", err)
	}

	city, err := parseCity(top["city"])
	if err != nil {
		return ParseResult{}, err
	}

	if len(days) == 0 {
		return ParseResult{Status: ParseNoData, Dataset: Dataset{}, City: city}, nil
	}

	ds := make(Dataset, 0, len(days))
	for i, d := range days {
		if err := validate.Struct(d); err != nil {
			return ParseResult{}, malformed("entry %d: %v", i, err)
		}
		ds = append(ds, Record{
			Date:             anchor.Add(time.Duration(i) * 24 * time.Hour).UTC(),
			ConditionID:      *d.Weather[0].ID,
			HighTemp:         *d.Main.TempMax,
			LowTemp:          *d.Main.TempMin,
			Humidity:         *d.Main.Humidity,
			PressureHPa:      *d.Main.Pressure,
			WindSpeedMps:     *d.Wind.Speed,
			WindDirectionDeg: *d.Wind.Deg,
		})
	}

	return ParseResult{Status: ParseOK, Dataset: ds, City: city}, nil
}

// parseStatusCode accepts the status either as a number or a numeric string.
func parseStatusCode(raw json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, malformed("cod is neither a number nor a string")
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, malformed("cod %q is not numeric", s)
	}
	return n, nil
}

func upstreamMessage(top map[string]json.RawMessage) string {
	var msg string
	if raw, ok := top["message"]; ok {
		_ = json.Unmarshal(raw, &msg)
	}
	if msg == "" {
		return "no message"
	}
	return msg
}

func parseCity(raw json.RawMessage) (*City, error) {
	if len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return nil, nil
	}
	var c cityJSON
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, malformed("decode city: %v", err)
	}
	if err := validate.Struct(c); err != nil {
		return nil, malformed("city: %v", err)
	}
	return &City{
		Name:  c.Name,
		Coord: Coord{Lat: *c.Coord.Lat, Lon: *c.Coord.Lon},
	}, nil
}
