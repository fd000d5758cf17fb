package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/forecast-sync/internal/weather"
)

const (
	// DefaultOpenWeatherURL is the daily forecast endpoint.
	DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/forecast/daily"
	// DefaultForecastDays is the number of days requested per sync.
	DefaultForecastDays = 14

	maxBodyBytes = 1 << 20
)

// OpenWeatherConfig configures OpenWeatherFetcher.
type OpenWeatherConfig struct {
	APIKey     string
	BaseURL    string
	Days       int
	MaxRetries int
}

// OpenWeatherFetcher downloads the raw daily forecast document from OpenWeatherMap.
type OpenWeatherFetcher struct {
	name    string
	apiKey  string
	baseURL string
	days    int
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherFetcher(client *http.Client, cfg OpenWeatherConfig) *OpenWeatherFetcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenWeatherURL
	}
	if cfg.Days <= 0 {
		cfg.Days = DefaultForecastDays
	}

	return &OpenWeatherFetcher{
		name:    "openweathermap",
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		days:    cfg.Days,
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      cfg.MaxRetries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: newCircuitBreaker("openweather"),
	}
}

func (f *OpenWeatherFetcher) Name() string {
	return f.name
}

// BuildURL returns the request URL for q. Coordinates take precedence over
// the location string; exactly one of the two is sent.
func (f *OpenWeatherFetcher) BuildURL(q weather.Query) (string, error) {
	values := url.Values{}

	switch {
	case q.Coord != nil:
		values.Set("lat", strconv.FormatFloat(q.Coord.Lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(q.Coord.Lon, 'f', -1, 64))
	case q.Location != "":
		values.Set("q", q.Location)
	default:
		return "", weather.ErrInvalidQuery
	}

	values.Set("mode", "json")
	values.Set("units", string(weather.UnitsMetric))
	values.Set("cnt", strconv.Itoa(f.days))
	values.Set("appid", f.apiKey)

	return fmt.Sprintf("%s?%s", f.baseURL, values.Encode()), nil
}

// Fetch performs one GET and returns the body whatever the HTTP status; the
// upstream embeds its own status code in the document.
func (f *OpenWeatherFetcher) Fetch(ctx context.Context, q weather.Query) ([]byte, error) {
	if f.apiKey == "" {
		return nil, fmt.Errorf("%w: openweather api key is missing", weather.ErrNotConfigured)
	}

	u, err := f.BuildURL(q)
	if err != nil {
		return nil, err
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, f.httpCfg, f.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", weather.ErrNetwork, q.Key(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", weather.ErrNetwork, err)
	}
	return body, nil
}

var _ weather.Fetcher = (*OpenWeatherFetcher)(nil)
