package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/forecast-sync/internal/weather"
)

var validate = validator.New()

type AppConfig struct {
	OpenWeatherAPIKey  string `validate:"required"`
	OpenWeatherBaseURL string `validate:"omitempty,url"`

	// Location is a free-form place name; Lat/Lon take precedence when both are set.
	Location string `validate:"required_without=Coord"`
	Coord    *weather.Coord
	Units    weather.Units `validate:"oneof=metric imperial"`

	NotificationsEnabled bool
	NotifyThreshold      time.Duration `validate:"gt=0"`
	NotifySink           string        `validate:"oneof=none log"`

	ForecastDays int `validate:"min=1,max=16"`

	SyncInterval       time.Duration `validate:"gte=1m"`
	FetchTimeout       time.Duration `validate:"gt=0"`
	FetchMaxRetries    int           `validate:"min=0,max=5"`
	FetchRatePerMinute float64       `validate:"gt=0"`
	FetchBurst         int           `validate:"min=1"`

	StoreDriver string `validate:"oneof=memory postgres"`
	DatabaseURL string `validate:"required_if=StoreDriver postgres"`

	Timezone *time.Location

	Port        string `validate:"required,numeric"`
	LogLevel    string
	Environment string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	// Missing .env is fine; existing variables are never overridden.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherBaseURL = os.Getenv("OPENWEATHER_BASE_URL")

	cfg.Location = strings.TrimSpace(os.Getenv("WEATHER_LOCATION"))
	cfg.Coord, err = loadCoord()
	if err != nil {
		return nil, err
	}
	cfg.Units = weather.Units(strings.ToLower(getenvDefault("UNITS", string(weather.UnitsMetric))))

	if cfg.NotificationsEnabled, err = getenvBool("NOTIFICATIONS_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.NotifyThreshold, err = getenvDuration("NOTIFY_THRESHOLD", 24*time.Hour); err != nil {
		return nil, err
	}
	cfg.NotifySink = strings.ToLower(getenvDefault("NOTIFY_SINK", "log"))

	if cfg.ForecastDays, err = getenvInt("FORECAST_DAYS", 14); err != nil {
		return nil, err
	}

	// Scheduler interval: default 3 hours.
	if cfg.SyncInterval, err = getenvDuration("SYNC_INTERVAL", 3*time.Hour); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = getenvDuration("FETCH_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.FetchMaxRetries, err = getenvInt("FETCH_MAX_RETRIES", 0); err != nil {
		return nil, err
	}
	if cfg.FetchRatePerMinute, err = getenvFloat("FETCH_RATE_PER_MINUTE", 6); err != nil {
		return nil, err
	}
	if cfg.FetchBurst, err = getenvInt("FETCH_BURST", 1); err != nil {
		return nil, err
	}

	cfg.StoreDriver = strings.ToLower(getenvDefault("STORE_DRIVER", "memory"))
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	tz := os.Getenv("TIMEZONE")
	if tz == "" {
		cfg.Timezone = time.Local
	} else if cfg.Timezone, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = strings.ToLower(getenvDefault("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getenvDefault("ENVIRONMENT", "development"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Query returns the location query sent upstream.
func (c *AppConfig) Query() weather.Query {
	return weather.Query{Location: c.Location, Coord: c.Coord}
}

// Preferences returns the user preferences derived from the configuration.
func (c *AppConfig) Preferences() Preferences {
	return Preferences{
		query:   c.Query(),
		units:   c.Units,
		enabled: c.NotificationsEnabled,
	}
}

// Preferences is an immutable weather.Preferences snapshot.
type Preferences struct {
	query   weather.Query
	units   weather.Units
	enabled bool
}

func NewPreferences(q weather.Query, units weather.Units, notificationsEnabled bool) Preferences {
	return Preferences{query: q, units: units, enabled: notificationsEnabled}
}

func (p Preferences) Query() weather.Query { return p.query }
func (p Preferences) Units() weather.Units { return p.units }
func (p Preferences) NotificationsEnabled() bool { return p.enabled }

var _ weather.Preferences = Preferences{}

func loadCoord() (*weather.Coord, error) {
	latStr := os.Getenv("WEATHER_LAT")
	lonStr := os.Getenv("WEATHER_LON")
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, fmt.Errorf("WEATHER_LAT and WEATHER_LON must be set together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("invalid WEATHER_LAT %q", latStr)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("invalid WEATHER_LON %q", lonStr)
	}
	return &weather.Coord{Lat: lat, Lon: lon}, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
