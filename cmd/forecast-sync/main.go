// Command forecast-sync keeps a local daily weather forecast in sync with
// OpenWeatherMap and serves it over HTTP.
//
// Usage:
//
//	forecast-sync serve
//	forecast-sync sync --json
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpapi "github.com/i474232898/forecast-sync/internal/api/http"
	"github.com/i474232898/forecast-sync/internal/config"
	"github.com/i474232898/forecast-sync/internal/daytime"
	"github.com/i474232898/forecast-sync/internal/logger"
	"github.com/i474232898/forecast-sync/internal/notify"
	"github.com/i474232898/forecast-sync/internal/scheduler"
	"github.com/i474232898/forecast-sync/internal/store"
	"github.com/i474232898/forecast-sync/internal/weather"
	"github.com/i474232898/forecast-sync/internal/weather/providers"
)

const appName = "forecast-sync"

func main() {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Daily weather forecast synchronizer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(syncCmd())

	if err := root.Execute(); err != nil {
		logger.Log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

// app holds the wired components shared by every command.
type app struct {
	cfg    *config.AppConfig
	prefs  config.Preferences
	norm   *daytime.Normalizer
	engine *scheduler.Engine
	sched  *scheduler.Scheduler
	db     *sql.DB
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.LogLevel, cfg.Environment)
	log := logger.Get()

	a := &app{
		cfg:   cfg,
		prefs: cfg.Preferences(),
		norm:  daytime.NewNormalizer(daytime.SystemClock{Location: cfg.Timezone}),
	}

	var (
		forecasts weather.Store
		states    notify.StateStore
	)
	switch cfg.StoreDriver {
	case "postgres":
		db, err := store.NewPostgresConnection(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		if err := store.EnsureSchema(ctx, db); err != nil {
			a.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		forecasts = store.NewPostgresStore(db, a.norm)
		states = store.NewPostgresStateStore(db)
	default:
		forecasts = store.NewMemoryStore(a.norm)
		states = store.NewMemoryStateStore()
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.FetchTimeout}
	fetcher := providers.NewRateLimitedFetcher(
		providers.NewOpenWeatherFetcher(httpClient, providers.OpenWeatherConfig{
			APIKey:     cfg.OpenWeatherAPIKey,
			BaseURL:    cfg.OpenWeatherBaseURL,
			Days:       cfg.ForecastDays,
			MaxRetries: cfg.FetchMaxRetries,
		}),
		cfg.FetchRatePerMinute,
		cfg.FetchBurst,
	)

	var sink notify.Sink
	if cfg.NotifySink == "log" {
		sink = notify.LogSink{Logger: log}
	}

	a.engine = scheduler.NewEngine(scheduler.EngineConfig{
		Fetcher:      fetcher,
		Store:        forecasts,
		Gate:         notify.NewGate(states, cfg.NotifyThreshold),
		Sink:         sink,
		Preferences:  a.prefs,
		Normalizer:   a.norm,
		Logger:       log,
		FetchTimeout: cfg.FetchTimeout,
	})
	a.sched = scheduler.New(a.engine, a.norm.Clock(), cfg.SyncInterval, log)

	log.WithFields(logrus.Fields{
		"store":    cfg.StoreDriver,
		"query":    a.prefs.Query().Key(),
		"fetcher":  fetcher.Name(),
		"timezone": cfg.Timezone.String(),
	}).Info("forecast-sync configured")
	return a, nil
}

// --------------------------------------------------------------------------
// serve command
// --------------------------------------------------------------------------

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the periodic sync and the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	log := logger.Get()

	if err := a.sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer a.sched.Stop()

	if err := a.sched.Initialize(ctx); err != nil {
		log.WithError(err).Warn("initial forecast check failed")
	}

	server := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	server.Use(fiberlogger.New())
	server.Use(recover.New())

	server.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
		})
	})

	httpapi.RegisterRoutes(server, httpapi.Deps{
		Engine:      a.engine,
		Scheduler:   a.sched,
		Preferences: a.prefs,
		Normalizer:  a.norm,
	})

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("port", a.cfg.Port).Info("http server listening")
		if err := server.Listen(":" + a.cfg.Port); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.ShutdownWithContext(shutdownCtx); err != nil {
			log.WithError(err).Warn("error during shutdown")
		}
		return nil
	})

	err := g.Wait()
	log.Info("forecast-sync stopped")
	return err
}

// --------------------------------------------------------------------------
// sync command
// --------------------------------------------------------------------------

func syncCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run a single sync cycle and print its outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			out := a.sched.RunOnce(ctx)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(out); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records (cycle %s)\n", out.Kind, out.RecordCount, out.CycleID)
			}

			if out.Kind == scheduler.OutcomeFailure {
				return fmt.Errorf("sync failed (%s): %s", out.Reason, out.ErrorMessage())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the outcome as JSON")
	return cmd
}
