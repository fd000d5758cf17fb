package httpapi

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/forecast-sync/internal/daytime"
	"github.com/i474232898/forecast-sync/internal/scheduler"
	"github.com/i474232898/forecast-sync/internal/weather"
)

var validate = validator.New()

// Deps are the collaborators the HTTP surface reads from and triggers.
type Deps struct {
	Engine      *scheduler.Engine
	Scheduler   *scheduler.Scheduler
	Preferences weather.Preferences
	Normalizer  *daytime.Normalizer
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		req := forecastQuery{Units: c.Query("units")}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		units := d.Preferences.Units()
		if req.Units != "" {
			units = weather.Units(req.Units)
		}

		ds, err := d.Engine.CurrentForecast(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read forecast")
		}

		status := d.Engine.Status()
		days := make([]forecastDay, 0, len(ds))
		for _, r := range ds {
			days = append(days, newForecastDay(d.Normalizer, r, units))
		}

		return c.JSON(forecastResponse{
			Units:         units,
			City:          status.City,
			Stale:         status.Stale,
			LastSuccessAt: status.LastSuccessAt,
			Days:          days,
		})
	})

	v1.Get("/sync/status", func(c *fiber.Ctx) error {
		return c.JSON(d.Engine.Status())
	})

	v1.Post("/sync", func(c *fiber.Ctx) error {
		if !d.Scheduler.TriggerNow("api") {
			return fiber.NewError(fiber.StatusConflict, "sync already in progress")
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "started"})
	})

	v1.Delete("/sync", func(c *fiber.Ctx) error {
		if !d.Engine.Cancel() {
			return fiber.NewError(fiber.StatusConflict, "no sync in progress")
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "canceling"})
	})

	v1.Get("/notifications/pending", func(c *fiber.Ctx) error {
		n, ok := d.Engine.PendingNotification()
		if !ok {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.JSON(n)
	})

	v1.Post("/notifications/pending/ack", func(c *fiber.Ctx) error {
		var req ackRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
			}
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		err := d.Engine.AcknowledgeNotification(c.UserContext(), req.ID, d.Normalizer.Clock().Now())
		if err != nil {
			if errors.Is(err, scheduler.ErrNoPendingNotification) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to record notification delivery")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// forecastQuery holds query parameters for the forecast endpoint.
type forecastQuery struct {
	Units string `validate:"omitempty,oneof=metric imperial"`
}

type ackRequest struct {
	ID string `json:"id" validate:"omitempty,uuid"`
}

type forecastResponse struct {
	Units         weather.Units `json:"units"`
	City          *weather.City `json:"city,omitempty"`
	Stale         bool          `json:"stale"`
	LastSuccessAt time.Time     `json:"lastSuccessAt"`
	Days          []forecastDay `json:"days"`
}

type forecastDay struct {
	Date             string  `json:"date"`
	Label            string  `json:"label"`
	FullLabel        string  `json:"fullLabel"`
	ConditionID      int     `json:"conditionId"`
	Condition        string  `json:"condition"`
	High             string  `json:"high"`
	Low              string  `json:"low"`
	HighTemp         float64 `json:"highTemp"`
	LowTemp          float64 `json:"lowTemp"`
	Humidity         float64 `json:"humidity"`
	PressureHPa      float64 `json:"pressureHpa"`
	WindSpeedMps     float64 `json:"windSpeedMps"`
	WindDirectionDeg float64 `json:"windDirectionDeg"`
}

func newForecastDay(norm *daytime.Normalizer, r weather.Record, units weather.Units) forecastDay {
	return forecastDay{
		Date:             r.Date.Format("2006-01-02"),
		Label:            norm.FriendlyLabel(r.Date),
		FullLabel:        norm.FullDateLabel(r.Date),
		ConditionID:      r.ConditionID,
		Condition:        weather.DescribeCondition(r.ConditionID),
		High:             weather.FormatTemperature(r.HighTemp, units),
		Low:              weather.FormatTemperature(r.LowTemp, units),
		HighTemp:         weather.ConvertTemperature(r.HighTemp, units),
		LowTemp:          weather.ConvertTemperature(r.LowTemp, units),
		Humidity:         r.Humidity,
		PressureHPa:      r.PressureHPa,
		WindSpeedMps:     r.WindSpeedMps,
		WindDirectionDeg: r.WindDirectionDeg,
	}
}
