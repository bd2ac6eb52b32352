package router

import (
	"fmt"
	"net/http"

	"duesreminder/internal/interfaces/api/handler"
	"duesreminder/internal/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	// WebhookPath is where Telegram posts updates.
	WebhookPath = "/telegram/webhook"
	HealthPath  = "/healthz"
)

// Config holds the dependencies for the router.
type Config struct {
	TelegramHandler *handler.TelegramHandler
	HealthHandler   *handler.HealthHandler
	Logger          logger.Logger
}

// NewRouter creates and configures a new Echo router.
func NewRouter(cfg *Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			msg := fmt.Sprintf("%s %s -> %d (%s) req_id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			if v.Status >= http.StatusInternalServerError {
				cfg.Logger.Warn(msg)
				return nil
			}
			cfg.Logger.Debug(msg)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	// Routes
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	e.GET(HealthPath, cfg.HealthHandler.HandleHealth)

	// Updates are small; anything larger is not from Telegram.
	e.POST(WebhookPath, cfg.TelegramHandler.HandleWebhook, middleware.BodyLimit("1M"))

	cfg.Logger.Info(fmt.Sprintf("Router initialized: webhook at %s", WebhookPath))
	return e
}
