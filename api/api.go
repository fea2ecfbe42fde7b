package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/omniquote-labs/omniquote/api/handler"
	"github.com/omniquote-labs/omniquote/config"
	"github.com/omniquote-labs/omniquote/metrics"
)

type Api struct {
	cfg    *config.Config
	logger *slog.Logger
	quotes handler.QuoteService
	tokens handler.TokenService
	app    *fiber.App
}

func New(cfg *config.Config, logger *slog.Logger, quotes handler.QuoteService, tokens handler.TokenService) *Api {
	return &Api{
		cfg:    cfg,
		logger: logger,
		quotes: quotes,
		tokens: tokens,
	}
}

func (a *Api) Start() error {
	app := fiber.New(fiber.Config{
		AppName:               "Omniquote API",
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
	})
	a.app = app

	app.Use(instrument)
	app.Get("/health", health)

	v1 := app.Group("/v1")
	handler.Register(v1, a.quotes, a.tokens, a.logger)

	port := a.cfg.GetListenPort()
	a.logger.Info("starting API server", slog.String("addr", fmt.Sprintf("http://localhost:%s", port)))
	return app.Listen(":" + port)
}

func (a *Api) Shutdown() error {
	if a.app == nil {
		return nil
	}
	return a.app.Shutdown()
}

// instrument records request counts, latency, and in-flight gauge per route.
func instrument(c *fiber.Ctx) error {
	m := metrics.GetMetrics().HTTP
	m.RequestsInFlight.Inc()
	start := time.Now()

	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}
	route := c.Route().Path
	m.RequestsInFlight.Dec()
	m.RequestsTotal.WithLabelValues(c.Method(), route, metrics.GetStatusClass(status)).Inc()
	m.RequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
	return err
}

func health(c *fiber.Ctx) error {
	return c.SendString("OK")
}
