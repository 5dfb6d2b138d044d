package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-search/internal/api/http"
	"github.com/i474232898/weather-search/internal/config"
	"github.com/i474232898/weather-search/internal/history"
	"github.com/i474232898/weather-search/internal/search"
	"github.com/i474232898/weather-search/internal/store"
	"github.com/i474232898/weather-search/internal/view"
	"github.com/i474232898/weather-search/internal/weather"
	"github.com/i474232898/weather-search/internal/weather/providers"
)

func main() {
	// Load configuration (also reads .env when present).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound weather calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	source, err := newSource(cfg, httpClient)
	if err != nil {
		log.Fatalf("failed to build weather source: %v", err)
	}

	kv, err := newStore(cfg)
	if err != nil {
		log.Fatalf("failed to open history store: %v", err)
	}
	defer kv.Close()

	// One session: one history, one rendered view, one controller.
	model := view.New(cfg.ForecastDays)
	ctrl := search.NewController(source, history.New(kv), model, cfg.ClockInterval)
	defer ctrl.Close()

	ctrl.Start(context.Background())

	app := fiber.New(fiber.Config{
		AppName:               "weather-search",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          2*cfg.HTTPTimeout + 5*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-search",
			"source":  source.Name(),
		})
	})

	httpapi.RegisterRoutes(app, ctrl, model)

	go func() {
		log.Printf("INFO: listening on :%s (source %s, history %s)", cfg.Port, source.Name(), cfg.HistoryBackend)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

func newSource(cfg *config.AppConfig, client *http.Client) (weather.Source, error) {
	switch cfg.Source {
	case "openweather":
		return providers.NewOpenWeatherProvider(client, cfg.OpenWeatherAPIKey), nil
	case "weatherapi":
		return providers.NewWeatherAPIProvider(client, cfg.WeatherAPIKey), nil
	case "openmeteo":
		return providers.NewOpenMeteoProvider(client, providers.NewGoogleGeocoder(cfg.GeocoderAPIKey)), nil
	default:
		return nil, fmt.Errorf("unknown weather source %q", cfg.Source)
	}
}

func newStore(cfg *config.AppConfig) (store.KV, error) {
	switch cfg.HistoryBackend {
	case "file":
		return store.NewFileStore(cfg.HistoryPath)
	case "sqlite":
		return store.NewSQLite(cfg.HistoryPath)
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.HistoryBackend)
	}
}
