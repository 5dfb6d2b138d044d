package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	// Source selects the weather data source.
	Source string `validate:"oneof=openweather weatherapi openmeteo"`

	OpenWeatherAPIKey string `validate:"required_if=Source openweather"`
	WeatherAPIKey     string `validate:"required_if=Source weatherapi"`
	GeocoderAPIKey    string `validate:"required_if=Source openmeteo"`

	// HTTPTimeout bounds every outbound call.
	HTTPTimeout time.Duration `validate:"gt=0"`

	// History persistence.
	HistoryBackend string `validate:"oneof=file sqlite memory"`
	HistoryPath    string `validate:"required_unless=HistoryBackend memory"`

	ClockInterval time.Duration `validate:"gt=0"`
	ForecastDays  int           `validate:"min=1,max=5"`

	Port string `validate:"required,numeric"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Source = getenvDefault("WEATHER_SOURCE", "openweather")
	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.ClockInterval, err = getenvDuration("CLOCK_INTERVAL", "1s"); err != nil {
		return nil, err
	}

	cfg.HistoryBackend = getenvDefault("HISTORY_BACKEND", "file")
	defaultPath := "search_history.json"
	if cfg.HistoryBackend == "sqlite" {
		defaultPath = "search_history.db"
	}
	cfg.HistoryPath = getenvDefault("HISTORY_PATH", defaultPath)

	cfg.ForecastDays = getenvInt("FORECAST_DAYS", 5)
	cfg.Port = getenvDefault("PORT", "8080")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
