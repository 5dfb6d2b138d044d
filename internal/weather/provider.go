package weather

import (
	"context"
	"errors"
)

var (
	// ErrCityNotFound is returned when the data source does not know the requested city.
	ErrCityNotFound = errors.New("city not found")
	// ErrUpstream covers transport failures, bad status codes and undecodable payloads.
	ErrUpstream = errors.New("weather service unavailable")
)

// Source abstracts a remote weather data service (e.g. OpenWeatherMap, WeatherAPI, Open-Meteo).
type Source interface {
	Name() string
	// Current returns current conditions for a city name typed by the user.
	// The returned snapshot carries the canonical city name.
	Current(ctx context.Context, city string) (Snapshot, error)
	// Forecast returns the interval forecast for the given coordinates.
	Forecast(ctx context.Context, coord Coordinates) (ForecastSeries, error)
}
