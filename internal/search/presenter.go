package search

import (
	"context"

	"github.com/i474232898/weather-search/internal/weather"
)

// SelectFunc runs a search for a city picked from the rendered history.
type SelectFunc func(ctx context.Context, city string) error

// Presenter renders results. Calls are fire-and-forget from the Controller's side.
type Presenter interface {
	ShowCurrent(snap weather.Snapshot)
	ShowForecast(series weather.ForecastSeries)
	ShowForecastError(msg string)
	ShowError(msg string)
	RenderHistory(names []string, onSelect SelectFunc)
	ShowClock(text string)
}
