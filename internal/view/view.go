// Package view holds the rendered state of the widget. Model implements
// search.Presenter; the HTTP layer reads from it.
package view

import (
	"context"
	"sync"
	"time"

	"github.com/i474232898/weather-search/internal/search"
	"github.com/i474232898/weather-search/internal/weather"
)

// DateLayout is how dates are shown on the page.
const DateLayout = "1/2/2006"

// Current is the current-conditions panel.
type Current struct {
	weather.Snapshot
	Date       string `json:"date"`
	IconClass  string `json:"iconClass"`
	Background string `json:"background"`
}

// Day is one card of the daily forecast panel.
type Day struct {
	weather.ForecastEntry
	Date       string `json:"date"`
	IconClass  string `json:"iconClass"`
	Background string `json:"background"`
}

// State is everything currently rendered.
type State struct {
	Current       *Current `json:"current,omitempty"`
	Forecast      []Day    `json:"forecast"`
	ForecastError string   `json:"forecastError,omitempty"`
	Error         string   `json:"error,omitempty"`
	Clock         string   `json:"clock,omitempty"`
	History       []string `json:"history"`
	Background    string   `json:"background"`
}

// Model is a concurrency-safe search.Presenter.
type Model struct {
	mu       sync.RWMutex
	state    State
	onSelect search.SelectFunc
	days     int
	now      func() time.Time
}

var _ search.Presenter = (*Model)(nil)

// New creates an empty Model showing at most days forecast cards.
func New(days int) *Model {
	return &Model{
		state: State{
			Forecast:   []Day{},
			History:    []string{},
			Background: weather.DefaultBackground,
		},
		days: days,
		now:  time.Now,
	}
}

func (m *Model) ShowCurrent(snap weather.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bg := weather.BackgroundFor(snap.Condition)
	m.state.Current = &Current{
		Snapshot:   snap,
		Date:       m.now().In(snap.Location()).Format(DateLayout),
		IconClass:  weather.IconFor(snap.ConditionCode),
		Background: bg,
	}
	m.state.Background = bg
	m.state.Error = ""
	// The forecast on screen belongs to the previous city.
	m.state.Forecast = []Day{}
	m.state.ForecastError = ""
	m.state.Clock = ""
}

func (m *Model) ShowForecast(series weather.ForecastSeries) {
	m.mu.Lock()
	defer m.mu.Unlock()

	loc := time.FixedZone(series.City, series.UTCOffset)
	entries := weather.DailyForecast(series, m.now(), m.days)

	days := make([]Day, 0, len(entries))
	for _, e := range entries {
		days = append(days, Day{
			ForecastEntry: e,
			Date:          e.Time.In(loc).Format(DateLayout),
			IconClass:     weather.IconFor(e.ConditionCode),
			Background:    weather.BackgroundFor(e.Condition),
		})
	}
	m.state.Forecast = days
	m.state.ForecastError = ""
}

func (m *Model) ShowForecastError(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Forecast = []Day{}
	m.state.ForecastError = msg
}

func (m *Model) ShowError(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Error = msg
}

func (m *Model) RenderHistory(names []string, onSelect search.SelectFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.History = append([]string{}, names...)
	m.onSelect = onSelect
}

func (m *Model) ShowClock(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Clock = text
}

// Select activates a rendered history entry.
func (m *Model) Select(ctx context.Context, city string) error {
	m.mu.RLock()
	onSelect := m.onSelect
	listed := false
	for _, n := range m.state.History {
		if n == city {
			listed = true
			break
		}
	}
	m.mu.RUnlock()

	if !listed || onSelect == nil {
		return search.ErrNotInHistory
	}
	return onSelect(ctx, city)
}

// State returns a copy of the rendered state.
func (m *Model) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.state
	if m.state.Current != nil {
		cur := *m.state.Current
		out.Current = &cur
	}
	out.Forecast = append([]Day{}, m.state.Forecast...)
	out.History = append([]string{}, m.state.History...)
	return out
}
