// Package search coordinates a city lookup: fetch current conditions, fetch
// the forecast, hand both to the Presenter and record the city in history.
package search

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/weather-search/internal/clock"
	"github.com/i474232898/weather-search/internal/history"
	"github.com/i474232898/weather-search/internal/weather"
)

var (
	// ErrSuperseded is returned when a newer search started before this one could render.
	ErrSuperseded = errors.New("search superseded by a newer one")
	// ErrNotInHistory is returned by Select for a city that is not a history entry.
	ErrNotInHistory = errors.New("city is not in the search history")
)

// Controller is the single entry point for lookups in one running session.
//
// Every Search takes the next sequence number and cancels the previous
// in-flight search. Results of a search that is no longer the latest are not
// rendered. Presenter calls are serialized under mu.
type Controller struct {
	source    weather.Source
	history   *history.Store
	presenter Presenter
	clock     *clock.Clock

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewController wires a Controller. clockInterval is the refresh period of
// the local-time display (one second when zero).
func NewController(source weather.Source, hist *history.Store, presenter Presenter, clockInterval time.Duration) *Controller {
	c := &Controller{
		source:    source,
		history:   hist,
		presenter: presenter,
	}
	c.clock = clock.New(clockInterval, func(_ clock.Session, text string) {
		presenter.ShowClock(text)
	})
	return c
}

// Start loads the persisted history and renders it.
func (c *Controller) Start(ctx context.Context) {
	names := c.history.Load(ctx)
	log.Printf("INFO: search: loaded %d history entries", len(names))
	c.renderHistory()
}

// Close cancels any in-flight search and stops the clock.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()

	c.clock.Stop()
}

// Search looks up rawCity. Blank input is ignored. A failed current-conditions
// lookup returns an *Error and leaves history and rendered weather untouched.
// A failed forecast is reported to the Presenter only; the current conditions
// and history update stand and Search returns nil.
func (c *Controller) Search(ctx context.Context, rawCity string) error {
	city := strings.TrimSpace(rawCity)
	if city == "" {
		return nil
	}

	seq, reqCtx, done := c.begin(ctx)
	defer done()

	snap, err := c.source.Current(reqCtx, city)
	if err != nil {
		serr := currentError(city, err)
		if !c.renderIfLatest(seq, func() { c.presenter.ShowError(serr.Message) }) {
			return ErrSuperseded
		}
		log.Printf("WARN: search: %s lookup for %q failed: %v", c.source.Name(), city, err)
		return serr
	}

	rendered := c.renderIfLatest(seq, func() {
		c.presenter.ShowCurrent(snap)
		c.clock.Display(snap.Name, snap.UTCOffset)
	})

	// The canonical name is recorded even when a newer search took the screen.
	c.record(ctx, snap.Name)

	if !rendered {
		return ErrSuperseded
	}

	series, err := c.source.Forecast(reqCtx, snap.Coord)
	if err != nil {
		ferr := forecastError(err)
		if c.renderIfLatest(seq, func() { c.presenter.ShowForecastError(ferr.Message) }) {
			log.Printf("WARN: search: forecast for %s failed: %v", snap.Name, err)
		}
		return nil
	}
	if series.City == "" {
		series.City = snap.Name
	}

	if !c.renderIfLatest(seq, func() { c.presenter.ShowForecast(series) }) {
		return ErrSuperseded
	}
	return nil
}

// Select re-runs the full lookup for a city taken from the history.
func (c *Controller) Select(ctx context.Context, city string) error {
	if !c.history.Contains(city) {
		return ErrNotInHistory
	}
	return c.Search(ctx, city)
}

// Clear empties the history and re-renders it.
func (c *Controller) Clear(ctx context.Context) {
	if _, err := c.history.Clear(ctx); err != nil {
		log.Printf("WARN: search: %v", &Error{Kind: KindPersistenceFailure, Message: "history clear not persisted", Err: err})
	}
	c.renderHistory()
}

// History returns the current history list.
func (c *Controller) History() []string {
	return c.history.List()
}

func (c *Controller) record(ctx context.Context, name string) {
	if _, err := c.history.Add(ctx, name); err != nil {
		log.Printf("WARN: search: %v", &Error{Kind: KindPersistenceFailure, Message: "history entry " + name + " not persisted", Err: err})
	}
	c.renderHistory()
}

func (c *Controller) renderHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.presenter.RenderHistory(c.history.List(), c.Select)
}

// begin registers a new search and cancels the one before it.
func (c *Controller) begin(ctx context.Context) (uint64, context.Context, func()) {
	reqCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	seq := c.seq
	c.cancel = cancel
	c.mu.Unlock()

	return seq, reqCtx, func() {
		cancel()
		c.mu.Lock()
		if c.seq == seq {
			c.cancel = nil
		}
		c.mu.Unlock()
	}
}

func (c *Controller) renderIfLatest(seq uint64, render func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		return false
	}
	render()
	return true
}
