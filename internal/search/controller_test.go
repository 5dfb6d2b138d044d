package search

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/weather-search/internal/history"
	"github.com/i474232898/weather-search/internal/store"
	"github.com/i474232898/weather-search/internal/weather"
)

// stubSource answers from fixed tables and records what it was asked.
type stubSource struct {
	mu          sync.Mutex
	current     map[string]weather.Snapshot // keyed by lower-cased input
	forecastErr error
	currentErr  error

	currentCalls  []string
	forecastCalls []weather.Coordinates

	// gate, when set for a city, blocks Current until closed.
	gate map[string]chan struct{}
	// ignoreCtx makes gated calls finish even after cancellation.
	ignoreCtx bool
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Current(ctx context.Context, city string) (weather.Snapshot, error) {
	s.mu.Lock()
	s.currentCalls = append(s.currentCalls, city)
	gate := s.gate[strings.ToLower(city)]
	s.mu.Unlock()

	if gate != nil {
		if s.ignoreCtx {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return weather.Snapshot{}, ctx.Err()
			}
		}
	}

	if s.currentErr != nil {
		return weather.Snapshot{}, s.currentErr
	}
	snap, ok := s.current[strings.ToLower(city)]
	if !ok {
		return weather.Snapshot{}, weather.ErrCityNotFound
	}
	return snap, nil
}

func (s *stubSource) Forecast(_ context.Context, coord weather.Coordinates) (weather.ForecastSeries, error) {
	s.mu.Lock()
	s.forecastCalls = append(s.forecastCalls, coord)
	s.mu.Unlock()

	if s.forecastErr != nil {
		return weather.ForecastSeries{}, s.forecastErr
	}
	return weather.ForecastSeries{Entries: make([]weather.ForecastEntry, 40)}, nil
}

// recordingPresenter keeps every call.
type recordingPresenter struct {
	mu            sync.Mutex
	current       []string
	forecasts     []weather.ForecastSeries
	forecastErrs  []string
	errors        []string
	history       [][]string
	onSelect      SelectFunc
	clockMessages int
}

func (p *recordingPresenter) ShowCurrent(snap weather.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = append(p.current, snap.Name)
}

func (p *recordingPresenter) ShowForecast(series weather.ForecastSeries) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.forecasts = append(p.forecasts, series)
}

func (p *recordingPresenter) ShowForecastError(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.forecastErrs = append(p.forecastErrs, msg)
}

func (p *recordingPresenter) ShowError(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors = append(p.errors, msg)
}

func (p *recordingPresenter) RenderHistory(names []string, onSelect SelectFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history = append(p.history, names)
	p.onSelect = onSelect
}

func (p *recordingPresenter) ShowClock(string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clockMessages++
}

func london() weather.Snapshot {
	return weather.Snapshot{
		Name:  "London",
		Coord: weather.Coordinates{Lat: 51.5, Lon: -0.12},
	}
}

func newController(t *testing.T, src *stubSource) (*Controller, *recordingPresenter, *history.Store) {
	t.Helper()
	hist := history.New(store.NewMemoryStore())
	p := &recordingPresenter{}
	c := NewController(src, hist, p, time.Hour)
	t.Cleanup(c.Close)
	return c, p, hist
}

func TestSearchRendersAndRecords(t *testing.T) {
	src := &stubSource{current: map[string]weather.Snapshot{"london": london()}}
	c, p, hist := newController(t, src)

	if err := c.Search(context.Background(), "london"); err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if !reflect.DeepEqual(p.current, []string{"London"}) {
		t.Errorf("expected current conditions for London, got %v", p.current)
	}
	want := []weather.Coordinates{{Lat: 51.5, Lon: -0.12}}
	if !reflect.DeepEqual(src.forecastCalls, want) {
		t.Errorf("expected forecast request at %v, got %v", want, src.forecastCalls)
	}
	if len(p.forecasts) != 1 || p.forecasts[0].City != "London" {
		t.Errorf("expected one forecast for London, got %+v", p.forecasts)
	}
	if got := hist.List(); !reflect.DeepEqual(got, []string{"London"}) {
		t.Errorf("expected history [London], got %v", got)
	}
	if p.clockMessages == 0 {
		t.Errorf("expected the clock to render for the displayed city")
	}
}

func TestSearchCityNotFound(t *testing.T) {
	src := &stubSource{current: map[string]weather.Snapshot{"london": london()}}
	c, p, hist := newController(t, src)
	ctx := context.Background()

	hist.Add(ctx, "Paris")

	err := c.Search(ctx, "Atlantis")

	var serr *Error
	if !errors.As(err, &serr) || serr.Kind != KindCityNotFound {
		t.Fatalf("expected city-not-found error, got %v", err)
	}
	if !errors.Is(err, weather.ErrCityNotFound) {
		t.Errorf("expected error to wrap weather.ErrCityNotFound")
	}
	if len(p.current) != 0 || len(p.forecasts) != 0 {
		t.Errorf("presenter should not render weather on failure, got %v / %v", p.current, p.forecasts)
	}
	if len(p.errors) != 1 {
		t.Errorf("expected one error message, got %v", p.errors)
	}
	if len(src.forecastCalls) != 0 {
		t.Errorf("forecast must not be requested after a failed lookup")
	}
	if got := hist.List(); !reflect.DeepEqual(got, []string{"Paris"}) {
		t.Errorf("history should be unchanged, got %v", got)
	}
}

func TestSearchNetworkFailureKind(t *testing.T) {
	src := &stubSource{currentErr: weather.ErrUpstream}
	c, p, _ := newController(t, src)

	err := c.Search(context.Background(), "London")

	var serr *Error
	if !errors.As(err, &serr) || serr.Kind != KindNetworkFailure {
		t.Fatalf("expected network failure, got %v", err)
	}
	if len(p.errors) != 1 || p.errors[0] != "Unable to reach the weather service" {
		t.Errorf("unexpected error message: %v", p.errors)
	}
}

func TestSearchForecastFailureKeepsCurrent(t *testing.T) {
	src := &stubSource{
		current:     map[string]weather.Snapshot{"london": london()},
		forecastErr: weather.ErrUpstream,
	}
	c, p, hist := newController(t, src)

	if err := c.Search(context.Background(), "London"); err != nil {
		t.Fatalf("forecast failure must not fail the search, got %v", err)
	}

	if !reflect.DeepEqual(p.current, []string{"London"}) {
		t.Errorf("current conditions should be rendered, got %v", p.current)
	}
	if len(p.forecastErrs) != 1 {
		t.Errorf("expected forecast panel to report failure, got %v", p.forecastErrs)
	}
	if len(p.errors) != 0 {
		t.Errorf("current panel should not report an error, got %v", p.errors)
	}
	if got := hist.List(); !reflect.DeepEqual(got, []string{"London"}) {
		t.Errorf("expected history to gain London, got %v", got)
	}
}

func TestSearchBlankInputIsNoop(t *testing.T) {
	src := &stubSource{current: map[string]weather.Snapshot{"london": london()}}
	c, p, hist := newController(t, src)

	for _, in := range []string{"", "   ", "\t\n"} {
		if err := c.Search(context.Background(), in); err != nil {
			t.Fatalf("Search(%q) returned %v", in, err)
		}
	}

	if len(src.currentCalls) != 0 {
		t.Errorf("no request should be issued, got %v", src.currentCalls)
	}
	if len(p.current)+len(p.errors)+len(p.history) != 0 {
		t.Errorf("presenter should not be touched")
	}
	if len(hist.List()) != 0 {
		t.Errorf("history should stay empty")
	}
}

func TestSearchTrimsInput(t *testing.T) {
	src := &stubSource{current: map[string]weather.Snapshot{"london": london()}}
	c, _, _ := newController(t, src)

	c.Search(context.Background(), "  london  ")

	if !reflect.DeepEqual(src.currentCalls, []string{"london"}) {
		t.Fatalf("expected trimmed request, got %v", src.currentCalls)
	}
}

func TestHistoryUsesCanonicalName(t *testing.T) {
	src := &stubSource{current: map[string]weather.Snapshot{
		"paris": {Name: "Paris", Coord: weather.Coordinates{Lat: 48.85, Lon: 2.35}},
	}}
	c, _, hist := newController(t, src)
	ctx := context.Background()

	for _, in := range []string{"PARIS", "paris", "pArIs"} {
		if err := c.Search(ctx, in); err != nil {
			t.Fatalf("Search(%q) failed: %v", in, err)
		}
	}

	if got := hist.List(); !reflect.DeepEqual(got, []string{"Paris"}) {
		t.Fatalf("expected a single canonical entry, got %v", got)
	}
}

func TestSelectRunsFreshLookup(t *testing.T) {
	src := &stubSource{current: map[string]weather.Snapshot{"london": london()}}
	c, p, _ := newController(t, src)
	ctx := context.Background()

	c.Search(ctx, "london")
	if p.onSelect == nil {
		t.Fatalf("expected history to be rendered with a select callback")
	}

	if err := p.onSelect(ctx, "London"); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if len(src.currentCalls) != 2 {
		t.Errorf("selecting from history must fetch again, got calls %v", src.currentCalls)
	}

	if err := c.Select(ctx, "Madrid"); !errors.Is(err, ErrNotInHistory) {
		t.Errorf("expected ErrNotInHistory, got %v", err)
	}
}

func TestClearRendersEmptyHistory(t *testing.T) {
	src := &stubSource{current: map[string]weather.Snapshot{"london": london()}}
	c, p, hist := newController(t, src)
	ctx := context.Background()

	c.Search(ctx, "london")
	c.Clear(ctx)

	if len(hist.List()) != 0 {
		t.Fatalf("expected empty history")
	}
	last := p.history[len(p.history)-1]
	if len(last) != 0 {
		t.Errorf("expected empty history render, got %v", last)
	}
}

func TestStartRendersPersistedHistory(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	kv.Set(ctx, history.Key, []byte(`["Lima","Oslo"]`))

	p := &recordingPresenter{}
	c := NewController(&stubSource{}, history.New(kv), p, time.Hour)
	defer c.Close()

	c.Start(ctx)

	if len(p.history) != 1 || !reflect.DeepEqual(p.history[0], []string{"Lima", "Oslo"}) {
		t.Fatalf("expected initial history render, got %v", p.history)
	}
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	src := &stubSource{
		current: map[string]weather.Snapshot{
			"london": london(),
			"tokyo":  {Name: "Tokyo", Coord: weather.Coordinates{Lat: 35.68, Lon: 139.69}},
		},
		gate:      map[string]chan struct{}{"london": gate},
		ignoreCtx: true,
	}
	c, p, hist := newController(t, src)
	ctx := context.Background()

	slow := make(chan error, 1)
	go func() { slow <- c.Search(ctx, "london") }()

	// Wait until the slow search is in flight.
	deadline := time.Now().Add(2 * time.Second)
	for {
		src.mu.Lock()
		n := len(src.currentCalls)
		src.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("slow search never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := c.Search(ctx, "tokyo"); err != nil {
		t.Fatalf("fresh search failed: %v", err)
	}
	close(gate)

	if err := <-slow; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected stale search to be superseded, got %v", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !reflect.DeepEqual(p.current, []string{"Tokyo"}) {
		t.Errorf("stale response must not be rendered, got %v", p.current)
	}
	if len(p.forecasts) != 1 {
		t.Errorf("expected only the fresh forecast, got %d", len(p.forecasts))
	}
	if got := hist.List(); !reflect.DeepEqual(got, []string{"Tokyo", "London"}) {
		t.Errorf("expected both canonical names recorded, got %v", got)
	}
}

func TestNewSearchCancelsInFlight(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	src := &stubSource{
		current: map[string]weather.Snapshot{
			"london": london(),
			"tokyo":  {Name: "Tokyo"},
		},
		gate: map[string]chan struct{}{"london": gate},
	}
	c, p, hist := newController(t, src)
	ctx := context.Background()

	slow := make(chan error, 1)
	go func() { slow <- c.Search(ctx, "london") }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		src.mu.Lock()
		n := len(src.currentCalls)
		src.mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("slow search never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	c.Search(ctx, "tokyo")

	select {
	case err := <-slow:
		if !errors.Is(err, ErrSuperseded) {
			t.Fatalf("expected ErrSuperseded, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("in-flight search was not cancelled")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.errors) != 0 {
		t.Errorf("cancellation of a stale search must not be reported, got %v", p.errors)
	}
	if got := hist.List(); !reflect.DeepEqual(got, []string{"Tokyo"}) {
		t.Errorf("expected only Tokyo in history, got %v", got)
	}
}
