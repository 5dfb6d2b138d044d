package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/i474232898/weather-search/internal/weather"
	"github.com/sony/gobreaker"
)

var (
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// statusClassifier turns a non-2xx response into an error. The body is still open.
type statusClassifier func(resp *http.Response) error

// newCircuitBreaker builds the breaker every provider wraps its calls in.
// Unknown cities are a valid answer from the service and cancelled calls say
// nothing about its health; neither trips it.
func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, weather.ErrCityNotFound) ||
				errors.Is(err, context.Canceled)
		},
	})
}

// defaultClassifier treats 404 as an unknown city and anything else as an upstream failure.
func defaultClassifier(resp *http.Response) error {
	if resp.StatusCode == http.StatusNotFound {
		return weather.ErrCityNotFound
	}
	return fmt.Errorf("%w: unexpected status code %d", weather.ErrUpstream, resp.StatusCode)
}

// doRequest executes a single request through the circuit breaker. There is no
// retry; a failure is reported to the caller straight away.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
	classify statusClassifier,
) (*http.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}
	if classify == nil {
		classify = defaultClassifier
	}

	req, err := buildRequest(ctx)
	if err != nil {
		return nil, err
	}

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, fmt.Errorf("%w: %w", weather.ErrUpstream, execErr)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			defer resp.Body.Close()
			return nil, classify(resp)
		}

		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w: %v", weather.ErrUpstream, errCircuitOpen, err)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected result type from circuit breaker", weather.ErrUpstream)
	}
	return resp, nil
}

// getJSON runs doRequest and decodes the body into out.
func getJSON(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
	classify statusClassifier,
	out interface{},
) error {
	resp, err := doRequest(ctx, client, cb, buildRequest, classify)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", weather.ErrUpstream, err)
	}
	return nil
}

// drain reads a bounded amount of an error body for inspection.
func drain(r io.Reader) []byte {
	b, _ := io.ReadAll(io.LimitReader(r, 64<<10))
	return b
}
