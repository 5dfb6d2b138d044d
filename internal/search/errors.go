package search

import (
	"errors"
	"fmt"

	"github.com/i474232898/weather-search/internal/weather"
)

// Kind classifies a search failure.
type Kind int

const (
	KindCityNotFound Kind = iota + 1
	KindNetworkFailure
	KindForecastFailure
	KindPersistenceFailure
)

func (k Kind) String() string {
	switch k {
	case KindCityNotFound:
		return "city_not_found"
	case KindNetworkFailure:
		return "network_failure"
	case KindForecastFailure:
		return "forecast_failure"
	case KindPersistenceFailure:
		return "persistence_failure"
	default:
		return "unknown"
	}
}

// Error is a failed lookup with a message fit for the user.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// currentError converts a current-conditions failure.
func currentError(city string, err error) *Error {
	if errors.Is(err, weather.ErrCityNotFound) {
		return &Error{
			Kind:    KindCityNotFound,
			Message: fmt.Sprintf("City not found: %s", city),
			Err:     err,
		}
	}
	return &Error{
		Kind:    KindNetworkFailure,
		Message: "Unable to reach the weather service",
		Err:     err,
	}
}

// forecastError converts a forecast failure.
func forecastError(err error) *Error {
	return &Error{
		Kind:    KindForecastFailure,
		Message: "Error fetching forecast",
		Err:     err,
	}
}
