package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-search/internal/weather"
	"github.com/sony/gobreaker"
)

const openWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

// OpenWeatherProvider implements weather.Source for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweather",
		apiKey:  apiKey,
		baseURL: openWeatherBaseURL,
		client:  client,
		circuit: newCircuitBreaker("openweather"),
	}
}

// WithBaseURL points the provider at another host, e.g. a test server.
func (p *OpenWeatherProvider) WithBaseURL(u string) *OpenWeatherProvider {
	p.baseURL = strings.TrimRight(u, "/")
	return p
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type owmCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

func (p *OpenWeatherProvider) Current(ctx context.Context, city string) (weather.Snapshot, error) {
	if p.apiKey == "" {
		return weather.Snapshot{}, fmt.Errorf("openweather api key is not configured")
	}

	values := url.Values{}
	values.Set("q", city)
	values.Set("units", "imperial")
	values.Set("appid", p.apiKey)

	var payload struct {
		Name  string `json:"name"`
		Coord struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"coord"`
		Dt       int64 `json:"dt"`
		Timezone int   `json:"timezone"`
		Main     struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  float64 `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Sys struct {
			Country string `json:"country"`
		} `json:"sys"`
		Weather []owmCondition `json:"weather"`
	}

	if err := getJSON(ctx, p.client, p.circuit, p.request("/weather", values), nil, &payload); err != nil {
		return weather.Snapshot{}, err
	}
	if payload.Name == "" {
		return weather.Snapshot{}, fmt.Errorf("%w: response carries no city name", weather.ErrUpstream)
	}

	ts := time.Unix(payload.Dt, 0).UTC()
	if payload.Dt == 0 {
		ts = time.Now().UTC()
	}

	snap := weather.Snapshot{
		Name:         payload.Name,
		Country:      payload.Sys.Country,
		Coord:        weather.Coordinates{Lat: payload.Coord.Lat, Lon: payload.Coord.Lon},
		Timestamp:    ts,
		UTCOffset:    payload.Timezone,
		TemperatureF: payload.Main.Temp,
		FeelsLikeF:   payload.Main.FeelsLike,
		HumidityPct:  payload.Main.Humidity,
		WindSpeedMPH: payload.Wind.Speed,
		Condition:    weather.ConditionUnknown,
	}
	if len(payload.Weather) > 0 {
		w := payload.Weather[0]
		snap.ConditionCode = w.ID
		snap.Condition = weather.ConditionFromCode(w.ID)
		snap.Description = w.Description
		snap.Icon = w.Icon
	}

	return snap, nil
}

func (p *OpenWeatherProvider) Forecast(ctx context.Context, coord weather.Coordinates) (weather.ForecastSeries, error) {
	if p.apiKey == "" {
		return weather.ForecastSeries{}, fmt.Errorf("openweather api key is not configured")
	}

	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(coord.Lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(coord.Lon, 'f', -1, 64))
	values.Set("units", "imperial")
	values.Set("appid", p.apiKey)

	var payload struct {
		List []struct {
			Dt   int64 `json:"dt"`
			Main struct {
				Temp     float64 `json:"temp"`
				Humidity float64 `json:"humidity"`
			} `json:"main"`
			Wind struct {
				Speed float64 `json:"speed"`
			} `json:"wind"`
			Weather []owmCondition `json:"weather"`
		} `json:"list"`
		City struct {
			Name     string `json:"name"`
			Timezone int    `json:"timezone"`
		} `json:"city"`
	}

	if err := getJSON(ctx, p.client, p.circuit, p.request("/forecast", values), nil, &payload); err != nil {
		return weather.ForecastSeries{}, err
	}

	series := weather.ForecastSeries{
		City:      payload.City.Name,
		UTCOffset: payload.City.Timezone,
		Entries:   make([]weather.ForecastEntry, 0, len(payload.List)),
	}
	for _, item := range payload.List {
		e := weather.ForecastEntry{
			Time:         time.Unix(item.Dt, 0).UTC(),
			TemperatureF: item.Main.Temp,
			HumidityPct:  item.Main.Humidity,
			WindSpeedMPH: item.Wind.Speed,
			Condition:    weather.ConditionUnknown,
		}
		if len(item.Weather) > 0 {
			w := item.Weather[0]
			e.ConditionCode = w.ID
			e.Condition = weather.ConditionFromCode(w.ID)
			e.Description = w.Description
			e.Icon = w.Icon
		}
		series.Entries = append(series.Entries, e)
	}

	return series, nil
}

func (p *OpenWeatherProvider) request(path string, values url.Values) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		u := fmt.Sprintf("%s%s?%s", p.baseURL, path, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}
}
