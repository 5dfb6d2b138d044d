package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/i474232898/weather-search/internal/common"
	"github.com/i474232898/weather-search/internal/weather"
	"github.com/sony/gobreaker"
)

const (
	weatherAPIBaseURL = "https://api.weatherapi.com/v1"

	// weatherAPINoMatch is WeatherAPI's error code for "No matching location found".
	weatherAPINoMatch = 1006

	// forecast.json counts today as a day; one extra gives five future days.
	weatherAPIForecastDays = weather.MaxForecastDays + 1
)

// WeatherAPIProvider implements weather.Source for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: weatherAPIBaseURL,
		client:  client,
		circuit: newCircuitBreaker("weatherapi"),
	}
}

// WithBaseURL points the provider at another host, e.g. a test server.
func (p *WeatherAPIProvider) WithBaseURL(u string) *WeatherAPIProvider {
	p.baseURL = strings.TrimRight(u, "/")
	return p
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

type weatherAPICondition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
	Code int    `json:"code"`
}

type weatherAPILocation struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	TzID    string  `json:"tz_id"`
}

func (p *WeatherAPIProvider) Current(ctx context.Context, city string) (weather.Snapshot, error) {
	if p.apiKey == "" {
		return weather.Snapshot{}, fmt.Errorf("weatherapi api key is not configured")
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("q", city)

	var payload struct {
		Location weatherAPILocation `json:"location"`
		Current  struct {
			LastUpdatedEpoch int64               `json:"last_updated_epoch"`
			TempF            float64             `json:"temp_f"`
			FeelsLikeF       float64             `json:"feelslike_f"`
			Humidity         float64             `json:"humidity"`
			WindMph          float64             `json:"wind_mph"`
			Condition        weatherAPICondition `json:"condition"`
		} `json:"current"`
	}

	if err := getJSON(ctx, p.client, p.circuit, p.request("/current.json", values), classifyWeatherAPI, &payload); err != nil {
		return weather.Snapshot{}, err
	}
	if payload.Location.Name == "" {
		return weather.Snapshot{}, fmt.Errorf("%w: response carries no city name", weather.ErrUpstream)
	}

	ts := time.Unix(payload.Current.LastUpdatedEpoch, 0).UTC()
	if payload.Current.LastUpdatedEpoch == 0 {
		ts = time.Now().UTC()
	}

	cond := mapWeatherAPICondition(payload.Current.Condition)

	return weather.Snapshot{
		Name:          payload.Location.Name,
		Country:       payload.Location.Country,
		Coord:         weather.Coordinates{Lat: payload.Location.Lat, Lon: payload.Location.Lon},
		Timestamp:     ts,
		UTCOffset:     zoneOffset(payload.Location.TzID, ts),
		TemperatureF:  payload.Current.TempF,
		FeelsLikeF:    payload.Current.FeelsLikeF,
		HumidityPct:   payload.Current.Humidity,
		WindSpeedMPH:  payload.Current.WindMph,
		Condition:     cond,
		ConditionCode: weatherAPICode(payload.Current.Condition.Code, cond),
		Description:   payload.Current.Condition.Text,
		Icon:          payload.Current.Condition.Icon,
	}, nil
}

func (p *WeatherAPIProvider) Forecast(ctx context.Context, coord weather.Coordinates) (weather.ForecastSeries, error) {
	if p.apiKey == "" {
		return weather.ForecastSeries{}, fmt.Errorf("weatherapi api key is not configured")
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("q", fmt.Sprintf("%f,%f", coord.Lat, coord.Lon))
	values.Set("days", fmt.Sprint(weatherAPIForecastDays))

	var payload struct {
		Location weatherAPILocation `json:"location"`
		Forecast struct {
			ForecastDay []struct {
				Hour []struct {
					TimeEpoch int64               `json:"time_epoch"`
					TempF     float64             `json:"temp_f"`
					Humidity  float64             `json:"humidity"`
					WindMph   float64             `json:"wind_mph"`
					Condition weatherAPICondition `json:"condition"`
				} `json:"hour"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}

	if err := getJSON(ctx, p.client, p.circuit, p.request("/forecast.json", values), classifyWeatherAPI, &payload); err != nil {
		return weather.ForecastSeries{}, err
	}

	series := weather.ForecastSeries{
		City:      payload.Location.Name,
		UTCOffset: zoneOffset(payload.Location.TzID, time.Now()),
	}
	for _, day := range payload.Forecast.ForecastDay {
		for _, h := range day.Hour {
			cond := mapWeatherAPICondition(h.Condition)
			series.Entries = append(series.Entries, weather.ForecastEntry{
				Time:          time.Unix(h.TimeEpoch, 0).UTC(),
				TemperatureF:  h.TempF,
				HumidityPct:   h.Humidity,
				WindSpeedMPH:  h.WindMph,
				Condition:     cond,
				ConditionCode: weatherAPICode(h.Condition.Code, cond),
				Description:   h.Condition.Text,
				Icon:          h.Condition.Icon,
			})
		}
	}

	return series, nil
}

func (p *WeatherAPIProvider) request(path string, values url.Values) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		u := fmt.Sprintf("%s%s?%s", p.baseURL, path, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}
}

// classifyWeatherAPI recognises the "no matching location" error body.
func classifyWeatherAPI(resp *http.Response) error {
	if resp.StatusCode == http.StatusBadRequest {
		var body struct {
			Error struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.NewDecoder(bytes.NewReader(drain(resp.Body))).Decode(&body); err == nil &&
			body.Error.Code == weatherAPINoMatch {
			return weather.ErrCityNotFound
		}
	}
	return defaultClassifier(resp)
}

// zoneOffset resolves an IANA zone to its offset at t; unknown zones are UTC.
func zoneOffset(tzID string, t time.Time) int {
	if tzID == "" {
		return 0
	}
	loc, err := time.LoadLocation(tzID)
	if err != nil {
		return 0
	}
	_, offset := t.In(loc).Zone()
	return offset
}

// weatherAPICode translates WeatherAPI's sky codes and falls back to the category.
func weatherAPICode(code int, cond weather.Condition) int {
	switch code {
	case 1000:
		return 800
	case 1003:
		return 801
	case 1006:
		return 802
	case 1009:
		return 804
	}
	return weather.CodeFor(cond)
}

func mapWeatherAPICondition(c weatherAPICondition) weather.Condition {
	text := c.Text
	switch {
	case text == "":
		return weather.ConditionUnknown
	case common.HasAny(text, "thunder", "storm"):
		return weather.ConditionThunderstorm
	case common.HasAny(text, "drizzle"):
		return weather.ConditionDrizzle
	case common.HasAny(text, "rain", "shower"):
		return weather.ConditionRain
	case common.HasAny(text, "snow", "sleet", "blizzard", "ice"):
		return weather.ConditionSnow
	case common.HasAny(text, "fog"):
		return weather.ConditionFog
	case common.HasAny(text, "mist"):
		return weather.ConditionMist
	case common.HasAny(text, "cloud", "overcast"):
		return weather.ConditionClouds
	case common.HasAny(text, "sunny", "clear"):
		return weather.ConditionClear
	default:
		return weather.ConditionUnknown
	}
}
