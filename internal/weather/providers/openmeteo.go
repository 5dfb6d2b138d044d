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
	"github.com/kelvins/geocoder"
	"github.com/sony/gobreaker"
)

const (
	openMeteoBaseURL = "https://api.open-meteo.com/v1"

	openMeteoCurrentFields = "temperature_2m,apparent_temperature,relative_humidity_2m,wind_speed_10m,weather_code"
	openMeteoHourlyFields  = "temperature_2m,relative_humidity_2m,wind_speed_10m,weather_code"
)

// Place is a geocoded city.
type Place struct {
	Name    string
	Country string
	Coord   weather.Coordinates
}

// Geocoder resolves a typed city name to its canonical name and coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, city string) (Place, error)
}

// GoogleGeocoder resolves cities through the Google Geocoding API.
type GoogleGeocoder struct{}

// NewGoogleGeocoder configures the geocoder package with the given key.
func NewGoogleGeocoder(apiKey string) GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return GoogleGeocoder{}
}

func (GoogleGeocoder) Resolve(ctx context.Context, city string) (Place, error) {
	if err := ctx.Err(); err != nil {
		return Place{}, fmt.Errorf("%w: %v", weather.ErrUpstream, err)
	}

	loc, err := geocoder.Geocoding(geocoder.Address{City: city})
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "no results") || strings.Contains(msg, "zero_results") {
			return Place{}, fmt.Errorf("%w: %s", weather.ErrCityNotFound, city)
		}
		return Place{}, fmt.Errorf("%w: geocoding: %v", weather.ErrUpstream, err)
	}

	addrs, err := geocoder.GeocodingReverse(loc)
	if err != nil {
		return Place{}, fmt.Errorf("%w: reverse geocoding %s: %v", weather.ErrUpstream, city, err)
	}
	return canonicalPlace(city, loc, addrs)
}

// canonicalPlace takes the city name from the reverse lookup. The typed name is
// never used as a fallback: history is keyed by the canonical spelling.
func canonicalPlace(city string, loc geocoder.Location, addrs []geocoder.Address) (Place, error) {
	for _, a := range addrs {
		name := a.City
		if name == "" && a.FormattedAddress != "" {
			name = strings.TrimSpace(strings.SplitN(a.FormattedAddress, ",", 2)[0])
		}
		if name == "" {
			continue
		}
		return Place{
			Name:    name,
			Country: a.Country,
			Coord:   weather.Coordinates{Lat: loc.Latitude, Lon: loc.Longitude},
		}, nil
	}
	return Place{}, fmt.Errorf("%w: no canonical name for %s", weather.ErrUpstream, city)
}

// OpenMeteoProvider implements weather.Source for Open-Meteo.
// Open-Meteo only speaks coordinates, so city names go through a Geocoder first.
type OpenMeteoProvider struct {
	name     string
	baseURL  string
	client   *http.Client
	geocoder Geocoder
	circuit  *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client, geo Geocoder) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:     "openmeteo",
		baseURL:  openMeteoBaseURL,
		client:   client,
		geocoder: geo,
		circuit:  newCircuitBreaker("openmeteo"),
	}
}

// WithBaseURL points the provider at another host, e.g. a test server.
func (p *OpenMeteoProvider) WithBaseURL(u string) *OpenMeteoProvider {
	p.baseURL = strings.TrimRight(u, "/")
	return p
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) Current(ctx context.Context, city string) (weather.Snapshot, error) {
	if p.geocoder == nil {
		return weather.Snapshot{}, fmt.Errorf("openmeteo requires a geocoder")
	}

	place, err := p.geocoder.Resolve(ctx, city)
	if err != nil {
		return weather.Snapshot{}, err
	}

	values := p.baseValues(place.Coord)
	values.Set("current", openMeteoCurrentFields)

	var payload struct {
		UTCOffsetSeconds int `json:"utc_offset_seconds"`
		Current          struct {
			Time                int64   `json:"time"`
			Temperature2m       float64 `json:"temperature_2m"`
			ApparentTemperature float64 `json:"apparent_temperature"`
			RelativeHumidity2m  float64 `json:"relative_humidity_2m"`
			WindSpeed10m        float64 `json:"wind_speed_10m"`
			WeatherCode         int     `json:"weather_code"`
		} `json:"current"`
	}

	if err := getJSON(ctx, p.client, p.circuit, p.request(values), nil, &payload); err != nil {
		return weather.Snapshot{}, err
	}

	ts := time.Unix(payload.Current.Time, 0).UTC()
	if payload.Current.Time == 0 {
		ts = time.Now().UTC()
	}

	code := wmoToCode(payload.Current.WeatherCode)

	return weather.Snapshot{
		Name:          place.Name,
		Country:       place.Country,
		Coord:         place.Coord,
		Timestamp:     ts,
		UTCOffset:     payload.UTCOffsetSeconds,
		TemperatureF:  payload.Current.Temperature2m,
		FeelsLikeF:    payload.Current.ApparentTemperature,
		HumidityPct:   payload.Current.RelativeHumidity2m,
		WindSpeedMPH:  payload.Current.WindSpeed10m,
		Condition:     weather.ConditionFromCode(code),
		ConditionCode: code,
	}, nil
}

func (p *OpenMeteoProvider) Forecast(ctx context.Context, coord weather.Coordinates) (weather.ForecastSeries, error) {
	values := p.baseValues(coord)
	values.Set("hourly", openMeteoHourlyFields)
	values.Set("forecast_days", strconv.Itoa(weather.MaxForecastDays+1))

	var payload struct {
		UTCOffsetSeconds int `json:"utc_offset_seconds"`
		Hourly           struct {
			Time               []int64   `json:"time"`
			Temperature2m      []float64 `json:"temperature_2m"`
			RelativeHumidity2m []float64 `json:"relative_humidity_2m"`
			WindSpeed10m       []float64 `json:"wind_speed_10m"`
			WeatherCode        []int     `json:"weather_code"`
		} `json:"hourly"`
	}

	if err := getJSON(ctx, p.client, p.circuit, p.request(values), nil, &payload); err != nil {
		return weather.ForecastSeries{}, err
	}

	h := payload.Hourly
	n := len(h.Time)
	if len(h.Temperature2m) != n || len(h.RelativeHumidity2m) != n || len(h.WindSpeed10m) != n || len(h.WeatherCode) != n {
		return weather.ForecastSeries{}, fmt.Errorf("%w: hourly arrays have mismatched lengths", weather.ErrUpstream)
	}

	series := weather.ForecastSeries{
		UTCOffset: payload.UTCOffsetSeconds,
		Entries:   make([]weather.ForecastEntry, 0, n),
	}
	for i := 0; i < n; i++ {
		code := wmoToCode(h.WeatherCode[i])
		series.Entries = append(series.Entries, weather.ForecastEntry{
			Time:          time.Unix(h.Time[i], 0).UTC(),
			TemperatureF:  h.Temperature2m[i],
			HumidityPct:   h.RelativeHumidity2m[i],
			WindSpeedMPH:  h.WindSpeed10m[i],
			Condition:     weather.ConditionFromCode(code),
			ConditionCode: code,
		})
	}

	return series, nil
}

func (p *OpenMeteoProvider) baseValues(coord weather.Coordinates) url.Values {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(coord.Lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(coord.Lon, 'f', -1, 64))
	values.Set("temperature_unit", "fahrenheit")
	values.Set("wind_speed_unit", "mph")
	values.Set("timezone", "auto")
	values.Set("timeformat", "unixtime")
	return values
}

func (p *OpenMeteoProvider) request(values url.Values) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		u := fmt.Sprintf("%s/forecast?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}
}

// wmoToCode maps WMO weather interpretation codes onto OpenWeatherMap condition ids.
func wmoToCode(code int) int {
	switch {
	case code == 0:
		return 800
	case code == 1:
		return 801
	case code == 2:
		return 802
	case code == 3:
		return 804
	case code == 45 || code == 48:
		return 741
	case code >= 51 && code <= 57:
		return 301
	case code >= 61 && code <= 65:
		return 501
	case code == 66 || code == 67:
		return 511
	case code >= 71 && code <= 77:
		return 601
	case code >= 80 && code <= 82:
		return 521
	case code == 85 || code == 86:
		return 621
	case code >= 95:
		return 211
	default:
		return 0
	}
}
