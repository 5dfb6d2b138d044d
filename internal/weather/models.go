package weather

import (
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown      Condition = "unknown"
	ConditionClear        Condition = "clear"
	ConditionClouds       Condition = "clouds"
	ConditionRain         Condition = "rain"
	ConditionDrizzle      Condition = "drizzle"
	ConditionSnow         Condition = "snow"
	ConditionThunderstorm Condition = "thunderstorm"
	ConditionMist         Condition = "mist"
	ConditionFog          Condition = "fog"
)

// Coordinates locate a city for forecast lookups.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Snapshot is a single point-in-time reading for a city, in imperial units.
// Name is the canonical city name as returned by the data source.
type Snapshot struct {
	Name      string      `json:"name"`
	Country   string      `json:"country,omitempty"`
	Coord     Coordinates `json:"coord"`
	Timestamp time.Time   `json:"timestamp"` // always UTC
	UTCOffset int         `json:"utcOffset"` // seconds east of UTC

	TemperatureF float64 `json:"temperatureF"`
	FeelsLikeF   float64 `json:"feelsLikeF"`
	HumidityPct  float64 `json:"humidityPercent"`
	WindSpeedMPH float64 `json:"windSpeedMph"`

	Condition     Condition `json:"condition"`
	ConditionCode int       `json:"conditionCode"`
	Description   string    `json:"description,omitempty"`
	Icon          string    `json:"icon,omitempty"`
}

// Location returns the snapshot's time zone as a fixed zone.
func (s Snapshot) Location() *time.Location {
	return time.FixedZone(s.Name, s.UTCOffset)
}

// ForecastEntry is one interval of a forecast series.
type ForecastEntry struct {
	Time time.Time `json:"time"` // always UTC

	TemperatureF float64 `json:"temperatureF"`
	HumidityPct  float64 `json:"humidityPercent"`
	WindSpeedMPH float64 `json:"windSpeedMph"`

	Condition     Condition `json:"condition"`
	ConditionCode int       `json:"conditionCode"`
	Description   string    `json:"description,omitempty"`
	Icon          string    `json:"icon,omitempty"`
}

// ForecastSeries is a time-ordered sequence of future readings for a location.
type ForecastSeries struct {
	City      string          `json:"city,omitempty"`
	UTCOffset int             `json:"utcOffset"`
	Entries   []ForecastEntry `json:"entries"`
}
