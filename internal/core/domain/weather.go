// Package domain contains the core business entities and domain logic for the
// moodcast service. This package defines the fundamental types and business
// rules that are independent of external frameworks and infrastructure concerns.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Condition describes one weather condition reported by the upstream provider
// (e.g. "Rain", "light rain"). An observation or forecast entry may carry
// several conditions at once.
type Condition struct {
	// ConditionID is the upstream provider's condition code
	ConditionID int

	// Name is the condition group, e.g. "Clouds"
	Name string

	// Description refines the group, e.g. "scattered clouds"
	Description string

	// Icon is the upstream icon identifier
	Icon string
}

// TemperatureReading holds the temperature block of an observation or
// forecast entry. Values are in the units requested from the upstream API.
type TemperatureReading struct {
	Temp      float64
	FeelsLike float64
	TempMin   float64
	TempMax   float64
	Pressure  int
	Humidity  int
}

// Wind holds wind speed and direction. A zero Wind is the canonical value
// substituted when the upstream payload omits the block.
type Wind struct {
	Speed   float64
	Degrees float64
}

// Cloud holds cloud coverage as a percentage.
type Cloud struct {
	Cloudiness int
}

// Precipitation holds rain or snow volume over the trailing one and three
// hour windows. Decimal is used because upstream volumes are fractional
// millimetre amounts that must survive aggregation without float drift.
type Precipitation struct {
	OneHourVolume   decimal.Decimal
	ThreeHourVolume decimal.Decimal
}

// Observation is a complete, normalized current-weather report for a city.
// Every optional block (wind, cloud, rain, snow) is guaranteed present after
// normalization, so consumers never need to special-case absence.
type Observation struct {
	// OpenWeatherID identifies the city in the upstream provider's namespace
	OpenWeatherID int

	// CityName is the upstream provider's name for the city
	CityName string

	Conditions  []Condition
	Temperature TemperatureReading
	Wind        Wind
	Cloud       Cloud
	Rain        Precipitation
	Snow        Precipitation
}

// Forecast is one normalized entry of a forecast set, valid at a specific
// future instant.
type Forecast struct {
	At          time.Time
	Conditions  []Condition
	Temperature TemperatureReading
	Wind        Wind
	Cloud       Cloud
	Rain        Precipitation
	Snow        Precipitation
}

// ForecastSet is a normalized multi-entry forecast for a city.
type ForecastSet struct {
	OpenWeatherID int
	CityName      string
	Forecasts     []Forecast
}

// City is a location entity resolved through the location lookup service.
type City struct {
	CityID int
	Name   string

	// OpenWeatherID maps the city into the upstream provider's namespace
	OpenWeatherID int
}

// User is an account entity resolved through the user lookup service.
type User struct {
	UserID int
	Name   string
}

// Emotion is one entry of the static emotion catalog.
type Emotion struct {
	EmotionID int
	Name      string
	Icon      string
}

// EmotionSelection records one user's dated choice of an emotion for a city.
// It is immutable once created; the durable store owns the authoritative copy
// and the in-process ledger holds it for the life of the process.
type EmotionSelection struct {
	SelectionID int64
	UserID      int
	CityID      int
	EmotionID   int
	CreatedOn   time.Time
}

// ID returns the unique selection identifier.
func (s EmotionSelection) ID() int64 { return s.SelectionID }

// Subject returns the acting user's id.
func (s EmotionSelection) Subject() int { return s.UserID }

// Target returns the selected city's id.
func (s EmotionSelection) Target() int { return s.CityID }

// Category returns the chosen emotion's id.
func (s EmotionSelection) Category() int { return s.EmotionID }

// CreatedAt returns the timezone-adjusted creation timestamp.
func (s EmotionSelection) CreatedAt() time.Time { return s.CreatedOn }

// EmotionCount is a derived projection: how often an emotion was selected
// today for one city and across all cities. It is computed on demand and
// never stored.
type EmotionCount struct {
	EmotionID   int
	CityCount   int
	GlobalCount int
}

// UserDailyConfiguration reports a user's selection state for one city today:
// which emotion they already chose for it (nil if none), how many selections
// they have used across all cities, and the configured daily limit.
type UserDailyConfiguration struct {
	EmotionID       *int
	SelectionsToday int
	LimitToday      int
}
