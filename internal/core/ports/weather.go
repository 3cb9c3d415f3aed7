// Package ports defines the boundary interfaces between the core services
// and their collaborators: upstream API clients, entity lookups, and the
// durable store. Raw upstream payload shapes live here because both the
// secondary adapters (which decode them) and the core normalizer (which
// validates and defaults them) need the same definitions.
package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moodcast/moodcast/internal/core/domain"
)

// WeatherService exposes the weather domain operations to the primary
// adapters.
type WeatherService interface {
	GetObservation(ctx context.Context, cityID int) (*domain.Observation, error)
	GetForecasts(ctx context.Context, cityID int) (*domain.ForecastSet, error)
	GetEmotionCounts(ctx context.Context, cityID int, loc *time.Location) ([]domain.EmotionCount, error)
	GetUserDailyConfiguration(ctx context.Context, userID, cityID int, loc *time.Location) (*domain.UserDailyConfiguration, error)
	CreateSelection(ctx context.Context, userID, cityID, emotionID int, loc *time.Location) (*domain.EmotionSelection, error)
	Emotions() []domain.Emotion
}

// WeatherClient fetches raw payloads from the upstream weather provider.
// Payloads are returned undecorated; validation and defaulting belong to
// the normalizer.
type WeatherClient interface {
	FetchObservation(ctx context.Context, openWeatherID int) (*ObservationPayload, error)
	FetchForecasts(ctx context.Context, openWeatherID int) (*ForecastSetPayload, error)
}

// LocationService resolves city entities. Implemented by the location
// subsystem; only the lookup is consumed here.
type LocationService interface {
	GetCity(ctx context.Context, cityID int) (*domain.City, error)
}

// UserService resolves user entities.
type UserService interface {
	GetUser(ctx context.Context, userID int) (*domain.User, error)
}

// SelectionStore performs the durable write for a new emotion selection and
// returns the persisted record with its assigned identifier. A failed write
// must leave no trace; the caller only updates in-process state on success.
type SelectionStore interface {
	PersistSelection(ctx context.Context, userID, cityID, emotionID int, createdOn time.Time) (*domain.EmotionSelection, error)
}

// ConditionPayload mirrors one entry of the upstream "weather" array.
type ConditionPayload struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// TemperaturePayload mirrors the upstream "main" block.
type TemperaturePayload struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  int     `json:"pressure"`
	Humidity  int     `json:"humidity"`
}

// WindPayload mirrors the upstream "wind" block.
type WindPayload struct {
	Speed float64 `json:"speed"`
	Deg   float64 `json:"deg"`
}

// CloudPayload mirrors the upstream "clouds" block.
type CloudPayload struct {
	All int `json:"all"`
}

// PrecipitationPayload mirrors the upstream "rain" and "snow" blocks.
// The provider keys volumes by trailing window length.
type PrecipitationPayload struct {
	OneHour   decimal.Decimal `json:"1h"`
	ThreeHour decimal.Decimal `json:"3h"`
}

// ObservationPayload is the raw current-weather response. Optional blocks
// are pointers: the provider omits them opportunistically (no rain block
// when it is not raining), and absence is meaningful to the normalizer.
type ObservationPayload struct {
	ID          int                   `json:"id"`
	Name        string                `json:"name"`
	Conditions  []ConditionPayload    `json:"weather"`
	Temperature *TemperaturePayload   `json:"main"`
	Wind        *WindPayload          `json:"wind"`
	Clouds      *CloudPayload         `json:"clouds"`
	Rain        *PrecipitationPayload `json:"rain"`
	Snow        *PrecipitationPayload `json:"snow"`
}

// ForecastEntryPayload is one raw entry of the upstream "list" array.
type ForecastEntryPayload struct {
	Timestamp   int64                 `json:"dt"`
	Conditions  []ConditionPayload    `json:"weather"`
	Temperature *TemperaturePayload   `json:"main"`
	Wind        *WindPayload          `json:"wind"`
	Clouds      *CloudPayload         `json:"clouds"`
	Rain        *PrecipitationPayload `json:"rain"`
	Snow        *PrecipitationPayload `json:"snow"`
}

// ForecastCityPayload mirrors the upstream forecast "city" block.
type ForecastCityPayload struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ForecastSetPayload is the raw five-day forecast response.
type ForecastSetPayload struct {
	City    *ForecastCityPayload   `json:"city"`
	Entries []ForecastEntryPayload `json:"list"`
}
