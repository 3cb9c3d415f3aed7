package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/moodcast/moodcast/internal/core/domain"
	"github.com/moodcast/moodcast/internal/middleware"
)

// ErrorResponse represents a standardized error response structure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ConditionResponse mirrors one normalized weather condition.
type ConditionResponse struct {
	ConditionID int    `json:"conditionId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// TemperatureResponse mirrors the normalized temperature block.
type TemperatureResponse struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feelsLike"`
	TempMin   float64 `json:"tempMin"`
	TempMax   float64 `json:"tempMax"`
	Pressure  int     `json:"pressure"`
	Humidity  int     `json:"humidity"`
}

// WindResponse mirrors the normalized wind block.
type WindResponse struct {
	Speed   float64 `json:"speed"`
	Degrees float64 `json:"degrees"`
}

// CloudResponse mirrors the normalized cloud block.
type CloudResponse struct {
	Cloudiness int `json:"cloudiness"`
}

// PrecipitationResponse mirrors a normalized rain or snow block.
type PrecipitationResponse struct {
	OneHourVolume   decimal.Decimal `json:"oneHourVolume"`
	ThreeHourVolume decimal.Decimal `json:"threeHourVolume"`
}

// ObservationResponse is the client-facing shape of a current-weather report.
// All blocks are always present; normalization guarantees it.
type ObservationResponse struct {
	OpenWeatherID int                   `json:"openWeatherId"`
	CityName      string                `json:"cityName"`
	Conditions    []ConditionResponse   `json:"conditions"`
	Temperature   TemperatureResponse   `json:"temperature"`
	Wind          WindResponse          `json:"wind"`
	Cloud         CloudResponse         `json:"cloud"`
	Rain          PrecipitationResponse `json:"rain"`
	Snow          PrecipitationResponse `json:"snow"`
}

// ForecastResponse is one client-facing forecast entry.
type ForecastResponse struct {
	At          time.Time             `json:"at"`
	Conditions  []ConditionResponse   `json:"conditions"`
	Temperature TemperatureResponse   `json:"temperature"`
	Wind        WindResponse          `json:"wind"`
	Cloud       CloudResponse         `json:"cloud"`
	Rain        PrecipitationResponse `json:"rain"`
	Snow        PrecipitationResponse `json:"snow"`
}

// ForecastSetResponse is the client-facing shape of a forecast set.
type ForecastSetResponse struct {
	OpenWeatherID int                `json:"openWeatherId"`
	CityName      string             `json:"cityName"`
	Forecasts     []ForecastResponse `json:"forecasts"`
}

// EmotionResponse is one catalog emotion.
type EmotionResponse struct {
	EmotionID int    `json:"emotionId"`
	Name      string `json:"name"`
	Icon      string `json:"icon"`
}

// EmotionCountResponse reports today's selection counts for one emotion.
type EmotionCountResponse struct {
	EmotionID   int `json:"emotionId"`
	CityCount   int `json:"cityCount"`
	GlobalCount int `json:"globalCount"`
}

// UserConfigurationResponse reports a user's selection state for one city
// today. EmotionID is null when no selection was made for the city yet.
type UserConfigurationResponse struct {
	EmotionID       *int `json:"emotionId"`
	SelectionsToday int  `json:"selectionsToday"`
	LimitToday      int  `json:"limitToday"`
}

// SelectionResponse is the client-facing shape of a created selection.
type SelectionResponse struct {
	SelectionID int64     `json:"selectionId"`
	UserID      int       `json:"userId"`
	CityID      int       `json:"cityId"`
	EmotionID   int       `json:"emotionId"`
	CreatedOn   time.Time `json:"createdOn"`
}

// QuoteResponse is the client-facing shape of a stock quote.
type QuoteResponse struct {
	Symbol        string          `json:"symbol"`
	CompanyName   string          `json:"companyName"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
	QuotedAt      time.Time       `json:"quotedAt"`
}

// AlertTypeResponse is one catalog alert type.
type AlertTypeResponse struct {
	TypeID int             `json:"typeId"`
	Name   string          `json:"name"`
	Points decimal.Decimal `json:"points"`
}

// AlertTypeCountResponse aggregates a user's alerts for today by type.
type AlertTypeCountResponse struct {
	TypeID int             `json:"typeId"`
	Count  int             `json:"count"`
	Points decimal.Decimal `json:"points"`
}

// AlertResponse is the client-facing shape of a created alert.
type AlertResponse struct {
	AlertID   int64     `json:"alertId"`
	UserID    int       `json:"userId"`
	StockID   int       `json:"stockId"`
	TypeID    int       `json:"typeId"`
	CreatedOn time.Time `json:"createdOn"`
}

func conditionResponses(conditions []domain.Condition) []ConditionResponse {
	out := make([]ConditionResponse, 0, len(conditions))

	for _, c := range conditions {
		out = append(out, ConditionResponse{
			ConditionID: c.ConditionID,
			Name:        c.Name,
			Description: c.Description,
			Icon:        c.Icon,
		})
	}

	return out
}

func temperatureResponse(t domain.TemperatureReading) TemperatureResponse {
	return TemperatureResponse{
		Temp:      t.Temp,
		FeelsLike: t.FeelsLike,
		TempMin:   t.TempMin,
		TempMax:   t.TempMax,
		Pressure:  t.Pressure,
		Humidity:  t.Humidity,
	}
}

func precipitationResponse(p domain.Precipitation) PrecipitationResponse {
	return PrecipitationResponse{
		OneHourVolume:   p.OneHourVolume,
		ThreeHourVolume: p.ThreeHourVolume,
	}
}

func observationResponse(o *domain.Observation) ObservationResponse {
	return ObservationResponse{
		OpenWeatherID: o.OpenWeatherID,
		CityName:      o.CityName,
		Conditions:    conditionResponses(o.Conditions),
		Temperature:   temperatureResponse(o.Temperature),
		Wind:          WindResponse{Speed: o.Wind.Speed, Degrees: o.Wind.Degrees},
		Cloud:         CloudResponse{Cloudiness: o.Cloud.Cloudiness},
		Rain:          precipitationResponse(o.Rain),
		Snow:          precipitationResponse(o.Snow),
	}
}

func forecastSetResponse(fs *domain.ForecastSet) ForecastSetResponse {
	forecasts := make([]ForecastResponse, 0, len(fs.Forecasts))

	for _, f := range fs.Forecasts {
		forecasts = append(forecasts, ForecastResponse{
			At:          f.At,
			Conditions:  conditionResponses(f.Conditions),
			Temperature: temperatureResponse(f.Temperature),
			Wind:        WindResponse{Speed: f.Wind.Speed, Degrees: f.Wind.Degrees},
			Cloud:       CloudResponse{Cloudiness: f.Cloud.Cloudiness},
			Rain:        precipitationResponse(f.Rain),
			Snow:        precipitationResponse(f.Snow),
		})
	}

	return ForecastSetResponse{
		OpenWeatherID: fs.OpenWeatherID,
		CityName:      fs.CityName,
		Forecasts:     forecasts,
	}
}

// respondWithJSON sends a JSON response with the specified status code.
func respondWithJSON(w http.ResponseWriter, logger *zap.Logger, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// respondWithError sends a standardized error response.
func respondWithError(w http.ResponseWriter, logger *zap.Logger, status int, code, message string) {
	respondWithJSON(w, logger, status, ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// handleServiceError maps domain errors to appropriate HTTP responses.
//
// Error mappings:
//   - NOT_FOUND -> 404 Not Found
//   - INVALID_INPUT -> 400 Bad Request
//   - BUSINESS_RULE_VIOLATION -> 422 Unprocessable Entity
//   - UPSTREAM_UNAVAILABLE -> 503 Service Unavailable
//   - STORAGE_FAILURE and everything else -> 500 Internal Server Error
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	var e *domain.DomainError

	message := "An unexpected error occurred"

	if errors.As(err, &e) {
		message = e.Message
	}

	switch domain.ErrorCode(err) {
	case domain.CodeNotFound:
		respondWithError(w, logger, http.StatusNotFound, domain.CodeNotFound, message)
	case domain.CodeInvalidInput:
		respondWithError(w, logger, http.StatusBadRequest, domain.CodeInvalidInput, message)
	case domain.CodeBusinessRule:
		respondWithError(w, logger, http.StatusUnprocessableEntity, domain.CodeBusinessRule, message)
	case domain.CodeUpstreamUnavailable:
		respondWithError(
			w,
			logger,
			http.StatusServiceUnavailable,
			domain.CodeUpstreamUnavailable,
			"An upstream provider is temporarily unavailable",
		)
	case domain.CodeStorageFailure:
		respondWithError(
			w,
			logger,
			http.StatusInternalServerError,
			domain.CodeStorageFailure,
			"An unexpected error occurred",
		)
	default:
		logger.Error("unexpected error",
			zap.Error(err),
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
		)

		respondWithError(
			w,
			logger,
			http.StatusInternalServerError,
			"INTERNAL_ERROR",
			"An unexpected error occurred",
		)
	}
}
