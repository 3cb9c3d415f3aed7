// Package rest implements HTTP handlers for the moodcast API. This package
// serves as the primary adapter, translating HTTP requests into domain
// operations and formatting responses for clients.
package rest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/moodcast/moodcast/internal/core/ports"
)

// WeatherHandler handles HTTP requests for weather and emotion operations.
// It acts as the primary adapter between HTTP transport and business logic,
// managing request parsing, validation, and response formatting.
type WeatherHandler struct {
	// service provides access to weather business operations
	service ports.WeatherService

	// logger records request processing events and errors
	logger *zap.Logger
}

// NewWeatherHandler creates a new HTTP handler for weather operations.
//
// Parameters:
//   - service: WeatherService interface for business logic operations
//   - logger: Zap logger for request logging and error tracking
//
// Returns:
//   - *WeatherHandler: Configured handler instance
func NewWeatherHandler(service ports.WeatherService, logger *zap.Logger) *WeatherHandler {
	return &WeatherHandler{
		service: service,
		logger:  logger,
	}
}

// createSelectionRequest is the POST body for a new emotion selection.
type createSelectionRequest struct {
	EmotionID int `json:"emotionId"`
}

// GetObservation handles GET requests for a city's current weather.
//
// Response codes:
//   - 200: Success with ObservationResponse JSON
//   - 400: Invalid city id
//   - 404: Unknown city
//   - 503: Upstream provider unavailable
func (h *WeatherHandler) GetObservation(w http.ResponseWriter, r *http.Request) {
	cityID, ok := h.pathID(w, r, "cityId")

	if !ok {
		return
	}

	observation, err := h.service.GetObservation(r.Context(), cityID)

	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, observationResponse(observation))
}

// GetForecasts handles GET requests for a city's forecast set.
func (h *WeatherHandler) GetForecasts(w http.ResponseWriter, r *http.Request) {
	cityID, ok := h.pathID(w, r, "cityId")

	if !ok {
		return
	}

	forecasts, err := h.service.GetForecasts(r.Context(), cityID)

	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, forecastSetResponse(forecasts))
}

// ListEmotions handles GET requests for the emotion catalog.
func (h *WeatherHandler) ListEmotions(w http.ResponseWriter, r *http.Request) {
	emotions := h.service.Emotions()
	response := make([]EmotionResponse, 0, len(emotions))

	for _, e := range emotions {
		response = append(response, EmotionResponse{
			EmotionID: e.EmotionID,
			Name:      e.Name,
			Icon:      e.Icon,
		})
	}

	respondWithJSON(w, h.logger, http.StatusOK, response)
}

// GetEmotionCounts handles GET requests for today's emotion selection counts,
// scoped to one city alongside the global totals. The 'tz' query parameter
// selects the local day window; it defaults to UTC.
func (h *WeatherHandler) GetEmotionCounts(w http.ResponseWriter, r *http.Request) {
	cityID, ok := h.pathID(w, r, "cityId")

	if !ok {
		return
	}

	loc, ok := h.timezone(w, r)

	if !ok {
		return
	}

	counts, err := h.service.GetEmotionCounts(r.Context(), cityID, loc)

	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	response := make([]EmotionCountResponse, 0, len(counts))

	for _, c := range counts {
		response = append(response, EmotionCountResponse{
			EmotionID:   c.EmotionID,
			CityCount:   c.CityCount,
			GlobalCount: c.GlobalCount,
		})
	}

	respondWithJSON(w, h.logger, http.StatusOK, response)
}

// GetUserConfiguration handles GET requests for a user's daily selection
// state against one city.
func (h *WeatherHandler) GetUserConfiguration(w http.ResponseWriter, r *http.Request) {
	cityID, ok := h.pathID(w, r, "cityId")

	if !ok {
		return
	}

	userID, ok := h.pathID(w, r, "userId")

	if !ok {
		return
	}

	loc, ok := h.timezone(w, r)

	if !ok {
		return
	}

	cfg, err := h.service.GetUserDailyConfiguration(r.Context(), userID, cityID, loc)

	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, UserConfigurationResponse{
		EmotionID:       cfg.EmotionID,
		SelectionsToday: cfg.SelectionsToday,
		LimitToday:      cfg.LimitToday,
	})
}

// CreateSelection handles POST requests recording a user's emotion selection
// for a city.
//
// Response codes:
//   - 201: Created with SelectionResponse JSON
//   - 400: Invalid path parameter, body, or unknown emotion
//   - 404: Unknown user or city
//   - 422: Duplicate city selection or daily limit reached
//   - 500: Durable write failed
func (h *WeatherHandler) CreateSelection(w http.ResponseWriter, r *http.Request) {
	cityID, ok := h.pathID(w, r, "cityId")

	if !ok {
		return
	}

	userID, ok := h.pathID(w, r, "userId")

	if !ok {
		return
	}

	loc, ok := h.timezone(w, r)

	if !ok {
		return
	}

	var body createSelectionRequest

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(
			w,
			h.logger,
			http.StatusBadRequest,
			"INVALID_BODY",
			"Request body must be JSON with an 'emotionId' field",
		)

		return
	}

	selection, err := h.service.CreateSelection(r.Context(), userID, cityID, body.EmotionID, loc)

	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusCreated, SelectionResponse{
		SelectionID: selection.SelectionID,
		UserID:      selection.UserID,
		CityID:      selection.CityID,
		EmotionID:   selection.EmotionID,
		CreatedOn:   selection.CreatedOn,
	})
}

// pathID extracts a positive integer path variable, writing a 400 response
// on failure.
func (h *WeatherHandler) pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	value, err := strconv.Atoi(mux.Vars(r)[name])

	if err != nil || value <= 0 {
		respondWithError(
			w,
			h.logger,
			http.StatusBadRequest,
			"INVALID_PARAMETER",
			"Path parameter '"+name+"' must be a positive integer",
		)

		return 0, false
	}

	return value, true
}

// timezone resolves the 'tz' query parameter to a location, writing a 400
// response when the name is unknown. Absent means UTC.
func (h *WeatherHandler) timezone(w http.ResponseWriter, r *http.Request) (*time.Location, bool) {
	name := r.URL.Query().Get("tz")

	if name == "" {
		return time.UTC, true
	}

	loc, err := time.LoadLocation(name)

	if err != nil {
		respondWithError(
			w,
			h.logger,
			http.StatusBadRequest,
			"INVALID_TIMEZONE",
			"Query parameter 'tz' must be an IANA timezone name",
		)

		return nil, false
	}

	return loc, true
}
