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

// StockMarketHandler handles HTTP requests for stock quotes and alerts. It
// mirrors WeatherHandler: parse, delegate, map errors, format.
type StockMarketHandler struct {
	service ports.StockMarketService
	logger  *zap.Logger
}

// NewStockMarketHandler creates a new HTTP handler for stock market
// operations.
func NewStockMarketHandler(service ports.StockMarketService, logger *zap.Logger) *StockMarketHandler {
	return &StockMarketHandler{
		service: service,
		logger:  logger,
	}
}

// createAlertRequest is the POST body for a new stock alert.
type createAlertRequest struct {
	TypeID int `json:"typeId"`
}

// GetQuote handles GET requests for a stock's latest quote.
func (h *StockMarketHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	stockID, ok := h.pathID(w, r, "stockId")

	if !ok {
		return
	}

	quote, err := h.service.GetQuote(r.Context(), stockID)

	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, QuoteResponse{
		Symbol:        quote.Symbol,
		CompanyName:   quote.CompanyName,
		Price:         quote.Price,
		Change:        quote.Change,
		ChangePercent: quote.ChangePercent,
		QuotedAt:      quote.QuotedAt,
	})
}

// ListAlertTypes handles GET requests for the alert type catalog.
func (h *StockMarketHandler) ListAlertTypes(w http.ResponseWriter, r *http.Request) {
	types := h.service.AlertTypes()
	response := make([]AlertTypeResponse, 0, len(types))

	for _, t := range types {
		response = append(response, AlertTypeResponse{
			TypeID: t.TypeID,
			Name:   t.Name,
			Points: t.Points,
		})
	}

	respondWithJSON(w, h.logger, http.StatusOK, response)
}

// GetAlertTypeCounts handles GET requests for a user's alert counts and
// point totals for today, grouped by alert type.
func (h *StockMarketHandler) GetAlertTypeCounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userId")

	if !ok {
		return
	}

	loc, ok := h.timezone(w, r)

	if !ok {
		return
	}

	counts, err := h.service.GetUserAlertTypeCounts(r.Context(), userID, loc)

	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	response := make([]AlertTypeCountResponse, 0, len(counts))

	for _, c := range counts {
		response = append(response, AlertTypeCountResponse{
			TypeID: c.TypeID,
			Count:  c.Count,
			Points: c.Points,
		})
	}

	respondWithJSON(w, h.logger, http.StatusOK, response)
}

// CreateAlert handles POST requests recording a user's alert on a stock.
func (h *StockMarketHandler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	stockID, ok := h.pathID(w, r, "stockId")

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

	var body createAlertRequest

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(
			w,
			h.logger,
			http.StatusBadRequest,
			"INVALID_BODY",
			"Request body must be JSON with a 'typeId' field",
		)

		return
	}

	alert, err := h.service.CreateAlert(r.Context(), userID, stockID, body.TypeID, loc)

	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusCreated, AlertResponse{
		AlertID:   alert.AlertID,
		UserID:    alert.UserID,
		StockID:   alert.StockID,
		TypeID:    alert.TypeID,
		CreatedOn: alert.CreatedOn,
	})
}

// pathID extracts a positive integer path variable, writing a 400 response
// on failure.
func (h *StockMarketHandler) pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
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

// timezone resolves the 'tz' query parameter, defaulting to UTC.
func (h *StockMarketHandler) timezone(w http.ResponseWriter, r *http.Request) (*time.Location, bool) {
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
