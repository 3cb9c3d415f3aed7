// Package openweather implements a client for the OpenWeather API. This
// package serves as a secondary adapter: it fetches and decodes raw payloads
// and leaves validation and defaulting to the core normalizer, so the
// response-shape contract stays in one place.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/moodcast/moodcast/internal/core/ports"
)

// Client implements the WeatherClient interface for the OpenWeather API.
type Client struct {
	// baseURL is the OpenWeather API base endpoint
	baseURL string

	// apiKey authenticates requests via the APPID query parameter
	apiKey string

	// httpClient handles HTTP communication with timeout configuration
	httpClient *http.Client

	// logger records API interactions and errors
	logger *zap.Logger
}

// NewClient creates a new OpenWeather API client.
//
// Parameters:
//   - baseURL: OpenWeather API base URL (typically https://api.openweathermap.org)
//   - apiKey: OpenWeather API key
//   - httpClient: HTTP client with timeout configuration
//   - logger: Zap logger for API interaction logging
//
// Returns:
//   - *Client: Configured OpenWeather API client
func NewClient(baseURL, apiKey string, httpClient *http.Client, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// FetchObservation retrieves the raw current-weather payload for a city in
// the provider's namespace.
func (c *Client) FetchObservation(ctx context.Context, openWeatherID int) (*ports.ObservationPayload, error) {
	var payload ports.ObservationPayload

	if err := c.get(ctx, "/data/2.5/weather", openWeatherID, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch observation: %w", err)
	}

	return &payload, nil
}

// FetchForecasts retrieves the raw five-day forecast payload for a city in
// the provider's namespace.
func (c *Client) FetchForecasts(ctx context.Context, openWeatherID int) (*ports.ForecastSetPayload, error) {
	var payload ports.ForecastSetPayload

	if err := c.get(ctx, "/data/2.5/forecast", openWeatherID, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch forecasts: %w", err)
	}

	return &payload, nil
}

// get performs an authenticated GET against an OpenWeather endpoint and
// decodes the JSON body into out. A 10s timeout is applied when the caller's
// context carries no deadline, so the network call is always bounded.
func (c *Client) get(ctx context.Context, path string, openWeatherID int, out any) error {
	query := url.Values{}
	query.Set("APPID", c.apiKey)
	query.Set("units", "imperial")
	query.Set("id", strconv.Itoa(openWeatherID))

	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Second)

		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)

	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)

	if err != nil {
		return err
	}

	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Error("failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("OpenWeather API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return err
	}

	return nil
}
