// Package stockdata implements a client for the upstream market data
// provider's quote endpoint. Like the openweather adapter it returns raw
// payloads and leaves validation to the core normalizer.
package stockdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/moodcast/moodcast/internal/core/ports"
)

// Client implements the QuoteClient interface.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new quote client.
func NewClient(baseURL, apiKey string, httpClient *http.Client, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// FetchQuote retrieves the raw quote payload for a symbol.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*ports.QuotePayload, error) {
	query := url.Values{}
	query.Set("token", c.apiKey)

	endpoint := fmt.Sprintf("%s/stable/stock/%s/quote?%s", c.baseURL, url.PathEscape(symbol), query.Encode())

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Second)

		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)

	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)

	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote: %w", err)
	}

	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Error("failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote API returned status %d", resp.StatusCode)
	}

	var payload ports.QuotePayload

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	return &payload, nil
}
