// Package app provides application initialization and dependency injection.
package app

import (
	"context"

	"github.com/moodcast/moodcast/internal/adapters/secondary/openweather"
	"github.com/moodcast/moodcast/internal/adapters/secondary/stockdata"
	"github.com/moodcast/moodcast/internal/core/ports"
	"github.com/moodcast/moodcast/internal/infrastructure/circuitbreaker"
)

// CircuitBreakerWeatherClient wraps the OpenWeather client with circuit
// breaker protection so a misbehaving upstream cannot exhaust the request
// pool.
type CircuitBreakerWeatherClient struct {
	client *openweather.Client
	cb     *circuitbreaker.CircuitBreakerWrapper
}

// FetchObservation retrieves the current-weather payload with circuit
// breaker protection.
func (c *CircuitBreakerWeatherClient) FetchObservation(ctx context.Context, openWeatherID int) (*ports.ObservationPayload, error) {
	var result *ports.ObservationPayload

	err := c.cb.Execute(ctx, "fetch-observation", func() error {
		var err error
		result, err = c.client.FetchObservation(ctx, openWeatherID)

		return err
	})

	return result, err
}

// FetchForecasts retrieves the forecast payload with circuit breaker
// protection.
func (c *CircuitBreakerWeatherClient) FetchForecasts(ctx context.Context, openWeatherID int) (*ports.ForecastSetPayload, error) {
	var result *ports.ForecastSetPayload

	err := c.cb.Execute(ctx, "fetch-forecasts", func() error {
		var err error
		result, err = c.client.FetchForecasts(ctx, openWeatherID)

		return err
	})

	return result, err
}

// CircuitBreakerQuoteClient wraps the market data client with circuit
// breaker protection.
type CircuitBreakerQuoteClient struct {
	client *stockdata.Client
	cb     *circuitbreaker.CircuitBreakerWrapper
}

// FetchQuote retrieves the quote payload with circuit breaker protection.
func (c *CircuitBreakerQuoteClient) FetchQuote(ctx context.Context, symbol string) (*ports.QuotePayload, error) {
	var result *ports.QuotePayload

	err := c.cb.Execute(ctx, "fetch-quote", func() error {
		var err error
		result, err = c.client.FetchQuote(ctx, symbol)

		return err
	})

	return result, err
}
