// Package openweather contains unit tests for the OpenWeather client.
package openweather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFetchObservation(t *testing.T) {
	t.Run("decodes the raw payload without validating it", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/data/2.5/weather", r.URL.Path)
			assert.Equal(t, "test-key", r.URL.Query().Get("APPID"))
			assert.Equal(t, "imperial", r.URL.Query().Get("units"))
			assert.Equal(t, "2643743", r.URL.Query().Get("id"))

			w.Header().Set("Content-Type", "application/json")
			// no wind, clouds, rain, or snow blocks; the client passes absence through
			_, _ = w.Write([]byte(`{
				"id": 2643743,
				"name": "London",
				"weather": [{"id": 803, "main": "Clouds", "description": "broken clouds", "icon": "04d"}],
				"main": {"temp": 52.3, "feels_like": 49.1, "temp_min": 48, "temp_max": 55.2, "pressure": 1012, "humidity": 81}
			}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key", server.Client(), zap.NewNop())

		payload, err := client.FetchObservation(context.Background(), 2643743)

		require.NoError(t, err)
		assert.Equal(t, 2643743, payload.ID)
		assert.Equal(t, "London", payload.Name)
		require.Len(t, payload.Conditions, 1)
		assert.Equal(t, "Clouds", payload.Conditions[0].Main)
		require.NotNil(t, payload.Temperature)
		assert.Equal(t, 52.3, payload.Temperature.Temp)
		assert.Nil(t, payload.Wind)
		assert.Nil(t, payload.Rain)
	})

	t.Run("rejects a non-200 response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		client := NewClient(server.URL, "bad-key", server.Client(), zap.NewNop())

		_, err := client.FetchObservation(context.Background(), 2643743)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
	})
}

func TestFetchForecasts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/forecast", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"city": {"id": 2643743, "name": "London"},
			"list": [
				{"dt": 1710072000, "weather": [{"id": 500, "main": "Rain"}], "main": {"temp": 50}},
				{"dt": 1710082800, "weather": [{"id": 800, "main": "Clear"}], "main": {"temp": 54}}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", server.Client(), zap.NewNop())

	payload, err := client.FetchForecasts(context.Background(), 2643743)

	require.NoError(t, err)
	require.NotNil(t, payload.City)
	assert.Equal(t, "London", payload.City.Name)
	require.Len(t, payload.Entries, 2)
	assert.Equal(t, int64(1710072000), payload.Entries[0].Timestamp)
	assert.Equal(t, "Rain", payload.Entries[0].Conditions[0].Main)
}
