// Package services contains unit tests for the weather service.
package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moodcast/moodcast/internal/core/domain"
	"github.com/moodcast/moodcast/internal/core/ports"
	"github.com/moodcast/moodcast/internal/infrastructure/cache"
	"github.com/moodcast/moodcast/internal/infrastructure/ledger"
)

// MockWeatherClient is a mock implementation of the WeatherClient interface.
type MockWeatherClient struct {
	mock.Mock
}

// FetchObservation mocks the upstream current-weather fetch.
func (m *MockWeatherClient) FetchObservation(ctx context.Context, openWeatherID int) (*ports.ObservationPayload, error) {
	args := m.Called(ctx, openWeatherID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*ports.ObservationPayload), args.Error(1)
}

// FetchForecasts mocks the upstream forecast fetch.
func (m *MockWeatherClient) FetchForecasts(ctx context.Context, openWeatherID int) (*ports.ForecastSetPayload, error) {
	args := m.Called(ctx, openWeatherID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*ports.ForecastSetPayload), args.Error(1)
}

// MockLocationService is a mock implementation of the LocationService interface.
type MockLocationService struct {
	mock.Mock
}

// GetCity mocks the city lookup.
func (m *MockLocationService) GetCity(ctx context.Context, cityID int) (*domain.City, error) {
	args := m.Called(ctx, cityID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.City), args.Error(1)
}

// MockUserService is a mock implementation of the UserService interface.
type MockUserService struct {
	mock.Mock
}

// GetUser mocks the user lookup.
func (m *MockUserService) GetUser(ctx context.Context, userID int) (*domain.User, error) {
	args := m.Called(ctx, userID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.User), args.Error(1)
}

// MockSelectionStore is a mock implementation of the SelectionStore interface.
type MockSelectionStore struct {
	mock.Mock
}

// PersistSelection mocks the durable selection write.
func (m *MockSelectionStore) PersistSelection(ctx context.Context, userID, cityID, emotionID int, createdOn time.Time) (*domain.EmotionSelection, error) {
	args := m.Called(ctx, userID, cityID, emotionID, createdOn)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.EmotionSelection), args.Error(1)
}

// weatherFixture bundles the service under test with its mocks and the
// real in-process stores.
type weatherFixture struct {
	service    ports.WeatherService
	client     *MockWeatherClient
	locations  *MockLocationService
	users      *MockUserService
	store      *MockSelectionStore
	selections *ledger.Ledger[domain.EmotionSelection]
	clock      *clockwork.FakeClock
}

var fixtureNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newWeatherFixture(cfg WeatherConfig) *weatherFixture {
	logger := zap.NewNop()
	clock := clockwork.NewFakeClockAt(fixtureNow)
	selections := ledger.New[domain.EmotionSelection](clock, logger)

	f := &weatherFixture{
		client:     new(MockWeatherClient),
		locations:  new(MockLocationService),
		users:      new(MockUserService),
		store:      new(MockSelectionStore),
		selections: selections,
		clock:      clock,
	}

	f.service = NewWeatherService(cfg, WeatherDeps{
		Client:    f.client,
		Locations: f.locations,
		Users:     f.users,
		Store:     f.store,
		Emotions: domain.NewEmotionCatalog([]domain.Emotion{
			{EmotionID: 1, Name: "Happy"},
			{EmotionID: 2, Name: "Calm"},
			{EmotionID: 3, Name: "Neutral"},
		}),
		Observations: cache.NewMemo[*domain.Observation](time.Minute, logger),
		Forecasts:    cache.NewMemo[*domain.ForecastSet](time.Minute, logger),
		Selections:   selections,
		Clock:        clock,
		Logger:       logger,
	})

	return f
}

func testCity() *domain.City {
	return &domain.City{CityID: 5, Name: "London", OpenWeatherID: 2643743}
}

func testUser() *domain.User {
	return &domain.User{UserID: 7, Name: "Ada"}
}

func TestGetObservation(t *testing.T) {
	cfg := WeatherConfig{ObservationTTL: time.Minute, ForecastTTL: time.Minute, DailyLimit: 3}

	t.Run("fetches, normalizes, and caches", func(t *testing.T) {
		f := newWeatherFixture(cfg)

		f.locations.On("GetCity", mock.Anything, 5).Return(testCity(), nil)
		f.client.On("FetchObservation", mock.Anything, 2643743).Return(validObservationPayload(), nil).Once()

		observation, err := f.service.GetObservation(context.Background(), 5)

		require.NoError(t, err)
		assert.Equal(t, "London", observation.CityName)
		assert.True(t, observation.Rain.OneHourVolume.IsZero())

		// second call within the TTL is served from the memo
		again, err := f.service.GetObservation(context.Background(), 5)

		require.NoError(t, err)
		assert.Same(t, observation, again)
		f.client.AssertNumberOfCalls(t, "FetchObservation", 1)
	})

	t.Run("unknown city short-circuits before the upstream call", func(t *testing.T) {
		f := newWeatherFixture(cfg)

		f.locations.On("GetCity", mock.Anything, 99).Return(nil, domain.NotFoundError("city not found"))

		_, err := f.service.GetObservation(context.Background(), 99)

		assert.Equal(t, domain.CodeNotFound, domain.ErrorCode(err))
		f.client.AssertNotCalled(t, "FetchObservation")
	})

	t.Run("upstream failure caches nothing", func(t *testing.T) {
		f := newWeatherFixture(cfg)

		f.locations.On("GetCity", mock.Anything, 5).Return(testCity(), nil)
		f.client.On("FetchObservation", mock.Anything, 2643743).Return(nil, errors.New("timeout")).Once()
		f.client.On("FetchObservation", mock.Anything, 2643743).Return(validObservationPayload(), nil).Once()

		_, err := f.service.GetObservation(context.Background(), 5)

		assert.Equal(t, domain.CodeUpstreamUnavailable, domain.ErrorCode(err))

		// the failure was not cached, so the next call retries and succeeds
		observation, err := f.service.GetObservation(context.Background(), 5)

		require.NoError(t, err)
		assert.Equal(t, "London", observation.CityName)
	})

	t.Run("unusable payload maps to an upstream error", func(t *testing.T) {
		f := newWeatherFixture(cfg)

		payload := validObservationPayload()
		payload.Temperature = nil

		f.locations.On("GetCity", mock.Anything, 5).Return(testCity(), nil)
		f.client.On("FetchObservation", mock.Anything, 2643743).Return(payload, nil)

		_, err := f.service.GetObservation(context.Background(), 5)

		assert.Equal(t, domain.CodeUpstreamUnavailable, domain.ErrorCode(err))
	})
}

func TestGetForecasts(t *testing.T) {
	cfg := WeatherConfig{ObservationTTL: time.Minute, ForecastTTL: time.Minute, DailyLimit: 3}

	t.Run("fetches, normalizes, and caches", func(t *testing.T) {
		f := newWeatherFixture(cfg)

		f.locations.On("GetCity", mock.Anything, 5).Return(testCity(), nil)
		f.client.On("FetchForecasts", mock.Anything, 2643743).Return(validForecastSetPayload(), nil).Once()

		set, err := f.service.GetForecasts(context.Background(), 5)

		require.NoError(t, err)
		assert.Len(t, set.Forecasts, 2)

		_, err = f.service.GetForecasts(context.Background(), 5)

		require.NoError(t, err)
		f.client.AssertNumberOfCalls(t, "FetchForecasts", 1)
	})

	t.Run("observation and forecast caches are independent", func(t *testing.T) {
		f := newWeatherFixture(cfg)

		f.locations.On("GetCity", mock.Anything, 5).Return(testCity(), nil)
		f.client.On("FetchObservation", mock.Anything, 2643743).Return(validObservationPayload(), nil).Once()
		f.client.On("FetchForecasts", mock.Anything, 2643743).Return(validForecastSetPayload(), nil).Once()

		_, err := f.service.GetObservation(context.Background(), 5)
		require.NoError(t, err)

		// the cached observation must not satisfy the forecast read
		_, err = f.service.GetForecasts(context.Background(), 5)
		require.NoError(t, err)

		f.client.AssertNumberOfCalls(t, "FetchObservation", 1)
		f.client.AssertNumberOfCalls(t, "FetchForecasts", 1)
	})
}

// seedSelection plants an existing ledger record for the fixture user.
func (f *weatherFixture) seedSelection(id int64, cityID, emotionID int) {
	f.selections.TryAdd(domain.EmotionSelection{
		SelectionID: id,
		UserID:      testUser().UserID,
		CityID:      cityID,
		EmotionID:   emotionID,
		CreatedOn:   fixtureNow,
	})
}

func TestCreateSelection(t *testing.T) {
	cfg := WeatherConfig{ObservationTTL: time.Minute, ForecastTTL: time.Minute, DailyLimit: 3}

	t.Run("persists then appends to the ledger", func(t *testing.T) {
		f := newWeatherFixture(cfg)

		persisted := &domain.EmotionSelection{
			SelectionID: 41,
			UserID:      7,
			CityID:      5,
			EmotionID:   1,
			CreatedOn:   fixtureNow,
		}

		f.users.On("GetUser", mock.Anything, 7).Return(testUser(), nil)
		f.locations.On("GetCity", mock.Anything, 5).Return(testCity(), nil)
		f.store.On("PersistSelection", mock.Anything, 7, 5, 1, mock.Anything).Return(persisted, nil)

		selection, err := f.service.CreateSelection(context.Background(), 7, 5, 1, time.UTC)

		require.NoError(t, err)
		assert.Equal(t, int64(41), selection.SelectionID)
		assert.Equal(t, 1, f.selections.Len())
	})

	t.Run("rejects an unknown emotion before any policy check", func(t *testing.T) {
		f := newWeatherFixture(cfg)

		f.users.On("GetUser", mock.Anything, 7).Return(testUser(), nil)
		f.locations.On("GetCity", mock.Anything, 5).Return(testCity(), nil)

		_, err := f.service.CreateSelection(context.Background(), 7, 5, 99, time.UTC)

		assert.Equal(t, domain.CodeInvalidInput, domain.ErrorCode(err))
		f.store.AssertNotCalled(t, "PersistSelection")
	})

	t.Run("rejects a second selection for the same city even with a different emotion", func(t *testing.T) {
		f := newWeatherFixture(cfg)
		f.seedSelection(1, 5, 1)

		f.users.On("GetUser", mock.Anything, 7).Return(testUser(), nil)
		f.locations.On("GetCity", mock.Anything, 5).Return(testCity(), nil)

		_, err := f.service.CreateSelection(context.Background(), 7, 5, 2, time.UTC)

		assert.Equal(t, domain.CodeBusinessRule, domain.ErrorCode(err))
		assert.ErrorContains(t, err, "already selected")
		f.store.AssertNotCalled(t, "PersistSelection")
	})

	t.Run("the duplicate check outranks the limit check", func(t *testing.T) {
		// one selection left under the limit, aimed at an already-selected city
		f := newWeatherFixture(WeatherConfig{ObservationTTL: time.Minute, ForecastTTL: time.Minute, DailyLimit: 3})
		f.seedSelection(1, 5, 1)
		f.seedSelection(2, 6, 2)

		f.users.On("GetUser", mock.Anything, 7).Return(testUser(), nil)
		f.locations.On("GetCity", mock.Anything, 5).Return(testCity(), nil)

		_, err := f.service.CreateSelection(context.Background(), 7, 5, 3, time.UTC)

		require.Error(t, err)
		assert.ErrorContains(t, err, "already selected")
	})

	t.Run("rejects a selection over the daily limit across cities", func(t *testing.T) {
		f := newWeatherFixture(cfg)
		f.seedSelection(1, 10, 1)
		f.seedSelection(2, 20, 2)
		f.seedSelection(3, 30, 3)

		f.users.On("GetUser", mock.Anything, 7).Return(testUser(), nil)
		f.locations.On("GetCity", mock.Anything, 5).Return(testCity(), nil)

		_, err := f.service.CreateSelection(context.Background(), 7, 5, 1, time.UTC)

		assert.Equal(t, domain.CodeBusinessRule, domain.ErrorCode(err))
		assert.ErrorContains(t, err, "limit")
		f.store.AssertNotCalled(t, "PersistSelection")
	})

	t.Run("yesterday's selections do not count against today", func(t *testing.T) {
		f := newWeatherFixture(cfg)

		f.selections.TryAdd(domain.EmotionSelection{
			SelectionID: 1,
			UserID:      7,
			CityID:      5,
			EmotionID:   1,
			CreatedOn:   fixtureNow.Add(-24 * time.Hour),
		})

		persisted := &domain.EmotionSelection{SelectionID: 2, UserID: 7, CityID: 5, EmotionID: 1, CreatedOn: fixtureNow}

		f.users.On("GetUser", mock.Anything, 7).Return(testUser(), nil)
		f.locations.On("GetCity", mock.Anything, 5).Return(testCity(), nil)
		f.store.On("PersistSelection", mock.Anything, 7, 5, 1, mock.Anything).Return(persisted, nil)

		_, err := f.service.CreateSelection(context.Background(), 7, 5, 1, time.UTC)

		assert.NoError(t, err)
	})

	t.Run("a failed write leaves the ledger untouched", func(t *testing.T) {
		f := newWeatherFixture(cfg)

		f.users.On("GetUser", mock.Anything, 7).Return(testUser(), nil)
		f.locations.On("GetCity", mock.Anything, 5).Return(testCity(), nil)
		f.store.On("PersistSelection", mock.Anything, 7, 5, 1, mock.Anything).Return(nil, errors.New("connection reset"))

		_, err := f.service.CreateSelection(context.Background(), 7, 5, 1, time.UTC)

		assert.Equal(t, domain.CodeStorageFailure, domain.ErrorCode(err))
		assert.Equal(t, 0, f.selections.Len())
	})

	t.Run("stamps createdOn in the caller's timezone", func(t *testing.T) {
		f := newWeatherFixture(cfg)
		loc, err := time.LoadLocation("Asia/Tokyo")
		require.NoError(t, err)

		f.users.On("GetUser", mock.Anything, 7).Return(testUser(), nil)
		f.locations.On("GetCity", mock.Anything, 5).Return(testCity(), nil)
		f.store.On("PersistSelection", mock.Anything, 7, 5, 1, mock.MatchedBy(func(createdOn time.Time) bool {
			return createdOn.Location() == loc && createdOn.Equal(fixtureNow)
		})).Return(&domain.EmotionSelection{SelectionID: 1, UserID: 7, CityID: 5, EmotionID: 1, CreatedOn: fixtureNow.In(loc)}, nil)

		_, err = f.service.CreateSelection(context.Background(), 7, 5, 1, loc)

		assert.NoError(t, err)
	})
}

func TestGetUserDailyConfiguration(t *testing.T) {
	cfg := WeatherConfig{ObservationTTL: time.Minute, ForecastTTL: time.Minute, DailyLimit: 3}

	t.Run("no selections yet", func(t *testing.T) {
		f := newWeatherFixture(cfg)

		f.users.On("GetUser", mock.Anything, 7).Return(testUser(), nil)
		f.locations.On("GetCity", mock.Anything, 5).Return(testCity(), nil)

		configuration, err := f.service.GetUserDailyConfiguration(context.Background(), 7, 5, time.UTC)

		require.NoError(t, err)
		assert.Nil(t, configuration.EmotionID)
		assert.Equal(t, 0, configuration.SelectionsToday)
		assert.Equal(t, 3, configuration.LimitToday)
	})

	t.Run("reports the emotion chosen for this city and the total used", func(t *testing.T) {
		f := newWeatherFixture(cfg)
		f.seedSelection(1, 5, 2)
		f.seedSelection(2, 6, 1)

		f.users.On("GetUser", mock.Anything, 7).Return(testUser(), nil)
		f.locations.On("GetCity", mock.Anything, 5).Return(testCity(), nil)

		configuration, err := f.service.GetUserDailyConfiguration(context.Background(), 7, 5, time.UTC)

		require.NoError(t, err)
		require.NotNil(t, configuration.EmotionID)
		assert.Equal(t, 2, *configuration.EmotionID)
		assert.Equal(t, 2, configuration.SelectionsToday)
	})

	t.Run("selections for other cities leave the emotion unset", func(t *testing.T) {
		f := newWeatherFixture(cfg)
		f.seedSelection(1, 6, 1)

		f.users.On("GetUser", mock.Anything, 7).Return(testUser(), nil)
		f.locations.On("GetCity", mock.Anything, 5).Return(testCity(), nil)

		configuration, err := f.service.GetUserDailyConfiguration(context.Background(), 7, 5, time.UTC)

		require.NoError(t, err)
		assert.Nil(t, configuration.EmotionID)
		assert.Equal(t, 1, configuration.SelectionsToday)
	})
}

func TestGetEmotionCounts(t *testing.T) {
	cfg := WeatherConfig{ObservationTTL: time.Minute, ForecastTTL: time.Minute, DailyLimit: 3}

	t.Run("scopes counts to the city alongside global totals", func(t *testing.T) {
		f := newWeatherFixture(cfg)

		f.selections.TryAdd(domain.EmotionSelection{SelectionID: 1, UserID: 1, CityID: 5, EmotionID: 1, CreatedOn: fixtureNow})
		f.selections.TryAdd(domain.EmotionSelection{SelectionID: 2, UserID: 2, CityID: 6, EmotionID: 1, CreatedOn: fixtureNow})
		f.selections.TryAdd(domain.EmotionSelection{SelectionID: 3, UserID: 3, CityID: 5, EmotionID: 2, CreatedOn: fixtureNow})
		f.selections.TryAdd(domain.EmotionSelection{SelectionID: 4, UserID: 4, CityID: 5, EmotionID: 1, CreatedOn: fixtureNow.Add(-24 * time.Hour)})

		f.locations.On("GetCity", mock.Anything, 5).Return(testCity(), nil)

		counts, err := f.service.GetEmotionCounts(context.Background(), 5, time.UTC)

		require.NoError(t, err)
		require.Len(t, counts, 2)
		assert.Equal(t, domain.EmotionCount{EmotionID: 1, CityCount: 1, GlobalCount: 2}, counts[0])
		assert.Equal(t, domain.EmotionCount{EmotionID: 2, CityCount: 1, GlobalCount: 1}, counts[1])
	})

	t.Run("empty day yields an empty slice", func(t *testing.T) {
		f := newWeatherFixture(cfg)

		f.locations.On("GetCity", mock.Anything, 5).Return(testCity(), nil)

		counts, err := f.service.GetEmotionCounts(context.Background(), 5, time.UTC)

		require.NoError(t, err)
		assert.Empty(t, counts)
	})
}

func TestEmotions(t *testing.T) {
	f := newWeatherFixture(WeatherConfig{DailyLimit: 3})

	emotions := f.service.Emotions()

	require.Len(t, emotions, 3)
	assert.Equal(t, "Happy", emotions[0].Name)
	assert.Equal(t, "Neutral", emotions[2].Name)
}
