package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/moodcast/moodcast/internal/core/domain"
	"github.com/moodcast/moodcast/internal/core/ports"
	"github.com/moodcast/moodcast/internal/infrastructure/cache"
	"github.com/moodcast/moodcast/internal/infrastructure/ledger"
)

// WeatherConfig carries the tunables of the weather service.
type WeatherConfig struct {
	// ObservationTTL bounds how long a cached observation is served
	ObservationTTL time.Duration

	// ForecastTTL bounds how long a cached forecast set is served
	ForecastTTL time.Duration

	// DailyLimit caps emotion selections per user per local calendar day
	DailyLimit int
}

// WeatherDeps bundles the collaborators of the weather service. The memo
// caches and the ledger are process-scoped stores owned by the application
// and handed in by reference.
type WeatherDeps struct {
	Client       ports.WeatherClient
	Locations    ports.LocationService
	Users        ports.UserService
	Store        ports.SelectionStore
	Emotions     *domain.EmotionCatalog
	Observations *cache.Memo[*domain.Observation]
	Forecasts    *cache.Memo[*domain.ForecastSet]
	Selections   *ledger.Ledger[domain.EmotionSelection]
	Clock        clockwork.Clock
	Logger       *zap.Logger
}

type weatherService struct {
	cfg  WeatherConfig
	deps WeatherDeps
}

// NewWeatherService assembles the weather domain service.
func NewWeatherService(cfg WeatherConfig, deps WeatherDeps) ports.WeatherService {
	return &weatherService{cfg: cfg, deps: deps}
}

// GetObservation returns the current weather for a city, served from the
// memo cache when fresh. On a miss the upstream payload is fetched,
// normalized, and cached for ObservationTTL. An upstream or normalization
// failure leaves the cache untouched so the next call retries.
func (s *weatherService) GetObservation(ctx context.Context, cityID int) (*domain.Observation, error) {
	city, err := s.deps.Locations.GetCity(ctx, cityID)

	if err != nil {
		return nil, err
	}

	key := cache.Key("weather", "observation", fmt.Sprintf("city_id=%d", city.CityID))

	return s.deps.Observations.GetOrCompute(key, s.cfg.ObservationTTL, func() (*domain.Observation, error) {
		payload, err := s.deps.Client.FetchObservation(ctx, city.OpenWeatherID)

		if err != nil {
			s.deps.Logger.Error("failed to fetch observation",
				zap.Int("city_id", city.CityID),
				zap.Int("open_weather_id", city.OpenWeatherID),
				zap.Error(err))

			return nil, domain.UpstreamError("failed to retrieve observation", err)
		}

		observation, ok := NormalizeObservation(payload)

		if !ok {
			s.deps.Logger.Error("observation payload failed validation",
				zap.Int("city_id", city.CityID),
				zap.Int("open_weather_id", city.OpenWeatherID))

			return nil, domain.UpstreamError("observation payload is missing mandatory fields", nil)
		}

		return &observation, nil
	})
}

// GetForecasts returns the forecast set for a city, cached under its own
// namespace with ForecastTTL.
func (s *weatherService) GetForecasts(ctx context.Context, cityID int) (*domain.ForecastSet, error) {
	city, err := s.deps.Locations.GetCity(ctx, cityID)

	if err != nil {
		return nil, err
	}

	key := cache.Key("weather", "forecasts", fmt.Sprintf("city_id=%d", city.CityID))

	return s.deps.Forecasts.GetOrCompute(key, s.cfg.ForecastTTL, func() (*domain.ForecastSet, error) {
		payload, err := s.deps.Client.FetchForecasts(ctx, city.OpenWeatherID)

		if err != nil {
			s.deps.Logger.Error("failed to fetch forecasts",
				zap.Int("city_id", city.CityID),
				zap.Int("open_weather_id", city.OpenWeatherID),
				zap.Error(err))

			return nil, domain.UpstreamError("failed to retrieve forecasts", err)
		}

		forecasts, ok := NormalizeForecastSet(payload)

		if !ok {
			s.deps.Logger.Error("forecast payload failed validation",
				zap.Int("city_id", city.CityID),
				zap.Int("open_weather_id", city.OpenWeatherID))

			return nil, domain.UpstreamError("forecast payload is missing mandatory fields", nil)
		}

		return &forecasts, nil
	})
}

// GetEmotionCounts aggregates today's selections by emotion, scoped to the
// city and globally. Recomputed per call from the ledger's day window.
func (s *weatherService) GetEmotionCounts(ctx context.Context, cityID int, loc *time.Location) ([]domain.EmotionCount, error) {
	city, err := s.deps.Locations.GetCity(ctx, cityID)

	if err != nil {
		return nil, err
	}

	records := s.deps.Selections.AllToday(loc)
	counts := ledger.CountsByCategory(records, city.CityID)

	emotionCounts := make([]domain.EmotionCount, 0, len(counts))

	for _, count := range counts {
		emotionCounts = append(emotionCounts, domain.EmotionCount{
			EmotionID:   count.Category,
			CityCount:   count.TargetCount,
			GlobalCount: count.GlobalCount,
		})
	}

	return emotionCounts, nil
}

// GetUserDailyConfiguration reports whether the user already selected an
// emotion for this city today, how many selections they have used, and the
// configured daily limit.
func (s *weatherService) GetUserDailyConfiguration(ctx context.Context, userID, cityID int, loc *time.Location) (*domain.UserDailyConfiguration, error) {
	user, err := s.deps.Users.GetUser(ctx, userID)

	if err != nil {
		return nil, err
	}

	city, err := s.deps.Locations.GetCity(ctx, cityID)

	if err != nil {
		return nil, err
	}

	records := s.deps.Selections.ForSubjectToday(user.UserID, loc)

	configuration := &domain.UserDailyConfiguration{
		SelectionsToday: len(records),
		LimitToday:      s.cfg.DailyLimit,
	}

	for _, record := range records {
		if record.CityID == city.CityID {
			emotionID := record.EmotionID
			configuration.EmotionID = &emotionID

			break
		}
	}

	return configuration, nil
}

// CreateSelection records a user's emotion for a city today. The duplicate
// target and daily-limit policies are checked against the ledger before the
// durable write; the ledger append happens only after the write succeeds, so
// the ledger is never ahead of the durable store. The policy checks are not
// atomic with the insert; a true race between two requests for the same user
// may briefly exceed the limit, which is tolerated.
func (s *weatherService) CreateSelection(ctx context.Context, userID, cityID, emotionID int, loc *time.Location) (*domain.EmotionSelection, error) {
	user, err := s.deps.Users.GetUser(ctx, userID)

	if err != nil {
		return nil, err
	}

	city, err := s.deps.Locations.GetCity(ctx, cityID)

	if err != nil {
		return nil, err
	}

	if _, ok := s.deps.Emotions.Get(emotionID); !ok {
		return nil, domain.InvalidInputError("emotion id is invalid")
	}

	records := s.deps.Selections.ForSubjectToday(user.UserID, loc)

	for _, record := range records {
		if record.CityID == city.CityID {
			return nil, domain.BusinessRuleError("an emotion was already selected for this city today")
		}
	}

	if len(records) >= s.cfg.DailyLimit {
		return nil, domain.BusinessRuleError("the daily selection limit has been reached")
	}

	createdOn := s.deps.Clock.Now().In(loc)
	selection, err := s.deps.Store.PersistSelection(ctx, user.UserID, city.CityID, emotionID, createdOn)

	if err != nil {
		s.deps.Logger.Error("failed to persist selection",
			zap.Int("user_id", user.UserID),
			zap.Int("city_id", city.CityID),
			zap.Int("emotion_id", emotionID),
			zap.Error(err))

		return nil, domain.StorageError("failed to persist selection", err)
	}

	s.deps.Selections.TryAdd(*selection)

	s.deps.Logger.Info("emotion selection created",
		zap.Int64("selection_id", selection.SelectionID),
		zap.Int("user_id", user.UserID),
		zap.Int("city_id", city.CityID),
		zap.Int("emotion_id", emotionID))

	return selection, nil
}

// Emotions returns the static emotion catalog in seed order.
func (s *weatherService) Emotions() []domain.Emotion {
	return s.deps.Emotions.All()
}
