// Package app provides application-level coordination and dependency injection.
// It orchestrates the initialization of all service components, manages their lifecycles,
// and provides a clean application structure following dependency inversion principles.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/moodcast/moodcast/internal/adapters/primary/rest"
	"github.com/moodcast/moodcast/internal/adapters/secondary/openweather"
	"github.com/moodcast/moodcast/internal/adapters/secondary/stockdata"
	"github.com/moodcast/moodcast/internal/config"
	"github.com/moodcast/moodcast/internal/core/domain"
	"github.com/moodcast/moodcast/internal/core/ports"
	"github.com/moodcast/moodcast/internal/core/services"
	"github.com/moodcast/moodcast/internal/infrastructure/cache"
	"github.com/moodcast/moodcast/internal/infrastructure/circuitbreaker"
	"github.com/moodcast/moodcast/internal/infrastructure/database"
	"github.com/moodcast/moodcast/internal/infrastructure/ledger"
	"github.com/moodcast/moodcast/internal/infrastructure/ratelimit"
	"github.com/moodcast/moodcast/internal/middleware"
	"github.com/moodcast/moodcast/internal/observability"
	"github.com/moodcast/moodcast/internal/version"
)

// warmupWindow is how far back persisted records are reloaded into the
// in-process ledgers on boot. Two days covers "today" in every timezone
// relative to server time.
const warmupWindow = 48 * time.Hour

// Server represents the HTTP server instance.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// App manages the application lifecycle and dependencies.
type App struct {
	cfg       *config.Config
	server    *Server
	logger    *zap.Logger
	telemetry *observability.Telemetry
	store     *database.Store
}

// New creates a new application instance.
//
// Returns:
//   - *App: Configured application instance
//   - error: Logger initialization error
func New() (*App, error) {
	logger, err := zap.NewProduction()

	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg := config.Load()

	return &App{
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Start initializes and starts all application components.
//
// Parameters:
//   - ctx: Context for initialization
//
// Returns:
//   - error: Initialization or server start error
func (a *App) Start(ctx context.Context) error {
	if err := a.initTelemetry(ctx); err != nil {
		a.logger.Warn("failed to initialize telemetry, continuing without it", zap.Error(err))
	}

	rateLimitService := a.initRateLimiter(ctx)

	if err := a.initDatabase(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	emotions, err := a.store.ListEmotions(ctx)

	if err != nil {
		return fmt.Errorf("failed to load emotion catalog: %w", err)
	}

	alertTypes, err := a.store.ListAlertTypes(ctx)

	if err != nil {
		return fmt.Errorf("failed to load alert type catalog: %w", err)
	}

	clock := clockwork.NewRealClock()
	selections := ledger.New[domain.EmotionSelection](clock, a.logger)
	alerts := ledger.New[domain.StockAlert](clock, a.logger)

	a.warmUpLedgers(ctx, clock, selections, alerts)

	breakers := circuitbreaker.NewManager(a.logger)

	weatherService := services.NewWeatherService(
		services.WeatherConfig{
			ObservationTTL: a.cfg.OpenWeather.ObservationTTL,
			ForecastTTL:    a.cfg.OpenWeather.ForecastTTL,
			DailyLimit:     a.cfg.Selection.DailyEmotionLimit,
		},
		services.WeatherDeps{
			Client:       a.initWeatherClient(breakers),
			Locations:    a.store,
			Users:        a.store,
			Store:        a.store,
			Emotions:     domain.NewEmotionCatalog(emotions),
			Observations: cache.NewMemo[*domain.Observation](10*time.Minute, a.logger),
			Forecasts:    cache.NewMemo[*domain.ForecastSet](10*time.Minute, a.logger),
			Selections:   selections,
			Clock:        clock,
			Logger:       a.logger,
		},
	)

	stockMarketService := services.NewStockMarketService(
		services.StockMarketConfig{
			QuoteTTL:        a.cfg.StockData.QuoteTTL,
			DailyAlertLimit: a.cfg.Selection.DailyAlertLimit,
		},
		services.StockMarketDeps{
			Client:     a.initQuoteClient(breakers),
			Stocks:     a.store,
			Users:      a.store,
			Store:      a.store,
			AlertTypes: domain.NewAlertTypeCatalog(alertTypes),
			Quotes:     cache.NewMemo[*domain.StockQuote](10*time.Minute, a.logger),
			Alerts:     alerts,
			Clock:      clock,
			Logger:     a.logger,
		},
	)

	weatherHandler := rest.NewWeatherHandler(weatherService, a.logger)
	stockMarketHandler := rest.NewStockMarketHandler(stockMarketService, a.logger)

	rateLimitMiddleware := middleware.NewRateLimitMiddleware(
		rateLimitService,
		a.cfg.RateLimit.RPS,
		a.cfg.RateLimit.Window,
		a.logger,
	)

	router := a.setupRouter(
		weatherHandler,
		stockMarketHandler,
		rateLimitMiddleware,
		a.telemetry,
	)

	a.server = &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%s", a.cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  a.cfg.Server.ReadTimeout,
			WriteTimeout: a.cfg.Server.WriteTimeout,
			IdleTimeout:  a.cfg.Server.IdleTimeout,
		},
		logger: a.logger,
	}

	go func() {
		a.logger.Info("starting HTTP server", zap.String("port", a.cfg.Server.Port))

		if err := a.server.server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				a.logger.Fatal("failed to start server", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop gracefully shuts down all application components.
func (a *App) Stop() {
	a.logger.Info("shutting down application...")

	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := a.server.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("failed to shutdown server gracefully", zap.Error(err))
		}
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Error("failed to close database connection", zap.Error(err))
		}
	}

	if a.telemetry != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := a.telemetry.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("failed to shutdown telemetry", zap.Error(err))
		}
	}

	if err := a.logger.Sync(); err != nil {
		// Sync can fail on some platforms, ignore the error
		_ = err
	}
}

// WaitForShutdown blocks until the server receives a shutdown signal.
func (a *App) WaitForShutdown() {
	// Wait for the interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)

	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	a.logger.Info("shutdown signal received")
}

// initTelemetry initializes OpenTelemetry providers.
func (a *App) initTelemetry(ctx context.Context) error {
	telemetryConfig := observability.Config{
		ServiceName:    a.cfg.Observability.ServiceName,
		ServiceVersion: a.cfg.Observability.ServiceVersion,
		Environment:    a.cfg.Observability.Environment,
		OTLPEndpoint:   a.cfg.Observability.OTLPEndpoint,
		SampleRate:     a.cfg.Observability.SampleRate,
	}

	var err error
	a.telemetry, err = observability.InitTelemetry(ctx, telemetryConfig, a.logger)

	return err
}

// initRateLimiter initializes Redis-based or memory-based rate limiting.
// Redis failures fall back to the in-memory limiter rather than blocking
// startup.
func (a *App) initRateLimiter(ctx context.Context) ports.RateLimitService {
	if !a.cfg.Redis.Enabled {
		a.logger.Info("Redis disabled, using memory-based rate limiter")

		return middleware.NewMemoryRateLimiter(a.logger)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         a.cfg.Redis.Addr,
		Password:     a.cfg.Redis.Password,
		DB:           a.cfg.Redis.DB,
		PoolSize:     a.cfg.Redis.PoolSize,
		MinIdleConns: a.cfg.Redis.MinIdleConns,
		MaxRetries:   a.cfg.Redis.MaxRetries,
		DialTimeout:  a.cfg.Redis.DialTimeout,
		ReadTimeout:  a.cfg.Redis.ReadTimeout,
		WriteTimeout: a.cfg.Redis.WriteTimeout,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		a.logger.Warn("Redis connection failed, falling back to memory-based rate limiter", zap.Error(err))

		return middleware.NewMemoryRateLimiter(a.logger)
	}

	a.logger.Info("Redis connected successfully")

	return ratelimit.NewRedisRateLimiter(redisClient, a.logger)
}

// initDatabase initializes the PostgreSQL store. The store backs entity
// lookups, catalogs, and durable writes, so a failed connection aborts
// startup.
func (a *App) initDatabase() error {
	dbConfig := database.Config{
		Host:                  a.cfg.Database.Host,
		Port:                  a.cfg.Database.Port,
		User:                  a.cfg.Database.User,
		Password:              a.cfg.Database.Password,
		Database:              a.cfg.Database.Database,
		SSLMode:               a.cfg.Database.SSLMode,
		MaxConnections:        a.cfg.Database.MaxConnections,
		MaxIdleConnections:    a.cfg.Database.MaxIdleConnections,
		ConnectionMaxLifetime: a.cfg.Database.ConnectionMaxLifetime,
	}

	var err error
	a.store, err = database.NewStore(dbConfig, a.logger)

	return err
}

// warmUpLedgers reloads recent persisted records into the in-process
// ledgers so daily limits survive a restart. Warm-up failures are logged
// and skipped; the ledgers then repopulate from new writes only.
func (a *App) warmUpLedgers(
	ctx context.Context,
	clock clockwork.Clock,
	selections *ledger.Ledger[domain.EmotionSelection],
	alerts *ledger.Ledger[domain.StockAlert],
) {
	since := clock.Now().Add(-warmupWindow)

	selectionRows, err := a.store.SelectionsSince(ctx, since)

	if err != nil {
		a.logger.Warn("failed to warm up selection ledger", zap.Error(err))
	} else {
		for _, row := range selectionRows {
			selections.TryAdd(row)
		}

		a.logger.Info("selection ledger warmed up", zap.Int("records", selections.Len()))
	}

	alertRows, err := a.store.AlertsSince(ctx, since)

	if err != nil {
		a.logger.Warn("failed to warm up alert ledger", zap.Error(err))
	} else {
		for _, row := range alertRows {
			alerts.TryAdd(row)
		}

		a.logger.Info("alert ledger warmed up", zap.Int("records", alerts.Len()))
	}
}

// initWeatherClient creates an OpenWeather client with circuit breaker
// protection.
func (a *App) initWeatherClient(breakers *circuitbreaker.Manager) ports.WeatherClient {
	httpClient := &http.Client{
		Timeout: a.cfg.OpenWeather.HTTPTimeout,
	}

	client := openweather.NewClient(a.cfg.OpenWeather.BaseURL, a.cfg.OpenWeather.APIKey, httpClient, a.logger)

	return &CircuitBreakerWeatherClient{
		client: client,
		cb: breakers.GetBreaker("openweather-api", circuitbreaker.Config{
			MaxRequests: 3,
			Interval:    10 * time.Second,
			Timeout:     30 * time.Second,
		}),
	}
}

// initQuoteClient creates a market data client with circuit breaker
// protection.
func (a *App) initQuoteClient(breakers *circuitbreaker.Manager) ports.QuoteClient {
	httpClient := &http.Client{
		Timeout: a.cfg.StockData.HTTPTimeout,
	}

	client := stockdata.NewClient(a.cfg.StockData.BaseURL, a.cfg.StockData.APIKey, httpClient, a.logger)

	return &CircuitBreakerQuoteClient{
		client: client,
		cb: breakers.GetBreaker("stockdata-api", circuitbreaker.Config{
			MaxRequests: 3,
			Interval:    10 * time.Second,
			Timeout:     30 * time.Second,
		}),
	}
}

// setupRouter creates and configures the HTTP router with all middleware.
func (a *App) setupRouter(
	weatherHandler *rest.WeatherHandler,
	stockMarketHandler *rest.StockMarketHandler,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	telemetry *observability.Telemetry,
) http.Handler {
	router := mux.NewRouter()

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := a.store.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("DEGRADED"))

			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET")

	// Version endpoint
	router.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		versionInfo := version.Get()

		if err := json.NewEncoder(w).Encode(versionInfo); err != nil {
			a.logger.Error("failed to encode version info", zap.Error(err))
		}
	}).Methods("GET")

	// Prometheus scrape endpoint
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Apply observability middleware if telemetry is available
	if telemetry != nil {
		obsMiddleware := middleware.NewObservabilityMiddleware(telemetry, a.logger)
		router.Use(obsMiddleware.TracingMiddleware)
		router.Use(obsMiddleware.MetricsMiddleware)
		router.Use(obsMiddleware.LoggingMiddleware)
	}

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Apply rate limiting to API routes
	if rateLimitMiddleware != nil {
		api.Use(rateLimitMiddleware.Middleware)
	}

	// Weather and emotion endpoints
	api.HandleFunc("/emotions", weatherHandler.ListEmotions).Methods("GET")
	api.HandleFunc("/cities/{cityId}/weather", weatherHandler.GetObservation).Methods("GET")
	api.HandleFunc("/cities/{cityId}/forecasts", weatherHandler.GetForecasts).Methods("GET")
	api.HandleFunc("/cities/{cityId}/emotions/counts", weatherHandler.GetEmotionCounts).Methods("GET")
	api.HandleFunc("/cities/{cityId}/users/{userId}/configuration", weatherHandler.GetUserConfiguration).Methods("GET")
	api.HandleFunc("/cities/{cityId}/users/{userId}/emotions", weatherHandler.CreateSelection).Methods("POST")

	// Stock market endpoints
	api.HandleFunc("/alert-types", stockMarketHandler.ListAlertTypes).Methods("GET")
	api.HandleFunc("/stocks/{stockId}/quote", stockMarketHandler.GetQuote).Methods("GET")
	api.HandleFunc("/users/{userId}/alerts/counts", stockMarketHandler.GetAlertTypeCounts).Methods("GET")
	api.HandleFunc("/stocks/{stockId}/users/{userId}/alerts", stockMarketHandler.CreateAlert).Methods("POST")

	return router
}
