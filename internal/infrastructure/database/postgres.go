// Package database provides the PostgreSQL-backed durable store: city,
// user, and stock lookups, the static catalogs, and the selection and alert
// writes. The in-process ledger is rebuilt from this store at startup; the
// store is the source of truth across restarts.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/moodcast/moodcast/internal/core/domain"
)

// Store wraps the PostgreSQL connection pool.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Config holds PostgreSQL connection settings.
type Config struct {
	Host                  string
	Port                  int
	User                  string
	Password              string
	Database              string
	SSLMode               string
	MaxConnections        int
	MaxIdleConnections    int
	ConnectionMaxLifetime time.Duration
}

// NewStore opens a connection pool and verifies connectivity.
func NewStore(cfg Config, logger *zap.Logger) (*Store, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnectionMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// DB exposes the underlying pool for the migration runner.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping verifies the connection is alive. Used by the readiness probe.
func (s *Store) Ping() error {
	return s.db.Ping()
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetCity resolves a city by id. Returns a NOT_FOUND domain error when the
// city does not exist.
func (s *Store) GetCity(ctx context.Context, cityID int) (*domain.City, error) {
	var city domain.City

	err := s.db.QueryRowContext(ctx,
		`SELECT city_id, name, open_weather_id FROM cities WHERE city_id = $1`,
		cityID,
	).Scan(&city.CityID, &city.Name, &city.OpenWeatherID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundError("city not found")
	}

	if err != nil {
		return nil, domain.StorageError("failed to load city", err)
	}

	return &city, nil
}

// GetUser resolves a user by id. Returns a NOT_FOUND domain error when the
// user does not exist.
func (s *Store) GetUser(ctx context.Context, userID int) (*domain.User, error) {
	var user domain.User

	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, name FROM users WHERE user_id = $1`,
		userID,
	).Scan(&user.UserID, &user.Name)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundError("user not found")
	}

	if err != nil {
		return nil, domain.StorageError("failed to load user", err)
	}

	return &user, nil
}

// GetStock resolves a stock by id. Returns a NOT_FOUND domain error when the
// stock does not exist.
func (s *Store) GetStock(ctx context.Context, stockID int) (*domain.Stock, error) {
	var stock domain.Stock

	err := s.db.QueryRowContext(ctx,
		`SELECT stock_id, symbol, name FROM stocks WHERE stock_id = $1`,
		stockID,
	).Scan(&stock.StockID, &stock.Symbol, &stock.Name)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundError("stock not found")
	}

	if err != nil {
		return nil, domain.StorageError("failed to load stock", err)
	}

	return &stock, nil
}

// ListEmotions loads the static emotion catalog, in seed order.
func (s *Store) ListEmotions(ctx context.Context) ([]domain.Emotion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT emotion_id, name, icon FROM emotions ORDER BY emotion_id`)

	if err != nil {
		return nil, fmt.Errorf("failed to list emotions: %w", err)
	}

	defer rows.Close()

	var emotions []domain.Emotion

	for rows.Next() {
		var emotion domain.Emotion

		if err := rows.Scan(&emotion.EmotionID, &emotion.Name, &emotion.Icon); err != nil {
			return nil, fmt.Errorf("failed to scan emotion: %w", err)
		}

		emotions = append(emotions, emotion)
	}

	return emotions, rows.Err()
}

// ListAlertTypes loads the static alert type catalog, in seed order.
func (s *Store) ListAlertTypes(ctx context.Context) ([]domain.AlertType, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT type_id, name, points FROM stock_alert_types ORDER BY type_id`)

	if err != nil {
		return nil, fmt.Errorf("failed to list alert types: %w", err)
	}

	defer rows.Close()

	var types []domain.AlertType

	for rows.Next() {
		var alertType domain.AlertType

		if err := rows.Scan(&alertType.TypeID, &alertType.Name, &alertType.Points); err != nil {
			return nil, fmt.Errorf("failed to scan alert type: %w", err)
		}

		types = append(types, alertType)
	}

	return types, rows.Err()
}

// PersistSelection durably records an emotion selection and returns it with
// its assigned identifier. Nothing is written on failure.
func (s *Store) PersistSelection(ctx context.Context, userID, cityID, emotionID int, createdOn time.Time) (*domain.EmotionSelection, error) {
	tracer := otel.Tracer("database")
	ctx, span := tracer.Start(ctx, "Store.PersistSelection")

	defer span.End()

	span.SetAttributes(
		attribute.Int("user_id", userID),
		attribute.Int("city_id", cityID),
		attribute.Int("emotion_id", emotionID),
	)

	selection := domain.EmotionSelection{
		UserID:    userID,
		CityID:    cityID,
		EmotionID: emotionID,
		CreatedOn: createdOn,
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO city_user_emotions (user_id, city_id, emotion_id, created_on)
		 VALUES ($1, $2, $3, $4)
		 RETURNING selection_id`,
		userID, cityID, emotionID, createdOn,
	).Scan(&selection.SelectionID)

	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("failed to insert selection: %w", err)
	}

	return &selection, nil
}

// PersistAlert durably records a stock alert and returns it with its
// assigned identifier.
func (s *Store) PersistAlert(ctx context.Context, userID, stockID, typeID int, createdOn time.Time) (*domain.StockAlert, error) {
	tracer := otel.Tracer("database")
	ctx, span := tracer.Start(ctx, "Store.PersistAlert")

	defer span.End()

	span.SetAttributes(
		attribute.Int("user_id", userID),
		attribute.Int("stock_id", stockID),
		attribute.Int("type_id", typeID),
	)

	alert := domain.StockAlert{
		UserID:    userID,
		StockID:   stockID,
		TypeID:    typeID,
		CreatedOn: createdOn,
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO stock_user_alerts (user_id, stock_id, type_id, created_on)
		 VALUES ($1, $2, $3, $4)
		 RETURNING alert_id`,
		userID, stockID, typeID, createdOn,
	).Scan(&alert.AlertID)

	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("failed to insert alert: %w", err)
	}

	return &alert, nil
}

// SelectionsSince returns selections created at or after since, in insert
// order. Used to rebuild the ledger at startup.
func (s *Store) SelectionsSince(ctx context.Context, since time.Time) ([]domain.EmotionSelection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT selection_id, user_id, city_id, emotion_id, created_on
		 FROM city_user_emotions
		 WHERE created_on >= $1
		 ORDER BY selection_id`,
		since)

	if err != nil {
		return nil, fmt.Errorf("failed to list selections: %w", err)
	}

	defer rows.Close()

	var selections []domain.EmotionSelection

	for rows.Next() {
		var selection domain.EmotionSelection

		if err := rows.Scan(
			&selection.SelectionID,
			&selection.UserID,
			&selection.CityID,
			&selection.EmotionID,
			&selection.CreatedOn,
		); err != nil {
			return nil, fmt.Errorf("failed to scan selection: %w", err)
		}

		selections = append(selections, selection)
	}

	return selections, rows.Err()
}

// AlertsSince returns stock alerts created at or after since, in insert
// order.
func (s *Store) AlertsSince(ctx context.Context, since time.Time) ([]domain.StockAlert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT alert_id, user_id, stock_id, type_id, created_on
		 FROM stock_user_alerts
		 WHERE created_on >= $1
		 ORDER BY alert_id`,
		since)

	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	defer rows.Close()

	var alerts []domain.StockAlert

	for rows.Next() {
		var alert domain.StockAlert

		if err := rows.Scan(
			&alert.AlertID,
			&alert.UserID,
			&alert.StockID,
			&alert.TypeID,
			&alert.CreatedOn,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}

		alerts = append(alerts, alert)
	}

	return alerts, rows.Err()
}
