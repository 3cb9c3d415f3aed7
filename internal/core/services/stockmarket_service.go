package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/moodcast/moodcast/internal/core/domain"
	"github.com/moodcast/moodcast/internal/core/ports"
	"github.com/moodcast/moodcast/internal/infrastructure/cache"
	"github.com/moodcast/moodcast/internal/infrastructure/ledger"
)

// StockMarketConfig carries the tunables of the stock market service.
type StockMarketConfig struct {
	QuoteTTL        time.Duration
	DailyAlertLimit int
}

// StockMarketDeps bundles the collaborators of the stock market service.
type StockMarketDeps struct {
	Client     ports.QuoteClient
	Stocks     ports.StockLookup
	Users      ports.UserService
	Store      ports.AlertStore
	AlertTypes *domain.AlertTypeCatalog
	Quotes     *cache.Memo[*domain.StockQuote]
	Alerts     *ledger.Ledger[domain.StockAlert]
	Clock      clockwork.Clock
	Logger     *zap.Logger
}

type stockMarketService struct {
	cfg  StockMarketConfig
	deps StockMarketDeps
}

// NewStockMarketService assembles the stock market service. It mirrors the
// weather service's shape: memoized upstream reads, a per-user daily alert
// ledger, and write-then-append ordering on creation.
func NewStockMarketService(cfg StockMarketConfig, deps StockMarketDeps) ports.StockMarketService {
	return &stockMarketService{cfg: cfg, deps: deps}
}

// GetQuote returns the latest quote for a stock, served from the memo cache
// when fresh. A failed fetch or an unusable payload caches nothing.
func (s *stockMarketService) GetQuote(ctx context.Context, stockID int) (*domain.StockQuote, error) {
	stock, err := s.deps.Stocks.GetStock(ctx, stockID)

	if err != nil {
		return nil, err
	}

	key := cache.Key("stockmarket", "quote", fmt.Sprintf("stock_id=%d", stock.StockID))

	return s.deps.Quotes.GetOrCompute(key, s.cfg.QuoteTTL, func() (*domain.StockQuote, error) {
		payload, err := s.deps.Client.FetchQuote(ctx, stock.Symbol)

		if err != nil {
			s.deps.Logger.Error("failed to fetch quote",
				zap.String("symbol", stock.Symbol),
				zap.Error(err))

			return nil, domain.UpstreamError("failed to retrieve quote", err)
		}

		quote, ok := NormalizeQuote(payload, s.deps.Clock.Now())

		if !ok {
			s.deps.Logger.Error("quote payload failed validation", zap.String("symbol", stock.Symbol))

			return nil, domain.UpstreamError("quote payload is missing mandatory fields", nil)
		}

		return &quote, nil
	})
}

// GetUserAlertTypeCounts aggregates the user's alerts for today by type,
// with the point total each type earned.
func (s *stockMarketService) GetUserAlertTypeCounts(ctx context.Context, userID int, loc *time.Location) ([]domain.AlertTypeCount, error) {
	user, err := s.deps.Users.GetUser(ctx, userID)

	if err != nil {
		return nil, err
	}

	records := s.deps.Alerts.ForSubjectToday(user.UserID, loc)
	counts := ledger.CountsByCategory(records, 0)

	typeCounts := make([]domain.AlertTypeCount, 0, len(counts))

	for _, count := range counts {
		typeCount := domain.AlertTypeCount{
			TypeID: count.Category,
			Count:  count.GlobalCount,
		}

		if alertType, ok := s.deps.AlertTypes.Get(count.Category); ok {
			typeCount.Points = alertType.Points.Mul(decimal.NewFromInt(int64(count.GlobalCount)))
		}

		typeCounts = append(typeCounts, typeCount)
	}

	return typeCounts, nil
}

// CreateAlert records a user's alert on a stock today, under the same
// duplicate-target and daily-limit policies as emotion selections.
func (s *stockMarketService) CreateAlert(ctx context.Context, userID, stockID, typeID int, loc *time.Location) (*domain.StockAlert, error) {
	user, err := s.deps.Users.GetUser(ctx, userID)

	if err != nil {
		return nil, err
	}

	stock, err := s.deps.Stocks.GetStock(ctx, stockID)

	if err != nil {
		return nil, err
	}

	if _, ok := s.deps.AlertTypes.Get(typeID); !ok {
		return nil, domain.InvalidInputError("alert type id is invalid")
	}

	records := s.deps.Alerts.ForSubjectToday(user.UserID, loc)

	for _, record := range records {
		if record.StockID == stock.StockID {
			return nil, domain.BusinessRuleError("an alert was already created for this stock today")
		}
	}

	if len(records) >= s.cfg.DailyAlertLimit {
		return nil, domain.BusinessRuleError("the daily alert limit has been reached")
	}

	createdOn := s.deps.Clock.Now().In(loc)
	alert, err := s.deps.Store.PersistAlert(ctx, user.UserID, stock.StockID, typeID, createdOn)

	if err != nil {
		s.deps.Logger.Error("failed to persist alert",
			zap.Int("user_id", user.UserID),
			zap.Int("stock_id", stock.StockID),
			zap.Int("type_id", typeID),
			zap.Error(err))

		return nil, domain.StorageError("failed to persist alert", err)
	}

	s.deps.Alerts.TryAdd(*alert)

	s.deps.Logger.Info("stock alert created",
		zap.Int64("alert_id", alert.AlertID),
		zap.Int("user_id", user.UserID),
		zap.Int("stock_id", stock.StockID),
		zap.Int("type_id", typeID))

	return alert, nil
}

// AlertTypes returns the static alert type catalog in seed order.
func (s *stockMarketService) AlertTypes() []domain.AlertType {
	return s.deps.AlertTypes.All()
}
