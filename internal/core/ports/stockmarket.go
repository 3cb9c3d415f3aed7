package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moodcast/moodcast/internal/core/domain"
)

// StockMarketService exposes the stock-alert operations to the primary
// adapters. It follows the same cached-read / ledger-write pattern as the
// weather service.
type StockMarketService interface {
	GetQuote(ctx context.Context, stockID int) (*domain.StockQuote, error)
	GetUserAlertTypeCounts(ctx context.Context, userID int, loc *time.Location) ([]domain.AlertTypeCount, error)
	CreateAlert(ctx context.Context, userID, stockID, typeID int, loc *time.Location) (*domain.StockAlert, error)
	AlertTypes() []domain.AlertType
}

// QuoteClient fetches raw quote payloads from the upstream market data
// provider.
type QuoteClient interface {
	FetchQuote(ctx context.Context, symbol string) (*QuotePayload, error)
}

// StockLookup resolves stock entities by id.
type StockLookup interface {
	GetStock(ctx context.Context, stockID int) (*domain.Stock, error)
}

// AlertStore performs the durable write for a new stock alert.
type AlertStore interface {
	PersistAlert(ctx context.Context, userID, stockID, typeID int, createdOn time.Time) (*domain.StockAlert, error)
}

// QuotePayload is the raw quote response. Change fields are pointers since
// the provider omits them outside trading hours; the normalizer substitutes
// zero values.
type QuotePayload struct {
	Symbol        string           `json:"symbol"`
	CompanyName   string           `json:"companyName"`
	LatestPrice   *decimal.Decimal `json:"latestPrice"`
	Change        *decimal.Decimal `json:"change"`
	ChangePercent *decimal.Decimal `json:"changePercent"`
}
