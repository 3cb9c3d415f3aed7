package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockQuote is a point-in-time market quote for one symbol. Prices use
// decimal arithmetic so cent-level amounts never accumulate float error.
type StockQuote struct {
	Symbol        string
	CompanyName   string
	Price         decimal.Decimal
	Change        decimal.Decimal
	ChangePercent decimal.Decimal
	QuotedAt      time.Time
}

// Stock is a listed security entity resolved through the stock lookup.
type Stock struct {
	StockID int
	Symbol  string
	Name    string
}

// AlertType is one entry of the static stock alert type catalog. Points is
// the score a user earns per triggered alert of this type.
type AlertType struct {
	TypeID int
	Name   string
	Points decimal.Decimal
}

// StockAlert records one user's dated alert on a stock. It follows the same
// per-subject daily window rules as EmotionSelection and shares the ledger
// machinery with it.
type StockAlert struct {
	AlertID   int64
	UserID    int
	StockID   int
	TypeID    int
	CreatedOn time.Time
}

// ID returns the unique alert identifier.
func (a StockAlert) ID() int64 { return a.AlertID }

// Subject returns the acting user's id.
func (a StockAlert) Subject() int { return a.UserID }

// Target returns the alerted stock's id.
func (a StockAlert) Target() int { return a.StockID }

// Category returns the alert type id.
func (a StockAlert) Category() int { return a.TypeID }

// CreatedAt returns the timezone-adjusted creation timestamp.
func (a StockAlert) CreatedAt() time.Time { return a.CreatedOn }

// AlertTypeCount aggregates a user's alerts for today by type, with the
// point total earned from that type.
type AlertTypeCount struct {
	TypeID int
	Count  int
	Points decimal.Decimal
}
