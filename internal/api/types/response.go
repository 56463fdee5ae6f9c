// internal/api/types/response.go
package types

import (
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/domain"
)

// ListResponse wraps a complete, unpaginated list.
// T represents the type of data contained in the 'Data' slice.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	UserID    int64           `json:"user_id"`
	Username  string          `json:"username"`
	Cash      decimal.Decimal `json:"cash"`
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// TradeResponse describes an executed buy or sell.
type TradeResponse struct {
	TransactionID int64           `json:"transaction_id"`
	Side          domain.Side     `json:"side"`
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Shares        int64           `json:"shares"`
	Price         decimal.Decimal `json:"price"`
	Total         decimal.Decimal `json:"total"`
	Cash          decimal.Decimal `json:"cash"`
	ExecutedAt    time.Time       `json:"executed_at"`
}

// HistoryEntry is one ledger row as shown to the user.
type HistoryEntry struct {
	ID         int64           `json:"id"`
	Side       domain.Side     `json:"side"`
	Symbol     string          `json:"symbol"`
	Shares     int64           `json:"shares"` // signed, negative for sells
	Price      decimal.Decimal `json:"price"`
	Total      decimal.Decimal `json:"total"`
	ExecutedAt time.Time       `json:"executed_at"`
}

// NewHistoryEntry converts a ledger row.
func NewHistoryEntry(tx domain.Transaction) HistoryEntry {
	return HistoryEntry{
		ID:         tx.ID,
		Side:       tx.Side(),
		Symbol:     tx.Symbol,
		Shares:     tx.Shares,
		Price:      tx.PricePerShare,
		Total:      tx.Amount(),
		ExecutedAt: tx.CreatedAt,
	}
}
