// internal/events/events.go
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"papertrade/internal/domain"
)

// TradeEvent is published once per committed buy or sell.
type TradeEvent struct {
	ID         string          `json:"id"`
	UserID     int64           `json:"user_id"`
	Symbol     string          `json:"symbol"`
	Side       domain.Side     `json:"side"`
	Shares     int64           `json:"shares"` // always positive, Side carries the direction
	Price      decimal.Decimal `json:"price"`
	ExecutedAt time.Time       `json:"executed_at"`
}

// NewTradeEvent builds the event for a committed ledger row.
func NewTradeEvent(tx *domain.Transaction) TradeEvent {
	shares := tx.Shares
	if shares < 0 {
		shares = -shares
	}
	return TradeEvent{
		ID:         uuid.NewString(),
		UserID:     tx.UserID,
		Symbol:     tx.Symbol,
		Side:       tx.Side(),
		Shares:     shares,
		Price:      tx.PricePerShare,
		ExecutedAt: tx.CreatedAt,
	}
}

// Publisher delivers trade events to downstream consumers.
type Publisher interface {
	PublishTrade(ctx context.Context, event TradeEvent) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishTrade(context.Context, TradeEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
