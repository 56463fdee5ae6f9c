// internal/domain/quote.go
package domain

import "github.com/shopspring/decimal"

// Quote is a point-in-time price snapshot for a symbol.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"` // fraction, 0.0123 is 1.23%
	LatestTime    string          `json:"latest_time"`
}

// Cost returns the cash value of shares at the quoted price.
func (q Quote) Cost(shares int64) decimal.Decimal {
	return q.Price.Mul(decimal.NewFromInt(shares))
}
