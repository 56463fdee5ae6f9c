// internal/domain/transaction.go
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side tells whether a ledger row bought or sold shares.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Transaction is an immutable ledger row. Shares is signed: positive for a buy, negative for a sell.
type Transaction struct {
	ID            int64           `db:"id" json:"id"`
	UserID        int64           `db:"user_id" json:"user_id"`
	Symbol        string          `db:"symbol" json:"symbol"`
	Shares        int64           `db:"shares" json:"shares"`
	PricePerShare decimal.Decimal `db:"price_per_share" json:"price_per_share"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// NewBuy creates the ledger row for buying shares at price.
func NewBuy(userID int64, symbol string, shares int64, price decimal.Decimal) *Transaction {
	return newTransaction(userID, symbol, shares, price)
}

// NewSell creates the ledger row for selling shares at price; the stored share count is negated.
func NewSell(userID int64, symbol string, shares int64, price decimal.Decimal) *Transaction {
	return newTransaction(userID, symbol, -shares, price)
}

func newTransaction(userID int64, symbol string, shares int64, price decimal.Decimal) *Transaction {
	return &Transaction{
		UserID:        userID,
		Symbol:        symbol,
		Shares:        shares,
		PricePerShare: price,
		CreatedAt:     time.Now().UTC(),
	}
}

// Side returns SideBuy for positive share counts and SideSell otherwise.
func (t Transaction) Side() Side {
	if t.Shares > 0 {
		return SideBuy
	}
	return SideSell
}

// Amount is the absolute cash value that moved with this row.
func (t Transaction) Amount() decimal.Decimal {
	return t.PricePerShare.Mul(decimal.NewFromInt(t.Shares)).Abs()
}

// NormalizeSymbol trims and upper-cases a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
