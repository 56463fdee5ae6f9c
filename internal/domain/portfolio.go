// internal/domain/portfolio.go
package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Holding is the net position in one symbol, valued at a live quote.
type Holding struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Shares int64           `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Value  decimal.Decimal `json:"value"`
}

// Portfolio is derived from the ledger and never stored.
type Portfolio struct {
	Holdings      []Holding       `json:"holdings"`
	TotalValue    decimal.Decimal `json:"total_value"`
	CashRemaining decimal.Decimal `json:"cash_remaining"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
}

// Position is an unpriced net share count.
type Position struct {
	Symbol string
	Shares int64
}

// DeriveHoldings sums signed share counts per symbol and keeps only positive totals, ordered by symbol.
func DeriveHoldings(transactions []Transaction) []Position {
	totals := make(map[string]int64)
	for _, tx := range transactions {
		totals[tx.Symbol] += tx.Shares
	}

	positions := make([]Position, 0, len(totals))
	for symbol, shares := range totals {
		if shares > 0 {
			positions = append(positions, Position{Symbol: symbol, Shares: shares})
		}
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].Symbol < positions[j].Symbol })
	return positions
}

// HoldingOf returns the net share count of symbol in transactions.
func HoldingOf(transactions []Transaction, symbol string) int64 {
	var total int64
	for _, tx := range transactions {
		if tx.Symbol == symbol {
			total += tx.Shares
		}
	}
	return total
}

// NewPortfolio values positions with quotes and totals them against cash.
// Every position must have a quote in quotes.
func NewPortfolio(positions []Position, quotes map[string]Quote, cash decimal.Decimal) *Portfolio {
	p := &Portfolio{
		Holdings:      make([]Holding, 0, len(positions)),
		TotalValue:    decimal.Zero,
		CashRemaining: cash,
	}
	for _, pos := range positions {
		q := quotes[pos.Symbol]
		value := q.Cost(pos.Shares)
		p.Holdings = append(p.Holdings, Holding{
			Symbol: pos.Symbol,
			Name:   q.Name,
			Shares: pos.Shares,
			Price:  q.Price,
			Value:  value,
		})
		p.TotalValue = p.TotalValue.Add(value)
	}
	p.GrandTotal = p.CashRemaining.Add(p.TotalValue)
	return p
}
