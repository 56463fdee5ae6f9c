// internal/renderer/ledger.go
package renderer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/domain"
)

// PortfolioMarkdown renders holdings followed by the cash and grand total lines.
func PortfolioMarkdown(p *domain.Portfolio) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Portfolio\n\n")
	fmt.Fprintln(&b, "| Symbol | Name | Shares | Price | Total |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|")
	for _, h := range p.Holdings {
		fmt.Fprintf(&b, "| %s | %s | %d | %s | %s |\n",
			h.Symbol,
			escape(h.Name),
			h.Shares,
			USD(h.Price),
			USD(h.Value),
		)
	}
	fmt.Fprintf(&b, "| **Cash** | | | | %s |\n", USD(p.CashRemaining))
	fmt.Fprintf(&b, "| **Total** | | | | **%s** |\n", USD(p.GrandTotal))
	return b.String()
}

// HistoryMarkdown renders ledger rows in the order given.
func HistoryMarkdown(transactions []domain.Transaction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# History\n\n")
	if len(transactions) == 0 {
		fmt.Fprintln(&b, "_No transactions yet._")
		return b.String()
	}
	fmt.Fprintln(&b, "| Side | Symbol | Shares | Price | Transacted |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|:---|")
	for _, tx := range transactions {
		fmt.Fprintf(&b, "| %s | %s | %d | %s | %s |\n",
			tx.Side(),
			tx.Symbol,
			tx.Shares,
			USD(tx.PricePerShare),
			tx.CreatedAt.UTC().Format(time.DateTime),
		)
	}
	return b.String()
}

// QuoteMarkdown renders a single quote line.
func QuoteMarkdown(q *domain.Quote) string {
	line := fmt.Sprintf("A share of %s (%s) costs **%s**", escape(q.Name), q.Symbol, USD(q.Price))
	if !q.ChangePercent.IsZero() {
		line += fmt.Sprintf(" (%s)", Percent(q.ChangePercent))
	}
	if q.LatestTime != "" {
		line += fmt.Sprintf(", as of %s", q.LatestTime)
	}
	return line + ".\n"
}

// TradeMarkdown confirms an executed trade and the cash left afterwards.
func TradeMarkdown(tx *domain.Transaction, name string, cash decimal.Decimal) string {
	verb := "Bought"
	if tx.Side() == domain.SideSell {
		verb = "Sold"
	}
	shares := tx.Shares
	if shares < 0 {
		shares = -shares
	}
	label := tx.Symbol
	if name != "" {
		label = fmt.Sprintf("%s (%s)", escape(name), tx.Symbol)
	}
	return fmt.Sprintf("%s %d %s of %s at %s for %s. Cash: **%s**.\n",
		verb, shares, plural(shares, "share", "shares"), label,
		USD(tx.PricePerShare), USD(tx.Amount()), USD(cash))
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// escape keeps table cells intact.
func escape(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
