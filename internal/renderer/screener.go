// internal/renderer/screener.go
package renderer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/screener"
)

// ScreenerMarkdown renders the momentum report, one row per ranked symbol.
func ScreenerMarkdown(r *screener.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# High Quality Momentum\n\n")
	fmt.Fprintf(&b, "Top %d of %d symbols, generated %s.\n\n", len(r.Rows), r.Universe, r.GeneratedAt.UTC().Format(time.DateTime))

	fmt.Fprint(&b, "| # | Symbol | Price |")
	for _, p := range screener.Periods {
		fmt.Fprintf(&b, " %s |", p.Name)
	}
	fmt.Fprintln(&b, " HQM Score |")
	fmt.Fprint(&b, "|---:|:---|---:|")
	for range screener.Periods {
		fmt.Fprint(&b, "---:|")
	}
	fmt.Fprintln(&b, "---:|")

	for i, row := range r.Rows {
		fmt.Fprintf(&b, "| %d | %s | %s |", i+1, row.Symbol, USD(row.Price))
		for p := range screener.Periods {
			fmt.Fprintf(&b, " %s (p%s) |",
				Percent(decimal.NewFromFloat(row.Returns[p])),
				decimal.NewFromFloat(row.Percentiles[p]*100).StringFixed(0))
		}
		fmt.Fprintf(&b, " %s |\n", decimal.NewFromFloat(row.QualityScore*100).StringFixed(1))
	}
	return b.String()
}
