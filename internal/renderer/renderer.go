// internal/renderer/renderer.go
package renderer

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"
)

// USD formats an amount as US dollars, rounded to cents.
func USD(amount decimal.Decimal) string {
	// to get a never nil currency I need to call the Money constructor
	cur := *money.New(0, money.USD).Currency()
	cents := amount.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(cents.IntPart())
}

// Percent formats a fraction (0.0123) as a signed percentage (+1.23%).
func Percent(fraction decimal.Decimal) string {
	pct := fraction.Shift(2).Round(2)
	if pct.IsPositive() {
		return "+" + pct.StringFixed(2) + "%"
	}
	return pct.StringFixed(2) + "%"
}

// Render turns markdown into styled terminal output.
// An empty style is chosen from the terminal background.
func Render(md, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("renderer: %w", err)
	}
	return out, nil
}
