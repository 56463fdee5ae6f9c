// internal/screener/rank.go
package screener

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Period is one return horizon used by the momentum score.
type Period struct {
	Name string
	Path string // JSONPath into a batch entry
}

// Periods lists the horizons in report column order.
var Periods = [4]Period{
	{Name: "Five-Year", Path: "$.stats.year5ChangePercent"},
	{Name: "Two-Year", Path: "$.stats.year2ChangePercent"},
	{Name: "One-Year", Path: "$.stats.year1ChangePercent"},
	{Name: "Six-Month", Path: "$.stats.month6ChangePercent"},
}

// Row is one ranked symbol.
type Row struct {
	Symbol       string          `json:"symbol"`
	Price        decimal.Decimal `json:"price"`
	Returns      [4]float64      `json:"returns"`     // indexed like Periods
	Percentiles  [4]float64      `json:"percentiles"` // 0..1
	QualityScore float64         `json:"quality_score"`
}

// Report is a finished screener run.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Universe    int       `json:"universe"`
	Rows        []Row     `json:"rows"`
}

// Rank scores rows, sorts them by quality score descending and keeps the first top.
func Rank(rows []Row, top int) []Row {
	ranked := make([]Row, len(rows))
	copy(ranked, rows)

	for p := range Periods {
		column := make([]float64, len(ranked))
		for i, r := range ranked {
			column[i] = r.Returns[p]
		}
		for i := range ranked {
			ranked[i].Percentiles[p] = PercentileOfScore(column, ranked[i].Returns[p]) / 100
		}
	}
	for i := range ranked {
		var sum float64
		for _, pct := range ranked[i].Percentiles {
			sum += pct
		}
		ranked[i].QualityScore = sum / float64(len(Periods))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].QualityScore != ranked[j].QualityScore {
			return ranked[i].QualityScore > ranked[j].QualityScore
		}
		return ranked[i].Symbol < ranked[j].Symbol
	})
	if top > 0 && len(ranked) > top {
		ranked = ranked[:top]
	}
	return ranked
}

// PercentileOfScore returns the percentile rank (0..100) of score within values.
// Ties take the average of the lowest and highest rank they span.
func PercentileOfScore(values []float64, score float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var below, atOrBelow int
	for _, v := range values {
		if v < score {
			below++
		}
		if v <= score {
			atOrBelow++
		}
	}
	plusOne := 0
	if below < atOrBelow {
		plusOne = 1
	}
	return float64(below+atOrBelow+plusOne) * 50 / float64(len(values))
}
