// internal/screener/screener.go
package screener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"papertrade/internal/util"
)

const (
	// DefaultBatchSize is the most symbols the batch endpoint accepts per call.
	DefaultBatchSize = 100
	// DefaultTop is how many ranked rows a report keeps.
	DefaultTop = 50

	maxConcurrentBatches = 4
	reportCacheKey       = "hqm"
)

// Config configures a Screener.
type Config struct {
	BaseURL   string
	Token     string
	BatchSize int
	Top       int
	Timeout   time.Duration
}

// Screener ranks a symbol universe by high quality momentum.
type Screener struct {
	cfg        Config
	httpClient *http.Client
	universe   []string
	cache      *Cache
	logger     *slog.Logger
}

// New creates a Screener over universe. cache may be nil to disable report caching.
func New(cfg Config, universe []string, cache *Cache, logger *slog.Logger) *Screener {
	if cfg.BatchSize <= 0 || cfg.BatchSize > DefaultBatchSize {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Top <= 0 {
		cfg.Top = DefaultTop
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if logger == nil {
		logger = slog.Default()
	}
	return &Screener{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		universe:   universe,
		cache:      cache,
		logger:     logger,
	}
}

// Run returns the current report, from cache when a fresh one exists.
func (s *Screener) Run(ctx context.Context) (*Report, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(reportCacheKey); ok {
			if report, ok := cached.(*Report); ok {
				return report, nil
			}
		}
	}

	rows, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	report := &Report{
		GeneratedAt: time.Now().UTC(),
		Universe:    len(s.universe),
		Rows:        Rank(rows, s.cfg.Top),
	}
	s.logger.Info("screener report built", "universe", report.Universe, "complete_rows", len(rows), "kept", len(report.Rows))

	if s.cache != nil {
		s.cache.Set(reportCacheKey, report)
	}
	return report, nil
}

// fetch downloads every batch concurrently and returns the rows that have all values.
func (s *Screener) fetch(ctx context.Context) ([]Row, error) {
	batches := chunk(s.universe, s.cfg.BatchSize)
	results := make([][]Row, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBatches)
	for i, batch := range batches {
		g.Go(func() error {
			rows, err := s.fetchBatch(gctx, batch)
			if err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var rows []Row
	for _, batchRows := range results {
		rows = append(rows, batchRows...)
	}
	return rows, nil
}

func (s *Screener) fetchBatch(ctx context.Context, symbols []string) ([]Row, error) {
	query := url.Values{}
	query.Set("types", "stats,quote")
	query.Set("symbols", strings.Join(symbols, ","))
	query.Set("token", s.cfg.Token)
	endpoint := s.cfg.BaseURL + "/stock/market/batch?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("screener: build request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("screener: %w: %w", util.ErrQuoteUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("screener: %w: batch endpoint returned %s", util.ErrQuoteUnavailable, resp.Status)
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("screener: %w: malformed batch response: %w", util.ErrQuoteUnavailable, err)
	}

	rows := make([]Row, 0, len(symbols))
	for _, symbol := range symbols {
		row, ok := extractRow(symbol, payload[symbol])
		if !ok {
			s.logger.Debug("screener dropped incomplete symbol", "symbol", symbol)
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// extractRow reads the price and the four period returns of one symbol's batch entry.
func extractRow(symbol string, entry any) (Row, bool) {
	if entry == nil {
		return Row{}, false
	}
	price, ok := number(entry, "$.quote.latestPrice")
	if !ok {
		return Row{}, false
	}

	row := Row{Symbol: symbol, Price: decimal.NewFromFloat(price).Round(4)}
	for i, p := range Periods {
		r, ok := number(entry, p.Path)
		if !ok {
			return Row{}, false
		}
		row.Returns[i] = r
	}
	return row, true
}

func number(entry any, path string) (float64, bool) {
	v, err := jsonpath.Get(path, entry)
	if err != nil {
		return 0, false
	}
	// jsonpath may wrap a single match in a list
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return 0, false
		}
		v = list[0]
	}
	f, ok := v.(float64)
	return f, ok
}

func chunk(symbols []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(symbols); start += size {
		end := min(start+size, len(symbols))
		out = append(out, symbols[start:end])
	}
	return out
}
