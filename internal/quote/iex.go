// internal/quote/iex.go
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/domain"
	"papertrade/internal/util"
)

// DefaultBaseURL is the IEX Cloud API root.
const DefaultBaseURL = "https://cloud.iexapis.com/stable"

// pricePlaces is the precision kept from the provider's float prices.
const pricePlaces = 4

// Client looks up quotes from an IEX Cloud compatible API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a quote client whose requests are bounded by timeout.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

type iexQuote struct {
	Symbol        string   `json:"symbol"`
	CompanyName   string   `json:"companyName"`
	LatestPrice   *float64 `json:"latestPrice"`
	Change        float64  `json:"change"`
	ChangePercent float64  `json:"changePercent"`
	LatestTime    string   `json:"latestTime"`
}

// Lookup fetches the current quote for symbol.
// Unknown symbols and quotes without a positive price fail with util.ErrInvalidSymbol;
// timeouts, network errors and unexpected responses fail with util.ErrQuoteUnavailable.
func (c *Client) Lookup(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, util.ErrInvalidSymbol
	}

	endpoint := fmt.Sprintf("%s/stock/%s/quote?token=%s", c.baseURL, url.PathEscape(symbol), url.QueryEscape(c.token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", symbol, util.ErrInvalidSymbol)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w: %w", symbol, util.ErrQuoteUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("lookup %s: %w", symbol, util.ErrInvalidSymbol)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("lookup %s: %w: provider returned %s", symbol, util.ErrQuoteUnavailable, resp.Status)
	}

	var payload iexQuote
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		// also covers a body cut short by the client timeout
		return nil, fmt.Errorf("lookup %s: %w: decode response: %w", symbol, util.ErrQuoteUnavailable, err)
	}
	if payload.LatestPrice == nil || *payload.LatestPrice <= 0 {
		return nil, fmt.Errorf("lookup %s: %w", symbol, util.ErrInvalidSymbol)
	}

	name := payload.CompanyName
	if name == "" {
		name = symbol
	}
	if payload.Symbol != "" {
		symbol = domain.NormalizeSymbol(payload.Symbol)
	}
	return &domain.Quote{
		Symbol:        symbol,
		Name:          name,
		Price:         decimal.NewFromFloat(*payload.LatestPrice).Round(pricePlaces),
		Change:        decimal.NewFromFloat(payload.Change).Round(pricePlaces),
		ChangePercent: decimal.NewFromFloat(payload.ChangePercent).Round(6),
		LatestTime:    payload.LatestTime,
	}, nil
}
