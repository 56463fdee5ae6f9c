// internal/api/handler/market.go
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"papertrade/internal/screener"
)

// ScreenerRunner produces the momentum report.
type ScreenerRunner interface {
	Run(ctx context.Context) (*screener.Report, error)
}

// MarketHandler serves market analysis that is independent of any user's ledger.
type MarketHandler struct {
	responder
	screener ScreenerRunner
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(runner ScreenerRunner, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{responder: responder{logger: logger}, screener: runner}
}

// Analysis returns the high quality momentum report.
// GET /analysis
func (h *MarketHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	report, err := h.screener.Run(r.Context())
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, report)
}
