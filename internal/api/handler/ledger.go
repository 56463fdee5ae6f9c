// internal/api/handler/ledger.go
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"papertrade/internal/api/types"
	"papertrade/internal/service"
	"papertrade/internal/util"
)

// LedgerHandler handles HTTP requests for trading, portfolio and history.
type LedgerHandler struct {
	responder
	service service.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(svc service.LedgerService, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{
		responder: responder{logger: logger},
		service:   svc,
	}
}

// TradeRequest represents the request body for buy and sell.
type TradeRequest struct {
	Symbol string      `json:"symbol"`
	Shares json.Number `json:"shares"`
}

// Buy handles the buy shares request.
// POST /buy
func (h *LedgerHandler) Buy(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.service.ExecuteBuy)
}

// Sell handles the sell shares request.
// POST /sell
func (h *LedgerHandler) Sell(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.service.ExecuteSell)
}

type tradeFunc func(ctx context.Context, userID int64, symbol string, shares int64) (*service.TradeResult, error)

func (h *LedgerHandler) trade(w http.ResponseWriter, r *http.Request, execute tradeFunc) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.respondWithError(w, util.ErrUnauthorized)
		return
	}

	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}
	shares, err := req.Shares.Int64()
	if err != nil {
		h.respondWithError(w, util.ErrInvalidQuantity)
		return
	}

	result, err := execute(r.Context(), userID, req.Symbol, shares)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	tx := result.Transaction
	h.respondWithJSON(w, http.StatusOK, types.TradeResponse{
		TransactionID: tx.ID,
		Side:          tx.Side(),
		Symbol:        tx.Symbol,
		Name:          result.Quote.Name,
		Shares:        shares,
		Price:         tx.PricePerShare,
		Total:         tx.Amount(),
		Cash:          result.Cash,
		ExecutedAt:    tx.CreatedAt,
	})
}

// Portfolio handles the current holdings request.
// GET /portfolio
func (h *LedgerHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.respondWithError(w, util.ErrUnauthorized)
		return
	}

	portfolio, err := h.service.GetPortfolio(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, portfolio)
}

// History handles the transaction history request.
// GET /history
func (h *LedgerHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.respondWithError(w, util.ErrUnauthorized)
		return
	}

	transactions, err := h.service.GetHistory(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	entries := make([]types.HistoryEntry, 0, len(transactions))
	for _, tx := range transactions {
		entries = append(entries, types.NewHistoryEntry(tx))
	}
	h.respondWithJSON(w, http.StatusOK, types.ListResponse[types.HistoryEntry]{Data: entries, Count: len(entries)})
}

// Quote handles the symbol lookup request.
// GET /quote/{symbol}
func (h *LedgerHandler) Quote(w http.ResponseWriter, r *http.Request) {
	quote, err := h.service.Quote(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, quote)
}
