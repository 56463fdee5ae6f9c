// internal/api/handler/respond.go
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"papertrade/internal/api/types"
	"papertrade/internal/util" // For custom errors
)

// DefaultTimeout bounds every request handled by the router.
const DefaultTimeout = 30 * time.Second

type userIDKey struct{}

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the authenticated user id set by the session middleware.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey{}).(int64)
	return userID, ok
}

// responder carries the JSON helpers shared by every handler.
type responder struct {
	logger *slog.Logger
}

// Helper function to send JSON responses.
func (h responder) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses.
func (h responder) respondWithError(w http.ResponseWriter, err error) {
	statusCode, message := StatusFor(err)
	if statusCode == http.StatusInternalServerError {
		h.logger.Error("Unhandled service error", "error", err)
	} else if statusCode == http.StatusServiceUnavailable {
		h.logger.Error("Store unavailable", "error", err)
	}
	h.respondWithJSON(w, statusCode, types.ErrorResponse{Error: message})
}

// StatusFor maps a service error to its HTTP status and user-facing message.
func StatusFor(err error) (int, string) {
	switch {
	case util.IsError(err, util.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "Service temporarily unavailable"
	case util.IsError(err, util.ErrInvalidInput),
		util.IsError(err, util.ErrPasswordMismatch),
		util.IsError(err, util.ErrInvalidQuantity):
		return http.StatusBadRequest, rootMessage(err)
	case util.IsError(err, util.ErrInvalidSymbol):
		return http.StatusBadRequest, util.ErrInvalidSymbol.Error()
	case util.IsError(err, util.ErrQuoteUnavailable):
		// same user-facing class as an invalid symbol
		return http.StatusBadRequest, util.ErrQuoteUnavailable.Error()
	case util.IsError(err, util.ErrInsufficientFunds):
		return http.StatusPaymentRequired, "Insufficient funds"
	case util.IsError(err, util.ErrInsufficientShares):
		return http.StatusConflict, "Not enough shares"
	case util.IsError(err, util.ErrDuplicateEntry):
		return http.StatusConflict, util.ErrDuplicateEntry.Error()
	case util.IsError(err, util.ErrNotFound), util.IsError(err, util.ErrUserNotFound):
		return http.StatusNotFound, "Resource not found"
	case util.IsError(err, util.ErrInvalidCredentials):
		return http.StatusForbidden, util.ErrInvalidCredentials.Error()
	case util.IsError(err, util.ErrUnauthorized):
		return http.StatusUnauthorized, util.ErrUnauthorized.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// rootMessage returns the sentinel text for the validation errors handlers produce directly.
func rootMessage(err error) string {
	for _, sentinel := range []error{util.ErrInvalidQuantity, util.ErrPasswordMismatch, util.ErrInvalidInput} {
		if util.IsError(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
