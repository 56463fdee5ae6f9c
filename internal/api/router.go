// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"papertrade/internal/api/handler"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Auth     *handler.AuthHandler
	Ledger   *handler.LedgerHandler
	Market   *handler.MarketHandler
	Sessions handler.SessionManager
}

// NewRouter sets up and returns a new HTTP router.
func NewRouter(h Handlers, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)                       // Add a request ID to the context
	r.Use(middleware.RealIP)                          // Use the real IP address
	r.Use(middleware.Logger)                          // Log HTTP requests
	r.Use(middleware.Recoverer)                       // Recover from panics and return 500
	r.Use(middleware.Timeout(handler.DefaultTimeout)) // Bound every request
	r.Use(handler.NoCache)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Post("/register", h.Auth.Register)
	r.Post("/login", h.Auth.Login)

	// Everything else needs a session
	r.Group(func(r chi.Router) {
		r.Use(handler.RequireSession(h.Sessions, logger))

		r.Post("/logout", h.Auth.Logout)
		r.Post("/password", h.Auth.ChangePassword)

		r.Get("/quote/{symbol}", h.Ledger.Quote)
		r.Post("/buy", h.Ledger.Buy)
		r.Post("/sell", h.Ledger.Sell)
		r.Get("/portfolio", h.Ledger.Portfolio)
		r.Get("/history", h.Ledger.History)

		r.Get("/analysis", h.Market.Analysis)
	})

	return r
}
