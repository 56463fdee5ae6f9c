// internal/api/handler/middleware.go
package handler

import (
	"log/slog"
	"net/http"

	"papertrade/internal/util"
)

// RequireSession rejects requests without a valid session and stores the user id in the request context.
func RequireSession(sessions SessionManager, logger *slog.Logger) func(http.Handler) http.Handler {
	resp := responder{logger: logger}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				resp.respondWithError(w, util.ErrUnauthorized)
				return
			}
			userID, err := sessions.Verify(r.Context(), token)
			if err != nil {
				resp.respondWithError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// NoCache stops browsers and proxies from caching responses, which all carry account state.
func NoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Expires", "0")
		w.Header().Set("Pragma", "no-cache")
		next.ServeHTTP(w, r)
	})
}
