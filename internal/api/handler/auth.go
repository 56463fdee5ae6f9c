// internal/api/handler/auth.go
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"papertrade/internal/api/types"
	"papertrade/internal/domain"
	"papertrade/internal/service"
	"papertrade/internal/util"
)

// SessionCookie is the cookie carrying the session token for browser clients.
const SessionCookie = "session"

// SessionManager issues, verifies and revokes session tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID int64) (string, error)
	Verify(ctx context.Context, token string) (int64, error)
	Revoke(ctx context.Context, token string) error
	TTL() time.Duration
}

// AuthHandler handles registration, login, logout and password changes.
type AuthHandler struct {
	responder
	service  service.AuthService
	sessions SessionManager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc service.AuthService, sessions SessionManager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		responder: responder{logger: logger},
		service:   svc,
		sessions:  sessions,
	}
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	Confirmation string `json:"confirmation"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePasswordRequest represents the request body for a password change.
type ChangePasswordRequest struct {
	OldPassword  string `json:"old_password"`
	NewPassword  string `json:"new_password"`
	Confirmation string `json:"confirmation"`
}

// Register handles account creation and logs the new user in.
// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	user, err := h.service.Register(r.Context(), req.Username, req.Password, req.Confirmation)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.logger.Info("user registered", "user_id", user.ID)
	h.startSession(w, r, http.StatusCreated, user)
}

// Login handles credential checks and issues a session.
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.startSession(w, r, http.StatusOK, user)
}

// Logout revokes the current session and clears the cookie.
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Revoke(r.Context(), TokenFromRequest(r)); err != nil {
		h.respondWithError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// ChangePassword handles the password change request.
// POST /password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.respondWithError(w, util.ErrUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	if err := h.service.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword, req.Confirmation); err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "Password changed"})
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, status int, user *domain.User) {
	token, err := h.sessions.Issue(r.Context(), user.ID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	expiresAt := time.Now().UTC().Add(h.sessions.TTL())

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.respondWithJSON(w, status, types.SessionResponse{
		UserID:    user.ID,
		Username:  user.Username,
		Cash:      user.Cash,
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// TokenFromRequest returns the bearer token, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}
