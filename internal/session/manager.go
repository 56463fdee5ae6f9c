// internal/session/manager.go
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"papertrade/internal/util"
)

const issuer = "papertrade"

// Manager issues and verifies signed session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	store  Store
	now    func() time.Time
}

// NewManager creates a Manager signing HS256 tokens with secret.
func NewManager(secret string, ttl time.Duration, store Store) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		store:  store,
		now:    time.Now,
	}
}

// TTL is how long an issued token stays valid.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue creates a token for userID and registers its id in the store.
func (m *Manager) Issue(ctx context.Context, userID int64) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    issuer,
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("issue session: failed to sign token: %w", err)
	}
	if err := m.store.Put(ctx, claims.ID, userID, m.ttl); err != nil {
		return "", fmt.Errorf("issue session: failed to store session: %w", util.StoreUnavailable(err))
	}
	return signed, nil
}

// Verify checks the token and returns its user id.
func (m *Manager) Verify(ctx context.Context, token string) (int64, error) {
	claims, err := m.parse(token)
	if err != nil {
		return 0, err
	}

	live, err := m.store.Exists(ctx, claims.ID)
	if err != nil {
		return 0, fmt.Errorf("verify session: %w", util.StoreUnavailable(err))
	}
	if !live {
		return 0, fmt.Errorf("verify session: revoked: %w", util.ErrUnauthorized)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("verify session: bad subject: %w", util.ErrUnauthorized)
	}
	return userID, nil
}

// Revoke removes the token's session so later Verify calls fail.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	claims, err := m.parse(token)
	if err != nil {
		return err
	}
	if err := m.store.Delete(ctx, claims.ID); err != nil {
		return fmt.Errorf("revoke session: %w", util.StoreUnavailable(err))
	}
	return nil
}

func (m *Manager) parse(token string) (*jwt.RegisteredClaims, error) {
	if token == "" {
		return nil, util.ErrUnauthorized
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("session expired: %w", util.ErrUnauthorized)
		}
		return nil, fmt.Errorf("invalid session token: %w", util.ErrUnauthorized)
	}
	if !parsed.Valid || claims.ID == "" {
		return nil, util.ErrUnauthorized
	}
	return claims, nil
}
