// internal/domain/user.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultStartingCash is the virtual cash every new account receives.
var DefaultStartingCash = decimal.RequireFromString("10000.00")

// User represents a registered trader and their virtual cash balance.
type User struct {
	ID        int64           `db:"id" json:"id"`
	Username  string          `db:"username" json:"username"`
	Hash      string          `db:"hash" json:"-"`    // bcrypt hash, never serialized
	Cash      decimal.Decimal `db:"cash" json:"cash"` // NUMERIC(20, 4) in PostgreSQL
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// NewUser creates a new User instance holding the given starting cash.
func NewUser(username, hash string, startingCash decimal.Decimal) *User {
	now := time.Now().UTC()
	return &User{
		Username:  username,
		Hash:      hash,
		Cash:      startingCash,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
