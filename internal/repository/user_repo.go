// internal/repository/user_repo.go
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"papertrade/internal/domain"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	// CreateUser adds a new user to the database using the provided DBExecutor.
	CreateUser(ctx context.Context, q DBExecutor, user *domain.User) error
	// GetUserByID retrieves a user by their ID using the provided DBExecutor.
	GetUserByID(ctx context.Context, q DBExecutor, id int64) (*domain.User, error)
	// GetUserByUsername retrieves a user by their username using the provided DBExecutor.
	GetUserByUsername(ctx context.Context, q DBExecutor, username string) (*domain.User, error)
	// GetUserForUpdate reads a user and locks the row until the surrounding transaction ends.
	GetUserForUpdate(ctx context.Context, q DBExecutor, id int64) (*domain.User, error)
	// SetCash overwrites the user's cash balance.
	SetCash(ctx context.Context, q DBExecutor, id int64, cash decimal.Decimal) error
	// UpdatePasswordHash replaces the user's password hash.
	UpdatePasswordHash(ctx context.Context, q DBExecutor, id int64, hash string) error
}
