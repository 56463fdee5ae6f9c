// internal/repository/sqlrepo/user_repo.go
package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"papertrade/internal/domain"
	"papertrade/internal/repository"
	"papertrade/internal/util"
	"papertrade/pkg/db"
)

const userColumns = `id, username, hash, cash, created_at, updated_at`

// UserRepository implements repository.UserRepository for PostgreSQL and SQLite.
type UserRepository struct{}

// NewUserRepository creates a new UserRepository.
// Methods receive the DBExecutor so they can run inside a caller's transaction.
func NewUserRepository() repository.UserRepository {
	return &UserRepository{}
}

// CreateUser inserts a new user into the database using the provided DBExecutor.
func (r *UserRepository) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	query := q.Rebind(`INSERT INTO users (username, hash, cash, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?) RETURNING id`)
	err := q.QueryRowContext(ctx, query, user.Username, user.Hash, user.Cash, user.CreatedAt, user.UpdatedAt).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return util.ErrDuplicateEntry
		}
		return fmt.Errorf("failed to create user: %w", util.StoreUnavailable(err))
	}
	return nil
}

// GetUserByID retrieves a user by their ID using the provided DBExecutor.
func (r *UserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.User, error) {
	var user domain.User
	query := q.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	if err := q.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID %d: %w", id, util.StoreUnavailable(err))
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by their username using the provided DBExecutor.
func (r *UserRepository) GetUserByUsername(ctx context.Context, q repository.DBExecutor, username string) (*domain.User, error) {
	var user domain.User
	query := q.Rebind(`SELECT ` + userColumns + ` FROM users WHERE username = ?`)
	if err := q.GetContext(ctx, &user, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by username '%s': %w", username, util.StoreUnavailable(err))
	}
	return &user, nil
}

// GetUserForUpdate reads the user row with a row lock on PostgreSQL.
// SQLite has no row locks; its connections begin immediate transactions instead, which hold the database write lock.
func (r *UserRepository) GetUserForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.User, error) {
	var user domain.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	if q.DriverName() == db.DriverPostgres {
		query += ` FOR UPDATE`
	}
	if err := q.GetContext(ctx, &user, q.Rebind(query), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock user %d: %w", id, util.StoreUnavailable(err))
	}
	return &user, nil
}

// SetCash overwrites the cash balance of a user using the provided DBExecutor.
func (r *UserRepository) SetCash(ctx context.Context, q repository.DBExecutor, id int64, cash decimal.Decimal) error {
	query := q.Rebind(`UPDATE users SET cash = ?, updated_at = ? WHERE id = ?`)
	return r.exec(ctx, q, query, "cash", id, cash, time.Now().UTC(), id)
}

// UpdatePasswordHash replaces the password hash of a user using the provided DBExecutor.
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, q repository.DBExecutor, id int64, hash string) error {
	query := q.Rebind(`UPDATE users SET hash = ?, updated_at = ? WHERE id = ?`)
	return r.exec(ctx, q, query, "password hash", id, hash, time.Now().UTC(), id)
}

func (r *UserRepository) exec(ctx context.Context, q repository.DBExecutor, query, what string, id int64, args ...interface{}) error {
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s for user %d: %w", what, id, util.StoreUnavailable(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after updating %s for user %d: %w", what, id, util.StoreUnavailable(err))
	}
	if rowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}

// isUniqueViolation recognizes duplicate key errors from both drivers without importing their error types.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}
