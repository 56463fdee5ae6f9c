// internal/repository/sqlrepo/transaction_repo.go
package sqlrepo

import (
	"context"
	"fmt"

	"papertrade/internal/domain"
	"papertrade/internal/repository"
	"papertrade/internal/util"
)

// TransactionRepository implements repository.TransactionRepository for PostgreSQL and SQLite.
type TransactionRepository struct{}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository() repository.TransactionRepository {
	return &TransactionRepository{}
}

// CreateTransaction inserts a new ledger row using the provided DBExecutor.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	query := q.Rebind(`INSERT INTO transactions (user_id, symbol, shares, price_per_share, created_at)
              VALUES (?, ?, ?, ?, ?) RETURNING id`)

	err := q.QueryRowContext(ctx, query,
		transaction.UserID,
		transaction.Symbol,
		transaction.Shares,
		transaction.PricePerShare,
		transaction.CreatedAt,
	).Scan(&transaction.ID)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", util.StoreUnavailable(err))
	}
	return nil
}

// ListTransactionsByUser retrieves the full ledger of a user, oldest first.
func (r *TransactionRepository) ListTransactionsByUser(ctx context.Context, q repository.DBExecutor, userID int64) ([]domain.Transaction, error) {
	transactions := []domain.Transaction{}
	query := q.Rebind(`
		SELECT id, user_id, symbol, shares, price_per_share, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC`)
	if err := q.SelectContext(ctx, &transactions, query, userID); err != nil {
		return nil, fmt.Errorf("failed to fetch transactions for user %d: %w", userID, util.StoreUnavailable(err))
	}
	return transactions, nil
}

// SumShares returns the net share count of symbol for the user; zero when nothing was traded.
func (r *TransactionRepository) SumShares(ctx context.Context, q repository.DBExecutor, userID int64, symbol string) (int64, error) {
	var total int64
	query := q.Rebind(`SELECT COALESCE(SUM(shares), 0) FROM transactions WHERE user_id = ? AND symbol = ?`)
	if err := q.GetContext(ctx, &total, query, userID, symbol); err != nil {
		return 0, fmt.Errorf("failed to sum shares of %s for user %d: %w", symbol, userID, util.StoreUnavailable(err))
	}
	return total, nil
}
