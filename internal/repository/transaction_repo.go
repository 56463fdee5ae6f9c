// internal/repository/transaction_repo.go
package repository

import (
	"context"

	"papertrade/internal/domain"
)

// TransactionRepository defines the interface for the append-only ledger.
// There is intentionally no update or delete.
type TransactionRepository interface {
	// CreateTransaction appends a ledger row using the provided DBExecutor.
	CreateTransaction(ctx context.Context, q DBExecutor, transaction *domain.Transaction) error
	// ListTransactionsByUser returns every row of the user ordered by creation time ascending.
	ListTransactionsByUser(ctx context.Context, q DBExecutor, userID int64) ([]domain.Transaction, error)
	// SumShares returns the user's net share count for symbol.
	SumShares(ctx context.Context, q DBExecutor, userID int64, symbol string) (int64, error)
}
