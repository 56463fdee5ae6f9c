// internal/util/errors.go
package util

import (
	"errors"
	"fmt"
)

// Common application-specific errors.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input provided")
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEntry     = errors.New("username already in use")
	ErrInvalidCredentials = errors.New("invalid username and/or password")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrUnauthorized       = errors.New("authentication required")

	// Ledger errors.
	ErrInvalidSymbol      = errors.New("invalid stock symbol")
	ErrInvalidQuantity    = errors.New("shares must be a positive integer")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("not enough shares to sell")
	ErrQuoteUnavailable   = errors.New("quote unavailable")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// IsError reports whether any error in err's chain matches target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}

// StoreUnavailable marks err as a persistence failure while keeping the original cause in the chain.
func StoreUnavailable(err error) error {
	if err == nil || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
