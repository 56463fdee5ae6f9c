// internal/service/auth_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"papertrade/internal/domain"
	"papertrade/internal/repository"
	"papertrade/internal/util"
	"papertrade/pkg/db"
)

// AuthService defines the interface for account registration and credential checks.
type AuthService interface {
	Register(ctx context.Context, username, password, confirmation string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword, confirmation string) error
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// authService implements the AuthService interface.
type authService struct {
	dbBeginner   db.DBTxBeginner
	dbExecutor   repository.DBExecutor
	userRepo     repository.UserRepository
	startingCash decimal.Decimal
	bcryptCost   int
	beginTx      db.BeginTxFunc
	commitTx     db.CommitTxFunc
	rollbackTx   db.RollbackTxFunc
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	userRepo repository.UserRepository,
	startingCash decimal.Decimal,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) AuthService {
	return &authService{
		dbBeginner:   dbBeginner,
		dbExecutor:   dbExecutor,
		userRepo:     userRepo,
		startingCash: startingCash,
		bcryptCost:   bcrypt.DefaultCost,
		beginTx:      beginTx,
		commitTx:     commitTx,
		rollbackTx:   rollbackTx,
	}
}

// Register creates a user with the starting cash balance.
func (s *authService) Register(ctx context.Context, username, password, confirmation string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || confirmation == "" {
		return nil, util.ErrInvalidInput
	}
	if password != confirmation {
		return nil, util.ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("register: failed to hash password: %w", err)
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("register: failed to begin transaction: %w", util.StoreUnavailable(err))
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("register: transaction controller does not implement DBExecutor")
	}

	_, err = s.userRepo.GetUserByUsername(ctx, txExecutor, username)
	if err == nil {
		return nil, util.ErrDuplicateEntry
	}
	if !errors.Is(err, util.ErrNotFound) {
		return nil, fmt.Errorf("register: failed to check existing user: %w", err)
	}

	user := domain.NewUser(username, string(hash), s.startingCash)
	if err := s.userRepo.CreateUser(ctx, txExecutor, user); err != nil {
		return nil, fmt.Errorf("register: failed to create user: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("register: failed to commit transaction: %w", util.StoreUnavailable(err))
	}
	return user, nil
}

// Authenticate returns the user whose password matches. Unknown users and wrong passwords look the same.
func (s *authService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, util.ErrInvalidInput
	}

	user, err := s.userRepo.GetUserByUsername(ctx, s.dbExecutor, username)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Hash), []byte(password)) != nil {
		return nil, util.ErrInvalidCredentials
	}
	return user, nil
}

// ChangePassword replaces the password after verifying the old one.
func (s *authService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword, confirmation string) error {
	if oldPassword == "" || newPassword == "" || confirmation == "" {
		return util.ErrInvalidInput
	}
	if newPassword != confirmation {
		return util.ErrPasswordMismatch
	}

	user, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, userID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return util.ErrUserNotFound
		}
		return fmt.Errorf("change password: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Hash), []byte(oldPassword)) != nil {
		return util.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("change password: failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePasswordHash(ctx, s.dbExecutor, userID, string(hash)); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// GetUserByUsername resolves a username for operator tooling.
func (s *authService) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, s.dbExecutor, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
