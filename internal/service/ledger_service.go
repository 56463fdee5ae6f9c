// internal/service/ledger_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"papertrade/internal/domain"
	"papertrade/internal/events"
	"papertrade/internal/repository"
	"papertrade/internal/util"
	"papertrade/pkg/db"
)

// maxConcurrentQuotes bounds the quote lookups GetPortfolio runs at once.
const maxConcurrentQuotes = 8

// QuoteProvider resolves a symbol to its current quote.
type QuoteProvider interface {
	Lookup(ctx context.Context, symbol string) (*domain.Quote, error)
}

// TradeResult is what a successful buy or sell returns.
type TradeResult struct {
	Transaction *domain.Transaction
	Quote       *domain.Quote
	Cash        decimal.Decimal // balance after the trade
}

// LedgerService defines the interface for trading and portfolio logic.
type LedgerService interface {
	ExecuteBuy(ctx context.Context, userID int64, symbol string, shares int64) (*TradeResult, error)
	ExecuteSell(ctx context.Context, userID int64, symbol string, shares int64) (*TradeResult, error)
	GetPortfolio(ctx context.Context, userID int64) (*domain.Portfolio, error)
	GetHistory(ctx context.Context, userID int64) ([]domain.Transaction, error)
	Quote(ctx context.Context, symbol string) (*domain.Quote, error)
}

// ledgerService implements the LedgerService interface.
type ledgerService struct {
	dbBeginner      db.DBTxBeginner       // For starting transactions (e.g., *sqlx.DB)
	dbExecutor      repository.DBExecutor // For non-transactional reads (e.g., *sqlx.DB)
	userRepo        repository.UserRepository
	transactionRepo repository.TransactionRepository
	quotes          QuoteProvider
	publisher       events.Publisher
	logger          *slog.Logger
	beginTx         db.BeginTxFunc
	commitTx        db.CommitTxFunc
	rollbackTx      db.RollbackTxFunc
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	userRepo repository.UserRepository,
	transactionRepo repository.TransactionRepository,
	quotes QuoteProvider,
	publisher events.Publisher,
	logger *slog.Logger,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) LedgerService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ledgerService{
		dbBeginner:      dbBeginner,
		dbExecutor:      dbExecutor,
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		quotes:          quotes,
		publisher:       publisher,
		logger:          logger,
		beginTx:         beginTx,
		commitTx:        commitTx,
		rollbackTx:      rollbackTx,
	}
}

// ExecuteBuy debits shares × price from the user's cash and appends a positive ledger row.
// The price comes from a fresh lookup made before the database transaction opens.
func (s *ledgerService) ExecuteBuy(ctx context.Context, userID int64, symbol string, shares int64) (*TradeResult, error) {
	quote, err := s.priceTrade(ctx, symbol, shares)
	if err != nil {
		return nil, fmt.Errorf("buy: %w", err)
	}
	cost := quote.Cost(shares)

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("buy: failed to begin transaction: %w", util.StoreUnavailable(err))
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("buy: transaction controller does not implement DBExecutor")
	}

	user, err := s.lockUser(ctx, txExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("buy: %w", err)
	}
	if user.Cash.LessThan(cost) {
		return nil, util.ErrInsufficientFunds
	}

	newCash := user.Cash.Sub(cost)
	if err := s.userRepo.SetCash(ctx, txExecutor, userID, newCash); err != nil {
		return nil, fmt.Errorf("buy: failed to debit cash: %w", err)
	}

	transaction := domain.NewBuy(userID, quote.Symbol, shares, quote.Price)
	if err := s.transactionRepo.CreateTransaction(ctx, txExecutor, transaction); err != nil {
		return nil, fmt.Errorf("buy: failed to create transaction: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("buy: failed to commit transaction: %w", util.StoreUnavailable(err))
	}

	s.afterTrade(ctx, transaction, newCash)
	return &TradeResult{Transaction: transaction, Quote: quote, Cash: newCash}, nil
}

// ExecuteSell credits shares × price to the user's cash and appends a negative ledger row.
func (s *ledgerService) ExecuteSell(ctx context.Context, userID int64, symbol string, shares int64) (*TradeResult, error) {
	quote, err := s.priceTrade(ctx, symbol, shares)
	if err != nil {
		return nil, fmt.Errorf("sell: %w", err)
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("sell: failed to begin transaction: %w", util.StoreUnavailable(err))
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("sell: transaction controller does not implement DBExecutor")
	}

	// The user row lock also serializes concurrent sells of the same holding.
	user, err := s.lockUser(ctx, txExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("sell: %w", err)
	}

	held, err := s.transactionRepo.SumShares(ctx, txExecutor, userID, quote.Symbol)
	if err != nil {
		return nil, fmt.Errorf("sell: failed to read holding of %s: %w", quote.Symbol, err)
	}
	if held < shares {
		return nil, util.ErrInsufficientShares
	}

	newCash := user.Cash.Add(quote.Cost(shares))
	if err := s.userRepo.SetCash(ctx, txExecutor, userID, newCash); err != nil {
		return nil, fmt.Errorf("sell: failed to credit cash: %w", err)
	}

	transaction := domain.NewSell(userID, quote.Symbol, shares, quote.Price)
	if err := s.transactionRepo.CreateTransaction(ctx, txExecutor, transaction); err != nil {
		return nil, fmt.Errorf("sell: failed to create transaction: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("sell: failed to commit transaction: %w", util.StoreUnavailable(err))
	}

	s.afterTrade(ctx, transaction, newCash)
	return &TradeResult{Transaction: transaction, Quote: quote, Cash: newCash}, nil
}

// GetPortfolio values the user's current holdings at live prices.
func (s *ledgerService) GetPortfolio(ctx context.Context, userID int64) (*domain.Portfolio, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("portfolio: %w", err)
	}

	transactions, err := s.transactionRepo.ListTransactionsByUser(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("portfolio: failed to read ledger: %w", err)
	}
	positions := domain.DeriveHoldings(transactions)

	fetched := make([]*domain.Quote, len(positions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentQuotes)
	for i, pos := range positions {
		g.Go(func() error {
			q, err := s.quotes.Lookup(gctx, pos.Symbol)
			if err != nil {
				if util.IsError(err, util.ErrQuoteUnavailable) {
					return err
				}
				return fmt.Errorf("%w for held symbol %s: %w", util.ErrQuoteUnavailable, pos.Symbol, err)
			}
			fetched[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("portfolio: %w", err)
	}

	quotes := make(map[string]domain.Quote, len(positions))
	for i, pos := range positions {
		quotes[pos.Symbol] = *fetched[i]
	}
	return domain.NewPortfolio(positions, quotes, user.Cash), nil
}

// GetHistory returns every ledger row of the user, oldest first.
func (s *ledgerService) GetHistory(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	if _, err := s.getUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	transactions, err := s.transactionRepo.ListTransactionsByUser(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("history: failed to retrieve transactions: %w", err)
	}
	return transactions, nil
}

// Quote looks up the current quote for symbol.
func (s *ledgerService) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, util.ErrInvalidSymbol
	}
	q, err := s.quotes.Lookup(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("quote: %w", err)
	}
	return q, nil
}

// priceTrade validates trade input and looks up the execution price.
func (s *ledgerService) priceTrade(ctx context.Context, symbol string, shares int64) (*domain.Quote, error) {
	if shares <= 0 {
		return nil, util.ErrInvalidQuantity
	}
	return s.Quote(ctx, symbol)
}

func (s *ledgerService) lockUser(ctx context.Context, q repository.DBExecutor, userID int64) (*domain.User, error) {
	user, err := s.userRepo.GetUserForUpdate(ctx, q, userID)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to lock user %d: %w", userID, err)
	}
	return user, nil
}

func (s *ledgerService) getUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, userID)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return user, nil
}

// afterTrade logs the committed trade and publishes its event. Publishing never fails the trade.
func (s *ledgerService) afterTrade(ctx context.Context, transaction *domain.Transaction, cash decimal.Decimal) {
	s.logger.Info("trade executed",
		"user_id", transaction.UserID,
		"transaction_id", transaction.ID,
		"side", transaction.Side(),
		"symbol", transaction.Symbol,
		"shares", transaction.Shares,
		"price", transaction.PricePerShare.String(),
		"cash", cash.String(),
	)

	event := events.NewTradeEvent(transaction)
	if err := s.publisher.PublishTrade(ctx, event); err != nil {
		s.logger.Warn("failed to publish trade event", "event_id", event.ID, "error", err)
	}
}
