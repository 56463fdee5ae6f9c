// internal/service/ledger_sqlite_test.go
package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"papertrade/internal/domain"
	"papertrade/internal/repository/sqlrepo"
	"papertrade/internal/util"
	"papertrade/pkg/db"
)

// stubQuotes serves settable prices for a fixed set of symbols.
type stubQuotes struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
}

func newStubQuotes(prices map[string]string) *stubQuotes {
	s := &stubQuotes{prices: make(map[string]decimal.Decimal)}
	for symbol, price := range prices {
		s.prices[symbol] = decimal.RequireFromString(price)
	}
	return s
}

func (s *stubQuotes) set(symbol string, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[symbol] = price
}

func (s *stubQuotes) Lookup(_ context.Context, symbol string) (*domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	price, ok := s.prices[symbol]
	if !ok {
		return nil, util.ErrInvalidSymbol
	}
	return &domain.Quote{Symbol: symbol, Name: symbol + " Corp", Price: price}, nil
}

type sqliteLedger struct {
	conn   *sqlx.DB
	ledger LedgerService
	auth   AuthService
	quotes *stubQuotes
	users  atomic.Int64
}

func newSQLiteLedger(t *testing.T) *sqliteLedger {
	t.Helper()
	conn, err := db.Open(context.Background(), db.Config{
		Driver: db.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "ledger.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	quotes := newStubQuotes(map[string]string{"AAPL": "100", "MSFT": "300"})
	userRepo := sqlrepo.NewUserRepository()
	auth := NewAuthService(conn, conn, userRepo, domain.DefaultStartingCash, db.BeginTx, db.CommitTx, db.RollbackTx)
	auth.(*authService).bcryptCost = 4

	return &sqliteLedger{
		conn: conn,
		ledger: NewLedgerService(conn, conn, userRepo, sqlrepo.NewTransactionRepository(), quotes, nil, nil,
			db.BeginTx, db.CommitTx, db.RollbackTx),
		auth:   auth,
		quotes: quotes,
	}
}

func (l *sqliteLedger) newUser(t require.TestingT) int64 {
	name := fmt.Sprintf("trader%d", l.users.Add(1))
	user, err := l.auth.Register(context.Background(), name, "pw", "pw")
	require.NoError(t, err)
	return user.ID
}

func (l *sqliteLedger) state(t require.TestingT, userID int64, symbol string) (decimal.Decimal, int64) {
	ctx := context.Background()
	user, err := sqlrepo.NewUserRepository().GetUserByID(ctx, l.conn, userID)
	require.NoError(t, err)
	held, err := sqlrepo.NewTransactionRepository().SumShares(ctx, l.conn, userID, symbol)
	require.NoError(t, err)
	return user.Cash, held
}

func TestLedger_BuySellScenario(t *testing.T) {
	ctx := context.Background()
	l := newSQLiteLedger(t)
	userID := l.newUser(t)

	_, err := l.ledger.ExecuteBuy(ctx, userID, "AAPL", 10)
	require.NoError(t, err)
	l.quotes.set("AAPL", decimal.RequireFromString("120"))
	result, err := l.ledger.ExecuteSell(ctx, userID, "AAPL", 4)
	require.NoError(t, err)
	assert.Equal(t, "9480", result.Cash.String())

	portfolio, err := l.ledger.GetPortfolio(ctx, userID)
	require.NoError(t, err)
	require.Len(t, portfolio.Holdings, 1)
	assert.Equal(t, int64(6), portfolio.Holdings[0].Shares)
	assert.Equal(t, "720", portfolio.TotalValue.String())
	assert.Equal(t, "10200", portfolio.GrandTotal.String())

	history, err := l.ledger.GetHistory(ctx, userID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(10), history[0].Shares)
	assert.Equal(t, "100", history[0].PricePerShare.String())
	assert.Equal(t, int64(-4), history[1].Shares)
	assert.Equal(t, "120", history[1].PricePerShare.String())

	t.Run("FullSellDropsHoldingButKeepsHistory", func(t *testing.T) {
		_, err := l.ledger.ExecuteSell(ctx, userID, "AAPL", 6)
		require.NoError(t, err)

		portfolio, err := l.ledger.GetPortfolio(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, portfolio.Holdings)

		history, err := l.ledger.GetHistory(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, history, 3)
		assert.Equal(t, "AAPL", history[2].Symbol)
	})

	t.Run("FailedTradesLeaveStateUntouched", func(t *testing.T) {
		cash, held := l.state(t, userID, "AAPL")

		_, err := l.ledger.ExecuteSell(ctx, userID, "AAPL", 1)
		assert.ErrorIs(t, err, util.ErrInsufficientShares)
		_, err = l.ledger.ExecuteBuy(ctx, userID, "AAPL", 1_000_000)
		assert.ErrorIs(t, err, util.ErrInsufficientFunds)
		_, err = l.ledger.ExecuteBuy(ctx, userID, "NOPE", 1)
		assert.ErrorIs(t, err, util.ErrInvalidSymbol)

		afterCash, afterHeld := l.state(t, userID, "AAPL")
		assert.True(t, cash.Equal(afterCash))
		assert.Equal(t, held, afterHeld)
	})
}

// TestLedger_Properties runs random trade sequences against a model of cash and holdings.
func TestLedger_Properties(t *testing.T) {
	l := newSQLiteLedger(t)
	symbols := []string{"AAPL", "MSFT"}

	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		userID := l.newUser(rt)
		cash := domain.DefaultStartingCash
		holdings := map[string]int64{}
		succeeded := 0

		steps := rapid.IntRange(1, 12).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			symbol := rapid.SampledFrom(symbols).Draw(rt, "symbol")
			shares := rapid.Int64Range(-2, 40).Draw(rt, "shares")
			price := decimal.New(rapid.Int64Range(1, 100_000).Draw(rt, "cents"), -2)
			buy := rapid.Bool().Draw(rt, "buy")
			l.quotes.set(symbol, price)
			cost := price.Mul(decimal.NewFromInt(shares))

			var err error
			if buy {
				_, err = l.ledger.ExecuteBuy(ctx, userID, symbol, shares)
			} else {
				_, err = l.ledger.ExecuteSell(ctx, userID, symbol, shares)
			}

			switch {
			case shares <= 0:
				assert.ErrorIs(rt, err, util.ErrInvalidQuantity)
			case buy && cost.GreaterThan(cash):
				assert.ErrorIs(rt, err, util.ErrInsufficientFunds)
			case !buy && holdings[symbol] < shares:
				assert.ErrorIs(rt, err, util.ErrInsufficientShares)
			case buy:
				require.NoError(rt, err)
				cash = cash.Sub(cost)
				holdings[symbol] += shares
				succeeded++
			default:
				require.NoError(rt, err)
				cash = cash.Add(cost)
				holdings[symbol] -= shares
				succeeded++
			}

			gotCash, gotHeld := l.state(rt, userID, symbol)
			if !gotCash.Equal(cash) {
				rt.Fatalf("cash = %s, want %s", gotCash, cash)
			}
			if gotHeld != holdings[symbol] {
				rt.Fatalf("holding %s = %d, want %d", symbol, gotHeld, holdings[symbol])
			}
			if gotCash.IsNegative() || gotHeld < 0 {
				rt.Fatalf("negative state: cash %s, %s %d", gotCash, symbol, gotHeld)
			}
		}

		history, err := l.ledger.GetHistory(ctx, userID)
		require.NoError(rt, err)
		require.Len(rt, history, succeeded)
		for i := 1; i < len(history); i++ {
			if history[i].CreatedAt.Before(history[i-1].CreatedAt) {
				rt.Fatalf("history out of order at %d", i)
			}
		}

		portfolio, err := l.ledger.GetPortfolio(ctx, userID)
		require.NoError(rt, err)
		for _, h := range portfolio.Holdings {
			assert.Positive(rt, h.Shares)
			assert.Equal(rt, holdings[h.Symbol], h.Shares)
		}
		assert.True(rt, portfolio.CashRemaining.Equal(cash))
	})
}

func TestLedger_ConcurrentTradesNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	l := newSQLiteLedger(t)
	l.quotes.set("AAPL", decimal.RequireFromString("1000"))
	userID := l.newUser(t)

	const attempts = 20
	var wg sync.WaitGroup
	var bought, rejected atomic.Int64
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.ledger.ExecuteBuy(ctx, userID, "AAPL", 1)
			switch {
			case err == nil:
				bought.Add(1)
			case util.IsError(err, util.ErrInsufficientFunds):
				rejected.Add(1)
			default:
				t.Errorf("unexpected buy error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), bought.Load())
	assert.Equal(t, int64(attempts-10), rejected.Load())
	cash, held := l.state(t, userID, "AAPL")
	assert.True(t, cash.IsZero(), "cash = %s", cash)
	assert.Equal(t, int64(10), held)

	var sold atomic.Int64
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.ledger.ExecuteSell(ctx, userID, "AAPL", 1); err == nil {
				sold.Add(1)
			} else if !util.IsError(err, util.ErrInsufficientShares) {
				t.Errorf("unexpected sell error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(10), sold.Load())
	cash, held = l.state(t, userID, "AAPL")
	assert.True(t, domain.DefaultStartingCash.Equal(cash))
	assert.Equal(t, int64(0), held)
}
