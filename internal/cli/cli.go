// Package cli implements the papertradectl operator commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/google/subcommands"

	app "papertrade/internal"
	"papertrade/internal/renderer"
	"papertrade/internal/screener"
	"papertrade/internal/service"
	"papertrade/internal/util"
)

// ScreenerRunner produces the momentum report.
type ScreenerRunner interface {
	Run(ctx context.Context) (*screener.Report, error)
}

// Backend is what the commands operate on.
type Backend struct {
	Driver   string
	Ledger   service.LedgerService
	Auth     service.AuthService
	Screener ScreenerRunner
}

// OpenFunc connects a Backend. The returned func releases it.
type OpenFunc func(ctx context.Context) (*Backend, func(context.Context) error, error)

// Env is shared by every command for one invocation.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer
	Style  string // glamour style, empty for auto
	Width  int
	Raw    bool // print markdown as is
	Open   OpenFunc
}

// Register the subcommands.
// A main package will call Register() and Execute() on the user-selected one.
func Register(c *subcommands.Commander, env *Env) {
	c.Register(&migrateCmd{env: env}, "admin")
	c.Register(&registerCmd{env: env}, "admin")

	c.Register(&quoteCmd{env: env}, "market")
	c.Register(&screenCmd{env: env}, "market")

	c.Register(&tradeCmd{env: env, side: sideBuy}, "ledger")
	c.Register(&tradeCmd{env: env, side: sideSell}, "ledger")
	c.Register(&portfolioCmd{env: env}, "ledger")
	c.Register(&historyCmd{env: env}, "ledger")
}

// OpenApplication initializes the full application from the environment.
func OpenApplication(ctx context.Context) (*Backend, func(context.Context) error, error) {
	a := app.NewApplication()
	if err := a.Initialize(ctx); err != nil {
		if a.DB != nil {
			_ = a.Shutdown(ctx)
		}
		return nil, nil, err
	}
	return &Backend{
		Driver:   a.Config.DB.Driver,
		Ledger:   a.LedgerService,
		Auth:     a.AuthService,
		Screener: a.Screener,
	}, a.Shutdown, nil
}

// run opens the backend, runs fn and reports its error.
func (e *Env) run(ctx context.Context, fn func(*Backend) (string, error)) subcommands.ExitStatus {
	b, closeFn, err := e.Open(ctx)
	if err != nil {
		fmt.Fprintf(e.Stderr, "Error opening papertrade: %v\n", err)
		return subcommands.ExitFailure
	}
	defer func() {
		if err := closeFn(ctx); err != nil {
			fmt.Fprintf(e.Stderr, "Error closing papertrade: %v\n", err)
		}
	}()

	md, err := fn(b)
	if err != nil {
		fmt.Fprintf(e.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	e.print(md)
	return subcommands.ExitSuccess
}

// print writes md rendered for the terminal, or raw when rendering fails.
func (e *Env) print(md string) {
	if e.Raw {
		fmt.Fprint(e.Stdout, md)
		return
	}
	out, err := renderer.Render(md, e.Style, e.Width)
	if err != nil {
		fmt.Fprint(e.Stdout, md)
		return
	}
	fmt.Fprint(e.Stdout, out)
}

func (e *Env) usage(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(e.Stderr, format+"\n", args...)
	return subcommands.ExitUsageError
}

// userID resolves a username to its account id.
func userID(ctx context.Context, b *Backend, username string) (int64, error) {
	user, err := b.Auth.GetUserByUsername(ctx, username)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) || util.IsError(err, util.ErrUserNotFound) {
			return 0, fmt.Errorf("no account named %q", username)
		}
		return 0, err
	}
	return user.ID, nil
}

// parseShares accepts a positive whole number of shares.
func parseShares(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, util.ErrInvalidQuantity
	}
	return n, nil
}
