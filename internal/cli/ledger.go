// internal/cli/ledger.go
package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"papertrade/internal/domain"
	"papertrade/internal/renderer"
)

const (
	sideBuy  = domain.SideBuy
	sideSell = domain.SideSell
)

// tradeCmd is registered twice, once per side.
type tradeCmd struct {
	env      *Env
	side     domain.Side
	username string
}

func (c *tradeCmd) Name() string {
	if c.side == sideSell {
		return "sell"
	}
	return "buy"
}

func (c *tradeCmd) Synopsis() string {
	if c.side == sideSell {
		return "sell shares of a symbol at the current price"
	}
	return "buy shares of a symbol at the current price"
}

func (c *tradeCmd) Usage() string {
	return fmt.Sprintf(`papertradectl %s -u <username> <symbol> <shares>
`, c.Name())
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "u", "", "Account to trade for")
}

func (c *tradeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.username == "" || f.NArg() != 2 {
		return c.env.usage("Usage: %s", c.Usage())
	}
	shares, err := parseShares(f.Arg(1))
	if err != nil {
		return c.env.usage("Error: %v", err)
	}

	return c.env.run(ctx, func(b *Backend) (string, error) {
		id, err := userID(ctx, b, c.username)
		if err != nil {
			return "", err
		}
		execute := b.Ledger.ExecuteBuy
		if c.side == sideSell {
			execute = b.Ledger.ExecuteSell
		}
		result, err := execute(ctx, id, f.Arg(0), shares)
		if err != nil {
			return "", err
		}
		return renderer.TradeMarkdown(result.Transaction, result.Quote.Name, result.Cash), nil
	})
}

type portfolioCmd struct {
	env      *Env
	username string
}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "show holdings valued at current prices" }
func (*portfolioCmd) Usage() string {
	return `papertradectl portfolio -u <username>
`
}

func (c *portfolioCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "u", "", "Account to report on")
}

func (c *portfolioCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.username == "" {
		return c.env.usage("Error: -u is required")
	}
	return c.env.run(ctx, func(b *Backend) (string, error) {
		id, err := userID(ctx, b, c.username)
		if err != nil {
			return "", err
		}
		p, err := b.Ledger.GetPortfolio(ctx, id)
		if err != nil {
			return "", err
		}
		return renderer.PortfolioMarkdown(p), nil
	})
}

type historyCmd struct {
	env      *Env
	username string
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list every transaction of an account" }
func (*historyCmd) Usage() string {
	return `papertradectl history -u <username>
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "u", "", "Account to report on")
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.username == "" {
		return c.env.usage("Error: -u is required")
	}
	return c.env.run(ctx, func(b *Backend) (string, error) {
		id, err := userID(ctx, b, c.username)
		if err != nil {
			return "", err
		}
		txs, err := b.Ledger.GetHistory(ctx, id)
		if err != nil {
			return "", err
		}
		return renderer.HistoryMarkdown(txs), nil
	})
}
