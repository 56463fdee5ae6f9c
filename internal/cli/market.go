// internal/cli/market.go
package cli

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"papertrade/internal/renderer"
)

type quoteCmd struct {
	env *Env
}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "look up the current price of a symbol" }
func (*quoteCmd) Usage() string {
	return `papertradectl quote <symbol>
`
}

func (*quoteCmd) SetFlags(*flag.FlagSet) {}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return c.env.usage("Error: quote takes exactly one symbol")
	}
	return c.env.run(ctx, func(b *Backend) (string, error) {
		q, err := b.Ledger.Quote(ctx, f.Arg(0))
		if err != nil {
			return "", err
		}
		return renderer.QuoteMarkdown(q), nil
	})
}

type screenCmd struct {
	env *Env
}

func (*screenCmd) Name() string     { return "screen" }
func (*screenCmd) Synopsis() string { return "rank the universe by high quality momentum" }
func (*screenCmd) Usage() string {
	return `papertradectl screen

  Fetches multi-horizon returns for the screener universe and prints the top ranked symbols.
`
}

func (*screenCmd) SetFlags(*flag.FlagSet) {}

func (c *screenCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.run(ctx, func(b *Backend) (string, error) {
		report, err := b.Screener.Run(ctx)
		if err != nil {
			return "", err
		}
		return renderer.ScreenerMarkdown(report), nil
	})
}
