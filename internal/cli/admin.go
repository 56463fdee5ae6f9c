// internal/cli/admin.go
package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"papertrade/internal/renderer"
)

// migrateCmd applies the schema by opening the database.
type migrateCmd struct {
	env *Env
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "create the ledger tables if they are missing" }
func (*migrateCmd) Usage() string {
	return `papertradectl migrate

  Connects to the configured database and applies the schema.
`
}

func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (c *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.run(ctx, func(b *Backend) (string, error) {
		return fmt.Sprintf("Schema is up to date on **%s**.\n", b.Driver), nil
	})
}

// registerCmd creates an account.
type registerCmd struct {
	env      *Env
	username string
	password string
}

func (*registerCmd) Name() string     { return "register" }
func (*registerCmd) Synopsis() string { return "create a trading account" }
func (*registerCmd) Usage() string {
	return `papertradectl register -u <username> -p <password>

  Creates an account funded with the configured starting cash.
`
}

func (c *registerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "u", "", "Username of the new account")
	f.StringVar(&c.password, "p", "", "Password of the new account")
}

func (c *registerCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.username == "" || c.password == "" {
		return c.env.usage("Error: -u and -p are required")
	}
	return c.env.run(ctx, func(b *Backend) (string, error) {
		user, err := b.Auth.Register(ctx, c.username, c.password, c.password)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Registered **%s** (id %d) with %s.\n", user.Username, user.ID, renderer.USD(user.Cash)), nil
	})
}
