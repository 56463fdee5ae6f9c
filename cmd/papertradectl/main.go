// cmd/papertradectl/main.go
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"papertrade/internal/cli"
)

func main() {
	// Keep structured logs out of the command output unless asked for.
	if _, ok := os.LookupEnv("LOG_LEVEL"); !ok {
		os.Setenv("LOG_LEVEL", "error")
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	env := &cli.Env{Stdout: os.Stdout, Stderr: os.Stderr, Open: cli.OpenApplication}
	flag.StringVar(&env.Style, "style", "", "glamour style (dark, light, notty); picked from the terminal when empty")
	flag.IntVar(&env.Width, "width", 100, "word wrap width of the rendered output")
	flag.BoolVar(&env.Raw, "raw", false, "print markdown without rendering it")
	cli.Register(commander, env)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
