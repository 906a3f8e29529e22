package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/askiada/go-grammarbot/cmd/grammarbot/commands"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := &commands.CLI{}
	kctx := kong.Parse(cli,
		kong.Name("grammarbot"),
		kong.Description("Check texts with the GrammarBot API and manage the CircleCI pipeline definition."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.Bind(&commands.Global{Out: os.Stdout, In: os.Stdin}),
	)

	err := kctx.Run(cli)
	if err != nil {
		slog.Error("Command failed", "command", kctx.Command(), "error", err)
		stop()
		os.Exit(1) //nolint:gocritic // stop is called above
	}
}
