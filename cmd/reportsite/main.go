package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/reportsite/cmd/reportsite/commands"
	berrors "git.home.luguber.info/inful/reportsite/internal/errors"
	"git.home.luguber.info/inful/reportsite/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("reportsite"),
		kong.Description("Build the static report archive site."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := parser.Run(&commands.Global{Ctx: ctx, Out: os.Stdout}, cli)
	stop()

	berrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
