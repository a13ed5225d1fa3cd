package commands

import (
	"context"
	"time"

	"git.home.luguber.info/inful/reportsite/internal/site"
	"git.home.luguber.info/inful/reportsite/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	BuildFlags
	Debounce time.Duration `help:"Quiet period before a rebuild" default:"300ms"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := LoadConfig(root.Config, w.BuildFlags)
	if err != nil {
		return err
	}
	build := func(ctx context.Context) error {
		_, err := site.Run(ctx, cfg)
		return err
	}
	return watch.New(build,
		cfg.Paths.Reports,
		cfg.Paths.HTML,
		cfg.Paths.Templates,
		cfg.Paths.Pages,
		cfg.Paths.Static,
	).WithDebounce(w.Debounce).Exclude(cfg.Paths.Build).Run(g.context())
}
