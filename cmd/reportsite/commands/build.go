package commands

import (
	"log/slog"

	"git.home.luguber.info/inful/reportsite/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	BuildFlags
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := LoadConfig(root.Config, b.BuildFlags)
	if err != nil {
		return err
	}
	if cfg.Debug.Only != "" {
		slog.Info("Single-report mode", "only", cfg.Debug.Only, "skip_topics", cfg.Debug.SkipTopicPages())
	}
	_, err = site.Run(g.context(), cfg)
	return err
}
