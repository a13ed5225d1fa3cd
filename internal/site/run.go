package site

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/reportsite/internal/config"
	"git.home.luguber.info/inful/reportsite/internal/logfields"
	"git.home.luguber.info/inful/reportsite/internal/metrics"
)

// Run performs one build and writes its side outputs: the Prometheus
// textfile when metrics.textfile is set and the JSON build report when
// output.build_report is set. Side-output failures are logged, not returned.
func Run(ctx context.Context, cfg *config.Config) (*BuildReport, error) {
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var prom *metrics.PrometheusRecorder
	if cfg.Metrics.Textfile != "" {
		prom = metrics.NewPrometheusRecorder(nil)
		recorder = prom
	}

	rep, err := NewBuilder(cfg).WithRecorder(recorder).Build(ctx)
	rep.LogSummary()

	if prom != nil {
		if werr := prom.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			slog.Warn("Failed to write metrics textfile", logfields.Path(cfg.Metrics.Textfile), logfields.Error(werr))
		}
	}
	if cfg.Output.BuildReport != "" {
		if perr := rep.Persist(cfg.Output.BuildReport); perr != nil {
			slog.Warn("Failed to write build report", logfields.Path(cfg.Output.BuildReport), logfields.Error(perr))
		}
	}
	return rep, err
}
