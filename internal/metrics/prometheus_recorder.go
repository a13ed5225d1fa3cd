package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg            *prom.Registry
	stageDuration  *prom.HistogramVec
	buildDuration  prom.Histogram
	stageResults   *prom.CounterVec
	buildOutcome   *prom.CounterVec
	pagesRendered  *prom.CounterVec
	metadataFiles  prom.Counter
	reportDuration prom.Histogram
	workers        prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "reportsite",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "reportsite",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.ExponentialBuckets(0.5, 2, 12),
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "reportsite",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "reportsite",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		pagesRendered: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "reportsite",
			Name:      "pages_rendered_total",
			Help:      "HTML pages written by kind",
		}, []string{"kind"}),
		metadataFiles: prom.NewCounter(prom.CounterOpts{
			Namespace: "reportsite",
			Name:      "metadata_files_total",
			Help:      "Per-report JSON metadata files written",
		}),
		reportDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "reportsite",
			Name:      "report_generation_seconds",
			Help:      "Time to generate one report's page and metadata",
			Buckets:   prom.ExponentialBuckets(0.001, 2, 12),
		}),
		workers: prom.NewGauge(prom.GaugeOpts{
			Namespace: "reportsite",
			Name:      "report_workers",
			Help:      "Worker pool size of the last build",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
		pr.pagesRendered, pr.metadataFiles, pr.reportDuration, pr.workers)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncPagesRendered(kind PageKind) {
	p.pagesRendered.WithLabelValues(string(kind)).Inc()
}

func (p *PrometheusRecorder) IncMetadataWritten() { p.metadataFiles.Inc() }

func (p *PrometheusRecorder) ObserveReportDuration(d time.Duration) {
	p.reportDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetWorkers(n int) { p.workers.Set(float64(n)) }

// Registry exposes the registry the recorder registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

// WriteTextfile writes the recorder's registry to path in the text exposition
// format, creating the parent directory. The write is atomic.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
