package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFatal   ResultLabel = "fatal"
	ResultSkipped ResultLabel = "skipped"
)

// BuildOutcomeLabel is the final state of a build.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess BuildOutcomeLabel = "success"
	BuildOutcomeFailed  BuildOutcomeLabel = "failed"
)

// PageKind labels generated pages.
type PageKind string

const (
	PageTop    PageKind = "top"
	PageTopic  PageKind = "topic"
	PageReport PageKind = "report"
)

// Recorder defines observability hooks for build and stage metrics.
// Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	IncPagesRendered(kind PageKind)
	IncMetadataWritten()
	ObserveReportDuration(d time.Duration)
	SetWorkers(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)          {}
func (NoopRecorder) IncPagesRendered(PageKind)                  {}
func (NoopRecorder) IncMetadataWritten()                        {}
func (NoopRecorder) ObserveReportDuration(time.Duration)        {}
func (NoopRecorder) SetWorkers(int)                             {}
