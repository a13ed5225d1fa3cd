package site

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	berrors "git.home.luguber.info/inful/reportsite/internal/errors"
	"git.home.luguber.info/inful/reportsite/internal/logfields"
	"git.home.luguber.info/inful/reportsite/internal/metrics"
	"git.home.luguber.info/inful/reportsite/internal/version"
)

// BuildReport captures what a single build did and how long each stage took.
type BuildReport struct {
	SchemaVersion    int
	BuildID          string
	Start            time.Time
	End              time.Time
	Outcome          metrics.BuildOutcomeLabel
	Reports          int // loaded
	Topics           int
	TopPages         int
	TopicPages       int
	ReportPages      int // detail pages written by the fan-out
	Assets           int
	FilesLinkCreated bool
	Only             string
	StageDurations   map[StageName]time.Duration
	Errors           []error
}

func newBuildReport() *BuildReport {
	return &BuildReport{
		SchemaVersion:  1,
		BuildID:        uuid.NewString(),
		Start:          time.Now(),
		StageDurations: make(map[StageName]time.Duration),
	}
}

// finish stamps the end time and derives the outcome from recorded errors.
func (r *BuildReport) finish() {
	r.End = time.Now()
	if len(r.Errors) > 0 {
		r.Outcome = metrics.BuildOutcomeFailed
		return
	}
	r.Outcome = metrics.BuildOutcomeSuccess
}

// Duration is the wall time of the build.
func (r *BuildReport) Duration() time.Duration { return r.End.Sub(r.Start) }

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	return fmt.Sprintf("reports=%d topics=%d pages=%d topic_pages=%d report_pages=%d assets=%d duration=%s errors=%d outcome=%s",
		r.Reports, r.Topics, r.TopPages, r.TopicPages, r.ReportPages, r.Assets,
		r.Duration().Truncate(time.Millisecond), len(r.Errors), r.Outcome)
}

// LogSummary emits the summary at info level, or error level on failure.
func (r *BuildReport) LogSummary() {
	attrs := []any{
		logfields.BuildID(r.BuildID),
		logfields.Duration(r.Duration()),
		slog.Int("reports", r.Reports),
		slog.Int("report_pages", r.ReportPages),
		slog.Int("topic_pages", r.TopicPages),
	}
	if r.Outcome == metrics.BuildOutcomeFailed {
		slog.Error("Build failed", append(attrs, slog.Int("errors", len(r.Errors)))...)
		return
	}
	slog.Info("Build complete", attrs...)
}

// buildReportJSON mirrors BuildReport with string errors and millisecond durations.
type buildReportJSON struct {
	SchemaVersion    int              `json:"schema_version"`
	BuildID          string           `json:"build_id"`
	Version          string           `json:"version"`
	Start            time.Time        `json:"start"`
	End              time.Time        `json:"end"`
	Outcome          string           `json:"outcome"`
	Reports          int              `json:"reports"`
	Topics           int              `json:"topics"`
	TopPages         int              `json:"top_pages"`
	TopicPages       int              `json:"topic_pages"`
	ReportPages      int              `json:"report_pages"`
	Assets           int              `json:"assets"`
	FilesLinkCreated bool             `json:"files_link_created"`
	Only             string           `json:"only,omitempty"`
	StageDurationsMS map[string]int64 `json:"stage_durations_ms"`
	Errors           []string         `json:"errors"`
}

func (r *BuildReport) serializable() buildReportJSON {
	s := buildReportJSON{
		SchemaVersion:    r.SchemaVersion,
		BuildID:          r.BuildID,
		Version:          version.Version,
		Start:            r.Start,
		End:              r.End,
		Outcome:          string(r.Outcome),
		Reports:          r.Reports,
		Topics:           r.Topics,
		TopPages:         r.TopPages,
		TopicPages:       r.TopicPages,
		ReportPages:      r.ReportPages,
		Assets:           r.Assets,
		FilesLinkCreated: r.FilesLinkCreated,
		Only:             r.Only,
		StageDurationsMS: make(map[string]int64, len(r.StageDurations)),
		Errors:           make([]string, 0, len(r.Errors)),
	}
	for k, v := range r.StageDurations {
		s.StageDurationsMS[string(k)] = v.Milliseconds()
	}
	for _, e := range r.Errors {
		s.Errors = append(s.Errors, e.Error())
	}
	return s
}

// Persist writes the report as JSON to path, replacing any previous file
// atomically.
func (r *BuildReport) Persist(path string) error {
	data, err := json.MarshalIndent(r.serializable(), "", "  ")
	if err != nil {
		return berrors.InternalError("marshal build report", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return berrors.FileSystem("mkdir", dir, err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o600); err != nil {
		return berrors.FileSystem("write", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return berrors.FileSystem("rename", path, err)
	}
	return nil
}
