package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/reportsite/internal/assets"
	"git.home.luguber.info/inful/reportsite/internal/config"
	berrors "git.home.luguber.info/inful/reportsite/internal/errors"
	"git.home.luguber.info/inful/reportsite/internal/logfields"
	"git.home.luguber.info/inful/reportsite/internal/metrics"
	"git.home.luguber.info/inful/reportsite/internal/render"
	"git.home.luguber.info/inful/reportsite/internal/report"
	"git.home.luguber.info/inful/reportsite/internal/topics"
)

// TopicTemplate is the template name of a per-topic listing page.
const TopicTemplate = "topic.html"

// TopicPagePath is the build-relative path of a topic's listing page.
func TopicPagePath(id int) string {
	return filepath.Join("topics", fmt.Sprintf("%d.html", id))
}

// Builder runs full site builds from a configuration.
type Builder struct {
	cfg      *config.Config
	recorder metrics.Recorder
	workers  int
}

// NewBuilder returns a Builder using one report worker per CPU.
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg, recorder: metrics.NoopRecorder{}, workers: runtime.NumCPU()}
}

// WithRecorder injects a metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	b.recorder = r
	return b
}

// WithWorkers overrides the report worker pool size.
func (b *Builder) WithWorkers(n int) *Builder {
	if n > 0 {
		b.workers = n
	}
	return b
}

// build carries the state of one Build call.
type build struct {
	*Builder
	report  *BuildReport
	log     *slog.Logger
	engine  *render.Engine
	reports []*report.Report
	groups  []topics.Group
}

// Build regenerates the whole site. The returned report is non-nil even on
// failure and records how far the build got.
func (b *Builder) Build(ctx context.Context) (*BuildReport, error) {
	st := &build{Builder: b, report: newBuildReport()}
	st.report.Only = b.cfg.Debug.Only
	st.log = slog.With(logfields.BuildID(st.report.BuildID))
	st.log.Info("Build started", logfields.Path(b.cfg.Paths.Build), logfields.Workers(b.workers))

	err := st.run(ctx)
	if err != nil {
		st.report.Errors = append(st.report.Errors, err)
	}
	st.report.finish()
	b.recorder.ObserveBuildDuration(st.report.Duration())
	b.recorder.IncBuildOutcome(st.report.Outcome)
	return st.report, err
}

func (st *build) run(ctx context.Context) error {
	steps := []struct {
		name StageName
		fn   func(context.Context) error
		skip bool
	}{
		{StageLoad, st.load, false},
		{StageIndex, st.index, false},
		{StagePages, st.topPages, false},
		{StageTopics, st.topicPages, st.cfg.Debug.SkipTopicPages()},
		{StageAssets, st.assets, false},
		{StageReports, st.reportPages, false},
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return berrors.BuildFailed(string(s.name), err)
		}
		if s.skip {
			st.recorder.IncStageResult(string(s.name), metrics.ResultSkipped)
			st.log.Info("Stage skipped", logfields.Stage(string(s.name)))
			continue
		}
		if err := st.stage(ctx, s.name, s.fn); err != nil {
			return err
		}
	}
	return nil
}

// stage times fn and records its result.
func (st *build) stage(ctx context.Context, name StageName, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	d := time.Since(start)
	st.report.StageDurations[name] = d
	st.recorder.ObserveStageDuration(string(name), d)
	if err != nil {
		st.recorder.IncStageResult(string(name), metrics.ResultFatal)
		return err
	}
	st.recorder.IncStageResult(string(name), metrics.ResultSuccess)
	st.log.Debug("Stage complete", logfields.Stage(string(name)), logfields.Duration(d))
	return nil
}

func (st *build) load(context.Context) error {
	reports, err := report.Load(st.cfg.Paths.Reports)
	if err != nil {
		return err
	}
	report.SortNewestFirst(reports)
	st.reports = reports
	st.report.Reports = len(reports)
	st.log.Info("Loaded reports", logfields.Count(len(reports)), logfields.Path(st.cfg.Paths.Reports))

	engine, err := render.New(st.cfg.Paths.Build, st.cfg.Paths.Templates, st.cfg.Paths.Pages)
	if err != nil {
		return err
	}
	st.engine = engine
	return nil
}

func (st *build) index(context.Context) error {
	st.groups = topics.Index(st.reports)
	st.report.Topics = len(st.groups)
	return nil
}

// topPages renders every page template in the pages root to the same name
// at the top of the build.
func (st *build) topPages(context.Context) error {
	names, err := render.DiscoverPages(st.cfg.Paths.Pages)
	if err != nil {
		return err
	}
	first, last, _ := report.Span(st.reports)
	recent := st.reports[:min(st.cfg.Site.RecentReports, len(st.reports))]
	data := map[string]any{
		"reports_count":     len(st.reports),
		"first_report_date": first,
		"last_report_date":  last,
		"topics":            st.groups,
		"recent_reports":    recent,
	}
	for _, name := range names {
		path, err := st.engine.WritePage(name, data, name)
		if err != nil {
			return err
		}
		st.report.TopPages++
		st.recorder.IncPagesRendered(metrics.PageTop)
		st.log.Info("Generated page", logfields.Template(name), logfields.Path(path))
	}
	return nil
}

func (st *build) topicPages(context.Context) error {
	for i := range st.groups {
		g := &st.groups[i]
		if _, err := st.engine.WritePage(TopicTemplate, map[string]any{"topic": g}, TopicPagePath(g.ID)); err != nil {
			return err
		}
		st.report.TopicPages++
		st.recorder.IncPagesRendered(metrics.PageTopic)
	}
	st.log.Info("Generated topic pages", logfields.Count(st.report.TopicPages))
	return nil
}

func (st *build) assets(context.Context) error {
	dst := filepath.Join(st.cfg.Paths.Build, "static")
	st.log.Info("Publishing static assets", logfields.Path(dst))
	n, err := assets.Mirror(st.cfg.Paths.Static, dst)
	if err != nil {
		return err
	}
	st.report.Assets = n
	return nil
}

// selected returns the reports to generate detail pages for.
func (st *build) selected() []*report.Report {
	only := st.cfg.Debug.Only
	if only == "" {
		return st.reports
	}
	for _, r := range st.reports {
		if r.Number == only {
			return []*report.Report{r}
		}
	}
	st.log.Warn("No report matches debug.only", logfields.Report(only))
	return nil
}

// reportPages fans out one task per selected report to a bounded pool. Every
// task runs to completion; their failures are joined once the pool drains.
// The files link is made while the tasks run.
func (st *build) reportPages(ctx context.Context) error {
	todo := st.selected()
	gen := NewGenerator(st.engine, st.cfg.Paths.Build, st.cfg.Paths.HTML, st.cfg.Site.HTMLPrefixLength).
		SetRecorder(st.recorder)

	st.recorder.SetWorkers(st.workers)
	results := make([]error, len(todo))
	var done atomic.Int64
	var g errgroup.Group
	g.SetLimit(st.workers)
	for i, r := range todo {
		if ctx.Err() != nil {
			results[i] = ctx.Err()
			continue
		}
		g.Go(func() error {
			if err := gen.Generate(r); err != nil {
				results[i] = err
				return nil
			}
			done.Add(1)
			return nil
		})
	}

	linkStart := time.Now()
	created, linkErr := LinkFiles(st.cfg.Paths.Build, st.cfg.Paths.Files)
	st.report.StageDurations[StageLink] = time.Since(linkStart)
	st.report.FilesLinkCreated = created

	_ = g.Wait()
	st.report.ReportPages = int(done.Load())

	var errs []error
	for i, err := range results {
		if err != nil {
			st.log.Error("Report generation failed", logfields.Report(todo[i].Number), logfields.Error(err))
			errs = append(errs, err)
		}
	}
	if linkErr != nil {
		st.recorder.IncStageResult(string(StageLink), metrics.ResultFatal)
		errs = append(errs, linkErr)
	} else {
		st.recorder.IncStageResult(string(StageLink), metrics.ResultSuccess)
	}
	if len(errs) > 0 {
		return berrors.BuildFailed(string(StageReports), errors.Join(errs...)).
			WithContext("failed", len(errs))
	}
	st.log.Info("Generated reports", logfields.Count(st.report.ReportPages))
	return nil
}
