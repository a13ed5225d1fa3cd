package site

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	berrors "git.home.luguber.info/inful/reportsite/internal/errors"
	"git.home.luguber.info/inful/reportsite/internal/metrics"
)

func TestBuild_FullSite(t *testing.T) {
	cfg := newSite(t)

	rep, err := NewBuilder(cfg).WithWorkers(2).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, metrics.BuildOutcomeSuccess, rep.Outcome)
	assert.NotEmpty(t, rep.BuildID)
	assert.Equal(t, 2, rep.Reports)
	assert.Equal(t, 2, rep.Topics)
	assert.Equal(t, 2, rep.TopPages)
	assert.Equal(t, 2, rep.TopicPages)
	assert.Equal(t, 2, rep.ReportPages)
	assert.Equal(t, 1, rep.Assets)
	assert.True(t, rep.FilesLinkCreated)
	assert.Contains(t, rep.StageDurations, StageReports)
	assert.Contains(t, rep.StageDurations, StageLink)

	index := readOut(t, cfg, "index.html")
	assert.Equal(t,
		"count=2 first=March 1, 2019 last=June 15, 2021 topics=7:Agriculture;12:Defense Policy; recent=R1,R2,",
		index)
	assert.Contains(t, readOut(t, cfg, "archive.html"), `<a href="reports/R1.html">Defense Budget</a>`)

	assert.Equal(t, "<h1>Defense Policy</h1><ul><li>R1</li><li>R2</li></ul>", readOut(t, cfg, "topics/12.html"))
	assert.Equal(t, "<h1>Agriculture</h1><ul><li>R2</li></ul>", readOut(t, cfg, "topics/7.html"))

	page := readOut(t, cfg, "reports/R1.html")
	assert.Equal(t,
		`<html><body><h1>R1: Defense Budget</h1><div class="body"><p>Body of R1</p></div></body></html>`,
		page)

	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(readOut(t, cfg, "reports/R2.json")), &meta))
	assert.Equal(t, "R2", meta["number"])
	assert.Equal(t, "CRS Report", meta["type"])

	assert.Equal(t, stylesheet, readOut(t, cfg, "static/css/site.css"))

	link := filepath.Join(cfg.Paths.Build, FilesLinkName)
	target, err := os.Readlink(link)
	require.NoError(t, err)
	assert.False(t, filepath.IsAbs(target))
	assert.Equal(t, "%PDF", readOut(t, cfg, "files/r1.pdf"))
}

func TestBuild_ReportWithoutHTMLGetsEmptyBody(t *testing.T) {
	cfg := newSite(t)
	input := record("R99999", versionSpec{date: "2018-01-01T00:00:00", title: "No Body"})
	put(t, filepath.Join(cfg.Paths.Reports, "R99999.json"), input)

	_, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t,
		`<html><body><h1>R99999: No Body</h1><div class="body"></div></body></html>`,
		readOut(t, cfg, "reports/R99999.html"))

	var want, got map[string]any
	require.NoError(t, json.Unmarshal([]byte(input), &want))
	require.NoError(t, json.Unmarshal([]byte(readOut(t, cfg, "reports/R99999.json")), &got))
	assert.Equal(t, want, got)
}

func TestBuild_UnsafeNumberFailsWithoutWriting(t *testing.T) {
	cfg := newSite(t)
	put(t, filepath.Join(cfg.Paths.Reports, "bad.json"), record("bad/number",
		versionSpec{date: "2018-01-01T00:00:00", title: "Bad"}))

	rep, err := NewBuilder(cfg).Build(context.Background())
	require.Error(t, err)
	assert.True(t, berrors.IsCategory(err, berrors.CategoryBuild))
	assert.Contains(t, err.Error(), "bad/number")
	assert.Equal(t, metrics.BuildOutcomeFailed, rep.Outcome)

	assert.NoDirExists(t, filepath.Join(cfg.Paths.Build, "reports", "bad"))
	// Other reports still complete.
	assert.FileExists(t, filepath.Join(cfg.Paths.Build, "reports", "R1.html"))
	assert.FileExists(t, filepath.Join(cfg.Paths.Build, "reports", "R2.json"))
	assert.Equal(t, 2, rep.ReportPages)
}

func TestBuild_CollectsEveryReportFailure(t *testing.T) {
	cfg := newSite(t)
	require.NoError(t, os.Remove(filepath.Join(cfg.Paths.HTML, "r1.html")))
	require.NoError(t, os.Remove(filepath.Join(cfg.Paths.HTML, "r2.html")))

	_, err := NewBuilder(cfg).WithWorkers(1).Build(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "r1.html")
	assert.Contains(t, err.Error(), "r2.html")
}

func TestBuild_IsIdempotent(t *testing.T) {
	cfg := newSite(t)
	b := NewBuilder(cfg)

	_, err := b.Build(context.Background())
	require.NoError(t, err)
	first := snapshot(t, cfg.Paths.Build)

	rep, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.False(t, rep.FilesLinkCreated)
	assert.Equal(t, first, snapshot(t, cfg.Paths.Build))
}

func TestBuild_RemovesStaleStaticAssets(t *testing.T) {
	cfg := newSite(t)
	_, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(cfg.Paths.Static, "css", "site.css")))
	put(t, filepath.Join(cfg.Paths.Static, "app.js"), "run()")
	_, err = NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(cfg.Paths.Build, "static", "css", "site.css"))
	assert.Equal(t, "run()", readOut(t, cfg, "static/app.js"))
}

func TestBuild_OnlyMode(t *testing.T) {
	cfg := newSite(t)
	cfg.Debug.Only = "R2"

	rep, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(cfg.Paths.Build, "reports", "R2.html"))
	assert.NoFileExists(t, filepath.Join(cfg.Paths.Build, "reports", "R1.html"))
	assert.NoDirExists(t, filepath.Join(cfg.Paths.Build, "topics"))
	assert.Equal(t, 0, rep.TopicPages)
	assert.Equal(t, 1, rep.ReportPages)
	// Top-level pages still see the whole corpus.
	assert.Contains(t, readOut(t, cfg, "index.html"), "count=2")
}

func TestBuild_OnlyModeWithTopicPagesReenabled(t *testing.T) {
	cfg := newSite(t)
	cfg.Debug.Only = "R2"
	skip := false
	cfg.Debug.SkipTopics = &skip

	rep, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, rep.TopicPages)
	assert.Equal(t, 1, rep.ReportPages)
}

func TestBuild_SkipTopicsWithoutOnly(t *testing.T) {
	cfg := newSite(t)
	skip := true
	cfg.Debug.SkipTopics = &skip

	rep, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(cfg.Paths.Build, "topics"))
	assert.Equal(t, 2, rep.ReportPages)
}

func TestBuild_OnlyUnknownNumberGeneratesNoReports(t *testing.T) {
	cfg := newSite(t)
	cfg.Debug.Only = "R404"

	rep, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, rep.ReportPages)
	assert.NoDirExists(t, filepath.Join(cfg.Paths.Build, "reports"))
}

func TestBuild_MalformedMetadataWritesNothing(t *testing.T) {
	cfg := newSite(t)
	put(t, filepath.Join(cfg.Paths.Reports, "broken.json"), `{"number": "R3", "versions": [`)

	rep, err := NewBuilder(cfg).Build(context.Background())
	require.Error(t, err)
	assert.True(t, berrors.IsCategory(err, berrors.CategoryInput))
	assert.NoDirExists(t, cfg.Paths.Build)
	assert.Contains(t, rep.StageDurations, StageLoad)
	assert.NotContains(t, rep.StageDurations, StageIndex)
}

func TestBuild_MissingTopicTemplate(t *testing.T) {
	cfg := newSite(t)
	require.NoError(t, os.Remove(filepath.Join(cfg.Paths.Templates, TopicTemplate)))

	_, err := NewBuilder(cfg).Build(context.Background())
	require.Error(t, err)
	assert.True(t, berrors.IsCategory(err, berrors.CategoryTemplate))
	assert.Contains(t, err.Error(), TopicTemplate)
}

func TestBuild_EmptyCorpus(t *testing.T) {
	cfg := newSite(t)
	require.NoError(t, os.Remove(filepath.Join(cfg.Paths.Reports, "R1.json")))
	require.NoError(t, os.Remove(filepath.Join(cfg.Paths.Reports, "R2.json")))

	rep, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "count=0 first= last= topics= recent=", readOut(t, cfg, "index.html"))
	assert.Equal(t, 0, rep.ReportPages)
}

func TestBuild_FirstDateIsEarliestVersion(t *testing.T) {
	cfg := newSite(t)
	put(t, filepath.Join(cfg.Paths.Reports, "R3.json"), record("R3",
		versionSpec{date: "2022-02-01T00:00:00", title: "Long Running"},
		versionSpec{date: "1999-12-31T00:00:00", title: "Long Running (first)"},
	))

	_, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	index := readOut(t, cfg, "index.html")
	assert.Contains(t, index, "first=December 31, 1999 last=February 1, 2022")
	assert.Contains(t, index, "recent=R3,R1,R2,")
}

func TestBuild_RecentReportsLimit(t *testing.T) {
	cfg := newSite(t)
	cfg.Site.RecentReports = 1

	_, err := NewBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.Contains(t, readOut(t, cfg, "index.html"), "recent=R1,")
	assert.NotContains(t, readOut(t, cfg, "index.html"), "R2,")
}

func TestBuild_CanceledContext(t *testing.T) {
	cfg := newSite(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := NewBuilder(cfg).Build(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, metrics.BuildOutcomeFailed, rep.Outcome)
}

func TestBuild_RecordsMetrics(t *testing.T) {
	cfg := newSite(t)
	rec := metrics.NewPrometheusRecorder(nil)

	_, err := NewBuilder(cfg).WithRecorder(rec).Build(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "reportsite.prom")
	require.NoError(t, rec.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `reportsite_pages_rendered_total{kind="report"} 2`)
	assert.Contains(t, string(data), `reportsite_metadata_files_total 2`)
	assert.Contains(t, string(data), `reportsite_build_outcomes_total{outcome="success"} 1`)
}
