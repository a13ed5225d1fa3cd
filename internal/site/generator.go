package site

import (
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	berrors "git.home.luguber.info/inful/reportsite/internal/errors"
	"git.home.luguber.info/inful/reportsite/internal/logfields"
	"git.home.luguber.info/inful/reportsite/internal/metrics"
	"git.home.luguber.info/inful/reportsite/internal/render"
	"git.home.luguber.info/inful/reportsite/internal/report"
)

// ReportTemplate is the template name of a report detail page.
const ReportTemplate = "report.html"

// ReportPagePath is the build-relative path of a report's detail page.
func ReportPagePath(number string) string {
	return filepath.Join("reports", number+".html")
}

// ReportMetadataPath is the build-relative path of a report's metadata file.
func ReportMetadataPath(number string) string {
	return filepath.Join("reports", number+".json")
}

// Generator writes one report's detail page and metadata file. Invocations
// for different reports share no mutable state and may run concurrently.
type Generator struct {
	pages     render.PageWriter
	buildRoot string
	htmlDir   string
	prefixLen int
	recorder  metrics.Recorder
}

// NewGenerator returns a Generator writing under buildRoot and reading HTML
// bodies from htmlDir after stripping prefixLen characters from each filename.
func NewGenerator(pages render.PageWriter, buildRoot, htmlDir string, prefixLen int) *Generator {
	return &Generator{
		pages:     pages,
		buildRoot: buildRoot,
		htmlDir:   htmlDir,
		prefixLen: prefixLen,
		recorder:  metrics.NoopRecorder{},
	}
}

// SetRecorder injects a metrics recorder.
func (g *Generator) SetRecorder(r metrics.Recorder) *Generator {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	g.recorder = r
	return g
}

// Generate validates the report number, then writes the detail page (with the
// latest version's HTML body, if any) and the metadata file.
func (g *Generator) Generate(r *report.Report) error {
	start := time.Now()
	if !report.ValidNumber(r.Number) {
		return berrors.InvalidReportNumber(r.Number)
	}

	body, err := g.body(r)
	if err != nil {
		return err
	}

	pagePath, err := g.pages.WritePage(ReportTemplate, map[string]any{
		"report": r,
		"html":   body,
	}, ReportPagePath(r.Number))
	if err != nil {
		return err
	}
	g.recorder.IncPagesRendered(metrics.PageReport)

	data, err := report.MarshalIndent(r)
	if err != nil {
		return berrors.InternalError("encode report metadata", err).WithContext("report", r.Number)
	}
	metaPath, err := render.WriteFile(g.buildRoot, ReportMetadataPath(r.Number), data)
	if err != nil {
		return err
	}
	g.recorder.IncMetadataWritten()
	g.recorder.ObserveReportDuration(time.Since(start))

	slog.Debug("Generated report", logfields.Report(r.Number), logfields.Path(pagePath), slog.String("metadata", metaPath))
	return nil
}

// body reads the HTML rendition of the latest version. A report without one
// gets an empty body.
func (g *Generator) body(r *report.Report) (template.HTML, error) {
	latest := r.Latest()
	if latest == nil {
		return "", nil
	}
	f, ok := latest.HTMLFormat()
	if !ok {
		return "", nil
	}
	rel, ok := stripChars(f.Filename, g.prefixLen)
	if !ok {
		return "", berrors.InputMalformed(f.Filename, fmt.Errorf("filename shorter than %d-character prefix", g.prefixLen)).
			WithContext("report", r.Number)
	}
	if !filepath.IsLocal(rel) {
		return "", berrors.InputMalformed(f.Filename, fmt.Errorf("html body path escapes %s", g.htmlDir)).
			WithContext("report", r.Number)
	}
	path := filepath.Join(g.htmlDir, rel)
	// #nosec G304 -- path is validated to stay inside the html directory
	data, err := os.ReadFile(path)
	if err != nil {
		return "", berrors.InputMissing(path, err).WithContext("report", r.Number)
	}
	// #nosec G203 -- bodies are sanitized before they reach the archive
	return template.HTML(data), nil
}

// stripChars drops the first n characters (not bytes) of s. ok is false when
// s has fewer than n characters.
func stripChars(s string, n int) (string, bool) {
	for i := range s {
		if n == 0 {
			return s[i:], true
		}
		n--
	}
	return "", n == 0
}
