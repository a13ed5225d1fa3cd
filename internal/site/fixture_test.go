package site

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/reportsite/internal/config"
)

const (
	baseLayout   = `{{define "base"}}<html><body>{{template "content" .}}</body></html>{{end}}`
	reportPage   = `{{template "base" .}}{{define "content"}}<h1>{{.report.Number}}: {{.report.Title}}</h1><div class="body">{{.html}}</div>{{end}}`
	topicPage    = `<h1>{{.topic.Title}}</h1><ul>{{range .topic.Reports}}<li>{{.Number}}</li>{{end}}</ul>`
	indexPage    = `count={{intcomma .reports_count}} first={{date .first_report_date}} last={{date .last_report_date}} topics={{range .topics}}{{.ID}}:{{.Title}};{{end}} recent={{range .recent_reports}}{{.Number}},{{end}}`
	archivePage  = `{{range .recent_reports}}<a href="reports/{{.Number}}.html">{{.Title}}</a>{{end}}`
	stylesheet   = `body { margin: 0 }`
	htmlPrefix   = "files/"
	defaultFetch = "2021-01-01T00:00:00.000001"
)

type topicTag struct {
	id   int
	name string
}

type versionSpec struct {
	date   string
	title  string
	html   string // format filename, empty for none
	topics []topicTag
}

// record renders a metadata file for number with the given versions.
func record(number string, versions ...versionSpec) string {
	vs := make([]string, 0, len(versions))
	for _, v := range versions {
		tags := make([]string, 0, len(v.topics))
		for _, tg := range v.topics {
			tags = append(tags, fmt.Sprintf("[%d, %q]", tg.id, tg.name))
		}
		formats := ""
		if v.html != "" {
			formats = fmt.Sprintf(`{"format": "HTML", "filename": %q}`, v.html)
		}
		vs = append(vs, fmt.Sprintf(`{"date": %q, "fetched": %q, "title": %q, "summary": "", "topics": [%s], "formats": [%s]}`,
			v.date, defaultFetch, v.title, strings.Join(tags, ", "), formats))
	}
	return fmt.Sprintf(`{"number": %q, "type": "CRS Report", "versions": [%s]}`, number, strings.Join(vs, ", "))
}

func put(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

// newSite lays out a complete input tree under a temp dir and returns a
// configuration pointing at it. The corpus holds two reports sharing topic 12,
// which was renamed between them.
func newSite(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Defaults()
	cfg.Paths = config.PathsConfig{
		Reports:   filepath.Join(root, "reports", "reports"),
		Files:     filepath.Join(root, "reports", "files"),
		HTML:      filepath.Join(root, "sanitized-html"),
		Static:    filepath.Join(root, "static"),
		Templates: filepath.Join(root, "templates"),
		Pages:     filepath.Join(root, "pages"),
		Build:     filepath.Join(root, "build"),
	}

	put(t, filepath.Join(cfg.Paths.Reports, "R1.json"), record("R1",
		versionSpec{date: "2021-06-15T00:00:00", title: "Defense Budget", html: htmlPrefix + "r1.html",
			topics: []topicTag{{12, "Defense Policy"}}},
		versionSpec{date: "2020-01-01T00:00:00", title: "Defense Budget (draft)",
			topics: []topicTag{{12, "Defense"}}},
	))
	put(t, filepath.Join(cfg.Paths.Reports, "R2.json"), record("R2",
		versionSpec{date: "2019-03-01T00:00:00", title: "Farm Bill", html: htmlPrefix + "r2.html",
			topics: []topicTag{{7, "Agriculture"}, {12, "Defense"}}},
	))
	put(t, filepath.Join(cfg.Paths.HTML, "r1.html"), "<p>Body of R1</p>")
	put(t, filepath.Join(cfg.Paths.HTML, "r2.html"), "<p>Body of R2</p>")
	put(t, filepath.Join(cfg.Paths.Files, "r1.pdf"), "%PDF")

	put(t, filepath.Join(cfg.Paths.Templates, "_base.html"), baseLayout)
	put(t, filepath.Join(cfg.Paths.Templates, ReportTemplate), reportPage)
	put(t, filepath.Join(cfg.Paths.Templates, TopicTemplate), topicPage)
	put(t, filepath.Join(cfg.Paths.Pages, "index.html"), indexPage)
	put(t, filepath.Join(cfg.Paths.Pages, "archive.html"), archivePage)
	put(t, filepath.Join(cfg.Paths.Static, "css", "site.css"), stylesheet)
	return cfg
}

func readOut(t *testing.T, cfg *config.Config, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.Paths.Build, rel))
	require.NoError(t, err)
	return string(data)
}

// snapshot maps every regular file under dir to its content.
func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type()&os.ModeSymlink != 0 {
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			out[path] = "-> " + target
			return nil
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[path] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}
