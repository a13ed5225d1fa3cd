// Package render resolves page templates by name from a fixed list of
// template roots, executes them and writes the result under the build root.
//
// Files whose name starts with "_" are layouts and partials. Every layout
// found in any root is parsed into each page's template set, so pages can
// {{define}} blocks that a shared layout {{template}}s. Page names resolve
// against the roots in order; the first root holding the file wins.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	berrors "git.home.luguber.info/inful/reportsite/internal/errors"
	"git.home.luguber.info/inful/reportsite/internal/logfields"
)

// Renderer produces text from a named template and a context mapping.
type Renderer interface {
	Render(name string, data map[string]any) (string, error)
}

// PageWriter renders a template straight to a file under the build root.
type PageWriter interface {
	Renderer
	WritePage(name string, data map[string]any, outputRel string) (string, error)
}

var _ PageWriter = (*Engine)(nil)

// Engine is the html/template backed PageWriter.
type Engine struct {
	roots     []string
	buildRoot string
	layouts   *template.Template

	mu    sync.Mutex
	pages map[string]*template.Template
}

// New parses the layouts of every root and returns an Engine writing under buildRoot.
func New(buildRoot string, roots ...string) (*Engine, error) {
	if len(roots) == 0 {
		return nil, berrors.ConfigInvalid("paths.templates", "at least one template root is required")
	}
	layouts := template.New("").Funcs(Funcs()).Option("missingkey=error")
	seen := make(map[string]bool)
	for _, root := range roots {
		files, err := filepath.Glob(filepath.Join(root, "_*.html"))
		if err != nil {
			return nil, berrors.TemplateFailed(root, "load", err)
		}
		for _, f := range files {
			name := filepath.Base(f)
			if seen[name] {
				continue
			}
			seen[name] = true
			// #nosec G304 -- layout paths come from the configured template roots
			src, err := os.ReadFile(f)
			if err != nil {
				return nil, berrors.TemplateFailed(name, "load", err)
			}
			if _, err := layouts.New(name).Parse(string(src)); err != nil {
				return nil, berrors.TemplateFailed(name, "load", err)
			}
		}
	}
	return &Engine{
		roots:     roots,
		buildRoot: buildRoot,
		layouts:   layouts,
		pages:     make(map[string]*template.Template),
	}, nil
}

// Render executes the named template against data.
func (e *Engine) Render(name string, data map[string]any) (string, error) {
	tpl, err := e.lookup(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", berrors.TemplateFailed(name, "render", err)
	}
	return buf.String(), nil
}

// WritePage renders name and writes it to outputRel under the build root,
// creating directories as needed. It returns the written path.
func (e *Engine) WritePage(name string, data map[string]any, outputRel string) (string, error) {
	html, err := e.Render(name, data)
	if err != nil {
		return "", err
	}
	return WriteFile(e.buildRoot, outputRel, []byte(html))
}

// WriteFile writes content to rel under root, refusing paths that escape root.
func WriteFile(root, rel string, content []byte) (string, error) {
	if !filepath.IsLocal(rel) {
		return "", berrors.FileSystem("write", rel, errors.New("output path escapes build root"))
	}
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", berrors.FileSystem("mkdir", filepath.Dir(path), err)
	}
	// #nosec G306 -- generated pages are public content
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", berrors.FileSystem("write", path, err)
	}
	return path, nil
}

func (e *Engine) lookup(name string) (*template.Template, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if tpl, ok := e.pages[name]; ok {
		return tpl, nil
	}

	path, err := e.resolve(name)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- path is resolved inside a configured template root
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, berrors.TemplateFailed(name, "load", err)
	}
	tpl, err := e.layouts.Clone()
	if err != nil {
		return nil, berrors.TemplateFailed(name, "load", err)
	}
	if _, err := tpl.New(name).Parse(string(src)); err != nil {
		return nil, berrors.TemplateFailed(name, "load", err)
	}
	tpl.Option("missingkey=error")
	e.pages[name] = tpl
	slog.Debug("Loaded template", logfields.Template(name), logfields.Path(path))
	return tpl, nil
}

func (e *Engine) resolve(name string) (string, error) {
	if !filepath.IsLocal(name) || strings.HasPrefix(filepath.Base(name), "_") {
		return "", berrors.TemplateFailed(name, "load", fmt.Errorf("invalid page template name"))
	}
	for _, root := range e.roots {
		p := filepath.Join(root, name)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}
	return "", berrors.TemplateFailed(name, "load",
		fmt.Errorf("%w: not found in %s", fs.ErrNotExist, strings.Join(e.roots, ", ")))
}

// DiscoverPages lists the top-level page templates (*.html, excluding
// layouts) directly inside dir, sorted by name. A missing dir yields none.
func DiscoverPages(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return nil, berrors.TemplateFailed(dir, "load", err)
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		name := filepath.Base(f)
		if strings.HasPrefix(name, "_") {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}
