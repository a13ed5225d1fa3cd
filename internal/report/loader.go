package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	berrors "git.home.luguber.info/inful/reportsite/internal/errors"
	"git.home.luguber.info/inful/reportsite/internal/logfields"
)

// Load reads every *.json record in dir. Any unreadable or malformed file,
// bad timestamp, or duplicate report number fails the whole load.
//
// The result is in directory enumeration order; call SortNewestFirst to
// establish the ordering the site relies on.
func Load(dir string) ([]*Report, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, berrors.InputMissing(dir, err)
	}
	if !st.IsDir() {
		return nil, berrors.InputMissing(dir, fmt.Errorf("not a directory"))
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, berrors.InputMissing(dir, err)
	}

	reports := make([]*Report, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		r, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[r.Number]; dup {
			return nil, berrors.DuplicateReport(r.Number, path).WithContext("first", prev)
		}
		seen[r.Number] = path
		reports = append(reports, r)
	}

	slog.Debug("Loaded report metadata", logfields.Path(dir), logfields.Count(len(reports)))
	return reports, nil
}

// LoadFile reads and validates a single report record.
func LoadFile(path string) (*Report, error) {
	// #nosec G304 -- path comes from a glob of the configured reports directory
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, berrors.InputMissing(path, err)
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, berrors.InputMalformed(path, err)
	}
	if r.Number == "" {
		return nil, berrors.InputMalformed(path, fmt.Errorf("missing report number"))
	}
	for i, v := range r.Versions {
		if v.Date.IsZero() {
			return nil, berrors.InputMalformed(path, fmt.Errorf("version %d: missing date", i))
		}
		if v.Fetched.IsZero() {
			return nil, berrors.InputMalformed(path, fmt.Errorf("version %d: missing fetched", i))
		}
	}
	return &r, nil
}
