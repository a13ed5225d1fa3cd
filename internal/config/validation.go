package config

import (
	berrors "git.home.luguber.info/inful/reportsite/internal/errors"
	"git.home.luguber.info/inful/reportsite/internal/report"
)

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	paths := []struct {
		field string
		value string
	}{
		{"paths.reports", c.Paths.Reports},
		{"paths.files", c.Paths.Files},
		{"paths.html", c.Paths.HTML},
		{"paths.static", c.Paths.Static},
		{"paths.templates", c.Paths.Templates},
		{"paths.pages", c.Paths.Pages},
		{"paths.build", c.Paths.Build},
	}
	for _, p := range paths {
		if p.value == "" {
			return berrors.ConfigInvalid(p.field, "must not be empty")
		}
	}
	if c.Site.RecentReports < 0 {
		return berrors.ConfigInvalid("site.recent_reports", "must not be negative")
	}
	if c.Site.HTMLPrefixLength < 0 {
		return berrors.ConfigInvalid("site.html_prefix_length", "must not be negative")
	}
	if c.Debug.Only != "" && !report.ValidNumber(c.Debug.Only) {
		return berrors.ConfigInvalid("debug.only", "not a valid report number: "+c.Debug.Only)
	}
	return nil
}
