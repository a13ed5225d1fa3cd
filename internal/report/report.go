package report

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// FormatHTML is the format tag of the pre-rendered HTML body.
const FormatHTML = "HTML"

var numberPattern = regexp.MustCompile(`^[0-9A-Z-]+$`)

// ValidNumber reports whether number is safe for use in output file names and URLs.
func ValidNumber(number string) bool {
	return numberPattern.MatchString(number)
}

// Report is one archived document with its published versions, newest first
// once SortNewestFirst has run.
type Report struct {
	Number   string    `json:"number"`
	Versions []Version `json:"versions"`

	// Extra holds the record's remaining fields, re-emitted on marshal.
	Extra map[string]json.RawMessage `json:"-"`
}

// Version is one dated revision of a report.
type Version struct {
	Date    Date     `json:"date"`
	Fetched Fetched  `json:"fetched"`
	Title   string   `json:"title,omitempty"`
	Summary string   `json:"summary,omitempty"`
	Topics  []Topic  `json:"topics"`
	Formats []Format `json:"formats"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Topic is a topic assignment: a persistent id and the display name it had
// as of the owning version.
type Topic struct {
	ID   int
	Name string
}

// Format describes one file rendition of a version.
type Format struct {
	Format   string `json:"format"`
	Filename string `json:"filename"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Latest returns the newest version, or nil when the report has none.
func (r *Report) Latest() *Version {
	if len(r.Versions) == 0 {
		return nil
	}
	return &r.Versions[0]
}

// Oldest returns the oldest version, or nil when the report has none.
func (r *Report) Oldest() *Version {
	if len(r.Versions) == 0 {
		return nil
	}
	return &r.Versions[len(r.Versions)-1]
}

// Title is the latest version's title.
func (r *Report) Title() string {
	if v := r.Latest(); v != nil {
		return v.Title
	}
	return ""
}

// Field decodes an unmodelled top-level field, returning nil if absent or undecodable.
func (r *Report) Field(name string) any {
	return decodeExtra(r.Extra, name)
}

// Field decodes an unmodelled version field, returning nil if absent or undecodable.
func (v *Version) Field(name string) any {
	return decodeExtra(v.Extra, name)
}

// Field decodes an unmodelled format field, returning nil if absent or undecodable.
func (f *Format) Field(name string) any {
	return decodeExtra(f.Extra, name)
}

// HTMLFormat returns the first HTML format of the version, if any.
func (v *Version) HTMLFormat() (Format, bool) {
	for _, f := range v.Formats {
		if f.Format == FormatHTML {
			return f, true
		}
	}
	return Format{}, false
}

// UnmarshalJSON decodes a [id, name] pair.
func (t *Topic) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("topic: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("topic: expected [id, name] pair, got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &t.ID); err != nil {
		return fmt.Errorf("topic id: %w", err)
	}
	if err := json.Unmarshal(pair[1], &t.Name); err != nil {
		return fmt.Errorf("topic name: %w", err)
	}
	return nil
}

// MarshalJSON encodes the topic back as a [id, name] pair.
func (t Topic) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{t.ID, t.Name})
}
