package report

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

const (
	// DateLayout is the publication date format of a version.
	DateLayout = "2006-01-02T15:04:05"
	// FetchedLayout is the fetch timestamp format of a version (microseconds).
	FetchedLayout = "2006-01-02T15:04:05.000000"

	fetchedParseLayout = "2006-01-02T15:04:05.999999"
)

var (
	datePattern    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}$`)
	fetchedPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{1,6}$`)
)

// Date is a version publication timestamp without timezone, second precision.
type Date struct {
	time.Time
}

// ParseDate parses s in DateLayout.
func ParseDate(s string) (Date, error) {
	if !datePattern.MatchString(s) {
		return Date{}, fmt.Errorf("date %q does not match %s", s, DateLayout)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string { return d.Format(DateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Fetched is the time a version was retrieved, without timezone, with
// fractional seconds of up to six digits.
type Fetched struct {
	time.Time
}

// ParseFetched parses s as a timestamp with a 1-6 digit fractional second.
func ParseFetched(s string) (Fetched, error) {
	if !fetchedPattern.MatchString(s) {
		return Fetched{}, fmt.Errorf("fetched %q does not match %s", s, FetchedLayout)
	}
	t, err := time.Parse(fetchedParseLayout, s)
	if err != nil {
		return Fetched{}, fmt.Errorf("parse fetched %q: %w", s, err)
	}
	return Fetched{t}, nil
}

func (f Fetched) String() string { return f.Format(FetchedLayout) }

func (f Fetched) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Format(FetchedLayout))
}

func (f *Fetched) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("fetched: %w", err)
	}
	parsed, err := ParseFetched(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
