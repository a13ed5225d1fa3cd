package report

import (
	"slices"
)

// SortNewestFirst orders each report's versions by date descending, then the
// reports themselves by their newest version date descending. Both sorts are
// stable; reports without versions go last.
func SortNewestFirst(reports []*Report) {
	for _, r := range reports {
		slices.SortStableFunc(r.Versions, func(a, b Version) int {
			return b.Date.Compare(a.Date.Time)
		})
	}
	slices.SortStableFunc(reports, func(a, b *Report) int {
		la, lb := a.Latest(), b.Latest()
		switch {
		case la == nil && lb == nil:
			return 0
		case la == nil:
			return 1
		case lb == nil:
			return -1
		}
		return lb.Date.Compare(la.Date.Time)
	})
}

// Span returns the earliest and latest version dates across all reports.
// Report order does not matter, but each report's versions must already be
// sorted newest first. ok is false when no report has a version.
func Span(reports []*Report) (first, last Date, ok bool) {
	for _, r := range reports {
		oldest, newest := r.Oldest(), r.Latest()
		if oldest == nil || newest == nil {
			continue
		}
		if !ok || oldest.Date.Before(first.Time) {
			first = oldest.Date
		}
		if !ok || newest.Date.After(last.Time) {
			last = newest.Date
		}
		ok = true
	}
	return first, last, ok
}
