// Package topics derives the topic directory of the site from the loaded reports.
//
// A topic is identified by its persistent numeric id; its display title is the
// name carried by the most recently dated version tagging that id, across all
// reports. A report belongs to a topic if any of its versions ever tagged it.
package topics

import (
	"cmp"
	"slices"
	"strings"

	"git.home.luguber.info/inful/reportsite/internal/report"
	"git.home.luguber.info/inful/reportsite/internal/util/sets"
)

// Group is one topic listing: its id, resolved title and member reports in
// loader order.
type Group struct {
	ID      int
	Title   string
	Reports []*report.Report
}

// resolvedName is the best (date, name) pair seen so far for a topic id.
type resolvedName struct {
	date report.Date
	name string
}

// Index groups reports by topic id and orders the groups by title.
//
// On equal dates the name seen first (in report order, then version order)
// is kept, so the result depends on input order only for such ties. Groups
// with equal titles keep ascending id order.
func Index(reports []*report.Report) []Group {
	names := make(map[int]resolvedName)
	members := make(map[int][]*report.Report)

	for _, r := range reports {
		inReport := sets.New[int]()
		for _, v := range r.Versions {
			for _, t := range v.Topics {
				inReport.Add(t.ID)
				best, seen := names[t.ID]
				if !seen || best.date.Before(v.Date.Time) {
					names[t.ID] = resolvedName{date: v.Date, name: t.Name}
				}
			}
		}
		for _, id := range sets.Sorted(inReport) {
			members[id] = append(members[id], r)
		}
	}

	groups := make([]Group, 0, len(names))
	for id, n := range names {
		groups = append(groups, Group{ID: id, Title: n.name, Reports: members[id]})
	}
	slices.SortFunc(groups, func(a, b Group) int {
		if c := strings.Compare(a.Title, b.Title); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return groups
}
