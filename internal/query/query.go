// Package query implements pure filtering and aggregation over a table
// snapshot. Nothing here touches storage or mutates its input.
package query

import (
	"sort"
	"strings"

	"github.com/devboardhq/devboard/internal/storage"
)

// StatusAll is the sentinel status filter meaning "no status filter".
const StatusAll = "All"

// Filter narrows a table for display. Empty values are pass-through,
// never an error. Categories combine with AND; the free-text search
// matches device_name OR notes.
type Filter struct {
	Status   string // exact match, "" or "All" disables
	Location string // case-insensitive substring
	Search   string // case-insensitive substring over device_name and notes
}

// IsZero reports whether the filter passes every row through.
func (f Filter) IsZero() bool {
	return (f.Status == "" || f.Status == StatusAll) && f.Location == "" && f.Search == ""
}

// Apply returns the rows of t matching f, in their original relative
// order. The input table is never modified; applying the same filter to
// its own output returns an equal table.
func Apply(t storage.Table, f Filter) storage.Table {
	if f.IsZero() {
		return t.Clone()
	}
	out := make(storage.Table, 0, len(t))
	for _, rec := range t {
		if matches(rec, f) {
			out = append(out, rec)
		}
	}
	return out
}

func matches(rec storage.Record, f Filter) bool {
	if f.Status != "" && f.Status != StatusAll && rec.Status != f.Status {
		return false
	}
	if f.Location != "" && !containsFold(rec.Location, f.Location) {
		return false
	}
	if f.Search != "" && !containsFold(rec.DeviceName, f.Search) && !containsFold(rec.Notes, f.Search) {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// StatusCount is one aggregation bucket.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// CountByStatus groups the table by the status column and returns the
// buckets in descending count order. Rows with an empty status form
// their own bucket; ties keep first-seen order.
func CountByStatus(t storage.Table) []StatusCount {
	counts := make(map[string]int)
	var order []string
	for _, rec := range t {
		if _, seen := counts[rec.Status]; !seen {
			order = append(order, rec.Status)
		}
		counts[rec.Status]++
	}

	out := make([]StatusCount, 0, len(order))
	for _, status := range order {
		out = append(out, StatusCount{Status: status, Count: counts[status]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}
