// Package activity aggregates victim posts into per-group hour and weekday histograms.
package activity

import (
	"sort"
	"time"

	"github.com/codeGROOVE-dev/rwTZ/pkg/timestamp"
)

// RawEvent is one disclosed victim post as received from the ingestion side.
type RawEvent struct {
	Group      string `json:"group_name"`
	Discovered string `json:"discovered"`
}

// Histogram counts one group's posts by UTC hour and by weekday (Monday=0).
type Histogram struct {
	First         time.Time `json:"first_post"`
	Last          time.Time `json:"last_post"`
	Group         string    `json:"group"`
	HourCounts    [24]int   `json:"hour_counts"`
	WeekdayCounts [7]int    `json:"weekday_counts"`
	Total         int       `json:"total_posts"`
}

// NormalizeAll parses every raw event, skipping the ones whose discovery time
// is unreadable. dropped is len(raws) - len(parsed).
func NormalizeAll(raws []RawEvent) (parsed []timestamp.Parsed, dropped int) {
	parsed = make([]timestamp.Parsed, 0, len(raws))
	for _, r := range raws {
		p, ok := timestamp.Normalize(r.Group, r.Discovered)
		if !ok {
			dropped++
			continue
		}
		parsed = append(parsed, p)
	}
	return parsed, dropped
}

// Build aggregates events into one histogram per group. Event order does not
// matter, and groups without events do not appear.
func Build(events []timestamp.Parsed) map[string]*Histogram {
	hists := make(map[string]*Histogram)
	for i := range events {
		e := &events[i]
		h, ok := hists[e.Group]
		if !ok {
			h = &Histogram{Group: e.Group}
			hists[e.Group] = h
		}
		h.Add(e)
	}
	return hists
}

// Add counts a single post.
func (h *Histogram) Add(e *timestamp.Parsed) {
	h.HourCounts[e.HourUTC]++
	h.WeekdayCounts[e.Weekday]++
	h.Total++
	if h.First.IsZero() || e.Instant.Before(h.First) {
		h.First = e.Instant
	}
	if e.Instant.After(h.Last) {
		h.Last = e.Instant
	}
}

// Merge folds other's counts into h. Counter addition commutes, so histograms
// built from any partition of a group's events merge to the same result.
func (h *Histogram) Merge(other *Histogram) {
	for i, c := range other.HourCounts {
		h.HourCounts[i] += c
	}
	for i, c := range other.WeekdayCounts {
		h.WeekdayCounts[i] += c
	}
	h.Total += other.Total
	if !other.First.IsZero() && (h.First.IsZero() || other.First.Before(h.First)) {
		h.First = other.First
	}
	if other.Last.After(h.Last) {
		h.Last = other.Last
	}
}

// WeekdayPosts counts posts from Monday through Friday.
func (h *Histogram) WeekdayPosts() int {
	n := 0
	for day := timestamp.Monday; day <= timestamp.Friday; day++ {
		n += h.WeekdayCounts[day]
	}
	return n
}

// WeekendPosts counts posts on Saturday and Sunday.
func (h *Histogram) WeekendPosts() int {
	return h.WeekdayCounts[timestamp.Saturday] + h.WeekdayCounts[timestamp.Sunday]
}

// Days is the number of calendar days between the first and last post, inclusive.
func (h *Histogram) Days() int {
	if h.Total == 0 {
		return 0
	}
	return int(h.Last.Truncate(24*time.Hour).Sub(h.First.Truncate(24*time.Hour)).Hours()/24) + 1
}

// Consistent reports whether the hour counts, weekday counts and total agree.
func (h *Histogram) Consistent() bool {
	hours, days := 0, 0
	for _, c := range h.HourCounts {
		hours += c
	}
	for _, c := range h.WeekdayCounts {
		days += c
	}
	return hours == h.Total && days == h.Total
}

// Groups returns the group names of hists in sorted order.
func Groups(hists map[string]*Histogram) []string {
	names := make([]string, 0, len(hists))
	for name := range hists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
