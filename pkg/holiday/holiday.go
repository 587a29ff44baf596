// Package holiday records approximate public holiday periods per region so
// that posting during a candidate region's holidays can be counted.
package holiday

import (
	"sort"
	"time"
)

// Period is an inclusive range of calendar dates.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Name  string    `json:"name"`
}

// Contains reports whether t falls on a date within the period. Only the UTC
// calendar date of t is compared.
func (p Period) Contains(t time.Time) bool {
	d := dateOf(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

// Calendar maps region names, as used by the region table, to holiday periods.
type Calendar map[string][]Period

// 2024 approximations.
var defaultCalendar = Calendar{
	"US Eastern": {
		period("Thanksgiving", "2024-11-28", "2024-11-28"),
		period("Christmas Eve & Day", "2024-12-24", "2024-12-25"),
	},
	"Israel": {
		period("Passover", "2024-04-23", "2024-05-01"),
	},
	"Egypt": {
		period("Ramadan", "2024-03-11", "2024-04-09"),
		period("Eid al-Fitr", "2024-04-10", "2024-04-10"),
	},
	"UK": {
		period("Easter Sunday", "2024-03-31", "2024-03-31"),
		period("Christmas", "2024-12-25", "2024-12-25"),
	},
}

// Default returns the built-in calendar. The returned map is shared and must
// not be modified.
func Default() Calendar {
	return defaultCalendar
}

// InPeriod reports whether t falls within any holiday of region.
func (c Calendar) InPeriod(t time.Time, region string) bool {
	for _, p := range c[region] {
		if p.Contains(t) {
			return true
		}
	}
	return false
}

// Count returns how many instants fall on holidays of region.
func (c Calendar) Count(instants []time.Time, region string) int {
	if len(c[region]) == 0 {
		return 0
	}
	n := 0
	for _, t := range instants {
		if c.InPeriod(t, region) {
			n++
		}
	}
	return n
}

// Regions lists the regions that have at least one holiday, sorted.
func (c Calendar) Regions() []string {
	names := make([]string, 0, len(c))
	for name, periods := range c {
		if len(periods) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func period(name, start, end string) Period {
	return Period{Name: name, Start: mustDate(start), End: mustDate(end)}
}

func mustDate(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
