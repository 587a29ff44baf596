// Package timestamp turns the free-form "discovered" strings published for
// victim posts into UTC hour and weekday coordinates.
package timestamp

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Accepted shape: "YYYY-M-D H:M:S" with an optional 1-6 digit fraction.
// Month, day and time fields may be one or two digits, and date and time are
// separated by any run of whitespace. Read as UTC; no zone suffix is accepted.
var shape = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})\s+(\d{1,2}):(\d{1,2}):(\d{1,2})(?:\.(\d{1,6}))?$`)

// Weekday indexes, Monday first.
const (
	Monday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// Parsed is a discovery time reduced to the coordinates the analysis uses.
type Parsed struct {
	Instant time.Time `json:"instant"`
	Group   string    `json:"group"`
	HourUTC int       `json:"hour_utc"`
	Weekday int       `json:"weekday"` // 0=Monday .. 6=Sunday
}

// Parse reads raw in the accepted shape and returns the UTC instant.
func Parse(raw string) (time.Time, bool) {
	m := shape.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, false
	}
	var f [6]int
	for i := range f {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return time.Time{}, false
		}
		f[i] = n
	}
	year, month, day, hour, minute, sec := f[0], f[1], f[2], f[3], f[4], f[5]
	if month < 1 || month > 12 || day < 1 || hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, false
	}
	nsec := 0
	if m[7] != "" {
		n, err := strconv.Atoi(m[7] + strings.Repeat("0", 9-len(m[7])))
		if err != nil {
			return time.Time{}, false
		}
		nsec = n
	}
	t := time.Date(year, time.Month(month), day, hour, minute, sec, nsec, time.UTC)
	// time.Date normalizes overflow, so 2024-02-30 comes back as March 1.
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// Normalize parses the discovery time of one post by group.
// It returns false when raw does not have the accepted shape; callers
// skip such records rather than failing the batch.
func Normalize(group, raw string) (Parsed, bool) {
	t, ok := Parse(raw)
	if !ok {
		return Parsed{}, false
	}
	return Parsed{
		Group:   group,
		Instant: t,
		HourUTC: t.Hour(),
		Weekday: MondayIndex(t.Weekday()),
	}, true
}

// MondayIndex maps Go's Sunday-first weekday onto the Monday=0 index.
func MondayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// WeekdayName returns the English name for a Monday=0 index.
func WeekdayName(index int) string {
	if index < 0 || index > 6 {
		return "?"
	}
	return time.Weekday((index + 1) % 7).String()
}
