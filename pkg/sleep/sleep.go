// Package sleep finds the quietest stretch of a group's day, a rough marker
// of when its operators are off shift.
package sleep

import (
	"github.com/codeGROOVE-dev/rwTZ/pkg/constants"
	"github.com/codeGROOVE-dev/rwTZ/pkg/tzconvert"
)

// Window lengths considered, in hours.
const (
	MinWindow = 4
	MaxWindow = 12
)

// Window is a run of consecutive UTC hours, possibly wrapping past midnight.
type Window struct {
	StartUTC int `json:"start_utc"`
	Hours    int `json:"hours"`
	Posts    int `json:"posts"`
}

// Contains reports whether utcHour falls inside the window.
func (w Window) Contains(utcHour int) bool {
	if w.Hours == 0 {
		return false
	}
	return tzconvert.UTCToLocal(utcHour, -w.StartUTC) < w.Hours
}

// LocalStart is the window's first hour at utcOffset.
func (w Window) LocalStart(utcOffset int) int {
	return tzconvert.UTCToLocal(w.StartUTC, utcOffset)
}

// LocalEnd is the hour after the window ends at utcOffset.
func (w Window) LocalEnd(utcOffset int) int {
	return tzconvert.UTCToLocal(w.StartUTC+w.Hours, utcOffset)
}

// Quietest slides windows of MinWindow..MaxWindow hours around the clock and
// keeps the one with the fewest posts. A longer window replaces a shorter one
// when its posts per hour stay within 20% of the best so far. Histograms with
// fewer than constants.LimitedData posts report nothing.
func Quietest(hourCounts [24]int) (Window, bool) {
	total := 0
	for _, n := range hourCounts {
		total += n
	}
	if total < constants.LimitedData {
		return Window{}, false
	}

	best := Window{Hours: MinWindow, Posts: total}
	for size := MinWindow; size <= MaxWindow; size++ {
		for start := range 24 {
			sum := 0
			for i := range size {
				sum += hourCounts[(start+i)%24]
			}
			avg := float64(sum) / float64(size)
			bestAvg := float64(best.Posts) / float64(best.Hours)
			if sum < best.Posts || (avg <= bestAvg*1.2 && size > best.Hours) {
				best = Window{StartUTC: start, Hours: size, Posts: sum}
			}
		}
	}
	return best, true
}
