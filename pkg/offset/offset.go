// Package offset scores candidate UTC offsets against a fixed business-hours
// window and picks the best fit for a group's hourly histogram.
package offset

import (
	"sort"

	"github.com/codeGROOVE-dev/rwTZ/pkg/tzconvert"
)

// Candidate range and the local business-hours window [BusinessStart, BusinessEnd).
const (
	MinOffset     = -12
	MaxOffset     = 12
	BusinessStart = 9
	BusinessEnd   = 17
)

// Fit is the score of one offset for one histogram.
type Fit struct {
	Offset        int     `json:"offset"`
	BusinessPosts int     `json:"business_posts"`
	Total         int     `json:"total_posts"`
	Fraction      float64 `json:"fraction_in_window"`
}

// Candidates returns every offset considered, in ascending order.
func Candidates() []int {
	offsets := make([]int, 0, MaxOffset-MinOffset+1)
	for o := MinOffset; o <= MaxOffset; o++ {
		offsets = append(offsets, o)
	}
	return offsets
}

// Score computes the fraction of posts that land inside local business hours
// when the UTC hours in hourCounts are shifted by utcOffset. An empty
// histogram scores exactly 0.
func Score(hourCounts [24]int, utcOffset int) Fit {
	fit := Fit{Offset: utcOffset}
	for utcHour, count := range hourCounts {
		fit.Total += count
		if tzconvert.InWindow(tzconvert.UTCToLocal(utcHour, utcOffset), BusinessStart, BusinessEnd) {
			fit.BusinessPosts += count
		}
	}
	if fit.Total == 0 {
		return fit
	}
	fit.Fraction = float64(fit.BusinessPosts) / float64(fit.Total)
	return fit
}

// Sweep scores every candidate offset, in candidate order.
func Sweep(hourCounts [24]int) []Fit {
	fits := make([]Fit, 0, MaxOffset-MinOffset+1)
	for _, o := range Candidates() {
		fits = append(fits, Score(hourCounts, o))
	}
	return fits
}

// SelectBest returns the highest scoring offset. Candidates are visited in
// ascending order and only a strictly greater fraction replaces the current
// best, so among equal scores the lowest offset wins. An empty histogram
// yields MinOffset with a fraction of 0.
func SelectBest(hourCounts [24]int) Fit {
	var best Fit
	found := false
	for _, fit := range Sweep(hourCounts) {
		if !found || fit.Fraction > best.Fraction {
			best = fit
			found = true
		}
	}
	return best
}

// Ranked returns up to n fits ordered by fraction, highest first. Equal
// fractions keep ascending offset order, so Ranked(h, 1)[0] == SelectBest(h).
func Ranked(hourCounts [24]int, n int) []Fit {
	fits := Sweep(hourCounts)
	sort.SliceStable(fits, func(i, j int) bool {
		return fits[i].Fraction > fits[j].Fraction
	})
	if n >= 0 && n < len(fits) {
		fits = fits[:n]
	}
	return fits
}
