// Package culture guesses a rest-day observance pattern from how often a
// group posts on each weekday.
package culture

import (
	"strings"

	"github.com/codeGROOVE-dev/rwTZ/pkg/timestamp"
)

// Labels emitted by the estimator.
const (
	NoDataLabel         = "No data"
	NoPatternLabel      = "No strong religious pattern detected"
	JudeoChristianLabel = "Possible Judeo-Christian (low Sunday usage)"
	IslamicLabel        = "Possible Islamic (low Friday usage)"
	Separator           = " | "
)

// DefaultThreshold is the share of an average day below which a rest day is
// considered avoided.
const DefaultThreshold = 0.5

// Rule flags Label when posting on Day (Monday=0) falls under the threshold.
type Rule struct {
	Label string `mapstructure:"label" json:"label"`
	Day   int    `mapstructure:"day" json:"day"`
}

// Config holds the policy constants. Rules are checked in order and matching
// labels keep that order.
type Config struct {
	Rules     []Rule  `mapstructure:"rules" json:"rules"`
	Threshold float64 `mapstructure:"threshold" json:"threshold"`
}

// DefaultConfig checks Sunday before Friday at a threshold of 0.5.
func DefaultConfig() Config {
	return Config{
		Threshold: DefaultThreshold,
		Rules: []Rule{
			{Day: timestamp.Sunday, Label: JudeoChristianLabel},
			{Day: timestamp.Friday, Label: IslamicLabel},
		},
	}
}

// Pattern is the estimator's verdict for one group.
type Pattern struct {
	Labels []string   `json:"labels"`
	Days   []int      `json:"rest_days,omitempty"` // rule days that fired, parallel to Labels
	Ratios [7]float64 `json:"ratios"` // each day's count over the average day
	NoData bool       `json:"no_data"`
}

// String renders the pattern as a single label line.
func (p Pattern) String() string {
	switch {
	case p.NoData:
		return NoDataLabel
	case len(p.Labels) == 0:
		return NoPatternLabel
	default:
		return strings.Join(p.Labels, Separator)
	}
}

// Estimator applies a Config to weekday histograms.
type Estimator struct {
	cfg Config
}

// New returns an Estimator for cfg.
func New(cfg Config) *Estimator {
	return &Estimator{cfg: cfg}
}

// Estimate compares each rule's day with the average day.
// A ratio equal to the threshold does not trigger the rule.
func (e *Estimator) Estimate(weekdayCounts [7]int) Pattern {
	total := 0
	for _, c := range weekdayCounts {
		total += c
	}
	if total == 0 {
		return Pattern{NoData: true}
	}

	var p Pattern
	avg := float64(total) / 7
	for day, c := range weekdayCounts {
		if avg > 0 {
			p.Ratios[day] = float64(c) / avg
		}
	}
	for _, r := range e.cfg.Rules {
		if r.Day < 0 || r.Day > 6 {
			continue
		}
		if p.Ratios[r.Day] < e.cfg.Threshold {
			p.Labels = append(p.Labels, r.Label)
			p.Days = append(p.Days, r.Day)
		}
	}
	return p
}

// Estimate applies DefaultConfig and returns the label line.
func Estimate(weekdayCounts [7]int) string {
	return New(DefaultConfig()).Estimate(weekdayCounts).String()
}
