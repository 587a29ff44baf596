package analysis

import (
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/rwTZ/pkg/activity"
	"github.com/codeGROOVE-dev/rwTZ/pkg/culture"
	"github.com/codeGROOVE-dev/rwTZ/pkg/holiday"
	"github.com/codeGROOVE-dev/rwTZ/pkg/offset"
	"github.com/codeGROOVE-dev/rwTZ/pkg/sleep"
)

// Option configures an Engine.
type Option func(*OptionHolder)

// OptionHolder holds configuration options.
type OptionHolder struct {
	logger       *slog.Logger
	recorder     Recorder
	holidays     holiday.Calendar
	culture      *culture.Config
	regionLimit  int
	alternatives int
	workers      int
}

// WithLogger sets the logger used for run diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *OptionHolder) {
		o.logger = logger
	}
}

// WithRegionLimit caps how many regions are reported per group.
func WithRegionLimit(n int) Option {
	return func(o *OptionHolder) {
		o.regionLimit = n
	}
}

// WithAlternatives sets how many ranked offsets are kept next to the best one.
func WithAlternatives(n int) Option {
	return func(o *OptionHolder) {
		o.alternatives = n
	}
}

// WithCultureConfig overrides the rest-day thresholds and rules.
func WithCultureConfig(cfg culture.Config) Option {
	return func(o *OptionHolder) {
		o.culture = &cfg
	}
}

// WithHolidays sets the calendar used for the holiday pass. A nil calendar disables it.
func WithHolidays(cal holiday.Calendar) Option {
	return func(o *OptionHolder) {
		o.holidays = cal
	}
}

// WithWorkers bounds how many groups are analyzed concurrently.
func WithWorkers(n int) Option {
	return func(o *OptionHolder) {
		o.workers = n
	}
}

// WithRecorder receives per-run counters.
func WithRecorder(r Recorder) Option {
	return func(o *OptionHolder) {
		o.recorder = r
	}
}

// Recorder is notified once per analysis run.
type Recorder interface {
	RecordRun(eventsIn, eventsParsed, eventsDropped, groups int)
}

// HolidayHit counts posts made during a candidate region's holidays.
type HolidayHit struct {
	Region string `json:"region"`
	Posts  int    `json:"posts"`
}

// Result is the inference for one group. It reads, but never modifies, its histogram.
type Result struct {
	Histogram    *activity.Histogram `json:"histogram"`
	Group        string              `json:"group"`
	PatternLabel string              `json:"pattern_label"`
	Regions      []string            `json:"regions"`
	Alternatives []offset.Fit        `json:"alternatives,omitempty"`
	HolidayPosts []HolidayHit        `json:"holiday_posts,omitempty"`
	Quiet        *sleep.Window       `json:"quiet_hours,omitempty"`
	Pattern      culture.Pattern     `json:"pattern"`
	Best         offset.Fit          `json:"best"`
	BestOffset   int                 `json:"best_offset"`
	BestScore    float64             `json:"best_score"`
}

// Report is the output of one analysis run.
type Report struct {
	GeneratedAt   time.Time `json:"generated_at"`
	RunID         string    `json:"run_id"`
	Results       []Result  `json:"results"`
	EventsIn      int       `json:"events_in"`
	EventsParsed  int       `json:"events_parsed"`
	EventsDropped int       `json:"events_dropped"`
}

// Find returns the result for group.
func (r *Report) Find(group string) (*Result, bool) {
	for i := range r.Results {
		if r.Results[i].Group == group {
			return &r.Results[i], true
		}
	}
	return nil, false
}
