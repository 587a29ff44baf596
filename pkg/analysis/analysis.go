// Package analysis runs the full inference over a set of victim posts:
// normalize, build histograms, pick the best offset, guess the rest-day
// pattern and look up regions.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/codeGROOVE-dev/rwTZ/pkg/activity"
	"github.com/codeGROOVE-dev/rwTZ/pkg/culture"
	"github.com/codeGROOVE-dev/rwTZ/pkg/holiday"
	"github.com/codeGROOVE-dev/rwTZ/pkg/offset"
	"github.com/codeGROOVE-dev/rwTZ/pkg/region"
	"github.com/codeGROOVE-dev/rwTZ/pkg/sleep"
	"github.com/codeGROOVE-dev/rwTZ/pkg/timestamp"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultRegionLimit is the number of regions reported per group.
const DefaultRegionLimit = 3

// Engine performs analysis runs. It holds no state between runs and is safe
// for concurrent use.
type Engine struct {
	logger       *slog.Logger
	recorder     Recorder
	estimator    *culture.Estimator
	holidays     holiday.Calendar
	regionLimit  int
	alternatives int
	workers      int
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	o := &OptionHolder{
		regionLimit: DefaultRegionLimit,
		holidays:    holiday.Default(),
		workers:     runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg := culture.DefaultConfig()
	if o.culture != nil {
		cfg = *o.culture
	}
	if o.workers < 1 {
		o.workers = 1
	}

	return &Engine{
		logger:       logger,
		recorder:     o.recorder,
		estimator:    culture.New(cfg),
		holidays:     o.holidays,
		regionLimit:  o.regionLimit,
		alternatives: o.alternatives,
		workers:      o.workers,
	}
}

// Analyze infers offsets and patterns for every group in raws. Records with
// unreadable discovery times are dropped and counted, never fatal.
func (e *Engine) Analyze(ctx context.Context, raws []activity.RawEvent) (*Report, error) {
	report := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		EventsIn:    len(raws),
	}
	logger := e.logger.With("run_id", report.RunID)

	parsed, dropped := activity.NormalizeAll(raws)
	report.EventsParsed = len(parsed)
	report.EventsDropped = dropped
	if dropped > 0 {
		logger.Debug("dropped events with unreadable discovery time", "dropped", dropped, "events_in", len(raws))
	}

	hists := activity.Build(parsed)
	instants := instantsByGroup(parsed)
	groups := activity.Groups(hists)
	report.Results = make([]Result, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, name := range groups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report.Results[i] = e.AnalyzeGroup(hists[name], instants[name])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analyzing groups: %w", err)
	}

	if e.recorder != nil {
		e.recorder.RecordRun(report.EventsIn, report.EventsParsed, report.EventsDropped, len(groups))
	}
	logger.Info("analysis complete",
		"events_in", report.EventsIn,
		"events_parsed", report.EventsParsed,
		"events_dropped", report.EventsDropped,
		"groups", len(groups))

	return report, nil
}

// AnalyzeGroup produces the result for a single histogram. instants are the
// group's post times, used only for the holiday pass; nil skips it.
func (e *Engine) AnalyzeGroup(h *activity.Histogram, instants []time.Time) Result {
	return e.resultAt(h, instants, offset.SelectBest(h.HourCounts))
}

// AnalyzeGroupAt is AnalyzeGroup with the offset pinned to utcOffset instead
// of searched for. Offsets outside the table report region.Unknown.
func (e *Engine) AnalyzeGroupAt(h *activity.Histogram, instants []time.Time, utcOffset int) Result {
	return e.resultAt(h, instants, offset.Score(h.HourCounts, utcOffset))
}

func (e *Engine) resultAt(h *activity.Histogram, instants []time.Time, best offset.Fit) Result {
	pattern := e.estimator.Estimate(h.WeekdayCounts)
	regions := region.For(best.Offset, e.regionLimit)

	r := Result{
		Group:        h.Group,
		Best:         best,
		BestOffset:   best.Offset,
		BestScore:    best.Fraction,
		Histogram:    h,
		Pattern:      pattern,
		PatternLabel: pattern.String(),
		Regions:      regions,
	}
	if e.alternatives > 0 {
		// The first ranked fit is the best one.
		r.Alternatives = offset.Ranked(h.HourCounts, e.alternatives+1)[1:]
	}
	if w, ok := sleep.Quietest(h.HourCounts); ok {
		r.Quiet = &w
	}
	if e.holidays != nil && len(instants) > 0 {
		for _, name := range regions {
			if n := e.holidays.Count(instants, name); n > 0 {
				r.HolidayPosts = append(r.HolidayPosts, HolidayHit{Region: name, Posts: n})
			}
		}
	}

	e.logger.Debug("group analyzed",
		"group", h.Group,
		"posts", h.Total,
		"best_offset", best.Offset,
		"best_score", best.Fraction,
		"pattern", r.PatternLabel)
	return r
}

func instantsByGroup(events []timestamp.Parsed) map[string][]time.Time {
	m := make(map[string][]time.Time)
	for i := range events {
		m[events[i].Group] = append(m[events[i].Group], events[i].Instant)
	}
	return m
}
