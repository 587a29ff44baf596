// Package pipeline wires ingestion, persistence and analysis together:
// fetch a year of victim posts, merge them into the store, and analyze
// everything stored.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/codeGROOVE-dev/rwTZ/pkg/activity"
	"github.com/codeGROOVE-dev/rwTZ/pkg/analysis"
)

// ErrNoSource is returned when there is nothing to analyze from: offline
// without a store.
var ErrNoSource = errors.New("offline mode requires a store")

// Source fetches victim posts. *ransomlive.Client satisfies it.
type Source interface {
	Victims(ctx context.Context, year int) ([]activity.RawEvent, error)
}

// Store persists victim posts. *store.Store satisfies it.
type Store interface {
	Insert(ctx context.Context, events []activity.RawEvent) (int, error)
	All(ctx context.Context) ([]activity.RawEvent, error)
}

// Recorder is notified of ingestion outcomes. *metrics.Metrics satisfies it.
type Recorder interface {
	FetchFailed()
	Stored(n int)
}

// Pipeline runs one fetch-store-analyze cycle at a time; callers serialize.
type Pipeline struct {
	source   Source
	store    Store
	recorder Recorder
	engine   *analysis.Engine
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSource sets where posts are fetched from. Without one every run is offline.
func WithSource(s Source) Option {
	return func(p *Pipeline) {
		p.source = s
	}
}

// WithStore persists fetched posts and analyzes the full stored history.
func WithStore(s Store) Option {
	return func(p *Pipeline) {
		p.store = s
	}
}

// WithRecorder receives ingestion counters.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		p.recorder = r
	}
}

// New creates a Pipeline around engine.
func New(engine *analysis.Engine, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{engine: engine, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Gather returns the posts to analyze. Unless offline, year is fetched first
// and merged into the store. With a store the whole stored history is
// returned, otherwise just the fetched posts. A failed fetch is fatal only
// without a store; with one, the stored history is still returned.
func (p *Pipeline) Gather(ctx context.Context, year int, offline bool) ([]activity.RawEvent, error) {
	var fetched []activity.RawEvent
	if !offline && p.source != nil {
		events, err := p.source.Victims(ctx, year)
		switch {
		case err != nil:
			if p.recorder != nil {
				p.recorder.FetchFailed()
			}
			if p.store == nil {
				return nil, fmt.Errorf("fetching %d: %w", year, err)
			}
			p.logger.Warn("fetch failed, analyzing stored victims", "year", year, "error", err)
		default:
			fetched = events
			p.logger.Info("fetched victims", "year", year, "events", len(fetched))
		}
	}

	if p.store == nil {
		if offline || p.source == nil {
			return nil, ErrNoSource
		}
		return fetched, nil
	}

	if len(fetched) > 0 {
		n, err := p.store.Insert(ctx, fetched)
		if err != nil {
			return nil, fmt.Errorf("storing victims: %w", err)
		}
		if p.recorder != nil {
			p.recorder.Stored(n)
		}
		p.logger.Info("stored victims", "new", n, "offered", len(fetched))
	}

	all, err := p.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading stored victims: %w", err)
	}
	return all, nil
}

// Run gathers posts and analyzes them.
func (p *Pipeline) Run(ctx context.Context, year int, offline bool) (*analysis.Report, error) {
	raws, err := p.Gather(ctx, year, offline)
	if err != nil {
		return nil, err
	}
	return p.engine.Analyze(ctx, raws)
}
