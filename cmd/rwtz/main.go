// Package main implements the rwtz CLI, which infers ransomware groups' working
// time zones from when they post victims.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/codeGROOVE-dev/rwTZ/pkg/analysis"
	"github.com/codeGROOVE-dev/rwTZ/pkg/config"
	"github.com/codeGROOVE-dev/rwTZ/pkg/gemini"
	"github.com/codeGROOVE-dev/rwTZ/pkg/holiday"
	"github.com/codeGROOVE-dev/rwTZ/pkg/httpcache"
	"github.com/codeGROOVE-dev/rwTZ/pkg/pipeline"
	"github.com/codeGROOVE-dev/rwTZ/pkg/ransomlive"
	"github.com/codeGROOVE-dev/rwTZ/pkg/store"
)

// noForcedOffset means --force-offset was not given.
const noForcedOffset = 99

var (
	configPath   = flag.String("config", "", "YAML config file (or set RWTZ_CONFIG)")
	year         = flag.Int("year", 0, "Year of victim posts to fetch (default: current year)")
	dbPath       = flag.String("db", "", "SQLite database that accumulates posts across runs; defaults to victims.db in the user cache dir (or set RWTZ_DB)")
	baseURL      = flag.String("base-url", "", "Victims API root (default: https://api.ransomware.live)")
	offline      = flag.Bool("offline", false, "Skip fetching and analyze only what --db holds")
	group        = flag.String("group", "", "Only report this group")
	top          = flag.Int("top", 0, "Regions to list per group (default: 3)")
	forceOffset  = flag.Int("force-offset", noForcedOffset, "Report groups at this UTC offset instead of the inferred one (-12 to +14)")
	jsonOut      = flag.Bool("json", false, "Print the report as JSON")
	showHist     = flag.Bool("histogram", false, "Show hour and weekday histograms")
	noHolidays   = flag.Bool("no-holidays", false, "Skip counting posts made on regional holidays")
	cacheDir     = flag.String("cache-dir", "", "Cache directory (or set CACHE_DIR)")
	noCache      = flag.Bool("no-cache", false, "Disable caching")
	geminiAPIKey = flag.String("gemini-key", "", "Gemini API key for a narrative assessment (or set GEMINI_API_KEY)")
	geminiModel  = flag.String("gemini-model", "", "Gemini model to use (or set GEMINI_MODEL)")
	gcpProject   = flag.String("gcp-project", "", "GCP project ID for Vertex AI (or set GCP_PROJECT)")
	verbose      = flag.Bool("verbose", false, "Enable verbose logging and show alternative offsets")
	version      = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("rwTZ CLI v1.0.0")
		return
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *configPath == "" {
		*configPath = os.Getenv("RWTZ_CONFIG")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := options{
		offline:     *offline,
		group:       *group,
		forceOffset: *forceOffset,
		json:        *jsonOut,
		histogram:   *showHist,
		verbose:     *verbose,
	}
	if err := run(ctx, logger, cfg, opts, os.Stdout); err != nil {
		logger.Error("Analysis failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// applyFlags layers explicitly set flags and the legacy environment
// variables over the loaded config.
func applyFlags(cfg *config.Config) {
	if *dbPath == "" {
		*dbPath = os.Getenv("RWTZ_DB")
	}
	if *dbPath != "" {
		cfg.Store.Path = *dbPath
	}
	if *baseURL != "" {
		cfg.Source.BaseURL = *baseURL
	}
	if *year != 0 {
		cfg.Source.Year = *year
	}
	if *top > 0 {
		cfg.Analysis.RegionLimit = *top
	}
	if *noHolidays {
		cfg.Analysis.Holidays = false
	}
	if *cacheDir == "" {
		*cacheDir = os.Getenv("CACHE_DIR")
	}
	if *cacheDir != "" {
		cfg.Cache.Dir = *cacheDir
	}
	if *noCache {
		cfg.Cache.Disabled = true
	}
	if *geminiAPIKey == "" {
		*geminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if *geminiAPIKey != "" {
		cfg.Gemini.APIKey = *geminiAPIKey
	}
	if *geminiModel == "" {
		*geminiModel = os.Getenv("GEMINI_MODEL")
	}
	if *geminiModel != "" {
		cfg.Gemini.Model = *geminiModel
	}
	if *gcpProject == "" {
		*gcpProject = os.Getenv("GCP_PROJECT")
	}
	if *gcpProject != "" {
		cfg.Gemini.GCPProject = *gcpProject
	}
}

type options struct {
	group       string
	forceOffset int
	offline     bool
	json        bool
	histogram   bool
	verbose     bool
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.Config, opts options, out io.Writer) error {
	y := cfg.Source.Year
	if y == 0 {
		y = time.Now().UTC().Year()
	}

	var cache *httpcache.Cache
	if !cfg.Cache.Disabled {
		dir := cfg.Cache.Dir
		if dir == "" {
			if userCache, err := os.UserCacheDir(); err == nil {
				dir = filepath.Join(userCache, "rwtz")
			}
		}
		if dir != "" {
			c, err := httpcache.New(ctx, dir, cfg.Cache.TTL, logger)
			if err != nil {
				logger.Warn("Failed to open cache, continuing without it", "error", err)
			} else {
				cache = c
				defer func() {
					if err := cache.Close(); err != nil {
						logger.Warn("Failed to close cache", "error", err)
					}
				}()
			}
		}
	}

	engineOpts := []analysis.Option{
		analysis.WithLogger(logger),
		analysis.WithRegionLimit(cfg.Analysis.RegionLimit),
		analysis.WithCultureConfig(cfg.Analysis.Culture),
	}
	if cfg.Analysis.Workers > 0 {
		engineOpts = append(engineOpts, analysis.WithWorkers(cfg.Analysis.Workers))
	}
	if opts.verbose {
		engineOpts = append(engineOpts, analysis.WithAlternatives(max(cfg.Analysis.Alternatives, 1)))
	}
	if cfg.Analysis.Holidays {
		engineOpts = append(engineOpts, analysis.WithHolidays(holiday.Default()))
	} else {
		engineOpts = append(engineOpts, analysis.WithHolidays(nil))
	}
	engine := analysis.New(engineOpts...)

	var httpClient ransomlive.Doer = &http.Client{Timeout: cfg.Source.Timeout}
	if cache != nil {
		httpClient = httpcache.NewClient(cache, httpClient, logger)
	}
	source := ransomlive.New(logger,
		ransomlive.WithBaseURL(cfg.Source.BaseURL),
		ransomlive.WithHTTPClient(httpClient),
		ransomlive.WithRetry(cfg.Source.RetryAttempts, cfg.Source.RetryDelay),
	)
	pipeOpts := []pipeline.Option{pipeline.WithSource(source)}

	if cfg.Store.Path != "" {
		st, err := store.Open(ctx, cfg.Store.Path, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := st.Close(); err != nil {
				logger.Warn("Failed to close store", "error", err)
			}
		}()
		pipeOpts = append(pipeOpts, pipeline.WithStore(st))
	}

	report, err := pipeline.New(engine, logger, pipeOpts...).Run(ctx, y, opts.offline)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoSource) {
			return errors.New("--offline needs --db pointing at a populated database")
		}
		return err
	}

	if opts.group != "" {
		r, ok := report.Find(opts.group)
		if !ok {
			return fmt.Errorf("group %q not found among %d groups", opts.group, len(report.Results))
		}
		report.Results = []analysis.Result{*r}
	}

	if opts.forceOffset != noForcedOffset {
		if opts.forceOffset < -12 || opts.forceOffset > 14 {
			return fmt.Errorf("--force-offset %d out of range", opts.forceOffset)
		}
		// Holiday hits are not recounted for a forced offset.
		for i := range report.Results {
			report.Results[i] = engine.AnalyzeGroupAt(report.Results[i].Histogram, nil, opts.forceOffset)
		}
	}

	var assessment *gemini.Assessment
	if cfg.Gemini.Enabled() {
		if opts.group == "" {
			logger.Warn("Skipping Gemini assessment; use --group to request one")
		} else {
			assessment = assess(ctx, logger, cfg, cache, &report.Results[0])
		}
	}

	if opts.json {
		return writeJSON(out, report, assessment)
	}

	printSummary(out, report)
	for i := range report.Results {
		printResult(out, &report.Results[i], opts)
	}
	if assessment != nil {
		printAssessment(out, assessment)
	}
	return nil
}

type assessor interface {
	Assess(ctx context.Context, r *analysis.Result) (*gemini.Assessment, error)
}

var newAssessor = func(cfg *config.Config, cache gemini.Cache, logger *slog.Logger) assessor {
	return gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.GCPProject, cache, logger)
}

// assess asks Gemini for a narrative assessment of one group. It returns nil
// when the call fails; the numeric result stands on its own.
func assess(ctx context.Context, logger *slog.Logger, cfg *config.Config, cache *httpcache.Cache, r *analysis.Result) *gemini.Assessment {
	var gc gemini.Cache
	if cache != nil {
		gc = cache
	}
	a, err := newAssessor(cfg, gc, logger).Assess(ctx, r)
	if err != nil {
		logger.Error("Gemini assessment failed", "error", err)
		return nil
	}
	return a
}
