// Package main implements rwtz-server, which keeps a periodically refreshed
// time zone report for every ransomware group and serves it over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codeGROOVE-dev/rwTZ/pkg/analysis"
	"github.com/codeGROOVE-dev/rwTZ/pkg/config"
	"github.com/codeGROOVE-dev/rwTZ/pkg/holiday"
	"github.com/codeGROOVE-dev/rwTZ/pkg/httpcache"
	"github.com/codeGROOVE-dev/rwTZ/pkg/metrics"
	"github.com/codeGROOVE-dev/rwTZ/pkg/pipeline"
	"github.com/codeGROOVE-dev/rwTZ/pkg/ransomlive"
	"github.com/codeGROOVE-dev/rwTZ/pkg/store"
)

var (
	configPath = flag.String("config", "", "YAML config file (or set RWTZ_CONFIG)")
	port       = flag.String("port", "", "Port for web server (or set PORT; default from config)")
	dbPath     = flag.String("db", "", "SQLite database that accumulates posts (or set RWTZ_DB)")
	offline    = flag.Bool("offline", false, "Never fetch; serve analysis of --db only")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("rwTZ Server v1.0.0")
		return
	}

	if *configPath == "" {
		*configPath = os.Getenv("RWTZ_CONFIG")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *dbPath == "" {
		*dbPath = os.Getenv("RWTZ_DB")
	}
	if *dbPath != "" {
		cfg.Store.Path = *dbPath
	}
	if *port == "" {
		*port = os.Getenv("PORT")
	}
	if *port != "" {
		cfg.Server.Addr = ":" + *port
	}

	level := cfg.Logging.SlogLevel()
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("Server configuration",
		"addr", cfg.Server.Addr,
		"base_url", cfg.Source.BaseURL,
		"db", cfg.Store.Path,
		"offline", *offline,
		"refresh_interval", cfg.Server.RefreshInterval,
		"result_ttl", cfg.Server.ResultTTL)

	if err := serve(logger, cfg, *offline); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

func serve(logger *slog.Logger, cfg *config.Config, offline bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	engineOpts := []analysis.Option{
		analysis.WithLogger(logger),
		analysis.WithRecorder(m),
		analysis.WithRegionLimit(cfg.Analysis.RegionLimit),
		analysis.WithAlternatives(cfg.Analysis.Alternatives),
		analysis.WithCultureConfig(cfg.Analysis.Culture),
	}
	if cfg.Analysis.Workers > 0 {
		engineOpts = append(engineOpts, analysis.WithWorkers(cfg.Analysis.Workers))
	}
	if cfg.Analysis.Holidays {
		engineOpts = append(engineOpts, analysis.WithHolidays(holiday.Default()))
	} else {
		engineOpts = append(engineOpts, analysis.WithHolidays(nil))
	}

	// Server responses are short-lived; keep the upstream cache in memory.
	var httpClient ransomlive.Doer = &http.Client{Timeout: cfg.Source.Timeout}
	if !cfg.Cache.Disabled {
		httpClient = httpcache.NewClient(httpcache.NewMemoryOnly(cfg.Cache.TTL, logger), httpClient, logger)
	}
	pipeOpts := []pipeline.Option{
		pipeline.WithRecorder(m),
		pipeline.WithSource(ransomlive.New(logger,
			ransomlive.WithBaseURL(cfg.Source.BaseURL),
			ransomlive.WithHTTPClient(httpClient),
			ransomlive.WithRetry(cfg.Source.RetryAttempts, cfg.Source.RetryDelay),
		)),
	}
	if cfg.Store.Path != "" {
		st, err := store.Open(ctx, cfg.Store.Path, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := st.Close(); err != nil {
				logger.Error("Failed to close store", "error", err)
			}
		}()
		pipeOpts = append(pipeOpts, pipeline.WithStore(st))
	}

	s := newServer(pipeline.New(analysis.New(engineOpts...), logger, pipeOpts...), m, logger,
		cfg.Server.ResultTTL, cfg.Server.RateLimit)
	s.offline = offline
	if cfg.Source.Year != 0 {
		y := cfg.Source.Year
		s.year = func() int { return y }
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute, // refresh can fetch a full year
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	refreshDone := make(chan struct{})
	go func() {
		defer close(refreshDone)
		if _, err := s.refresh(ctx); err != nil {
			logger.Error("Initial refresh failed", "error", err)
		}
		s.refreshLoop(ctx, cfg.Server.RefreshInterval)
	}()

	var listenErr error
	select {
	case listenErr = <-errCh:
	case <-ctx.Done():
	}
	// The store must outlive the refresher.
	stop()
	<-refreshDone
	if listenErr != nil {
		return listenErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
