package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/rwTZ/pkg/analysis"
	"github.com/codeGROOVE-dev/rwTZ/pkg/metrics"
	"github.com/codeGROOVE-dev/rwTZ/pkg/tzconvert"
	"github.com/google/uuid"
	"github.com/maypok86/otter/v2"
)

// runner produces a fresh report. *pipeline.Pipeline satisfies it.
type runner interface {
	Run(ctx context.Context, year int, offline bool) (*analysis.Report, error)
}

type rateLimiter struct {
	requests map[string][]time.Time
	limit    int
	mu       sync.Mutex
}

func newRateLimiter(perMinute int) *rateLimiter {
	return &rateLimiter{
		requests: make(map[string][]time.Time),
		limit:    perMinute,
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-time.Minute)

	var valid []time.Time
	for _, t := range rl.requests[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[ip] = valid
		return false
	}

	rl.requests[ip] = append(valid, now)
	return true
}

type server struct {
	runner  runner
	year    func() int
	report  *analysis.Report
	cache   *otter.Cache[string, []byte]
	limiter *rateLimiter
	metrics *metrics.Metrics
	logger  *slog.Logger
	offline bool

	mu        sync.RWMutex // guards report
	refreshMu sync.Mutex   // serializes refreshes
}

func newServer(r runner, m *metrics.Metrics, logger *slog.Logger, resultTTL time.Duration, rateLimit int) *server {
	return &server{
		runner: r,
		year:   func() int { return time.Now().UTC().Year() },
		cache: otter.Must(&otter.Options[string, []byte]{
			MaximumSize:      10_000,
			ExpiryCalculator: otter.ExpiryWriting[string, []byte](resultTTL),
		}),
		limiter: newRateLimiter(rateLimit),
		metrics: m,
		logger:  logger,
	}
}

// refresh runs the pipeline and swaps in the new report. On failure the
// previous report keeps being served.
func (s *server) refresh(ctx context.Context) (*analysis.Report, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	report, err := s.runner.Run(ctx, s.year(), s.offline)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.report = report
	s.mu.Unlock()
	s.cache.InvalidateAll()

	s.logger.Info("Report refreshed", "run_id", report.RunID, "groups", len(report.Results))
	return report, nil
}

func (s *server) current() *analysis.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// refreshLoop refreshes every interval until ctx is done.
func (s *server) refreshLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.refresh(ctx); err != nil {
				s.logger.Error("Scheduled refresh failed", "error", err)
			}
		}
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/groups", s.metrics.Instrument("groups", http.HandlerFunc(s.handleGroups)))
	mux.Handle("GET /api/v1/groups/{name}", s.metrics.Instrument("group", http.HandlerFunc(s.handleGroup)))
	mux.Handle("POST /api/v1/refresh", s.metrics.Instrument("refresh", http.HandlerFunc(s.handleRefresh)))
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.wrap(mux)
}

func (s *server) wrap(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		defer func() {
			if err := recover(); err != nil {
				const size = 64 << 10
				buf := make([]byte, size)
				buf = buf[:runtime.Stack(buf, false)]
				s.logger.Error("PANIC: Request handler crashed",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method,
					"request_id", requestID,
					"client_ip", clientIP(r),
					"stack", string(buf))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()

		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		}

		handler.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// groupSummary is one row of the group listing.
type groupSummary struct {
	Group      string   `json:"group"`
	BestOffset string   `json:"best_offset"`
	Regions    []string `json:"regions"`
	Pattern    string   `json:"pattern"`
	BestScore  float64  `json:"best_score"`
	Posts      int      `json:"posts"`
}

type groupsResponse struct {
	GeneratedAt   time.Time      `json:"generated_at"`
	RunID         string         `json:"run_id"`
	Groups        []groupSummary `json:"groups"`
	EventsIn      int            `json:"events_in"`
	EventsDropped int            `json:"events_dropped"`
}

func summarize(report *analysis.Report) groupsResponse {
	resp := groupsResponse{
		GeneratedAt:   report.GeneratedAt,
		RunID:         report.RunID,
		EventsIn:      report.EventsIn,
		EventsDropped: report.EventsDropped,
		Groups:        make([]groupSummary, len(report.Results)),
	}
	for i := range report.Results {
		r := &report.Results[i]
		posts := 0
		if r.Histogram != nil {
			posts = r.Histogram.Total
		}
		resp.Groups[i] = groupSummary{
			Group:      r.Group,
			BestOffset: tzconvert.FormatOffset(r.BestOffset),
			BestScore:  r.BestScore,
			Regions:    r.Regions,
			Pattern:    r.PatternLabel,
			Posts:      posts,
		}
	}
	return resp
}

func (s *server) handleGroups(w http.ResponseWriter, _ *http.Request) {
	report := s.current()
	if report == nil {
		http.Error(w, "No report available yet", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, http.StatusOK, summarize(report))
}

func (s *server) handleGroup(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	report := s.current()
	if report == nil {
		http.Error(w, "No report available yet", http.StatusServiceUnavailable)
		return
	}

	key := cacheKey(report.RunID, name)
	if data, ok := s.cache.GetIfPresent(key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		if _, err := w.Write(data); err != nil {
			s.logger.Debug("Failed to write response", "error", err)
		}
		return
	}

	result, ok := report.Find(name)
	if !ok {
		http.Error(w, fmt.Sprintf("Group %q not found", name), http.StatusNotFound)
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		s.logger.Error("Failed to encode result", "group", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.cache.Set(key, data)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("Failed to write response", "error", err)
	}
}

// cacheKey scopes cached results to the run that produced them, so a
// request racing a refresh cannot repopulate the cache with the old report.
func cacheKey(runID, name string) string {
	return runID + "/" + name
}

func (s *server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if !s.limiter.allow(ip) {
		s.logger.Warn("Rate limit exceeded", "client_ip", ip, "request_id", w.Header().Get("X-Request-ID"))
		http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	report, err := s.refresh(r.Context())
	if err != nil {
		s.logger.Error("Refresh failed", "error", err, "request_id", w.Header().Get("X-Request-ID"))
		status := http.StatusBadGateway
		if errors.Is(err, context.Canceled) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, "Refresh failed", status)
		return
	}
	s.writeJSON(w, http.StatusOK, summarize(report))
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if s.current() == nil {
		http.Error(w, "warming up", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte("ok\n")); err != nil {
		s.logger.Debug("Failed to write response", "error", err)
	}
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("Failed to write response", "error", err)
	}
}
