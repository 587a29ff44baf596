package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/codeGROOVE-dev/rwTZ/pkg/analysis"
	"github.com/codeGROOVE-dev/rwTZ/pkg/config"
	"github.com/codeGROOVE-dev/rwTZ/pkg/gemini"
	"github.com/fatih/color"
)

const victimsJSON = `[
	{"group_name": "play", "discovered": "2024-03-04 14:00:00.123456", "country": "US"},
	{"group_name": "play", "discovered": "2024-03-05 15:30:00"},
	{"group_name": "play", "discovered": "2024-03-06 16:10:00"},
	{"group_name": "akira", "discovered": "2024-03-07 08:00:00"},
	{"group_name": "akira", "discovered": "not a date"},
	{"group_name": "", "discovered": "2024-03-07 08:00:00"}
]`

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Source.BaseURL = baseURL
	cfg.Source.Year = 2024
	cfg.Source.RetryAttempts = 1
	cfg.Cache.Disabled = true
	cfg.Store.Path = filepath.Join(t.TempDir(), "victims.db")
	return cfg
}

func victimsServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/victims/2024" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(victimsJSON)); err != nil {
			t.Errorf("write: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func baseOptions() options {
	return options{forceOffset: noForcedOffset}
}

func TestRunText(t *testing.T) {
	color.NoColor = true
	srv := victimsServer(t)
	cfg := testConfig(t, srv.URL)

	var out bytes.Buffer
	opts := baseOptions()
	opts.histogram = true
	if err := run(context.Background(), slog.New(slog.DiscardHandler), cfg, opts, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Analyzed 5 posts (1 unreadable) across 2 groups",
		"🏴 Group: akira",
		"🏴 Group: play",
		"Best offset:   UTC-5 (9–5 match 1.00",
		"Posts:         3 (weekdays 3, weekends 0)",
		"Regions:       US Eastern, Canada (Eastern), Colombia",
		"Activity by local hour (UTC-5)",
		"Activity by weekday (UTC)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\n%s", want, got)
		}
	}
	if strings.Index(got, "Group: akira") > strings.Index(got, "Group: play") {
		t.Error("groups not in sorted order")
	}
}

func TestRunJSONGroupFilter(t *testing.T) {
	srv := victimsServer(t)
	cfg := testConfig(t, srv.URL)

	var out bytes.Buffer
	opts := baseOptions()
	opts.json = true
	opts.group = "play"
	if err := run(context.Background(), slog.New(slog.DiscardHandler), cfg, opts, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	var report analysis.Report
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, out.String())
	}
	if len(report.Results) != 1 || report.Results[0].Group != "play" {
		t.Fatalf("results = %+v", report.Results)
	}
	if report.Results[0].BestOffset != -5 {
		t.Errorf("best offset = %d, want -5", report.Results[0].BestOffset)
	}
}

type fixedAssessor struct {
	calls int
}

func (f *fixedAssessor) Assess(_ context.Context, r *analysis.Result) (*gemini.Assessment, error) {
	f.calls++
	return &gemini.Assessment{LikelyRegion: "US Eastern", ConfidenceLevel: "low", Reasoning: r.Group}, nil
}

func stubAssessor(t *testing.T) *fixedAssessor {
	t.Helper()
	fake := &fixedAssessor{}
	orig := newAssessor
	newAssessor = func(*config.Config, gemini.Cache, *slog.Logger) assessor { return fake }
	t.Cleanup(func() { newAssessor = orig })
	return fake
}

func TestRunJSONIncludesAssessment(t *testing.T) {
	fake := stubAssessor(t)
	srv := victimsServer(t)
	cfg := testConfig(t, srv.URL)
	cfg.Gemini.APIKey = "test-key"

	var out bytes.Buffer
	opts := baseOptions()
	opts.json = true
	opts.group = "play"
	if err := run(context.Background(), slog.New(slog.DiscardHandler), cfg, opts, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	var got struct {
		Assessment *gemini.Assessment `json:"assessment"`
		Results    []analysis.Result  `json:"results"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, out.String())
	}
	if fake.calls != 1 {
		t.Errorf("assessor calls = %d, want 1", fake.calls)
	}
	if got.Assessment == nil || got.Assessment.LikelyRegion != "US Eastern" || got.Assessment.Reasoning != "play" {
		t.Fatalf("assessment = %+v", got.Assessment)
	}
	if len(got.Results) != 1 {
		t.Errorf("results = %d, want 1", len(got.Results))
	}
}

func TestRunSkipsAssessmentWithoutGroup(t *testing.T) {
	fake := stubAssessor(t)
	srv := victimsServer(t)
	cfg := testConfig(t, srv.URL)
	cfg.Gemini.APIKey = "test-key"

	var out bytes.Buffer
	opts := baseOptions()
	opts.json = true
	if err := run(context.Background(), slog.New(slog.DiscardHandler), cfg, opts, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if fake.calls != 0 {
		t.Errorf("assessor calls = %d, want 0", fake.calls)
	}
	if strings.Contains(out.String(), `"assessment"`) {
		t.Errorf("unexpected assessment in output:\n%s", out.String())
	}
}

func TestRunOfflineUsesStore(t *testing.T) {
	srv := victimsServer(t)
	cfg := testConfig(t, srv.URL)
	logger := slog.New(slog.DiscardHandler)

	// First run populates the store.
	if err := run(context.Background(), logger, cfg, baseOptions(), &bytes.Buffer{}); err != nil {
		t.Fatalf("online run: %v", err)
	}
	srv.Close()

	var out bytes.Buffer
	opts := baseOptions()
	opts.offline = true
	if err := run(context.Background(), logger, cfg, opts, &out); err != nil {
		t.Fatalf("offline run: %v", err)
	}
	if !strings.Contains(out.String(), "Analyzed 5 posts") {
		t.Errorf("offline output:\n%s", out.String())
	}
}

func TestRunOfflineWithoutStore(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:0")
	cfg.Store.Path = ""
	opts := baseOptions()
	opts.offline = true
	if err := run(context.Background(), slog.New(slog.DiscardHandler), cfg, opts, &bytes.Buffer{}); err == nil {
		t.Error("expected error for offline run without a store")
	}
}

func TestRunForcedOffset(t *testing.T) {
	srv := victimsServer(t)
	cfg := testConfig(t, srv.URL)

	var out bytes.Buffer
	opts := baseOptions()
	opts.group = "play"
	opts.forceOffset = 3
	if err := run(context.Background(), slog.New(slog.DiscardHandler), cfg, opts, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Forced offset: UTC+3 (9–5 match 0.00") {
		t.Errorf("output:\n%s", out.String())
	}

	opts.forceOffset = 20
	if err := run(context.Background(), slog.New(slog.DiscardHandler), cfg, opts, &bytes.Buffer{}); err == nil {
		t.Error("expected error for out-of-range offset")
	}
}

func TestRunUnknownGroup(t *testing.T) {
	srv := victimsServer(t)
	cfg := testConfig(t, srv.URL)
	opts := baseOptions()
	opts.group = "nobody"
	if err := run(context.Background(), slog.New(slog.DiscardHandler), cfg, opts, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown group")
	}
}
