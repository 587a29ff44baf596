package activity

import (
	"math/rand/v2"
	"testing"

	"github.com/codeGROOVE-dev/rwTZ/pkg/timestamp"
)

func mustParse(t *testing.T, group, raw string) timestamp.Parsed {
	t.Helper()
	p, ok := timestamp.Normalize(group, raw)
	if !ok {
		t.Fatalf("could not parse %q", raw)
	}
	return p
}

func TestBuild(t *testing.T) {
	// Monday, Tuesday and Sunday for play; Saturday for 8base.
	events := []timestamp.Parsed{
		mustParse(t, "play", "2024-03-04 14:00:00"),
		mustParse(t, "play", "2024-03-05 14:30:00.000001"),
		mustParse(t, "play", "2024-03-10 03:00:00"),
		mustParse(t, "8base", "2024-03-09 22:15:00"),
	}

	hists := Build(events)
	if len(hists) != 2 {
		t.Fatalf("got %d groups, want 2", len(hists))
	}

	play := hists["play"]
	if play.Total != 3 {
		t.Errorf("play total = %d, want 3", play.Total)
	}
	if play.HourCounts[14] != 2 || play.HourCounts[3] != 1 {
		t.Errorf("play hour counts wrong: %v", play.HourCounts)
	}
	if play.WeekdayCounts[timestamp.Monday] != 1 || play.WeekdayCounts[timestamp.Sunday] != 1 {
		t.Errorf("play weekday counts wrong: %v", play.WeekdayCounts)
	}
	if play.WeekdayPosts() != 2 || play.WeekendPosts() != 1 {
		t.Errorf("weekday/weekend = %d/%d, want 2/1", play.WeekdayPosts(), play.WeekendPosts())
	}
	if play.Days() != 7 {
		t.Errorf("Days() = %d, want 7", play.Days())
	}
	if !play.Consistent() || !hists["8base"].Consistent() {
		t.Error("histogram sums disagree with total")
	}
	if got := Groups(hists); got[0] != "8base" || got[1] != "play" {
		t.Errorf("Groups() = %v", got)
	}
}

func TestBuildEmpty(t *testing.T) {
	if hists := Build(nil); len(hists) != 0 {
		t.Errorf("expected no groups, got %d", len(hists))
	}
}

func TestBuildOrderIndependent(t *testing.T) {
	raws := []string{
		"2024-01-01 01:00:00", "2024-01-02 09:00:00", "2024-01-03 17:00:00",
		"2024-01-04 12:00:00", "2024-01-06 23:00:00", "2024-01-07 05:00:00",
	}
	var events []timestamp.Parsed
	for i, raw := range raws {
		group := "a"
		if i%2 == 0 {
			group = "b"
		}
		events = append(events, mustParse(t, group, raw))
	}

	want := Build(events)
	r := rand.New(rand.NewPCG(1, 2))
	for range 10 {
		shuffled := append([]timestamp.Parsed(nil), events...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := Build(shuffled)
		for name, h := range want {
			if *got[name] != *h {
				t.Fatalf("group %s differs after shuffle: %+v vs %+v", name, got[name], h)
			}
		}
	}
}

func TestMergeMatchesBuild(t *testing.T) {
	events := []timestamp.Parsed{
		mustParse(t, "akira", "2024-05-01 08:00:00"),
		mustParse(t, "akira", "2024-05-02 09:00:00"),
		mustParse(t, "akira", "2024-05-03 10:00:00"),
		mustParse(t, "akira", "2024-05-04 11:00:00"),
	}
	whole := Build(events)["akira"]

	left := Build(events[:1])["akira"]
	right := Build(events[1:])["akira"]
	left.Merge(right)

	if *left != *whole {
		t.Errorf("merged %+v, want %+v", left, whole)
	}
}

func TestNormalizeAllDropsMalformed(t *testing.T) {
	raws := []RawEvent{
		{Group: "lockbit3", Discovered: "2024-06-01 10:00:00"},
		{Group: "lockbit3", Discovered: "June 1st"},
		{Group: "lockbit3", Discovered: "2024-06-01 11:00:00.123"},
		{Group: "hunters", Discovered: "2024-06-01T12:00:00Z"},
		{Group: "hunters", Discovered: ""},
	}
	parsed, dropped := NormalizeAll(raws)
	if len(parsed) != 2 || dropped != 3 {
		t.Fatalf("parsed=%d dropped=%d, want 2 and 3", len(parsed), dropped)
	}

	hists := Build(parsed)
	if _, ok := hists["hunters"]; ok {
		t.Error("group with only malformed records must not appear")
	}
	if hists["lockbit3"].Total != 2 {
		t.Errorf("lockbit3 total = %d, want 2", hists["lockbit3"].Total)
	}
}
