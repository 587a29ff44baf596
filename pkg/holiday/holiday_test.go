package holiday

import (
	"testing"
	"time"
)

func TestInPeriod(t *testing.T) {
	cal := Default()
	tests := []struct {
		name   string
		when   time.Time
		region string
		want   bool
	}{
		{"Christmas Day late evening", time.Date(2024, 12, 25, 23, 59, 0, 0, time.UTC), "US Eastern", true},
		{"Christmas Eve morning", time.Date(2024, 12, 24, 0, 0, 1, 0, time.UTC), "US Eastern", true},
		{"Day after Christmas", time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC), "US Eastern", false},
		{"Inside Passover", time.Date(2024, 4, 27, 12, 0, 0, 0, time.UTC), "Israel", true},
		{"Passover last day", time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC), "Israel", true},
		{"Region without holidays", time.Date(2024, 12, 25, 12, 0, 0, 0, time.UTC), "Japan", false},
		{"Eid", time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC), "Egypt", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cal.InPeriod(tt.when, tt.region); got != tt.want {
				t.Errorf("InPeriod(%v, %q) = %v, want %v", tt.when, tt.region, got, tt.want)
			}
		})
	}
}

func TestCount(t *testing.T) {
	instants := []time.Time{
		time.Date(2024, 3, 31, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 25, 8, 0, 0, 0, time.UTC),
	}
	if got := Default().Count(instants, "UK"); got != 2 {
		t.Errorf("Count UK = %d, want 2", got)
	}
	if got := Default().Count(instants, "Peru"); got != 0 {
		t.Errorf("Count Peru = %d, want 0", got)
	}
}

func TestRegions(t *testing.T) {
	got := Default().Regions()
	want := []string{"Egypt", "Israel", "UK", "US Eastern"}
	if len(got) != len(want) {
		t.Fatalf("Regions() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Regions()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
