package histogram

import (
	"strings"
	"testing"

	"github.com/codeGROOVE-dev/rwTZ/pkg/activity"
	"github.com/codeGROOVE-dev/rwTZ/pkg/sleep"
	"github.com/fatih/color"
)

func init() {
	color.NoColor = true
}

func lineFor(t *testing.T, out, prefix string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, prefix) {
			return line
		}
	}
	t.Fatalf("no line starting with %q in:\n%s", prefix, out)
	return ""
}

func TestHoursShiftsToLocal(t *testing.T) {
	h := &activity.Histogram{Total: 3}
	h.HourCounts[14] = 3 // 09:00 at UTC-5

	out := Hours(h, -5, nil)
	if !strings.Contains(out, "(UTC-5)") {
		t.Errorf("header missing offset:\n%s", out)
	}
	if got := lineFor(t, out, "09:00"); got != "09:00 w (   3) ███" {
		t.Errorf("09:00 line = %q", got)
	}
	if got := lineFor(t, out, "14:00"); got != "14:00 w        " {
		t.Errorf("14:00 line = %q", got)
	}
	if got := lineFor(t, out, "08:00"); got != "08:00          " {
		t.Errorf("08:00 line = %q", got)
	}
	if !strings.Contains(out, "Limited data: only 3 posts") {
		t.Errorf("expected limited data warning:\n%s", out)
	}
}

func TestHoursScalesLongBars(t *testing.T) {
	h := &activity.Histogram{Total: 201}
	h.HourCounts[0] = 200
	h.HourCounts[1] = 1

	out := Hours(h, 0, nil)
	if got := lineFor(t, out, "00:00"); strings.Count(got, "█") != MaxBarWidth {
		t.Errorf("peak bar width = %d, want %d", strings.Count(got, "█"), MaxBarWidth)
	}
	if got := lineFor(t, out, "01:00"); !strings.HasSuffix(got, "·") {
		t.Errorf("tiny bar should render as a dot: %q", got)
	}
	if strings.Contains(out, "Limited data") {
		t.Error("unexpected limited data warning")
	}
}

func TestHoursEmpty(t *testing.T) {
	out := Hours(&activity.Histogram{}, 0, nil)
	if !strings.HasSuffix(out, "No activity data available\n") {
		t.Errorf("empty histogram output:\n%s", out)
	}
}

func TestWeekdays(t *testing.T) {
	h := &activity.Histogram{Total: 6}
	h.WeekdayCounts[0] = 5
	h.WeekdayCounts[6] = 1

	out := Weekdays(h, 6)
	if got := lineFor(t, out, "Monday"); got != "Monday      (   5) █████" {
		t.Errorf("Monday line = %q", got)
	}
	if got := lineFor(t, out, "Sunday"); got != "Sunday    r (   1) █" {
		t.Errorf("Sunday line = %q", got)
	}
	if got := lineFor(t, out, "Friday"); got != "Friday             " {
		t.Errorf("Friday line = %q", got)
	}
}

func TestHoursMarksQuiet(t *testing.T) {
	h := &activity.Histogram{Total: 30}
	h.HourCounts[12] = 30
	quiet := &sleep.Window{StartUTC: 0, Hours: 6}

	out := Hours(h, 3, quiet)
	// 00:00 UTC is 03:00 at UTC+3; 06:00 UTC (09:00 local) is outside the window.
	if got := lineFor(t, out, "03:00"); !strings.HasPrefix(got, "03:00 z") {
		t.Errorf("03:00 line = %q", got)
	}
	if got := lineFor(t, out, "09:00"); !strings.HasPrefix(got, "09:00 w") {
		t.Errorf("09:00 line = %q", got)
	}
	if got := lineFor(t, out, "02:00"); strings.HasPrefix(got, "02:00 z") {
		t.Errorf("02:00 should not be quiet: %q", got)
	}
}
