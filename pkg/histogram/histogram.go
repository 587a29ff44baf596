// Package histogram renders a group's posting activity as terminal bar charts.
package histogram

import (
	"fmt"
	"strings"

	"github.com/codeGROOVE-dev/rwTZ/pkg/activity"
	"github.com/codeGROOVE-dev/rwTZ/pkg/constants"
	"github.com/codeGROOVE-dev/rwTZ/pkg/offset"
	"github.com/codeGROOVE-dev/rwTZ/pkg/sleep"
	"github.com/codeGROOVE-dev/rwTZ/pkg/timestamp"
	"github.com/codeGROOVE-dev/rwTZ/pkg/tzconvert"
	"github.com/fatih/color"
)

// MaxBarWidth caps bar length; longer bars are scaled down.
const MaxBarWidth = 50

var (
	workColor  = color.New(color.FgYellow)
	restColor  = color.New(color.FgBlue)
	barColor   = color.New(color.FgHiBlack)
	hotColor   = color.New(color.FgGreen)
	warnColor  = color.New(color.FgRed)
	headerRule = strings.Repeat("─", 50)
)

// Hours renders one line per local hour for utcOffset. Hours inside quiet
// are marked "z", other hours inside the business window "w", and the
// busiest hour's bar is highlighted. quiet may be nil.
func Hours(h *activity.Histogram, utcOffset int, quiet *sleep.Window) string {
	var out strings.Builder
	fmt.Fprintf(&out, "📊 Activity by local hour (%s)\n", tzconvert.FormatOffset(utcOffset))
	out.WriteString(headerRule + "\n")
	if warning := limitedData(h.Total); warning != "" {
		out.WriteString(warning)
	}

	peak := 0
	for _, n := range h.HourCounts {
		peak = max(peak, n)
	}
	if peak == 0 {
		return out.String() + "No activity data available\n"
	}

	for local := range 24 {
		utc := tzconvert.LocalToUTC(local, utcOffset)
		n := h.HourCounts[utc]

		line := fmt.Sprintf("%02d:00 ", local)
		switch {
		case quiet != nil && quiet.Contains(utc):
			line += restColor.Sprint("z") + " "
		case tzconvert.InWindow(local, offset.BusinessStart, offset.BusinessEnd):
			line += workColor.Sprint("w") + " "
		default:
			line += "  "
		}
		line += count(n)

		c := barColor
		if n == peak {
			c = hotColor
		}
		line += bar(n, peak, c)
		out.WriteString(line + "\n")
	}
	return out.String()
}

// Weekdays renders one line per weekday, Monday first. Days listed in rest are
// marked "r".
func Weekdays(h *activity.Histogram, rest ...int) string {
	var out strings.Builder
	out.WriteString("📅 Activity by weekday (UTC)\n")
	out.WriteString(headerRule + "\n")

	peak := 0
	for _, n := range h.WeekdayCounts {
		peak = max(peak, n)
	}
	if peak == 0 {
		return out.String() + "No activity data available\n"
	}

	restDay := make(map[int]bool, len(rest))
	for _, d := range rest {
		restDay[d] = true
	}
	for day, n := range h.WeekdayCounts {
		line := fmt.Sprintf("%-9s ", timestamp.WeekdayName(day))
		if restDay[day] {
			line += restColor.Sprint("r") + " "
		} else {
			line += "  "
		}
		line += count(n) + bar(n, peak, barColor)
		out.WriteString(line + "\n")
	}
	return out.String()
}

func limitedData(total int) string {
	if total >= constants.LimitedData {
		return ""
	}
	return warnColor.Sprintf("⚠️  Limited data: only %d posts available\n", total) + headerRule + "\n"
}

func count(n int) string {
	if n == 0 {
		return "       "
	}
	return fmt.Sprintf("(%4d) ", n)
}

// bar scales n against peak so the peak spans MaxBarWidth when it would
// otherwise overflow. Non-zero counts always get at least one cell.
func bar(n, peak int, c *color.Color) string {
	if n == 0 {
		return ""
	}
	width := n
	if peak > MaxBarWidth {
		width = n * MaxBarWidth / peak
	}
	if width == 0 {
		return c.Sprint("·")
	}
	return c.Sprint(strings.Repeat("█", width))
}
