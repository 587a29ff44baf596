package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/codeGROOVE-dev/rwTZ/pkg/analysis"
	"github.com/codeGROOVE-dev/rwTZ/pkg/gemini"
	"github.com/codeGROOVE-dev/rwTZ/pkg/histogram"
	"github.com/codeGROOVE-dev/rwTZ/pkg/tzconvert"
)

var rule = strings.Repeat("─", 50)

// jsonOutput is the report with the optional narrative alongside it.
type jsonOutput struct {
	*analysis.Report
	Assessment *gemini.Assessment `json:"assessment,omitempty"`
}

func writeJSON(out io.Writer, report *analysis.Report, a *gemini.Assessment) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonOutput{Report: report, Assessment: a}); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

func printSummary(out io.Writer, report *analysis.Report) {
	fmt.Fprintf(out, "🔎 Analyzed %d posts (%d unreadable) across %d groups\n",
		report.EventsIn, report.EventsDropped, len(report.Results))
}

func printResult(out io.Writer, r *analysis.Result, opts options) {
	fmt.Fprintf(out, "\n🏴 Group: %s\n", r.Group)
	fmt.Fprintln(out, rule)

	label := "Best offset:"
	if opts.forceOffset != noForcedOffset {
		label = "Forced offset:"
	}
	fmt.Fprintf(out, "🕐 %-15s%s (9–5 match %.2f, ≈ %.1f%% in local 9–5)\n",
		label, tzconvert.FormatOffset(r.BestOffset), r.BestScore, r.BestScore*100)

	if h := r.Histogram; h != nil {
		fmt.Fprintf(out, "📈 Posts:         %d (weekdays %d, weekends %d)\n", h.Total, h.WeekdayPosts(), h.WeekendPosts())
		if h.Total > 0 {
			fmt.Fprintf(out, "📅 Active:        %s → %s (%d days)\n",
				h.First.Format("2006-01-02"), h.Last.Format("2006-01-02"), h.Days())
		}
	}
	fmt.Fprintf(out, "🌍 Regions:       %s\n", strings.Join(r.Regions, ", "))
	fmt.Fprintf(out, "🙏 Rest days:     %s\n", r.PatternLabel)

	if q := r.Quiet; q != nil {
		fmt.Fprintf(out, "😴 Quiet hours:   %02d:00–%02d:00 local (%d posts in %d hours)\n",
			q.LocalStart(r.BestOffset), q.LocalEnd(r.BestOffset), q.Posts, q.Hours)
	}
	if len(r.HolidayPosts) > 0 {
		hits := make([]string, len(r.HolidayPosts))
		for i, hit := range r.HolidayPosts {
			hits[i] = fmt.Sprintf("%s %d", hit.Region, hit.Posts)
		}
		fmt.Fprintf(out, "🎉 Holiday posts: %s\n", strings.Join(hits, ", "))
	}

	if opts.verbose && len(r.Alternatives) > 0 {
		fmt.Fprintln(out, "   Alternatives:")
		for i, alt := range r.Alternatives {
			fmt.Fprintf(out, "   %d. %s (%.1f%%, %d of %d posts)\n",
				i+2, tzconvert.FormatOffset(alt.Offset), alt.Fraction*100, alt.BusinessPosts, alt.Total)
		}
	}

	if opts.histogram && r.Histogram != nil {
		fmt.Fprintln(out)
		fmt.Fprint(out, histogram.Hours(r.Histogram, r.BestOffset, r.Quiet))
		fmt.Fprintln(out)
		fmt.Fprint(out, histogram.Weekdays(r.Histogram, r.Pattern.Days...))
	}
}

func printAssessment(out io.Writer, a *gemini.Assessment) {
	fmt.Fprintf(out, "🤖 Assessment:    %s (%s confidence)\n", a.LikelyRegion, a.ConfidenceLevel)
	if a.Reasoning != "" {
		fmt.Fprintf(out, "                  └─ %s\n", a.Reasoning)
	}
}
