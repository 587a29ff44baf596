package gemini

import (
	"fmt"
	"strings"

	"github.com/codeGROOVE-dev/rwTZ/pkg/analysis"
	"github.com/codeGROOVE-dev/rwTZ/pkg/timestamp"
	"github.com/codeGROOVE-dev/rwTZ/pkg/tzconvert"
)

const promptTemplate = `You are assisting a threat intelligence analyst. Estimate where the operators of a
ransomware group most likely work, based only on when the group publishes victims to its leak site.

EVIDENCE:
%s

RULES:
- The offset was chosen because it places the most posts inside a 09:00-17:00 local working day.
  Stay within ±1 hour of the best offset or one of the alternatives listed.
- Low posting on a rest day supports cultures that observe it; treat it as a weak signal.
- Posts on a candidate region's public holidays weaken that region.
- With fewer than %d posts, confidence must be "low".
- Name a region or country, never a city. Do not speculate about individuals.
`

// MinConfidentPosts is the post count below which an assessment is always low confidence.
const MinConfidentPosts = 50

// Evidence renders a result as the plain-text block embedded in the prompt.
func Evidence(r *analysis.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Group: %s\n", r.Group)
	if h := r.Histogram; h != nil {
		fmt.Fprintf(&b, "Posts: %d (weekday %d, weekend %d)\n", h.Total, h.WeekdayPosts(), h.WeekendPosts())
		if !h.First.IsZero() {
			fmt.Fprintf(&b, "Time range analyzed: %s to %s\n", h.First.Format("2006-01-02"), h.Last.Format("2006-01-02"))
		}
		b.WriteString("Posts per UTC hour:")
		for hour, n := range h.HourCounts {
			fmt.Fprintf(&b, " %02d=%d", hour, n)
		}
		b.WriteString("\nPosts per weekday:")
		for day, n := range h.WeekdayCounts {
			fmt.Fprintf(&b, " %s=%d", timestamp.WeekdayName(day), n)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Best offset: %s (%.1f%% of posts in working hours)\n", tzconvert.FormatOffset(r.BestOffset), r.BestScore*100)
	if len(r.Alternatives) > 0 {
		alts := make([]string, len(r.Alternatives))
		for i, a := range r.Alternatives {
			alts[i] = fmt.Sprintf("%s (%.1f%%)", tzconvert.FormatOffset(a.Offset), a.Fraction*100)
		}
		fmt.Fprintf(&b, "Alternatives: %s\n", strings.Join(alts, ", "))
	}
	fmt.Fprintf(&b, "Candidate regions: %s\n", strings.Join(r.Regions, ", "))
	if q := r.Quiet; q != nil {
		fmt.Fprintf(&b, "Quietest stretch: %02d:00-%02d:00 UTC (%d posts in %d hours)\n",
			q.StartUTC, (q.StartUTC+q.Hours)%24, q.Posts, q.Hours)
	}
	fmt.Fprintf(&b, "Rest-day pattern: %s\n", r.PatternLabel)
	for _, hit := range r.HolidayPosts {
		fmt.Fprintf(&b, "Posts during %s holidays: %d\n", hit.Region, hit.Posts)
	}
	return b.String()
}

// Prompt builds the full request text for r.
func Prompt(r *analysis.Result) string {
	return fmt.Sprintf(promptTemplate, Evidence(r), MinConfidentPosts)
}
