package report

import (
	"fmt"
	"strings"

	"crowdpulse/internal/models"
)

// ComposeSocialPost renders the daily report as the plain-text summary post
// published alongside the evidence files.
func ComposeSocialPost(report models.DailyReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Daily sentiment pulse — %s\n\n", report.ReportDate)
	fmt.Fprintf(&b, "Analyzed %d items across %d runs (%d reddit, %d x).\n\n",
		report.Summary.TotalItems, report.Summary.Runs,
		report.Summary.RedditItems, report.Summary.XItems)

	overall := report.SentimentBreakdown.Overall
	fmt.Fprintf(&b, "Overall mood:\n")
	fmt.Fprintf(&b, "  positive %.1f%%\n", overall.Positive)
	fmt.Fprintf(&b, "  neutral  %.1f%%\n", overall.Neutral)
	fmt.Fprintf(&b, "  negative %.1f%%\n", overall.Negative)

	if len(report.TrendingKeywords) > 0 {
		b.WriteString("\nTrending:")
		for i, keyword := range report.TrendingKeywords {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, " #%s", keyword.Keyword)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nFull evidence log attached.\n")
	return b.String()
}
