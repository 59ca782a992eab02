package models

// PlatformStats is a percentage breakdown for one platform's records.
// Percentages are rounded to one decimal in daily reports.
type PlatformStats struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
	Count    int     `json:"count"`
}

// HotTake is a highly confident non-neutral record surfaced in the daily report.
type HotTake struct {
	Platform    Platform       `json:"platform"`
	TextPreview string         `json:"text_preview"`
	Label       SentimentLabel `json:"label"`
	Confidence  float64        `json:"confidence"`
	SourceURL   string         `json:"source_url"`
}

// TrendingKeyword is one frequently mentioned term with its dominant sentiment.
type TrendingKeyword struct {
	Keyword  string         `json:"keyword"`
	Mentions int            `json:"mentions"`
	Label    SentimentLabel `json:"label"`
}

type DailyReportTotals struct {
	TotalItems  int `json:"total_items"`
	RedditItems int `json:"reddit_items"`
	XItems      int `json:"x_items"`
	Runs        int `json:"runs"`
}

type SentimentBreakdown struct {
	Reddit  PlatformStats `json:"reddit"`
	X       PlatformStats `json:"x"`
	Overall PlatformStats `json:"overall"`
}

// DailyReport aggregates every run of one report date into a single document.
type DailyReport struct {
	ReportDate         string             `json:"report_date"`
	Timestamp          string             `json:"timestamp"`
	Summary            DailyReportTotals  `json:"summary"`
	SentimentBreakdown SentimentBreakdown `json:"sentiment_breakdown"`
	TrendingKeywords   []TrendingKeyword  `json:"trending_keywords"`
	HotTakes           []HotTake          `json:"hot_takes"`
	EvidenceFiles      []string           `json:"evidence_files"`
}
