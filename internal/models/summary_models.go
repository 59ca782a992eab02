package models

import "time"

// Summary is the outcome of one finished AnalysisRun.
type Summary struct {
	AnalysisID       string                     `json:"analysis_id"`
	SourceURL        string                     `json:"source_url"`
	TotalItems       int                        `json:"total_items"`
	SentimentSummary map[SentimentLabel]float64 `json:"sentiment_summary"`
	StartedAt        time.Time                  `json:"started_at"`
	FinishedAt       time.Time                  `json:"finished_at"`
	Duration         time.Duration              `json:"duration"`
	Warning          string                     `json:"warning,omitempty"`
}

// EvidenceReport is the JSON export shape for one run. The evidence_log field
// names the CSV file carrying the per-item records.
type EvidenceReport struct {
	AnalysisID       string                     `json:"analysis_id"`
	Timestamp        string                     `json:"timestamp"`
	SourceURL        string                     `json:"source_url"`
	TotalComments    int                        `json:"total_comments"`
	SentimentSummary map[SentimentLabel]float64 `json:"sentiment_summary"`
	EvidenceLog      string                     `json:"evidence_log"`
	ProcessingTime   string                     `json:"processing_time"`
	Warning          string                     `json:"warning,omitempty"`
}
