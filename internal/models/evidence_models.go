package models

import "time"

type Platform string

const (
	PlatformReddit Platform = "reddit"
	PlatformX      Platform = "x"
)

// Valid reports whether p is one of the platforms we collect from.
func (p Platform) Valid() bool {
	return p == PlatformReddit || p == PlatformX
}

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// Labels returns every recognized sentiment label, in summary order.
func Labels() []SentimentLabel {
	return []SentimentLabel{SentimentPositive, SentimentNeutral, SentimentNegative}
}

// Valid reports whether l is one of the recognized labels.
func (l SentimentLabel) Valid() bool {
	return l == SentimentPositive || l == SentimentNeutral || l == SentimentNegative
}

// SourceRef pins a text item to where it was collected.
// (platform, item_id) is the item's identity within a run.
type SourceRef struct {
	URL      string   `json:"url"`
	Platform Platform `json:"platform"`
	ItemID   string   `json:"item_id"`
}

// TextItem is one scraped comment, post or reply. Produced by a Source,
// read-only to the aggregator.
type TextItem struct {
	Source      SourceRef `json:"source"`
	Author      string    `json:"author,omitempty"`
	Body        string    `json:"body"`
	CollectedAt time.Time `json:"collected_at"`
}

// SentimentResult is one classifier verdict for a single TextItem.
type SentimentResult struct {
	Label      SentimentLabel `json:"label"`
	Confidence float64        `json:"confidence"`
	Rationale  string         `json:"rationale"`
}

// EvidenceRecord is one immutable (item, result, timestamp) tuple in a run's
// append-only log.
type EvidenceRecord struct {
	Item       TextItem        `json:"item"`
	Result     SentimentResult `json:"result"`
	AnalyzedAt time.Time       `json:"analyzed_at"`
}
