package report

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"crowdpulse/internal/evidence"
	"crowdpulse/internal/models"
)

const (
	REPORT_PRECISION = 1 // decimals for daily-report percentages

	HOT_TAKE_CONFIDENCE_FLOOR = 0.8
	HOT_TAKE_LIMIT            = 5
	HOT_TAKE_PREVIEW_LEN      = 100

	TRENDING_KEYWORD_LIMIT = 10
	MIN_KEYWORD_LEN        = 4
)

// RunEvidence is one finished run's contribution to the daily report.
type RunEvidence struct {
	Summary models.Summary
	Records []models.EvidenceRecord
}

var stopwords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "have": {}, "from": {}, "they": {},
	"been": {}, "were": {}, "their": {}, "would": {}, "about": {}, "there": {},
	"which": {}, "when": {}, "what": {}, "your": {}, "just": {},
	"like": {}, "them": {}, "some": {}, "into": {}, "than": {}, "then": {},
	"more": {}, "only": {}, "over": {}, "because": {}, "really": {}, "people": {},
	"will": {}, "dont": {}, "cant": {}, "thats": {}, "youre": {}, "even": {},
	"much": {}, "very": {}, "here": {}, "where": {}, "after": {},
	"being": {}, "other": {}, "could": {}, "should": {}, "think": {}, "still": {},
}

var wordPattern = regexp.MustCompile(`[a-z]+`)

// BuildDailyReport folds every run of one report date into a single document:
// per-platform and overall percentage breakdowns, hot takes, trending
// keywords, and the evidence file list.
func BuildDailyReport(date time.Time, runs []RunEvidence) models.DailyReport {
	var all, reddit, x []models.EvidenceRecord
	var evidenceFiles []string

	for _, run := range runs {
		evidenceFiles = append(evidenceFiles, evidence.CSVFileName(run.Summary.AnalysisID))
		for _, record := range run.Records {
			all = append(all, record)
			switch record.Item.Source.Platform {
			case models.PlatformReddit:
				reddit = append(reddit, record)
			case models.PlatformX:
				x = append(x, record)
			}
		}
	}

	return models.DailyReport{
		ReportDate: date.Format("2006-01-02"),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Summary: models.DailyReportTotals{
			TotalItems:  len(all),
			RedditItems: len(reddit),
			XItems:      len(x),
			Runs:        len(runs),
		},
		SentimentBreakdown: models.SentimentBreakdown{
			Reddit:  platformStats(reddit),
			X:       platformStats(x),
			Overall: platformStats(all),
		},
		TrendingKeywords: trendingKeywords(all),
		HotTakes:         hotTakes(all),
		EvidenceFiles:    evidenceFiles,
	}
}

func platformStats(records []models.EvidenceRecord) models.PlatformStats {
	stats := models.PlatformStats{Count: len(records)}
	if len(records) == 0 {
		return stats
	}

	counts := make(map[models.SentimentLabel]int)
	for _, record := range records {
		counts[record.Result.Label]++
	}

	total := float64(len(records))
	stats.Positive = roundTo(float64(counts[models.SentimentPositive])/total*100, REPORT_PRECISION)
	stats.Negative = roundTo(float64(counts[models.SentimentNegative])/total*100, REPORT_PRECISION)
	stats.Neutral = roundTo(float64(counts[models.SentimentNeutral])/total*100, REPORT_PRECISION)
	return stats
}

// hotTakes picks the most confident strongly-valenced records.
func hotTakes(records []models.EvidenceRecord) []models.HotTake {
	var candidates []models.EvidenceRecord
	for _, record := range records {
		if record.Result.Label == models.SentimentNeutral {
			continue
		}
		if record.Result.Confidence < HOT_TAKE_CONFIDENCE_FLOOR {
			continue
		}
		candidates = append(candidates, record)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Result.Confidence > candidates[j].Result.Confidence
	})
	if len(candidates) > HOT_TAKE_LIMIT {
		candidates = candidates[:HOT_TAKE_LIMIT]
	}

	takes := make([]models.HotTake, 0, len(candidates))
	for _, record := range candidates {
		takes = append(takes, models.HotTake{
			Platform:    record.Item.Source.Platform,
			TextPreview: preview(record.Item.Body),
			Label:       record.Result.Label,
			Confidence:  record.Result.Confidence,
			SourceURL:   record.Item.Source.URL,
		})
	}
	return takes
}

func trendingKeywords(records []models.EvidenceRecord) []models.TrendingKeyword {
	mentions := make(map[string]int)
	labelCounts := make(map[string]map[models.SentimentLabel]int)

	for _, record := range records {
		seen := make(map[string]struct{})
		for _, word := range wordPattern.FindAllString(strings.ToLower(record.Item.Body), -1) {
			if len(word) < MIN_KEYWORD_LEN {
				continue
			}
			if _, stop := stopwords[word]; stop {
				continue
			}
			// One mention per record keeps a single rant from trending.
			if _, dup := seen[word]; dup {
				continue
			}
			seen[word] = struct{}{}

			mentions[word]++
			if labelCounts[word] == nil {
				labelCounts[word] = make(map[models.SentimentLabel]int)
			}
			labelCounts[word][record.Result.Label]++
		}
	}

	words := make([]string, 0, len(mentions))
	for word := range mentions {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if mentions[words[i]] != mentions[words[j]] {
			return mentions[words[i]] > mentions[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > TRENDING_KEYWORD_LIMIT {
		words = words[:TRENDING_KEYWORD_LIMIT]
	}

	keywords := make([]models.TrendingKeyword, 0, len(words))
	for _, word := range words {
		keywords = append(keywords, models.TrendingKeyword{
			Keyword:  word,
			Mentions: mentions[word],
			Label:    dominantLabel(labelCounts[word]),
		})
	}
	return keywords
}

func dominantLabel(counts map[models.SentimentLabel]int) models.SentimentLabel {
	best := models.SentimentNeutral
	bestCount := -1
	for _, label := range models.Labels() {
		if counts[label] > bestCount {
			best = label
			bestCount = counts[label]
		}
	}
	return best
}

func preview(body string) string {
	runes := []rune(strings.TrimSpace(body))
	if len(runes) <= HOT_TAKE_PREVIEW_LEN {
		return string(runes)
	}
	return string(runes[:HOT_TAKE_PREVIEW_LEN]) + "..."
}

func roundTo(v float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
