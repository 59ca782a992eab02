package evidence

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"crowdpulse/internal/models"
)

const (
	FORMAT_CSV  = "csv"
	FORMAT_JSON = "json"
)

// CSVFileName is the deterministic evidence-log filename for a run, and the
// value embedded in the JSON report's evidence_log field.
func CSVFileName(analysisID string) string {
	return "sentiment_analysis_" + analysisID + ".csv"
}

// ReportFileName is the JSON report filename for a run.
func ReportFileName(analysisID string) string {
	return "sentiment_report_" + analysisID + ".json"
}

// Export serializes the run's evidence to the requested format. CSV works on
// an active run (incremental evidence); the JSON report embeds processing
// time and therefore requires the run to be finished. Aborted runs export
// nothing.
func (a *Aggregator) Export(run *Run, format string) ([]byte, error) {
	run.mu.Lock()
	defer run.mu.Unlock()

	if run.state == runAborted {
		return nil, ErrRunAborted
	}

	switch format {
	case FORMAT_CSV:
		return exportCSV(run.records)
	case FORMAT_JSON:
		if run.state != runFinished {
			return nil, fmt.Errorf("json report requires a finished run: %s", run.analysisID)
		}
		return exportReport(run.summary)
	default:
		return nil, &UnsupportedFormatError{Format: format}
	}
}

// Report builds the EvidenceReport document for a finished run.
func (a *Aggregator) Report(run *Run) (models.EvidenceReport, error) {
	run.mu.Lock()
	defer run.mu.Unlock()

	switch run.state {
	case runAborted:
		return models.EvidenceReport{}, ErrRunAborted
	case runActive:
		return models.EvidenceReport{}, fmt.Errorf("report requires a finished run: %s", run.analysisID)
	}
	return reportFromSummary(run.summary), nil
}

func exportCSV(records []models.EvidenceRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"source_url", "item_id", "author", "body", "label", "confidence", "rationale", "analyzed_at"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("[EvidenceExport] failed to write CSV header: %w", err)
	}

	for _, record := range records {
		row := []string{
			record.Item.Source.URL,
			record.Item.Source.ItemID,
			record.Item.Author,
			truncateBody(record.Item.Body),
			string(record.Result.Label),
			strconv.FormatFloat(record.Result.Confidence, 'f', 2, 64),
			record.Result.Rationale,
			record.AnalyzedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("[EvidenceExport] failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("[EvidenceExport] CSV flush failed: %w", err)
	}
	return buf.Bytes(), nil
}

func exportReport(summary models.Summary) ([]byte, error) {
	data, err := json.MarshalIndent(reportFromSummary(summary), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("[EvidenceExport] failed to marshal report: %w", err)
	}
	return data, nil
}

func reportFromSummary(summary models.Summary) models.EvidenceReport {
	return models.EvidenceReport{
		AnalysisID:       summary.AnalysisID,
		Timestamp:        summary.FinishedAt.Format(time.RFC3339),
		SourceURL:        summary.SourceURL,
		TotalComments:    summary.TotalItems,
		SentimentSummary: summary.SentimentSummary,
		EvidenceLog:      CSVFileName(summary.AnalysisID),
		ProcessingTime:   summary.Duration.String(),
		Warning:          summary.Warning,
	}
}

// truncateBody keeps evidence rows readable; full text stays in the archive.
func truncateBody(body string) string {
	runes := []rune(body)
	if len(runes) <= BODY_TRUNCATE_LEN {
		return body
	}
	return string(runes[:BODY_TRUNCATE_LEN]) + "..."
}
