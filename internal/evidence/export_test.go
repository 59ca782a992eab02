package evidence

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"crowdpulse/internal/models"
)

func TestExportCSV(t *testing.T) {
	agg := NewAggregator()
	run, _ := agg.StartRun("run-1", "url")

	if _, err := agg.Record(run, testItem("c1"), testResult(models.SentimentPositive)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := agg.Record(run, testItem("c2"), testResult(models.SentimentNegative)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	// CSV export works on an active run.
	data, err := agg.Export(run, FORMAT_CSV)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("exported CSV unparsable: %v", err)
	}

	wantHeader := []string{"source_url", "item_id", "author", "body", "label", "confidence", "rationale", "analyzed_at"}
	if diff := cmp.Diff(wantHeader, rows[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2 records", len(rows))
	}
	if rows[1][1] != "c1" || rows[2][1] != "c2" {
		t.Errorf("rows out of append order: %q, %q", rows[1][1], rows[2][1])
	}
	if rows[1][4] != "positive" {
		t.Errorf("label column = %q, want positive", rows[1][4])
	}
}

func TestExportCSVTruncatesBody(t *testing.T) {
	agg := NewAggregator()
	run, _ := agg.StartRun("run-1", "url")

	item := testItem("c1")
	item.Body = strings.Repeat("x", BODY_TRUNCATE_LEN+50)
	if _, err := agg.Record(run, item, testResult(models.SentimentNeutral)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	data, err := agg.Export(run, FORMAT_CSV)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("exported CSV unparsable: %v", err)
	}

	want := strings.Repeat("x", BODY_TRUNCATE_LEN) + "..."
	if rows[1][3] != want {
		t.Errorf("body not truncated to %d runes: len = %d", BODY_TRUNCATE_LEN, len(rows[1][3]))
	}
}

func TestExportJSONRoundTrip(t *testing.T) {
	agg := NewAggregator()
	run, _ := agg.StartRun("run-1", "https://www.reddit.com/r/golang/comments/abc/")

	labels := []models.SentimentLabel{
		models.SentimentPositive, models.SentimentPositive,
		models.SentimentNeutral, models.SentimentNegative,
	}
	for i, label := range labels {
		item := testItem(string(rune('a' + i)))
		if _, err := agg.Record(run, item, testResult(label)); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	// JSON needs a finished run.
	if _, err := agg.Export(run, FORMAT_JSON); err == nil {
		t.Fatal("Export json on active run succeeded, want error")
	}
	if _, err := agg.FinishRun(run); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	data, err := agg.Export(run, FORMAT_JSON)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var parsed models.EvidenceReport
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("exported JSON unparsable: %v", err)
	}

	if parsed.TotalComments != len(labels) {
		t.Errorf("total_comments = %d, want %d", parsed.TotalComments, len(labels))
	}
	if parsed.EvidenceLog != "sentiment_analysis_run-1.csv" {
		t.Errorf("evidence_log = %q", parsed.EvidenceLog)
	}
	if parsed.ProcessingTime == "" {
		t.Error("processing_time is empty")
	}

	var pctSum float64
	for _, pct := range parsed.SentimentSummary {
		pctSum += pct
	}
	if math.Abs(pctSum-100) > 0.05 {
		t.Errorf("percentages sum to %v, want 100 within rounding tolerance", pctSum)
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	agg := NewAggregator()
	run, _ := agg.StartRun("run-1", "url")

	var unsupported *UnsupportedFormatError
	if _, err := agg.Export(run, "xml"); !errors.As(err, &unsupported) {
		t.Fatalf("got %v, want UnsupportedFormatError", err)
	}
}
