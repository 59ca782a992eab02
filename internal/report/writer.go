package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"crowdpulse/internal/evidence"
	"crowdpulse/internal/models"
)

// EvidenceDir resolves (and creates) the dated evidence directory under base,
// e.g. evidence_2026-08-28/.
func EvidenceDir(base string, date time.Time) (string, error) {
	dir := filepath.Join(base, "evidence_"+date.Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("[EvidenceWriter] failed to create evidence dir: %w", err)
	}
	return dir, nil
}

// WriteRunArtifacts exports one finished run's CSV evidence log and JSON
// report into dir.
func WriteRunArtifacts(agg *evidence.Aggregator, run *evidence.Run, dir string) error {
	csvData, err := agg.Export(run, evidence.FORMAT_CSV)
	if err != nil {
		return err
	}
	csvPath := filepath.Join(dir, evidence.CSVFileName(run.AnalysisID()))
	if err := os.WriteFile(csvPath, csvData, 0o644); err != nil {
		return fmt.Errorf("[EvidenceWriter] failed to write evidence log: %w", err)
	}

	jsonData, err := agg.Export(run, evidence.FORMAT_JSON)
	if err != nil {
		return err
	}
	jsonPath := filepath.Join(dir, evidence.ReportFileName(run.AnalysisID()))
	if err := os.WriteFile(jsonPath, jsonData, 0o644); err != nil {
		return fmt.Errorf("[EvidenceWriter] failed to write run report: %w", err)
	}

	slog.Info("[EvidenceWriter] Run artifacts written",
		slog.String("analysis_id", run.AnalysisID()),
		slog.String("dir", dir))
	return nil
}

// WriteDailyReport writes the daily report JSON and returns its path.
func WriteDailyReport(dir string, dailyReport models.DailyReport) (string, error) {
	data, err := json.MarshalIndent(dailyReport, "", "  ")
	if err != nil {
		return "", fmt.Errorf("[EvidenceWriter] failed to marshal daily report: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("daily_report_%s.json", timestampSuffix()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("[EvidenceWriter] failed to write daily report: %w", err)
	}
	return path, nil
}

// WriteSocialPost writes the composed post text and returns its path.
func WriteSocialPost(dir string, post string) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("social_post_%s.txt", timestampSuffix()))
	if err := os.WriteFile(path, []byte(post), 0o644); err != nil {
		return "", fmt.Errorf("[EvidenceWriter] failed to write social post: %w", err)
	}
	return path, nil
}

func timestampSuffix() string {
	return time.Now().UTC().Format("20060102_150405")
}
