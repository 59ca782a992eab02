package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"crowdpulse/internal/classifier"
	"crowdpulse/internal/db"
	"crowdpulse/internal/evidence"
	"crowdpulse/internal/models"
	"crowdpulse/internal/scraper"
)

// Archiver persists a finished run's evidence. The DynamoDB implementation
// is the production archive; tests plug in stubs.
type Archiver interface {
	ArchiveRun(ctx context.Context, summary models.Summary, records []models.EvidenceRecord) error
}

type dynamoArchiver struct{}

func NewDynamoArchiver() Archiver { return dynamoArchiver{} }

func (dynamoArchiver) ArchiveRun(ctx context.Context, summary models.Summary, records []models.EvidenceRecord) error {
	if err := db.BatchInsertEvidenceRecords(ctx, summary.AnalysisID, records); err != nil {
		return err
	}
	return db.StoreRunSummary(ctx, summary)
}

// Pipeline drives one URL through acquisition, classification, and evidence
// aggregation. Dedup and Archive are optional; leaving them nil runs
// standalone.
type Pipeline struct {
	Aggregator  *evidence.Aggregator
	Classifier  classifier.Classifier
	Dedup       *scraper.Dedup
	Archive     Archiver
	Concurrency int
}

// Outcome reports what one run did with its input, for callers that log or
// assert on skip counts.
type Outcome struct {
	Summary    models.Summary
	Run        *evidence.Run
	Classified int
	Failed     int
	Duplicates int
}

// Analyze runs one full analysis of sourceURL. Classification failures and
// duplicate items are skipped, never recorded; context cancellation aborts
// the run without artifacts.
func (p *Pipeline) Analyze(ctx context.Context, analysisID, sourceURL string, source scraper.Source) (Outcome, error) {
	run, err := p.Aggregator.StartRun(analysisID, sourceURL)
	if err != nil {
		return Outcome{}, err
	}

	outcome, err := p.analyze(ctx, run, sourceURL, source)
	if err != nil {
		if abortErr := p.Aggregator.AbortRun(run); abortErr != nil {
			slog.Warn("[Pipeline] Abort after failure also failed",
				slog.String("analysis_id", analysisID),
				slog.String("error", abortErr.Error()))
		}
		return Outcome{}, err
	}
	return outcome, nil
}

func (p *Pipeline) analyze(ctx context.Context, run *evidence.Run, sourceURL string, source scraper.Source) (Outcome, error) {
	items, err := source.Fetch(ctx, sourceURL)
	if err != nil {
		return Outcome{}, fmt.Errorf("[Pipeline] acquisition failed: %w", err)
	}

	outcome := Outcome{Run: run}

	fresh := items[:0:0]
	for _, item := range items {
		if p.Dedup.Seen(ctx, item.Source) {
			outcome.Duplicates++
			continue
		}
		fresh = append(fresh, item)
	}

	classified, err := classifier.ClassifyAll(ctx, p.Classifier, fresh, p.Concurrency)
	if err != nil {
		return Outcome{}, fmt.Errorf("[Pipeline] classification aborted: %w", err)
	}

	for _, c := range classified {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		if !c.OK {
			outcome.Failed++
			continue
		}

		if _, err := p.Aggregator.Record(run, c.Item, c.Result); err != nil {
			var dup *evidence.DuplicateItemError
			if errors.As(err, &dup) {
				slog.Warn("[Pipeline] Duplicate item skipped",
					slog.String("analysis_id", run.AnalysisID()),
					slog.String("item_id", c.Item.Source.ItemID))
				outcome.Duplicates++
				continue
			}
			return Outcome{}, fmt.Errorf("[Pipeline] record failed: %w", err)
		}
		outcome.Classified++

		if err := p.Dedup.Mark(ctx, c.Item.Source); err != nil {
			slog.Warn("[Pipeline] Failed to mark item as analyzed",
				slog.String("item_id", c.Item.Source.ItemID),
				slog.String("error", err.Error()))
		}
	}

	records := run.Records()
	summary, err := p.Aggregator.FinishRun(run)
	if err != nil {
		return Outcome{}, err
	}
	outcome.Summary = summary

	if p.Archive != nil {
		if err := p.Archive.ArchiveRun(ctx, summary, records); err != nil {
			slog.Error("[Pipeline] Failed to archive run",
				slog.String("analysis_id", summary.AnalysisID),
				slog.String("error", err.Error()))
		}
	}

	slog.Info("[Pipeline] Analysis complete",
		slog.String("analysis_id", summary.AnalysisID),
		slog.Int("recorded", outcome.Classified),
		slog.Int("failed", outcome.Failed),
		slog.Int("duplicates", outcome.Duplicates),
		slog.Duration("duration", summary.Duration))
	return outcome, nil
}
