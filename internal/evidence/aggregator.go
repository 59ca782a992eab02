package evidence

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"crowdpulse/internal/models"
)

const (
	SUMMARY_PRECISION = 2   // decimals for run summary percentages
	BODY_TRUNCATE_LEN = 500 // runes kept of a comment body in the evidence log
)

type runState int

const (
	runActive runState = iota
	runFinished
	runAborted
)

type itemKey struct {
	platform models.Platform
	itemID   string
}

// Run is one bounded analysis session over a single source URL. All access to
// its records and counts goes through the owning Aggregator, which serializes
// concurrent producers on the run's mutex.
type Run struct {
	mu sync.Mutex

	analysisID string
	sourceURL  string
	startedAt  time.Time
	finishedAt time.Time
	state      runState

	records []models.EvidenceRecord
	counts  map[models.SentimentLabel]int
	seen    map[itemKey]struct{}
	summary models.Summary
}

func (r *Run) AnalysisID() string { return r.analysisID }
func (r *Run) SourceURL() string  { return r.sourceURL }

// Records returns a copy of the append-only record log in insertion order.
func (r *Run) Records() []models.EvidenceRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.EvidenceRecord(nil), r.records...)
}

// Size returns the number of records collected so far.
func (r *Run) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// Aggregator owns the registry of active runs and the rounding policy.
// Independent runs proceed fully in parallel; the registry lock is only held
// long enough to resolve an analysis id.
type Aggregator struct {
	mu     sync.Mutex
	active map[string]*Run

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		active: make(map[string]*Run),
		Now:    time.Now,
	}
}

// StartRun initializes an empty run for analysisID. Fails with
// *DuplicateRunError while another run holds the same id; finishing or
// aborting a run releases its id for reuse.
func (a *Aggregator) StartRun(analysisID, sourceURL string) (*Run, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.active[analysisID]; exists {
		return nil, &DuplicateRunError{AnalysisID: analysisID}
	}

	run := &Run{
		analysisID: analysisID,
		sourceURL:  sourceURL,
		startedAt:  a.Now(),
		counts:     make(map[models.SentimentLabel]int, len(models.Labels())),
		seen:       make(map[itemKey]struct{}),
	}
	a.active[analysisID] = run

	slog.Info("[EvidenceAggregator] Run started",
		slog.String("analysis_id", analysisID),
		slog.String("source_url", sourceURL))
	return run, nil
}

// Record validates the item and result, appends an EvidenceRecord, and bumps
// the label count. The record is immutable from here on; counts always equal
// the per-label tally of records. On any validation failure the run is left
// untouched.
func (a *Aggregator) Record(run *Run, item models.TextItem, result models.SentimentResult) (models.EvidenceRecord, error) {
	if err := validateItem(item); err != nil {
		return models.EvidenceRecord{}, err
	}
	if err := validateResult(result); err != nil {
		return models.EvidenceRecord{}, err
	}

	run.mu.Lock()
	defer run.mu.Unlock()

	switch run.state {
	case runFinished:
		return models.EvidenceRecord{}, ErrRunFinished
	case runAborted:
		return models.EvidenceRecord{}, ErrRunAborted
	}

	key := itemKey{platform: item.Source.Platform, itemID: item.Source.ItemID}
	if _, dup := run.seen[key]; dup {
		return models.EvidenceRecord{}, &DuplicateItemError{
			Platform: item.Source.Platform,
			ItemID:   item.Source.ItemID,
		}
	}

	record := models.EvidenceRecord{
		Item:       item,
		Result:     result,
		AnalyzedAt: a.Now(),
	}
	run.seen[key] = struct{}{}
	run.records = append(run.records, record)
	run.counts[result.Label]++

	return record, nil
}

// FinishRun closes the run, computes the percentage distribution, and returns
// the Summary. An empty run finishes with all-zero percentages and the
// EmptyRunWarning attached rather than failing.
func (a *Aggregator) FinishRun(run *Run) (models.Summary, error) {
	run.mu.Lock()
	defer run.mu.Unlock()

	switch run.state {
	case runFinished:
		return models.Summary{}, ErrRunFinished
	case runAborted:
		return models.Summary{}, ErrRunAborted
	}

	run.finishedAt = a.Now()
	run.state = runFinished

	total := len(run.records)
	percentages := make(map[models.SentimentLabel]float64, len(models.Labels()))
	for _, label := range models.Labels() {
		if total == 0 {
			percentages[label] = 0
			continue
		}
		percentages[label] = roundTo(float64(run.counts[label])/float64(total)*100, SUMMARY_PRECISION)
	}

	summary := models.Summary{
		AnalysisID:       run.analysisID,
		SourceURL:        run.sourceURL,
		TotalItems:       total,
		SentimentSummary: percentages,
		StartedAt:        run.startedAt,
		FinishedAt:       run.finishedAt,
		Duration:         run.finishedAt.Sub(run.startedAt).Round(time.Millisecond),
	}
	if total == 0 {
		summary.Warning = EmptyRunWarning
		slog.Warn("[EvidenceAggregator] Run finished without records",
			slog.String("analysis_id", run.analysisID))
	}
	run.summary = summary

	a.release(run.analysisID, run)

	slog.Info("[EvidenceAggregator] Run finished",
		slog.String("analysis_id", run.analysisID),
		slog.Int("total_items", total),
		slog.Duration("duration", summary.Duration))
	return summary, nil
}

// AbortRun discards everything the run accumulated. No summary is produced
// and no partial export is possible afterwards.
func (a *Aggregator) AbortRun(run *Run) error {
	run.mu.Lock()
	defer run.mu.Unlock()

	switch run.state {
	case runFinished:
		return ErrRunFinished
	case runAborted:
		return ErrRunAborted
	}

	run.state = runAborted
	run.records = nil
	run.counts = make(map[models.SentimentLabel]int)
	run.seen = nil

	a.release(run.analysisID, run)

	slog.Warn("[EvidenceAggregator] Run aborted",
		slog.String("analysis_id", run.analysisID))
	return nil
}

// release drops the id→run binding so the analysis id can be reused.
func (a *Aggregator) release(analysisID string, run *Run) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active[analysisID] == run {
		delete(a.active, analysisID)
	}
}

func validateItem(item models.TextItem) error {
	if item.Source.ItemID == "" {
		return &InvalidItemError{Reason: "empty item_id"}
	}
	if !item.Source.Platform.Valid() {
		return &InvalidItemError{Reason: fmt.Sprintf("unknown platform %q", item.Source.Platform)}
	}
	return nil
}

func validateResult(result models.SentimentResult) error {
	if !result.Label.Valid() {
		return &InvalidResultError{Reason: fmt.Sprintf("unknown label %q", result.Label)}
	}
	if math.IsNaN(result.Confidence) {
		return &InvalidResultError{Reason: "confidence is NaN"}
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return &InvalidResultError{Reason: fmt.Sprintf("confidence %v outside [0,1]", result.Confidence)}
	}
	return nil
}

func roundTo(v float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
