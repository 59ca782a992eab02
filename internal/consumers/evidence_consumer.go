package consumers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"crowdpulse/internal/clients/kafka_client"
	"crowdpulse/internal/db"
	"crowdpulse/internal/evidence"
	"crowdpulse/internal/models"
	"crowdpulse/internal/report"
	"crowdpulse/internal/utils"
)

// How many times a failed archive batch is retried within one flush, and how
// long a closed run id is remembered so redelivered items cannot restart it.
const (
	ARCHIVE_ATTEMPTS     = 3
	CLOSED_RUN_RETENTION = 1 * time.Hour
)

var errRunClosed = errors.New("run already closed")

type pendingRecord struct {
	RunID  string
	Record models.EvidenceRecord
}

// offsetCommitter is the slice of kafka_client.KafkaCommitHandler the
// consumer needs.
type offsetCommitter interface {
	Commit(msg *kafka.Message) error
}

// EvidenceConsumer handles both evidence topics on one subscription:
// classified-items grow runs and are archived in batches; run-signals close
// runs and emit their artifacts. Offsets commit only after the records a
// message carried are durably archived, so redelivery after a crash replays
// into the run's duplicate check instead of losing evidence.
type EvidenceConsumer struct {
	agg          *evidence.Aggregator
	evidenceBase string
	publish      bool

	insertRecords func(ctx context.Context, analysisID string, records []models.EvidenceRecord) error
	storeSummary  func(ctx context.Context, summary models.Summary) error

	mu     sync.Mutex
	runs   map[string]*evidence.Run
	closed map[string]time.Time
	buffer *utils.BatchBuffer[pendingRecord]
}

func NewEvidenceConsumer(agg *evidence.Aggregator, evidenceBase string, publishSummaries bool) *EvidenceConsumer {
	return &EvidenceConsumer{
		agg:           agg,
		evidenceBase:  evidenceBase,
		publish:       publishSummaries,
		insertRecords: db.BatchInsertEvidenceRecords,
		storeSummary:  db.StoreRunSummary,
		runs:          make(map[string]*evidence.Run),
		closed:        make(map[string]time.Time),
		buffer:        utils.NewBatchBuffer[pendingRecord](),
	}
}

func (c *EvidenceConsumer) Start(ctx context.Context, consumer *kafka.Consumer) {
	iterator := kafka_client.NewKafkaMessageIterator(ctx, consumer)
	committer := kafka_client.NewCommitHandler(ctx, consumer)

	slog.Info("[EvidenceConsumer] Listening for classified items and run signals...")

	ticker := time.NewTicker(utils.BATCH_TIMEOUT)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Warn("[EvidenceConsumer] Consumer shutting down...")
			c.flushArchive(context.Background(), committer)
			return
		case <-ticker.C:
			c.flushArchive(ctx, committer)
		default:
			msg, err := iterator.Next()
			if err != nil {
				// An idle poll just hands control back to the ticker and
				// shutdown cases.
				if errors.Is(err, kafka_client.ErrNoMessage) {
					continue
				}
				utils.HandleConsumerError(err)
				continue
			}

			switch topicOf(msg) {
			case kafka_client.KAFKA_TOPIC_CLASSIFIED_ITEMS:
				c.handleClassifiedItems(ctx, committer, msg)
			case kafka_client.KAFKA_TOPIC_RUN_SIGNALS:
				c.handleRunSignal(ctx, committer, msg)
			default:
				slog.Warn("[EvidenceConsumer] Message from unexpected topic",
					slog.String("topic", topicOf(msg)))
			}
		}
	}
}

func (c *EvidenceConsumer) handleClassifiedItems(ctx context.Context, committer offsetCommitter, msg *kafka.Message) {
	var items []models.ClassifiedItem
	if err := utils.DeserializeFromJSON(msg.Value, &items); err != nil {
		utils.HandleConsumerError(err)
		return
	}

	for _, item := range items {
		run, err := c.runFor(item.RunID, item.SourceURL)
		if err != nil {
			if errors.Is(err, errRunClosed) {
				// Redelivery after the run's finish signal; its records are
				// already archived.
				slog.Warn("[EvidenceConsumer] Item for closed run, skipping",
					slog.String("run_id", item.RunID),
					slog.String("item_id", item.Item.Source.ItemID))
				continue
			}
			slog.Error("[EvidenceConsumer] Failed to resolve run",
				slog.String("run_id", item.RunID),
				slog.String("error", err.Error()))
			continue
		}

		record, err := c.agg.Record(run, item.Item, item.Result)
		if err != nil {
			// At-least-once redelivery lands here as DuplicateItemError;
			// invalid payloads are logged and skipped the same way.
			slog.Warn("[EvidenceConsumer] Item not recorded",
				slog.String("run_id", item.RunID),
				slog.String("item_id", item.Item.Source.ItemID),
				slog.String("error", err.Error()))
			continue
		}

		utils.TrackMessage(trackKey(item.Item.Source), msg)
		c.buffer.Add(pendingRecord{RunID: item.RunID, Record: record})
	}

	if c.buffer.Size() >= db.DYNAMODB_BATCH_SIZE {
		c.flushArchive(ctx, committer)
	}
}

func (c *EvidenceConsumer) handleRunSignal(ctx context.Context, committer offsetCommitter, msg *kafka.Message) {
	var signal models.RunSignal
	if err := utils.DeserializeFromJSON(msg.Value, &signal); err != nil {
		utils.HandleConsumerError(err)
		return
	}

	// Records still in the buffer belong to this run's archive; settle them
	// before closing the run.
	c.flushArchive(ctx, committer)

	c.mu.Lock()
	run, exists := c.runs[signal.RunID]
	delete(c.runs, signal.RunID)
	c.markClosedLocked(signal.RunID)
	c.mu.Unlock()

	if !exists {
		slog.Warn("[EvidenceConsumer] Signal for unknown run",
			slog.String("run_id", signal.RunID),
			slog.String("action", string(signal.Action)))
		c.commit(committer, msg)
		return
	}

	switch signal.Action {
	case models.RunActionAbort:
		if err := c.agg.AbortRun(run); err != nil {
			slog.Error("[EvidenceConsumer] Abort failed",
				slog.String("run_id", signal.RunID),
				slog.String("error", err.Error()))
		}
	case models.RunActionFinish:
		c.finishRun(ctx, run)
	default:
		slog.Warn("[EvidenceConsumer] Unknown run action",
			slog.String("run_id", signal.RunID),
			slog.String("action", string(signal.Action)))
	}

	c.commit(committer, msg)
}

func (c *EvidenceConsumer) finishRun(ctx context.Context, run *evidence.Run) {
	summary, err := c.agg.FinishRun(run)
	if err != nil {
		slog.Error("[EvidenceConsumer] Finish failed",
			slog.String("run_id", run.AnalysisID()),
			slog.String("error", err.Error()))
		return
	}

	dir, err := report.EvidenceDir(c.evidenceBase, summary.FinishedAt)
	if err != nil {
		slog.Error("[EvidenceConsumer] Evidence dir unavailable",
			slog.String("error", err.Error()))
	} else if err := report.WriteRunArtifacts(c.agg, run, dir); err != nil {
		slog.Error("[EvidenceConsumer] Failed to write run artifacts",
			slog.String("run_id", summary.AnalysisID),
			slog.String("error", err.Error()))
	}

	if err := c.storeSummary(ctx, summary); err != nil {
		slog.Error("[EvidenceConsumer] Failed to store run summary",
			slog.String("run_id", summary.AnalysisID),
			slog.String("error", err.Error()))
	}

	if c.publish {
		if err := kafka_client.PublishToKafka(kafka_client.KAFKA_TOPIC_RUN_SUMMARIES, summary.AnalysisID, summary); err != nil {
			slog.Error("[EvidenceConsumer] Failed to publish run summary",
				slog.String("run_id", summary.AnalysisID),
				slog.String("error", err.Error()))
		}
	}
}

// flushArchive drains the pending buffer into DynamoDB grouped per run, then
// commits the offsets of the archived items. Records of a run whose insert
// failed go back into the buffer and their offsets stay uncommitted, so they
// are retried on the next flush or replayed after a crash.
func (c *EvidenceConsumer) flushArchive(ctx context.Context, committer offsetCommitter) {
	batch := c.buffer.GetAndClear()
	if len(batch) == 0 {
		return
	}

	byRun := make(map[string][]models.EvidenceRecord)
	for _, pending := range batch {
		byRun[pending.RunID] = append(byRun[pending.RunID], pending.Record)
	}

	failed := make(map[string]bool)
	for runID, records := range byRun {
		var insertErr error
		for i := 0; i < ARCHIVE_ATTEMPTS; i++ {
			insertErr = c.insertRecords(ctx, runID, records)
			if insertErr == nil {
				break
			}
			slog.Error("[EvidenceConsumer] Failed to archive records",
				slog.String("run_id", runID),
				slog.Int("attempt", i+1),
				slog.String("error", insertErr.Error()))
		}
		if insertErr != nil {
			failed[runID] = true
		}
	}

	for _, pending := range batch {
		if failed[pending.RunID] {
			c.buffer.Add(pending)
			continue
		}
		if msg, found := utils.GetMessageForItem(trackKey(pending.Record.Item.Source)); found {
			c.commit(committer, msg)
		}
	}
}

func (c *EvidenceConsumer) runFor(runID, sourceURL string) (*evidence.Run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if run, exists := c.runs[runID]; exists {
		return run, nil
	}
	if _, done := c.closed[runID]; done {
		return nil, errRunClosed
	}

	run, err := c.agg.StartRun(runID, sourceURL)
	if err != nil {
		return nil, err
	}
	c.runs[runID] = run
	return run, nil
}

// markClosedLocked remembers a closed run id and prunes entries past the
// retention window. Caller holds c.mu.
func (c *EvidenceConsumer) markClosedLocked(runID string) {
	now := time.Now()
	for id, closedAt := range c.closed {
		if now.Sub(closedAt) > CLOSED_RUN_RETENTION {
			delete(c.closed, id)
		}
	}
	c.closed[runID] = now
}

func (c *EvidenceConsumer) commit(committer offsetCommitter, msg *kafka.Message) {
	if err := committer.Commit(msg); err != nil {
		slog.Warn("[EvidenceConsumer] Failed to commit offset",
			slog.String("error", err.Error()))
	}
}

func topicOf(msg *kafka.Message) string {
	if msg.TopicPartition.Topic == nil {
		return ""
	}
	return *msg.TopicPartition.Topic
}

func trackKey(src models.SourceRef) string {
	return fmt.Sprintf("%s/%s", src.Platform, src.ItemID)
}
