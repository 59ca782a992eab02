package consumers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"crowdpulse/internal/clients/kafka_client"
	"crowdpulse/internal/evidence"
	"crowdpulse/internal/models"
	"crowdpulse/internal/utils"
)

type stubCommitter struct {
	mu        sync.Mutex
	committed []*kafka.Message
}

func (s *stubCommitter) Commit(msg *kafka.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = append(s.committed, msg)
	return nil
}

func (s *stubCommitter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.committed)
}

func newTestConsumer(t *testing.T) *EvidenceConsumer {
	t.Helper()
	c := NewEvidenceConsumer(evidence.NewAggregator(), t.TempDir(), false)
	c.insertRecords = func(context.Context, string, []models.EvidenceRecord) error { return nil }
	c.storeSummary = func(context.Context, models.Summary) error { return nil }
	return c
}

func classifiedItem(runID, itemID, body string) models.ClassifiedItem {
	return models.ClassifiedItem{
		RunID:     runID,
		SourceURL: "https://www.reddit.com/r/golang/comments/abc/thread/",
		Item: models.TextItem{
			Source: models.SourceRef{
				URL:      "https://www.reddit.com/r/golang/comments/abc/thread/" + itemID,
				Platform: models.PlatformReddit,
				ItemID:   itemID,
			},
			Body: body,
		},
		Result: models.SentimentResult{Label: models.SentimentPositive, Confidence: 0.9, Rationale: "test"},
	}
}

func classifiedMsg(t *testing.T, offset int, items ...models.ClassifiedItem) *kafka.Message {
	t.Helper()
	payload, err := utils.SerializeToJSON(items)
	if err != nil {
		t.Fatalf("serialize items: %v", err)
	}
	topic := kafka_client.KAFKA_TOPIC_CLASSIFIED_ITEMS
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Offset: kafka.Offset(offset)},
		Value:          payload,
	}
}

func signalMsg(t *testing.T, runID string, action models.RunAction) *kafka.Message {
	t.Helper()
	payload, err := utils.SerializeToJSON(models.RunSignal{RunID: runID, Action: action})
	if err != nil {
		t.Fatalf("serialize signal: %v", err)
	}
	topic := kafka_client.KAFKA_TOPIC_RUN_SIGNALS
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic},
		Value:          payload,
	}
}

func TestTopicOf(t *testing.T) {
	if got := topicOf(&kafka.Message{}); got != "" {
		t.Errorf("topicOf(no topic) = %q, want empty", got)
	}

	topic := kafka_client.KAFKA_TOPIC_RUN_SIGNALS
	msg := &kafka.Message{TopicPartition: kafka.TopicPartition{Topic: &topic}}
	if got := topicOf(msg); got != kafka_client.KAFKA_TOPIC_RUN_SIGNALS {
		t.Errorf("topicOf() = %q, want %q", got, kafka_client.KAFKA_TOPIC_RUN_SIGNALS)
	}
}

func TestHandleClassifiedItemsStartsRunAndBuffers(t *testing.T) {
	c := newTestConsumer(t)
	committer := &stubCommitter{}

	msg := classifiedMsg(t, 1,
		classifiedItem("run-1", "item-1", "great release"),
		classifiedItem("run-1", "item-2", "awful release"),
	)
	c.handleClassifiedItems(context.Background(), committer, msg)

	if _, exists := c.runs["run-1"]; !exists {
		t.Fatal("run-1 was not started on first sight")
	}
	if got := c.buffer.Size(); got != 2 {
		t.Errorf("buffered = %d, want 2", got)
	}

	// At-least-once redelivery of the same message must not grow the buffer.
	c.handleClassifiedItems(context.Background(), committer, msg)
	if got := c.buffer.Size(); got != 2 {
		t.Errorf("buffered after redelivery = %d, want 2", got)
	}
}

func TestFlushArchiveSkipsCommitOnInsertFailure(t *testing.T) {
	c := newTestConsumer(t)
	committer := &stubCommitter{}

	broken := true
	var insertCalls int
	c.insertRecords = func(_ context.Context, analysisID string, _ []models.EvidenceRecord) error {
		if analysisID == "run-bad" {
			insertCalls++
			if broken {
				return errors.New("throughput exceeded")
			}
		}
		return nil
	}

	c.handleClassifiedItems(context.Background(), committer, classifiedMsg(t, 1,
		classifiedItem("run-bad", "bad-1", "lost otherwise")))
	c.handleClassifiedItems(context.Background(), committer, classifiedMsg(t, 2,
		classifiedItem("run-ok", "ok-1", "archived fine")))

	c.flushArchive(context.Background(), committer)

	if insertCalls != ARCHIVE_ATTEMPTS {
		t.Errorf("failing run inserted %d times, want %d", insertCalls, ARCHIVE_ATTEMPTS)
	}
	if got := committer.count(); got != 1 {
		t.Fatalf("committed %d offsets, want 1 (only the archived run's)", got)
	}
	if off := committer.committed[0].TopicPartition.Offset; off != kafka.Offset(2) {
		t.Errorf("committed offset = %d, want 2", off)
	}
	if got := c.buffer.Size(); got != 1 {
		t.Fatalf("failed run's record not re-buffered: buffered = %d, want 1", got)
	}

	// Once the store recovers the held record is archived and committed.
	broken = false
	c.flushArchive(context.Background(), committer)
	if got := committer.count(); got != 2 {
		t.Errorf("committed %d offsets after recovery, want 2", got)
	}
	if got := c.buffer.Size(); got != 0 {
		t.Errorf("buffered after recovery = %d, want 0", got)
	}
}

func TestFinishedRunRejectsRedeliveredItems(t *testing.T) {
	c := newTestConsumer(t)
	committer := &stubCommitter{}

	itemMsg := classifiedMsg(t, 1, classifiedItem("run-1", "item-1", "solid work"))
	c.handleClassifiedItems(context.Background(), committer, itemMsg)
	c.handleRunSignal(context.Background(), committer, signalMsg(t, "run-1", models.RunActionFinish))

	if _, exists := c.runs["run-1"]; exists {
		t.Fatal("run-1 still registered after finish signal")
	}

	// A redelivered item for the closed run must not restart it.
	c.handleClassifiedItems(context.Background(), committer, itemMsg)
	if _, exists := c.runs["run-1"]; exists {
		t.Error("redelivered item restarted a finished run")
	}
	if got := c.buffer.Size(); got != 0 {
		t.Errorf("buffered after redelivery to closed run = %d, want 0", got)
	}

	// The id itself is free for a genuinely new run.
	if _, err := c.agg.StartRun("run-1", "https://www.reddit.com/r/golang/"); err != nil {
		t.Errorf("analysis id not released after finish: %v", err)
	}
}

func TestAbortSignalDiscardsRun(t *testing.T) {
	c := newTestConsumer(t)
	committer := &stubCommitter{}

	var stored int
	c.storeSummary = func(context.Context, models.Summary) error {
		stored++
		return nil
	}

	c.handleClassifiedItems(context.Background(), committer, classifiedMsg(t, 1,
		classifiedItem("run-1", "item-1", "never mind")))
	c.handleRunSignal(context.Background(), committer, signalMsg(t, "run-1", models.RunActionAbort))

	if _, exists := c.runs["run-1"]; exists {
		t.Error("run-1 still registered after abort signal")
	}
	if stored != 0 {
		t.Errorf("abort stored %d summaries, want 0", stored)
	}
}

func TestTrackKey(t *testing.T) {
	src := models.SourceRef{Platform: models.PlatformX, ItemID: "1234"}
	if got, want := trackKey(src), fmt.Sprintf("%s/%s", models.PlatformX, "1234"); got != want {
		t.Errorf("trackKey() = %q, want %q", got, want)
	}
}
