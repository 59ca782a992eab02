package kafka_client

import "time"

const (
	KAFKA_TOPIC_CLASSIFIED_ITEMS = "classified-items" // classified text items fanned in from producers
	KAFKA_TOPIC_RUN_SIGNALS      = "run-signals"      // finish/abort control messages per analysis run
	KAFKA_TOPIC_RUN_SUMMARIES    = "run-summaries"    // finished run summaries for downstream readers
)

const (
	BATCH_SIZE    = 25
	BATCH_TIMEOUT = 5 * time.Second
	MAX_RETRIES   = 5
	RETRY_DELAY   = 2 * time.Second
	POLL_INTERVAL = 1 * time.Second
)
