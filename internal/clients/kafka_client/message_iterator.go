package kafka_client

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

// ErrNoMessage reports an idle poll interval. Callers treat it as "nothing to
// read right now" and go service their timers instead of blocking here.
var ErrNoMessage = errors.New("[KafkaIterator] No message within poll interval")

// KafkaMessageIterator wraps a consumer's read loop with bounded polls and
// bounded retries. Reads never block longer than POLL_INTERVAL, so the
// caller's select loop keeps servicing its ticker and shutdown cases on a
// quiet topic. Only a dead broker set aborts iteration; transient read errors
// are retried in place.
type KafkaMessageIterator struct {
	consumer *kafka.Consumer
	ctx      context.Context
}

func NewKafkaMessageIterator(ctx context.Context, consumer *kafka.Consumer) *KafkaMessageIterator {
	return &KafkaMessageIterator{
		consumer: consumer,
		ctx:      ctx,
	}
}

func (it *KafkaMessageIterator) Next() (*kafka.Message, error) {
	if it.consumer == nil {
		return nil, errors.New("[KafkaIterator] Kafka consumer has not been initialized")
	}

	for i := 0; i < MAX_RETRIES; i++ {
		select {
		case <-it.ctx.Done():
			slog.Warn("[KafkaIterator] Context cancelled, stopping iterator")
			return nil, it.ctx.Err()
		default:
			msg, err := it.consumer.ReadMessage(POLL_INTERVAL)
			if err != nil {
				if idleReadError(err) {
					return nil, ErrNoMessage
				}
				if fatalReadError(err) {
					slog.Error("[KafkaIterator] All Kafka brokers are down. Aborting")
					return nil, err
				}

				slog.Warn("[KafkaIterator] Failed to read message, retrying...",
					slog.Int("attempt", i+1),
					slog.Int("max_retries", MAX_RETRIES),
					slog.String("error", err.Error()))

				time.Sleep(RETRY_DELAY)
				continue
			}
			return msg, nil

		}
	}
	return nil, errors.New("[KafkaIterator] Failed to read message after retries")
}

// idleReadError reports whether err is the poll-interval timeout rather than
// a real read failure.
func idleReadError(err error) bool {
	kafkaErr, ok := err.(kafka.Error)
	return ok && kafkaErr.Code() == kafka.ErrTimedOut
}

func fatalReadError(err error) bool {
	kafkaErr, ok := err.(kafka.Error)
	return ok && kafkaErr.Code() == kafka.ErrAllBrokersDown
}
