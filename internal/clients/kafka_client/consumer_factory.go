package kafka_client

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

var consumerRegistry = make(map[string]func(context.Context, *kafka.Consumer))

// RegisterConsumer binds a handler to a logical consumer name. One handler
// may serve several topics on a single subscription.
func RegisterConsumer(name string, consumerFunc func(context.Context, *kafka.Consumer)) {
	consumerRegistry[name] = consumerFunc
}

// StartConsumer creates the subscription and hands it to the registered
// handler; it returns when the handler does.
func StartConsumer(ctx context.Context, cfg KafkaConfig, name string, topics ...string) error {
	consumerFunc, exists := consumerRegistry[name]
	if !exists {
		return fmt.Errorf("[ConsumerFactory] No consumer registered under name: %s", name)
	}

	consumer, err := NewConsumer(cfg, topics...)
	if err != nil {
		return fmt.Errorf("[ConsumerFactory] Failed to initialize Kafka consumer: %w", err)
	}
	defer consumer.Close()

	slog.Info("[ConsumerFactory] Starting consumer...",
		slog.String("name", name),
		slog.String("topics", strings.Join(topics, ", ")))
	consumerFunc(ctx, consumer)

	return nil
}
