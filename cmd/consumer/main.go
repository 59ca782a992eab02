package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crowdpulse/config"
	"crowdpulse/internal/clients/kafka_client"
	"crowdpulse/internal/consumers"
	"crowdpulse/internal/db"
	"crowdpulse/internal/evidence"
	"crowdpulse/internal/logging"
)

const evidenceConsumerName = "evidence"

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	cfg := kafka_client.GetKafkaConfig()

	publishSummaries := getEnv("PUBLISH_SUMMARIES", "true") == "true"
	if publishSummaries {
		for {
			err := kafka_client.InitKafkaProducer(cfg)
			if err == nil {
				break
			}

			slog.Warn("Kafka init failed, retrying...", slog.String("error", err.Error()))
			time.Sleep(5 * time.Second)
		}
		defer kafka_client.CloseKafkaProducer()
	}

	db.InitDynamoDB()

	consumer := consumers.NewEvidenceConsumer(
		evidence.NewAggregator(),
		getEnv("EVIDENCE_DIR", "."),
		publishSummaries,
	)

	kafka_client.RegisterConsumer(evidenceConsumerName, consumer.Start)

	if err := kafka_client.StartConsumer(ctx, cfg, evidenceConsumerName,
		kafka_client.KAFKA_TOPIC_CLASSIFIED_ITEMS,
		kafka_client.KAFKA_TOPIC_RUN_SIGNALS,
	); err != nil {
		slog.Error("[Main] Failed to start consumer",
			slog.String("error", err.Error()))
	}
}
