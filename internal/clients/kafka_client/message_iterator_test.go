package kafka_client

import (
	"errors"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

func TestReadErrorClassification(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		idle  bool
		fatal bool
	}{
		{
			name: "poll timeout is idle, not fatal",
			err:  kafka.NewError(kafka.ErrTimedOut, "Local: Timed out", false),
			idle: true,
		},
		{
			name:  "all brokers down is fatal",
			err:   kafka.NewError(kafka.ErrAllBrokersDown, "Local: All broker connections are down", true),
			fatal: true,
		},
		{
			name: "transient transport error is retried",
			err:  kafka.NewError(kafka.ErrTransport, "Local: Broker transport failure", false),
		},
		{
			name: "non-kafka error is retried",
			err:  errors.New("read: connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := idleReadError(tt.err); got != tt.idle {
				t.Errorf("idleReadError() = %v, want %v", got, tt.idle)
			}
			if got := fatalReadError(tt.err); got != tt.fatal {
				t.Errorf("fatalReadError() = %v, want %v", got, tt.fatal)
			}
		})
	}
}
