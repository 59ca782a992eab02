package utils

import (
	"sync"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

var messageMap sync.Map

// TrackMessage remembers which Kafka message delivered an item so its offset
// can be committed once the item is durably archived. Keys are the item's
// platform/item_id identity.
func TrackMessage(itemKey string, msg *kafka.Message) {
	messageMap.Store(itemKey, msg)
}

// GetMessageForItem pops the tracked message for an item key.
func GetMessageForItem(itemKey string) (*kafka.Message, bool) {
	msg, ok := messageMap.Load(itemKey)
	if !ok {
		return nil, false
	}
	messageMap.Delete(itemKey)
	return msg.(*kafka.Message), true
}
