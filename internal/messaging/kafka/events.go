package kafka

import (
	"encoding/json"
	"time"
)

// Topics для событий заказов.
const (
	TopicOrderEvents     = "ordersvc.order.events"
	TopicDeadLetterQueue = "ordersvc.order.events.dlq"
)

// Kafka headers, которые проставляются на каждое сообщение.
const (
	HeaderEventType     = "x-event-type"
	HeaderOutboxID      = "x-outbox-id"
	HeaderOriginalTopic = "x-original-topic"
)

// Envelope — формат сообщения в topic событий заказов.
type Envelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}
