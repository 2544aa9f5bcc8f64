package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// EventType — тип доменного события заказа.
type EventType string

const (
	EventOrderCreated EventType = "order.created"
	EventOrderUpdated EventType = "order.updated"
	EventOrderDeleted EventType = "order.deleted"
)

// AggregateOrder — значение aggregate_type для событий заказа.
const AggregateOrder = "order"

// OrderEvent — полезная нагрузка события заказа в outbox.
// Для order.deleted заполнены только OrderID и OccurredAt.
type OrderEvent struct {
	EventType  EventType       `json:"event_type"`
	OrderID    int64           `json:"order_id"`
	CustomerID int64           `json:"customer_id,omitempty"`
	Notes      string          `json:"notes,omitempty"`
	Items      []OrderViewItem `json:"items,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// OutboxMessage упаковывает событие для transactional outbox.
func (e OrderEvent) OutboxMessage() (OutboxMessage, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return OutboxMessage{}, fmt.Errorf("marshal order event: %w", err)
	}
	return OutboxMessage{
		AggregateType: AggregateOrder,
		AggregateID:   strconv.FormatInt(e.OrderID, 10),
		EventType:     string(e.EventType),
		Payload:       payload,
	}, nil
}
