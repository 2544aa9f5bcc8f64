package domain_test

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/ordersvc/internal/domain"
)

func TestFormatPrice(t *testing.T) {
	cases := map[float64]string{
		5:      "5",
		10:     "10",
		9.99:   "9.99",
		0:      "0",
		0.1:    "0.1",
		1250.5: "1250.5",
	}
	for in, want := range cases {
		if got := domain.FormatPrice(in); got != want {
			t.Errorf("FormatPrice(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestPriceAdjustmentNote(t *testing.T) {
	got := domain.PriceAdjustmentNote("X", 5, 10)
	want := "Item 'X' price updated from 5 to 10."
	if got != want {
		t.Fatalf("PriceAdjustmentNote() = %q, want %q", got, want)
	}
}

func TestOrderEventOutboxMessage(t *testing.T) {
	occurred := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	msg, err := domain.OrderEvent{
		EventType:  domain.EventOrderCreated,
		OrderID:    42,
		CustomerID: 7,
		Items:      []domain.OrderViewItem{{Name: "X", Price: 10}},
		OccurredAt: occurred,
	}.OutboxMessage()
	if err != nil {
		t.Fatalf("OutboxMessage() error: %v", err)
	}
	if msg.AggregateType != "order" || msg.AggregateID != "42" || msg.EventType != "order.created" {
		t.Fatalf("unexpected envelope: %+v", msg)
	}

	want := `{"event_type":"order.created","order_id":42,"customer_id":7,"items":[{"name":"X","price":10}],"occurred_at":"2024-01-02T03:04:05Z"}`
	if string(msg.Payload) != want {
		t.Fatalf("payload = %s, want %s", msg.Payload, want)
	}
}
