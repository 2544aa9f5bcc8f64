package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/ordersvc/internal/domain"
)

func headerValue(msg *sarama.ProducerMessage, name string) string {
	for _, h := range msg.Headers {
		if string(h.Key) == name {
			return string(h.Value)
		}
	}
	return ""
}

func TestOutboxPublisher_PublishEnvelope(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		raw, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var envelope Envelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return err
		}
		if envelope.ID != "outbox-1" || envelope.AggregateID != "42" || envelope.EventType != "order.created" {
			return fmt.Errorf("unexpected envelope %+v", envelope)
		}
		if string(envelope.Payload) != `{"order_id":42}` {
			return fmt.Errorf("unexpected payload %s", envelope.Payload)
		}
		if headerValue(msg, HeaderOutboxID) != "outbox-1" {
			return errors.New("missing outbox id header")
		}
		if headerValue(msg, HeaderOriginalTopic) != "" {
			return errors.New("original topic header must be set only for DLQ")
		}
		return nil
	})

	publisher := NewOutboxPublisher(NewProducerFromSync(mockProducer), "")
	assert.Equal(t, TopicOrderEvents, publisher.Topic())

	err := publisher.Publish(context.Background(), domain.OutboxMessage{
		ID:            "outbox-1",
		AggregateType: domain.AggregateOrder,
		AggregateID:   "42",
		EventType:     string(domain.EventOrderCreated),
		Payload:       []byte(`{"order_id":42}`),
	})
	require.NoError(t, err)
	require.NoError(t, mockProducer.Close())
}

func TestOutboxPublisher_PublishProducerError(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := NewOutboxPublisher(NewProducerFromSync(mockProducer), TopicOrderEvents)
	err := publisher.Publish(context.Background(), domain.OutboxMessage{
		ID:          "outbox-2",
		AggregateID: "43",
		EventType:   string(domain.EventOrderDeleted),
		Payload:     []byte(`{}`),
	})
	require.Error(t, err)
	require.NoError(t, mockProducer.Close())
}

func TestDLQPublisher_SetsOriginalTopic(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != TopicDeadLetterQueue {
			return fmt.Errorf("unexpected topic %s", msg.Topic)
		}
		if got := headerValue(msg, HeaderOriginalTopic); got != TopicOrderEvents {
			return fmt.Errorf("unexpected original topic %q", got)
		}
		// Без AggregateID ключом становится ID сообщения.
		key, _ := msg.Key.Encode()
		if string(key) != "outbox-3" {
			return fmt.Errorf("unexpected key %s", key)
		}
		return nil
	})

	publisher := NewDLQPublisher(NewProducerFromSync(mockProducer), "", "")
	err := publisher.Publish(context.Background(), domain.OutboxMessage{
		ID:        "outbox-3",
		EventType: string(domain.EventOrderUpdated),
		Payload:   []byte(`{"publish_error":"boom"}`),
	})
	require.NoError(t, err)
	require.NoError(t, mockProducer.Close())
}

func TestOutboxPublisher_NilGuard(t *testing.T) {
	t.Parallel()

	var publisher *OutboxTopicPublisher
	require.Error(t, publisher.Publish(context.Background(), domain.OutboxMessage{}))
}
