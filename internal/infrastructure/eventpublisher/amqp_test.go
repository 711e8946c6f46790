package eventpublisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/celulandia/cuentas/internal/domain"
)

type fakeChannel struct {
	exchange string
	key      string
	msgs     []amqp091.Publishing
	err      error
	closed   bool
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	if c.err != nil {
		return c.err
	}
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	c.exchange = exchange
	c.key = key
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestAMQPPublisherPublish(t *testing.T) {
	ch := &fakeChannel{}
	pub := newAMQPPublisher(ch, "cuentas", "movimientos")

	event := &domain.OutboxEvent{
		ID:            "evt-1",
		AggregateID:   "mov-1",
		AggregateType: domain.AggregateTypeMovement,
		EventType:     domain.EventTypeMovementUpdated,
		Payload:       map[string]any{"changed_fields": []string{"concepto"}},
		CreatedAt:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	if err := pub.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if ch.exchange != "cuentas" || ch.key != "movimientos" {
		t.Fatalf("unexpected routing %s/%s", ch.exchange, ch.key)
	}
	if len(ch.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(ch.msgs))
	}

	msg := ch.msgs[0]
	if msg.DeliveryMode != amqp091.Persistent {
		t.Fatalf("expected persistent delivery, got %d", msg.DeliveryMode)
	}
	if msg.ContentType != "application/json" || msg.MessageId != "evt-1" || msg.Type != domain.EventTypeMovementUpdated {
		t.Fatalf("unexpected message headers: %+v", msg)
	}

	var body amqpEnvelope
	if err := json.Unmarshal(msg.Body, &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body.AggregateID != "mov-1" || !body.OccurredAt.Equal(event.CreatedAt) {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestAMQPPublisherPublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	pub := newAMQPPublisher(ch, "cuentas", "movimientos")

	err := pub.Publish(context.Background(), &domain.OutboxEvent{ID: "evt-1"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestAMQPPublisherClose(t *testing.T) {
	ch := &fakeChannel{}
	pub := newAMQPPublisher(ch, "cuentas", "movimientos")

	if err := pub.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !ch.closed {
		t.Fatal("expected channel to be closed")
	}
}
