package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/celulandia/cuentas/internal/domain"
)

func TestOutboxRepositoryCreate(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO outbox_events")).
		WithArgs("evt-1", "mov-1", domain.AggregateTypeMovement, domain.EventTypeMovementCreated,
			[]byte(`{"movimiento_id":"mov-1"}`), pgxmock.AnyArg(), false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := newOutboxRepositoryWithDB(mock).Create(context.Background(), nil, &domain.OutboxEvent{
		ID:            "evt-1",
		AggregateID:   "mov-1",
		AggregateType: domain.AggregateTypeMovement,
		EventType:     domain.EventTypeMovementCreated,
		Payload:       map[string]any{"movimiento_id": "mov-1"},
		CreatedAt:     time.Now(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	assertExpectations(t, mock)
}

func TestOutboxRepositoryGetUnpublished(t *testing.T) {
	mock := newMockPool(t)
	created := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM outbox_events")).
		WithArgs(50).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "aggregate_id", "aggregate_type", "event_type", "payload", "created_at", "published_at", "published",
		}).AddRow(
			"evt-1", "mov-1", "movimiento", "movimiento.created", []byte(`{"cliente":"Juan"}`), created, nil, false,
		))

	events, err := newOutboxRepositoryWithDB(mock).GetUnpublished(context.Background(), 50)
	if err != nil {
		t.Fatalf("get unpublished: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Payload["cliente"] != "Juan" {
		t.Fatalf("unexpected payload: %v", events[0].Payload)
	}
	if events[0].PublishedAt != nil {
		t.Fatalf("expected nil published_at")
	}

	assertExpectations(t, mock)
}

func TestOutboxRepositoryMarkPublished(t *testing.T) {
	mock := newMockPool(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE outbox_events SET published = TRUE")).
		WithArgs("evt-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := newOutboxRepositoryWithDB(mock).MarkPublished(context.Background(), "evt-1", time.Now()); err != nil {
		t.Fatalf("mark published: %v", err)
	}

	assertExpectations(t, mock)
}
