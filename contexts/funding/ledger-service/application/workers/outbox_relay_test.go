package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"questfund/contexts/funding/ledger-service/adapters/memory"
	"questfund/contexts/funding/ledger-service/ports"
	"questfund/internal/shared/events"
)

type capturingPublisher struct {
	published []string
	failAfter int
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, _ ports.EventEnvelope) error {
	if p.failAfter > 0 && len(p.published) >= p.failAfter {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, topic)
	return nil
}

func appendEnvelope(t *testing.T, store *memory.Store, eventID string, eventType string) {
	t.Helper()
	err := store.AppendOutbox(context.Background(), events.Envelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC),
		SourceService: "ledger-service",
		SchemaVersion: 1,
		PartitionKey:  "1",
	})
	if err != nil {
		t.Fatalf("append outbox failed: %v", err)
	}
}

func TestRunOncePublishesAndMarks(t *testing.T) {
	store := memory.NewStore(nil)
	appendEnvelope(t, store, "evt-1", "campaign.created")
	appendEnvelope(t, store, "evt-2", "contribution.recorded")

	publisher := &capturingPublisher{}
	relay := OutboxRelay{Outbox: store, Publisher: publisher, Clock: store}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once failed: %v", err)
	}
	if len(publisher.published) != 2 {
		t.Fatalf("expected 2 publishes, got %d", len(publisher.published))
	}
	if publisher.published[0] != "campaign.created" || publisher.published[1] != "contribution.recorded" {
		t.Fatalf("unexpected topics %v", publisher.published)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending rows after relay, got %d", len(pending))
	}
}

func TestRunOnceStopsOnPublishFailure(t *testing.T) {
	store := memory.NewStore(nil)
	appendEnvelope(t, store, "evt-1", "campaign.created")
	appendEnvelope(t, store, "evt-2", "contribution.recorded")

	publisher := &capturingPublisher{failAfter: 1}
	relay := OutboxRelay{Outbox: store, Publisher: publisher, Clock: store}

	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected publish failure to surface")
	}

	// The failed row stays pending for the next cycle.
	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].OutboxID != "evt-2" {
		t.Fatalf("expected evt-2 to remain pending, got %+v", pending)
	}

	publisher.failAfter = 0
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("retry cycle failed: %v", err)
	}
	pending, err = store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected retry to drain the outbox, got %d pending", len(pending))
	}
}

func TestRunOnceRespectsBatchSize(t *testing.T) {
	store := memory.NewStore(nil)
	for i := 0; i < 3; i++ {
		appendEnvelope(t, store, "evt-"+string(rune('a'+i)), "campaign.created")
	}

	publisher := &capturingPublisher{}
	relay := OutboxRelay{Outbox: store, Publisher: publisher, Clock: store, BatchSize: 2}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once failed: %v", err)
	}
	if len(publisher.published) != 2 {
		t.Fatalf("expected batch of 2, got %d", len(publisher.published))
	}
	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 row left, got %d", len(pending))
	}
}
