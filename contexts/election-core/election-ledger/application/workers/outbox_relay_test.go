package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"tally/contexts/election-core/election-ledger/adapters/memory"
	"tally/contexts/election-core/election-ledger/application/workers"
	"tally/internal/shared/events"
)

type capturingPublisher struct {
	published []events.Envelope
	topics    []string
	failAfter int
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, event events.Envelope) error {
	if p.failAfter > 0 && len(p.published) >= p.failAfter {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, event)
	p.topics = append(p.topics, topic)
	return nil
}

func appendEnvelope(t *testing.T, store *memory.Store, id, eventType string, at time.Time) {
	t.Helper()
	err := store.AppendOutbox(context.Background(), events.Envelope{
		EventID:      id,
		EventType:    eventType,
		OccurredAt:   at,
		PartitionKey: "election-1",
		Data:         json.RawMessage(`{"election_id":"election-1"}`),
	})
	if err != nil {
		t.Fatalf("append outbox failed: %v", err)
	}
}

func TestRelayPublishesAndMarksRows(t *testing.T) {
	store := memory.NewStore(nil)
	publisher := &capturingPublisher{}
	base := time.Now().UTC()

	appendEnvelope(t, store, "evt-1", "election.started", base)
	appendEnvelope(t, store, "evt-2", "election.voted", base.Add(time.Millisecond))

	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher, Clock: store, BatchSize: 10}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}

	if len(publisher.published) != 2 {
		t.Fatalf("expected 2 publishes, got %d", len(publisher.published))
	}
	if publisher.topics[0] != "election.started" || publisher.topics[1] != "election.voted" {
		t.Fatalf("events must go to their own topics in order, got %v", publisher.topics)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("published rows must leave the pending set, got %d", len(pending))
	}
}

func TestRelayStopsOnPublishFailure(t *testing.T) {
	store := memory.NewStore(nil)
	publisher := &capturingPublisher{failAfter: 1}
	base := time.Now().UTC()

	appendEnvelope(t, store, "evt-1", "election.started", base)
	appendEnvelope(t, store, "evt-2", "election.voted", base.Add(time.Millisecond))

	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher, Clock: store, BatchSize: 10}
	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected relay to surface the publish failure")
	}

	// The failed row stays pending so the next cycle retries it.
	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].OutboxID != "evt-2" {
		t.Fatalf("expected evt-2 to remain pending, got %+v", pending)
	}
}

func TestRelayWithEmptyOutboxIsNoop(t *testing.T) {
	store := memory.NewStore(nil)
	publisher := &capturingPublisher{}

	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher, Clock: store}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	if len(publisher.published) != 0 {
		t.Fatalf("empty outbox must publish nothing")
	}
}
