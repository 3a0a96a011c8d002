package commands

import (
	"context"
	"encoding/json"
	"time"

	"tally/contexts/election-core/election-ledger/domain/entities"
	"tally/internal/shared/events"
)

const (
	topicVoted   = "election.voted"
	topicStarted = "election.started"
	topicEnded   = "election.ended"
)

func (uc LedgerUseCase) appendElectionEvent(
	ctx context.Context,
	eventType string,
	election entities.Election,
	occurredAt time.Time,
	data map[string]any,
) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload := map[string]any{
		"election_id": election.ElectionID,
		"occurred_at": occurredAt.UTC().Format(time.RFC3339),
	}
	for key, value := range data {
		payload[key] = value
	}
	envelope, err := newElectionEnvelope(eventID, eventType, election.ElectionID, occurredAt, payload)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func newElectionEnvelope(
	eventID string,
	eventType string,
	electionID string,
	occurredAt time.Time,
	data map[string]any,
) (events.Envelope, error) {
	// Events are partitioned by election so per-ledger consumers observe them
	// in order.
	payload, err := json.Marshal(data)
	if err != nil {
		return events.Envelope{}, err
	}
	return events.Envelope{
		EventID:          eventID,
		EventType:        eventType,
		SourceService:    "election-ledger",
		OccurredAt:       occurredAt.UTC(),
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "election_id",
		PartitionKey:     electionID,
		Data:             payload,
	}, nil
}
