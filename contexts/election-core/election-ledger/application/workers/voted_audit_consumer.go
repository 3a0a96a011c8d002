package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	application "tally/contexts/election-core/election-ledger/application"
	"tally/contexts/election-core/election-ledger/ports"
	"tally/internal/shared/events"
)

const (
	votedTopic     = "election.voted"
	defaultAuditCG = "election-ledger-audit-cg"
)

// VotedAuditConsumer subscribes to ballot events and writes the audit trail.
// The Voted notification is the only observable signal of a successful vote,
// so every consumed event is logged with its candidate id and voter address.
type VotedAuditConsumer struct {
	Subscriber    ports.EventSubscriber
	ConsumerGroup string
	Disabled      bool
	Logger        *slog.Logger
}

func (c VotedAuditConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Disabled {
		logger.Info("voted audit consumer disabled by feature flag",
			"event", "election_audit_consumer_disabled",
			"module", "election-core/election-ledger",
			"layer", "worker",
		)
		return nil
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultAuditCG
	}
	if err := c.Subscriber.Subscribe(ctx, votedTopic, group, c.handleVoted); err != nil {
		logger.Error("voted audit consumer subscribe failed",
			"event", "election_audit_consumer_subscribe_failed",
			"module", "election-core/election-ledger",
			"layer", "worker",
			"topic", votedTopic,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("voted audit consumer subscription active",
		"event", "election_audit_consumer_started",
		"module", "election-core/election-ledger",
		"layer", "worker",
		"topic", votedTopic,
		"consumer_group", group,
	)
	return nil
}

func (c VotedAuditConsumer) handleVoted(_ context.Context, event events.Envelope) error {
	logger := application.ResolveLogger(c.Logger)
	var payload struct {
		ElectionID  string `json:"election_id"`
		CandidateID int    `json:"candidate_id"`
		VoteCount   int    `json:"vote_count"`
		Voter       string `json:"voter"`
		OccurredAt  string `json:"occurred_at"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("voted audit decode failed",
			"event", "election_audit_decode_failed",
			"module", "election-core/election-ledger",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("ballot audited",
		"event", "election_ballot_audited",
		"module", "election-core/election-ledger",
		"layer", "worker",
		"event_id", event.EventID,
		"election_id", payload.ElectionID,
		"candidate_id", payload.CandidateID,
		"vote_count", payload.VoteCount,
		"voter", payload.Voter,
		"occurred_at", payload.OccurredAt,
	)
	return nil
}
