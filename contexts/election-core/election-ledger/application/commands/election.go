package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "tally/contexts/election-core/election-ledger/application"
	"tally/contexts/election-core/election-ledger/domain/entities"
	domainerrors "tally/contexts/election-core/election-ledger/domain/errors"
	"tally/contexts/election-core/election-ledger/ports"
)

// CreateElectionCommand opens a new ledger. The caller becomes the owner.
type CreateElectionCommand struct {
	Caller entities.Identity
	Name   string
}

// AddCandidateCommand appends a candidate during the configuration phase.
type AddCandidateCommand struct {
	ElectionID string
	Caller     entities.Identity
	Name       string
}

// RegisterVoterCommand adds an identity to the voter roll.
type RegisterVoterCommand struct {
	ElectionID string
	Caller     entities.Identity
	Voter      entities.Identity
}

// TransitionCommand drives a phase transition (start or end).
type TransitionCommand struct {
	ElectionID string
	Caller     entities.Identity
}

// CastVoteCommand records the caller's single ballot.
type CastVoteCommand struct {
	ElectionID  string
	Caller      entities.Identity
	CandidateID int
}

// CastVoteResult carries the updated candidate so transports can echo the
// running tally alongside the recorded ballot.
type CastVoteResult struct {
	ElectionID string
	Voter      entities.Identity
	Candidate  entities.Candidate
}

// LedgerUseCase orchestrates election ledger commands. All election rules
// live in the aggregate; this layer adds repository round-trips, logging,
// and outbox event emission.
type LedgerUseCase struct {
	Elections ports.ElectionRepository
	Outbox    ports.OutboxWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

// CreateElection creates a ledger in the NotStarted phase with the caller
// fixed as owner, no candidates, and an empty voter roll.
func (uc LedgerUseCase) CreateElection(ctx context.Context, cmd CreateElectionCommand) (entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger)
	if cmd.Caller == (entities.Identity{}) {
		logger.Warn("election create validation failed",
			"event", "election_create_validation_failed",
			"module", "election-core/election-ledger",
			"layer", "application",
		)
		return entities.Election{}, domainerrors.ErrInvalidElectionInput
	}

	electionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Election{}, err
	}
	now := uc.now()
	election := entities.NewElection(electionID, strings.TrimSpace(cmd.Name), cmd.Caller, now)
	if err := uc.Elections.SaveElection(ctx, election); err != nil {
		return entities.Election{}, err
	}
	logger.Info("election created",
		"event", "election_created",
		"module", "election-core/election-ledger",
		"layer", "application",
		"election_id", election.ElectionID,
		"owner", election.Owner.Hex(),
	)
	return election, nil
}

// AddCandidate appends a candidate with the next dense id. Fails with the
// domain error when the caller is not the owner or voting has begun.
func (uc LedgerUseCase) AddCandidate(ctx context.Context, cmd AddCandidateCommand) (entities.Candidate, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.ElectionID) == "" {
		return entities.Candidate{}, domainerrors.ErrInvalidElectionInput
	}

	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(cmd.ElectionID))
	if err != nil {
		return entities.Candidate{}, err
	}
	candidate, err := election.AddCandidate(cmd.Caller, strings.TrimSpace(cmd.Name), uc.now())
	if err != nil {
		logger.Warn("candidate rejected",
			"event", "election_candidate_rejected",
			"module", "election-core/election-ledger",
			"layer", "application",
			"election_id", election.ElectionID,
			"caller", cmd.Caller.Hex(),
			"error", err.Error(),
		)
		return entities.Candidate{}, err
	}
	if err := uc.Elections.SaveElection(ctx, election); err != nil {
		return entities.Candidate{}, err
	}
	logger.Info("candidate added",
		"event", "election_candidate_added",
		"module", "election-core/election-ledger",
		"layer", "application",
		"election_id", election.ElectionID,
		"candidate_id", candidate.ID,
		"candidate_name", candidate.Name,
	)
	return candidate, nil
}

// RegisterVoter adds a voter to the roll with an unused ballot.
func (uc LedgerUseCase) RegisterVoter(ctx context.Context, cmd RegisterVoterCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.ElectionID) == "" || cmd.Voter == (entities.Identity{}) {
		return domainerrors.ErrInvalidElectionInput
	}

	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(cmd.ElectionID))
	if err != nil {
		return err
	}
	if err := election.RegisterVoter(cmd.Caller, cmd.Voter, uc.now()); err != nil {
		logger.Warn("voter registration rejected",
			"event", "election_voter_rejected",
			"module", "election-core/election-ledger",
			"layer", "application",
			"election_id", election.ElectionID,
			"caller", cmd.Caller.Hex(),
			"voter", cmd.Voter.Hex(),
			"error", err.Error(),
		)
		return err
	}
	if err := uc.Elections.SaveElection(ctx, election); err != nil {
		return err
	}
	logger.Info("voter registered",
		"event", "election_voter_registered",
		"module", "election-core/election-ledger",
		"layer", "application",
		"election_id", election.ElectionID,
		"voter", cmd.Voter.Hex(),
	)
	return nil
}

// StartElection opens the voting window.
func (uc LedgerUseCase) StartElection(ctx context.Context, cmd TransitionCommand) error {
	return uc.transition(ctx, cmd, transitionStart)
}

// EndElection closes the voting window. The terminal phase only accepts
// read-only queries afterwards.
func (uc LedgerUseCase) EndElection(ctx context.Context, cmd TransitionCommand) error {
	return uc.transition(ctx, cmd, transitionEnd)
}

// CastVote records a single ballot and emits the election.voted event that
// external listeners rely on as the sole signal of a successful vote.
func (uc LedgerUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.ElectionID) == "" {
		return CastVoteResult{}, domainerrors.ErrInvalidElectionInput
	}

	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(cmd.ElectionID))
	if err != nil {
		return CastVoteResult{}, err
	}
	now := uc.now()
	candidate, err := election.CastVote(cmd.Caller, cmd.CandidateID, now)
	if err != nil {
		logger.Warn("ballot rejected",
			"event", "election_ballot_rejected",
			"module", "election-core/election-ledger",
			"layer", "application",
			"election_id", election.ElectionID,
			"caller", cmd.Caller.Hex(),
			"candidate_id", cmd.CandidateID,
			"error", err.Error(),
		)
		return CastVoteResult{}, err
	}
	if err := uc.Elections.SaveElection(ctx, election); err != nil {
		return CastVoteResult{}, err
	}
	if err := uc.appendElectionEvent(ctx, topicVoted, election, now, map[string]any{
		"candidate_id":   candidate.ID,
		"candidate_name": candidate.Name,
		"vote_count":     candidate.VoteCount,
		"voter":          cmd.Caller.Hex(),
	}); err != nil {
		return CastVoteResult{}, err
	}
	logger.Info("ballot recorded",
		"event", "election_ballot_recorded",
		"module", "election-core/election-ledger",
		"layer", "application",
		"election_id", election.ElectionID,
		"candidate_id", candidate.ID,
		"vote_count", candidate.VoteCount,
		"voter", cmd.Caller.Hex(),
	)
	return CastVoteResult{
		ElectionID: election.ElectionID,
		Voter:      cmd.Caller,
		Candidate:  candidate,
	}, nil
}

const (
	transitionStart = "start"
	transitionEnd   = "end"
)

func (uc LedgerUseCase) transition(ctx context.Context, cmd TransitionCommand, kind string) error {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.ElectionID) == "" {
		return domainerrors.ErrInvalidElectionInput
	}

	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(cmd.ElectionID))
	if err != nil {
		return err
	}
	now := uc.now()
	topic := topicStarted
	if kind == transitionEnd {
		topic = topicEnded
		err = election.End(cmd.Caller, now)
	} else {
		err = election.Start(cmd.Caller, now)
	}
	if err != nil {
		logger.Warn("phase transition rejected",
			"event", "election_transition_rejected",
			"module", "election-core/election-ledger",
			"layer", "application",
			"election_id", election.ElectionID,
			"transition", kind,
			"caller", cmd.Caller.Hex(),
			"error", err.Error(),
		)
		return err
	}
	if err := uc.Elections.SaveElection(ctx, election); err != nil {
		return err
	}
	if err := uc.appendElectionEvent(ctx, topic, election, now, map[string]any{
		"phase":       int(election.Phase),
		"phase_label": election.Phase.String(),
	}); err != nil {
		return err
	}
	logger.Info("phase transition applied",
		"event", "election_transition_applied",
		"module", "election-core/election-ledger",
		"layer", "application",
		"election_id", election.ElectionID,
		"transition", kind,
		"phase", election.Phase.String(),
	)
	return nil
}

func (uc LedgerUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
