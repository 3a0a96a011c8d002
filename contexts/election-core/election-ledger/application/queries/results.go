package queries

import (
	"context"
	"strings"

	"tally/contexts/election-core/election-ledger/domain/entities"
	domainerrors "tally/contexts/election-core/election-ledger/domain/errors"
	"tally/contexts/election-core/election-ledger/ports"
)

// ResultsUseCase serves the read side of the ledger. Every method is a pure
// function of current state with no failure modes beyond lookup errors.
type ResultsUseCase struct {
	Elections ports.ElectionRepository
}

func (uc ResultsUseCase) GetElection(ctx context.Context, electionID string) (entities.Election, error) {
	if strings.TrimSpace(electionID) == "" {
		return entities.Election{}, domainerrors.ErrInvalidElectionInput
	}
	return uc.Elections.GetElection(ctx, strings.TrimSpace(electionID))
}

func (uc ResultsUseCase) ListElections(ctx context.Context) ([]entities.Election, error) {
	return uc.Elections.ListElections(ctx)
}

// RoleOf derives the role of an identity against the owner field and voter
// roll of one election.
func (uc ResultsUseCase) RoleOf(ctx context.Context, electionID string, identity entities.Identity) (entities.Role, error) {
	election, err := uc.GetElection(ctx, electionID)
	if err != nil {
		return 0, err
	}
	return election.RoleOf(identity), nil
}

func (uc ResultsUseCase) Phase(ctx context.Context, electionID string) (entities.Phase, error) {
	election, err := uc.GetElection(ctx, electionID)
	if err != nil {
		return 0, err
	}
	return election.Phase, nil
}

// Candidates returns the candidate list in insertion (id) order.
func (uc ResultsUseCase) Candidates(ctx context.Context, electionID string) ([]entities.Candidate, error) {
	election, err := uc.GetElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	return election.Candidates, nil
}

// VoterRoll returns the registered voters in registration order.
func (uc ResultsUseCase) VoterRoll(ctx context.Context, electionID string) ([]entities.VoterRecord, error) {
	election, err := uc.GetElection(ctx, electionID)
	if err != nil {
		return nil, err
	}
	return election.Voters, nil
}

// Results computes the tally read model. Ties surface every leading candidate
// in id order so callers get a deterministic winner set.
func (uc ResultsUseCase) Results(ctx context.Context, electionID string) (entities.ElectionResults, error) {
	election, err := uc.GetElection(ctx, electionID)
	if err != nil {
		return entities.ElectionResults{}, err
	}

	results := entities.ElectionResults{
		ElectionID:       election.ElectionID,
		Phase:            election.Phase,
		Items:            make([]entities.CandidateTally, 0, len(election.Candidates)),
		RegisteredVoters: len(election.Voters),
		BallotsCast:      election.BallotsCast(),
	}
	top := 0
	for _, candidate := range election.Candidates {
		results.Items = append(results.Items, entities.CandidateTally{
			CandidateID: candidate.ID,
			Name:        candidate.Name,
			VoteCount:   candidate.VoteCount,
		})
		if candidate.VoteCount > top {
			top = candidate.VoteCount
		}
	}
	if top > 0 {
		for _, candidate := range election.Candidates {
			if candidate.VoteCount == top {
				results.Winners = append(results.Winners, candidate.ID)
			}
		}
	}
	if results.RegisteredVoters > 0 {
		results.Turnout = float64(results.BallotsCast) / float64(results.RegisteredVoters)
	}
	return results, nil
}
