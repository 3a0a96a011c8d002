package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"tally/contexts/election-core/election-ledger/adapters/memory"
	"tally/contexts/election-core/election-ledger/application/queries"
	"tally/contexts/election-core/election-ledger/domain/entities"
	domainerrors "tally/contexts/election-core/election-ledger/domain/errors"
)

var (
	owner    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	voterOne = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	voterTwo = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	voterTri = common.HexToAddress("0x00000000000000000000000000000000000000b3")
	outsider = common.HexToAddress("0x00000000000000000000000000000000000000c1")
)

func seedElection(t *testing.T) (queries.ResultsUseCase, entities.Election) {
	t.Helper()
	now := time.Now().UTC()
	election := entities.NewElection("election-1", "board", owner, now)
	for _, name := range []string{"alice", "bob"} {
		if _, err := election.AddCandidate(owner, name, now); err != nil {
			t.Fatalf("add candidate failed: %v", err)
		}
	}
	for _, voter := range []entities.Identity{voterOne, voterTwo, voterTri} {
		if err := election.RegisterVoter(owner, voter, now); err != nil {
			t.Fatalf("register voter failed: %v", err)
		}
	}
	if err := election.Start(owner, now); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	store := memory.NewStore([]entities.Election{election})
	return queries.ResultsUseCase{Elections: store}, election
}

func TestResultsTallyAndTurnout(t *testing.T) {
	now := time.Now().UTC()
	uc, election := seedElection(t)
	ctx := context.Background()

	loaded, err := uc.GetElection(ctx, election.ElectionID)
	if err != nil {
		t.Fatalf("get election failed: %v", err)
	}
	if _, err := loaded.CastVote(voterOne, 1, now); err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	if _, err := loaded.CastVote(voterTwo, 1, now); err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	if err := uc.Elections.SaveElection(ctx, loaded); err != nil {
		t.Fatalf("save election failed: %v", err)
	}

	results, err := uc.Results(ctx, election.ElectionID)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if results.BallotsCast != 2 || results.RegisteredVoters != 3 {
		t.Fatalf("expected 2 ballots from 3 voters, got %d/%d", results.BallotsCast, results.RegisteredVoters)
	}
	if results.Items[0].VoteCount != 0 || results.Items[1].VoteCount != 2 {
		t.Fatalf("unexpected tally: %+v", results.Items)
	}
	if len(results.Winners) != 1 || results.Winners[0] != 1 {
		t.Fatalf("expected candidate 1 as sole winner, got %v", results.Winners)
	}
	if results.Turnout <= 0.66 || results.Turnout >= 0.67 {
		t.Fatalf("expected turnout 2/3, got %f", results.Turnout)
	}
}

func TestResultsTieListsAllLeaders(t *testing.T) {
	now := time.Now().UTC()
	uc, election := seedElection(t)
	ctx := context.Background()

	loaded, err := uc.GetElection(ctx, election.ElectionID)
	if err != nil {
		t.Fatalf("get election failed: %v", err)
	}
	if _, err := loaded.CastVote(voterOne, 0, now); err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	if _, err := loaded.CastVote(voterTwo, 1, now); err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	if err := uc.Elections.SaveElection(ctx, loaded); err != nil {
		t.Fatalf("save election failed: %v", err)
	}

	results, err := uc.Results(ctx, election.ElectionID)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if len(results.Winners) != 2 || results.Winners[0] != 0 || results.Winners[1] != 1 {
		t.Fatalf("expected tied winners [0 1], got %v", results.Winners)
	}
}

func TestResultsWithNoBallotsHasNoWinner(t *testing.T) {
	uc, election := seedElection(t)

	results, err := uc.Results(context.Background(), election.ElectionID)
	if err != nil {
		t.Fatalf("results failed: %v", err)
	}
	if len(results.Winners) != 0 {
		t.Fatalf("expected no winners before any ballot, got %v", results.Winners)
	}
	if results.Turnout != 0 {
		t.Fatalf("expected zero turnout, got %f", results.Turnout)
	}
}

func TestRoleAndPhaseQueries(t *testing.T) {
	uc, election := seedElection(t)
	ctx := context.Background()

	role, err := uc.RoleOf(ctx, election.ElectionID, owner)
	if err != nil || role != entities.RoleOwner {
		t.Fatalf("expected owner role, got %v (%v)", role, err)
	}
	role, err = uc.RoleOf(ctx, election.ElectionID, voterOne)
	if err != nil || role != entities.RoleRegisteredVoter {
		t.Fatalf("expected registered voter role, got %v (%v)", role, err)
	}
	role, err = uc.RoleOf(ctx, election.ElectionID, outsider)
	if err != nil || role != entities.RoleUnregistered {
		t.Fatalf("expected unregistered role, got %v (%v)", role, err)
	}

	phase, err := uc.Phase(ctx, election.ElectionID)
	if err != nil || phase != entities.PhaseInProgress {
		t.Fatalf("expected in-progress phase, got %v (%v)", phase, err)
	}

	if _, err := uc.Phase(ctx, "missing"); !errors.Is(err, domainerrors.ErrElectionNotFound) {
		t.Fatalf("expected election not found, got %v", err)
	}
	if _, err := uc.Phase(ctx, " "); !errors.Is(err, domainerrors.ErrInvalidElectionInput) {
		t.Fatalf("expected invalid input for blank id, got %v", err)
	}
}

func TestCandidatesKeepInsertionOrder(t *testing.T) {
	uc, election := seedElection(t)

	candidates, err := uc.Candidates(context.Background(), election.ElectionID)
	if err != nil {
		t.Fatalf("candidates failed: %v", err)
	}
	if len(candidates) != 2 || candidates[0].Name != "alice" || candidates[1].Name != "bob" {
		t.Fatalf("unexpected candidate order: %+v", candidates)
	}
	for i, candidate := range candidates {
		if candidate.ID != i {
			t.Fatalf("expected dense id %d, got %d", i, candidate.ID)
		}
	}
}
