package entities_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"tally/contexts/election-core/election-ledger/domain/entities"
	domainerrors "tally/contexts/election-core/election-ledger/domain/errors"
)

var (
	owner    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	voterOne = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	voterTwo = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	outsider = common.HexToAddress("0x00000000000000000000000000000000000000c1")
)

func newTestElection(t *testing.T) entities.Election {
	t.Helper()
	return entities.NewElection("election-1", "board", owner, time.Now().UTC())
}

func TestCandidateIDsAreDenseAndOrdered(t *testing.T) {
	election := newTestElection(t)
	now := time.Now().UTC()

	first, err := election.AddCandidate(owner, "alice", now)
	if err != nil {
		t.Fatalf("add candidate failed: %v", err)
	}
	second, err := election.AddCandidate(owner, "bob", now)
	if err != nil {
		t.Fatalf("add candidate failed: %v", err)
	}
	if first.ID != 0 || second.ID != 1 {
		t.Fatalf("expected dense ids 0 and 1, got %d and %d", first.ID, second.ID)
	}
	if first.VoteCount != 0 || second.VoteCount != 0 {
		t.Fatalf("expected zero initial vote counts")
	}
}

func TestOwnerGateOnConfiguration(t *testing.T) {
	election := newTestElection(t)
	now := time.Now().UTC()

	if _, err := election.AddCandidate(outsider, "mallory", now); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := election.RegisterVoter(outsider, voterOne, now); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := election.Start(outsider, now); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized start, got %v", err)
	}
	if len(election.Candidates) != 0 || len(election.Voters) != 0 {
		t.Fatalf("rejected calls must not mutate state")
	}
}

func TestDuplicateVoterRegistration(t *testing.T) {
	election := newTestElection(t)
	now := time.Now().UTC()

	if err := election.RegisterVoter(owner, voterOne, now); err != nil {
		t.Fatalf("register voter failed: %v", err)
	}
	if err := election.RegisterVoter(owner, voterOne, now); !errors.Is(err, domainerrors.ErrDuplicateVoter) {
		t.Fatalf("expected duplicate voter, got %v", err)
	}
	if len(election.Voters) != 1 {
		t.Fatalf("expected one voter record, got %d", len(election.Voters))
	}
}

func TestPhaseTransitionsAreMonotonic(t *testing.T) {
	election := newTestElection(t)
	now := time.Now().UTC()

	if err := election.End(owner, now); !errors.Is(err, domainerrors.ErrInvalidPhase) {
		t.Fatalf("ending a not-started election must fail with invalid phase, got %v", err)
	}
	if err := election.Start(owner, now); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if election.Phase != entities.PhaseInProgress {
		t.Fatalf("expected in-progress phase, got %v", election.Phase)
	}
	if err := election.Start(owner, now); !errors.Is(err, domainerrors.ErrInvalidPhase) {
		t.Fatalf("restart must fail with invalid phase, got %v", err)
	}
	if err := election.End(owner, now); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if election.Phase != entities.PhaseEnded {
		t.Fatalf("expected ended phase, got %v", election.Phase)
	}
	if err := election.Start(owner, now); !errors.Is(err, domainerrors.ErrInvalidPhase) {
		t.Fatalf("starting an ended election must fail, got %v", err)
	}
	if err := election.End(owner, now); !errors.Is(err, domainerrors.ErrInvalidPhase) {
		t.Fatalf("re-ending must fail, got %v", err)
	}
}

func TestConfigurationLocksOnceStarted(t *testing.T) {
	election := newTestElection(t)
	now := time.Now().UTC()

	if _, err := election.AddCandidate(owner, "alice", now); err != nil {
		t.Fatalf("add candidate failed: %v", err)
	}
	if err := election.Start(owner, now); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := election.AddCandidate(owner, "late", now); !errors.Is(err, domainerrors.ErrInvalidPhase) {
		t.Fatalf("expected invalid phase for late candidate, got %v", err)
	}
	if err := election.RegisterVoter(owner, voterOne, now); !errors.Is(err, domainerrors.ErrInvalidPhase) {
		t.Fatalf("expected invalid phase for late voter, got %v", err)
	}
}

func TestExactlyOnceVoting(t *testing.T) {
	election := newTestElection(t)
	now := time.Now().UTC()

	if _, err := election.AddCandidate(owner, "alice", now); err != nil {
		t.Fatalf("add candidate failed: %v", err)
	}
	if _, err := election.AddCandidate(owner, "bob", now); err != nil {
		t.Fatalf("add candidate failed: %v", err)
	}
	if err := election.RegisterVoter(owner, voterOne, now); err != nil {
		t.Fatalf("register voter failed: %v", err)
	}
	if err := election.RegisterVoter(owner, voterTwo, now); err != nil {
		t.Fatalf("register voter failed: %v", err)
	}
	if err := election.Start(owner, now); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	candidate, err := election.CastVote(voterOne, 0, now)
	if err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	if candidate.ID != 0 || candidate.VoteCount != 1 {
		t.Fatalf("expected candidate 0 with one vote, got id %d count %d", candidate.ID, candidate.VoteCount)
	}
	if _, err := election.CastVote(voterOne, 1, now); !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("second ballot must fail with already voted, got %v", err)
	}
	if election.Candidates[1].VoteCount != 0 {
		t.Fatalf("rejected ballot must not change any tally")
	}
}

func TestVoteFailurePrecedence(t *testing.T) {
	election := newTestElection(t)
	now := time.Now().UTC()

	if _, err := election.AddCandidate(owner, "alice", now); err != nil {
		t.Fatalf("add candidate failed: %v", err)
	}
	if err := election.RegisterVoter(owner, voterOne, now); err != nil {
		t.Fatalf("register voter failed: %v", err)
	}

	// Phase outranks every other check: an unregistered caller with a bogus
	// candidate id still sees the phase error before the window opens.
	if _, err := election.CastVote(outsider, 99, now); !errors.Is(err, domainerrors.ErrInvalidPhase) {
		t.Fatalf("expected invalid phase before start, got %v", err)
	}

	if err := election.Start(owner, now); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := election.CastVote(outsider, 99, now); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for unregistered voter, got %v", err)
	}
	if _, err := election.CastVote(voterOne, 99, now); !errors.Is(err, domainerrors.ErrInvalidCandidate) {
		t.Fatalf("expected invalid candidate, got %v", err)
	}
	if _, err := election.CastVote(voterOne, -1, now); !errors.Is(err, domainerrors.ErrInvalidCandidate) {
		t.Fatalf("expected invalid candidate for negative id, got %v", err)
	}
	if _, err := election.CastVote(voterOne, 0, now); err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	// Already-voted outranks candidate range once the ballot is recorded.
	if _, err := election.CastVote(voterOne, 99, now); !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected already voted, got %v", err)
	}

	if err := election.End(owner, now); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if _, err := election.CastVote(voterTwo, 0, now); !errors.Is(err, domainerrors.ErrInvalidPhase) {
		t.Fatalf("expected invalid phase after end, got %v", err)
	}
}

func TestTallyMatchesBallotsCast(t *testing.T) {
	election := newTestElection(t)
	now := time.Now().UTC()

	for _, name := range []string{"alice", "bob", "carol"} {
		if _, err := election.AddCandidate(owner, name, now); err != nil {
			t.Fatalf("add candidate failed: %v", err)
		}
	}
	voters := []entities.Identity{voterOne, voterTwo, outsider}
	for _, voter := range voters {
		if err := election.RegisterVoter(owner, voter, now); err != nil {
			t.Fatalf("register voter failed: %v", err)
		}
	}
	if err := election.Start(owner, now); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	checkInvariant := func() {
		total := 0
		for _, candidate := range election.Candidates {
			total += candidate.VoteCount
		}
		if total != election.BallotsCast() {
			t.Fatalf("tally sum %d diverged from ballots cast %d", total, election.BallotsCast())
		}
	}

	checkInvariant()
	for i, voter := range voters {
		if _, err := election.CastVote(voter, i%2, now); err != nil {
			t.Fatalf("cast vote failed: %v", err)
		}
		checkInvariant()
	}
	if election.Candidates[0].VoteCount != 2 || election.Candidates[1].VoteCount != 1 {
		t.Fatalf("unexpected tally: %+v", election.Candidates)
	}
	if election.Candidates[2].VoteCount != 0 {
		t.Fatalf("candidate without ballots must stay at zero")
	}
}

func TestRoleDerivation(t *testing.T) {
	election := newTestElection(t)
	now := time.Now().UTC()

	if err := election.RegisterVoter(owner, voterOne, now); err != nil {
		t.Fatalf("register voter failed: %v", err)
	}
	if got := election.RoleOf(owner); got != entities.RoleOwner {
		t.Fatalf("expected owner role, got %v", got)
	}
	if got := election.RoleOf(voterOne); got != entities.RoleRegisteredVoter {
		t.Fatalf("expected registered voter role, got %v", got)
	}
	if got := election.RoleOf(outsider); got != entities.RoleUnregistered {
		t.Fatalf("expected unregistered role, got %v", got)
	}
	if int(entities.RoleOwner) != 1 || int(entities.RoleRegisteredVoter) != 2 || int(entities.RoleUnregistered) != 3 {
		t.Fatalf("role codes must be 1, 2, 3")
	}
	if int(entities.PhaseNotStarted) != 0 || int(entities.PhaseInProgress) != 1 || int(entities.PhaseEnded) != 2 {
		t.Fatalf("phase codes must be 0, 1, 2")
	}
}

func TestCloneIsolatesSlices(t *testing.T) {
	election := newTestElection(t)
	now := time.Now().UTC()

	if _, err := election.AddCandidate(owner, "alice", now); err != nil {
		t.Fatalf("add candidate failed: %v", err)
	}
	if err := election.RegisterVoter(owner, voterOne, now); err != nil {
		t.Fatalf("register voter failed: %v", err)
	}

	clone := election.Clone()
	clone.Candidates[0].VoteCount = 42
	clone.Voters[0].HasVoted = true

	if election.Candidates[0].VoteCount != 0 {
		t.Fatalf("clone mutation leaked into candidate slice")
	}
	if election.Voters[0].HasVoted {
		t.Fatalf("clone mutation leaked into voter slice")
	}
}
