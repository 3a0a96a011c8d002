package entities

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	domainerrors "tally/contexts/election-core/election-ledger/domain/errors"
)

// Identity is the opaque participant address supplied by the hosting layer.
// Equality is the only operation the ledger relies on.
type Identity = common.Address

type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseInProgress
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseInProgress:
		return "in_progress"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Role is derived from the owner field and voter roll, never stored.
// Codes follow the external reporting contract.
type Role int

const (
	RoleOwner           Role = 1
	RoleRegisteredVoter Role = 2
	RoleUnregistered    Role = 3
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleRegisteredVoter:
		return "registered_voter"
	case RoleUnregistered:
		return "unregistered"
	default:
		return "unknown"
	}
}

type Candidate struct {
	ID        int
	Name      string
	VoteCount int
}

// VoterRecord tracks one registered identity. CandidateID is the recorded
// ballot and is meaningful only while HasVoted is true; it never resets.
type VoterRecord struct {
	Address  Identity
	HasVoted bool
	// CandidateID holds the recorded ballot once HasVoted flips.
	CandidateID int
}

// Election is the ledger aggregate. The owner is fixed at creation, candidate
// ids are dense and assigned in insertion order, and the phase only ever moves
// NotStarted -> InProgress -> Ended. Every mutating method validates all
// preconditions before touching state, so a failed call leaves the aggregate
// untouched.
type Election struct {
	ElectionID string
	Name       string
	Owner      Identity
	Phase      Phase
	Candidates []Candidate
	Voters     []VoterRecord
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func NewElection(electionID string, name string, owner Identity, now time.Time) Election {
	return Election{
		ElectionID: electionID,
		Name:       name,
		Owner:      owner,
		Phase:      PhaseNotStarted,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}
}

// AddCandidate appends a candidate with the next sequential id. Owner-only,
// configuration phase only.
func (e *Election) AddCandidate(caller Identity, name string, now time.Time) (Candidate, error) {
	if caller != e.Owner {
		return Candidate{}, domainerrors.ErrUnauthorized
	}
	if e.Phase != PhaseNotStarted {
		return Candidate{}, domainerrors.ErrInvalidPhase
	}
	candidate := Candidate{
		ID:   len(e.Candidates),
		Name: name,
	}
	e.Candidates = append(e.Candidates, candidate)
	e.UpdatedAt = now.UTC()
	return candidate, nil
}

// RegisterVoter adds an identity to the voter roll with HasVoted false.
func (e *Election) RegisterVoter(caller Identity, voter Identity, now time.Time) error {
	if caller != e.Owner {
		return domainerrors.ErrUnauthorized
	}
	if e.Phase != PhaseNotStarted {
		return domainerrors.ErrInvalidPhase
	}
	if _, ok := e.voterRecord(voter); ok {
		return domainerrors.ErrDuplicateVoter
	}
	e.Voters = append(e.Voters, VoterRecord{Address: voter})
	e.UpdatedAt = now.UTC()
	return nil
}

// Start opens the voting window. Valid only once, from NotStarted.
func (e *Election) Start(caller Identity, now time.Time) error {
	if caller != e.Owner {
		return domainerrors.ErrUnauthorized
	}
	if e.Phase != PhaseNotStarted {
		return domainerrors.ErrInvalidPhase
	}
	e.Phase = PhaseInProgress
	e.UpdatedAt = now.UTC()
	return nil
}

// End closes the voting window. Only InProgress -> Ended is legal; ending a
// never-started election fails with the phase error.
func (e *Election) End(caller Identity, now time.Time) error {
	if caller != e.Owner {
		return domainerrors.ErrUnauthorized
	}
	if e.Phase != PhaseInProgress {
		return domainerrors.ErrInvalidPhase
	}
	e.Phase = PhaseEnded
	e.UpdatedAt = now.UTC()
	return nil
}

// CastVote records the caller's single ballot for candidateID. Failure
// precedence: phase, then registration, then already-voted, then candidate
// range. Tally increment and HasVoted flip commit together.
func (e *Election) CastVote(caller Identity, candidateID int, now time.Time) (Candidate, error) {
	if e.Phase != PhaseInProgress {
		return Candidate{}, domainerrors.ErrInvalidPhase
	}
	idx, ok := e.voterRecord(caller)
	if !ok {
		return Candidate{}, domainerrors.ErrUnauthorized
	}
	if e.Voters[idx].HasVoted {
		return Candidate{}, domainerrors.ErrAlreadyVoted
	}
	if candidateID < 0 || candidateID >= len(e.Candidates) {
		return Candidate{}, domainerrors.ErrInvalidCandidate
	}
	e.Candidates[candidateID].VoteCount++
	e.Voters[idx].HasVoted = true
	e.Voters[idx].CandidateID = candidateID
	e.UpdatedAt = now.UTC()
	return e.Candidates[candidateID], nil
}

// RoleOf derives the caller's role from the owner field and the voter roll.
func (e Election) RoleOf(identity Identity) Role {
	if identity == e.Owner {
		return RoleOwner
	}
	if _, ok := e.voterRecord(identity); ok {
		return RoleRegisteredVoter
	}
	return RoleUnregistered
}

func (e Election) Candidate(candidateID int) (Candidate, bool) {
	if candidateID < 0 || candidateID >= len(e.Candidates) {
		return Candidate{}, false
	}
	return e.Candidates[candidateID], true
}

// BallotsCast counts voters whose ballot has been recorded. It always equals
// the sum of candidate vote counts.
func (e Election) BallotsCast() int {
	count := 0
	for _, voter := range e.Voters {
		if voter.HasVoted {
			count++
		}
	}
	return count
}

// Clone copies the aggregate including its candidate and voter slices so
// store boundaries never hand out aliased state.
func (e Election) Clone() Election {
	out := e
	if e.Candidates != nil {
		out.Candidates = append([]Candidate(nil), e.Candidates...)
	}
	if e.Voters != nil {
		out.Voters = append([]VoterRecord(nil), e.Voters...)
	}
	return out
}

func (e Election) voterRecord(identity Identity) (int, bool) {
	for i, voter := range e.Voters {
		if voter.Address == identity {
			return i, true
		}
	}
	return 0, false
}
