package errors

import "errors"

var (
	ErrUnauthorized         = errors.New("caller lacks the required role for this action")
	ErrInvalidPhase         = errors.New("action is not allowed in the current election phase")
	ErrDuplicateVoter       = errors.New("voter is already registered")
	ErrAlreadyVoted         = errors.New("voter has already cast a ballot")
	ErrInvalidCandidate     = errors.New("candidate id is out of range")
	ErrElectionNotFound     = errors.New("election not found")
	ErrInvalidElectionInput = errors.New("invalid election input")
	ErrConflict             = errors.New("election state conflict")
)
