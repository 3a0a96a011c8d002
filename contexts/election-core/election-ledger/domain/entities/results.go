package entities

// CandidateTally is one line of the election results read model.
type CandidateTally struct {
	CandidateID int
	Name        string
	VoteCount   int
}

// ElectionResults aggregates the per-candidate tally with turnout figures.
// Winners lists the candidate ids sharing the top tally; it is empty until at
// least one ballot has been cast.
type ElectionResults struct {
	ElectionID       string
	Phase            Phase
	Items            []CandidateTally
	RegisteredVoters int
	BallotsCast      int
	Turnout          float64
	Winners          []int
}
