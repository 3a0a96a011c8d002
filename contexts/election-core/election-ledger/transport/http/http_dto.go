package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateElectionRequest struct {
	Name string `json:"name"`
}

type ElectionResponse struct {
	ElectionID       string `json:"election_id"`
	Name             string `json:"name"`
	Owner            string `json:"owner"`
	Phase            int    `json:"phase"`
	PhaseLabel       string `json:"phase_label"`
	CandidateCount   int    `json:"candidate_count"`
	RegisteredVoters int    `json:"registered_voters"`
	BallotsCast      int    `json:"ballots_cast"`
}

type ElectionListResponse struct {
	Items []ElectionResponse `json:"items"`
}

type AddCandidateRequest struct {
	Name string `json:"name"`
}

type CandidateResponse struct {
	CandidateID int    `json:"candidate_id"`
	Name        string `json:"name"`
	VoteCount   int    `json:"vote_count"`
}

type CandidateListResponse struct {
	ElectionID string              `json:"election_id"`
	Items      []CandidateResponse `json:"items"`
}

type RegisterVoterRequest struct {
	Voter string `json:"voter"`
}

type VoterRecordResponse struct {
	Voter    string `json:"voter"`
	HasVoted bool   `json:"has_voted"`
}

type VoterRollResponse struct {
	ElectionID string                `json:"election_id"`
	Items      []VoterRecordResponse `json:"items"`
}

type VoteRequest struct {
	CandidateID int `json:"candidate_id"`
}

type VoteResponse struct {
	ElectionID    string `json:"election_id"`
	Voter         string `json:"voter"`
	CandidateID   int    `json:"candidate_id"`
	CandidateName string `json:"candidate_name"`
	VoteCount     int    `json:"vote_count"`
}

type PhaseResponse struct {
	ElectionID string `json:"election_id"`
	Phase      int    `json:"phase"`
	PhaseLabel string `json:"phase_label"`
}

type RoleResponse struct {
	ElectionID string `json:"election_id"`
	Identity   string `json:"identity"`
	Role       int    `json:"role"`
	RoleLabel  string `json:"role_label"`
}

type TallyItem struct {
	CandidateID int    `json:"candidate_id"`
	Name        string `json:"name"`
	VoteCount   int    `json:"vote_count"`
}

type ResultsResponse struct {
	ElectionID       string      `json:"election_id"`
	Phase            int         `json:"phase"`
	PhaseLabel       string      `json:"phase_label"`
	Items            []TallyItem `json:"items"`
	RegisteredVoters int         `json:"registered_voters"`
	BallotsCast      int         `json:"ballots_cast"`
	Turnout          float64     `json:"turnout"`
	Winners          []int       `json:"winners"`
}
