package httpadapter

import (
	"context"
	"log/slog"

	"tally/contexts/election-core/election-ledger/application/commands"
	"tally/contexts/election-core/election-ledger/application/queries"
	"tally/contexts/election-core/election-ledger/domain/entities"
	httptransport "tally/contexts/election-core/election-ledger/transport/http"
)

// Handler maps transport DTOs onto the ledger use cases. Caller identity is
// resolved by the platform server and passed in already parsed.
type Handler struct {
	Ledger  commands.LedgerUseCase
	Results queries.ResultsUseCase
	Logger  *slog.Logger
}

func (h Handler) CreateElectionHandler(
	ctx context.Context,
	caller entities.Identity,
	req httptransport.CreateElectionRequest,
) (httptransport.ElectionResponse, error) {
	election, err := h.Ledger.CreateElection(ctx, commands.CreateElectionCommand{
		Caller: caller,
		Name:   req.Name,
	})
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return electionResponse(election), nil
}

func (h Handler) ListElectionsHandler(ctx context.Context) (httptransport.ElectionListResponse, error) {
	elections, err := h.Results.ListElections(ctx)
	if err != nil {
		return httptransport.ElectionListResponse{}, err
	}
	items := make([]httptransport.ElectionResponse, 0, len(elections))
	for _, election := range elections {
		items = append(items, electionResponse(election))
	}
	return httptransport.ElectionListResponse{Items: items}, nil
}

func (h Handler) AddCandidateHandler(
	ctx context.Context,
	electionID string,
	caller entities.Identity,
	req httptransport.AddCandidateRequest,
) (httptransport.CandidateResponse, error) {
	candidate, err := h.Ledger.AddCandidate(ctx, commands.AddCandidateCommand{
		ElectionID: electionID,
		Caller:     caller,
		Name:       req.Name,
	})
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return httptransport.CandidateResponse{
		CandidateID: candidate.ID,
		Name:        candidate.Name,
		VoteCount:   candidate.VoteCount,
	}, nil
}

func (h Handler) ListCandidatesHandler(ctx context.Context, electionID string) (httptransport.CandidateListResponse, error) {
	candidates, err := h.Results.Candidates(ctx, electionID)
	if err != nil {
		return httptransport.CandidateListResponse{}, err
	}
	items := make([]httptransport.CandidateResponse, 0, len(candidates))
	for _, candidate := range candidates {
		items = append(items, httptransport.CandidateResponse{
			CandidateID: candidate.ID,
			Name:        candidate.Name,
			VoteCount:   candidate.VoteCount,
		})
	}
	return httptransport.CandidateListResponse{
		ElectionID: electionID,
		Items:      items,
	}, nil
}

func (h Handler) RegisterVoterHandler(
	ctx context.Context,
	electionID string,
	caller entities.Identity,
	voter entities.Identity,
) error {
	return h.Ledger.RegisterVoter(ctx, commands.RegisterVoterCommand{
		ElectionID: electionID,
		Caller:     caller,
		Voter:      voter,
	})
}

func (h Handler) VoterRollHandler(ctx context.Context, electionID string) (httptransport.VoterRollResponse, error) {
	voters, err := h.Results.VoterRoll(ctx, electionID)
	if err != nil {
		return httptransport.VoterRollResponse{}, err
	}
	items := make([]httptransport.VoterRecordResponse, 0, len(voters))
	for _, voter := range voters {
		items = append(items, httptransport.VoterRecordResponse{
			Voter:    voter.Address.Hex(),
			HasVoted: voter.HasVoted,
		})
	}
	return httptransport.VoterRollResponse{
		ElectionID: electionID,
		Items:      items,
	}, nil
}

func (h Handler) StartElectionHandler(ctx context.Context, electionID string, caller entities.Identity) error {
	return h.Ledger.StartElection(ctx, commands.TransitionCommand{
		ElectionID: electionID,
		Caller:     caller,
	})
}

func (h Handler) EndElectionHandler(ctx context.Context, electionID string, caller entities.Identity) error {
	return h.Ledger.EndElection(ctx, commands.TransitionCommand{
		ElectionID: electionID,
		Caller:     caller,
	})
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	electionID string,
	caller entities.Identity,
	req httptransport.VoteRequest,
) (httptransport.VoteResponse, error) {
	result, err := h.Ledger.CastVote(ctx, commands.CastVoteCommand{
		ElectionID:  electionID,
		Caller:      caller,
		CandidateID: req.CandidateID,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		ElectionID:    result.ElectionID,
		Voter:         result.Voter.Hex(),
		CandidateID:   result.Candidate.ID,
		CandidateName: result.Candidate.Name,
		VoteCount:     result.Candidate.VoteCount,
	}, nil
}

func (h Handler) PhaseHandler(ctx context.Context, electionID string) (httptransport.PhaseResponse, error) {
	phase, err := h.Results.Phase(ctx, electionID)
	if err != nil {
		return httptransport.PhaseResponse{}, err
	}
	return httptransport.PhaseResponse{
		ElectionID: electionID,
		Phase:      int(phase),
		PhaseLabel: phase.String(),
	}, nil
}

func (h Handler) RoleHandler(
	ctx context.Context,
	electionID string,
	identity entities.Identity,
) (httptransport.RoleResponse, error) {
	role, err := h.Results.RoleOf(ctx, electionID, identity)
	if err != nil {
		return httptransport.RoleResponse{}, err
	}
	return httptransport.RoleResponse{
		ElectionID: electionID,
		Identity:   identity.Hex(),
		Role:       int(role),
		RoleLabel:  role.String(),
	}, nil
}

func (h Handler) ResultsHandler(ctx context.Context, electionID string) (httptransport.ResultsResponse, error) {
	results, err := h.Results.Results(ctx, electionID)
	if err != nil {
		return httptransport.ResultsResponse{}, err
	}
	items := make([]httptransport.TallyItem, 0, len(results.Items))
	for _, item := range results.Items {
		items = append(items, httptransport.TallyItem{
			CandidateID: item.CandidateID,
			Name:        item.Name,
			VoteCount:   item.VoteCount,
		})
	}
	return httptransport.ResultsResponse{
		ElectionID:       results.ElectionID,
		Phase:            int(results.Phase),
		PhaseLabel:       results.Phase.String(),
		Items:            items,
		RegisteredVoters: results.RegisteredVoters,
		BallotsCast:      results.BallotsCast,
		Turnout:          results.Turnout,
		Winners:          results.Winners,
	}, nil
}

func electionResponse(election entities.Election) httptransport.ElectionResponse {
	return httptransport.ElectionResponse{
		ElectionID:       election.ElectionID,
		Name:             election.Name,
		Owner:            election.Owner.Hex(),
		Phase:            int(election.Phase),
		PhaseLabel:       election.Phase.String(),
		CandidateCount:   len(election.Candidates),
		RegisteredVoters: len(election.Voters),
		BallotsCast:      election.BallotsCast(),
	}
}
