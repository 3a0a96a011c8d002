package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	electionledger "tally/contexts/election-core/election-ledger"
	"tally/contexts/election-core/election-ledger/domain/entities"
	domainerrors "tally/contexts/election-core/election-ledger/domain/errors"
	electionhttp "tally/contexts/election-core/election-ledger/transport/http"

	"github.com/ethereum/go-ethereum/common"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "tally/internal/platform/httpserver/docs"
)

// callerHeader carries the authenticated participant address. The hosting
// deployment authenticates callers upstream; this server only parses the
// identity it is handed.
const callerHeader = "X-Caller-Address"

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	election electionledger.Module
}

func New(election electionledger.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		election: election,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Mux exposes the routing table for in-process test servers.
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/elections", s.handleCreateElection)
	s.mux.HandleFunc("GET /v1/elections", s.handleListElections)
	s.mux.HandleFunc("POST /v1/elections/{election_id}/candidates", s.handleAddCandidate)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/candidates", s.handleListCandidates)
	s.mux.HandleFunc("POST /v1/elections/{election_id}/voters", s.handleRegisterVoter)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/voters", s.handleVoterRoll)
	s.mux.HandleFunc("POST /v1/elections/{election_id}/start", s.handleStartElection)
	s.mux.HandleFunc("POST /v1/elections/{election_id}/end", s.handleEndElection)
	s.mux.HandleFunc("POST /v1/elections/{election_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/phase", s.handlePhase)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/results", s.handleResults)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/roles/{identity}", s.handleRole)
}

func (s *Server) handleCreateElection(w http.ResponseWriter, r *http.Request) {
	caller, ok := resolveCaller(w, r)
	if !ok {
		return
	}
	var req electionhttp.CreateElectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.election.Handler.CreateElectionHandler(r.Context(), caller, req)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListElections(w http.ResponseWriter, r *http.Request) {
	resp, err := s.election.Handler.ListElectionsHandler(r.Context())
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddCandidate(w http.ResponseWriter, r *http.Request) {
	caller, ok := resolveCaller(w, r)
	if !ok {
		return
	}
	var req electionhttp.AddCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.election.Handler.AddCandidateHandler(r.Context(), r.PathValue("election_id"), caller, req)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	resp, err := s.election.Handler.ListCandidatesHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterVoter(w http.ResponseWriter, r *http.Request) {
	caller, ok := resolveCaller(w, r)
	if !ok {
		return
	}
	var req electionhttp.RegisterVoterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	voter, err := parseAddress(req.Voter)
	if err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_address", "voter must be a hex address")
		return
	}
	if err := s.election.Handler.RegisterVoterHandler(r.Context(), r.PathValue("election_id"), caller, voter); err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleVoterRoll(w http.ResponseWriter, r *http.Request) {
	resp, err := s.election.Handler.VoterRollHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStartElection(w http.ResponseWriter, r *http.Request) {
	caller, ok := resolveCaller(w, r)
	if !ok {
		return
	}
	if err := s.election.Handler.StartElectionHandler(r.Context(), r.PathValue("election_id"), caller); err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleEndElection(w http.ResponseWriter, r *http.Request) {
	caller, ok := resolveCaller(w, r)
	if !ok {
		return
	}
	if err := s.election.Handler.EndElectionHandler(r.Context(), r.PathValue("election_id"), caller); err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	caller, ok := resolveCaller(w, r)
	if !ok {
		return
	}
	var req electionhttp.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.election.Handler.CastVoteHandler(r.Context(), r.PathValue("election_id"), caller, req)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handlePhase(w http.ResponseWriter, r *http.Request) {
	resp, err := s.election.Handler.PhaseHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	resp, err := s.election.Handler.ResultsHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRole(w http.ResponseWriter, r *http.Request) {
	identity, err := parseAddress(r.PathValue("identity"))
	if err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_address", "identity must be a hex address")
		return
	}
	resp, err := s.election.Handler.RoleHandler(r.Context(), r.PathValue("election_id"), identity)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func resolveCaller(w http.ResponseWriter, r *http.Request) (entities.Identity, bool) {
	caller, err := parseAddress(r.Header.Get(callerHeader))
	if err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_caller", "X-Caller-Address must be a hex address")
		return entities.Identity{}, false
	}
	return caller, true
}

func parseAddress(raw string) (entities.Identity, error) {
	value := strings.TrimSpace(raw)
	if !common.IsHexAddress(value) {
		return entities.Identity{}, errors.New("not a hex address")
	}
	return common.HexToAddress(value), nil
}

func writeElectionDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrUnauthorized):
		writeElectionError(w, http.StatusForbidden, "unauthorized", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidPhase):
		writeElectionError(w, http.StatusConflict, "invalid_phase", err.Error())
	case errors.Is(err, domainerrors.ErrDuplicateVoter):
		writeElectionError(w, http.StatusConflict, "duplicate_voter", err.Error())
	case errors.Is(err, domainerrors.ErrAlreadyVoted):
		writeElectionError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidCandidate):
		writeElectionError(w, http.StatusUnprocessableEntity, "invalid_candidate", err.Error())
	case errors.Is(err, domainerrors.ErrElectionNotFound):
		writeElectionError(w, http.StatusNotFound, "election_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidElectionInput):
		writeElectionError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domainerrors.ErrConflict):
		writeElectionError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeElectionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeElectionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, electionhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
