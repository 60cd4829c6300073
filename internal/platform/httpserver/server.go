package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	creditledger "agora/contexts/governance-core/credit-ledger"
	ledgererrors "agora/contexts/governance-core/credit-ledger/domain/errors"
	ledgerhttp "agora/contexts/governance-core/credit-ledger/transport/http"
	votingengine "agora/contexts/governance-core/voting-engine"
	engineerrors "agora/contexts/governance-core/voting-engine/domain/errors"
	enginehttp "agora/contexts/governance-core/voting-engine/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "agora/internal/platform/httpserver/docs"
)

type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	addr   string
	engine votingengine.Module
	ledger creditledger.Module
}

func New(
	engine votingengine.Module,
	ledger creditledger.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		addr:   addr,
		engine: engine,
		ledger: ledger,
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

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("GET /v1/governance/round", s.handleGetRound)
	s.mux.HandleFunc("POST /v1/governance/round/open", s.handleOpenRound)
	s.mux.HandleFunc("POST /v1/governance/round/close", s.handleCloseRound)

	s.mux.HandleFunc("POST /v1/governance/credit/buy", s.handleBuyCredit)
	s.mux.HandleFunc("POST /v1/governance/credit/sell", s.handleSellCredit)
	s.mux.HandleFunc("POST /v1/governance/participants/leave", s.handleLeave)

	s.mux.HandleFunc("POST /v1/governance/proposals", s.handleAddProposal)
	s.mux.HandleFunc("GET /v1/governance/proposals/{proposal_id}", s.handleGetProposal)
	s.mux.HandleFunc("POST /v1/governance/proposals/{proposal_id}/cancel", s.handleCancelProposal)
	s.mux.HandleFunc("POST /v1/governance/proposals/{proposal_id}/stake", s.handleStake)
	s.mux.HandleFunc("POST /v1/governance/proposals/{proposal_id}/withdraw", s.handleWithdraw)
	s.mux.HandleFunc("POST /v1/governance/proposals/{proposal_id}/refund", s.handleClaimRefund)
	s.mux.HandleFunc("POST /v1/governance/proposals/{proposal_id}/execute", s.handleExecuteSignaling)

	s.mux.HandleFunc("GET /v1/governance/queues/pending", s.handleListPending)
	s.mux.HandleFunc("GET /v1/governance/queues/approved", s.handleListApproved)
	s.mux.HandleFunc("GET /v1/governance/queues/signaling", s.handleListSignaling)
	s.mux.HandleFunc("GET /v1/governance/queues/refundable", s.handleListRefundable)

	s.mux.HandleFunc("GET /v1/ledger/accounts/{address}/balance", s.handleLedgerBalance)
	s.mux.HandleFunc("GET /v1/ledger/supply", s.handleLedgerSupply)
}

func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request) {
	resp, err := s.engine.Handler.RoundHandler(r.Context())
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOpenRound(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req enginehttp.OpenRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEngineError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.engine.Handler.OpenRoundHandler(r.Context(), callerID, req)
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCloseRound(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.engine.Handler.CloseRoundHandler(r.Context(), callerID)
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBuyCredit(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req enginehttp.BuyCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEngineError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.engine.Handler.BuyCreditHandler(r.Context(), callerID, req)
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSellCredit(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req enginehttp.SellCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEngineError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.engine.Handler.SellCreditHandler(r.Context(), callerID, req)
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := s.engine.Handler.RemoveParticipantHandler(r.Context(), callerID); err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleAddProposal(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req enginehttp.AddProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEngineError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.engine.Handler.AddProposalHandler(r.Context(), callerID, req)
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	resp, err := s.engine.Handler.ProposalHandler(r.Context(), proposalID)
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelProposal(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	if err := s.engine.Handler.CancelProposalHandler(r.Context(), callerID, proposalID); err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleStake(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	var req enginehttp.StakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEngineError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.engine.Handler.StakeHandler(r.Context(), callerID, proposalID, req)
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	var req enginehttp.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEngineError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.engine.Handler.WithdrawHandler(r.Context(), callerID, proposalID, req)
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClaimRefund(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	resp, err := s.engine.Handler.ClaimRefundHandler(r.Context(), callerID, proposalID)
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExecuteSignaling(w http.ResponseWriter, r *http.Request) {
	callerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	if err := s.engine.Handler.ExecuteSignalingHandler(r.Context(), callerID, proposalID); err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	resp, err := s.engine.Handler.PendingFundingHandler(r.Context())
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListApproved(w http.ResponseWriter, r *http.Request) {
	resp, err := s.engine.Handler.ApprovedFundingHandler(r.Context())
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSignaling(w http.ResponseWriter, r *http.Request) {
	resp, err := s.engine.Handler.SignalingHandler(r.Context())
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRefundable(w http.ResponseWriter, r *http.Request) {
	resp, err := s.engine.Handler.RefundableHandler(r.Context())
	if err != nil {
		writeEngineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLedgerBalance(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.PathValue("address"))
	if address == "" {
		writeLedgerError(w, http.StatusBadRequest, "invalid_address", "address is required")
		return
	}
	resp, err := s.ledger.Handler.BalanceHandler(r.Context(), address)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLedgerSupply(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.SupplyHandler(r.Context())
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeEngineError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func parseProposalID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := r.PathValue("proposal_id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeEngineError(w, http.StatusBadRequest, "invalid_proposal_id", "proposal_id must be a positive integer")
		return 0, false
	}
	return id, true
}

func writeEngineDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engineerrors.ErrNotOrganizer),
		errors.Is(err, engineerrors.ErrNotParticipant),
		errors.Is(err, engineerrors.ErrNotCreator):
		writeEngineError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, engineerrors.ErrProposalNotFound):
		writeEngineError(w, http.StatusNotFound, "proposal_not_found", err.Error())
	case errors.Is(err, engineerrors.ErrInsufficientCredit),
		errors.Is(err, engineerrors.ErrInsufficientTreasury):
		writeEngineError(w, http.StatusPaymentRequired, "insufficient_funds", err.Error())
	case errors.Is(err, engineerrors.ErrRoundNotOpen),
		errors.Is(err, engineerrors.ErrRoundNotClosed),
		errors.Is(err, engineerrors.ErrRoundStillOpen),
		errors.Is(err, engineerrors.ErrPeriodMismatch),
		errors.Is(err, engineerrors.ErrProposalFinalized),
		errors.Is(err, engineerrors.ErrAlreadyExecuted),
		errors.Is(err, engineerrors.ErrNotSignaling),
		errors.Is(err, engineerrors.ErrNotRefundable),
		errors.Is(err, engineerrors.ErrNothingToRefund),
		errors.Is(err, engineerrors.ErrNoVotesToWithdraw),
		errors.Is(err, engineerrors.ErrSupplyCapExceeded):
		writeEngineError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, engineerrors.ErrPaymentBelowUnitPrice),
		errors.Is(err, engineerrors.ErrInvalidBudget),
		errors.Is(err, engineerrors.ErrInvalidProposalInput),
		errors.Is(err, engineerrors.ErrInvalidVoteCount),
		errors.Is(err, engineerrors.ErrInvalidPayment):
		writeEngineError(w, http.StatusUnprocessableEntity, "invalid_request", err.Error())
	case errors.Is(err, engineerrors.ErrExecutionFailed),
		errors.Is(err, engineerrors.ErrLedgerRejected):
		writeEngineError(w, http.StatusBadGateway, "upstream_failure", err.Error())
	default:
		writeEngineError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLedgerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgererrors.ErrAccountNotFound):
		writeLedgerError(w, http.StatusNotFound, "account_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidAmount):
		writeLedgerError(w, http.StatusUnprocessableEntity, "invalid_amount", err.Error())
	case errors.Is(err, ledgererrors.ErrInsufficientBalance):
		writeLedgerError(w, http.StatusPaymentRequired, "insufficient_balance", err.Error())
	case errors.Is(err, ledgererrors.ErrSupplyCapExceeded),
		errors.Is(err, ledgererrors.ErrConflict):
		writeLedgerError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, ledgererrors.ErrUnauthorizedAuthority),
		errors.Is(err, ledgererrors.ErrUnauthorizedOperator):
		writeLedgerError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeEngineError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, enginehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
