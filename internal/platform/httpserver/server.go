package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	ledgerservice "questfund/contexts/funding/ledger-service"
	domainerrors "questfund/contexts/funding/ledger-service/domain/errors"
	ledgerhttp "questfund/contexts/funding/ledger-service/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "questfund/internal/platform/httpserver/docs"
)

type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	addr   string
	ledger ledgerservice.Module
}

func New(ledger ledgerservice.Module, logger *slog.Logger, addr string) *Server {
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

// Handler exposes the route table for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/campaigns", s.handleCreateCampaign)
	s.mux.HandleFunc("GET /v1/campaigns/{campaign_id}", s.handleGetCampaign)
	s.mux.HandleFunc("GET /v1/campaigns/{campaign_id}/contributions", s.handleCampaignContributions)
	s.mux.HandleFunc("GET /v1/accounts/{account}/campaigns", s.handleCampaignsByAccount)
	s.mux.HandleFunc("POST /v1/contributions", s.handleContribute)
	s.mux.HandleFunc("GET /v1/contributions/{contribution_id}", s.handleGetContribution)
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	callerAccount := r.Header.Get("X-Caller-Account")
	if callerAccount == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Account header is required")
		return
	}

	var req ledgerhttp.CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	resp, err := s.ledger.Handler.CreateCampaignHandler(r.Context(), callerAccount, idempotencyKey, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := parseID(w, r.PathValue("campaign_id"), "campaign_id")
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.GetCampaignHandler(r.Context(), campaignID)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCampaignsByAccount(w http.ResponseWriter, r *http.Request) {
	account := r.PathValue("account")
	resp, err := s.ledger.Handler.CampaignsByAccountHandler(r.Context(), account)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	var req ledgerhttp.ContributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	resp, err := s.ledger.Handler.ContributeHandler(r.Context(), idempotencyKey, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetContribution(w http.ResponseWriter, r *http.Request) {
	contributionID, ok := parseID(w, r.PathValue("contribution_id"), "contribution_id")
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.GetContributionHandler(r.Context(), contributionID)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCampaignContributions(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := parseID(w, r.PathValue("campaign_id"), "campaign_id")
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.CampaignContributionsHandler(r.Context(), campaignID)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseID(w http.ResponseWriter, raw string, name string) (uint64, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func writeLedgerDomainError(w http.ResponseWriter, err error) {
	var invalid domainerrors.InvalidContributionError
	switch {
	case errors.As(err, &invalid):
		writeLedgerError(w, http.StatusBadRequest, "invalid_contribution", invalid.Error())
	case errors.Is(err, domainerrors.ErrNotInitiator):
		writeLedgerError(w, http.StatusForbidden, "not_initiator", err.Error())
	case errors.Is(err, domainerrors.ErrEscrowFailed):
		writeLedgerError(w, http.StatusConflict, "escrow_failed", err.Error())
	case errors.Is(err, domainerrors.ErrCampaignNotFound):
		writeLedgerError(w, http.StatusNotFound, "campaign_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrContributionNotFound):
		writeLedgerError(w, http.StatusNotFound, "contribution_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidCampaignInput):
		writeLedgerError(w, http.StatusBadRequest, "invalid_campaign_input", err.Error())
	case errors.Is(err, domainerrors.ErrEmptyContributionBatch):
		writeLedgerError(w, http.StatusBadRequest, "empty_contribution_batch", err.Error())
	case errors.Is(err, domainerrors.ErrIdempotencyKeyRequired):
		writeLedgerError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, domainerrors.ErrIdempotencyKeyConflict):
		writeLedgerError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	default:
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
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
