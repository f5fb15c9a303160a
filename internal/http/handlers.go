package http

import (
	"log/slog"
	"net/http"
	"time"

	"brisa/internal/core"
	"brisa/internal/storage"
)

// ClientPatch is the partial update accepted by PATCH /api/clients/{id}.
type ClientPatch = storage.ClientUpdate

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	mode, ok := periodMode(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "period must be 'month' or 'year'")
		return
	}

	if cached, found := s.dashCache.Get(string(mode)); found {
		slog.DebugContext(r.Context(), "Dashboard cache hit", "period", string(mode))
		respondJSON(w, http.StatusOK, toDashboardJSON(cached))
		return
	}

	d, err := s.dash.Build(r.Context(), mode)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.dashCache.Set(string(mode), d)
	respondJSON(w, http.StatusOK, toDashboardJSON(d))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	mode, ok := periodMode(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "period must be 'month' or 'year'")
		return
	}

	txs, err := s.ledger.List(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if r.URL.Query().Has("period") {
		txs = core.FilterPeriod(txs, mode, time.Now())
	}

	respondJSON(w, http.StatusOK, toTransactionListJSON(txs))
}

type createTransactionRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Date        string  `json:"date"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	ClientID    string  `json:"client_id"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "date must be YYYY-MM-DD")
		return
	}

	tx := core.Transaction{
		Description: sanitizeInput(req.Description),
		Amount:      req.Amount,
		Currency:    core.Currency(req.Currency),
		Date:        date,
		Type:        core.TransactionType(req.Type),
		Category:    sanitizeInput(req.Category),
		ClientID:    sanitizeInput(req.ClientID),
	}

	saved, err := s.ledger.Create(r.Context(), tx)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateDashboard()
	respondJSON(w, http.StatusCreated, toTransactionJSON(saved))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.invalidateDashboard()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.clients.List(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toClientListJSON(clients))
}

type createClientRequest struct {
	Name       string  `json:"name"`
	MonthlyFee float64 `json:"monthly_fee"`
	Currency   string  `json:"currency"`
	Active     *bool   `json:"active"`
	Notes      string  `json:"notes"`
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if !decodeBody(w, r, &req) {
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	c := core.Client{
		Name:       sanitizeInput(req.Name),
		MonthlyFee: req.MonthlyFee,
		Currency:   core.Currency(req.Currency),
		Active:     active,
		Notes:      sanitizeInput(req.Notes),
	}

	saved, err := s.clients.Create(r.Context(), c)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateDashboard()
	respondJSON(w, http.StatusCreated, toClientJSON(saved))
}

type updateClientRequest struct {
	Name       *string  `json:"name"`
	MonthlyFee *float64 `json:"monthly_fee"`
	Currency   *string  `json:"currency"`
	Active     *bool    `json:"active"`
	Notes      *string  `json:"notes"`
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	var req updateClientRequest
	if !decodeBody(w, r, &req) {
		return
	}

	patch := ClientPatch{
		Name:       req.Name,
		MonthlyFee: req.MonthlyFee,
		Active:     req.Active,
		Notes:      req.Notes,
	}
	if req.Currency != nil {
		cur := core.Currency(*req.Currency)
		patch.Currency = &cur
	}

	updated, err := s.clients.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateDashboard()
	respondJSON(w, http.StatusOK, toClientJSON(updated))
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := s.clients.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.invalidateDashboard()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkClientPaid(w http.ResponseWriter, r *http.Request) {
	if err := s.clients.MarkPaid(r.Context(), r.PathValue("id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.invalidateDashboard()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := s.dash.Goal(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, goalJSON{Label: goal.Label, TargetAmount: goal.TargetAmount})
}

type setGoalRequest struct {
	Label        string  `json:"label"`
	TargetAmount float64 `json:"target_amount"`
}

func (s *Server) handleSetGoal(w http.ResponseWriter, r *http.Request) {
	var req setGoalRequest
	if !decodeBody(w, r, &req) {
		return
	}

	goal, err := s.dash.SetGoal(r.Context(), core.Goal{
		Label:        sanitizeInput(req.Label),
		TargetAmount: req.TargetAmount,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateDashboard()
	respondJSON(w, http.StatusOK, goalJSON{Label: goal.Label, TargetAmount: goal.TargetAmount})
}

func (s *Server) handleGetVault(w http.ResponseWriter, r *http.Request) {
	total, err := s.vault.Total(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]float64{"total": total})
}

type vaultOpRequest struct {
	Op     string  `json:"op"`
	Amount float64 `json:"amount"`
}

func (s *Server) handleVaultOp(w http.ResponseWriter, r *http.Request) {
	var req vaultOpRequest
	if !decodeBody(w, r, &req) {
		return
	}

	op := core.VaultOp(req.Op)
	if !op.Valid() {
		respondError(w, http.StatusUnprocessableEntity, "op must be 'add' or 'subtract'")
		return
	}

	total, err := s.vault.Apply(r.Context(), op, req.Amount)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateDashboard()
	respondJSON(w, http.StatusOK, map[string]float64{"total": total})
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]float64{"rate": s.rates.Current()})
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	mode, ok := periodMode(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "period must be 'month' or 'year'")
		return
	}

	txs, err := s.ledger.List(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	advice := s.advisor.Advise(r.Context(), core.FilterPeriod(txs, mode, time.Now()))
	respondJSON(w, http.StatusOK, map[string]string{"advice": advice})
}
