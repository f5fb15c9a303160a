package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"brisa/internal/core"
	"brisa/internal/services"
	"brisa/internal/storage"
)

const dateLayout = "2006-01-02"

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// respondServiceError maps domain and storage errors onto HTTP status
// codes. Anything unrecognized is a 500 with the detail kept out of
// the response.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrInvalidCurrency),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrInvalidGoalTarget),
		errors.Is(err, core.ErrInvalidVaultAmount):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"error", err,
			"method", r.Method,
			"url", r.URL.Path)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// periodMode reads the ?period= query parameter, defaulting to month.
func periodMode(r *http.Request) (core.PeriodMode, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("period"))
	if raw == "" {
		return core.PeriodMonth, true
	}
	mode := core.PeriodMode(raw)
	return mode, mode.Valid()
}

// Wire shapes. Domain types stay free of JSON tags.

type transactionJSON struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency,omitempty"`
	Date        string  `json:"date"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	ClientID    string  `json:"client_id,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	out := transactionJSON{
		ID:          t.ID,
		Description: t.Description,
		Amount:      t.Amount,
		Currency:    string(t.Currency),
		Date:        t.Date.Format(dateLayout),
		Type:        string(t.Type),
		Category:    t.Category,
		ClientID:    t.ClientID,
	}
	if !t.CreatedAt.IsZero() {
		out.CreatedAt = t.CreatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func toTransactionListJSON(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionJSON(t))
	}
	return out
}

type clientJSON struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	MonthlyFee float64 `json:"monthly_fee"`
	Currency   string  `json:"currency,omitempty"`
	Active     bool    `json:"active"`
	HasPaid    bool    `json:"has_paid"`
	Notes      string  `json:"notes,omitempty"`
}

func toClientJSON(c core.Client) clientJSON {
	return clientJSON{
		ID:         c.ID,
		Name:       c.Name,
		MonthlyFee: c.MonthlyFee,
		Currency:   string(c.Currency),
		Active:     c.Active,
		HasPaid:    c.HasPaid,
		Notes:      c.Notes,
	}
}

func toClientListJSON(clients []core.Client) []clientJSON {
	out := make([]clientJSON, 0, len(clients))
	for _, c := range clients {
		out = append(out, toClientJSON(c))
	}
	return out
}

type goalJSON struct {
	Label        string  `json:"label"`
	TargetAmount float64 `json:"target_amount"`
}

type goalProgressJSON struct {
	Percent       int     `json:"percent"`
	Missing       float64 `json:"missing"`
	ClientsNeeded int     `json:"clients_needed"`
}

type categoryAmountJSON struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

type summaryJSON struct {
	TotalIncome      float64 `json:"total_income"`
	TotalExpense     float64 `json:"total_expense"`
	ProjectedIncome  float64 `json:"projected_income"`
	Balance          float64 `json:"balance"`
	ProjectedBalance float64 `json:"projected_balance"`
}

type dashboardJSON struct {
	Period       string               `json:"period"`
	Rate         float64              `json:"rate"`
	Summary      summaryJSON          `json:"summary"`
	Goal         goalJSON             `json:"goal"`
	GoalProgress goalProgressJSON     `json:"goal_progress"`
	Breakdown    []categoryAmountJSON `json:"breakdown"`
	Vault        float64              `json:"vault"`
	Transactions []transactionJSON    `json:"transactions"`
	Clients      []clientJSON         `json:"clients"`
}

func toDashboardJSON(d services.Dashboard) dashboardJSON {
	breakdown := make([]categoryAmountJSON, 0, len(d.Breakdown))
	for _, b := range d.Breakdown {
		breakdown = append(breakdown, categoryAmountJSON{Name: b.Name, Amount: b.Amount})
	}
	return dashboardJSON{
		Period: string(d.Period),
		Rate:   d.Rate,
		Summary: summaryJSON{
			TotalIncome:      d.Summary.TotalIncome,
			TotalExpense:     d.Summary.TotalExpense,
			ProjectedIncome:  d.Summary.ProjectedIncome,
			Balance:          d.Summary.Balance,
			ProjectedBalance: d.Summary.ProjectedBalance,
		},
		Goal: goalJSON{Label: d.Goal.Label, TargetAmount: d.Goal.TargetAmount},
		GoalProgress: goalProgressJSON{
			Percent:       d.GoalProgress.Percent,
			Missing:       d.GoalProgress.Missing,
			ClientsNeeded: d.GoalProgress.ClientsNeeded,
		},
		Breakdown:    breakdown,
		Vault:        d.Vault,
		Transactions: toTransactionListJSON(d.Transactions),
		Clients:      toClientListJSON(d.Clients),
	}
}
