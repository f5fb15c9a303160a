package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"brisa/internal/core"
	"brisa/internal/services"
	"brisa/internal/storage"
)

type fakeLedger struct {
	txs       []core.Transaction
	createErr error
	listCalls int
}

func (f *fakeLedger) Create(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if f.createErr != nil {
		return core.Transaction{}, f.createErr
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t.ID = "tx-1"
	f.txs = append(f.txs, t)
	return t, nil
}

func (f *fakeLedger) List(context.Context) ([]core.Transaction, error) {
	f.listCalls++
	return f.txs, nil
}

func (f *fakeLedger) Delete(_ context.Context, id string) error {
	for i, t := range f.txs {
		if t.ID == id {
			f.txs = append(f.txs[:i], f.txs[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

type fakeClients struct {
	clients []core.Client
}

func (f *fakeClients) Create(_ context.Context, c core.Client) (core.Client, error) {
	if err := c.Validate(); err != nil {
		return core.Client{}, err
	}
	c.ID = "cl-1"
	f.clients = append(f.clients, c)
	return c, nil
}

func (f *fakeClients) List(context.Context) ([]core.Client, error) {
	return f.clients, nil
}

func (f *fakeClients) Update(_ context.Context, id string, upd ClientPatch) (core.Client, error) {
	for i, c := range f.clients {
		if c.ID == id {
			if upd.Active != nil {
				f.clients[i].Active = *upd.Active
			}
			if upd.Name != nil {
				f.clients[i].Name = *upd.Name
			}
			return f.clients[i], nil
		}
	}
	return core.Client{}, storage.ErrNotFound
}

func (f *fakeClients) Delete(_ context.Context, id string) error {
	return storage.ErrNotFound
}

func (f *fakeClients) MarkPaid(_ context.Context, id string) error {
	for _, c := range f.clients {
		if c.ID == id {
			return nil
		}
	}
	return storage.ErrNotFound
}

type fakeDash struct {
	builds int
	goal   core.Goal
}

func (f *fakeDash) Build(_ context.Context, mode core.PeriodMode) (services.Dashboard, error) {
	f.builds++
	return services.Dashboard{
		Period: mode,
		Rate:   1200,
		Summary: core.Summary{
			TotalIncome:  13000,
			TotalExpense: 400,
		},
		Goal:         core.Goal{Label: "Ganancia Mensual", TargetAmount: 3000000},
		GoalProgress: core.GoalProgress{Percent: 25, Missing: 2250000, ClientsNeeded: 8},
		Breakdown:    []core.CategoryAmount{{Name: "Comida", Amount: 400}},
		Vault:        80000,
	}, nil
}

func (f *fakeDash) Goal(context.Context) (core.Goal, error) {
	return f.goal, nil
}

func (f *fakeDash) SetGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	if g.TargetAmount < 1000000 {
		return core.Goal{}, core.ErrInvalidGoalTarget
	}
	f.goal = g
	return g, nil
}

type fakeVault struct {
	total float64
}

func (f *fakeVault) Total(context.Context) (float64, error) {
	return f.total, nil
}

func (f *fakeVault) Apply(_ context.Context, op core.VaultOp, amount float64) (float64, error) {
	next, err := core.ApplyVaultOp(f.total, op, amount)
	if err != nil {
		return 0, err
	}
	f.total = next
	return next, nil
}

type fakeRates struct{}

func (fakeRates) Current() float64 { return 1200 }

type fakeAdvisor struct{}

func (fakeAdvisor) Advise(context.Context, []core.Transaction) string {
	return "Ahorra más ☕"
}

type testEnv struct {
	server *Server
	ledger *fakeLedger
	dash   *fakeDash
	vault  *fakeVault
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		ledger: &fakeLedger{},
		dash:   &fakeDash{goal: core.Goal{Label: "Ganancia Mensual", TargetAmount: 3000000}},
		vault:  &fakeVault{total: 500},
	}
	env.server = NewServer(":0", env.ledger, &fakeClients{
		clients: []core.Client{{ID: "cl-1", Name: "Acme", MonthlyFee: 300000, Active: true}},
	}, env.dash, env.vault, fakeRates{}, fakeAdvisor{})
	t.Cleanup(func() {
		_ = env.server.Shutdown(context.Background())
	})
	return env
}

func doRequest(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(t, env.server, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestDashboardEndpoint(t *testing.T) {
	env := newTestServer(t)

	rec := doRequest(t, env.server, http.MethodGet, "/api/dashboard?period=month", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	d := decodeResponse[map[string]any](t, rec)
	if d["rate"] != float64(1200) {
		t.Errorf("rate = %v, want 1200", d["rate"])
	}
	progress := d["goal_progress"].(map[string]any)
	if progress["percent"] != float64(25) || progress["clients_needed"] != float64(8) {
		t.Errorf("goal_progress = %v", progress)
	}
}

func TestDashboardInvalidPeriod(t *testing.T) {
	env := newTestServer(t)
	rec := doRequest(t, env.server, http.MethodGet, "/api/dashboard?period=week", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDashboardCaching(t *testing.T) {
	env := newTestServer(t)

	doRequest(t, env.server, http.MethodGet, "/api/dashboard", nil)
	doRequest(t, env.server, http.MethodGet, "/api/dashboard", nil)
	if env.dash.builds != 1 {
		t.Errorf("builds = %d, want 1 (second read served from cache)", env.dash.builds)
	}

	// A write invalidates the cached dashboard.
	doRequest(t, env.server, http.MethodPost, "/api/transactions", map[string]any{
		"description": "cafe",
		"amount":      3500,
		"date":        "2025-03-03",
		"type":        "expense",
		"category":    "food",
	})
	doRequest(t, env.server, http.MethodGet, "/api/dashboard", nil)
	if env.dash.builds != 2 {
		t.Errorf("builds = %d, want 2 after invalidation", env.dash.builds)
	}
}

func TestListTransactions(t *testing.T) {
	env := newTestServer(t)
	env.ledger.txs = []core.Transaction{
		{ID: "tx-1", Description: "Supermercado", Amount: 1000, Type: core.Expense, Date: time.Now()},
	}

	rec := doRequest(t, env.server, http.MethodGet, "/api/transactions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decodeResponse[[]transactionJSON](t, rec)
	if len(got) != 1 || got[0].ID != "tx-1" {
		t.Fatalf("unexpected list: %+v", got)
	}

	// An invalid period is rejected before the store is consulted.
	calls := env.ledger.listCalls
	rec = doRequest(t, env.server, http.MethodGet, "/api/transactions?period=week", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.ledger.listCalls != calls {
		t.Errorf("store read despite invalid period")
	}
}

func TestCreateTransaction(t *testing.T) {
	env := newTestServer(t)

	rec := doRequest(t, env.server, http.MethodPost, "/api/transactions", map[string]any{
		"description": "freelance (usd)",
		"amount":      10,
		"date":        "2025-03-02",
		"type":        "income",
		"category":    "salary",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	tx := decodeResponse[map[string]any](t, rec)
	if tx["id"] != "tx-1" || tx["date"] != "2025-03-02" {
		t.Errorf("response = %v", tx)
	}
}

func TestCreateTransactionRejectsBadInput(t *testing.T) {
	env := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{
			name: "negative amount",
			body: map[string]any{"description": "x", "amount": -1, "date": "2025-03-02", "type": "expense", "category": "food"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "bad type",
			body: map[string]any{"description": "x", "amount": 1, "date": "2025-03-02", "type": "transfer", "category": "food"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "bad date",
			body: map[string]any{"description": "x", "amount": 1, "date": "02/03/2025", "type": "expense", "category": "food"},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "unknown field",
			body: map[string]any{"description": "x", "amount": 1, "date": "2025-03-02", "type": "expense", "category": "food", "extra": true},
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, env.server, http.MethodPost, "/api/transactions", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestDeleteTransaction(t *testing.T) {
	env := newTestServer(t)
	env.ledger.txs = []core.Transaction{{ID: "tx-9", Description: "x", Amount: 1, Date: time.Now(), Type: core.Expense}}

	rec := doRequest(t, env.server, http.MethodDelete, "/api/transactions/tx-9", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}

	rec = doRequest(t, env.server, http.MethodDelete, "/api/transactions/tx-9", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestClientEndpoints(t *testing.T) {
	env := newTestServer(t)

	t.Run("create", func(t *testing.T) {
		rec := doRequest(t, env.server, http.MethodPost, "/api/clients", map[string]any{
			"name":        "Globex",
			"monthly_fee": 500000,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		c := decodeResponse[map[string]any](t, rec)
		if c["active"] != true {
			t.Error("new client should default to active")
		}
	})

	t.Run("create without name", func(t *testing.T) {
		rec := doRequest(t, env.server, http.MethodPost, "/api/clients", map[string]any{"monthly_fee": 100})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", rec.Code)
		}
	})

	t.Run("patch", func(t *testing.T) {
		rec := doRequest(t, env.server, http.MethodPatch, "/api/clients/cl-1", map[string]any{"active": false})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		c := decodeResponse[map[string]any](t, rec)
		if c["active"] != false {
			t.Errorf("patched client = %v", c)
		}
	})

	t.Run("mark paid", func(t *testing.T) {
		rec := doRequest(t, env.server, http.MethodPost, "/api/clients/cl-1/payments", nil)
		if rec.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", rec.Code)
		}
	})

	t.Run("mark paid unknown client", func(t *testing.T) {
		rec := doRequest(t, env.server, http.MethodPost, "/api/clients/ghost/payments", nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestGoalEndpoints(t *testing.T) {
	env := newTestServer(t)

	rec := doRequest(t, env.server, http.MethodGet, "/api/goal", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	g := decodeResponse[map[string]any](t, rec)
	if g["target_amount"] != float64(3000000) {
		t.Errorf("goal = %v", g)
	}

	rec = doRequest(t, env.server, http.MethodPut, "/api/goal", map[string]any{"target_amount": 500})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("low target status = %d, want 422", rec.Code)
	}

	rec = doRequest(t, env.server, http.MethodPut, "/api/goal", map[string]any{
		"label":         "Meta Q2",
		"target_amount": 4000000,
	})
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestVaultEndpoints(t *testing.T) {
	env := newTestServer(t)

	rec := doRequest(t, env.server, http.MethodGet, "/api/vault", nil)
	got := decodeResponse[map[string]float64](t, rec)
	if got["total"] != 500 {
		t.Errorf("total = %v, want 500", got["total"])
	}

	rec = doRequest(t, env.server, http.MethodPost, "/api/vault", map[string]any{"op": "subtract", "amount": 700})
	got = decodeResponse[map[string]float64](t, rec)
	if got["total"] != 0 {
		t.Errorf("total after over-withdrawal = %v, want 0", got["total"])
	}

	rec = doRequest(t, env.server, http.MethodPost, "/api/vault", map[string]any{"op": "split", "amount": 10})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid op status = %d, want 422", rec.Code)
	}
}

func TestRateEndpoint(t *testing.T) {
	env := newTestServer(t)
	rec := doRequest(t, env.server, http.MethodGet, "/api/rate", nil)
	got := decodeResponse[map[string]float64](t, rec)
	if got["rate"] != 1200 {
		t.Errorf("rate = %v, want 1200", got["rate"])
	}
}

func TestAdviceEndpoint(t *testing.T) {
	env := newTestServer(t)
	rec := doRequest(t, env.server, http.MethodGet, "/api/advice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decodeResponse[map[string]string](t, rec)
	if !strings.Contains(got["advice"], "Ahorra") {
		t.Errorf("advice = %q", got["advice"])
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  cafe  ", "cafe"},
		{"hola\x00mundo", "holamundo"},
		{"line\nbreak", "line\nbreak"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
