package mirror

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"brisa/internal/core"
)

func TestHTTPMirror_PushRecord(t *testing.T) {
	var (
		gotPath   string
		gotMethod string
		gotAPIKey string
		gotPrefer string
		gotBody   map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotAPIKey = r.Header.Get("apikey")
		gotPrefer = r.Header.Get("Prefer")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	m := NewHTTPMirror(srv.URL, "secret-key")
	tx := core.Transaction{
		ID:          "rec-1",
		Description: "alquiler",
		Amount:      450000,
		Currency:    core.CurrencyARS,
		Date:        time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
		Type:        core.Expense,
		Category:    "housing",
		CreatedAt:   time.Date(2025, time.March, 5, 10, 30, 0, 0, time.UTC),
	}

	if err := m.PushRecord(context.Background(), tx); err != nil {
		t.Fatalf("PushRecord: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	if gotPath != "/rest/v1/records" {
		t.Errorf("path = %s, want /rest/v1/records", gotPath)
	}
	if gotAPIKey != "secret-key" {
		t.Errorf("apikey header = %q", gotAPIKey)
	}
	if gotPrefer != "resolution=merge-duplicates" {
		t.Errorf("Prefer header = %q", gotPrefer)
	}
	if gotBody["id"] != "rec-1" || gotBody["date"] != "2025-03-05" {
		t.Errorf("unexpected body: %v", gotBody)
	}
}

func TestHTTPMirror_DeleteRecord(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	m := NewHTTPMirror(srv.URL, "secret-key")
	if err := m.DeleteRecord(context.Background(), "rec-9"); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if gotQuery != "id=eq.rec-9" {
		t.Errorf("query = %q, want id=eq.rec-9", gotQuery)
	}
}

func TestHTTPMirror_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"permission denied"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	m := NewHTTPMirror(srv.URL, "bad-key")
	err := m.PushRecord(context.Background(), core.Transaction{ID: "rec-1", Type: core.Expense})
	if err == nil {
		t.Fatal("expected error on 403 response")
	}
}
