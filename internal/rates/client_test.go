package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"compra": 1180, "venta": 1235.5}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 1200)
	got, err := c.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got != 1235.5 {
		t.Fatalf("rate: got %v, want 1235.5", got)
	}
	if c.Current() != 1235.5 {
		t.Fatalf("current: got %v, want 1235.5", c.Current())
	}
}

func TestRefreshKeepsPriorOnFailure(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}},
		{"non-positive rate", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"venta": 0}`))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			c := NewClient(srv.URL, 1200)
			got, err := c.Refresh(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if got != 1200 || c.Current() != 1200 {
				t.Fatalf("fallback lost: got %v, current %v", got, c.Current())
			}
		})
	}
}

func TestRefreshUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", 1200)
	if _, err := c.Refresh(context.Background()); err == nil {
		t.Fatal("expected error for unreachable endpoint")
	}
	if c.Current() != 1200 {
		t.Fatalf("fallback lost: %v", c.Current())
	}
}
