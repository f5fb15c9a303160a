// Package mirror pushes transactions to a remote PostgREST-style API
// so the dataset survives losing the local database. The local store
// stays authoritative; the mirror is write-only from our side.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"brisa/internal/core"
)

// RemoteMirror is what the sync worker needs from a mirror backend.
type RemoteMirror interface {
	PushRecord(ctx context.Context, tx core.Transaction) error
	DeleteRecord(ctx context.Context, id string) error
}

// record is the wire shape of a mirrored transaction.
type record struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Date        string  `json:"date"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	ClientID    string  `json:"client_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

type HTTPMirror struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPMirror(baseURL, apiKey string) *HTTPMirror {
	return &HTTPMirror{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// PushRecord upserts a transaction on the mirror.
func (m *HTTPMirror) PushRecord(ctx context.Context, tx core.Transaction) error {
	body, err := json.Marshal(record{
		ID:          tx.ID,
		Description: tx.Description,
		Amount:      tx.Amount,
		Currency:    string(tx.Currency),
		Date:        tx.Date.Format("2006-01-02"),
		Type:        string(tx.Type),
		Category:    tx.Category,
		ClientID:    tx.ClientID,
		CreatedAt:   tx.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/rest/v1/records", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Upsert on conflicting primary key instead of failing.
	req.Header.Set("Prefer", "resolution=merge-duplicates")
	m.authorize(req)

	return m.do(req, "push record")
}

// DeleteRecord removes a transaction from the mirror. A record that is
// already gone is not an error.
func (m *HTTPMirror) DeleteRecord(ctx context.Context, id string) error {
	target := m.baseURL + "/rest/v1/records?id=eq." + url.QueryEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	m.authorize(req)

	return m.do(req, "delete record")
}

func (m *HTTPMirror) authorize(req *http.Request) {
	req.Header.Set("apikey", m.apiKey)
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
}

func (m *HTTPMirror) do(req *http.Request, op string) error {
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: mirror returned %d: %s", op, resp.StatusCode, detail)
	}
	return nil
}
