// Package rates fetches the ARS-per-USD exchange rate from an external
// endpoint. The fetch is best effort: any failure keeps the previously
// known rate in place, falling back to a configured default.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

type Client struct {
	url        string
	httpClient *http.Client

	mu   sync.RWMutex
	rate float64
}

// quote is the relevant slice of the dolarapi-style payload.
type quote struct {
	Venta float64 `json:"venta"`
}

// NewClient creates a rate client seeded with a fallback rate that is
// served until the first successful fetch.
func NewClient(url string, fallback float64) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		rate:       fallback,
	}
}

// Current returns the last known rate. Always usable, never zero as
// long as the fallback was positive.
func (c *Client) Current() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rate
}

// Refresh fetches the current rate and stores it. On failure the prior
// rate stays in place and the error is returned for logging only.
func (c *Client) Refresh(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return c.Current(), fmt.Errorf("build rate request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.Current(), fmt.Errorf("fetch rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.Current(), fmt.Errorf("fetch rate: unexpected status %d", resp.StatusCode)
	}

	var q quote
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return c.Current(), fmt.Errorf("decode rate response: %w", err)
	}
	if q.Venta <= 0 {
		return c.Current(), fmt.Errorf("decode rate response: non-positive rate %v", q.Venta)
	}

	c.mu.Lock()
	c.rate = q.Venta
	c.mu.Unlock()

	slog.InfoContext(ctx, "Exchange rate refreshed", "rate", q.Venta)
	return q.Venta, nil
}

// StartRefreshing refreshes the rate once immediately and then on the
// given interval until the context is cancelled.
func (c *Client) StartRefreshing(ctx context.Context, interval time.Duration) {
	if _, err := c.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "Initial rate fetch failed, keeping fallback",
			"error", err, "rate", c.Current())
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.Refresh(ctx); err != nil {
				slog.WarnContext(ctx, "Rate refresh failed, keeping prior rate",
					"error", err, "rate", c.Current())
			}
		}
	}
}
