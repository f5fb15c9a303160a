package services

import (
	"context"
	"fmt"
	"time"

	"brisa/internal/core"
	"brisa/internal/storage"
)

// ClientStore is the slice of storage the client service uses.
type ClientStore interface {
	CreateClient(ctx context.Context, c core.Client) (core.Client, error)
	ListClients(ctx context.Context) ([]core.Client, error)
	UpdateClient(ctx context.Context, id string, upd storage.ClientUpdate) (core.Client, error)
	DeleteClient(ctx context.Context, id string) error
	MarkClientPaid(ctx context.Context, clientID string, period core.PeriodKey) error
	PaidClientIDs(ctx context.Context, period core.PeriodKey) (map[string]bool, error)
}

type ClientService struct {
	store ClientStore
	now   func() time.Time
}

func NewClientService(store ClientStore) *ClientService {
	return &ClientService{
		store: store,
		now:   time.Now,
	}
}

func (s *ClientService) Create(ctx context.Context, c core.Client) (core.Client, error) {
	if err := c.Validate(); err != nil {
		return core.Client{}, err
	}
	return s.store.CreateClient(ctx, c)
}

// List returns all clients with HasPaid resolved for the current
// month. The flag resets implicitly when the month rolls over because
// payments are keyed by (client, month, year).
func (s *ClientService) List(ctx context.Context) ([]core.Client, error) {
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	paid, err := s.store.PaidClientIDs(ctx, core.CurrentPeriod(s.now()))
	if err != nil {
		return nil, fmt.Errorf("resolve payment flags: %w", err)
	}

	for i := range clients {
		clients[i].HasPaid = paid[clients[i].ID]
	}
	return clients, nil
}

func (s *ClientService) Update(ctx context.Context, id string, upd storage.ClientUpdate) (core.Client, error) {
	return s.store.UpdateClient(ctx, id, upd)
}

func (s *ClientService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteClient(ctx, id)
}

// MarkPaid records a payment for the current month. Marking twice in
// the same month is a no-op.
func (s *ClientService) MarkPaid(ctx context.Context, id string) error {
	return s.store.MarkClientPaid(ctx, id, core.CurrentPeriod(s.now()))
}
