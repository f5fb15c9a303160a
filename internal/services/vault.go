package services

import (
	"context"
	"fmt"
	"log/slog"

	"brisa/internal/core"
)

// VaultStore is the slice of storage the vault service uses.
type VaultStore interface {
	VaultTotal(ctx context.Context) (float64, error)
	SetVaultTotal(ctx context.Context, total float64) error
}

type VaultService struct {
	store VaultStore
}

func NewVaultService(store VaultStore) *VaultService {
	return &VaultService{store: store}
}

func (s *VaultService) Total(ctx context.Context) (float64, error) {
	return s.store.VaultTotal(ctx)
}

// Apply adds to or subtracts from the vault and returns the new total.
// Withdrawing more than the balance empties the vault instead of going
// negative.
func (s *VaultService) Apply(ctx context.Context, op core.VaultOp, amount float64) (float64, error) {
	total, err := s.store.VaultTotal(ctx)
	if err != nil {
		return 0, fmt.Errorf("read vault total: %w", err)
	}

	next, err := core.ApplyVaultOp(total, op, amount)
	if err != nil {
		return 0, err
	}

	if err := s.store.SetVaultTotal(ctx, next); err != nil {
		return 0, fmt.Errorf("write vault total: %w", err)
	}

	slog.InfoContext(ctx, "Vault updated",
		"op", string(op),
		"amount", amount,
		"total", next)
	return next, nil
}
