package services

import (
	"context"
	"errors"
	"testing"

	"brisa/internal/core"
)

type fakeVaultStore struct {
	total   float64
	readErr error
}

func (f *fakeVaultStore) VaultTotal(context.Context) (float64, error) {
	return f.total, f.readErr
}

func (f *fakeVaultStore) SetVaultTotal(_ context.Context, total float64) error {
	f.total = total
	return nil
}

func TestVaultApply(t *testing.T) {
	store := &fakeVaultStore{total: 500}
	svc := NewVaultService(store)

	total, err := svc.Apply(context.Background(), core.VaultAdd, 200)
	if err != nil {
		t.Fatalf("Apply add: %v", err)
	}
	if total != 700 {
		t.Errorf("total = %v, want 700", total)
	}

	// Over-withdrawal clamps at zero.
	total, err = svc.Apply(context.Background(), core.VaultSubtract, 900)
	if err != nil {
		t.Fatalf("Apply subtract: %v", err)
	}
	if total != 0 {
		t.Errorf("total = %v, want 0", total)
	}
	if store.total != 0 {
		t.Errorf("stored total = %v, want 0", store.total)
	}
}

func TestVaultApplyInvalid(t *testing.T) {
	store := &fakeVaultStore{total: 500}
	svc := NewVaultService(store)

	if _, err := svc.Apply(context.Background(), core.VaultAdd, -10); !errors.Is(err, core.ErrInvalidVaultAmount) {
		t.Errorf("err = %v, want ErrInvalidVaultAmount", err)
	}
	if store.total != 500 {
		t.Errorf("total changed on invalid op: %v", store.total)
	}
}

func TestVaultApplyReadFailure(t *testing.T) {
	svc := NewVaultService(&fakeVaultStore{readErr: errors.New("db locked")})
	if _, err := svc.Apply(context.Background(), core.VaultAdd, 10); err == nil {
		t.Error("expected error when vault total cannot be read")
	}
}
