package core

import (
	"errors"
	"testing"
)

func TestApplyVaultOp(t *testing.T) {
	cases := []struct {
		name   string
		total  float64
		op     VaultOp
		amount float64
		want   float64
	}{
		{"add", 500, VaultAdd, 200, 700},
		{"subtract", 500, VaultSubtract, 200, 300},
		{"subtract clamps at zero", 500, VaultSubtract, 700, 0},
		{"subtract exact", 500, VaultSubtract, 500, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ApplyVaultOp(tc.total, tc.op, tc.amount)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestApplyVaultOpInvalid(t *testing.T) {
	for _, amount := range []float64{0, -10} {
		if _, err := ApplyVaultOp(100, VaultAdd, amount); !errors.Is(err, ErrInvalidVaultAmount) {
			t.Fatalf("amount %v: got %v, want ErrInvalidVaultAmount", amount, err)
		}
	}
	if _, err := ApplyVaultOp(100, VaultOp("oops"), 10); !errors.Is(err, ErrInvalidVaultAmount) {
		t.Fatalf("bad op: got %v, want ErrInvalidVaultAmount", err)
	}
}
