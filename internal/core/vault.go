package core

import "math"

const (
	VaultAdd      VaultOp = "add"
	VaultSubtract VaultOp = "subtract"
)

// VaultOp is a manual adjustment of the savings vault.
type VaultOp string

func (op VaultOp) Valid() bool {
	return op == VaultAdd || op == VaultSubtract
}

// ApplyVaultOp returns the vault total after a manual adjustment.
// Subtraction clamps at zero: the vault never goes negative. The
// adjusted value must be a positive finite number.
func ApplyVaultOp(total float64, op VaultOp, amount float64) (float64, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return total, ErrInvalidVaultAmount
	}
	switch op {
	case VaultAdd:
		return total + amount, nil
	case VaultSubtract:
		return math.Max(total-amount, 0), nil
	default:
		return total, ErrInvalidVaultAmount
	}
}
