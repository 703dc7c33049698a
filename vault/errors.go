package vault

import "errors"

// Sentinel errors mirroring the VaultSafety/InvalidOperation taxonomy of
// spec.md §7. Agents may log these and continue; they are never panics.
var (
	ErrZeroCollateral              = errors.New("vault: collateral must be positive")
	ErrBelowDebtFloor              = errors.New("vault: debt below floor")
	ErrInsufficientCollateralRatio = errors.New("vault: collateral ratio below minimum")
	ErrInsufficientCollateral      = errors.New("vault: insufficient collateral to withdraw")
	ErrInsufficientDebt            = errors.New("vault: repay exceeds outstanding debt")
	ErrInvalidAmount               = errors.New("vault: amount must be positive")
	ErrNotFound                    = errors.New("vault: identifier not found")
)
