package liquidation

import "errors"

var (
	ErrVaultNotFound  = errors.New("liquidation: vault not found")
	ErrNotEligible    = errors.New("liquidation: vault not eligible for liquidation")
	ErrInvalidRouting = errors.New("liquidation: penalty routing shares exceed 100%")
	ErrAmmSwapFailed  = errors.New("liquidation: amm swap failed while seizing collateral")
	ErrUnknownMode    = errors.New("liquidation: unrecognized mode string")
)
