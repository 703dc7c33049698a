package controller

import "errors"

var (
	ErrInvalidRedemptionPrice = errors.New("controller: redemption price must be positive")
	ErrInvalidBounds          = errors.New("controller: min bound exceeds max bound")
	ErrNonMonotonicBlock      = errors.New("controller: step called with a block at or before the last update")
	ErrUnknownMode            = errors.New("controller: unrecognized mode string")
)
