package driver

import "errors"

var (
	ErrUnknownScenario = errors.New("driver: unknown scenario id")
	ErrUnknownMode     = errors.New("driver: unknown mode")
)
