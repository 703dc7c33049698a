package config

import "errors"

var (
	// ErrConfigInvalid is the spec.md §7 ConfigInvalid kind: detected at
	// engine construction, aborting the run before any block executes.
	ErrConfigInvalid = errors.New("config: invalid")
)
