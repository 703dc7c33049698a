package breaker

import "errors"

// ErrOperationSuspended is returned by Guard when a fired breaker suspends
// the requested operation for the current block.
var ErrOperationSuspended = errors.New("breaker: operation suspended for this block")
