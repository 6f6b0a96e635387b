package vimrpc

import "fmt"

// TransportError wraps a process or RPC failure. The first one disables
// the session; delegation is never half-enabled.
type TransportError struct {
	// Op is the operation or RPC method that failed.
	Op string

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("vim backend: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying failure.
func (e *TransportError) Unwrap() error { return e.Err }
