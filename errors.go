package persiq

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by a Transport's Receive once the transport has
// been closed. The listener loop treats it as an orderly shutdown
// signal rather than an error.
var ErrClosed = errors.New("persiq: transport closed")

// TransportError wraps a receive failure of the underlying transport.
// It is routed to the exception callback; the listener loop continues
// afterwards.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport receive failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// CallbackError wraps an error returned (or a panic raised) by the
// message callback. It is routed to the exception callback; the
// listener loop continues afterwards.
type CallbackError struct {
	Err error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("message callback failed: %v", e.Err)
}

func (e *CallbackError) Unwrap() error { return e.Err }
