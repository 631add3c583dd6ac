package persiq

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/nfrund/persiq/internal/metrics"
)

// Transport is the pub/sub source a ThreadedSubscriber listens on.
// Receive blocks until the next message arrives and must return an
// error wrapping ErrClosed once the transport has been closed; that is
// the only way to unblock a pending receive from the outside.
//
// A Transport is operated exclusively by one ThreadedSubscriber; do not
// share it between goroutines.
type Transport interface {
	Receive() ([]byte, error)
	Close() error
}

// Callback is invoked on the listener goroutine for every received
// message. A non-nil error is wrapped in *CallbackError and routed to
// the exception callback.
type Callback func(msg []byte) error

// ExceptionCallback is invoked on the listener goroutine whenever a
// receive or a message callback fails. A panicking exception callback
// is fatal to the session: the listener goroutine terminates and the
// subscriber stops being operational.
type ExceptionCallback func(err error)

// ThreadedSubscriber listens on a transport in a dedicated goroutine
// and communicates with the rest of the system only through the two
// supplied callbacks. Locking, if any, is the callback provider's
// concern.
type ThreadedSubscriber struct {
	transport   Transport
	callback    Callback
	onException ExceptionCallback

	operational atomic.Bool
	done        chan struct{}
	closeOnce   sync.Once
	closeErr    error
}

// NewThreadedSubscriber spawns the listener goroutine and returns
// immediately. The subscriber is operational until Shutdown is called
// or an unrecoverable error terminates the loop.
//
// A nil callback drops messages; a nil onException logs routed errors
// at Error level.
func NewThreadedSubscriber(transport Transport, callback Callback, onException ExceptionCallback) *ThreadedSubscriber {
	ts := &ThreadedSubscriber{
		transport:   transport,
		callback:    callback,
		onException: onException,
		done:        make(chan struct{}),
	}
	ts.operational.Store(true)
	go ts.listen()
	return ts
}

// Operational reports whether the listener goroutine is still running.
func (ts *ThreadedSubscriber) Operational() bool {
	return ts.operational.Load()
}

// Shutdown closes the transport to unblock the pending receive, then
// waits for the listener goroutine to exit. No message callback begins
// after Shutdown returns. It is idempotent and safe to call even if the
// goroutine already exited on its own.
func (ts *ThreadedSubscriber) Shutdown() error {
	ts.closeOnce.Do(func() {
		ts.closeErr = ts.transport.Close()
	})
	<-ts.done
	return ts.closeErr
}

// listen runs the receive/dispatch loop on the listener goroutine.
func (ts *ThreadedSubscriber) listen() {
	defer close(ts.done)
	defer ts.operational.Store(false)

	for {
		msg, err := ts.transport.Receive()
		if err != nil {
			if errors.Is(err, ErrClosed) {
				slog.Debug("Transport closed, stopping listener loop")
				return
			}
			if !ts.dispatchException(&TransportError{Err: err}) {
				return
			}
			continue
		}

		metrics.ListenerMessages.Inc()

		if err := ts.invokeCallback(msg); err != nil {
			if !ts.dispatchException(&CallbackError{Err: err}) {
				return
			}
		}
	}
}

// invokeCallback runs the message callback, converting a panic into an
// error so a misbehaving callback cannot kill the listener goroutine.
func (ts *ThreadedSubscriber) invokeCallback(msg []byte) (err error) {
	if ts.callback == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback panicked: %v", r)
		}
	}()
	return ts.callback(msg)
}

// dispatchException routes err to the exception callback. It returns
// false when the exception callback itself panicked, which terminates
// the listener loop.
func (ts *ThreadedSubscriber) dispatchException(err error) (ok bool) {
	metrics.ListenerErrors.Inc()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Exception callback panicked, terminating listener", "cause", err, "panic", r)
			ok = false
		}
	}()

	if ts.onException == nil {
		slog.Error("Unhandled listener error", "error", err)
		return true
	}
	ts.onException(err)
	return true
}
