package persiq_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/persiq"
)

// chanTransport is an in-process Transport for tests. Messages and
// injected receive errors are delivered through channels; Close
// unblocks any pending Receive with ErrClosed.
type chanTransport struct {
	msgs      chan []byte
	errs      chan error
	closed    chan struct{}
	closeOnce sync.Once
}

func newChanTransport() *chanTransport {
	return &chanTransport{
		msgs:   make(chan []byte, 16),
		errs:   make(chan error, 16),
		closed: make(chan struct{}),
	}
}

func (t *chanTransport) Receive() ([]byte, error) {
	select {
	case <-t.closed:
		return nil, persiq.ErrClosed
	case err := <-t.errs:
		return nil, err
	case msg := <-t.msgs:
		return msg, nil
	}
}

func (t *chanTransport) Close() error {
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}

// recorder collects callback invocations across goroutines.
type recorder struct {
	mu   sync.Mutex
	msgs [][]byte
	errs []error
}

func (r *recorder) callback(msg []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recorder) onException(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) messageCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func (r *recorder) errorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

func (r *recorder) messages() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.msgs...)
}

func (r *recorder) errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func TestThreadedSubscriber_Lifecycle(t *testing.T) {
	transport := newChanTransport()
	rec := &recorder{}

	sub := persiq.NewThreadedSubscriber(transport, rec.callback, rec.onException)
	assert.True(t, sub.Operational())

	// Immediate shutdown with no traffic must neither hang nor invoke
	// the message callback.
	require.NoError(t, sub.Shutdown())
	assert.False(t, sub.Operational())
	assert.Zero(t, rec.messageCount())

	// Shutdown is idempotent.
	require.NoError(t, sub.Shutdown())
}

func TestThreadedSubscriber_DeliversMessages(t *testing.T) {
	transport := newChanTransport()
	rec := &recorder{}

	sub := persiq.NewThreadedSubscriber(transport, rec.callback, rec.onException)
	defer sub.Shutdown()

	transport.msgs <- []byte("one")
	transport.msgs <- []byte("two")
	transport.msgs <- []byte("three")

	require.Eventually(t, func() bool { return rec.messageCount() == 3 },
		5*time.Second, 10*time.Millisecond)

	assert.Equal(t, [][]byte{[]byte("one"), []byte("two"), []byte("three")}, rec.messages())
	assert.Zero(t, rec.errorCount())
}

func TestThreadedSubscriber_CallbackErrorsAreIsolated(t *testing.T) {
	transport := newChanTransport()
	rec := &recorder{}

	failOn := []byte("poison")
	callback := func(msg []byte) error {
		if string(msg) == string(failOn) {
			return errors.New("cannot digest this")
		}
		return rec.callback(msg)
	}

	sub := persiq.NewThreadedSubscriber(transport, callback, rec.onException)
	defer sub.Shutdown()

	transport.msgs <- []byte("first")
	transport.msgs <- failOn
	transport.msgs <- []byte("last")

	require.Eventually(t, func() bool { return rec.messageCount() == 2 },
		5*time.Second, 10*time.Millisecond)

	// The failing message produced exactly one exception callback and
	// did not stop the ones after it.
	require.Equal(t, 1, rec.errorCount())
	var cbErr *persiq.CallbackError
	assert.ErrorAs(t, rec.errors()[0], &cbErr)
	assert.Equal(t, [][]byte{[]byte("first"), []byte("last")}, rec.messages())
	assert.True(t, sub.Operational())
}

func TestThreadedSubscriber_CallbackPanicIsIsolated(t *testing.T) {
	transport := newChanTransport()
	rec := &recorder{}

	callback := func(msg []byte) error {
		if string(msg) == "boom" {
			panic("kaboom")
		}
		return rec.callback(msg)
	}

	sub := persiq.NewThreadedSubscriber(transport, callback, rec.onException)
	defer sub.Shutdown()

	transport.msgs <- []byte("boom")
	transport.msgs <- []byte("calm")

	require.Eventually(t, func() bool { return rec.messageCount() == 1 },
		5*time.Second, 10*time.Millisecond)

	require.Equal(t, 1, rec.errorCount())
	var cbErr *persiq.CallbackError
	assert.ErrorAs(t, rec.errors()[0], &cbErr)
	assert.True(t, sub.Operational())
}

func TestThreadedSubscriber_TransportErrorsAreRouted(t *testing.T) {
	transport := newChanTransport()
	rec := &recorder{}

	sub := persiq.NewThreadedSubscriber(transport, rec.callback, rec.onException)
	defer sub.Shutdown()

	transport.errs <- errors.New("flaky network")
	transport.msgs <- []byte("still alive")

	require.Eventually(t, func() bool { return rec.messageCount() == 1 },
		5*time.Second, 10*time.Millisecond)

	require.Equal(t, 1, rec.errorCount())
	var trErr *persiq.TransportError
	assert.ErrorAs(t, rec.errors()[0], &trErr)
	assert.True(t, sub.Operational(), "a receive error must not stop the loop")
}

func TestThreadedSubscriber_ExceptionCallbackPanicIsFatal(t *testing.T) {
	transport := newChanTransport()

	onException := func(err error) { panic("the handler of last resort failed") }

	sub := persiq.NewThreadedSubscriber(transport, func(msg []byte) error {
		return errors.New("always failing")
	}, onException)

	transport.msgs <- []byte("trigger")

	require.Eventually(t, func() bool { return !sub.Operational() },
		5*time.Second, 10*time.Millisecond,
		"a panicking exception callback must terminate the listener")

	// Shutdown still returns even though the goroutine already exited.
	require.NoError(t, sub.Shutdown())
}

func TestThreadedSubscriber_NoCallbacksAfterShutdown(t *testing.T) {
	transport := newChanTransport()
	rec := &recorder{}

	sub := persiq.NewThreadedSubscriber(transport, rec.callback, rec.onException)
	require.NoError(t, sub.Shutdown())

	transport.msgs <- []byte("too late")

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, rec.messageCount(), "no callback may begin after Shutdown returned")
}
