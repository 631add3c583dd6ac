// Package persiq persists messages received from a publish/subscribe
// source to disk. It decouples a fast, continuously-listening network
// goroutine from a slower consumer that drains the backlog at its own
// pace.
//
// A ThreadedSubscriber owns a Transport and dispatches every received
// message to a callback without ever blocking the transport on the
// caller's goroutine. The storage package provides the crash-tolerant,
// disk-backed queues the callback typically writes into:
//
//	q, _ := storage.NewQueue(afero.NewOsFs(), "/var/lib/persiq/events")
//	sub := persiq.NewThreadedSubscriber(transport,
//		func(msg []byte) error { return q.Add(msg) },
//		func(err error) { slog.Error("listener error", "error", err) },
//	)
//	defer sub.Shutdown()
//
// The consumer reads the backlog independently, possibly from another
// process after a restart, via q.Front and q.PopFront.
package persiq
