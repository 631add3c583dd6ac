// Package pubsub adapts watermill publish/subscribe backends to the
// persiq.Transport contract, so a ThreadedSubscriber can listen on any
// broker watermill supports.
package pubsub

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/nfrund/persiq"
)

// SubscriberTransport exposes one watermill subscription as a blocking
// receive/close pair. Receive acknowledges each message as soon as it
// is handed over; durability past that point is the storage layer's
// responsibility.
type SubscriberTransport struct {
	sub      message.Subscriber
	cancel   context.CancelFunc
	messages <-chan *message.Message

	closeOnce sync.Once
	closeErr  error
}

var _ persiq.Transport = (*SubscriberTransport)(nil)

// NewSubscriberTransport subscribes to topic and returns the transport.
// Closing the transport closes the underlying subscriber.
func NewSubscriberTransport(sub message.Subscriber, topic string) (*SubscriberTransport, error) {
	ctx, cancel := context.WithCancel(context.Background())
	messages, err := sub.Subscribe(ctx, topic)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("subscribing to %q: %w", topic, err)
	}
	return &SubscriberTransport{sub: sub, cancel: cancel, messages: messages}, nil
}

// Receive blocks until the next message arrives. Once the transport is
// closed it returns persiq.ErrClosed.
func (st *SubscriberTransport) Receive() ([]byte, error) {
	wmMsg, ok := <-st.messages
	if !ok {
		return nil, persiq.ErrClosed
	}
	wmMsg.Ack()
	return wmMsg.Payload, nil
}

// Close cancels the subscription and closes the subscriber, unblocking
// any pending Receive. It is idempotent.
func (st *SubscriberTransport) Close() error {
	st.closeOnce.Do(func() {
		st.cancel()
		st.closeErr = st.sub.Close()
	})
	return st.closeErr
}

// NewGoChannel returns an in-memory watermill pub/sub, useful for tests
// and in-process wiring.
func NewGoChannel() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
}

// Publish sends raw bytes to a topic under a fresh message UUID.
func Publish(pub message.Publisher, topic string, payload []byte) error {
	return pub.Publish(topic, message.NewMessage(uuid.NewString(), payload))
}
