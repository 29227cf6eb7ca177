package pendingsync

import (
	"context"
	"errors"
	"sync"
)

// ErrSinkClosed is returned by EventChannel.Send once the consumer closed the
// channel.
var ErrSinkClosed = errors.New("event sink closed")

// EventSink receives the events of a poll session. Send blocks while the sink
// is full and must fail once nobody consumes the events anymore.
type EventSink interface {
	Send(ctx context.Context, ev SyncEvent) error
}

// EventChannel is a bounded, ordered EventSink with a single consumer. The
// consumer reads Events and calls Close when it stops reading.
type EventChannel struct {
	ch        chan SyncEvent
	done      chan struct{}
	closeOnce sync.Once
}

var _ EventSink = (*EventChannel)(nil)

// NewEventChannel returns an EventChannel buffering up to size events. A
// size below one is treated as one.
func NewEventChannel(size int) *EventChannel {
	if size < 1 {
		size = 1
	}
	return &EventChannel{
		ch:   make(chan SyncEvent, size),
		done: make(chan struct{}),
	}
}

// Send publishes ev. It blocks while the buffer is full and returns
// ErrSinkClosed if the channel is or gets closed, or the context error if ctx
// ends first.
func (c *EventChannel) Send(ctx context.Context, ev SyncEvent) error {
	// a closed channel must win over free buffer space
	select {
	case <-c.done:
		return ErrSinkClosed
	default:
	}

	select {
	case c.ch <- ev:
		return nil
	case <-c.done:
		return ErrSinkClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events returns the channel the consumer reads from.
func (c *EventChannel) Events() <-chan SyncEvent {
	return c.ch
}

// Close tells the producer that nobody listens anymore. It is safe to call
// more than once.
func (c *EventChannel) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}
