// Package notify implements the process-wide notification bus:
// multi-producer/multi-consumer, organized by named pipes ("resources",
// "statistics"), with best-effort delivery and a bounded buffer per
// subscriber.
package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// ChangeType discriminates what happened to the thing a Message describes.
type ChangeType string

const (
	Changed ChangeType = "Changed"
	Removed ChangeType = "Removed"
)

// Message is one notification-bus event.
type Message struct {
	Pipe    string
	Type    ChangeType
	Payload map[string]any
}

// Filter, when non-nil, is applied to every Message published on a pipe a
// subscriber listens to; a false result drops the message for that
// subscriber only.
type Filter func(Message) bool

// QueueDepthSink lets the bus report subscriber queue depth and drops to an
// observability backend without importing pkg/metrics directly (avoids a
// notify -> metrics -> notify style dependency cycle risk as the module
// grows). pkg/metrics.Prometheus satisfies this today.
type QueueDepthSink interface {
	NotifyQueueDepth(pipe string, depth int)
	NotifyDropped(pipe string)
}

type noopSink struct{}

func (noopSink) NotifyQueueDepth(string, int) {}
func (noopSink) NotifyDropped(string) {}

const defaultBufferSize = 64

// Bus is the process-wide notification bus. Publishers push Messages by
// pipe name without knowing subscriber identity; subscribers receive an
// asynchronous stream via a buffered channel, with messages dropped
// (best-effort) if the subscriber falls behind.
type Bus struct {
	mu          sync.Mutex
	subscribers map[string]map[string]*subscription
	bufferSize  int
	sink        QueueDepthSink
}

type subscription struct {
	ch     chan   Message
	filter Filter
}

// Option configures a Bus at construction.
type Option func(*Bus)

// WithBufferSize overrides the default per-subscriber buffer size (64).
func WithBufferSize(n int) Option {
	return func(b *Bus) { b.bufferSize = n }
}

// WithMetrics attaches a QueueDepthSink so queue depth and drops are
// observable.
func WithMetrics(sink QueueDepthSink) Option {
	return func(b *Bus) { b.sink = sink }
}

// New builds an empty Bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		subscribers: make(map[string]map[string]*subscription),
		bufferSize:  defaultBufferSize,
		sink:        noopSink{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ListenChanges subscribes to pipe, returning a channel of Messages passing
// filter (nil means "everything"). The returned cancel func unregisters the
// subscription and closes the channel; callers should always defer it.
// ctx cancellation also unregisters the subscription automatically.
func (b *Bus) ListenChanges(ctx context.Context, pipe string, filter Filter) (<-chan Message, func(), error) {
	id := uuid.NewString()
	sub := &subscription{ch: make(chan Message, b.bufferSize), filter: filter}

	b.mu.Lock()
	if b.subscribers[pipe] == nil {
		b.subscribers[pipe] = make(map[string]*subscription)
	}
	b.subscribers[pipe][id] = sub
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers[pipe], id)
			b.mu.Unlock()
			close(sub.ch)
		})
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return sub.ch, cancel, nil
}

// Publish fans msg out to every subscriber on msg.Pipe whose filter accepts
// it. Delivery is best-effort: a subscriber whose buffer is full has this
// message dropped rather than blocking the publisher.
func (b *Bus) Publish(msg Message) {
	b.mu.Lock()
	subs := make([]*subscription, 0, len(b.subscribers[msg.Pipe]))
	for _, s := range b.subscribers[msg.Pipe] {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	depth := 0
	for _, sub := range subs {
		if sub.filter != nil && !sub.filter(msg) {
			continue
		}
		select {
		case sub.ch <- msg:
			depth = len(sub.ch)
		default:
			b.sink.NotifyDropped(msg.Pipe)
		}
	}
	b.sink.NotifyQueueDepth(msg.Pipe, depth)
}
