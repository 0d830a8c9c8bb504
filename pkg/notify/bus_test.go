package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishDeliversToSubscriber(t *testing.T) {
	b := New()
	ch, cancel, err := b.ListenChanges(context.Background(), "resources", nil)
	require.NoError(t, err)
	defer cancel()

	b.Publish(Message{Pipe: "resources", Type: Changed, Payload: map[string]any{"id": "port:0"}})

	select {
	case msg := <-ch:
		assert.Equal(t, Changed, msg.Type)
		assert.Equal(t, "port:0", msg.Payload["id"])
	case <-time.After(time.Second):
		t.Fatal("expected a message, got none")
	}
}

func TestBus_PublishRespectsPipeIsolation(t *testing.T) {
	b := New()
	resCh, cancel1, err := b.ListenChanges(context.Background(), "resources", nil)
	require.NoError(t, err)
	defer cancel1()
	statCh, cancel2, err := b.ListenChanges(context.Background(), "statistics", nil)
	require.NoError(t, err)
	defer cancel2()

	b.Publish(Message{Pipe: "resources", Type: Changed})

	select {
	case <-resCh:
	case <-time.After(time.Second):
		t.Fatal("expected a resources message")
	}
	select {
	case <-statCh:
		t.Fatal("statistics subscriber should not see a resources message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_FilterDropsNonMatchingMessages(t *testing.T) {
	b := New()
	onlyRemoved := func(m Message) bool { return m.Type == Removed }
	ch, cancel, err := b.ListenChanges(context.Background(), "resources", onlyRemoved)
	require.NoError(t, err)
	defer cancel()

	b.Publish(Message{Pipe: "resources", Type: Changed})
	b.Publish(Message{Pipe: "resources", Type: Removed})

	select {
	case msg := <-ch:
		assert.Equal(t, Removed, msg.Type)
	case <-time.After(time.Second):
		t.Fatal("expected the Removed message to pass the filter")
	}
}

func TestBus_SlowSubscriberDropsWithoutBlockingPublisher(t *testing.T) {
	b := New(WithBufferSize(1))
	ch, cancel, err := b.ListenChanges(context.Background(), "resources", nil)
	require.NoError(t, err)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(Message{Pipe: "resources", Type: Changed, Payload: map[string]any{"n": i}})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish must never block on a full subscriber buffer")
	}
	<-ch // drain one so the goroutine above is proven to have not deadlocked
}

func TestBus_CancelUnregistersSubscriber(t *testing.T) {
	b := New()
	_, cancel, err := b.ListenChanges(context.Background(), "resources", nil)
	require.NoError(t, err)
	cancel()

	b.mu.Lock()
	_, stillThere := b.subscribers["resources"]
	count := len(b.subscribers["resources"])
	b.mu.Unlock()
	assert.True(t, !stillThere || count == 0)
}

func TestBus_ContextCancellationUnregisters(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	ch, _, err := b.ListenChanges(ctx, "resources", nil)
	require.NoError(t, err)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond, "channel should close once ctx is cancelled")
}
