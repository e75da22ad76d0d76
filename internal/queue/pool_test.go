package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsMessages(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	p, err := NewPool(2, func(ctx context.Context, msg Message) error {
		mu.Lock()
		seen = append(seen, msg.ImportID)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, p.Send(context.Background(), Message{ImportID: id}))
	}
	require.NoError(t, p.Close(time.Second))

	assert.ElementsMatch(t, []string{"a", "b", "c"}, seen)
}

func TestPoolDetachesCancellation(t *testing.T) {
	var mu sync.Mutex
	var got error
	ran := false
	p, err := NewPool(1, func(ctx context.Context, msg Message) error {
		mu.Lock()
		defer mu.Unlock()
		got, ran = ctx.Err(), true
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Send(ctx, Message{ImportID: "x"}))
	cancel()
	require.NoError(t, p.Close(time.Second))

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, ran)
	assert.NoError(t, got)
}

func TestPoolRejectsAfterClose(t *testing.T) {
	p, err := NewPool(1, func(ctx context.Context, msg Message) error { return nil })
	require.NoError(t, err)
	require.NoError(t, p.Close(time.Second))

	assert.ErrorIs(t, p.Send(context.Background(), Message{ImportID: "late"}), ErrPoolClosed)
}

func TestPoolSurvivesHandlerPanic(t *testing.T) {
	var calls atomic.Int32
	p, err := NewPool(1, func(ctx context.Context, msg Message) error {
		calls.Add(1)
		if msg.ImportID == "boom" {
			panic("boom")
		}
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, p.Send(context.Background(), Message{ImportID: "boom"}))
	require.NoError(t, p.Send(context.Background(), Message{ImportID: "ok"}))
	_ = p.Close(time.Second)

	assert.Equal(t, int32(2), calls.Load())
}

func TestNewPoolRequiresHandler(t *testing.T) {
	_, err := NewPool(1, nil)
	assert.Error(t, err)
}

func TestPoolSendDoesNotBlockWhenWorkersBusy(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	p, err := NewPool(1, func(ctx context.Context, msg Message) error {
		calls.Add(1)
		<-release
		return nil
	})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		for _, id := range []string{"a", "b", "c"} {
			_ = p.Send(context.Background(), Message{ImportID: id})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked on a busy worker")
	}
	close(release)
	require.NoError(t, p.Close(time.Second))
	assert.Equal(t, int32(3), calls.Load())
}
