package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop(), time.Second)

	var a, b atomic.Int32
	d.Subscribe(EventTicketTransitioned, func(ctx context.Context, e Event) error {
		a.Add(1)
		return nil
	})
	d.Subscribe(EventTicketTransitioned, func(ctx context.Context, e Event) error {
		b.Add(1)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketTransitioned, TicketID: 1}))
	d.Wait()

	assert.Equal(t, int32(1), a.Load())
	assert.Equal(t, int32(1), b.Load())
}

func TestHandlerFailureIsIsolated(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop(), time.Second)

	var delivered atomic.Int32
	d.Subscribe(EventTicketTransitioned, func(ctx context.Context, e Event) error {
		return errors.New("smtp unreachable")
	})
	d.Subscribe(EventTicketTransitioned, func(ctx context.Context, e Event) error {
		panic("line api exploded")
	})
	d.Subscribe(EventTicketTransitioned, func(ctx context.Context, e Event) error {
		delivered.Add(1)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketTransitioned, TicketID: 7}))
	d.Wait()

	assert.Equal(t, int32(1), delivered.Load())
}

func TestPublishDoesNotBlockOnSlowHandler(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop(), 5*time.Second)

	release := make(chan struct{})
	d.Subscribe(EventTicketTransitioned, func(ctx context.Context, e Event) error {
		<-release
		return nil
	})

	start := time.Now()
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketTransitioned}))
	assert.Less(t, time.Since(start), time.Second)
	close(release)
	d.Wait()
}

func TestHandlerContextHasDeadline(t *testing.T) {
	d := NewAsyncDispatcher(zap.NewNop(), 50*time.Millisecond)

	var hadDeadline atomic.Bool
	d.Subscribe(EventTicketCreateFinalized, func(ctx context.Context, e Event) error {
		_, ok := ctx.Deadline()
		hadDeadline.Store(ok)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreateFinalized}))
	d.Wait()
	assert.True(t, hadDeadline.Load())
}
