package hub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/watchparty/go/internal/events"
)

type stubPublisher struct {
	err       error
	connected bool
	closed    bool
}

func (s *stubPublisher) Publish(context.Context, events.Activity) error { return s.err }
func (s *stubPublisher) Close() error                                   { s.closed = true; return nil }
func (s *stubPublisher) Connected() bool                                { return s.connected }

func TestMetricPublisherCounts(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC))
	stub := &stubPublisher{connected: true}
	p := NewMetricPublisher(stub, clock)
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, events.Activity{RoomID: "room-1"}))
	require.NoError(t, p.Publish(ctx, events.Activity{RoomID: "room-1"}))

	stub.err = errors.New("nats: timeout")
	require.Error(t, p.Publish(ctx, events.Activity{RoomID: "room-1"}))

	stats := p.Stats()
	assert.Equal(t, uint64(2), stats.Published)
	assert.Equal(t, uint64(1), stats.Failed)
	assert.Equal(t, "nats: timeout", stats.LastError)
	assert.Equal(t, clock.Now(), stats.LastPublished)
	assert.True(t, p.Connected())

	stub.connected = false
	assert.False(t, p.Connected())

	require.NoError(t, p.Close())
	assert.True(t, stub.closed)
}

func TestMetricPublisherWithoutConnection(t *testing.T) {
	p := NewMetricPublisher(NoopPublisher{}, nil)
	assert.True(t, p.Connected())
	require.NoError(t, p.Publish(context.Background(), events.Activity{}))
	assert.Equal(t, uint64(1), p.Stats().Published)
}
