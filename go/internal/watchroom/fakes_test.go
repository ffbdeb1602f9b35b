package watchroom

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcdev12/watchparty/go/internal/events"
	"github.com/mcdev12/watchparty/go/internal/models"
)

type fakeChannel struct {
	hs Handshake

	mu      sync.Mutex
	sink    Sink
	emitted []events.Envelope
	closed  bool
}

func (c *fakeChannel) Start(sink Sink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = sink
}

func (c *fakeChannel) Emit(name events.Name, payload interface{}) error {
	env, err := events.NewEnvelope(name, payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errChannelClosed
	}
	c.emitted = append(c.emitted, env)
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// deliver pushes an inbound event through the sink, even after Close, the
// way a late network read would.
func (c *fakeChannel) deliver(t *testing.T, name events.Name, payload interface{}) {
	t.Helper()
	env, err := events.NewEnvelope(name, payload)
	require.NoError(t, err)

	c.mu.Lock()
	sink := c.sink
	c.mu.Unlock()
	require.NotNil(t, sink, "channel not started")
	sink(env)
}

func (c *fakeChannel) sent(name events.Name) []events.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []events.Envelope
	for _, env := range c.emitted {
		if env.Event == name {
			out = append(out, env)
		}
	}
	return out
}

type fakeDialer struct {
	mu       sync.Mutex
	err      error
	channels []*fakeChannel
}

func (d *fakeDialer) Dial(ctx context.Context, hs Handshake) (Channel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	ch := &fakeChannel{hs: hs}
	d.channels = append(d.channels, ch)
	return ch, nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.channels)
}

func (d *fakeDialer) last() *fakeChannel {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.channels) == 0 {
		return nil
	}
	return d.channels[len(d.channels)-1]
}

type fakeRoomsAPI struct {
	room    *models.Room
	result  *models.JoinResult
	err     error
	joinReq models.JoinRequest
	fetches int
}

func (f *fakeRoomsAPI) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	return f.room, nil
}

func (f *fakeRoomsAPI) JoinRoom(ctx context.Context, roomID string, req models.JoinRequest) (*models.JoinResult, error) {
	f.joinReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func decode[T any](t *testing.T, env events.Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, env.Decode(&v))
	return v
}

var (
	alice = models.User{ID: "alice", Name: "Alice"}
	bob   = models.User{ID: "bob", Name: "Bob"}

	testRoom = models.Room{
		ID:    "room-1",
		Name:  "Friday night",
		Movie: models.Movie{ID: "m1", Title: "Big Buck Bunny", YoutubeID: "aqz-KE-bpKQ", DurationSec: 600},
		Host:  &models.Participant{ID: alice.ID, Name: alice.Name, IsHost: true},
		Users: []models.Participant{{ID: alice.ID, Name: alice.Name, IsHost: true}},
	}
)

func wireUser(u models.User) events.User {
	return events.User{ID: u.ID, Name: u.Name}
}
