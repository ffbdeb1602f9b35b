package hub

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/watchparty/go/internal/events"
)

const roomID = "room-1"

var (
	alice = events.User{ID: "alice", Name: "Alice"}
	bob   = events.User{ID: "bob", Name: "Bob"}
)

func newTestManager(clock clockwork.Clock) *ConnectionManager {
	cfg := DefaultConnectionConfig()
	cfg.Clock = clock
	return NewConnectionManager(cfg, nil)
}

func addConnection(cm *ConnectionManager, id string, user events.User, admin bool) *Connection {
	c := &Connection{
		ID:      id,
		RoomID:  roomID,
		User:    user,
		IsAdmin: admin,
		Send:    make(chan []byte, 64),
		Manager: cm,
	}
	cm.registerConnection(c)
	return c
}

// drainBroadcasts returns the envelopes queued for broadcast so far
func drainBroadcasts(cm *ConnectionManager) []events.Envelope {
	var out []events.Envelope
	for {
		select {
		case msg := <-cm.broadcastCh:
			out = append(out, msg.Envelope)
		default:
			return out
		}
	}
}

func drainActivity(cm *ConnectionManager) []events.Activity {
	var out []events.Activity
	for {
		select {
		case a := <-cm.activityCh:
			out = append(out, a)
		default:
			return out
		}
	}
}

func decode[T any](t *testing.T, env events.Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, env.Decode(&v))
	return v
}

func TestJoinBroadcastsUserJoined(t *testing.T) {
	cm := newTestManager(clockwork.NewFakeClock())
	a := addConnection(cm, "a1", alice, false)

	cm.join(a, events.JoinRoomPayload{RoomID: roomID, Username: alice.Name, UserID: alice.ID})
	cm.join(a, events.JoinRoomPayload{RoomID: roomID, Username: alice.Name, UserID: alice.ID})

	out := drainBroadcasts(cm)
	require.Len(t, out, 1, "a repeated join on the same connection is ignored")
	assert.Equal(t, events.UserJoined, out[0].Event)
	assert.Equal(t, alice, decode[events.UserJoinedPayload](t, out[0]).User)

	presence, ok := cm.Presence(roomID)
	require.True(t, ok)
	require.Len(t, presence.Participants, 1)
	assert.Equal(t, alice.ID, presence.Participants[0].ID)
}

func TestJoinForAnotherRoomIsIgnored(t *testing.T) {
	cm := newTestManager(clockwork.NewFakeClock())
	a := addConnection(cm, "a1", alice, false)

	cm.join(a, events.JoinRoomPayload{RoomID: "elsewhere", UserID: alice.ID})

	assert.Empty(t, drainBroadcasts(cm))
	presence, _ := cm.Presence(roomID)
	assert.Empty(t, presence.Participants)
}

func TestRosterIsRefCountedPerUser(t *testing.T) {
	cm := newTestManager(clockwork.NewFakeClock())
	tab1 := addConnection(cm, "a1", alice, false)
	tab2 := addConnection(cm, "a2", alice, false)
	b := addConnection(cm, "b1", bob, false)
	for _, c := range []*Connection{tab1, tab2, b} {
		cm.join(c, events.JoinRoomPayload{RoomID: roomID})
	}
	drainBroadcasts(cm)

	presence, _ := cm.Presence(roomID)
	assert.Len(t, presence.Participants, 2)
	assert.Equal(t, 3, presence.Connections)

	cm.unregisterConnection(tab1)
	assert.Empty(t, drainBroadcasts(cm), "alice still has an open tab")

	cm.unregisterConnection(tab2)
	cm.unregisterConnection(tab2)
	out := drainBroadcasts(cm)
	require.Len(t, out, 1)
	assert.Equal(t, events.UserLeft, out[0].Event)
	assert.Equal(t, events.UserLeftPayload{UserID: alice.ID, UserName: alice.Name, Message: "Alice left the room"},
		decode[events.UserLeftPayload](t, out[0]))

	presence, _ = cm.Presence(roomID)
	require.Len(t, presence.Participants, 1)
	assert.Equal(t, bob.ID, presence.Participants[0].ID)

	cm.unregisterConnection(b)
	_, ok := cm.Presence(roomID)
	assert.False(t, ok, "empty rooms are dropped")
}

func TestRelayStampsSenderAndSeq(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cm := newTestManager(clock)
	a := addConnection(cm, "a1", alice, false)
	b := addConnection(cm, "b1", bob, false)
	cm.join(a, events.JoinRoomPayload{RoomID: roomID})
	cm.join(b, events.JoinRoomPayload{RoomID: roomID})
	drainBroadcasts(cm)
	drainActivity(cm)

	cm.relayChat(b, events.ChatMessagePayload{User: events.User{ID: "mallory"}, Message: " hi ", Timestamp: clock.Now()})
	cm.relayChat(b, events.ChatMessagePayload{Message: "   "})
	cm.relayAction(a, events.MovieActionPayload{Action: events.ActionSeek, Data: &events.ActionData{Time: 42.5}, User: alice})

	out := drainBroadcasts(cm)
	require.Len(t, out, 2)

	chat := decode[events.ChatMessagePayload](t, out[0])
	assert.Equal(t, bob, chat.User)
	assert.Equal(t, "hi", chat.Message)
	assert.Equal(t, uint64(1), chat.Seq)
	assert.Equal(t, roomID, chat.RoomID)

	action := decode[events.MovieActionPayload](t, out[1])
	assert.Equal(t, alice, action.User)
	assert.Equal(t, uint64(2), action.Seq)
	assert.Equal(t, 42.5, action.TargetTime())
	assert.Equal(t, clock.Now().UnixMilli(), action.Timestamp)

	activity := drainActivity(cm)
	require.Len(t, activity, 2)
	assert.Equal(t, events.ChatMessage, activity[0].Event)
	assert.Equal(t, roomID, activity[1].RoomID)
	assert.Equal(t, "rooms.activity.room-1.movie-action", activity[1].Subject("rooms.activity"))
}

func TestObserversAndUnjoinedConnectionsCannotRelay(t *testing.T) {
	cm := newTestManager(clockwork.NewFakeClock())
	admin := addConnection(cm, "admin", events.User{Role: "admin"}, true)
	lurker := addConnection(cm, "b1", bob, false)

	cm.join(admin, events.JoinRoomPayload{RoomID: roomID, IsAdmin: true})
	cm.relayChat(admin, events.ChatMessagePayload{Message: "hello"})
	cm.relayAction(admin, events.MovieActionPayload{Action: events.ActionPlay})
	cm.relayChat(lurker, events.ChatMessagePayload{Message: "hello"})

	assert.Empty(t, drainBroadcasts(cm))

	presence, ok := cm.Presence(roomID)
	require.True(t, ok)
	assert.Empty(t, presence.Participants)
	assert.Equal(t, 2, presence.Connections)
	assert.False(t, presence.IsPlaying)

	cm.unregisterConnection(admin)
	assert.Empty(t, drainBroadcasts(cm), "observers never produce user-left")
}

func TestPlaybackProjection(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cm := newTestManager(clock)
	a := addConnection(cm, "a1", alice, false)
	cm.join(a, events.JoinRoomPayload{RoomID: roomID})

	cm.relayAction(a, events.MovieActionPayload{Action: events.ActionPlay})
	clock.Advance(5 * time.Second)

	presence, _ := cm.Presence(roomID)
	assert.True(t, presence.IsPlaying)
	assert.Equal(t, 5.0, presence.PositionSeconds)

	cm.relayAction(a, events.MovieActionPayload{Action: events.ActionPause})
	clock.Advance(5 * time.Second)
	presence, _ = cm.Presence(roomID)
	assert.False(t, presence.IsPlaying)
	assert.Equal(t, 5.0, presence.PositionSeconds)

	cm.relayAction(a, events.MovieActionPayload{Action: events.ActionSync, Data: &events.ActionData{Time: 90}})
	presence, _ = cm.Presence(roomID)
	assert.Equal(t, 90.0, presence.PositionSeconds)
}

func TestHandleBroadcastDeliversToRoom(t *testing.T) {
	cm := newTestManager(clockwork.NewFakeClock())
	a := addConnection(cm, "a1", alice, false)
	b := addConnection(cm, "b1", bob, false)
	cm.join(a, events.JoinRoomPayload{RoomID: roomID})

	for _, msg := range drainBroadcasts(cm) {
		cm.handleBroadcast(BroadcastMessage{RoomID: roomID, Envelope: msg})
	}

	for _, c := range []*Connection{a, b} {
		select {
		case data := <-c.Send:
			assert.Contains(t, string(data), `"event":"user-joined"`)
		default:
			t.Fatalf("connection %s received nothing", c.ID)
		}
	}
}
