package watchroom

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/watchparty/go/internal/hub"
	"github.com/mcdev12/watchparty/go/internal/models"
)

func startHub(t *testing.T) string {
	t.Helper()

	svc := hub.NewService(hub.DefaultConfig(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go svc.Start(ctx)

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv.URL
}

func enterOverHub(t *testing.T, dialer Dialer, user models.User) (*Synchronizer, *SimulatedSurface) {
	t.Helper()

	clock := clockwork.NewRealClock()
	surface := NewSimulatedSurface(clock, 600)
	require.NoError(t, surface.Load(testRoom.Movie.YoutubeID))

	s := NewSynchronizer(dialer, surface, Config{Clock: clock})
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Resolve(testRoom, &user))
	require.NoError(t, s.Enter(context.Background()))
	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return snap.State == StateJoined && hasParticipant(snap, user.ID)
	}, 3*time.Second, 10*time.Millisecond)
	return s, surface
}

func hasParticipant(snap Snapshot, id string) bool {
	for _, p := range snap.Participants {
		if p.ID == id {
			return true
		}
	}
	return false
}

func userMessages(snap Snapshot) []models.ChatMessage {
	var out []models.ChatMessage
	for _, m := range snap.Chat {
		if m.Kind == models.ChatKindUser {
			out = append(out, m)
		}
	}
	return out
}

func TestTwoClientsThroughHub(t *testing.T) {
	dialer, err := NewWebSocketDialer(startHub(t), DefaultWebSocketConfig())
	require.NoError(t, err)

	a, _ := enterOverHub(t, dialer, alice)
	b, surfaceB := enterOverHub(t, dialer, bob)
	require.Eventually(t, func() bool { return hasParticipant(a.Snapshot(), bob.ID) }, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Seek(42.5))
	require.Eventually(t, func() bool {
		pos, err := surfaceB.CurrentTime()
		return err == nil && pos == 42.5
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, 42.5, b.Snapshot().Playback.PositionSeconds)

	require.NoError(t, b.SendChat("hello"))
	for _, s := range []*Synchronizer{a, b} {
		s := s
		require.Eventually(t, func() bool { return len(userMessages(s.Snapshot())) == 1 }, 3*time.Second, 10*time.Millisecond)
		msg := userMessages(s.Snapshot())[0]
		assert.Equal(t, "hello", msg.Text)
		assert.Equal(t, bob.ID, msg.AuthorID)
		assert.NotZero(t, msg.Seq)
	}

	require.NoError(t, b.Leave())
	require.Eventually(t, func() bool {
		snap := a.Snapshot()
		return !hasParticipant(snap, bob.ID) && contains(systemTexts(snap), "Bob left the room")
	}, 3*time.Second, 10*time.Millisecond)
}

func TestWebSocketDialerRejectsBadScheme(t *testing.T) {
	_, err := NewWebSocketDialer("ftp://example.com", DefaultWebSocketConfig())
	assert.Error(t, err)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
