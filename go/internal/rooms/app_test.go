package rooms

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcdev12/watchparty/go/internal/models"
	"github.com/mcdev12/watchparty/go/internal/movies"
)

type fakePresence map[string]models.RoomPresence

func (f fakePresence) Presence(roomID string) (models.RoomPresence, bool) {
	p, ok := f[roomID]
	return p, ok
}

var createdAt = time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T) *App {
	t.Helper()

	catalog := movies.NewApp(movies.NewMemoryRepository())
	require.NoError(t, catalog.Seed(context.Background(), []models.Movie{
		{ID: "bbb", Title: "Big Buck Bunny", YoutubeID: "aqz-KE-bpKQ", DurationSec: 596},
	}))

	app := NewApp(NewMemoryRepository(), catalog, clockwork.NewFakeClockAt(createdAt))
	app.passwordCost = bcrypt.MinCost
	return app
}

func TestCreateRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("creator becomes host", func(t *testing.T) {
		app := newTestApp(t)
		creator := &models.User{ID: "alice", Name: "Alice"}

		res, err := app.CreateRoom(ctx, models.CreateRoomRequest{MovieID: "bbb", Name: "Friday"}, creator)
		require.NoError(t, err)

		assert.Equal(t, "alice", res.User.ID)
		assert.Equal(t, models.RoleHost, res.User.Role)
		require.NotNil(t, res.Room.Host)
		assert.Equal(t, models.Participant{ID: "alice", Name: "Alice", IsHost: true}, *res.Room.Host)
		assert.Equal(t, "aqz-KE-bpKQ", res.Room.Movie.YoutubeID)
		assert.False(t, res.Room.PasswordProtected)
		assert.Equal(t, createdAt, res.Room.CreatedAt)
		assert.Empty(t, res.Room.Users)
	})

	t.Run("anonymous creator gets default host name", func(t *testing.T) {
		app := newTestApp(t)

		res, err := app.CreateRoom(ctx, models.CreateRoomRequest{MovieID: "bbb", Name: "Friday"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "Host", res.User.Name)
		assert.NotEmpty(t, res.User.ID)
	})

	t.Run("validation", func(t *testing.T) {
		app := newTestApp(t)
		tests := []models.CreateRoomRequest{
			{MovieID: "bbb", Name: "  "},
			{Name: "Friday"},
			{MovieID: "missing", Name: "Friday"},
		}
		for _, req := range tests {
			_, err := app.CreateRoom(ctx, req, nil)
			assert.ErrorIs(t, err, ErrInvalidRequest, "request %+v", req)
		}
	})
}

func TestJoinRoom(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)

	open, err := app.CreateRoom(ctx, models.CreateRoomRequest{MovieID: "bbb", Name: "Open"}, nil)
	require.NoError(t, err)
	locked, err := app.CreateRoom(ctx, models.CreateRoomRequest{MovieID: "bbb", Name: "Locked", Password: "hunter2"}, nil)
	require.NoError(t, err)
	require.True(t, locked.Room.PasswordProtected)

	tests := []struct {
		name    string
		roomID  string
		req     models.JoinRequest
		wantErr error
	}{
		{name: "open room", roomID: open.Room.ID, req: models.JoinRequest{Username: "bob"}},
		{name: "right password", roomID: locked.Room.ID, req: models.JoinRequest{Username: "bob", Password: "hunter2"}},
		{name: "wrong password", roomID: locked.Room.ID, req: models.JoinRequest{Username: "bob", Password: "nope"}, wantErr: ErrWrongPassword},
		{name: "missing password", roomID: locked.Room.ID, req: models.JoinRequest{Username: "bob"}, wantErr: ErrWrongPassword},
		{name: "missing room", roomID: "nope", req: models.JoinRequest{Username: "bob"}, wantErr: ErrRoomNotFound},
		{name: "blank username", roomID: open.Room.ID, req: models.JoinRequest{Username: " "}, wantErr: ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := app.JoinRoom(ctx, tt.roomID, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "bob", res.User.Name)
			assert.Equal(t, models.RoleGuest, res.User.Role)
			assert.NotEmpty(t, res.User.ID)
			assert.Equal(t, tt.roomID, res.Room.ID)
		})
	}
}

func TestPresenceMerge(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)

	res, err := app.CreateRoom(ctx, models.CreateRoomRequest{MovieID: "bbb", Name: "Friday"}, &models.User{ID: "alice", Name: "Alice"})
	require.NoError(t, err)

	app.SetPresenceProvider(fakePresence{
		res.Room.ID: {
			Connections: 3,
			Participants: []models.Participant{
				{ID: "alice", Name: "Alice"},
				{ID: "bob", Name: "Bob"},
			},
			IsPlaying:       true,
			PositionSeconds: 42.5,
		},
	})

	room, err := app.GetRoom(ctx, res.Room.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.Participant{
		{ID: "alice", Name: "Alice", IsHost: true},
		{ID: "bob", Name: "Bob"},
	}, room.Users)

	list, err := app.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].ParticipantCount)
	assert.True(t, list[0].IsPlaying)
	assert.Equal(t, 42.5, list[0].PositionSeconds)
	assert.Equal(t, "Big Buck Bunny", list[0].MovieTitle)
	assert.Equal(t, "Alice", list[0].HostName)
}

func TestRoomExists(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)

	res, err := app.CreateRoom(ctx, models.CreateRoomRequest{MovieID: "bbb", Name: "Friday"}, nil)
	require.NoError(t, err)

	ok, err := app.RoomExists(ctx, res.Room.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = app.RoomExists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}
