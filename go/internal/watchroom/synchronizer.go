package watchroom

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/watchparty/go/internal/events"
	"github.com/mcdev12/watchparty/go/internal/models"
)

// Synchronizer keeps one client's view of a watch room consistent with its
// peers. All session state is owned by a single event loop; exported methods
// hand their work to that loop and wait for it.
type Synchronizer struct {
	cfg      Config
	clock    clockwork.Clock
	dialer   Dialer
	surface  PlaybackSurface
	observer bool

	loop        *eventLoop
	closed      chan struct{}
	closeOnce   sync.Once
	unsubscribe func()

	// fields below are only touched on the loop
	room         *models.Room
	identity     *models.User
	roster       *roster
	chat         *chatLog
	playback     models.PlaybackState
	surfaceReady bool
	activity     []ActivityEntry

	state             ConnState
	lastError         error
	channel           Channel
	generation        uint64
	wantConnected     bool
	suppressEchoUntil time.Time
	seenActions       map[uint64]struct{}
	pollStop          chan struct{}
	reconnectTimer    clockwork.Timer
}

// NewSynchronizer creates a participant synchronizer driving surface
func NewSynchronizer(dialer Dialer, surface PlaybackSurface, cfg Config) *Synchronizer {
	s := newSynchronizer(dialer, cfg)
	s.surface = surface
	if surface != nil {
		s.attachSurface()
	}
	return s
}

// NewObserver creates a synchronizer that watches a room as an admin without
// entering its roster or driving a player.
func NewObserver(dialer Dialer, cfg Config) *Synchronizer {
	s := newSynchronizer(dialer, cfg)
	s.observer = true
	return s
}

func newSynchronizer(dialer Dialer, cfg Config) *Synchronizer {
	cfg = cfg.withDefaults()
	return &Synchronizer{
		cfg:         cfg,
		clock:       cfg.Clock,
		dialer:      dialer,
		loop:        newEventLoop(),
		closed:      make(chan struct{}),
		roster:      newRoster(nil, nil),
		chat:        newChatLog(cfg.DedupWindow),
		seenActions: make(map[uint64]struct{}),
	}
}

func (s *Synchronizer) attachSurface() {
	s.unsubscribe = s.surface.Subscribe(SurfaceObserver{
		OnStateChange: func(state PlayerState) {
			s.loop.Post(func() { s.handleSurfaceState(state) })
		},
		OnError: func(err error) {
			log.Warn().Err(err).Msg("playback surface error")
		},
	})

	select {
	case <-s.surface.Ready():
		s.loop.Post(s.markSurfaceReady)
	default:
		go func() {
			select {
			case <-s.surface.Ready():
				s.loop.Post(s.markSurfaceReady)
			case <-s.closed:
			}
		}()
	}
}

// Resolve installs an admitted room and identity. Entering a different room
// starts a fresh chat log and playback state.
func (s *Synchronizer) Resolve(room models.Room, identity *models.User) error {
	return s.loop.Do(func() {
		if s.room == nil || s.room.ID != room.ID {
			s.chat = newChatLog(s.cfg.DedupWindow)
			s.playback = models.PlaybackState{DurationSeconds: s.playback.DurationSeconds}
			s.activity = nil
		}
		r := room
		s.room = &r
		if identity != nil {
			id := *identity
			s.identity = &id
		} else {
			s.identity = nil
		}
		s.roster = newRoster(room.Host, room.Users)
		s.notify()
	})
}

// Join admits the caller to roomID through api and enters it. A failed
// admission leaves the synchronizer disconnected.
func (s *Synchronizer) Join(ctx context.Context, api RoomsAPI, roomID string, user *models.User, form JoinForm) error {
	admission, err := Admit(ctx, api, roomID, user, form)
	if err != nil {
		s.loop.Do(func() {
			s.lastError = err
			s.notify()
		})
		return err
	}

	log.Info().
		Str("room_id", roomID).
		Str("user_id", admission.Identity.ID).
		Bool("is_host", admission.IsHost()).
		Msg("admitted to room")

	if err := s.Resolve(admission.Room, &admission.Identity); err != nil {
		return err
	}
	return s.Enter(ctx)
}

// SendChat emits a chat message. The message is added to the local log only
// when the hub reflects it back.
func (s *Synchronizer) SendChat(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	var err error
	if doErr := s.loop.Do(func() {
		if s.identity == nil {
			err = ErrNoIdentity
			return
		}
		err = s.emit(events.ChatMessage, events.ChatMessagePayload{
			RoomID:    s.room.ID,
			User:      s.wireUser(),
			Message:   text,
			Timestamp: s.clock.Now(),
		})
	}); doErr != nil {
		return doErr
	}
	return err
}

// Snapshot returns a copy of the current session
func (s *Synchronizer) Snapshot() Snapshot {
	var snap Snapshot
	s.loop.Do(func() { snap = s.snapshot() })
	return snap
}

// Close leaves the room and stops the synchronizer. It is safe to call twice.
func (s *Synchronizer) Close() error {
	err := s.loop.Do(func() {
		s.wantConnected = false
		s.teardown()
	})
	if errors.Is(err, ErrClosed) {
		return nil
	}

	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		close(s.closed)
		s.loop.Close()
	})
	<-s.loop.Done()
	return nil
}

func (s *Synchronizer) snapshot() Snapshot {
	snap := Snapshot{
		State:        s.state,
		LastError:    s.lastError,
		Generation:   s.generation,
		Participants: s.roster.list(),
		Chat:         s.chat.list(),
		Playback:     s.playback,
		SurfaceReady: s.surfaceReady,
		Activity:     append([]ActivityEntry(nil), s.activity...),
	}
	if s.room != nil {
		snap.RoomID = s.room.ID
		snap.RoomName = s.room.Name
		snap.Movie = s.room.Movie
		snap.PasswordProtected = s.room.PasswordProtected
		if s.room.Host != nil {
			host := *s.room.Host
			snap.Host = &host
		}
	}
	if s.identity != nil {
		id := *s.identity
		snap.Identity = &id
	}
	snap.IsHost = s.isHost()
	return snap
}

func (s *Synchronizer) isHost() bool {
	return s.room != nil && s.room.Host != nil && s.identity != nil && s.identity.ID == s.room.Host.ID
}

func (s *Synchronizer) wireUser() events.User {
	if s.identity == nil {
		return events.User{}
	}
	return events.User{ID: s.identity.ID, Name: s.identity.Name, Role: s.identity.Role}
}

// emit sends on the live channel
func (s *Synchronizer) emit(name events.Name, payload interface{}) error {
	if s.channel == nil || s.state != StateJoined {
		return ErrNotConnected
	}
	if err := s.channel.Emit(name, payload); err != nil {
		s.lastError = err
		return fmt.Errorf("emit %s: %w", name, err)
	}
	return nil
}

func (s *Synchronizer) recordActivity(name events.Name, summary string) {
	s.activity = append(s.activity, ActivityEntry{Event: name, Summary: summary, At: s.clock.Now()})
	if over := len(s.activity) - s.cfg.ActivityLimit; over > 0 {
		s.activity = append([]ActivityEntry(nil), s.activity[over:]...)
	}
}

func (s *Synchronizer) notify() {
	if s.cfg.OnChange != nil {
		s.cfg.OnChange(s.snapshot())
	}
}
