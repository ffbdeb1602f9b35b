package watchroom

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/watchparty/go/internal/events"
)

// Enter opens a connection to the resolved room. Any previous connection is
// torn down before the new one is dialed, so at most one is ever live.
func (s *Synchronizer) Enter(ctx context.Context) error {
	var (
		hs  Handshake
		gen uint64
		err error
	)
	if doErr := s.loop.Do(func() {
		if s.room == nil {
			err = ErrRoomNotResolved
			return
		}
		if s.identity == nil && !s.observer {
			err = ErrNoIdentity
			return
		}

		s.teardown()
		gen = s.generation
		s.wantConnected = true
		s.state = StateConnecting
		s.lastError = nil
		s.chat.resetSeq()
		s.seenActions = make(map[uint64]struct{})
		hs = s.handshake()
		s.notify()
	}); doErr != nil {
		return doErr
	}
	if err != nil {
		return err
	}

	log.Info().
		Str("room_id", hs.RoomID).
		Str("user_id", hs.UserID).
		Uint64("generation", gen).
		Msg("dialing room")

	ch, err := s.dialer.Dial(ctx, hs)
	if err != nil {
		s.loop.Do(func() {
			if gen != s.generation {
				return
			}
			s.state = StateDisconnected
			s.lastError = err
			s.notify()
		})
		return fmt.Errorf("enter room %s: %w", hs.RoomID, err)
	}

	attached := false
	if doErr := s.loop.Do(func() {
		if gen != s.generation {
			return
		}
		s.channel = ch
		attached = true
		ch.Start(s.sinkFor(gen))
	}); doErr != nil || !attached {
		ch.Close()
		if doErr != nil {
			return doErr
		}
		return ErrSuperseded
	}
	return nil
}

// Reconnect replaces the current connection with a fresh one for the same
// room and identity.
func (s *Synchronizer) Reconnect(ctx context.Context) error {
	return s.Enter(ctx)
}

// Leave closes the connection. Events still in flight from it are ignored.
func (s *Synchronizer) Leave() error {
	return s.loop.Do(func() {
		s.wantConnected = false
		s.teardown()
		s.notify()
	})
}

// teardown closes the live channel and invalidates its handlers
func (s *Synchronizer) teardown() {
	s.stopPoll()
	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
		s.reconnectTimer = nil
	}
	if s.channel != nil {
		if err := s.channel.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close room channel")
		}
		s.channel = nil
	}
	s.generation++
	s.state = StateDisconnected
}

func (s *Synchronizer) handshake() Handshake {
	hs := Handshake{RoomID: s.room.ID, IsAdmin: s.observer}
	if s.identity != nil {
		hs.UserID = s.identity.ID
		hs.UserName = s.identity.Name
	}
	return hs
}

// sinkFor binds channel deliveries to one connection generation
func (s *Synchronizer) sinkFor(gen uint64) Sink {
	return func(env events.Envelope) {
		s.loop.Post(func() { s.handleEnvelope(gen, env) })
	}
}

func (s *Synchronizer) handleEnvelope(gen uint64, env events.Envelope) {
	if gen != s.generation {
		log.Debug().
			Str("event", string(env.Event)).
			Uint64("generation", gen).
			Msg("ignoring event from stale connection")
		return
	}

	payload, err := events.ParsePayload(env)
	if err != nil {
		log.Warn().Err(err).Str("event", string(env.Event)).Msg("dropping malformed room event")
		return
	}

	switch p := payload.(type) {
	case nil:
		s.handleConnect()
	case events.DisconnectPayload:
		s.handleDisconnect(p.Reason)
	case events.ConnectErrorPayload:
		s.lastError = fmt.Errorf("connect error: %s", p.Error)
		s.recordActivity(env.Event, p.Error)
	case events.UserJoinedPayload:
		s.handleUserJoined(p)
	case events.UserLeftPayload:
		s.handleUserLeft(p)
	case events.ChatMessagePayload:
		s.handleChatMessage(p)
	case events.MovieActionPayload:
		s.handleMovieAction(p)
	default:
		log.Debug().Str("event", string(env.Event)).Msg("ignoring unexpected room event")
		return
	}
	s.notify()
}

func (s *Synchronizer) handleConnect() {
	s.state = StateJoined
	s.lastError = nil

	join := events.JoinRoomPayload{RoomID: s.room.ID}
	if s.observer {
		join.IsAdmin = true
	} else {
		join.UserID = s.identity.ID
		join.Username = s.identity.Name
	}
	if err := s.emit(events.JoinRoom, join); err != nil {
		log.Error().Err(err).Str("room_id", s.room.ID).Msg("failed to announce room join")
		return
	}

	// teardown stopped the poll; a rejoin mid-playback has to resume it
	if s.playback.IsPlaying && s.surface != nil && s.surfaceReady {
		s.startPoll()
	}

	s.recordActivity(events.Connect, "connected")
	log.Info().Str("room_id", s.room.ID).Bool("observer", s.observer).Msg("joined room")
}

func (s *Synchronizer) handleDisconnect(reason string) {
	if s.channel != nil {
		s.channel.Close()
		s.channel = nil
	}
	s.lastError = fmt.Errorf("%w: %s", errDisconnected, reason)
	s.state = StateDisconnected
	s.recordActivity(events.Disconnect, reason)

	log.Warn().Str("room_id", s.room.ID).Str("reason", reason).Msg("room channel disconnected")

	s.scheduleReconnect()
}

var errDisconnected = errors.New("disconnected")

func (s *Synchronizer) scheduleReconnect() {
	if s.cfg.ReconnectWait <= 0 || !s.wantConnected || s.channel != nil {
		return
	}
	s.state = StateConnecting
	gen := s.generation
	s.reconnectTimer = s.clock.AfterFunc(s.cfg.ReconnectWait, func() {
		s.autoReconnect(gen)
	})
}

// autoReconnect runs on a timer goroutine
func (s *Synchronizer) autoReconnect(gen uint64) {
	current := false
	if err := s.loop.Do(func() {
		current = gen == s.generation && s.channel == nil && s.wantConnected
	}); err != nil || !current {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.DialTimeout)
	defer cancel()

	if err := s.Enter(ctx); err != nil {
		log.Warn().Err(err).Msg("reconnect attempt failed")
		s.loop.Post(func() {
			s.scheduleReconnect()
			s.notify()
		})
	}
}
