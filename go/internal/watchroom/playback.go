package watchroom

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/watchparty/go/internal/events"
)

// Play starts the surface. The resulting state change is broadcast.
func (s *Synchronizer) Play() error {
	return s.command(func(surface PlaybackSurface) error { return surface.Play() })
}

// Pause pauses the surface. The resulting state change is broadcast.
func (s *Synchronizer) Pause() error {
	return s.command(func(surface PlaybackSurface) error { return surface.Pause() })
}

// TogglePlayback pauses when playing and plays otherwise
func (s *Synchronizer) TogglePlayback() error {
	return s.command(func(surface PlaybackSurface) error {
		if s.playback.IsPlaying {
			return surface.Pause()
		}
		return surface.Play()
	})
}

// Seek moves the local surface to seconds and broadcasts the seek
func (s *Synchronizer) Seek(seconds float64) error {
	return s.command(func(surface PlaybackSurface) error {
		if err := surface.SeekTo(seconds); err != nil {
			return err
		}
		s.playback.PositionSeconds = seconds
		return s.broadcastAction(events.ActionSeek, &events.ActionData{Time: seconds})
	})
}

// Sync broadcasts the host's current position so every peer seeks to it
func (s *Synchronizer) Sync() error {
	return s.command(func(surface PlaybackSurface) error {
		if !s.isHost() {
			return ErrNotHost
		}
		t, err := surface.CurrentTime()
		if err != nil {
			return err
		}
		s.playback.PositionSeconds = t
		return s.broadcastAction(events.ActionSync, &events.ActionData{Time: t})
	})
}

// command runs fn on the loop against a ready surface
func (s *Synchronizer) command(fn func(surface PlaybackSurface) error) error {
	var err error
	if doErr := s.loop.Do(func() {
		if s.surface == nil {
			err = ErrNoSurface
			return
		}
		if !s.surfaceReady {
			err = ErrNotReady
			return
		}
		err = fn(s.surface)
		s.notify()
	}); doErr != nil {
		return doErr
	}
	return err
}

func (s *Synchronizer) broadcastAction(action events.Action, data *events.ActionData) error {
	if s.identity == nil {
		return ErrNoIdentity
	}
	return s.emit(events.MovieAction, events.MovieActionPayload{
		RoomID:    s.room.ID,
		Action:    action,
		Data:      data,
		User:      s.wireUser(),
		Timestamp: s.clock.Now().UnixMilli(),
	})
}

func (s *Synchronizer) handleMovieAction(p events.MovieActionPayload) {
	s.recordActivity(events.MovieAction, actionSummary(p))

	if s.identity != nil && p.User.ID == s.identity.ID {
		log.Debug().Str("action", string(p.Action)).Msg("ignoring own movie action")
		return
	}
	if p.Seq != 0 {
		if _, ok := s.seenActions[p.Seq]; ok {
			log.Debug().Uint64("seq", p.Seq).Msg("ignoring duplicate movie action")
			return
		}
		s.seenActions[p.Seq] = struct{}{}
	}

	if s.observer {
		s.projectAction(p)
		s.playback.LastRemoteActionAt = s.clock.Now()
		return
	}

	if s.surface == nil || !s.surfaceReady {
		log.Warn().
			Str("action", string(p.Action)).
			Str("from", p.User.ID).
			Msg("playback surface not ready, dropping movie action")
		return
	}

	now := s.clock.Now()
	s.suppressEchoUntil = now.Add(s.cfg.GuardWindow)

	var err error
	switch p.Action {
	case events.ActionPlay:
		err = s.surface.Play()
	case events.ActionPause:
		err = s.surface.Pause()
	case events.ActionSeek, events.ActionSync:
		err = s.surface.SeekTo(p.TargetTime())
	}
	if err != nil {
		log.Warn().
			Err(err).
			Str("action", string(p.Action)).
			Str("from", p.User.ID).
			Msg("failed to apply movie action")
		return
	}

	s.projectAction(p)
	s.playback.LastRemoteActionAt = now

	log.Debug().
		Str("action", string(p.Action)).
		Str("from", p.User.ID).
		Float64("position", p.TargetTime()).
		Msg("applied movie action")
}

// projectAction folds an applied action into the local playback state
func (s *Synchronizer) projectAction(p events.MovieActionPayload) {
	switch p.Action {
	case events.ActionPlay:
		s.playback.IsPlaying = true
		s.startPoll()
	case events.ActionPause:
		s.playback.IsPlaying = false
		s.stopPoll()
	case events.ActionSeek, events.ActionSync:
		s.playback.PositionSeconds = p.TargetTime()
	}
}

func (s *Synchronizer) handleSurfaceState(state PlayerState) {
	if s.clock.Now().Before(s.suppressEchoUntil) {
		log.Debug().Str("state", state.String()).Msg("suppressing surface echo of remote action")
		return
	}

	switch state {
	case PlayerPlaying:
		s.playback.IsPlaying = true
		s.startPoll()
		s.announce(events.ActionPlay)
	case PlayerPaused:
		s.playback.IsPlaying = false
		s.stopPoll()
		s.announce(events.ActionPause)
	case PlayerEnded:
		s.playback.IsPlaying = false
		s.stopPoll()
	default:
		return
	}
	s.notify()
}

func (s *Synchronizer) announce(action events.Action) {
	if err := s.broadcastAction(action, nil); err != nil {
		log.Debug().Err(err).Str("action", string(action)).Msg("not broadcasting local playback change")
	}
}

func (s *Synchronizer) markSurfaceReady() {
	s.surfaceReady = true
	if d, err := s.surface.Duration(); err == nil {
		s.playback.DurationSeconds = d
	}
	s.notify()
}

func (s *Synchronizer) startPoll() {
	if s.pollStop != nil || s.surface == nil {
		return
	}
	stop := make(chan struct{})
	s.pollStop = stop
	ticker := s.clock.NewTicker(s.cfg.PollInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				s.loop.Post(func() {
					if s.pollStop == stop {
						s.samplePosition()
					}
				})
			case <-stop:
				return
			}
		}
	}()
}

func (s *Synchronizer) stopPoll() {
	if s.pollStop != nil {
		close(s.pollStop)
		s.pollStop = nil
	}
}

func (s *Synchronizer) samplePosition() {
	t, err := s.surface.CurrentTime()
	if err != nil {
		log.Debug().Err(err).Msg("position sample failed")
		return
	}
	s.playback.PositionSeconds = t
	s.notify()
}

func actionSummary(p events.MovieActionPayload) string {
	who := p.User.Name
	if who == "" {
		who = p.User.ID
	}
	switch p.Action {
	case events.ActionSeek, events.ActionSync:
		return fmt.Sprintf("%s: %s %s", who, p.Action, strconv.FormatFloat(p.TargetTime(), 'f', -1, 64))
	default:
		return fmt.Sprintf("%s: %s", who, p.Action)
	}
}
