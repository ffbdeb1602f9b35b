package watchroom

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// SimulatedSurface is a headless player whose position advances with a clock
type SimulatedSurface struct {
	mu    sync.Mutex
	clock clockwork.Clock

	videoID   string
	duration  float64
	state     PlayerState
	position  float64
	anchor    time.Time
	destroyed bool

	ready     chan struct{}
	readyOnce sync.Once

	observers map[int]SurfaceObserver
	nextID    int
}

// NewSimulatedSurface creates a surface for a video of the given length in seconds
func NewSimulatedSurface(clock clockwork.Clock, durationSeconds float64) *SimulatedSurface {
	return &SimulatedSurface{
		clock:     clock,
		duration:  durationSeconds,
		ready:     make(chan struct{}),
		observers: make(map[int]SurfaceObserver),
	}
}

// Load cues a video and marks the surface ready
func (s *SimulatedSurface) Load(videoID string) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrDestroyed
	}
	if s.videoID != videoID {
		s.videoID = videoID
		s.state = PlayerUnstarted
		s.position = 0
	}
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.ready) })
	return nil
}

func (s *SimulatedSurface) Play() error {
	s.mu.Lock()
	if err := s.checkLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.state == PlayerPlaying {
		s.mu.Unlock()
		return nil
	}
	s.anchor = s.clock.Now()
	s.state = PlayerPlaying
	s.mu.Unlock()

	s.notify(PlayerPlaying)
	return nil
}

func (s *SimulatedSurface) Pause() error {
	s.mu.Lock()
	if err := s.checkLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.state == PlayerPaused {
		s.mu.Unlock()
		return nil
	}
	s.position = s.positionLocked()
	s.state = PlayerPaused
	s.mu.Unlock()

	s.notify(PlayerPaused)
	return nil
}

func (s *SimulatedSurface) SeekTo(seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return err
	}
	if seconds < 0 {
		seconds = 0
	}
	if s.duration > 0 && seconds > s.duration {
		seconds = s.duration
	}
	s.position = seconds
	s.anchor = s.clock.Now()
	return nil
}

func (s *SimulatedSurface) CurrentTime() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return 0, err
	}
	return s.positionLocked(), nil
}

func (s *SimulatedSurface) Duration() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLocked(); err != nil {
		return 0, err
	}
	return s.duration, nil
}

func (s *SimulatedSurface) Ready() <-chan struct{} {
	return s.ready
}

// State returns the current player state
func (s *SimulatedSurface) State() PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *SimulatedSurface) Subscribe(obs SurfaceObserver) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = obs
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Destroy releases the player; every later command fails with ErrDestroyed
func (s *SimulatedSurface) Destroy() {
	s.mu.Lock()
	s.destroyed = true
	s.observers = make(map[int]SurfaceObserver)
	s.mu.Unlock()
}

func (s *SimulatedSurface) checkLocked() error {
	if s.destroyed {
		return ErrDestroyed
	}
	select {
	case <-s.ready:
		return nil
	default:
		return ErrNotReady
	}
}

func (s *SimulatedSurface) positionLocked() float64 {
	if s.state != PlayerPlaying {
		return s.position
	}
	pos := s.position + s.clock.Since(s.anchor).Seconds()
	if s.duration > 0 && pos > s.duration {
		pos = s.duration
	}
	return pos
}

func (s *SimulatedSurface) notify(state PlayerState) {
	s.mu.Lock()
	observers := make([]SurfaceObserver, 0, len(s.observers))
	for _, obs := range s.observers {
		observers = append(observers, obs)
	}
	s.mu.Unlock()

	for _, obs := range observers {
		if obs.OnStateChange != nil {
			obs.OnStateChange(state)
		}
	}
}
