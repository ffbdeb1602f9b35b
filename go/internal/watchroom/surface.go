package watchroom

// PlayerState mirrors the states an embedded video player reports
type PlayerState int

const (
	PlayerUnstarted PlayerState = iota
	PlayerPlaying
	PlayerPaused
	PlayerEnded
	PlayerBuffering
)

func (s PlayerState) String() string {
	switch s {
	case PlayerPlaying:
		return "playing"
	case PlayerPaused:
		return "paused"
	case PlayerEnded:
		return "ended"
	case PlayerBuffering:
		return "buffering"
	default:
		return "unstarted"
	}
}

// SurfaceObserver receives player callbacks. Callbacks may fire synchronously
// from inside a command such as Play.
type SurfaceObserver struct {
	OnStateChange func(state PlayerState)
	OnError       func(err error)
}

// PlaybackSurface is the video player the synchronizer drives. Commands return
// ErrNotReady before the player is ready and ErrDestroyed after teardown.
type PlaybackSurface interface {
	Load(videoID string) error
	Play() error
	Pause() error
	SeekTo(seconds float64) error
	CurrentTime() (float64, error)
	Duration() (float64, error)

	// Ready is closed once the player can accept commands
	Ready() <-chan struct{}

	Subscribe(obs SurfaceObserver) (unsubscribe func())
}
