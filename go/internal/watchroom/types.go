package watchroom

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/watchparty/go/internal/events"
	"github.com/mcdev12/watchparty/go/internal/models"
)

// ConnState is the lifecycle state of the room connection
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateJoined
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateJoined:
		return "joined"
	default:
		return "disconnected"
	}
}

// Config tunes a Synchronizer
type Config struct {
	// GuardWindow is how long surface callbacks are ignored after a remote
	// action was applied.
	GuardWindow time.Duration
	// PollInterval is the position sampling period while playing
	PollInterval time.Duration
	// DedupWindow bounds the send-time distance of duplicate chat messages
	DedupWindow time.Duration
	// ReconnectWait enables automatic reconnects after a remote disconnect
	ReconnectWait time.Duration
	DialTimeout   time.Duration
	// ActivityLimit caps the activity log kept on the snapshot
	ActivityLimit int

	Clock clockwork.Clock

	// OnChange runs on the synchronizer loop after every handled event. It
	// must not call back into the synchronizer.
	OnChange func(Snapshot)
}

// DefaultConfig returns the standard timings with a real clock
func DefaultConfig() Config {
	return Config{
		GuardWindow:   500 * time.Millisecond,
		PollInterval:  time.Second,
		DedupWindow:   time.Second,
		DialTimeout:   10 * time.Second,
		ActivityLimit: 20,
		Clock:         clockwork.NewRealClock(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.GuardWindow <= 0 {
		c.GuardWindow = d.GuardWindow
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.DedupWindow <= 0 {
		c.DedupWindow = d.DedupWindow
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = d.DialTimeout
	}
	if c.ActivityLimit <= 0 {
		c.ActivityLimit = d.ActivityLimit
	}
	if c.Clock == nil {
		c.Clock = d.Clock
	}
	return c
}

// ActivityEntry is one line of the recent-events log
type ActivityEntry struct {
	Event   events.Name `json:"event"`
	Summary string      `json:"summary"`
	At      time.Time   `json:"at"`
}

// Snapshot is a copy of a room session at one point in time
type Snapshot struct {
	RoomID            string
	RoomName          string
	Movie             models.Movie
	PasswordProtected bool
	Host              *models.Participant
	Identity          *models.User
	IsHost            bool

	State      ConnState
	LastError  error
	Generation uint64

	Participants []models.Participant
	Chat         []models.ChatMessage
	Playback     models.PlaybackState
	SurfaceReady bool
	Activity     []ActivityEntry
}
