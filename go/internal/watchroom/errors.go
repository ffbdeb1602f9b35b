package watchroom

import (
	"errors"
	"fmt"
)

var (
	ErrClosed          = errors.New("synchronizer closed")
	ErrRoomNotResolved = errors.New("room not resolved")
	ErrNoIdentity      = errors.New("no session identity")
	ErrNotConnected    = errors.New("not connected to room")
	ErrNotHost         = errors.New("only the host can sync the room")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrNoSurface       = errors.New("no playback surface attached")
	ErrSuperseded      = errors.New("connection superseded by a newer attempt")

	ErrNotReady  = errors.New("playback surface not ready")
	ErrDestroyed = errors.New("playback surface destroyed")
)

// AdmissionError is returned when a room cannot be entered. Err carries the
// cause reported by the rooms API.
type AdmissionError struct {
	RoomID string
	Reason string
	Err    error
}

func (e *AdmissionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("admission to room %s failed: %s", e.RoomID, e.Reason)
	}
	return fmt.Sprintf("admission to room %s failed: %s: %v", e.RoomID, e.Reason, e.Err)
}

func (e *AdmissionError) Unwrap() error {
	return e.Err
}
