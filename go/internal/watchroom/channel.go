package watchroom

import (
	"context"

	"github.com/mcdev12/watchparty/go/internal/events"
)

// Sink receives envelopes delivered by a Channel. It must not block.
type Sink func(env events.Envelope)

// Channel is a live, bidirectional room connection
type Channel interface {
	// Start begins delivering inbound envelopes, including the synthetic
	// connect/disconnect lifecycle events, to sink.
	Start(sink Sink)
	Emit(name events.Name, payload interface{}) error
	Close() error
}

// Handshake is the metadata presented when a channel is opened
type Handshake struct {
	RoomID   string
	UserID   string
	UserName string
	IsAdmin  bool
}

// Dialer opens channels to the hub
type Dialer interface {
	Dial(ctx context.Context, hs Handshake) (Channel, error)
}
