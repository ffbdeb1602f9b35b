package events

import (
	"encoding/json"
	"fmt"
)

// Name identifies a logical event on the room channel. The string values are
// the wire contract shared by the hub and every client.
type Name string

const (
	// client -> hub
	JoinRoom Name = "join-room"

	// both directions
	ChatMessage Name = "chat-message"
	MovieAction Name = "movie-action"

	// hub -> client
	UserJoined Name = "user-joined"
	UserLeft   Name = "user-left"

	// connection lifecycle, synthesised by the client channel
	Connect      Name = "connect"
	Disconnect   Name = "disconnect"
	ConnectError Name = "connect_error"
)

// Envelope is the frame carried over the WebSocket
type Envelope struct {
	Event Name            `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals payload into an envelope for the given event
func NewEnvelope(name Name, payload interface{}) (Envelope, error) {
	env := Envelope{Event: name}
	if payload == nil {
		return env, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", name, err)
	}
	env.Data = data
	return env, nil
}

// Decode unmarshals the envelope data into v
func (e Envelope) Decode(v interface{}) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%s: empty payload", e.Event)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", e.Event, err)
	}
	return nil
}

// ParsePayload parses envelope data into the payload struct for its event
func ParsePayload(env Envelope) (interface{}, error) {
	switch env.Event {
	case JoinRoom:
		var payload JoinRoomPayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case ChatMessage:
		var payload ChatMessagePayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case MovieAction:
		var payload MovieActionPayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		if !payload.Action.Valid() {
			return nil, fmt.Errorf("unknown movie action %q", payload.Action)
		}
		return payload, nil

	case UserJoined:
		var payload UserJoinedPayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case UserLeft:
		var payload UserLeftPayload
		if err := env.Decode(&payload); err != nil {
			return nil, err
		}
		return payload, nil

	case Connect:
		return nil, nil

	case Disconnect:
		var payload DisconnectPayload
		if len(env.Data) > 0 {
			if err := env.Decode(&payload); err != nil {
				return nil, err
			}
		}
		return payload, nil

	case ConnectError:
		var payload ConnectErrorPayload
		if len(env.Data) > 0 {
			if err := env.Decode(&payload); err != nil {
				return nil, err
			}
		}
		return payload, nil

	default:
		return nil, fmt.Errorf("unknown event %q", env.Event)
	}
}
