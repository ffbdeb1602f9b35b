package events

import (
	"testing"
	"time"
)

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name        string
		event       Name
		payload     interface{}
		expectError bool
		check       func(t *testing.T, v interface{})
	}{
		{
			name:    "movie action with seek data",
			event:   MovieAction,
			payload: MovieActionPayload{Action: ActionSeek, Data: &ActionData{Time: 42.5}, User: User{ID: "u1"}},
			check: func(t *testing.T, v interface{}) {
				p := v.(MovieActionPayload)
				if p.TargetTime() != 42.5 {
					t.Errorf("TargetTime() = %v, want 42.5", p.TargetTime())
				}
			},
		},
		{
			name:        "movie action outside the contract",
			event:       MovieAction,
			payload:     map[string]string{"action": "rewind"},
			expectError: true,
		},
		{
			name:    "user left without message",
			event:   UserLeft,
			payload: map[string]string{"userId": "u1"},
			check: func(t *testing.T, v interface{}) {
				p := v.(UserLeftPayload)
				if p.UserID != "u1" || p.Message != "" || p.UserName != "" {
					t.Errorf("unexpected payload %+v", p)
				}
			},
		},
		{
			name:    "chat message",
			event:   ChatMessage,
			payload: ChatMessagePayload{User: User{ID: "u1", Name: "Ann"}, Message: "hi", Timestamp: time.Unix(10, 0)},
			check: func(t *testing.T, v interface{}) {
				p := v.(ChatMessagePayload)
				if p.Message != "hi" || p.User.Name != "Ann" {
					t.Errorf("unexpected payload %+v", p)
				}
			},
		},
		{
			name:        "unknown event",
			event:       Name("kick"),
			payload:     map[string]string{},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := NewEnvelope(tt.event, tt.payload)
			if err != nil {
				t.Fatalf("NewEnvelope() error: %v", err)
			}

			v, err := ParsePayload(env)
			if tt.expectError {
				if err == nil {
					t.Error("ParsePayload() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePayload() unexpected error: %v", err)
			}
			tt.check(t, v)
		})
	}
}

func TestTargetTimeDefaultsToZero(t *testing.T) {
	p := MovieActionPayload{Action: ActionSync}
	if p.TargetTime() != 0 {
		t.Errorf("TargetTime() = %v, want 0", p.TargetTime())
	}
}
