package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mcdev12/watchparty/go/internal/models"
	"github.com/mcdev12/watchparty/go/internal/watchroom"
)

type fakeSession struct {
	calls []string
	seek  float64
	chat  string
	err   error
}

func (f *fakeSession) Play() error  { f.calls = append(f.calls, "play"); return f.err }
func (f *fakeSession) Pause() error { f.calls = append(f.calls, "pause"); return f.err }
func (f *fakeSession) Sync() error  { f.calls = append(f.calls, "sync"); return f.err }

func (f *fakeSession) Seek(seconds float64) error {
	f.calls = append(f.calls, "seek")
	f.seek = seconds
	return f.err
}

func (f *fakeSession) SendChat(text string) error {
	f.calls = append(f.calls, "chat")
	f.chat = text
	return f.err
}

func (f *fakeSession) Reconnect(ctx context.Context) error {
	f.calls = append(f.calls, "rejoin")
	return f.err
}

func (f *fakeSession) Snapshot() watchroom.Snapshot { return watchroom.Snapshot{} }

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input   string
		want    command
		wantErr bool
	}{
		{input: "hello there", want: command{kind: cmdChat, text: "hello there"}},
		{input: "/play", want: command{kind: cmdPlay}},
		{input: " /pause ", want: command{kind: cmdPause}},
		{input: "/seek 42.5", want: command{kind: cmdSeek, seek: 42.5}},
		{input: "/seek 1:30", want: command{kind: cmdSeek, seek: 90}},
		{input: "/sync", want: command{kind: cmdSync}},
		{input: "/rejoin", want: command{kind: cmdRejoin}},
		{input: "/quit", want: command{kind: cmdQuit}},
		{input: "/seek", wantErr: true},
		{input: "/seek -3", wantErr: true},
		{input: "/seek 1:75", wantErr: true},
		{input: "/dance", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseCommand(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCommand(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseCommand(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	tests := map[float64]string{0: "00:00", 42.5: "00:42", 600: "10:00", -1: "00:00"}
	for in, want := range tests {
		if got := formatClock(in); got != want {
			t.Errorf("formatClock(%v) = %q, want %q", in, got, want)
		}
	}
}

func submit(t *testing.T, m Model, line string) (Model, tea.Cmd) {
	t.Helper()
	m.textInput.SetValue(line)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func TestUpdateDispatchesCommands(t *testing.T) {
	session := &fakeSession{}
	m := New(session, nil, nil)

	tests := []struct {
		line string
		call string
	}{
		{line: "/play", call: "play"},
		{line: "/pause", call: "pause"},
		{line: "/seek 42.5", call: "seek"},
		{line: "/sync", call: "sync"},
		{line: "/rejoin", call: "rejoin"},
		{line: "hi all", call: "chat"},
	}

	for _, tt := range tests {
		var cmd tea.Cmd
		m, cmd = submit(t, m, tt.line)
		if cmd == nil {
			t.Fatalf("%q produced no command", tt.line)
		}
		if res, ok := cmd().(resultMsg); !ok || res.err != nil {
			t.Fatalf("%q result = %#v", tt.line, res)
		}
		if last := session.calls[len(session.calls)-1]; last != tt.call {
			t.Errorf("%q called %s, want %s", tt.line, last, tt.call)
		}
		if m.textInput.Value() != "" {
			t.Errorf("input not cleared after %q", tt.line)
		}
	}

	if session.seek != 42.5 {
		t.Errorf("seek = %v, want 42.5", session.seek)
	}
	if session.chat != "hi all" {
		t.Errorf("chat = %q, want %q", session.chat, "hi all")
	}
}

func TestUpdateShowsErrors(t *testing.T) {
	session := &fakeSession{err: errors.New("only the host can sync")}
	m := New(session, nil, nil)

	m, cmd := submit(t, m, "/sync")
	next, _ := m.Update(cmd())
	m = next.(Model)
	if !m.statusErr || m.status != "only the host can sync" {
		t.Errorf("status = %q (err=%v)", m.status, m.statusErr)
	}

	m, cmd = submit(t, m, "/dance")
	if cmd != nil {
		t.Errorf("unknown command should not run anything")
	}
	if !m.statusErr {
		t.Errorf("unknown command should set an error status")
	}
	if len(session.calls) != 1 {
		t.Errorf("calls = %v", session.calls)
	}
}

func TestQuitCommand(t *testing.T) {
	m := New(&fakeSession{}, nil, nil)
	_, cmd := submit(t, m, "/quit")
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("expected tea.QuitMsg")
	}
}

func TestSnapshotRendersChatAndRoster(t *testing.T) {
	m := New(&fakeSession{}, nil, nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(Model)

	alice := models.User{ID: "alice", Name: "Alice"}
	snap := watchroom.Snapshot{
		RoomName: "Friday",
		Movie:    models.Movie{Title: "Big Buck Bunny"},
		Identity: &alice,
		State:    watchroom.StateJoined,
		Participants: []models.Participant{
			{ID: "alice", Name: "Alice", IsHost: true},
			{ID: "bob", Name: "Bob"},
		},
		Chat: []models.ChatMessage{
			{Kind: models.ChatKindSystem, Text: "Bob joined the room", SentAt: time.Now()},
			{Kind: models.ChatKindUser, AuthorName: "Bob", Text: "hi", SentAt: time.Now()},
		},
		Playback: models.PlaybackState{PositionSeconds: 42.5, DurationSeconds: 600},
	}
	next, _ = m.Update(snapshotMsg(snap))
	m = next.(Model)

	view := m.View()
	for _, want := range []string{"Friday", "Big Buck Bunny", "joined", "Alice (you)", "Bob joined the room", "00:42 / 10:00"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestFeedKeepsNewest(t *testing.T) {
	publish, ch := Feed()
	publish(watchroom.Snapshot{RoomName: "one"})
	publish(watchroom.Snapshot{RoomName: "two"})

	select {
	case snap := <-ch:
		if snap.RoomName != "two" {
			t.Errorf("got %q, want newest snapshot", snap.RoomName)
		}
	default:
		t.Fatal("no snapshot published")
	}
}
