package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mcdev12/watchparty/go/internal/models"
	"github.com/mcdev12/watchparty/go/internal/watchroom"
)

// Session is the part of the synchronizer the UI drives
type Session interface {
	Play() error
	Pause() error
	Seek(seconds float64) error
	Sync() error
	SendChat(text string) error
	Reconnect(ctx context.Context) error
	Snapshot() watchroom.Snapshot
}

// Clock reads the local player position for the progress line
type Clock interface {
	CurrentTime() (float64, error)
	Duration() (float64, error)
}

type snapshotMsg watchroom.Snapshot

type tickMsg time.Time

type resultMsg struct {
	err error
}

const rosterWidth = 22

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#7D56F4")).Padding(0, 1)
	systemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")).Italic(true)
	authorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	hostStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	rosterStyle = lipgloss.NewStyle().Width(rosterWidth).BorderStyle(lipgloss.NormalBorder()).BorderLeft(true).PaddingLeft(1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#505050"))
)

// Model is the bubbletea model of a watch room
type Model struct {
	session Session
	player  Clock
	updates <-chan watchroom.Snapshot

	viewport  viewport.Model
	textInput textinput.Model
	snap      watchroom.Snapshot
	status    string
	statusErr bool
	position  float64
	duration  float64
	ready     bool
	width     int
}

// New creates a model for session. updates carries snapshots published by
// the synchronizer; player may be nil.
func New(session Session, player Clock, updates <-chan watchroom.Snapshot) Model {
	ti := textinput.New()
	ti.Placeholder = "Say something, or " + usage
	ti.Focus()
	ti.CharLimit = 500

	return Model{
		session:   session,
		player:    player,
		updates:   updates,
		textInput: ti,
		status:    usage,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForSnapshot, tick(), m.refresh)
}

func (m Model) refresh() tea.Msg {
	return snapshotMsg(m.session.Snapshot())
}

func (m Model) waitForSnapshot() tea.Msg {
	if m.updates == nil {
		return nil
	}
	snap, ok := <-m.updates
	if !ok {
		return nil
	}
	return snapshotMsg(snap)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			line := m.textInput.Value()
			if strings.TrimSpace(line) == "" {
				return m, nil
			}
			m.textInput.SetValue("")
			return m.execute(line)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		chatWidth := msg.Width - rosterWidth - 2
		if chatWidth < 20 {
			chatWidth = 20
		}
		height := msg.Height - 5 // header, progress, rule, input, status
		if height < 3 {
			height = 3
		}
		if !m.ready {
			m.viewport = viewport.New(chatWidth, height)
			m.ready = true
		} else {
			m.viewport.Width = chatWidth
			m.viewport.Height = height
		}
		m.textInput.Width = msg.Width - 4
		m.renderChat()

	case snapshotMsg:
		m.snap = watchroom.Snapshot(msg)
		if !m.snap.Playback.IsPlaying {
			m.position = m.snap.Playback.PositionSeconds
		}
		if m.snap.Playback.DurationSeconds > 0 {
			m.duration = m.snap.Playback.DurationSeconds
		}
		m.renderChat()
		return m, m.waitForSnapshot

	case tickMsg:
		m.samplePlayer()
		return m, tick()

	case resultMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
		}
		return m, nil
	}

	m.textInput, tiCmd = m.textInput.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd)
}

func (m Model) execute(line string) (tea.Model, tea.Cmd) {
	cmd, err := parseCommand(line)
	if err != nil {
		m.setStatus(err.Error(), true)
		return m, nil
	}

	var run func() error
	switch cmd.kind {
	case cmdQuit:
		return m, tea.Quit
	case cmdChat:
		run = func() error { return m.session.SendChat(cmd.text) }
		m.setStatus("", false)
	case cmdPlay:
		run = m.session.Play
		m.setStatus("play", false)
	case cmdPause:
		run = m.session.Pause
		m.setStatus("pause", false)
	case cmdSeek:
		run = func() error { return m.session.Seek(cmd.seek) }
		m.setStatus("seek to "+formatClock(cmd.seek), false)
	case cmdSync:
		run = m.session.Sync
		m.setStatus("sync", false)
	case cmdRejoin:
		run = func() error { return m.session.Reconnect(context.Background()) }
		m.setStatus("rejoining...", false)
	}

	return m, func() tea.Msg { return resultMsg{err: run()} }
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m *Model) samplePlayer() {
	if m.player == nil {
		return
	}
	if t, err := m.player.CurrentTime(); err == nil {
		m.position = t
	}
	if d, err := m.player.Duration(); err == nil && d > 0 {
		m.duration = d
	}
}

func (m *Model) renderChat() {
	if !m.ready {
		return
	}
	lines := make([]string, 0, len(m.snap.Chat))
	for _, msg := range m.snap.Chat {
		lines = append(lines, formatChat(msg, m.viewport.Width))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

func formatChat(msg models.ChatMessage, width int) string {
	ts := msg.SentAt.Local().Format("15:04")
	if msg.Kind == models.ChatKindSystem {
		return systemStyle.Width(width).Render(fmt.Sprintf("%s  %s", ts, msg.Text))
	}
	prefix := fmt.Sprintf("%s %s ", ts, authorStyle.Render(msg.AuthorName+":"))
	body := lipgloss.NewStyle().Width(max(width-lipgloss.Width(prefix), 10)).Render(msg.Text)
	return lipgloss.JoinHorizontal(lipgloss.Top, prefix, body)
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Joining room..."
	}

	title := m.snap.RoomName
	if m.snap.Movie.Title != "" {
		title += " · " + m.snap.Movie.Title
	}
	header := headerStyle.Render(fmt.Sprintf("%s  [%s]", title, m.snap.State))

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.viewport.View(),
		rosterStyle.Height(m.viewport.Height).Render(m.rosterView()),
	)

	status := m.status
	if m.snap.LastError != nil && !m.statusErr {
		status = m.snap.LastError.Error()
		status = errorStyle.Render(status)
	} else if m.statusErr {
		status = errorStyle.Render(status)
	} else {
		status = systemStyle.Render(status)
	}

	return strings.Join([]string{
		header,
		body,
		m.progressView(),
		borderStyle.Render(strings.Repeat("─", max(m.width, 1))),
		m.textInput.View(),
		status,
	}, "\n")
}

func (m Model) rosterView() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Viewers (%d)\n", len(m.snap.Participants)))
	for _, p := range m.snap.Participants {
		name := p.Name
		if m.snap.Identity != nil && p.ID == m.snap.Identity.ID {
			name += " (you)"
		}
		if p.IsHost {
			name = hostStyle.Render("★ " + name)
		} else {
			name = "  " + name
		}
		b.WriteString(name + "\n")
	}
	return b.String()
}

func (m Model) progressView() string {
	icon := "⏸"
	if m.snap.Playback.IsPlaying {
		icon = "▶"
	}
	line := fmt.Sprintf("%s %s / %s", icon, formatClock(m.position), formatClock(m.duration))
	if !m.snap.SurfaceReady {
		line += "  (player loading)"
	}
	return line
}
