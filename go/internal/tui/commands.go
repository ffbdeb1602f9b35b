package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type commandKind int

const (
	cmdChat commandKind = iota
	cmdPlay
	cmdPause
	cmdSeek
	cmdSync
	cmdRejoin
	cmdQuit
)

type command struct {
	kind commandKind
	text string
	seek float64
}

var errUnknownCommand = errors.New("unknown command")

const usage = "/play  /pause  /seek <seconds>  /sync  /rejoin  /quit"

// parseCommand interprets one line of input. Anything that is not a slash
// command is chat.
func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return command{kind: cmdChat, text: line}, nil
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/play":
		return command{kind: cmdPlay}, nil
	case "/pause":
		return command{kind: cmdPause}, nil
	case "/sync":
		return command{kind: cmdSync}, nil
	case "/rejoin":
		return command{kind: cmdRejoin}, nil
	case "/quit":
		return command{kind: cmdQuit}, nil
	case "/seek":
		if len(fields) != 2 {
			return command{}, fmt.Errorf("usage: /seek <seconds>")
		}
		seconds, err := parseTimestamp(fields[1])
		if err != nil {
			return command{}, err
		}
		return command{kind: cmdSeek, seek: seconds}, nil
	default:
		return command{}, fmt.Errorf("%w %s (%s)", errUnknownCommand, fields[0], usage)
	}
}

// parseTimestamp accepts plain seconds ("42.5") or m:ss ("1:30")
func parseTimestamp(s string) (float64, error) {
	if m, sec, ok := strings.Cut(s, ":"); ok {
		minutes, err := strconv.Atoi(m)
		if err != nil || minutes < 0 {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		seconds, err := strconv.ParseFloat(sec, 64)
		if err != nil || seconds < 0 || seconds >= 60 {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		return float64(minutes)*60 + seconds, nil
	}

	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return seconds, nil
}

func formatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
