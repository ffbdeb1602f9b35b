package watchroom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/watchparty/go/internal/events"
)

// RoomPath is where the hub accepts room channels
const RoomPath = "/ws/room"

var errChannelClosed = errors.New("channel closed")

// WebSocketConfig holds timeouts for client channels
type WebSocketConfig struct {
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

// DefaultWebSocketConfig mirrors the hub's connection settings
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 64 * 1024,
		SendBuffer:     64,
	}
}

// WebSocketDialer dials the hub's room endpoint
type WebSocketDialer struct {
	baseURL *url.URL
	dialer  *websocket.Dialer
	config  WebSocketConfig
}

// NewWebSocketDialer accepts an http(s) or ws(s) base URL of the hub
func NewWebSocketDialer(baseURL string, config WebSocketConfig) (*WebSocketDialer, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse hub url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported hub url scheme %q", u.Scheme)
	}

	return &WebSocketDialer{
		baseURL: u,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		config: config,
	}, nil
}

// Dial opens a channel for the handshake's room
func (d *WebSocketDialer) Dial(ctx context.Context, hs Handshake) (Channel, error) {
	u := *d.baseURL
	u.Path = u.Path + RoomPath

	q := url.Values{}
	q.Set("roomId", hs.RoomID)
	if hs.IsAdmin {
		q.Set("isAdmin", strconv.FormatBool(true))
	} else {
		q.Set("userId", hs.UserID)
		q.Set("userName", hs.UserName)
	}
	u.RawQuery = q.Encode()

	conn, _, err := d.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", RoomPath, err)
	}

	return &wsChannel{
		conn:   conn,
		config: d.config,
		send:   make(chan []byte, d.config.SendBuffer),
		done:   make(chan struct{}),
	}, nil
}

type wsChannel struct {
	conn   *websocket.Conn
	config WebSocketConfig
	send   chan []byte

	mu      sync.Mutex
	started bool

	closeOnce sync.Once
	done      chan struct{}
}

func (c *wsChannel) Start(sink Sink) {
	c.mu.Lock()
	select {
	case <-c.done:
		c.mu.Unlock()
		return
	default:
	}
	c.started = true
	c.mu.Unlock()

	// the handshake has completed by the time a channel exists
	sink(events.Envelope{Event: events.Connect})

	go c.writePump()
	go c.readPump(sink)
}

func (c *wsChannel) Emit(name events.Name, payload interface{}) error {
	env, err := events.NewEnvelope(name, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	select {
	case <-c.done:
		return errChannelClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return errChannelClosed
	default:
		return fmt.Errorf("emit %s: send buffer full", name)
	}
}

func (c *wsChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		close(c.done)
		started := c.started
		c.mu.Unlock()

		// without pumps nothing else owns the connection
		if !started {
			err = c.conn.Close()
		}
	})
	return err
}

func (c *wsChannel) writePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Msg("failed to write room message")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Msg("failed to send ping")
				return
			}
		}
	}
}

func (c *wsChannel) readPump(sink Sink) {
	defer c.Close()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
				// closed locally, nobody is listening for the reason
				return
			default:
			}
			sink(disconnectEnvelope(err.Error()))
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		var env events.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.Warn().Err(err).Msg("dropping malformed room frame")
			continue
		}
		sink(env)
	}
}

func disconnectEnvelope(reason string) events.Envelope {
	env, _ := events.NewEnvelope(events.Disconnect, events.DisconnectPayload{Reason: reason})
	return env
}
