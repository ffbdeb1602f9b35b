package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/watchparty/go/internal/events"
	"github.com/mcdev12/watchparty/go/internal/models"
)

// ConnectionManager manages WebSocket connections for watch rooms
type ConnectionManager struct {
	// Connection pools and live state organized by room ID
	rooms map[string]*roomState
	mu    sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	clock    clockwork.Clock

	broadcastCh chan BroadcastMessage
	activityCh  chan events.Activity
	publisher   ActivityPublisher
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID      string
	RoomID  string
	User    events.User
	IsAdmin bool
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	// Connection metadata
	ConnectedAt time.Time
	LastPing    time.Time

	// set once join-room was accepted, guarded by Manager.mu
	joined bool
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
	CheckOrigin     func(r *http.Request) bool
	Clock           clockwork.Clock
}

// BroadcastMessage represents a message to broadcast to a room
type BroadcastMessage struct {
	RoomID   string
	Envelope events.Envelope
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  64 * 1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBuffer:      256,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
		Clock: clockwork.NewRealClock(),
	}
}

// NewConnectionManager creates a new WebSocket connection manager. A nil
// publisher disables the activity feed.
func NewConnectionManager(config ConnectionConfig, publisher ActivityPublisher) *ConnectionManager {
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	if config.SendBuffer <= 0 {
		config.SendBuffer = 256
	}
	if publisher == nil {
		publisher = NoopPublisher{}
	}

	return &ConnectionManager{
		rooms: make(map[string]*roomState),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		clock:       config.Clock,
		broadcastCh: make(chan BroadcastMessage, 1000),
		activityCh:  make(chan events.Activity, 1000),
		publisher:   publisher,
	}
}

// Start processes broadcasts and activity until ctx is done
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	go cm.publishActivity(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

func (cm *ConnectionManager) publishActivity(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case activity := <-cm.activityCh:
			pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := cm.publisher.Publish(pubCtx, activity); err != nil {
				log.Error().
					Err(err).
					Str("room_id", activity.RoomID).
					Str("event", string(activity.Event)).
					Msg("failed to publish room activity")
			}
			cancel()
		}
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, roomID string, user events.User, isAdmin bool) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	now := cm.clock.Now()
	connection := &Connection{
		ID:          uuid.New().String(),
		RoomID:      roomID,
		User:        user,
		IsAdmin:     isAdmin,
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBuffer),
		Manager:     cm,
		ConnectedAt: now,
		LastPing:    now,
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("user_id", user.ID).
		Str("room_id", roomID).
		Bool("admin", isAdmin).
		Msg("WebSocket connection established")

	return nil
}

// registerConnection adds a connection to its room
func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	room, exists := cm.rooms[conn.RoomID]
	if !exists {
		room = newRoomState(conn.RoomID)
		cm.rooms[conn.RoomID] = room
	}
	room.connections[conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("room_id", conn.RoomID).
		Int("total_connections", len(room.connections)).
		Msg("connection registered")
}

// unregisterConnection removes a connection and announces the user's
// departure when it was their last one
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	room, exists := cm.rooms[conn.RoomID]
	if !exists {
		return
	}
	if _, exists := room.connections[conn]; !exists {
		return
	}
	delete(room.connections, conn)
	close(conn.Send)

	if conn.joined && !conn.IsAdmin {
		if user, last := room.leave(conn.User.ID); last {
			name := user.Name
			if name == "" {
				name = user.ID
			}
			cm.enqueueLocked(room, events.UserLeft, events.UserLeftPayload{
				UserID:   user.ID,
				UserName: user.Name,
				Message:  events.LeftMessage(name),
			})
		}
	}

	// Clean up empty rooms
	if len(room.connections) == 0 {
		delete(cm.rooms, conn.RoomID)
	}

	log.Info().
		Str("connection_id", conn.ID).
		Str("user_id", conn.User.ID).
		Str("room_id", conn.RoomID).
		Msg("connection unregistered")
}

// join admits a connection to the room roster
func (cm *ConnectionManager) join(conn *Connection, p events.JoinRoomPayload) {
	if p.RoomID != "" && p.RoomID != conn.RoomID {
		log.Warn().
			Str("connection_id", conn.ID).
			Str("room_id", conn.RoomID).
			Str("requested_room", p.RoomID).
			Msg("ignoring join-room for another room")
		return
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	room, exists := cm.rooms[conn.RoomID]
	if !exists || !room.connections[conn] || conn.joined {
		return
	}
	conn.joined = true

	if conn.IsAdmin {
		log.Info().Str("room_id", conn.RoomID).Msg("admin observer joined room")
		return
	}

	if room.join(conn.User) {
		log.Info().
			Str("room_id", conn.RoomID).
			Str("user_id", conn.User.ID).
			Int("participants", len(room.roster)).
			Msg("participant joined room")
	}
	cm.enqueueLocked(room, events.UserJoined, events.UserJoinedPayload{User: conn.User})
}

// relayChat stamps a chat message with the sender and a seq and reflects it
// to every connection in the room
func (cm *ConnectionManager) relayChat(conn *Connection, p events.ChatMessagePayload) {
	text := strings.TrimSpace(p.Message)
	if text == "" {
		return
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	room, ok := cm.participantRoomLocked(conn, events.ChatMessage)
	if !ok {
		return
	}

	ts := p.Timestamp
	if ts.IsZero() {
		ts = cm.clock.Now()
	}
	cm.enqueueLocked(room, events.ChatMessage, events.ChatMessagePayload{
		RoomID:    room.id,
		User:      conn.User,
		Message:   text,
		Timestamp: ts,
		Seq:       room.nextSeq(),
	})
}

// relayAction stamps a movie action, updates the room's playback projection
// and reflects it to every connection in the room
func (cm *ConnectionManager) relayAction(conn *Connection, p events.MovieActionPayload) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	room, ok := cm.participantRoomLocked(conn, events.MovieAction)
	if !ok {
		return
	}

	now := cm.clock.Now()
	if p.Timestamp == 0 {
		p.Timestamp = now.UnixMilli()
	}
	room.applyAction(p, now)

	cm.enqueueLocked(room, events.MovieAction, events.MovieActionPayload{
		RoomID:    room.id,
		Action:    p.Action,
		Data:      p.Data,
		User:      conn.User,
		Timestamp: p.Timestamp,
		Seq:       room.nextSeq(),
	})
}

func (cm *ConnectionManager) participantRoomLocked(conn *Connection, name events.Name) (*roomState, bool) {
	room, exists := cm.rooms[conn.RoomID]
	if !exists || !room.connections[conn] {
		return nil, false
	}
	if conn.IsAdmin || !conn.joined {
		log.Warn().
			Str("connection_id", conn.ID).
			Str("room_id", conn.RoomID).
			Str("event", string(name)).
			Bool("admin", conn.IsAdmin).
			Msg("dropping event from connection outside the roster")
		return nil, false
	}
	return room, true
}

// enqueueLocked queues a room broadcast while cm.mu is held, so broadcasts
// leave in seq order
func (cm *ConnectionManager) enqueueLocked(room *roomState, name events.Name, payload interface{}) {
	env, err := events.NewEnvelope(name, payload)
	if err != nil {
		log.Error().Err(err).Msg("failed to build room event")
		return
	}
	cm.BroadcastToRoom(room.id, env)

	select {
	case cm.activityCh <- events.NewActivity(room.id, env, cm.clock.Now()):
	default:
		log.Warn().Str("room_id", room.id).Msg("activity channel full, dropping activity")
	}
}

// BroadcastToRoom sends an envelope to all connections of a room
func (cm *ConnectionManager) BroadcastToRoom(roomID string, env events.Envelope) {
	select {
	case cm.broadcastCh <- BroadcastMessage{RoomID: roomID, Envelope: env}:
	default:
		log.Warn().Str("room_id", roomID).Msg("broadcast channel full, dropping message")
	}
}

// handleBroadcast processes a broadcast message
func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	cm.mu.RLock()
	room, exists := cm.rooms[message.RoomID]
	if !exists {
		cm.mu.RUnlock()
		return
	}

	// Snapshot the connections to avoid holding the lock while sending
	targetConnections := make([]*Connection, 0, len(room.connections))
	for conn := range room.connections {
		targetConnections = append(targetConnections, conn)
	}
	cm.mu.RUnlock()

	eventData, err := json.Marshal(message.Envelope)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	for _, conn := range targetConnections {
		if !cm.trySend(conn, eventData) {
			log.Warn().
				Str("connection_id", conn.ID).
				Str("user_id", conn.User.ID).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}

	log.Debug().
		Str("event", string(message.Envelope.Event)).
		Str("room_id", message.RoomID).
		Int("connections", len(targetConnections)).
		Msg("event broadcasted")
}

// trySend queues data unless the connection is full or already unregistered
func (cm *ConnectionManager) trySend(conn *Connection, data []byte) bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	room, exists := cm.rooms[conn.RoomID]
	if !exists || !room.connections[conn] {
		// unregistered since the snapshot; Send is closed
		return true
	}
	select {
	case conn.Send <- data:
		return true
	default:
		return false
	}
}

// Presence returns the live state of a room
func (cm *ConnectionManager) Presence(roomID string) (models.RoomPresence, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	room, exists := cm.rooms[roomID]
	if !exists {
		return models.RoomPresence{}, false
	}
	return room.presence(cm.clock.Now()), true
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() map[string]interface{} {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	totalConnections := 0
	roomCounts := make(map[string]int)

	for roomID, room := range cm.rooms {
		count := len(room.connections)
		totalConnections += count
		roomCounts[roomID] = count
	}

	return map[string]interface{}{
		"total_connections": totalConnections,
		"active_rooms":      len(cm.rooms),
		"room_connections":  roomCounts,
	}
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				// Channel was closed
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump handles reading messages from the WebSocket connection
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

// handleClientMessage dispatches a frame received from the client
func (c *Connection) handleClientMessage(message []byte) {
	var env events.Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		log.Warn().Err(err).Str("connection_id", c.ID).Msg("dropping malformed client frame")
		return
	}

	payload, err := events.ParsePayload(env)
	if err != nil {
		log.Warn().Err(err).Str("connection_id", c.ID).Msg("dropping invalid client event")
		return
	}

	switch p := payload.(type) {
	case events.JoinRoomPayload:
		c.Manager.join(c, p)
	case events.ChatMessagePayload:
		c.Manager.relayChat(c, p)
	case events.MovieActionPayload:
		c.Manager.relayAction(c, p)
	default:
		log.Debug().
			Str("connection_id", c.ID).
			Str("event", string(env.Event)).
			Msg("ignoring client event")
	}
}
