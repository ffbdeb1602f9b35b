package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/watchparty/go/internal/events"
	"github.com/mcdev12/watchparty/go/internal/models"
)

// RoomDirectory reports whether a room may be joined over the channel
type RoomDirectory interface {
	RoomExists(ctx context.Context, roomID string) (bool, error)
}

// WebSocketHandler handles WebSocket upgrade requests for room connections
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	directory         RoomDirectory
}

// NewWebSocketHandler creates a new WebSocket handler. A nil directory
// accepts any room ID.
func NewWebSocketHandler(cm *ConnectionManager, directory RoomDirectory) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		directory:         directory,
	}
}

// HandleRoomConnection upgrades a connection using the handshake query
// parameters roomId, userId, userName and isAdmin.
func (h *WebSocketHandler) HandleRoomConnection(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	roomID := q.Get("roomId")
	if roomID == "" {
		http.Error(w, "roomId is required", http.StatusBadRequest)
		return
	}

	isAdmin := false
	if raw := q.Get("isAdmin"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "invalid isAdmin", http.StatusBadRequest)
			return
		}
		isAdmin = v
	}

	user := events.User{ID: q.Get("userId"), Name: q.Get("userName")}
	if !isAdmin && (user.ID == "" || user.Name == "") {
		http.Error(w, "userId and userName are required", http.StatusBadRequest)
		return
	}
	if isAdmin {
		user.Role = models.RoleAdmin
	}

	if h.directory != nil {
		ok, err := h.directory.RoomExists(r.Context(), roomID)
		if err != nil {
			log.Error().Err(err).Str("room_id", roomID).Msg("failed to look up room")
			http.Error(w, "failed to look up room", http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
	}

	if err := h.connectionManager.UpgradeConnection(w, r, roomID, user, isAdmin); err != nil {
		// the upgrader has already replied to the client
		log.Error().
			Err(err).
			Str("room_id", roomID).
			Str("user_id", user.ID).
			Msg("failed to upgrade WebSocket connection")
		return
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	stats := h.connectionManager.GetConnectionStats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		log.Error().Err(err).Msg("failed to encode connection stats")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/room", h.HandleRoomConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}
