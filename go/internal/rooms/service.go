package rooms

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/watchparty/go/internal/httputil"
	"github.com/mcdev12/watchparty/go/internal/models"
)

// Creator identity headers set by the identity provider in front of the API
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserName = "X-User-Name"
)

// RoomsApp defines what the service layer needs from the rooms application
type RoomsApp interface {
	CreateRoom(ctx context.Context, req models.CreateRoomRequest, creator *models.User) (*models.JoinResult, error)
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	JoinRoom(ctx context.Context, id string, req models.JoinRequest) (*models.JoinResult, error)
	ListRooms(ctx context.Context) ([]models.RoomSummary, error)
}

// Service serves the rooms REST API
type Service struct {
	app RoomsApp
}

// NewService creates a new rooms HTTP service
func NewService(app RoomsApp) *Service {
	return &Service{
		app: app,
	}
}

type listRoomsResponse struct {
	Success bool                 `json:"success"`
	Data    []models.RoomSummary `json:"data"`
}

type roomResponse struct {
	Success bool        `json:"success"`
	Room    models.Room `json:"room"`
}

type joinResponse struct {
	Success bool        `json:"success"`
	Room    models.Room `json:"room"`
	User    models.User `json:"user"`
}

// ListRooms handles GET /rooms
func (s *Service) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.app.ListRooms(r.Context())
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listRoomsResponse{Success: true, Data: rooms})
}

// CreateRoom handles POST /rooms
func (s *Service) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRoomRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var creator *models.User
	if id := r.Header.Get(HeaderUserID); id != "" {
		creator = &models.User{ID: id, Name: r.Header.Get(HeaderUserName)}
	}

	result, err := s.app.CreateRoom(r.Context(), req, creator)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, joinResponse{Success: true, Room: result.Room, User: result.User})
}

// GetRoom handles GET /rooms/{id}
func (s *Service) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.app.GetRoom(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, roomResponse{Success: true, Room: *room})
}

// JoinRoom handles POST /rooms/{id}/join
func (s *Service) JoinRoom(w http.ResponseWriter, r *http.Request) {
	var req models.JoinRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.app.JoinRoom(r.Context(), r.PathValue("id"), req)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, joinResponse{Success: true, Room: result.Room, User: result.User})
}

func (s *Service) writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrWrongPassword):
		httputil.WriteError(w, http.StatusUnauthorized, "Incorrect password")
	case errors.Is(err, ErrRoomNotFound):
		httputil.WriteError(w, http.StatusNotFound, "Room not found")
	case errors.Is(err, ErrInvalidRequest):
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("rooms request failed")
		httputil.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// RegisterRoutes registers the rooms routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /rooms", s.ListRooms)
	mux.HandleFunc("POST /rooms", s.CreateRoom)
	mux.HandleFunc("GET /rooms/{id}", s.GetRoom)
	mux.HandleFunc("POST /rooms/{id}/join", s.JoinRoom)
}
