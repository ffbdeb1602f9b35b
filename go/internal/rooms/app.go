package rooms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcdev12/watchparty/go/internal/models"
	"github.com/mcdev12/watchparty/go/internal/movies"
)

const defaultHostName = "Host"

// RoomsRepository defines what the app layer needs from the repository
type RoomsRepository interface {
	CreateRoom(ctx context.Context, rec Record) error
	GetRoom(ctx context.Context, id string) (*Record, error)
	ListRooms(ctx context.Context) ([]Record, error)
}

// MovieCatalog resolves the movie a room is created for
type MovieCatalog interface {
	GetMovie(ctx context.Context, id string) (*models.Movie, error)
}

// PresenceProvider reports the live state the hub keeps for a room
type PresenceProvider interface {
	Presence(roomID string) (models.RoomPresence, bool)
}

// App handles room creation, lookup and guest admission
type App struct {
	repo   RoomsRepository
	movies MovieCatalog
	clock  clockwork.Clock

	mu       sync.RWMutex
	presence PresenceProvider

	passwordCost int
}

// NewApp creates a new rooms App
func NewApp(repo RoomsRepository, catalog MovieCatalog, clock clockwork.Clock) *App {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &App{
		repo:         repo,
		movies:       catalog,
		clock:        clock,
		passwordCost: bcrypt.DefaultCost,
	}
}

// SetPresenceProvider attaches the hub once it exists; the hub itself needs
// the app as its room directory.
func (a *App) SetPresenceProvider(p PresenceProvider) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.presence = p
}

// CreateRoom opens a room for a catalog movie. The creator becomes host; when
// no creator is known a fresh host identity is minted.
func (a *App) CreateRoom(ctx context.Context, req models.CreateRoomRequest, creator *models.User) (*models.JoinResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: room name is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.MovieID) == "" {
		return nil, fmt.Errorf("%w: movieId is required", ErrInvalidRequest)
	}

	movie, err := a.movies.GetMovie(ctx, req.MovieID)
	if err != nil {
		if errors.Is(err, movies.ErrMovieNotFound) {
			return nil, fmt.Errorf("%w: unknown movie %s", ErrInvalidRequest, req.MovieID)
		}
		return nil, fmt.Errorf("failed to resolve movie: %w", err)
	}

	host := models.User{Role: models.RoleHost}
	if creator != nil && creator.ID != "" {
		host.ID = creator.ID
		host.Name = creator.Name
	} else {
		host.ID = uuid.New().String()
		host.Name = strings.TrimSpace(req.HostName)
	}
	if host.Name == "" {
		host.Name = defaultHostName
	}

	rec := Record{
		ID:        uuid.New().String(),
		Name:      name,
		MovieID:   movie.ID,
		Host:      models.Participant{ID: host.ID, Name: host.Name, IsHost: true},
		CreatedAt: a.clock.Now().UTC(),
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), a.passwordCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash room password: %w", err)
		}
		rec.PasswordHash = hash
	}

	if err := a.repo.CreateRoom(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	log.Info().
		Str("room_id", rec.ID).
		Str("movie_id", movie.ID).
		Str("host_id", host.ID).
		Bool("password_protected", rec.PasswordProtected()).
		Msg("room created")

	return &models.JoinResult{Room: a.toModel(rec, *movie), User: host}, nil
}

// GetRoom returns the room with its live participants
func (a *App) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	rec, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get room %s: %w", id, err)
	}
	movie, err := a.movies.GetMovie(ctx, rec.MovieID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve movie for room %s: %w", id, err)
	}
	room := a.toModel(*rec, *movie)
	return &room, nil
}

// JoinRoom admits a guest, checking the room password when one is set
func (a *App) JoinRoom(ctx context.Context, id string, req models.JoinRequest) (*models.JoinResult, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidRequest)
	}

	rec, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get room %s: %w", id, err)
	}

	if rec.PasswordProtected() {
		if err := bcrypt.CompareHashAndPassword(rec.PasswordHash, []byte(req.Password)); err != nil {
			log.Debug().Str("room_id", id).Str("username", username).Msg("join rejected: wrong password")
			return nil, ErrWrongPassword
		}
	}

	movie, err := a.movies.GetMovie(ctx, rec.MovieID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve movie for room %s: %w", id, err)
	}

	user := models.User{
		ID:   uuid.New().String(),
		Name: username,
		Role: models.RoleGuest,
	}

	log.Info().Str("room_id", id).Str("user_id", user.ID).Str("username", username).Msg("guest admitted")
	return &models.JoinResult{Room: a.toModel(*rec, *movie), User: user}, nil
}

// ListRooms returns every room with the hub's live state merged in
func (a *App) ListRooms(ctx context.Context) ([]models.RoomSummary, error) {
	recs, err := a.repo.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	summaries := make([]models.RoomSummary, 0, len(recs))
	for _, rec := range recs {
		summary := models.RoomSummary{
			ID:                rec.ID,
			Name:              rec.Name,
			HostName:          rec.Host.Name,
			PasswordProtected: rec.PasswordProtected(),
			CreatedAt:         rec.CreatedAt,
		}
		if movie, err := a.movies.GetMovie(ctx, rec.MovieID); err == nil {
			summary.MovieTitle = movie.Title
		} else {
			log.Warn().Err(err).Str("room_id", rec.ID).Msg("room references unknown movie")
		}
		if p, ok := a.lookupPresence(rec.ID); ok {
			summary.ParticipantCount = len(p.Participants)
			summary.IsPlaying = p.IsPlaying
			summary.PositionSeconds = p.PositionSeconds
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// RoomExists lets the hub reject connections for unknown rooms
func (a *App) RoomExists(ctx context.Context, id string) (bool, error) {
	_, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (a *App) lookupPresence(roomID string) (models.RoomPresence, bool) {
	a.mu.RLock()
	p := a.presence
	a.mu.RUnlock()
	if p == nil {
		return models.RoomPresence{}, false
	}
	return p.Presence(roomID)
}

func (a *App) toModel(rec Record, movie models.Movie) models.Room {
	host := rec.Host
	room := models.Room{
		ID:                rec.ID,
		Name:              rec.Name,
		Movie:             movie,
		Host:              &host,
		Users:             []models.Participant{},
		PasswordProtected: rec.PasswordProtected(),
		CreatedAt:         rec.CreatedAt,
	}
	if p, ok := a.lookupPresence(rec.ID); ok {
		for _, u := range p.Participants {
			u.IsHost = u.ID == rec.Host.ID
			room.Users = append(room.Users, u)
		}
	}
	return room
}
