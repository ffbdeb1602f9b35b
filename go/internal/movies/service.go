package movies

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/watchparty/go/internal/httputil"
	"github.com/mcdev12/watchparty/go/internal/models"
)

// MoviesApp defines what the service layer needs from the movies application
type MoviesApp interface {
	ListMovies(ctx context.Context) ([]models.Movie, error)
	GetMovie(ctx context.Context, id string) (*models.Movie, error)
}

// Service serves the movie catalog over HTTP
type Service struct {
	app MoviesApp
}

// NewService creates a new movies HTTP service
func NewService(app MoviesApp) *Service {
	return &Service{
		app: app,
	}
}

type listMoviesResponse struct {
	Success bool           `json:"success"`
	Data    []models.Movie `json:"data"`
}

type getMovieResponse struct {
	Success bool         `json:"success"`
	Movie   models.Movie `json:"movie"`
}

// ListMovies handles GET /movies
func (s *Service) ListMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := s.app.ListMovies(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list movies")
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to list movies")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listMoviesResponse{Success: true, Data: movies})
}

// GetMovie handles GET /movies/{id}
func (s *Service) GetMovie(w http.ResponseWriter, r *http.Request) {
	movie, err := s.app.GetMovie(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrMovieNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "Movie not found")
			return
		}
		log.Error().Err(err).Msg("failed to get movie")
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to get movie")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, getMovieResponse{Success: true, Movie: *movie})
}

// RegisterRoutes registers the catalog routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /movies", s.ListMovies)
	mux.HandleFunc("GET /movies/{id}", s.GetMovie)
}
