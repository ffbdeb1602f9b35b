package movies

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/watchparty/go/internal/models"
)

// MoviesRepository defines what the app layer needs from the repository
type MoviesRepository interface {
	ListMovies(ctx context.Context) ([]models.Movie, error)
	GetMovie(ctx context.Context, id string) (*models.Movie, error)
	UpsertMovies(ctx context.Context, movies []models.Movie) error
}

// App handles the movie catalog
type App struct {
	repo MoviesRepository
}

// NewApp creates a new movies App
func NewApp(repo MoviesRepository) *App {
	return &App{
		repo: repo,
	}
}

// ListMovies returns the whole catalog
func (a *App) ListMovies(ctx context.Context) ([]models.Movie, error) {
	movies, err := a.repo.ListMovies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	return movies, nil
}

// GetMovie retrieves a movie by ID
func (a *App) GetMovie(ctx context.Context, id string) (*models.Movie, error) {
	movie, err := a.repo.GetMovie(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get movie %s: %w", id, err)
	}
	return movie, nil
}

// Seed stores the configured catalog, replacing entries with the same ID
func (a *App) Seed(ctx context.Context, catalog []models.Movie) error {
	for _, m := range catalog {
		if strings.TrimSpace(m.ID) == "" || strings.TrimSpace(m.YoutubeID) == "" {
			return fmt.Errorf("catalog entry %q needs an id and a youtube_id", m.Title)
		}
	}
	if err := a.repo.UpsertMovies(ctx, catalog); err != nil {
		return fmt.Errorf("failed to seed movies: %w", err)
	}

	log.Info().Int("movies", len(catalog)).Msg("movie catalog seeded")
	return nil
}
