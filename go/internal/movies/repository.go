package movies

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mcdev12/watchparty/go/internal/models"
	"github.com/mcdev12/watchparty/go/internal/sqlutil"
)

// MemoryRepository keeps the catalog in process memory
type MemoryRepository struct {
	mu     sync.RWMutex
	order  []string
	movies map[string]models.Movie
}

// NewMemoryRepository creates an empty in-memory catalog
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		movies: make(map[string]models.Movie),
	}
}

func (r *MemoryRepository) ListMovies(ctx context.Context) ([]models.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Movie, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.movies[id])
	}
	return out, nil
}

func (r *MemoryRepository) GetMovie(ctx context.Context, id string) (*models.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.movies[id]
	if !ok {
		return nil, ErrMovieNotFound
	}
	return &m, nil
}

func (r *MemoryRepository) UpsertMovies(ctx context.Context, movies []models.Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for _, m := range movies {
		existing, ok := r.movies[m.ID]
		if ok {
			m.CreatedAt = existing.CreatedAt
		} else {
			r.order = append(r.order, m.ID)
			if m.CreatedAt.IsZero() {
				m.CreatedAt = now
			}
		}
		r.movies[m.ID] = m
	}
	return nil
}

// DB is the subset of *pgxpool.Pool the repository uses
type DB interface {
	sqlutil.TxBeginner
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores the catalog in Postgres
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository creates a new movies repository
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

const createMoviesTable = `
CREATE TABLE IF NOT EXISTS movies (
    id           TEXT PRIMARY KEY,
    title        TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    youtube_id   TEXT NOT NULL,
    duration_sec INTEGER NOT NULL DEFAULT 0,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureSchema creates the movies table if it does not exist
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createMoviesTable); err != nil {
		return fmt.Errorf("failed to create movies table: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListMovies(ctx context.Context) ([]models.Movie, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, title, description, youtube_id, duration_sec, created_at
        FROM movies
        ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}

	movies, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Movie, error) { return scanMovie(row) })
	if err != nil {
		return nil, fmt.Errorf("failed to scan movies: %w", err)
	}
	return movies, nil
}

func (r *PostgresRepository) GetMovie(ctx context.Context, id string) (*models.Movie, error) {
	row := r.db.QueryRow(ctx, `
        SELECT id, title, description, youtube_id, duration_sec, created_at
        FROM movies
        WHERE id = $1`, id)

	m, err := scanMovie(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	return &m, nil
}

func (r *PostgresRepository) UpsertMovies(ctx context.Context, movies []models.Movie) error {
	return sqlutil.Run(ctx, r.db, func(tx pgx.Tx) error {
		for _, m := range movies {
			_, err := tx.Exec(ctx, `
                INSERT INTO movies (id, title, description, youtube_id, duration_sec)
                VALUES ($1, $2, $3, $4, $5)
                ON CONFLICT (id) DO UPDATE SET
                  title = EXCLUDED.title,
                  description = EXCLUDED.description,
                  youtube_id = EXCLUDED.youtube_id,
                  duration_sec = EXCLUDED.duration_sec`,
				m.ID, m.Title, m.Description, m.YoutubeID, m.DurationSec,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert movie %s: %w", m.ID, err)
			}
		}
		return nil
	})
}

func scanMovie(row pgx.Row) (models.Movie, error) {
	var m models.Movie
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.YoutubeID, &m.DurationSec, &m.CreatedAt)
	return m, err
}
