package rooms

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MemoryRepository keeps rooms for the lifetime of the process
type MemoryRepository struct {
	mu    sync.RWMutex
	rooms map[string]Record
}

// NewMemoryRepository creates an empty room store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rooms: make(map[string]Record),
	}
}

func (r *MemoryRepository) CreateRoom(ctx context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[rec.ID]; exists {
		return fmt.Errorf("room %s already exists", rec.ID)
	}
	r.rooms[rec.ID] = rec
	return nil
}

func (r *MemoryRepository) GetRoom(ctx context.Context, id string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return &rec, nil
}

func (r *MemoryRepository) ListRooms(ctx context.Context) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Record, 0, len(r.rooms))
	for _, rec := range r.rooms {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// DBTX is the subset of *pgxpool.Pool the repository uses
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores rooms in Postgres
type PostgresRepository struct {
	db DBTX
}

// NewPostgresRepository creates a new rooms repository
func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

const createRoomsTable = `
CREATE TABLE IF NOT EXISTS rooms (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    movie_id      TEXT NOT NULL REFERENCES movies (id),
    host_id       TEXT NOT NULL,
    host_name     TEXT NOT NULL,
    password_hash BYTEA,
    created_at    TIMESTAMPTZ NOT NULL
)`

// EnsureSchema creates the rooms table if it does not exist. The movies
// table must exist first.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createRoomsTable); err != nil {
		return fmt.Errorf("failed to create rooms table: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateRoom(ctx context.Context, rec Record) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO rooms (id, name, movie_id, host_id, host_name, password_hash, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.Name, rec.MovieID, rec.Host.ID, rec.Host.Name, rec.PasswordHash, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert room: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetRoom(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRow(ctx, `
        SELECT id, name, movie_id, host_id, host_name, password_hash, created_at
        FROM rooms
        WHERE id = $1`, id)

	rec, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &rec, nil
}

func (r *PostgresRepository) ListRooms(ctx context.Context) ([]Record, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, name, movie_id, host_id, host_name, password_hash, created_at
        FROM rooms
        ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) { return scanRoom(row) })
	if err != nil {
		return nil, fmt.Errorf("failed to scan rooms: %w", err)
	}
	return recs, nil
}

func scanRoom(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID,
		&rec.Name,
		&rec.MovieID,
		&rec.Host.ID,
		&rec.Host.Name,
		&rec.PasswordHash,
		&rec.CreatedAt,
	)
	rec.Host.IsHost = true
	return rec, err
}
