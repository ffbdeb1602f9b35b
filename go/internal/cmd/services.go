package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/watchparty/go/internal/hub"
	"github.com/mcdev12/watchparty/go/internal/movies"
	"github.com/mcdev12/watchparty/go/internal/rooms"
)

type Services struct {
	Movies *movies.Service
	Rooms  *rooms.Service
	Hub    *hub.Service
	Health *HealthChecker
}

// setupServices wires repository → app → service for each domain. pool may
// be nil, in which case state lives in memory.
func setupServices(ctx context.Context, config *Config, pool *pgxpool.Pool) (*Services, error) {
	clock := clockwork.NewRealClock()

	// Movies
	var moviesRepo movies.MoviesRepository
	if pool != nil {
		repo := movies.NewPostgresRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		moviesRepo = repo
	} else {
		moviesRepo = movies.NewMemoryRepository()
	}
	moviesApp := movies.NewApp(moviesRepo)
	if len(config.Movies) > 0 {
		if err := moviesApp.Seed(ctx, config.Movies); err != nil {
			return nil, err
		}
	} else {
		log.Warn().Msg("no movies configured")
	}

	// Rooms
	var roomsRepo rooms.RoomsRepository
	if pool != nil {
		repo := rooms.NewPostgresRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		roomsRepo = repo
	} else {
		roomsRepo = rooms.NewMemoryRepository()
	}
	roomsApp := rooms.NewApp(roomsRepo, moviesApp, clock)

	// Hub
	hubConfig := config.hubConfig()
	hubConfig.ConnectionConfig.Clock = clock

	var publisher hub.ActivityPublisher
	if getEnv("NATS_URL", "") != "" {
		p, err := hub.NewJetStreamPublisher(ctx, hubConfig.JetStreamConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to set up activity feed: %w", err)
		}
		publisher = p
		log.Info().
			Str("nats_url", hubConfig.JetStreamConfig.URL).
			Str("stream", hubConfig.JetStreamConfig.StreamName).
			Msg("activity feed enabled")
	}
	hubService := hub.NewService(hubConfig, roomsApp, publisher)
	roomsApp.SetPresenceProvider(hubService)

	var db pinger
	if pool != nil {
		db = pool
	}

	return &Services{
		Movies: movies.NewService(moviesApp),
		Rooms:  rooms.NewService(roomsApp),
		Hub:    hubService,
		Health: NewHealthChecker(db, hubService),
	}, nil
}
