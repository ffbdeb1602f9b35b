package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/watchparty/go/clients/rooms_client"
	"github.com/mcdev12/watchparty/go/internal/models"
	"github.com/mcdev12/watchparty/go/internal/monitor"
	"github.com/mcdev12/watchparty/go/internal/watchroom"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	apiURL := getEnv("API_URL", "http://localhost:8080")
	natsURL := os.Getenv("NATS_URL")
	watchRoom := os.Getenv("WATCH_ROOM")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := rooms_client.NewRoomsClient(apiURL)
	dialer, err := watchroom.NewWebSocketDialer(apiURL, watchroom.DefaultWebSocketConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("invalid API_URL")
	}

	config := monitor.DefaultDashboardConfig()
	config.PollInterval = getEnvAsDuration("POLL_INTERVAL", config.PollInterval)
	config.OnRefresh = logRooms
	config.Observer.ReconnectWait = 5 * time.Second
	config.Observer.OnChange = func(snap watchroom.Snapshot) {
		if n := len(snap.Activity); n > 0 {
			last := snap.Activity[n-1]
			log.Info().
				Str("room_id", snap.RoomID).
				Str("event", string(last.Event)).
				Str("state", snap.State.String()).
				Msg(last.Summary)
		}
	}

	dashboard := monitor.NewDashboard(api, dialer, config)
	defer dashboard.StopWatching()

	log.Info().
		Str("api_url", apiURL).
		Dur("poll_interval", config.PollInterval).
		Msg("starting room monitor")

	go dashboard.Run(ctx)

	if watchRoom != "" {
		if _, err := dashboard.Watch(ctx, watchRoom); err != nil {
			log.Error().Err(err).Str("room_id", watchRoom).Msg("failed to watch room")
		}
	}

	if natsURL != "" {
		consumerConfig := monitor.DefaultActivityConsumerConfig()
		consumerConfig.URL = natsURL
		feed := monitor.NewActivityFeed(consumerConfig.FeedSize)

		consumer, err := monitor.NewActivityConsumer(ctx, feed, consumerConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create activity consumer")
		}
		defer consumer.Stop()

		go func() {
			if err := consumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("activity consumer failed")
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	cancel()
	log.Info().Msg("room monitor shutdown complete")
}

func logRooms(rooms []models.RoomSummary, err error) {
	if err != nil {
		log.Warn().Err(err).Int("rooms", len(rooms)).Msg("showing last known rooms")
	}
	for _, r := range rooms {
		log.Info().
			Str("room_id", r.ID).
			Str("name", r.Name).
			Str("movie", r.MovieTitle).
			Str("host", r.HostName).
			Int("participants", r.ParticipantCount).
			Bool("playing", r.IsPlaying).
			Float64("position", r.PositionSeconds).
			Msg("active room")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
