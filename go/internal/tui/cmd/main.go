package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/watchparty/go/clients/rooms_client"
	"github.com/mcdev12/watchparty/go/internal/models"
	"github.com/mcdev12/watchparty/go/internal/tui"
	"github.com/mcdev12/watchparty/go/internal/watchroom"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "could not load .env file: %v\n", err)
	}

	// The terminal belongs to the UI, so logs go to a file
	logFile, err := os.OpenFile(getEnv("LOG_FILE", "watchparty-tui.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: logFile, NoColor: true})
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "watchparty: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	apiURL := getEnv("API_URL", "http://localhost:8080")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	api := rooms_client.NewRoomsClient(apiURL)

	var user *models.User
	if id := os.Getenv("USER_ID"); id != "" {
		user = &models.User{ID: id, Name: getEnv("USER_NAME", id)}
		api.AsUser(*user)
	}

	roomID := os.Getenv("ROOM_ID")
	if roomID == "" {
		movieID := os.Getenv("MOVIE_ID")
		if movieID == "" {
			return fmt.Errorf("set ROOM_ID to join a room, or MOVIE_ID to open one")
		}
		created, err := api.CreateRoom(ctx, models.CreateRoomRequest{
			MovieID:  movieID,
			Name:     getEnv("ROOM_NAME", "Watch party"),
			Password: os.Getenv("ROOM_PASSWORD"),
			HostName: os.Getenv("GUEST_NAME"),
		})
		if err != nil {
			return fmt.Errorf("create room: %w", err)
		}
		roomID = created.Room.ID
		user = &created.User
		log.Info().Str("room_id", roomID).Msg("room created")
		fmt.Printf("Opened room %s\n", roomID)
	}

	admission, err := watchroom.Admit(ctx, api, roomID, user, watchroom.JoinForm{
		Username: os.Getenv("GUEST_NAME"),
		Password: os.Getenv("ROOM_PASSWORD"),
	})
	if err != nil {
		return err
	}

	dialer, err := watchroom.NewWebSocketDialer(apiURL, watchroom.DefaultWebSocketConfig())
	if err != nil {
		return err
	}

	clock := clockwork.NewRealClock()
	surface := watchroom.NewSimulatedSurface(clock, float64(admission.Room.Movie.DurationSec))
	defer surface.Destroy()

	publish, updates := tui.Feed()
	cfg := watchroom.DefaultConfig()
	cfg.Clock = clock
	cfg.ReconnectWait = getEnvAsDuration("RECONNECT_WAIT", 5*time.Second)
	cfg.OnChange = publish

	session := watchroom.NewSynchronizer(dialer, surface, cfg)
	defer session.Close()

	if err := session.Resolve(admission.Room, &admission.Identity); err != nil {
		return err
	}
	if err := session.Enter(ctx); err != nil {
		return err
	}
	if err := surface.Load(admission.Room.Movie.YoutubeID); err != nil {
		return fmt.Errorf("load movie: %w", err)
	}

	p := tea.NewProgram(tui.New(session, surface, updates), tea.WithAltScreen())
	_, err = p.Run()
	return err
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
