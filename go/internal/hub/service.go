package hub

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/watchparty/go/internal/models"
)

// Service is the room hub: WebSocket connections, relaying and the activity feed
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	publisher         *MetricPublisher
}

// Config holds configuration for the hub service
type Config struct {
	ConnectionConfig ConnectionConfig
	JetStreamConfig  JetStreamConfig
}

// DefaultConfig returns default configuration for the hub
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		JetStreamConfig:  DefaultJetStreamConfig(),
	}
}

// NewService creates a new hub. publisher may be nil.
func NewService(config Config, directory RoomDirectory, publisher ActivityPublisher) *Service {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	metrics := NewMetricPublisher(publisher, config.ConnectionConfig.Clock)
	connectionManager := NewConnectionManager(config.ConnectionConfig, metrics)

	return &Service{
		connectionManager: connectionManager,
		wsHandler:         NewWebSocketHandler(connectionManager, directory),
		publisher:         metrics,
	}
}

// Start runs the hub until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting room hub")

	go s.connectionManager.Start(ctx)

	<-ctx.Done()

	log.Info().Msg("room hub shutting down")
	return s.Stop()
}

// Stop releases the activity publisher
func (s *Service) Stop() error {
	if err := s.publisher.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close activity publisher")
		return err
	}
	log.Info().Msg("room hub stopped")
	return nil
}

// RegisterRoutes registers the WebSocket HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	log.Info().Msg("room hub routes registered")
}

// Presence returns the live participants and playback of a room
func (s *Service) Presence(roomID string) (models.RoomPresence, bool) {
	return s.connectionManager.Presence(roomID)
}

// FeedConnected reports whether the activity feed can be published to
func (s *Service) FeedConnected() bool {
	return s.publisher.Connected()
}

// GetStats returns statistics about the hub
func (s *Service) GetStats() map[string]interface{} {
	stats := s.connectionManager.GetConnectionStats()
	stats["service"] = "room_hub"
	stats["status"] = "running"
	stats["activity"] = s.publisher.Stats()
	stats["activity_connected"] = s.publisher.Connected()
	return stats
}
