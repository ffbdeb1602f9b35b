package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/watchparty/go/internal/models"
	"github.com/mcdev12/watchparty/go/internal/watchroom"
)

// RoomSource is the slice of the rooms API the dashboard reads
type RoomSource interface {
	ListRooms(ctx context.Context) ([]models.RoomSummary, error)
	GetRoom(ctx context.Context, id string) (*models.Room, error)
}

// DashboardConfig holds configuration for the dashboard
type DashboardConfig struct {
	PollInterval time.Duration
	Clock        clockwork.Clock
	// Observer configures the synchronizer used to watch a single room
	Observer watchroom.Config
	// OnRefresh is called after every poll with the rooms kept and the poll error
	OnRefresh func(rooms []models.RoomSummary, err error)
}

// DefaultDashboardConfig returns default dashboard configuration
func DefaultDashboardConfig() DashboardConfig {
	return DashboardConfig{
		PollInterval: 10 * time.Second,
		Clock:        clockwork.NewRealClock(),
		Observer:     watchroom.DefaultConfig(),
	}
}

// Dashboard lists active rooms and lets an administrator watch one of them
type Dashboard struct {
	source RoomSource
	dialer watchroom.Dialer
	config DashboardConfig

	mu       sync.RWMutex
	rooms    []models.RoomSummary
	lastErr  error
	polledAt time.Time

	watchMu   sync.Mutex
	watched   *watchroom.Synchronizer
	watchedID string
}

// NewDashboard creates a dashboard polling source and dialing rooms through dialer
func NewDashboard(source RoomSource, dialer watchroom.Dialer, config DashboardConfig) *Dashboard {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultDashboardConfig().PollInterval
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	if config.Observer.Clock == nil {
		config.Observer.Clock = config.Clock
	}
	return &Dashboard{
		source: source,
		dialer: dialer,
		config: config,
	}
}

// Run polls the room list immediately and then on every interval until ctx is done
func (d *Dashboard) Run(ctx context.Context) error {
	ticker := d.config.Clock.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	d.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			d.Refresh(ctx)
		}
	}
}

// Refresh fetches the room list once. On failure the previous list is kept.
func (d *Dashboard) Refresh(ctx context.Context) error {
	rooms, err := d.source.ListRooms(ctx)

	d.mu.Lock()
	if err != nil {
		d.lastErr = fmt.Errorf("list rooms: %w", err)
	} else {
		d.rooms = rooms
		d.lastErr = nil
		d.polledAt = d.config.Clock.Now()
	}
	kept, lastErr := d.rooms, d.lastErr
	d.mu.Unlock()

	if err != nil {
		log.Warn().Err(err).Msg("failed to refresh active rooms")
	} else {
		log.Debug().Int("rooms", len(rooms)).Msg("active rooms refreshed")
	}
	if d.config.OnRefresh != nil {
		d.config.OnRefresh(kept, lastErr)
	}
	return lastErr
}

// Rooms returns the last successfully fetched room list
func (d *Dashboard) Rooms() []models.RoomSummary {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.RoomSummary, len(d.rooms))
	copy(out, d.rooms)
	return out
}

// LastError returns the error of the latest poll, nil when it succeeded
func (d *Dashboard) LastError() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastErr
}

// PolledAt returns when the room list was last fetched successfully
func (d *Dashboard) PolledAt() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.polledAt
}

// Watch observes roomID as an admin. Any previously watched room is left first.
func (d *Dashboard) Watch(ctx context.Context, roomID string) (*watchroom.Synchronizer, error) {
	d.watchMu.Lock()
	defer d.watchMu.Unlock()

	if d.watched != nil {
		if d.watchedID == roomID {
			return d.watched, nil
		}
		d.stopWatchingLocked()
	}

	room, err := d.source.GetRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("get room %s: %w", roomID, err)
	}

	observer := watchroom.NewObserver(d.dialer, d.config.Observer)
	if err := observer.Resolve(*room, nil); err != nil {
		observer.Close()
		return nil, err
	}
	if err := observer.Enter(ctx); err != nil {
		observer.Close()
		return nil, fmt.Errorf("watch room %s: %w", roomID, err)
	}

	log.Info().Str("room_id", roomID).Msg("watching room")
	d.watched = observer
	d.watchedID = roomID
	return observer, nil
}

// Watched returns the observed room's id and synchronizer, if any
func (d *Dashboard) Watched() (string, *watchroom.Synchronizer) {
	d.watchMu.Lock()
	defer d.watchMu.Unlock()
	return d.watchedID, d.watched
}

// StopWatching leaves the observed room
func (d *Dashboard) StopWatching() {
	d.watchMu.Lock()
	defer d.watchMu.Unlock()
	d.stopWatchingLocked()
}

func (d *Dashboard) stopWatchingLocked() {
	if d.watched == nil {
		return
	}
	if err := d.watched.Close(); err != nil {
		log.Warn().Err(err).Str("room_id", d.watchedID).Msg("failed to stop watching room")
	}
	log.Info().Str("room_id", d.watchedID).Msg("stopped watching room")
	d.watched = nil
	d.watchedID = ""
}
