package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/watchparty/go/internal/events"
)

// ActivityConsumerConfig holds configuration for the activity feed consumer
type ActivityConsumerConfig struct {
	URL           string
	StreamName    string
	ConsumerName  string
	SubjectFilter string // e.g., "rooms.activity.>"
	MaxDeliver    int
	AckWait       time.Duration
	MaxAckPending int
	MaxReconnects int
	ReconnectWait time.Duration
	FeedSize      int
}

// DefaultActivityConsumerConfig returns default consumer configuration
func DefaultActivityConsumerConfig() ActivityConsumerConfig {
	return ActivityConsumerConfig{
		URL:           nats.DefaultURL,
		StreamName:    "ROOM_ACTIVITY",
		ConsumerName:  "watchparty-monitor",
		SubjectFilter: "rooms.activity.>",
		MaxDeliver:    5,
		AckWait:       30 * time.Second,
		MaxAckPending: 100,
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
		FeedSize:      100,
	}
}

// ActivityFeed keeps the most recent activities across all rooms
type ActivityFeed struct {
	mu    sync.RWMutex
	limit int
	items []events.Activity
	seen  map[string]struct{}
}

// NewActivityFeed creates a feed holding at most limit entries
func NewActivityFeed(limit int) *ActivityFeed {
	if limit <= 0 {
		limit = DefaultActivityConsumerConfig().FeedSize
	}
	return &ActivityFeed{
		limit: limit,
		seen:  make(map[string]struct{}),
	}
}

// Add appends a, ignoring redeliveries. It reports whether a was new.
func (f *ActivityFeed) Add(a events.Activity) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := a.ID.String()
	if _, dup := f.seen[key]; dup {
		return false
	}
	f.seen[key] = struct{}{}
	f.items = append(f.items, a)
	if over := len(f.items) - f.limit; over > 0 {
		for _, old := range f.items[:over] {
			delete(f.seen, old.ID.String())
		}
		f.items = append([]events.Activity(nil), f.items[over:]...)
	}
	return true
}

// Recent returns the activities for roomID, or every room when roomID is empty
func (f *ActivityFeed) Recent(roomID string) []events.Activity {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]events.Activity, 0, len(f.items))
	for _, a := range f.items {
		if roomID == "" || a.RoomID == roomID {
			out = append(out, a)
		}
	}
	return out
}

// ActivityConsumer reads the hub's activity stream from JetStream into a feed
type ActivityConsumer struct {
	feed     *ActivityFeed
	nc       *nats.Conn
	js       jetstream.JetStream
	consumer jetstream.Consumer
	config   ActivityConsumerConfig
}

// NewActivityConsumer connects to NATS and binds the durable consumer
func NewActivityConsumer(ctx context.Context, feed *ActivityFeed, config ActivityConsumerConfig) (*ActivityConsumer, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	ac := &ActivityConsumer{
		feed:   feed,
		nc:     nc,
		js:     js,
		config: config,
	}

	if err := ac.ensureConsumer(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure consumer: %w", err)
	}

	return ac, nil
}

func (ac *ActivityConsumer) ensureConsumer(ctx context.Context) error {
	stream, err := ac.js.Stream(ctx, ac.config.StreamName)
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          ac.config.ConsumerName,
		Durable:       ac.config.ConsumerName,
		Description:   "Watch party monitor activity consumer",
		FilterSubject: ac.config.SubjectFilter,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    ac.config.MaxDeliver,
		AckWait:       ac.config.AckWait,
		MaxAckPending: ac.config.MaxAckPending,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
	})
	if err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}

	log.Info().
		Str("consumer", ac.config.ConsumerName).
		Str("stream", ac.config.StreamName).
		Msg("bound JetStream consumer")

	ac.consumer = consumer
	return nil
}

// Start consumes activities until ctx is done
func (ac *ActivityConsumer) Start(ctx context.Context) error {
	log.Info().
		Str("consumer", ac.config.ConsumerName).
		Str("stream", ac.config.StreamName).
		Msg("starting activity consumer")

	messageCh := make(chan jetstream.Msg, 100)

	consumeCtx, err := ac.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case messageCh <- msg:
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer consumeCtx.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("activity consumer shutting down")
			return nil
		case msg := <-messageCh:
			if err := ac.handle(msg.Subject(), msg.Data()); err != nil {
				log.Error().
					Err(err).
					Str("subject", msg.Subject()).
					Msg("dropping malformed activity")
				// Redelivery cannot fix a malformed payload
				if termErr := msg.Term(); termErr != nil {
					log.Error().Err(termErr).Msg("failed to TERM message")
				}
				continue
			}
			if ackErr := msg.Ack(); ackErr != nil {
				log.Error().Err(ackErr).Msg("failed to ACK message")
			}
		}
	}
}

func (ac *ActivityConsumer) handle(subject string, data []byte) error {
	activity, err := decodeActivity(data)
	if err != nil {
		return err
	}

	if ac.feed.Add(activity) {
		log.Info().
			Str("event_id", activity.ID.String()).
			Str("room_id", activity.RoomID).
			Str("event_type", string(activity.Event)).
			Str("subject", subject).
			Msg("activity recorded")
	}
	return nil
}

func decodeActivity(data []byte) (events.Activity, error) {
	var activity events.Activity
	if err := json.Unmarshal(data, &activity); err != nil {
		return events.Activity{}, fmt.Errorf("unmarshal activity: %w", err)
	}
	if activity.RoomID == "" {
		return events.Activity{}, fmt.Errorf("activity %s has no room", activity.ID)
	}
	if _, err := events.ParsePayload(activity.Envelope()); err != nil {
		return events.Activity{}, fmt.Errorf("activity %s: %w", activity.ID, err)
	}
	return activity, nil
}

// Stop closes the NATS connection
func (ac *ActivityConsumer) Stop() error {
	log.Info().Msg("stopping activity consumer")

	if ac.nc != nil {
		ac.nc.Close()
	}

	return nil
}

// GetConsumerInfo returns information about the consumer
func (ac *ActivityConsumer) GetConsumerInfo(ctx context.Context) (*jetstream.ConsumerInfo, error) {
	return ac.consumer.Info(ctx)
}
