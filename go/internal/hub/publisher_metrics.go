package hub

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/watchparty/go/internal/events"
)

// PublishStats summarises activity feed publishing
type PublishStats struct {
	Published     uint64        `json:"published"`
	Failed        uint64        `json:"failed"`
	LastPublished time.Time     `json:"last_published,omitempty"`
	LastError     string        `json:"last_error,omitempty"`
	LastLatency   time.Duration `json:"last_latency_ns"`
}

// MetricPublisher wraps an ActivityPublisher with publish counters
type MetricPublisher struct {
	publisher ActivityPublisher
	clock     clockwork.Clock

	mu    sync.Mutex
	stats PublishStats
}

func NewMetricPublisher(publisher ActivityPublisher, clock clockwork.Clock) *MetricPublisher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MetricPublisher{
		publisher: publisher,
		clock:     clock,
	}
}

func (p *MetricPublisher) Publish(ctx context.Context, activity events.Activity) error {
	start := p.clock.Now()

	err := p.publisher.Publish(ctx, activity)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.LastLatency = p.clock.Since(start)
	if err != nil {
		p.stats.Failed++
		p.stats.LastError = err.Error()
		return err
	}
	p.stats.Published++
	p.stats.LastPublished = p.clock.Now()
	return nil
}

func (p *MetricPublisher) Close() error {
	return p.publisher.Close()
}

// Connected reports whether the wrapped publisher still reaches its broker.
// Publishers without a connection are always connected.
func (p *MetricPublisher) Connected() bool {
	if c, ok := p.publisher.(interface{ Connected() bool }); ok {
		return c.Connected()
	}
	return true
}

func (p *MetricPublisher) Stats() PublishStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
