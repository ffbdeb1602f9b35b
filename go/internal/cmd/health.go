package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mcdev12/watchparty/go/internal/hub"
	"github.com/mcdev12/watchparty/go/internal/httputil"
)

type HealthStatus struct {
	Healthy           bool             `json:"healthy"`
	DatabaseConnected *bool            `json:"database_connected,omitempty"`
	NATSConnected     bool             `json:"nats_connected"`
	Connections       interface{}      `json:"connections"`
	Rooms             interface{}      `json:"rooms"`
	Activity          hub.PublishStats `json:"activity"`
	Errors            []string         `json:"errors"`
}

type pinger interface {
	Ping(ctx context.Context) error
}

type hubStats interface {
	GetStats() map[string]interface{}
	FeedConnected() bool
}

// HealthChecker reports on the database, the activity feed and the hub
type HealthChecker struct {
	db  pinger // nil when running in memory
	hub hubStats
}

func NewHealthChecker(db pinger, hub hubStats) *HealthChecker {
	return &HealthChecker{db: db, hub: hub}
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy: true,
		Errors:  []string{},
	}

	if h.db != nil {
		connected := true
		if err := h.db.Ping(ctx); err != nil {
			connected = false
			status.Healthy = false
			status.Errors = append(status.Errors, fmt.Sprintf("database ping failed: %v", err))
		}
		status.DatabaseConnected = &connected
	}

	status.NATSConnected = h.hub.FeedConnected()
	if !status.NATSConnected {
		status.Healthy = false
		status.Errors = append(status.Errors, "NATS disconnected")
	}

	stats := h.hub.GetStats()
	status.Connections = stats["total_connections"]
	status.Rooms = stats["active_rooms"]
	if activity, ok := stats["activity"].(hub.PublishStats); ok {
		status.Activity = activity
	}

	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Check(ctx)

	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, code, status)
}
