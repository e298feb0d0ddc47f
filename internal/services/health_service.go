package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"topicfind-backend/internal/messaging"
	"topicfind-backend/internal/repository"
)

// HealthService reports on the health of the service's two external
// dependencies (database, NATS) and basic process stats.
type HealthService struct {
	db        *repository.Database
	events    *messaging.Client
	logger    *slog.Logger
	startTime time.Time
}

func NewHealthService(db *repository.Database, events *messaging.Client, logger *slog.Logger) *HealthService {
	return &HealthService{
		db:        db,
		events:    events,
		logger:    logger,
		startTime: time.Now(),
	}
}

// DatabaseHealth pings the database connection.
func (s *HealthService) DatabaseHealth(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.Ping(ctx)
}

// MessagingHealth reports whether the optional NATS connection is up.
// A nil or never-configured client is healthy by definition: messaging
// is an optional side channel, not a required dependency.
func (s *HealthService) MessagingHealth(ctx context.Context) error {
	if s.events == nil {
		return nil
	}
	if !s.events.IsConnected() {
		return fmt.Errorf("nats connection is not established")
	}
	return nil
}

// SystemInfo summarizes process memory and dependency status.
type SystemInfo struct {
	Uptime    time.Duration  `json:"uptime"`
	Memory    MemoryInfo     `json:"memory"`
	Services  map[string]bool `json:"services"`
	Timestamp time.Time      `json:"timestamp"`
}

type MemoryInfo struct {
	Allocated uint64 `json:"allocated"`
	Total     uint64 `json:"total"`
	System    uint64 `json:"system"`
	GCRuns    uint32 `json:"gc_runs"`
}

// GetSystemInfo returns process memory stats and dependency reachability,
// backing the /health/info endpoint.
func (s *HealthService) GetSystemInfo(ctx context.Context) *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return &SystemInfo{
		Uptime: time.Since(s.startTime),
		Memory: MemoryInfo{
			Allocated: m.Alloc,
			Total:     m.TotalAlloc,
			System:    m.Sys,
			GCRuns:    m.NumGC,
		},
		Services: map[string]bool{
			"database":  s.DatabaseHealth(ctx) == nil,
			"messaging": s.MessagingHealth(ctx) == nil,
		},
		Timestamp: time.Now().UTC(),
	}
}
