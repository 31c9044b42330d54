// internal/cache/events.go
//
// Package cache publishes audit events to a Redis queue so external
// consumers (cmd/historian, ops tooling) can mirror the administrative event
// log without querying the database. Publishing is best-effort: the
// event_logs table written inside the mutating transaction is the system of
// record.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/starforge-games/liveops/internal/models"
)

// DefaultQueueName is the Redis list audit events are pushed to.
var DefaultQueueName = "liveops_events"

// AuditRecord is the wire form of one event-log entry.
type AuditRecord struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Details   string `json:"details"`
	AdminID   string `json:"admin_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Publisher wraps a Redis client bound to one queue.
type Publisher struct {
	rdb   *redis.Client
	queue string
}

// Connect initializes a Publisher from environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
//   - AUDIT_QUEUE_NAME (optional)
func Connect(ctx context.Context) (*Publisher, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &Publisher{rdb: rdb, queue: getEnv("AUDIT_QUEUE_NAME", DefaultQueueName)}, nil
}

// PublishAuditEvent serializes the event and pushes it to the queue.
// A nil Publisher silently drops, so callers need no nil checks when Redis
// is not configured.
func (p *Publisher) PublishAuditEvent(ctx context.Context, ev *models.EventLog) error {
	if p == nil {
		return nil
	}

	rec := AuditRecord{
		EventID:   ev.ID.String(),
		EventType: ev.EventType,
		Details:   ev.Details,
		Timestamp: ev.Timestamp.UnixMilli(),
	}
	if ev.AdminID != nil {
		rec.AdminID = ev.AdminID.String()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to push audit record: %w", err)
	}
	return nil
}

// Close shuts the underlying client down.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.rdb.Close()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
