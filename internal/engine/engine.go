// internal/engine/engine.go
//
// Package engine implements the lobby/session/score lifecycle rules: how
// lobbies, sessions and scores are created, mutated, finalized and torn
// down, and how those rules interact with the external authoritative game
// process. Every multi-entity mutation runs inside one store transaction so
// concurrent readers never observe a session without its score or a
// half-finalized lobby.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/starforge-games/liveops/internal/authority"
	"github.com/starforge-games/liveops/internal/cache"
	"github.com/starforge-games/liveops/internal/models"
	"github.com/starforge-games/liveops/internal/state"
)

// Actor identifies who triggered an administrative mutation, for the audit
// trail. The zero value means "system" (e.g. the janitor).
type Actor struct {
	AdminID  *uuid.UUID
	Username string
}

// Engine owns the lifecycle rules over a shared entity store and the
// authority control channel.
type Engine struct {
	store state.Store
	gw    authority.Gateway
	log   *logrus.Logger
	audit *cache.Publisher
}

// New wires an Engine. The gateway may be nil for deployments without an
// authority process (local lobbies only); audit publishing is opt-in via
// SetAuditPublisher.
func New(store state.Store, gw authority.Gateway, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{store: store, gw: gw, log: logger}
}

// SetAuditPublisher attaches a best-effort Redis mirror for audit events.
func (e *Engine) SetAuditPublisher(p *cache.Publisher) {
	e.audit = p
}

// Store exposes the underlying store for read-only consumers (handlers).
func (e *Engine) Store() state.Store {
	return e.store
}

// newEvent builds an audit row for the given actor.
func newEvent(eventType, details string, actor Actor) *models.EventLog {
	return &models.EventLog{
		ID:        uuid.New(),
		EventType: eventType,
		Details:   details,
		AdminID:   actor.AdminID,
		Timestamp: time.Now().UTC(),
	}
}

// publishAudit mirrors a committed event to Redis. Failures are logged and
// swallowed; the database row is the system of record.
func (e *Engine) publishAudit(ctx context.Context, ev *models.EventLog) {
	if e.audit == nil {
		return
	}
	if err := e.audit.PublishAuditEvent(ctx, ev); err != nil {
		e.log.WithFields(logrus.Fields{
			"event_type": ev.EventType,
			"event_id":   ev.ID,
		}).Warnf("audit publish failed: %v", err)
	}
}

// newSessionToken returns a globally-unique opaque token. The UUID supplies
// the entropy; the nanosecond component keeps tokens distinct even if the
// random source ever repeats under concurrent joins.
func newSessionToken() string {
	return fmt.Sprintf("session_%d_%s", time.Now().UnixNano(), uuid.NewString())
}
