// internal/models/event.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Event types recorded by admin-triggered mutations.
const (
	EventPlayerKicked   = "PLAYER_KICKED"
	EventPlayerBanned   = "PLAYER_BANNED"
	EventPlayerUnbanned = "PLAYER_UNBANNED"
	EventLobbyCreated   = "LOBBY_CREATED"
	EventLobbyStopped   = "LOBBY_STOPPED"
	EventLobbyReaped    = "LOBBY_REAPED"
)

// EventLog is one row of the append-only administrative audit trail.
type EventLog struct {
	ID        uuid.UUID  `json:"id"`
	EventType string     `json:"event_type"`
	Details   string     `json:"details"`
	AdminID   *uuid.UUID `json:"admin_id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}
