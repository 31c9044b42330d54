// internal/models/ban.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// BannedPlayer is a standing prohibition against a player name and/or
// account. Multiple bans for the same name may coexist. A ban is active while
// ExpiresAt is nil or in the future; expiry is a predicate, not a background
// job.
type BannedPlayer struct {
	ID         uuid.UUID  `json:"id"`
	PlayerName string     `json:"player_name"`
	AccountID  *uuid.UUID `json:"account_id,omitempty"`
	Reason     string     `json:"reason"`
	BannedAt   time.Time  `json:"banned_at"`
	BannedBy   string     `json:"banned_by"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// ActiveAt reports whether the ban is in force at the given instant.
func (b *BannedPlayer) ActiveAt(t time.Time) bool {
	return b.ExpiresAt == nil || b.ExpiresAt.After(t)
}
