// internal/models/score.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// PlayerScore is the running tally for one session, created alongside it and
// destroyed with it. Exactly one exists per live session.
type PlayerScore struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	LobbyID   uuid.UUID `json:"lobby_id"`
	Kills     int       `json:"kills"`
	Deaths    int       `json:"deaths"`
	Score     int       `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScoreUpdate is a partial score write. Nil fields are left unchanged;
// non-nil fields replace the stored value (last writer wins).
type ScoreUpdate struct {
	Kills  *int `json:"kills,omitempty"`
	Deaths *int `json:"deaths,omitempty"`
	Score  *int `json:"score,omitempty"`
}
