// internal/models/match.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchHistory is an immutable record of one player's participation in a
// finished match, written exactly once at finalization.
type MatchHistory struct {
	ID         uuid.UUID  `json:"id"`
	AccountID  *uuid.UUID `json:"account_id,omitempty"`
	PlayerName string     `json:"player_name"`
	LobbyID    uuid.UUID  `json:"lobby_id"`
	Kills      int        `json:"kills"`
	Deaths     int        `json:"deaths"`
	Score      int        `json:"score"`
	MatchDate  time.Time  `json:"match_date"`
}
