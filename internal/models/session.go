// internal/models/session.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// ActiveSession is one connected player's occupancy of a lobby. A session is
// exclusively owned by its lobby: destroying the lobby destroys the session.
// AccountID is nil for guest players.
type ActiveSession struct {
	ID           uuid.UUID  `json:"id"`
	AccountID    *uuid.UUID `json:"account_id,omitempty"`
	PlayerName   string     `json:"player_name"`
	LobbyID      uuid.UUID  `json:"lobby_id"`
	SessionToken string     `json:"session_token"`
	IPAddress    string     `json:"ip_address,omitempty"`
	ConnectedAt  time.Time  `json:"connected_at"`
}
