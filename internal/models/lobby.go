// internal/models/lobby.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// ActiveLobby is one currently-running match instance.
//
// PlayerCount is a cached denormalization of the live session count. It must
// equal count(ActiveSession where lobby_id = ID) at all times; only the
// lifecycle operations (join, kick, stop, finalize) may adjust it.
type ActiveLobby struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Port        *int      `json:"port,omitempty"`
	MaxPlayers  int       `json:"max_players"`
	PlayerCount int       `json:"player_count"`

	// ExternalID is the authoritative game process's own identifier for this
	// lobby, reported when the authority syncs the lobby in. Nil for lobbies
	// the authority never claimed.
	ExternalID *int64 `json:"external_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
