// internal/engine/views.go
package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/starforge-games/liveops/internal/models"
	"github.com/starforge-games/liveops/internal/state"
)

// PublicLobby is the unauthenticated projection of a live lobby: enough for
// a server browser, nothing that identifies sessions.
type PublicLobby struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	PlayerCount int       `json:"player_count"`
	MaxPlayers  int       `json:"max_players"`
	Players     []string  `json:"players"`
}

// PublicLobbies lists every live lobby with its player names.
func (e *Engine) PublicLobbies(ctx context.Context) ([]PublicLobby, error) {
	lobbies, err := e.store.ListLobbies(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PublicLobby, 0, len(lobbies))
	for _, l := range lobbies {
		sessions, err := e.store.ListLobbySessions(ctx, l.ID)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(sessions))
		for _, s := range sessions {
			names = append(names, s.PlayerName)
		}
		out = append(out, PublicLobby{
			ID:          l.ID,
			Name:        l.Name,
			PlayerCount: l.PlayerCount,
			MaxPlayers:  l.MaxPlayers,
			Players:     names,
		})
	}
	return out, nil
}

// LobbyDetail is the admin projection: the full lobby row plus its sessions.
type LobbyDetail struct {
	Lobby    models.ActiveLobby     `json:"lobby"`
	Sessions []models.ActiveSession `json:"sessions"`
}

// LobbyDetails lists every lobby with full session rows, for the admin panel.
func (e *Engine) LobbyDetails(ctx context.Context) ([]LobbyDetail, error) {
	lobbies, err := e.store.ListLobbies(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]LobbyDetail, 0, len(lobbies))
	for _, l := range lobbies {
		sessions, err := e.store.ListLobbySessions(ctx, l.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, LobbyDetail{Lobby: l, Sessions: sessions})
	}
	return out, nil
}

// LobbyPlayers returns every session in a lobby paired with its live score.
func (e *Engine) LobbyPlayers(ctx context.Context, lobbyID uuid.UUID) ([]state.SessionScore, error) {
	if _, err := e.store.GetLobby(ctx, lobbyID); err != nil {
		return nil, err
	}
	return e.store.ListLobbyScores(ctx, lobbyID)
}

// AccountMatches returns an account's archived match history, newest first.
func (e *Engine) AccountMatches(ctx context.Context, accountID uuid.UUID) ([]models.MatchHistory, error) {
	return e.store.ListAccountMatches(ctx, accountID)
}

// Events returns the most recent audit events, newest first.
func (e *Engine) Events(ctx context.Context, limit int) ([]models.EventLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return e.store.ListEvents(ctx, limit)
}

// Stats returns the service-wide counters shown on the admin dashboard.
func (e *Engine) Stats(ctx context.Context) (*state.Stats, error) {
	return e.store.GetStats(ctx)
}
