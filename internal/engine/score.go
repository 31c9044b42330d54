// internal/engine/score.go
package engine

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/starforge-games/liveops/internal/models"
	"github.com/starforge-games/liveops/internal/state"
)

// ApplyScore merges a partial score report into a session's live score.
// Only the fields the report carries are replaced; absent fields keep their
// current value. Reports are last-writer-wins, there is no accumulation
// here: the game server always sends absolute values.
func (e *Engine) ApplyScore(ctx context.Context, sessionID uuid.UUID, upd models.ScoreUpdate) (*models.PlayerScore, error) {
	var score *models.PlayerScore
	err := e.store.Atomic(ctx, func(tx state.Store) error {
		var err error
		score, err = tx.GetScoreBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		if upd.Kills != nil {
			score.Kills = *upd.Kills
		}
		if upd.Deaths != nil {
			score.Deaths = *upd.Deaths
		}
		if upd.Score != nil {
			score.Score = *upd.Score
		}
		score.UpdatedAt = time.Now().UTC()
		return tx.SaveScore(ctx, score)
	})
	if err != nil {
		return nil, err
	}
	return score, nil
}

// LeaderboardEntry is one row of a lobby's live standings.
type LeaderboardEntry struct {
	SessionID  uuid.UUID `json:"session_id"`
	PlayerName string    `json:"player_name"`
	Kills      int       `json:"kills"`
	Deaths     int       `json:"deaths"`
	Score      int       `json:"score"`
}

// Leaderboard returns a lobby's current standings, highest score first with
// kills breaking ties.
func (e *Engine) Leaderboard(ctx context.Context, lobbyID uuid.UUID) ([]LeaderboardEntry, error) {
	if _, err := e.store.GetLobby(ctx, lobbyID); err != nil {
		return nil, err
	}
	rows, err := e.store.ListLobbyScores(ctx, lobbyID)
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, LeaderboardEntry{
			SessionID:  r.Session.ID,
			PlayerName: r.Session.PlayerName,
			Kills:      r.Score.Kills,
			Deaths:     r.Score.Deaths,
			Score:      r.Score.Score,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Kills > entries[j].Kills
	})
	return entries, nil
}
