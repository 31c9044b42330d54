// internal/engine/finalize.go
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/starforge-games/liveops/internal/models"
	"github.com/starforge-games/liveops/internal/state"
)

// Finalize archives a finished match and retires its lobby in one
// transaction: every session's final score becomes a match_history row,
// authenticated players get the totals added to their account, then scores,
// sessions and the lobby itself are deleted. Calling it twice for the same
// lobby is safe: the second call finds no lobby and reports not-found
// without touching anything, so totals can never be double-counted.
func (e *Engine) Finalize(ctx context.Context, lobbyID uuid.UUID) (int, error) {
	archived := 0
	err := e.store.Atomic(ctx, func(tx state.Store) error {
		if _, err := tx.GetLobby(ctx, lobbyID); err != nil {
			return err
		}
		rows, err := tx.ListLobbyScores(ctx, lobbyID)
		if err != nil {
			return err
		}
		matchDate := time.Now().UTC()
		for _, r := range rows {
			rec := &models.MatchHistory{
				ID:         uuid.New(),
				AccountID:  r.Session.AccountID,
				PlayerName: r.Session.PlayerName,
				LobbyID:    lobbyID,
				Kills:      r.Score.Kills,
				Deaths:     r.Score.Deaths,
				Score:      r.Score.Score,
				MatchDate:  matchDate,
			}
			if err := tx.CreateMatchRecord(ctx, rec); err != nil {
				return err
			}
			if r.Session.AccountID != nil {
				if err := tx.AddAccountTotals(ctx, *r.Session.AccountID, r.Score.Kills, r.Score.Deaths, r.Score.Score); err != nil {
					return err
				}
			}
			archived++
		}
		if err := tx.DeleteLobbyScores(ctx, lobbyID); err != nil {
			return err
		}
		if err := tx.DeleteLobbySessions(ctx, lobbyID); err != nil {
			return err
		}
		return tx.DeleteLobby(ctx, lobbyID)
	})
	if err != nil {
		archived = 0
		return 0, err
	}
	e.log.WithFields(logrus.Fields{
		"lobby_id": lobbyID,
		"archived": archived,
	}).Info("match finalized")
	return archived, nil
}

// ReapIdleLobbies finalizes lobbies that have sat empty longer than idleFor.
// Called by the janitor; each reaped lobby gets its own audit event.
func (e *Engine) ReapIdleLobbies(ctx context.Context, idleFor time.Duration) (int, error) {
	lobbies, err := e.store.ListLobbies(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().UTC().Add(-idleFor)
	reaped := 0
	for _, l := range lobbies {
		if l.PlayerCount != 0 || !l.CreatedAt.Before(cutoff) {
			continue
		}
		if _, err := e.Finalize(ctx, l.ID); err != nil {
			e.log.WithField("lobby_id", l.ID).Warnf("janitor finalize failed: %v", err)
			continue
		}
		ev := newEvent(models.EventLobbyReaped,
			fmt.Sprintf("idle lobby %q (%s) reaped", l.Name, l.ID), Actor{Username: "janitor"})
		if err := e.store.AppendEvent(ctx, ev); err != nil {
			e.log.Warnf("event append failed after reap: %v", err)
		} else {
			e.publishAudit(ctx, ev)
		}
		reaped++
	}
	return reaped, nil
}
