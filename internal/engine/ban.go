// internal/engine/ban.go
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/starforge-games/liveops/internal/models"
	"github.com/starforge-games/liveops/internal/state"
)

// Ban records a ban against a player name, optionally pinned to an account
// and optionally expiring. Already-connected sessions under the name keep
// playing; the ban bites on their next join attempt.
func (e *Engine) Ban(ctx context.Context, playerName, reason string, accountID *uuid.UUID, expiresAt *time.Time, actor Actor) (*models.BannedPlayer, error) {
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return nil, fmt.Errorf("%w: player name is required", state.ErrValidation)
	}
	if strings.TrimSpace(reason) == "" {
		reason = "No reason provided"
	}

	ban := &models.BannedPlayer{
		ID:         uuid.New(),
		PlayerName: playerName,
		AccountID:  accountID,
		Reason:     reason,
		BannedBy:   actor.Username,
		BannedAt:   time.Now().UTC(),
		ExpiresAt:  expiresAt,
	}

	var ev *models.EventLog
	err := e.store.Atomic(ctx, func(tx state.Store) error {
		if err := tx.CreateBan(ctx, ban); err != nil {
			return err
		}
		ev = newEvent(models.EventPlayerBanned,
			fmt.Sprintf("player %q banned by %s: %s", playerName, actor.Username, reason), actor)
		return tx.AppendEvent(ctx, ev)
	})
	if err != nil {
		return nil, err
	}
	e.publishAudit(ctx, ev)
	e.log.WithFields(logrus.Fields{
		"player_name": playerName,
		"admin":       actor.Username,
	}).Info("player banned")
	return ban, nil
}

// Unban lifts a ban by id.
func (e *Engine) Unban(ctx context.Context, banID uuid.UUID, actor Actor) error {
	var ev *models.EventLog
	err := e.store.Atomic(ctx, func(tx state.Store) error {
		ban, err := tx.GetBan(ctx, banID)
		if err != nil {
			return err
		}
		if err := tx.DeleteBan(ctx, banID); err != nil {
			return err
		}
		ev = newEvent(models.EventPlayerUnbanned,
			fmt.Sprintf("player %q unbanned by %s", ban.PlayerName, actor.Username), actor)
		return tx.AppendEvent(ctx, ev)
	})
	if err != nil {
		return err
	}
	e.publishAudit(ctx, ev)
	return nil
}

// IsBanned reports whether the name or account currently has an active ban.
// Expired bans stay on record but no longer match.
func (e *Engine) IsBanned(ctx context.Context, playerName string, accountID *uuid.UUID) (bool, error) {
	bans, err := e.store.FindActiveBans(ctx, strings.TrimSpace(playerName), accountID, time.Now().UTC())
	if err != nil {
		return false, err
	}
	return len(bans) > 0, nil
}

// ListBans returns every ban on record, active or expired.
func (e *Engine) ListBans(ctx context.Context) ([]models.BannedPlayer, error) {
	return e.store.ListBans(ctx)
}
