// internal/engine/lobby.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/starforge-games/liveops/internal/models"
	"github.com/starforge-games/liveops/internal/state"
)

const defaultMaxPlayers = 4

// CreateLobby registers a lobby that the tracker learned about directly
// (an authority-announced lobby or a test fixture). No authority round trip
// happens here; for the admin-initiated path see AdminCreateLobby.
func (e *Engine) CreateLobby(ctx context.Context, name string, maxPlayers int, port *int, externalID *int64) (*models.ActiveLobby, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: lobby name is required", state.ErrValidation)
	}
	if maxPlayers <= 0 {
		maxPlayers = defaultMaxPlayers
	}
	lobby := &models.ActiveLobby{
		ID:          uuid.New(),
		Name:        name,
		MaxPlayers:  maxPlayers,
		PlayerCount: 0,
		Port:        port,
		ExternalID:  externalID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := e.store.CreateLobby(ctx, lobby); err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"lobby_id":    lobby.ID,
		"lobby_name":  lobby.Name,
		"max_players": lobby.MaxPlayers,
	}).Info("lobby registered")
	return lobby, nil
}

// AdminCreateLobby asks the authority to spin up a real lobby. The call is
// fail-closed: if the authority cannot be reached or refuses, nothing is
// recorded and the error surfaces to the caller. On success the authority
// announces the new lobby back through the ingest endpoint shortly after,
// so only the audit event is written here.
func (e *Engine) AdminCreateLobby(ctx context.Context, name string, maxPlayers int, actor Actor) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: lobby name is required", state.ErrValidation)
	}
	if maxPlayers <= 0 {
		maxPlayers = defaultMaxPlayers
	}
	if e.gw == nil {
		return 0, fmt.Errorf("%w: no game server configured", state.ErrUpstream)
	}
	extID, err := e.gw.RequestCreate(ctx, name, maxPlayers)
	if err != nil {
		return 0, err
	}
	ev := newEvent(models.EventLobbyCreated,
		fmt.Sprintf("lobby %q (#%d, max %d) created by %s", name, extID, maxPlayers, actor.Username), actor)
	if err := e.store.AppendEvent(ctx, ev); err != nil {
		e.log.Warnf("event append failed after lobby create: %v", err)
	} else {
		e.publishAudit(ctx, ev)
	}
	e.log.WithFields(logrus.Fields{
		"external_id": extID,
		"lobby_name":  name,
		"admin":       actor.Username,
	}).Info("authority lobby created")
	return extID, nil
}

// JoinLobby admits a player into a lobby: one session row, its zeroed score
// row and the lobby counter bump land in a single transaction. Banned names
// or accounts are rejected before any write.
func (e *Engine) JoinLobby(ctx context.Context, lobbyID uuid.UUID, playerName string, accountID *uuid.UUID, ip string) (*models.ActiveSession, error) {
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return nil, fmt.Errorf("%w: player name is required", state.ErrValidation)
	}

	bans, err := e.store.FindActiveBans(ctx, playerName, accountID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if len(bans) > 0 {
		return nil, fmt.Errorf("%w: player %q is banned: %s", state.ErrBanned, playerName, bans[0].Reason)
	}

	var session *models.ActiveSession
	join := func(tx state.Store) error {
		if _, err := tx.GetLobby(ctx, lobbyID); err != nil {
			return err
		}
		now := time.Now().UTC()
		session = &models.ActiveSession{
			ID:           uuid.New(),
			LobbyID:      lobbyID,
			AccountID:    accountID,
			PlayerName:   playerName,
			SessionToken: newSessionToken(),
			IPAddress:    ip,
			ConnectedAt:  now,
		}
		if err := tx.CreateSession(ctx, session); err != nil {
			return err
		}
		score := &models.PlayerScore{
			ID:        uuid.New(),
			SessionID: session.ID,
			LobbyID:   lobbyID,
			UpdatedAt: now,
		}
		if err := tx.CreateScore(ctx, score); err != nil {
			return err
		}
		return tx.AdjustLobbyPlayerCount(ctx, lobbyID, 1)
	}

	err = e.store.Atomic(ctx, join)
	if errors.Is(err, state.ErrConflict) {
		// Token collision: regenerate and retry once.
		err = e.store.Atomic(ctx, join)
	}
	if err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"lobby_id":    lobbyID,
		"session_id":  session.ID,
		"player_name": playerName,
	}).Info("player joined lobby")
	return session, nil
}

// KickSession removes one player from their lobby: score and session rows go,
// the lobby counter drops, and the kick is recorded. Transactional, so the
// lobby counter can never drift from the surviving session rows.
func (e *Engine) KickSession(ctx context.Context, sessionID uuid.UUID, actor Actor) error {
	var ev *models.EventLog
	err := e.store.Atomic(ctx, func(tx state.Store) error {
		session, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := tx.DeleteScoreBySession(ctx, sessionID); err != nil && !errors.Is(err, state.ErrNotFound) {
			return err
		}
		if err := tx.DeleteSession(ctx, sessionID); err != nil {
			return err
		}
		if err := tx.AdjustLobbyPlayerCount(ctx, session.LobbyID, -1); err != nil {
			return err
		}
		ev = newEvent(models.EventPlayerKicked,
			fmt.Sprintf("player %q kicked from lobby %s by %s", session.PlayerName, session.LobbyID, actor.Username), actor)
		return tx.AppendEvent(ctx, ev)
	})
	if err != nil {
		return err
	}
	e.publishAudit(ctx, ev)
	e.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"admin":      actor.Username,
	}).Info("session kicked")
	return nil
}

// StopLobby tears a lobby down. The authority stop call is fail-open: a dead
// game server must not leave untearable state behind, so local cleanup
// proceeds regardless and the remote failure is recorded in the audit trail.
func (e *Engine) StopLobby(ctx context.Context, lobbyID uuid.UUID, actor Actor) error {
	lobby, err := e.store.GetLobby(ctx, lobbyID)
	if err != nil {
		return err
	}

	detail := fmt.Sprintf("lobby %q (%s) stopped by %s", lobby.Name, lobby.ID, actor.Username)
	if lobby.ExternalID != nil && e.gw != nil {
		if err := e.gw.RequestStop(ctx, *lobby.ExternalID); err != nil {
			e.log.WithField("lobby_id", lobbyID).Warnf("authority stop failed, cleaning up locally: %v", err)
			detail += " (authority unreachable)"
		}
	}

	var ev *models.EventLog
	err = e.store.Atomic(ctx, func(tx state.Store) error {
		if _, err := tx.GetLobby(ctx, lobbyID); err != nil {
			return err
		}
		if err := tx.DeleteLobbyScores(ctx, lobbyID); err != nil {
			return err
		}
		if err := tx.DeleteLobbySessions(ctx, lobbyID); err != nil {
			return err
		}
		if err := tx.DeleteLobby(ctx, lobbyID); err != nil {
			return err
		}
		ev = newEvent(models.EventLobbyStopped, detail, actor)
		return tx.AppendEvent(ctx, ev)
	})
	if err != nil {
		return err
	}
	e.publishAudit(ctx, ev)
	e.log.WithFields(logrus.Fields{
		"lobby_id": lobbyID,
		"admin":    actor.Username,
	}).Info("lobby stopped")
	return nil
}

// SyncPlayerCount overwrites a lobby's counter from an authority report.
// Sessions the tracker knows about remain untouched; this only reconciles
// the headline number when the authority is the fresher source.
func (e *Engine) SyncPlayerCount(ctx context.Context, lobbyID uuid.UUID, count int) error {
	if count < 0 {
		return fmt.Errorf("%w: player count cannot be negative", state.ErrValidation)
	}
	return e.store.SetLobbyPlayerCount(ctx, lobbyID, count)
}
