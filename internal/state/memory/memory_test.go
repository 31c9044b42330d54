// internal/state/memory/memory_test.go
package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/starforge-games/liveops/internal/models"
	"github.com/starforge-games/liveops/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLobby() *models.ActiveLobby {
	return &models.ActiveLobby{
		ID:         uuid.New(),
		Name:       "test",
		MaxPlayers: 4,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestAtomicRollsBackEveryTable(t *testing.T) {
	s := New()
	ctx := context.Background()

	lobby := newLobby()
	require.NoError(t, s.CreateLobby(ctx, lobby))

	injected := fmt.Errorf("%w: boom", state.ErrInternal)
	err := s.Atomic(ctx, func(tx state.Store) error {
		session := &models.ActiveSession{
			ID:           uuid.New(),
			LobbyID:      lobby.ID,
			PlayerName:   "alice",
			SessionToken: "tok-1",
			ConnectedAt:  time.Now().UTC(),
		}
		if err := tx.CreateSession(ctx, session); err != nil {
			return err
		}
		if err := tx.AdjustLobbyPlayerCount(ctx, lobby.ID, 1); err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, &models.EventLog{
			ID: uuid.New(), EventType: models.EventPlayerKicked, Timestamp: time.Now(),
		}); err != nil {
			return err
		}
		return injected
	})
	require.ErrorIs(t, err, state.ErrInternal)

	got, err := s.GetLobby(ctx, lobby.ID)
	require.NoError(t, err)
	assert.Zero(t, got.PlayerCount)
	sessions, err := s.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	events, err := s.ListEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestAtomicCommits(t *testing.T) {
	s := New()
	ctx := context.Background()
	lobby := newLobby()
	require.NoError(t, s.CreateLobby(ctx, lobby))

	err := s.Atomic(ctx, func(tx state.Store) error {
		return tx.AdjustLobbyPlayerCount(ctx, lobby.ID, 1)
	})
	require.NoError(t, err)

	got, err := s.GetLobby(ctx, lobby.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.PlayerCount)
}

func TestDuplicateSessionTokenConflicts(t *testing.T) {
	s := New()
	ctx := context.Background()
	lobby := newLobby()
	require.NoError(t, s.CreateLobby(ctx, lobby))

	mk := func() *models.ActiveSession {
		return &models.ActiveSession{
			ID:           uuid.New(),
			LobbyID:      lobby.ID,
			PlayerName:   "alice",
			SessionToken: "same-token",
			ConnectedAt:  time.Now(),
		}
	}
	require.NoError(t, s.CreateSession(ctx, mk()))
	err := s.CreateSession(ctx, mk())
	require.ErrorIs(t, err, state.ErrConflict)
}

func TestNegativePlayerCountRejected(t *testing.T) {
	s := New()
	ctx := context.Background()
	lobby := newLobby()
	require.NoError(t, s.CreateLobby(ctx, lobby))

	err := s.AdjustLobbyPlayerCount(ctx, lobby.ID, -1)
	require.Error(t, err)
	got, err := s.GetLobby(ctx, lobby.ID)
	require.NoError(t, err)
	assert.Zero(t, got.PlayerCount)
}

func TestFindActiveBansExpiry(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now().UTC()

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	for _, b := range []*models.BannedPlayer{
		{ID: uuid.New(), PlayerName: "alice", Reason: "expired", BannedAt: past, ExpiresAt: &past},
		{ID: uuid.New(), PlayerName: "alice", Reason: "active", BannedAt: past, ExpiresAt: &future},
		{ID: uuid.New(), PlayerName: "bob", Reason: "permanent", BannedAt: past},
	} {
		require.NoError(t, s.CreateBan(ctx, b))
	}

	bans, err := s.FindActiveBans(ctx, "alice", nil, now)
	require.NoError(t, err)
	require.Len(t, bans, 1)
	assert.Equal(t, "active", bans[0].Reason)

	bans, err = s.FindActiveBans(ctx, "bob", nil, now)
	require.NoError(t, err)
	assert.Len(t, bans, 1)

	all, err := s.ListBans(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGetStats(t *testing.T) {
	s := New()
	ctx := context.Background()

	lobby := newLobby()
	require.NoError(t, s.CreateLobby(ctx, lobby))
	require.NoError(t, s.CreateSession(ctx, &models.ActiveSession{
		ID: uuid.New(), LobbyID: lobby.ID, PlayerName: "alice",
		SessionToken: "tok", ConnectedAt: time.Now(),
	}))
	require.NoError(t, s.CreateBan(ctx, &models.BannedPlayer{
		ID: uuid.New(), PlayerName: "bob", Reason: "x", BannedAt: time.Now(),
	}))

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ActiveLobbies)
	assert.Equal(t, 1, stats.ActivePlayers)
	assert.Equal(t, 1, stats.BannedCount)
}
