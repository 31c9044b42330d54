// internal/engine/engine_test.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/starforge-games/liveops/internal/auth"
	"github.com/starforge-games/liveops/internal/models"
	"github.com/starforge-games/liveops/internal/state"
	"github.com/starforge-games/liveops/internal/state/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := auth.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// mockGateway records authority calls and can be told to fail.
type mockGateway struct {
	mu          sync.Mutex
	failCreate  bool
	failStop    bool
	nextID      int64
	createCalls int
	stopCalls   []int64
}

func (m *mockGateway) RequestCreate(ctx context.Context, name string, maxPlayers int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.failCreate {
		return 0, fmt.Errorf("%w: game server unreachable", state.ErrUpstream)
	}
	m.nextID++
	return m.nextID, nil
}

func (m *mockGateway) RequestStop(ctx context.Context, externalLobbyID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalls = append(m.stopCalls, externalLobbyID)
	if m.failStop {
		return fmt.Errorf("%w: game server unreachable", state.ErrUpstream)
	}
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *memory.Store, *mockGateway) {
	t.Helper()
	store := memory.New()
	gw := &mockGateway{}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return New(store, gw, logger), store, gw
}

func mustLobby(t *testing.T, e *Engine) *models.ActiveLobby {
	t.Helper()
	lobby, err := e.CreateLobby(context.Background(), "Deathmatch", 4, nil, nil)
	require.NoError(t, err)
	return lobby
}

func TestCreateLobbyValidation(t *testing.T) {
	e, _, _ := newTestEngine(t)
	_, err := e.CreateLobby(context.Background(), "   ", 4, nil, nil)
	require.ErrorIs(t, err, state.ErrValidation)
}

func TestJoinCreatesSessionScoreAndCounter(t *testing.T) {
	e, store, _ := newTestEngine(t)
	ctx := context.Background()
	lobby := mustLobby(t, e)

	session, err := e.JoinLobby(ctx, lobby.ID, "alice", nil, "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.SessionToken)
	assert.Equal(t, lobby.ID, session.LobbyID)

	score, err := store.GetScoreBySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Zero(t, score.Kills)
	assert.Zero(t, score.Deaths)
	assert.Zero(t, score.Score)

	got, err := store.GetLobby(ctx, lobby.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.PlayerCount)
}

func TestJoinUnknownLobby(t *testing.T) {
	e, _, _ := newTestEngine(t)
	_, err := e.JoinLobby(context.Background(), uuid.New(), "alice", nil, "")
	require.ErrorIs(t, err, state.ErrNotFound)
}

func TestJoinRejectsBannedName(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	lobby := mustLobby(t, e)

	_, err := e.Ban(ctx, "cheater", "aimbot", nil, nil, Actor{Username: "ops"})
	require.NoError(t, err)

	_, err = e.JoinLobby(ctx, lobby.ID, "cheater", nil, "")
	require.ErrorIs(t, err, state.ErrBanned)
}

func TestJoinRejectsBannedAccount(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	lobby := mustLobby(t, e)
	accountID := uuid.New()

	_, err := e.Ban(ctx, "someone", "smurfing", &accountID, nil, Actor{Username: "ops"})
	require.NoError(t, err)

	// Different name, same account.
	_, err = e.JoinLobby(ctx, lobby.ID, "fresh_face", &accountID, "")
	require.ErrorIs(t, err, state.ErrBanned)
}

func TestExpiredBanDoesNotBlockJoin(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	lobby := mustLobby(t, e)

	past := time.Now().UTC().Add(-time.Hour)
	_, err := e.Ban(ctx, "reformed", "old offense", nil, &past, Actor{Username: "ops"})
	require.NoError(t, err)

	_, err = e.JoinLobby(ctx, lobby.ID, "reformed", nil, "")
	require.NoError(t, err)

	banned, err := e.IsBanned(ctx, "reformed", nil)
	require.NoError(t, err)
	assert.False(t, banned)
}

func TestKickRemovesSessionScoreAndDecrements(t *testing.T) {
	e, store, _ := newTestEngine(t)
	ctx := context.Background()
	lobby := mustLobby(t, e)

	s1, err := e.JoinLobby(ctx, lobby.ID, "alice", nil, "")
	require.NoError(t, err)
	_, err = e.JoinLobby(ctx, lobby.ID, "bob", nil, "")
	require.NoError(t, err)

	require.NoError(t, e.KickSession(ctx, s1.ID, Actor{Username: "ops"}))

	_, err = store.GetSession(ctx, s1.ID)
	assert.ErrorIs(t, err, state.ErrNotFound)
	_, err = store.GetScoreBySession(ctx, s1.ID)
	assert.ErrorIs(t, err, state.ErrNotFound)

	got, err := store.GetLobby(ctx, lobby.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.PlayerCount)

	events, err := store.ListEvents(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, models.EventPlayerKicked, events[0].EventType)
}

func TestKickUnknownSession(t *testing.T) {
	e, _, _ := newTestEngine(t)
	err := e.KickSession(context.Background(), uuid.New(), Actor{Username: "ops"})
	require.ErrorIs(t, err, state.ErrNotFound)
}

func TestApplyScorePartialUpdate(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	lobby := mustLobby(t, e)
	session, err := e.JoinLobby(ctx, lobby.ID, "alice", nil, "")
	require.NoError(t, err)

	kills, scoreVal := 5, 1200
	score, err := e.ApplyScore(ctx, session.ID, models.ScoreUpdate{Kills: &kills, Score: &scoreVal})
	require.NoError(t, err)
	assert.Equal(t, 5, score.Kills)
	assert.Equal(t, 0, score.Deaths)
	assert.Equal(t, 1200, score.Score)

	// A later report that only carries deaths must not clobber the rest.
	deaths := 2
	score, err = e.ApplyScore(ctx, session.ID, models.ScoreUpdate{Deaths: &deaths})
	require.NoError(t, err)
	assert.Equal(t, 5, score.Kills)
	assert.Equal(t, 2, score.Deaths)
	assert.Equal(t, 1200, score.Score)
}

func TestApplyScoreUnknownSession(t *testing.T) {
	e, _, _ := newTestEngine(t)
	kills := 1
	_, err := e.ApplyScore(context.Background(), uuid.New(), models.ScoreUpdate{Kills: &kills})
	require.ErrorIs(t, err, state.ErrNotFound)
}

func TestFinalizeArchivesAndRetires(t *testing.T) {
	e, store, _ := newTestEngine(t)
	ctx := context.Background()
	lobby := mustLobby(t, e)

	accountID := uuid.New()
	require.NoError(t, store.CreateAccount(ctx, &models.Account{
		ID: accountID, Username: "alice", Email: "alice@example.com", CreatedAt: time.Now(),
	}))

	s1, err := e.JoinLobby(ctx, lobby.ID, "alice", &accountID, "")
	require.NoError(t, err)
	_, err = e.JoinLobby(ctx, lobby.ID, "guest", nil, "")
	require.NoError(t, err)

	kills, deaths, scoreVal := 7, 3, 900
	_, err = e.ApplyScore(ctx, s1.ID, models.ScoreUpdate{Kills: &kills, Deaths: &deaths, Score: &scoreVal})
	require.NoError(t, err)

	archived, err := e.Finalize(ctx, lobby.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, archived)

	_, err = store.GetLobby(ctx, lobby.ID)
	assert.ErrorIs(t, err, state.ErrNotFound)
	sessions, err := store.ListLobbySessions(ctx, lobby.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	account, err := store.GetAccount(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, 7, account.TotalKills)
	assert.Equal(t, 3, account.TotalDeaths)
	assert.Equal(t, 900, account.TotalScore)

	matches, err := store.ListAccountMatches(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "alice", matches[0].PlayerName)
	assert.Equal(t, 900, matches[0].Score)
}

func TestFinalizeIsIdempotent(t *testing.T) {
	e, store, _ := newTestEngine(t)
	ctx := context.Background()
	lobby := mustLobby(t, e)

	accountID := uuid.New()
	require.NoError(t, store.CreateAccount(ctx, &models.Account{
		ID: accountID, Username: "alice", Email: "alice@example.com", CreatedAt: time.Now(),
	}))
	s1, err := e.JoinLobby(ctx, lobby.ID, "alice", &accountID, "")
	require.NoError(t, err)
	scoreVal := 100
	_, err = e.ApplyScore(ctx, s1.ID, models.ScoreUpdate{Score: &scoreVal})
	require.NoError(t, err)

	_, err = e.Finalize(ctx, lobby.ID)
	require.NoError(t, err)

	// Second call must find nothing and change nothing.
	_, err = e.Finalize(ctx, lobby.ID)
	require.ErrorIs(t, err, state.ErrNotFound)

	account, err := store.GetAccount(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, 100, account.TotalScore)
	matches, err := store.ListAccountMatches(ctx, accountID)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestFinalizeEmptyLobby(t *testing.T) {
	e, store, _ := newTestEngine(t)
	ctx := context.Background()
	lobby := mustLobby(t, e)

	archived, err := e.Finalize(ctx, lobby.ID)
	require.NoError(t, err)
	assert.Zero(t, archived)
	_, err = store.GetLobby(ctx, lobby.ID)
	assert.ErrorIs(t, err, state.ErrNotFound)
}

// faultStore wraps a Store and fails the Nth write inside a transaction, to
// prove multi-entity mutations roll back as a unit.
type faultStore struct {
	state.Store
	mu        sync.Mutex
	failAfter int
	writes    int
}

func (f *faultStore) Atomic(ctx context.Context, fn func(state.Store) error) error {
	return f.Store.Atomic(ctx, func(tx state.Store) error {
		return fn(&faultTx{Store: tx, parent: f})
	})
}

type faultTx struct {
	state.Store
	parent *faultStore
}

func (f *faultTx) bump() error {
	f.parent.mu.Lock()
	defer f.parent.mu.Unlock()
	f.parent.writes++
	if f.parent.writes >= f.parent.failAfter {
		return fmt.Errorf("%w: injected fault", state.ErrInternal)
	}
	return nil
}

func (f *faultTx) CreateScore(ctx context.Context, score *models.PlayerScore) error {
	if err := f.bump(); err != nil {
		return err
	}
	return f.Store.CreateScore(ctx, score)
}

func (f *faultTx) AdjustLobbyPlayerCount(ctx context.Context, lobbyID uuid.UUID, delta int) error {
	if err := f.bump(); err != nil {
		return err
	}
	return f.Store.AdjustLobbyPlayerCount(ctx, lobbyID, delta)
}

func TestJoinRollsBackOnMidTransactionFailure(t *testing.T) {
	mem := memory.New()
	fs := &faultStore{Store: mem, failAfter: 1}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	e := New(fs, &mockGateway{}, logger)
	ctx := context.Background()

	lobby, err := e.CreateLobby(ctx, "Deathmatch", 4, nil, nil)
	require.NoError(t, err)

	_, err = e.JoinLobby(ctx, lobby.ID, "alice", nil, "")
	require.Error(t, err)
	require.NotErrorIs(t, err, state.ErrConflict)

	// Nothing may survive: no session, no score, counter untouched.
	sessions, err := mem.ListLobbySessions(ctx, lobby.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	got, err := mem.GetLobby(ctx, lobby.ID)
	require.NoError(t, err)
	assert.Zero(t, got.PlayerCount)
}

func TestAdminCreateLobbyFailClosed(t *testing.T) {
	e, store, gw := newTestEngine(t)
	gw.failCreate = true
	ctx := context.Background()

	_, err := e.AdminCreateLobby(ctx, "Ranked", 4, Actor{Username: "ops"})
	require.ErrorIs(t, err, state.ErrUpstream)

	// Fail-closed: no lobby row, no event.
	lobbies, err := store.ListLobbies(ctx)
	require.NoError(t, err)
	assert.Empty(t, lobbies)
	events, err := store.ListEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestAdminCreateLobbySuccess(t *testing.T) {
	e, store, gw := newTestEngine(t)
	ctx := context.Background()

	extID, err := e.AdminCreateLobby(ctx, "Ranked", 6, Actor{Username: "ops"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), extID)
	assert.Equal(t, 1, gw.createCalls)

	// The authority announces the lobby itself; only the audit row lands here.
	lobbies, err := store.ListLobbies(ctx)
	require.NoError(t, err)
	assert.Empty(t, lobbies)
	events, err := store.ListEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventLobbyCreated, events[0].EventType)
}

func TestStopLobbyFailOpen(t *testing.T) {
	e, store, gw := newTestEngine(t)
	gw.failStop = true
	ctx := context.Background()

	extID := int64(42)
	lobby, err := e.CreateLobby(ctx, "Doomed", 4, nil, &extID)
	require.NoError(t, err)
	_, err = e.JoinLobby(ctx, lobby.ID, "alice", nil, "")
	require.NoError(t, err)

	// Authority is down; local teardown must still complete.
	require.NoError(t, e.StopLobby(ctx, lobby.ID, Actor{Username: "ops"}))
	assert.Equal(t, []int64{42}, gw.stopCalls)

	_, err = store.GetLobby(ctx, lobby.ID)
	assert.ErrorIs(t, err, state.ErrNotFound)
	sessions, err := store.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestStopLobbySkipsGatewayWithoutExternalID(t *testing.T) {
	e, _, gw := newTestEngine(t)
	ctx := context.Background()
	lobby := mustLobby(t, e)

	require.NoError(t, e.StopLobby(ctx, lobby.ID, Actor{Username: "ops"}))
	assert.Empty(t, gw.stopCalls)
}

func TestUnban(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	ban, err := e.Ban(ctx, "cheater", "aimbot", nil, nil, Actor{Username: "ops"})
	require.NoError(t, err)

	banned, err := e.IsBanned(ctx, "cheater", nil)
	require.NoError(t, err)
	assert.True(t, banned)

	require.NoError(t, e.Unban(ctx, ban.ID, Actor{Username: "ops"}))

	banned, err = e.IsBanned(ctx, "cheater", nil)
	require.NoError(t, err)
	assert.False(t, banned)

	err = e.Unban(ctx, ban.ID, Actor{Username: "ops"})
	require.ErrorIs(t, err, state.ErrNotFound)
}

func TestLeaderboardOrdering(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	lobby := mustLobby(t, e)

	for i, name := range []string{"alice", "bob", "carol"} {
		s, err := e.JoinLobby(ctx, lobby.ID, name, nil, "")
		require.NoError(t, err)
		scoreVal := (i + 1) * 100
		_, err = e.ApplyScore(ctx, s.ID, models.ScoreUpdate{Score: &scoreVal})
		require.NoError(t, err)
	}

	entries, err := e.Leaderboard(ctx, lobby.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "carol", entries[0].PlayerName)
	assert.Equal(t, "bob", entries[1].PlayerName)
	assert.Equal(t, "alice", entries[2].PlayerName)
}

func TestReapIdleLobbies(t *testing.T) {
	e, store, _ := newTestEngine(t)
	ctx := context.Background()

	stale := &models.ActiveLobby{
		ID:         uuid.New(),
		Name:       "abandoned",
		MaxPlayers: 4,
		CreatedAt:  time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, store.CreateLobby(ctx, stale))
	fresh := mustLobby(t, e)
	// Old but occupied; it must survive because of its player.
	occupied := &models.ActiveLobby{
		ID:         uuid.New(),
		Name:       "busy",
		MaxPlayers: 4,
		CreatedAt:  time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, store.CreateLobby(ctx, occupied))
	_, err := e.JoinLobby(ctx, occupied.ID, "alice", nil, "")
	require.NoError(t, err)

	reaped, err := e.ReapIdleLobbies(ctx, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, reaped)

	_, err = store.GetLobby(ctx, stale.ID)
	assert.ErrorIs(t, err, state.ErrNotFound)
	_, err = store.GetLobby(ctx, fresh.ID)
	assert.NoError(t, err)
	_, err = store.GetLobby(ctx, occupied.ID)
	assert.NoError(t, err)
}

func TestPlayerCountMatchesSessions(t *testing.T) {
	e, store, _ := newTestEngine(t)
	ctx := context.Background()
	lobby := mustLobby(t, e)

	var kicked uuid.UUID
	for i := 0; i < 4; i++ {
		s, err := e.JoinLobby(ctx, lobby.ID, fmt.Sprintf("p%d", i), nil, "")
		require.NoError(t, err)
		if i == 0 {
			kicked = s.ID
		}
	}
	require.NoError(t, e.KickSession(ctx, kicked, Actor{Username: "ops"}))

	got, err := store.GetLobby(ctx, lobby.ID)
	require.NoError(t, err)
	sessions, err := store.ListLobbySessions(ctx, lobby.ID)
	require.NoError(t, err)
	assert.Equal(t, len(sessions), got.PlayerCount)
}

func TestRegisterAndLogin(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Register(ctx, "alice", "not-an-email", "password123")
	require.ErrorIs(t, err, state.ErrValidation)
	_, err = e.Register(ctx, "alice", "alice@example.com", "short")
	require.ErrorIs(t, err, state.ErrValidation)

	account, err := e.Register(ctx, "alice", "Alice@Example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", account.Email)
	assert.NotEqual(t, "password123", account.PasswordHash)

	_, err = e.Register(ctx, "alice2", "alice@example.com", "password123")
	require.ErrorIs(t, err, state.ErrConflict)

	_, _, err = e.Login(ctx, "alice@example.com", "wrong-password")
	require.ErrorIs(t, err, state.ErrNotFound)

	got, token, err := e.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)
	assert.NotEmpty(t, token)
}

func TestErrorTaxonomyIsDisjoint(t *testing.T) {
	sentinels := []error{
		state.ErrValidation, state.ErrNotFound, state.ErrConflict,
		state.ErrUpstream, state.ErrInternal, state.ErrBanned,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
		}
	}
}
