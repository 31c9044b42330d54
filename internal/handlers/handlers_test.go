// internal/handlers/handlers_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/starforge-games/liveops/internal/auth"
	"github.com/starforge-games/liveops/internal/engine"
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

type stubGateway struct {
	mu     sync.Mutex
	fail   bool
	nextID int64
}

func (g *stubGateway) RequestCreate(ctx context.Context, name string, maxPlayers int) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return 0, fmt.Errorf("%w: down", state.ErrUpstream)
	}
	g.nextID++
	return g.nextID, nil
}

func (g *stubGateway) RequestStop(ctx context.Context, externalLobbyID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return fmt.Errorf("%w: down", state.ErrUpstream)
	}
	return nil
}

type fixture struct {
	server     *httptest.Server
	store      *memory.Store
	engine     *engine.Engine
	gateway    *stubGateway
	adminToken string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	gw := &stubGateway{}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	eng := engine.New(store, gw, logger)

	adminID := uuid.New()
	require.NoError(t, store.CreateAdmin(context.Background(), &models.AdminAccount{
		ID: adminID, Username: "ops", PasswordHash: "x", Role: "admin", CreatedAt: time.Now(),
	}))
	token, err := auth.CreateJWT(adminID.String(), auth.RoleAdmin)
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(eng, logger).Routes())
	t.Cleanup(srv.Close)
	return &fixture{server: srv, store: store, engine: eng, gateway: gw, adminToken: token}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	var out map[string]any
	if res.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	}
	return res, out
}

func (f *fixture) mkLobby(t *testing.T) uuid.UUID {
	t.Helper()
	lobby, err := f.engine.CreateLobby(context.Background(), "Deathmatch", 4, nil, nil)
	require.NoError(t, err)
	return lobby.ID
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	res, body := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, true, body["success"])
}

func TestGameSessionAddAndPublicLobbies(t *testing.T) {
	f := newFixture(t)
	lobbyID := f.mkLobby(t)

	res, body := f.do(t, http.MethodPost, "/game/session/add", "", map[string]any{
		"lobby_id":    lobbyID,
		"player_name": "alice",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, true, body["success"])

	res, body = f.do(t, http.MethodGet, "/public/lobbies", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	lobbies := body["lobbies"].([]any)
	require.Len(t, lobbies, 1)
	first := lobbies[0].(map[string]any)
	assert.EqualValues(t, 1, first["player_count"])
	assert.Equal(t, []any{"alice"}, first["players"])
}

func TestGameSessionAddBannedReturns403(t *testing.T) {
	f := newFixture(t)
	lobbyID := f.mkLobby(t)
	_, err := f.engine.Ban(context.Background(), "cheater", "aimbot", nil, nil, engine.Actor{Username: "ops"})
	require.NoError(t, err)

	res, body := f.do(t, http.MethodPost, "/game/session/add", "", map[string]any{
		"lobby_id":    lobbyID,
		"player_name": "cheater",
	})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestGameScoreUpdateUnknownSession(t *testing.T) {
	f := newFixture(t)
	res, _ := f.do(t, http.MethodPost, "/game/score/update", "", map[string]any{
		"session_id": uuid.New(),
		"kills":      3,
	})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestPublicLeaderboard(t *testing.T) {
	f := newFixture(t)
	lobbyID := f.mkLobby(t)
	ctx := context.Background()
	s, err := f.engine.JoinLobby(ctx, lobbyID, "alice", nil, "")
	require.NoError(t, err)
	scoreVal := 500
	_, err = f.engine.ApplyScore(ctx, s.ID, models.ScoreUpdate{Score: &scoreVal})
	require.NoError(t, err)

	res, body := f.do(t, http.MethodGet, "/public/lobby/"+lobbyID.String()+"/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	entries := body["leaderboard"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].(map[string]any)["player_name"])

	res, _ = f.do(t, http.MethodGet, "/public/lobby/not-a-uuid/leaderboard", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestAdminRoutesRequireAdminToken(t *testing.T) {
	f := newFixture(t)

	res, _ := f.do(t, http.MethodGet, "/admin/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	playerToken, err := auth.CreateJWT(uuid.NewString(), auth.RolePlayer)
	require.NoError(t, err)
	res, _ = f.do(t, http.MethodGet, "/admin/stats", playerToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, body := f.do(t, http.MethodGet, "/admin/stats", f.adminToken, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, true, body["success"])
}

func TestAdminKickFlow(t *testing.T) {
	f := newFixture(t)
	lobbyID := f.mkLobby(t)
	s, err := f.engine.JoinLobby(context.Background(), lobbyID, "alice", nil, "")
	require.NoError(t, err)

	res, body := f.do(t, http.MethodPost, "/admin/kick", f.adminToken, map[string]any{
		"session_id": s.ID,
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, true, body["success"])

	res, _ = f.do(t, http.MethodPost, "/admin/kick", f.adminToken, map[string]any{
		"session_id": s.ID,
	})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestAdminLobbyCreateFailClosed(t *testing.T) {
	f := newFixture(t)
	f.gateway.fail = true

	res, body := f.do(t, http.MethodPost, "/admin/lobby/create", f.adminToken, map[string]any{
		"name":        "Ranked",
		"max_players": 4,
	})
	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestAdminBanAndUnban(t *testing.T) {
	f := newFixture(t)

	res, body := f.do(t, http.MethodPost, "/admin/ban", f.adminToken, map[string]any{
		"player_name": "cheater",
		"reason":      "aimbot",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	banID := body["ban"].(map[string]any)["id"].(string)

	res, body = f.do(t, http.MethodGet, "/admin/banned", f.adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, body["banned"].([]any), 1)

	res, _ = f.do(t, http.MethodPost, "/admin/unban", f.adminToken, map[string]any{
		"ban_id": banID,
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, body = f.do(t, http.MethodGet, "/admin/banned", f.adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, body["banned"])
}

func TestAuthRegisterLoginConnected(t *testing.T) {
	f := newFixture(t)

	res, _ := f.do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res, body := f.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	token := body["token"].(string)

	res, body = f.do(t, http.MethodGet, "/auth/connected", token, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, true, body["connected"])

	res, _ = f.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestGameFinalizeEndpoint(t *testing.T) {
	f := newFixture(t)
	lobbyID := f.mkLobby(t)
	_, err := f.engine.JoinLobby(context.Background(), lobbyID, "alice", nil, "")
	require.NoError(t, err)

	res, body := f.do(t, http.MethodPost, "/game/match/finalize", "", map[string]any{
		"lobby_id": lobbyID,
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.EqualValues(t, 1, body["archived"])

	res, _ = f.do(t, http.MethodPost, "/game/match/finalize", "", map[string]any{
		"lobby_id": lobbyID,
	})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestInvalidJSONBodyReturns400(t *testing.T) {
	f := newFixture(t)
	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/game/lobby/create", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}
