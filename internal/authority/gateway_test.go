// internal/authority/gateway_test.go
package authority

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starforge-games/liveops/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestCreateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/admin/lobby/create", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ranked", body["name"])
		assert.EqualValues(t, 6, body["max_players"])
		json.NewEncoder(w).Encode(map[string]any{"success": true, "lobby_id": 7})
	}))
	defer srv.Close()

	g := NewHTTPGatewayFor(srv.URL, time.Second)
	id, err := g.RequestCreate(context.Background(), "Ranked", 6)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestRequestCreateRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "at capacity"})
	}))
	defer srv.Close()

	g := NewHTTPGatewayFor(srv.URL, time.Second)
	_, err := g.RequestCreate(context.Background(), "Ranked", 6)
	require.ErrorIs(t, err, state.ErrUpstream)
}

func TestRequestCreateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewHTTPGatewayFor(srv.URL, time.Second)
	_, err := g.RequestCreate(context.Background(), "Ranked", 6)
	require.ErrorIs(t, err, state.ErrUpstream)
}

func TestRequestCreateUnreachable(t *testing.T) {
	g := NewHTTPGatewayFor("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := g.RequestCreate(context.Background(), "Ranked", 6)
	require.ErrorIs(t, err, state.ErrUpstream)
}

func TestRequestStop(t *testing.T) {
	var gotID float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/lobby/stop", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotID = body["lobby_id"].(float64)
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	g := NewHTTPGatewayFor(srv.URL, time.Second)
	require.NoError(t, g.RequestStop(context.Background(), 42))
	assert.EqualValues(t, 42, gotID)
}

func TestRequestStopTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	g := NewHTTPGatewayFor(srv.URL, 50*time.Millisecond)
	err := g.RequestStop(context.Background(), 42)
	require.ErrorIs(t, err, state.ErrUpstream)
}
