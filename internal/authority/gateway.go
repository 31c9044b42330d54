// internal/authority/gateway.go
//
// Package authority talks to the external game process that actually runs
// matches. It is an untrusted collaborator: every call carries a timeout and
// returns a structured result. Whether a failure aborts the caller (fail
// closed) or is merely logged (fail open) is the caller's policy, not this
// package's.
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/starforge-games/liveops/internal/state"
)

// Gateway is the control channel to the authoritative game process.
type Gateway interface {
	// RequestCreate asks the authority to start a lobby and returns its
	// external lobby id. An error means the lobby must not be assumed to
	// exist anywhere.
	RequestCreate(ctx context.Context, name string, maxPlayers int) (int64, error)

	// RequestStop asks the authority to tear a lobby down. An error means
	// the acknowledgement could not be obtained, not that local cleanup
	// should stop.
	RequestStop(ctx context.Context, externalLobbyID int64) error
}

// HTTPGateway implements Gateway over the authority's admin HTTP endpoints.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway reads GAME_SERVER_URL (default http://localhost:8082) and
// GAME_SERVER_TIMEOUT (default 3s) from the environment.
func NewHTTPGateway() *HTTPGateway {
	baseURL := os.Getenv("GAME_SERVER_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8082"
	}
	timeout := 3 * time.Second
	if raw := os.Getenv("GAME_SERVER_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			timeout = d
		}
	}
	return &HTTPGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// NewHTTPGatewayFor builds a gateway against an explicit base URL, used by
// tests and tools.
func NewHTTPGatewayFor(baseURL string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type createRequest struct {
	Name       string `json:"name"`
	MaxPlayers int    `json:"max_players"`
}

type createResponse struct {
	Success bool   `json:"success"`
	LobbyID int64  `json:"lobby_id"`
	Error   string `json:"error,omitempty"`
}

type stopRequest struct {
	LobbyID int64 `json:"lobby_id"`
}

type stopResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (g *HTTPGateway) RequestCreate(ctx context.Context, name string, maxPlayers int) (int64, error) {
	var resp createResponse
	err := g.post(ctx, "/admin/lobby/create", createRequest{Name: name, MaxPlayers: maxPlayers}, &resp)
	if err != nil {
		return 0, err
	}
	if !resp.Success {
		return 0, fmt.Errorf("%w: authority rejected create: %s", state.ErrUpstream, resp.Error)
	}
	return resp.LobbyID, nil
}

func (g *HTTPGateway) RequestStop(ctx context.Context, externalLobbyID int64) error {
	var resp stopResponse
	err := g.post(ctx, "/admin/lobby/stop", stopRequest{LobbyID: externalLobbyID}, &resp)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: authority rejected stop: %s", state.ErrUpstream, resp.Error)
	}
	return nil
}

func (g *HTTPGateway) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", state.ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", state.ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: authority unreachable: %v", state.ErrUpstream, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("%w: authority returned %d for %s", state.ErrUpstream, res.StatusCode, path)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode authority response: %v", state.ErrUpstream, err)
	}
	return nil
}
