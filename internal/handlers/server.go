// internal/handlers/server.go
//
// Package handlers exposes the tracker over HTTP: the player auth surface,
// the admin panel API, the internal sync surface the game server reports
// into, and the unauthenticated public read surface.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/starforge-games/liveops/internal/engine"
	"github.com/starforge-games/liveops/internal/middleware"
	"github.com/starforge-games/liveops/internal/state"
)

// Server holds the handler dependencies.
type Server struct {
	Engine *engine.Engine
	Log    *logrus.Logger
}

// NewServer wires a Server.
func NewServer(e *engine.Engine, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	return &Server{Engine: e, Log: log}
}

// Routes builds the full route table with logging and auth middleware applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Player auth surface.
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.Handle("GET /auth/connected", middleware.RequireAuth(http.HandlerFunc(s.handleConnected)))

	// Admin surface. Login is the only unauthenticated admin route.
	mux.HandleFunc("POST /admin/login", s.handleAdminLogin)
	admin := func(h http.HandlerFunc) http.Handler { return middleware.RequireAdmin(h) }
	mux.Handle("GET /admin/lobbies", admin(s.handleAdminLobbies))
	mux.Handle("GET /admin/players", admin(s.handleAdminPlayers))
	mux.Handle("POST /admin/kick", admin(s.handleAdminKick))
	mux.Handle("POST /admin/ban", admin(s.handleAdminBan))
	mux.Handle("GET /admin/banned", admin(s.handleAdminBanned))
	mux.Handle("POST /admin/unban", admin(s.handleAdminUnban))
	mux.Handle("POST /admin/lobby/create", admin(s.handleAdminLobbyCreate))
	mux.Handle("POST /admin/lobby/stop", admin(s.handleAdminLobbyStop))
	mux.Handle("GET /admin/stats", admin(s.handleAdminStats))
	mux.Handle("GET /admin/events", admin(s.handleAdminEvents))

	// Internal sync surface the authoritative game server reports into.
	mux.HandleFunc("POST /game/lobby/create", s.handleGameLobbyCreate)
	mux.HandleFunc("POST /game/lobby/update-count", s.handleGameUpdateCount)
	mux.HandleFunc("POST /game/session/add", s.handleGameSessionAdd)
	mux.HandleFunc("POST /game/score/update", s.handleGameScoreUpdate)
	mux.HandleFunc("POST /game/match/finalize", s.handleGameFinalize)

	// Public read surface.
	mux.HandleFunc("GET /public/lobbies", s.handlePublicLobbies)
	mux.HandleFunc("GET /public/lobby/{id}/leaderboard", s.handlePublicLeaderboard)
	mux.HandleFunc("GET /public/live", s.handleLive)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, http.StatusOK, map[string]any{"success": true, "status": "ok"})
	})

	return middleware.Logging(s.Log, mux)
}

// respond writes a JSON body with the given status.
func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.Log.Warnf("write response: %v", err)
	}
}

// fail maps a domain error onto an HTTP status and the failure envelope.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, state.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, state.ErrBanned):
		status = http.StatusForbidden
	case errors.Is(err, state.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, state.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, state.ErrUpstream):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		s.Log.Errorf("internal error: %v", err)
	}
	s.respond(w, status, map[string]any{"success": false, "error": err.Error()})
}

// failValidation reports a 400 with the given message.
func (s *Server) failValidation(w http.ResponseWriter, msg string) {
	s.fail(w, fmt.Errorf("%w: %s", state.ErrValidation, msg))
}

func parsePositiveInt(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("not positive: %d", n)
	}
	return n, nil
}

// decode parses a JSON request body.
func (s *Server) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", state.ErrValidation, err)
	}
	return nil
}
