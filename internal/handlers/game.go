// internal/handlers/game.go
//
// The /game/* surface is the internal ingest API the authoritative game
// server reports into: lobby announcements, session adds, score updates and
// match finalization. It is not exposed to players.
package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/starforge-games/liveops/internal/models"
)

type gameLobbyCreateRequest struct {
	Name       string `json:"name"`
	MaxPlayers int    `json:"max_players"`
	Port       *int   `json:"port,omitempty"`
	LobbyID    *int64 `json:"lobby_id,omitempty"`
}

func (s *Server) handleGameLobbyCreate(w http.ResponseWriter, r *http.Request) {
	var req gameLobbyCreateRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	lobby, err := s.Engine.CreateLobby(r.Context(), req.Name, req.MaxPlayers, req.Port, req.LobbyID)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusCreated, map[string]any{"success": true, "lobby": lobby})
}

type updateCountRequest struct {
	LobbyID     uuid.UUID `json:"lobby_id"`
	PlayerCount int       `json:"player_count"`
}

func (s *Server) handleGameUpdateCount(w http.ResponseWriter, r *http.Request) {
	var req updateCountRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.Engine.SyncPlayerCount(r.Context(), req.LobbyID, req.PlayerCount); err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"success": true})
}

type sessionAddRequest struct {
	LobbyID    uuid.UUID  `json:"lobby_id"`
	PlayerName string     `json:"player_name"`
	AccountID  *uuid.UUID `json:"account_id,omitempty"`
	IPAddress  string     `json:"ip_address,omitempty"`
}

func (s *Server) handleGameSessionAdd(w http.ResponseWriter, r *http.Request) {
	var req sessionAddRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	session, err := s.Engine.JoinLobby(r.Context(), req.LobbyID, req.PlayerName, req.AccountID, req.IPAddress)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusCreated, map[string]any{"success": true, "session": session})
}

type scoreUpdateRequest struct {
	SessionID uuid.UUID `json:"session_id"`
	Kills     *int      `json:"kills,omitempty"`
	Deaths    *int      `json:"deaths,omitempty"`
	Score     *int      `json:"score,omitempty"`
}

func (s *Server) handleGameScoreUpdate(w http.ResponseWriter, r *http.Request) {
	var req scoreUpdateRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	score, err := s.Engine.ApplyScore(r.Context(), req.SessionID, models.ScoreUpdate{
		Kills:  req.Kills,
		Deaths: req.Deaths,
		Score:  req.Score,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"success": true, "score": score})
}

type finalizeRequest struct {
	LobbyID uuid.UUID `json:"lobby_id"`
}

func (s *Server) handleGameFinalize(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	archived, err := s.Engine.Finalize(r.Context(), req.LobbyID)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"success": true, "archived": archived})
}
