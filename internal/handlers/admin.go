// internal/handlers/admin.go
package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/starforge-games/liveops/internal/engine"
	"github.com/starforge-games/liveops/internal/middleware"
)

// actorFrom reconstructs the acting admin from the request identity. The
// username is resolved from the store so audit lines carry a readable name.
func (s *Server) actorFrom(r *http.Request) engine.Actor {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		return engine.Actor{Username: "unknown"}
	}
	adminID, err := uuid.Parse(identity.Subject)
	if err != nil {
		return engine.Actor{Username: "unknown"}
	}
	actor := engine.Actor{AdminID: &adminID, Username: adminID.String()}
	if admin, err := s.Engine.Store().GetAdmin(r.Context(), adminID); err == nil {
		actor.Username = admin.Username
	}
	return actor
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	admin, token, err := s.Engine.AdminLogin(r.Context(), req.Username, req.Password)
	if err != nil {
		s.fail(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.respond(w, http.StatusOK, map[string]any{"success": true, "token": token, "admin": admin})
}

func (s *Server) handleAdminLobbies(w http.ResponseWriter, r *http.Request) {
	details, err := s.Engine.LobbyDetails(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"success": true, "lobbies": details})
}

func (s *Server) handleAdminPlayers(w http.ResponseWriter, r *http.Request) {
	lobbyID, err := uuid.Parse(r.URL.Query().Get("lobby_id"))
	if err != nil {
		s.failValidation(w, "lobby_id query parameter is required")
		return
	}
	players, err := s.Engine.LobbyPlayers(r.Context(), lobbyID)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"success": true, "players": players})
}

type kickRequest struct {
	SessionID uuid.UUID `json:"session_id"`
}

func (s *Server) handleAdminKick(w http.ResponseWriter, r *http.Request) {
	var req kickRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.Engine.KickSession(r.Context(), req.SessionID, s.actorFrom(r)); err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"success": true})
}

type banRequest struct {
	PlayerName string     `json:"player_name"`
	AccountID  *uuid.UUID `json:"account_id,omitempty"`
	Reason     string     `json:"reason"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

func (s *Server) handleAdminBan(w http.ResponseWriter, r *http.Request) {
	var req banRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	ban, err := s.Engine.Ban(r.Context(), req.PlayerName, req.Reason, req.AccountID, req.ExpiresAt, s.actorFrom(r))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusCreated, map[string]any{"success": true, "ban": ban})
}

func (s *Server) handleAdminBanned(w http.ResponseWriter, r *http.Request) {
	bans, err := s.Engine.ListBans(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"success": true, "banned": bans})
}

type unbanRequest struct {
	BanID uuid.UUID `json:"ban_id"`
}

func (s *Server) handleAdminUnban(w http.ResponseWriter, r *http.Request) {
	var req unbanRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.Engine.Unban(r.Context(), req.BanID, s.actorFrom(r)); err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"success": true})
}

type adminLobbyCreateRequest struct {
	Name       string `json:"name"`
	MaxPlayers int    `json:"max_players"`
}

func (s *Server) handleAdminLobbyCreate(w http.ResponseWriter, r *http.Request) {
	var req adminLobbyCreateRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	externalID, err := s.Engine.AdminCreateLobby(r.Context(), req.Name, req.MaxPlayers, s.actorFrom(r))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"success": true, "lobby_id": externalID})
}

type adminLobbyStopRequest struct {
	LobbyID uuid.UUID `json:"lobby_id"`
}

func (s *Server) handleAdminLobbyStop(w http.ResponseWriter, r *http.Request) {
	var req adminLobbyStopRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.Engine.StopLobby(r.Context(), req.LobbyID, s.actorFrom(r)); err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Engine.Stats(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"success": true, "stats": stats})
}

func (s *Server) handleAdminEvents(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			limit = n
		}
	}
	events, err := s.Engine.Events(r.Context(), limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"success": true, "events": events})
}
