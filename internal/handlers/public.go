// internal/handlers/public.go
package handlers

import (
	"net/http"

	"github.com/google/uuid"
)

func (s *Server) handlePublicLobbies(w http.ResponseWriter, r *http.Request) {
	lobbies, err := s.Engine.PublicLobbies(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"success": true, "lobbies": lobbies})
}

func (s *Server) handlePublicLeaderboard(w http.ResponseWriter, r *http.Request) {
	lobbyID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.failValidation(w, "invalid lobby id")
		return
	}
	entries, err := s.Engine.Leaderboard(r.Context(), lobbyID)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{"success": true, "leaderboard": entries})
}
