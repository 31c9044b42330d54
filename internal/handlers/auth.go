// internal/handlers/auth.go
package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/starforge-games/liveops/internal/middleware"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	account, err := s.Engine.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusCreated, map[string]any{"success": true, "account": account})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	account, token, err := s.Engine.Login(r.Context(), req.Email, req.Password)
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
	s.respond(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
		"account": account,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	s.respond(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleConnected(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		s.respond(w, http.StatusOK, map[string]any{"success": true, "connected": false})
		return
	}
	accountID, err := uuid.Parse(identity.Subject)
	if err != nil {
		s.respond(w, http.StatusOK, map[string]any{"success": true, "connected": false})
		return
	}
	account, matches, err := s.Engine.Profile(r.Context(), accountID)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]any{
		"success":   true,
		"connected": true,
		"account":   account,
		"matches":   matches,
	})
}
