// internal/engine/account.go
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/starforge-games/liveops/internal/auth"
	"github.com/starforge-games/liveops/internal/models"
	"github.com/starforge-games/liveops/internal/state"
)

// Register creates a player account with an argon2id password hash.
func (e *Engine) Register(ctx context.Context, username, email, password string) (*models.Account, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	switch {
	case username == "":
		return nil, fmt.Errorf("%w: username is required", state.ErrValidation)
	case email == "" || !strings.Contains(email, "@"):
		return nil, fmt.Errorf("%w: a valid email is required", state.ErrValidation)
	case len(password) < 8:
		return nil, fmt.Errorf("%w: password must be at least 8 characters", state.ErrValidation)
	}

	hash, err := auth.HashPassword(password, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", state.ErrInternal, err)
	}
	account := &models.Account{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := e.store.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	e.log.WithField("username", username).Info("account registered")
	return account, nil
}

// Login verifies a player's credentials and returns the account plus a
// signed JWT. Failed verification reports not-found rather than a dedicated
// error so callers cannot distinguish a bad password from an unknown email.
func (e *Engine) Login(ctx context.Context, email, password string) (*models.Account, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	account, err := e.store.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	ok, err := auth.VerifyPassword(password, account.PasswordHash)
	if err != nil || !ok {
		return nil, "", fmt.Errorf("%w: invalid credentials", state.ErrNotFound)
	}
	token, err := auth.CreateJWT(account.ID.String(), auth.RolePlayer)
	if err != nil {
		return nil, "", fmt.Errorf("%w: sign token: %v", state.ErrInternal, err)
	}
	if err := e.store.TouchAccountLogin(ctx, account.ID, time.Now().UTC()); err != nil {
		e.log.Warnf("touch last_login failed: %v", err)
	}
	return account, token, nil
}

// AdminLogin verifies an operator's credentials and returns an admin-role JWT.
func (e *Engine) AdminLogin(ctx context.Context, username, password string) (*models.AdminAccount, string, error) {
	admin, err := e.store.GetAdminByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, "", err
	}
	ok, err := auth.VerifyPassword(password, admin.PasswordHash)
	if err != nil || !ok {
		return nil, "", fmt.Errorf("%w: invalid credentials", state.ErrNotFound)
	}
	token, err := auth.CreateJWT(admin.ID.String(), auth.RoleAdmin)
	if err != nil {
		return nil, "", fmt.Errorf("%w: sign token: %v", state.ErrInternal, err)
	}
	if err := e.store.TouchAdminLogin(ctx, admin.ID, time.Now().UTC()); err != nil {
		e.log.Warnf("touch admin last_login failed: %v", err)
	}
	return admin, token, nil
}

// Profile returns an account with its archived match history.
func (e *Engine) Profile(ctx context.Context, accountID uuid.UUID) (*models.Account, []models.MatchHistory, error) {
	account, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	matches, err := e.store.ListAccountMatches(ctx, accountID)
	if err != nil {
		return nil, nil, err
	}
	return account, matches, nil
}
