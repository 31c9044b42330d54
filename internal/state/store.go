// internal/state/store.go
package state

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/starforge-games/liveops/internal/models"
)

// Stats is the aggregate snapshot served to the admin dashboard.
type Stats struct {
	ActiveLobbies  int `json:"active_lobbies"`
	ActivePlayers  int `json:"active_players"`
	BannedCount    int `json:"banned_count"`
	TotalAccounts  int `json:"total_accounts"`
	MatchesArchived int `json:"matches_archived"`
}

// SessionScore pairs a live session with its score row, as read surfaces and
// finalization consume them together.
type SessionScore struct {
	Session models.ActiveSession `json:"session"`
	Score   models.PlayerScore   `json:"score"`
}

// Store is the single shared mutable resource: durable storage for every
// entity plus the aggregate reads the dashboards need.
//
// Operations touching more than one entity run inside Atomic; the callback's
// Store is scoped to one transaction and must not outlive it. If the callback
// returns an error, none of its writes are observable.
type Store interface {
	Atomic(ctx context.Context, fn func(Store) error) error

	// Lobbies. AdjustLobbyPlayerCount is the only write path for the
	// player_count counter.
	CreateLobby(ctx context.Context, lobby *models.ActiveLobby) error
	GetLobby(ctx context.Context, id uuid.UUID) (*models.ActiveLobby, error)
	ListLobbies(ctx context.Context) ([]models.ActiveLobby, error)
	AdjustLobbyPlayerCount(ctx context.Context, id uuid.UUID, delta int) error
	SetLobbyPlayerCount(ctx context.Context, id uuid.UUID, count int) error
	DeleteLobby(ctx context.Context, id uuid.UUID) error

	// Sessions.
	CreateSession(ctx context.Context, session *models.ActiveSession) error
	GetSession(ctx context.Context, id uuid.UUID) (*models.ActiveSession, error)
	ListSessions(ctx context.Context) ([]models.ActiveSession, error)
	ListLobbySessions(ctx context.Context, lobbyID uuid.UUID) ([]models.ActiveSession, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	DeleteLobbySessions(ctx context.Context, lobbyID uuid.UUID) error

	// Scores.
	CreateScore(ctx context.Context, score *models.PlayerScore) error
	GetScoreBySession(ctx context.Context, sessionID uuid.UUID) (*models.PlayerScore, error)
	SaveScore(ctx context.Context, score *models.PlayerScore) error
	ListLobbyScores(ctx context.Context, lobbyID uuid.UUID) ([]SessionScore, error)
	DeleteScoreBySession(ctx context.Context, sessionID uuid.UUID) error
	DeleteLobbyScores(ctx context.Context, lobbyID uuid.UUID) error

	// Bans.
	CreateBan(ctx context.Context, ban *models.BannedPlayer) error
	GetBan(ctx context.Context, id uuid.UUID) (*models.BannedPlayer, error)
	ListBans(ctx context.Context) ([]models.BannedPlayer, error)
	FindActiveBans(ctx context.Context, playerName string, accountID *uuid.UUID, now time.Time) ([]models.BannedPlayer, error)
	DeleteBan(ctx context.Context, id uuid.UUID) error

	// Match history (write-once).
	CreateMatchRecord(ctx context.Context, rec *models.MatchHistory) error
	ListAccountMatches(ctx context.Context, accountID uuid.UUID) ([]models.MatchHistory, error)

	// Accounts. AddAccountTotals is the only write path for cumulative stats.
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	AddAccountTotals(ctx context.Context, id uuid.UUID, kills, deaths, score int) error
	TouchAccountLogin(ctx context.Context, id uuid.UUID, at time.Time) error

	// Admin accounts.
	CreateAdmin(ctx context.Context, admin *models.AdminAccount) error
	GetAdmin(ctx context.Context, id uuid.UUID) (*models.AdminAccount, error)
	GetAdminByUsername(ctx context.Context, username string) (*models.AdminAccount, error)
	TouchAdminLogin(ctx context.Context, id uuid.UUID, at time.Time) error

	// Audit trail (append-only).
	AppendEvent(ctx context.Context, event *models.EventLog) error
	ListEvents(ctx context.Context, limit int) ([]models.EventLog, error)

	// Aggregates.
	GetStats(ctx context.Context) (*Stats, error)
}
