// internal/state/memory/memory.go
//
// Package memory is an in-process implementation of state.Store. It backs the
// test suite and single-node development runs; production deployments use the
// postgres implementation.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/starforge-games/liveops/internal/models"
	"github.com/starforge-games/liveops/internal/state"
)

// Store guards a tables instance with a mutex. Atomic snapshots the tables
// before running the callback and restores the snapshot if it fails, so a
// multi-write operation is all-or-nothing exactly like a database
// transaction.
type Store struct {
	mu sync.Mutex
	t  *tables
}

var _ state.Store = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{t: newTables()}
}

func (s *Store) Atomic(ctx context.Context, fn func(state.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.t.clone()
	if err := fn(s.t); err != nil {
		s.t = snapshot
		return err
	}
	return nil
}

func (s *Store) CreateLobby(ctx context.Context, lobby *models.ActiveLobby) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.CreateLobby(ctx, lobby)
}

func (s *Store) GetLobby(ctx context.Context, id uuid.UUID) (*models.ActiveLobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.GetLobby(ctx, id)
}

func (s *Store) ListLobbies(ctx context.Context) ([]models.ActiveLobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.ListLobbies(ctx)
}

func (s *Store) AdjustLobbyPlayerCount(ctx context.Context, id uuid.UUID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.AdjustLobbyPlayerCount(ctx, id, delta)
}

func (s *Store) SetLobbyPlayerCount(ctx context.Context, id uuid.UUID, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.SetLobbyPlayerCount(ctx, id, count)
}

func (s *Store) DeleteLobby(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.DeleteLobby(ctx, id)
}

func (s *Store) CreateSession(ctx context.Context, session *models.ActiveSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.CreateSession(ctx, session)
}

func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*models.ActiveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.GetSession(ctx, id)
}

func (s *Store) ListSessions(ctx context.Context) ([]models.ActiveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.ListSessions(ctx)
}

func (s *Store) ListLobbySessions(ctx context.Context, lobbyID uuid.UUID) ([]models.ActiveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.ListLobbySessions(ctx, lobbyID)
}

func (s *Store) DeleteSession(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.DeleteSession(ctx, id)
}

func (s *Store) DeleteLobbySessions(ctx context.Context, lobbyID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.DeleteLobbySessions(ctx, lobbyID)
}

func (s *Store) CreateScore(ctx context.Context, score *models.PlayerScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.CreateScore(ctx, score)
}

func (s *Store) GetScoreBySession(ctx context.Context, sessionID uuid.UUID) (*models.PlayerScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.GetScoreBySession(ctx, sessionID)
}

func (s *Store) SaveScore(ctx context.Context, score *models.PlayerScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.SaveScore(ctx, score)
}

func (s *Store) ListLobbyScores(ctx context.Context, lobbyID uuid.UUID) ([]state.SessionScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.ListLobbyScores(ctx, lobbyID)
}

func (s *Store) DeleteScoreBySession(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.DeleteScoreBySession(ctx, sessionID)
}

func (s *Store) DeleteLobbyScores(ctx context.Context, lobbyID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.DeleteLobbyScores(ctx, lobbyID)
}

func (s *Store) CreateBan(ctx context.Context, ban *models.BannedPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.CreateBan(ctx, ban)
}

func (s *Store) GetBan(ctx context.Context, id uuid.UUID) (*models.BannedPlayer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.GetBan(ctx, id)
}

func (s *Store) ListBans(ctx context.Context) ([]models.BannedPlayer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.ListBans(ctx)
}

func (s *Store) FindActiveBans(ctx context.Context, playerName string, accountID *uuid.UUID, now time.Time) ([]models.BannedPlayer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.FindActiveBans(ctx, playerName, accountID, now)
}

func (s *Store) DeleteBan(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.DeleteBan(ctx, id)
}

func (s *Store) CreateMatchRecord(ctx context.Context, rec *models.MatchHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.CreateMatchRecord(ctx, rec)
}

func (s *Store) ListAccountMatches(ctx context.Context, accountID uuid.UUID) ([]models.MatchHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.ListAccountMatches(ctx, accountID)
}

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.CreateAccount(ctx, account)
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.GetAccount(ctx, id)
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.GetAccountByEmail(ctx, email)
}

func (s *Store) AddAccountTotals(ctx context.Context, id uuid.UUID, kills, deaths, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.AddAccountTotals(ctx, id, kills, deaths, score)
}

func (s *Store) TouchAccountLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.TouchAccountLogin(ctx, id, at)
}

func (s *Store) CreateAdmin(ctx context.Context, admin *models.AdminAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.CreateAdmin(ctx, admin)
}

func (s *Store) GetAdmin(ctx context.Context, id uuid.UUID) (*models.AdminAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.GetAdmin(ctx, id)
}

func (s *Store) GetAdminByUsername(ctx context.Context, username string) (*models.AdminAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.GetAdminByUsername(ctx, username)
}

func (s *Store) TouchAdminLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.TouchAdminLogin(ctx, id, at)
}

func (s *Store) AppendEvent(ctx context.Context, event *models.EventLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.AppendEvent(ctx, event)
}

func (s *Store) ListEvents(ctx context.Context, limit int) ([]models.EventLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.ListEvents(ctx, limit)
}

func (s *Store) GetStats(ctx context.Context) (*state.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.GetStats(ctx)
}
