// internal/state/memory/store.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/starforge-games/liveops/internal/models"
	"github.com/starforge-games/liveops/internal/state"
)

// tables holds every entity map. All methods assume the owning Store's mutex
// is held; tables itself implements state.Store lock-free so that Atomic can
// hand it to a transaction callback.
type tables struct {
	lobbies  map[uuid.UUID]models.ActiveLobby
	sessions map[uuid.UUID]models.ActiveSession
	tokens   map[string]uuid.UUID
	scores   map[uuid.UUID]models.PlayerScore // keyed by session id
	bans     map[uuid.UUID]models.BannedPlayer
	matches  []models.MatchHistory
	accounts map[uuid.UUID]models.Account
	emails   map[string]uuid.UUID
	admins   map[uuid.UUID]models.AdminAccount
	adminIdx map[string]uuid.UUID
	events   []models.EventLog
}

func newTables() *tables {
	return &tables{
		lobbies:  make(map[uuid.UUID]models.ActiveLobby),
		sessions: make(map[uuid.UUID]models.ActiveSession),
		tokens:   make(map[string]uuid.UUID),
		scores:   make(map[uuid.UUID]models.PlayerScore),
		bans:     make(map[uuid.UUID]models.BannedPlayer),
		accounts: make(map[uuid.UUID]models.Account),
		emails:   make(map[string]uuid.UUID),
		admins:   make(map[uuid.UUID]models.AdminAccount),
		adminIdx: make(map[string]uuid.UUID),
	}
}

// clone deep-copies the tables. Struct values are copied by assignment;
// pointer fields inside them are never mutated in place, so sharing them
// between snapshots is safe.
func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.lobbies {
		c.lobbies[k] = v
	}
	for k, v := range t.sessions {
		c.sessions[k] = v
	}
	for k, v := range t.tokens {
		c.tokens[k] = v
	}
	for k, v := range t.scores {
		c.scores[k] = v
	}
	for k, v := range t.bans {
		c.bans[k] = v
	}
	for k, v := range t.accounts {
		c.accounts[k] = v
	}
	for k, v := range t.emails {
		c.emails[k] = v
	}
	for k, v := range t.admins {
		c.admins[k] = v
	}
	for k, v := range t.adminIdx {
		c.adminIdx[k] = v
	}
	c.matches = append(c.matches, t.matches...)
	c.events = append(c.events, t.events...)
	return c
}

var _ state.Store = (*tables)(nil)

// Atomic on tables is already inside a transaction: run the callback against
// the same view. Rollback is handled by the outermost Atomic.
func (t *tables) Atomic(ctx context.Context, fn func(state.Store) error) error {
	return fn(t)
}

// Lobbies

func (t *tables) CreateLobby(ctx context.Context, lobby *models.ActiveLobby) error {
	if _, exists := t.lobbies[lobby.ID]; exists {
		return fmt.Errorf("%w: lobby %s already exists", state.ErrConflict, lobby.ID)
	}
	t.lobbies[lobby.ID] = *lobby
	return nil
}

func (t *tables) GetLobby(ctx context.Context, id uuid.UUID) (*models.ActiveLobby, error) {
	l, ok := t.lobbies[id]
	if !ok {
		return nil, fmt.Errorf("%w: lobby %s", state.ErrNotFound, id)
	}
	return &l, nil
}

func (t *tables) ListLobbies(ctx context.Context) ([]models.ActiveLobby, error) {
	out := make([]models.ActiveLobby, 0, len(t.lobbies))
	for _, l := range t.lobbies {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (t *tables) AdjustLobbyPlayerCount(ctx context.Context, id uuid.UUID, delta int) error {
	l, ok := t.lobbies[id]
	if !ok {
		return fmt.Errorf("%w: lobby %s", state.ErrNotFound, id)
	}
	if l.PlayerCount+delta < 0 {
		return fmt.Errorf("%w: player_count for lobby %s would go negative", state.ErrInternal, id)
	}
	l.PlayerCount += delta
	t.lobbies[id] = l
	return nil
}

func (t *tables) SetLobbyPlayerCount(ctx context.Context, id uuid.UUID, count int) error {
	l, ok := t.lobbies[id]
	if !ok {
		return fmt.Errorf("%w: lobby %s", state.ErrNotFound, id)
	}
	if count < 0 {
		return fmt.Errorf("%w: negative player_count for lobby %s", state.ErrValidation, id)
	}
	l.PlayerCount = count
	t.lobbies[id] = l
	return nil
}

func (t *tables) DeleteLobby(ctx context.Context, id uuid.UUID) error {
	if _, ok := t.lobbies[id]; !ok {
		return fmt.Errorf("%w: lobby %s", state.ErrNotFound, id)
	}
	delete(t.lobbies, id)
	return nil
}

// Sessions

func (t *tables) CreateSession(ctx context.Context, session *models.ActiveSession) error {
	if _, exists := t.sessions[session.ID]; exists {
		return fmt.Errorf("%w: session %s already exists", state.ErrConflict, session.ID)
	}
	if _, taken := t.tokens[session.SessionToken]; taken {
		return fmt.Errorf("%w: duplicate session token", state.ErrConflict)
	}
	t.sessions[session.ID] = *session
	t.tokens[session.SessionToken] = session.ID
	return nil
}

func (t *tables) GetSession(ctx context.Context, id uuid.UUID) (*models.ActiveSession, error) {
	s, ok := t.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", state.ErrNotFound, id)
	}
	return &s, nil
}

func (t *tables) ListSessions(ctx context.Context) ([]models.ActiveSession, error) {
	out := make([]models.ActiveSession, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConnectedAt.Before(out[j].ConnectedAt) })
	return out, nil
}

func (t *tables) ListLobbySessions(ctx context.Context, lobbyID uuid.UUID) ([]models.ActiveSession, error) {
	var out []models.ActiveSession
	for _, s := range t.sessions {
		if s.LobbyID == lobbyID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConnectedAt.Before(out[j].ConnectedAt) })
	return out, nil
}

func (t *tables) DeleteSession(ctx context.Context, id uuid.UUID) error {
	s, ok := t.sessions[id]
	if !ok {
		return fmt.Errorf("%w: session %s", state.ErrNotFound, id)
	}
	delete(t.tokens, s.SessionToken)
	delete(t.sessions, id)
	return nil
}

func (t *tables) DeleteLobbySessions(ctx context.Context, lobbyID uuid.UUID) error {
	for id, s := range t.sessions {
		if s.LobbyID == lobbyID {
			delete(t.tokens, s.SessionToken)
			delete(t.sessions, id)
		}
	}
	return nil
}

// Scores

func (t *tables) CreateScore(ctx context.Context, score *models.PlayerScore) error {
	if _, exists := t.scores[score.SessionID]; exists {
		return fmt.Errorf("%w: score for session %s already exists", state.ErrConflict, score.SessionID)
	}
	t.scores[score.SessionID] = *score
	return nil
}

func (t *tables) GetScoreBySession(ctx context.Context, sessionID uuid.UUID) (*models.PlayerScore, error) {
	sc, ok := t.scores[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: score for session %s", state.ErrNotFound, sessionID)
	}
	return &sc, nil
}

func (t *tables) SaveScore(ctx context.Context, score *models.PlayerScore) error {
	if _, ok := t.scores[score.SessionID]; !ok {
		return fmt.Errorf("%w: score for session %s", state.ErrNotFound, score.SessionID)
	}
	t.scores[score.SessionID] = *score
	return nil
}

func (t *tables) ListLobbyScores(ctx context.Context, lobbyID uuid.UUID) ([]state.SessionScore, error) {
	var out []state.SessionScore
	for sessionID, sc := range t.scores {
		if sc.LobbyID != lobbyID {
			continue
		}
		sess, ok := t.sessions[sessionID]
		if !ok {
			return nil, fmt.Errorf("%w: score %s has no session", state.ErrInternal, sc.ID)
		}
		out = append(out, state.SessionScore{Session: sess, Score: sc})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Session.ConnectedAt.Before(out[j].Session.ConnectedAt)
	})
	return out, nil
}

func (t *tables) DeleteScoreBySession(ctx context.Context, sessionID uuid.UUID) error {
	if _, ok := t.scores[sessionID]; !ok {
		return fmt.Errorf("%w: score for session %s", state.ErrNotFound, sessionID)
	}
	delete(t.scores, sessionID)
	return nil
}

func (t *tables) DeleteLobbyScores(ctx context.Context, lobbyID uuid.UUID) error {
	for sessionID, sc := range t.scores {
		if sc.LobbyID == lobbyID {
			delete(t.scores, sessionID)
		}
	}
	return nil
}

// Bans

func (t *tables) CreateBan(ctx context.Context, ban *models.BannedPlayer) error {
	t.bans[ban.ID] = *ban
	return nil
}

func (t *tables) GetBan(ctx context.Context, id uuid.UUID) (*models.BannedPlayer, error) {
	b, ok := t.bans[id]
	if !ok {
		return nil, fmt.Errorf("%w: ban %s", state.ErrNotFound, id)
	}
	return &b, nil
}

func (t *tables) ListBans(ctx context.Context) ([]models.BannedPlayer, error) {
	out := make([]models.BannedPlayer, 0, len(t.bans))
	for _, b := range t.bans {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BannedAt.Before(out[j].BannedAt) })
	return out, nil
}

func (t *tables) FindActiveBans(ctx context.Context, playerName string, accountID *uuid.UUID, now time.Time) ([]models.BannedPlayer, error) {
	var out []models.BannedPlayer
	for _, b := range t.bans {
		if !b.ActiveAt(now) {
			continue
		}
		if b.PlayerName == playerName {
			out = append(out, b)
			continue
		}
		if accountID != nil && b.AccountID != nil && *b.AccountID == *accountID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (t *tables) DeleteBan(ctx context.Context, id uuid.UUID) error {
	if _, ok := t.bans[id]; !ok {
		return fmt.Errorf("%w: ban %s", state.ErrNotFound, id)
	}
	delete(t.bans, id)
	return nil
}

// Match history

func (t *tables) CreateMatchRecord(ctx context.Context, rec *models.MatchHistory) error {
	t.matches = append(t.matches, *rec)
	return nil
}

func (t *tables) ListAccountMatches(ctx context.Context, accountID uuid.UUID) ([]models.MatchHistory, error) {
	var out []models.MatchHistory
	for _, m := range t.matches {
		if m.AccountID != nil && *m.AccountID == accountID {
			out = append(out, m)
		}
	}
	return out, nil
}

// Accounts

func (t *tables) CreateAccount(ctx context.Context, account *models.Account) error {
	if _, taken := t.emails[account.Email]; taken {
		return fmt.Errorf("%w: email %s already registered", state.ErrConflict, account.Email)
	}
	t.accounts[account.ID] = *account
	t.emails[account.Email] = account.ID
	return nil
}

func (t *tables) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	a, ok := t.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", state.ErrNotFound, id)
	}
	return &a, nil
}

func (t *tables) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	id, ok := t.emails[email]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", state.ErrNotFound, email)
	}
	a := t.accounts[id]
	return &a, nil
}

func (t *tables) AddAccountTotals(ctx context.Context, id uuid.UUID, kills, deaths, score int) error {
	a, ok := t.accounts[id]
	if !ok {
		return fmt.Errorf("%w: account %s", state.ErrNotFound, id)
	}
	a.TotalKills += kills
	a.TotalDeaths += deaths
	a.TotalScore += score
	t.accounts[id] = a
	return nil
}

func (t *tables) TouchAccountLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	a, ok := t.accounts[id]
	if !ok {
		return fmt.Errorf("%w: account %s", state.ErrNotFound, id)
	}
	a.LastLogin = &at
	t.accounts[id] = a
	return nil
}

// Admin accounts

func (t *tables) CreateAdmin(ctx context.Context, admin *models.AdminAccount) error {
	if _, taken := t.adminIdx[admin.Username]; taken {
		return fmt.Errorf("%w: admin %s already exists", state.ErrConflict, admin.Username)
	}
	t.admins[admin.ID] = *admin
	t.adminIdx[admin.Username] = admin.ID
	return nil
}

func (t *tables) GetAdmin(ctx context.Context, id uuid.UUID) (*models.AdminAccount, error) {
	a, ok := t.admins[id]
	if !ok {
		return nil, fmt.Errorf("%w: admin %s", state.ErrNotFound, id)
	}
	return &a, nil
}

func (t *tables) GetAdminByUsername(ctx context.Context, username string) (*models.AdminAccount, error) {
	id, ok := t.adminIdx[username]
	if !ok {
		return nil, fmt.Errorf("%w: admin %s", state.ErrNotFound, username)
	}
	a := t.admins[id]
	return &a, nil
}

func (t *tables) TouchAdminLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	a, ok := t.admins[id]
	if !ok {
		return fmt.Errorf("%w: admin %s", state.ErrNotFound, id)
	}
	a.LastLogin = &at
	t.admins[id] = a
	return nil
}

// Audit trail

func (t *tables) AppendEvent(ctx context.Context, event *models.EventLog) error {
	t.events = append(t.events, *event)
	return nil
}

func (t *tables) ListEvents(ctx context.Context, limit int) ([]models.EventLog, error) {
	out := make([]models.EventLog, len(t.events))
	copy(out, t.events)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Aggregates

func (t *tables) GetStats(ctx context.Context) (*state.Stats, error) {
	return &state.Stats{
		ActiveLobbies:   len(t.lobbies),
		ActivePlayers:   len(t.sessions),
		BannedCount:     len(t.bans),
		TotalAccounts:   len(t.accounts),
		MatchesArchived: len(t.matches),
	}, nil
}
