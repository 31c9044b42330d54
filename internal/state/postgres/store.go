// internal/state/postgres/store.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/starforge-games/liveops/internal/models"
	"github.com/starforge-games/liveops/internal/state"
)

var _ state.Store = (*Store)(nil)

const pgUniqueViolation = "23505"

// classify maps pgx failures onto the shared error taxonomy.
func classify(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", state.ErrNotFound, op)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s: %s", state.ErrConflict, op, pgErr.ConstraintName)
	}
	return fmt.Errorf("%w: %s: %v", state.ErrInternal, op, err)
}

// Atomic runs fn inside one transaction. fn receives a Store bound to the
// transaction; any error rolls the whole unit back. Nested calls reuse the
// already-open transaction.
func (s *Store) Atomic(ctx context.Context, fn func(state.Store) error) error {
	if s.pool == nil {
		return fn(s)
	}
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(&Store{q: tx})
	})
}

// Lobbies

func (s *Store) CreateLobby(ctx context.Context, lobby *models.ActiveLobby) error {
	q := `
	INSERT INTO active_lobbies (id, name, port, max_players, player_count, external_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.q.Exec(ctx, q,
		lobby.ID, lobby.Name, lobby.Port, lobby.MaxPlayers,
		lobby.PlayerCount, lobby.ExternalID, lobby.CreatedAt,
	)
	if err != nil {
		return classify("insert lobby", err)
	}
	return nil
}

func (s *Store) GetLobby(ctx context.Context, id uuid.UUID) (*models.ActiveLobby, error) {
	var l models.ActiveLobby
	q := `
	SELECT id, name, port, max_players, player_count, external_id, created_at
	FROM active_lobbies
	WHERE id = $1
	`
	err := s.q.QueryRow(ctx, q, id).Scan(
		&l.ID, &l.Name, &l.Port, &l.MaxPlayers,
		&l.PlayerCount, &l.ExternalID, &l.CreatedAt,
	)
	if err != nil {
		return nil, classify("get lobby", err)
	}
	return &l, nil
}

func (s *Store) ListLobbies(ctx context.Context) ([]models.ActiveLobby, error) {
	q := `
	SELECT id, name, port, max_players, player_count, external_id, created_at
	FROM active_lobbies
	ORDER BY created_at
	`
	rows, err := s.q.Query(ctx, q)
	if err != nil {
		return nil, classify("list lobbies", err)
	}
	defer rows.Close()

	var lobbies []models.ActiveLobby
	for rows.Next() {
		var l models.ActiveLobby
		if err := rows.Scan(
			&l.ID, &l.Name, &l.Port, &l.MaxPlayers,
			&l.PlayerCount, &l.ExternalID, &l.CreatedAt,
		); err != nil {
			return nil, classify("scan lobby", err)
		}
		lobbies = append(lobbies, l)
	}
	return lobbies, rows.Err()
}

func (s *Store) AdjustLobbyPlayerCount(ctx context.Context, id uuid.UUID, delta int) error {
	q := `UPDATE active_lobbies SET player_count = player_count + $2 WHERE id = $1`
	tag, err := s.q.Exec(ctx, q, id, delta)
	if err != nil {
		return classify("adjust player_count", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: lobby %s", state.ErrNotFound, id)
	}
	return nil
}

func (s *Store) SetLobbyPlayerCount(ctx context.Context, id uuid.UUID, count int) error {
	if count < 0 {
		return fmt.Errorf("%w: negative player_count", state.ErrValidation)
	}
	q := `UPDATE active_lobbies SET player_count = $2 WHERE id = $1`
	tag, err := s.q.Exec(ctx, q, id, count)
	if err != nil {
		return classify("set player_count", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: lobby %s", state.ErrNotFound, id)
	}
	return nil
}

func (s *Store) DeleteLobby(ctx context.Context, id uuid.UUID) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM active_lobbies WHERE id = $1`, id)
	if err != nil {
		return classify("delete lobby", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: lobby %s", state.ErrNotFound, id)
	}
	return nil
}

// Sessions

func (s *Store) CreateSession(ctx context.Context, session *models.ActiveSession) error {
	q := `
	INSERT INTO active_sessions (id, account_id, player_name, lobby_id, session_token, ip_address, connected_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.q.Exec(ctx, q,
		session.ID, session.AccountID, session.PlayerName, session.LobbyID,
		session.SessionToken, nullable(session.IPAddress), session.ConnectedAt,
	)
	if err != nil {
		return classify("insert session", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*models.ActiveSession, error) {
	var sess models.ActiveSession
	var ip *string
	q := `
	SELECT id, account_id, player_name, lobby_id, session_token, ip_address, connected_at
	FROM active_sessions
	WHERE id = $1
	`
	err := s.q.QueryRow(ctx, q, id).Scan(
		&sess.ID, &sess.AccountID, &sess.PlayerName, &sess.LobbyID,
		&sess.SessionToken, &ip, &sess.ConnectedAt,
	)
	if err != nil {
		return nil, classify("get session", err)
	}
	if ip != nil {
		sess.IPAddress = *ip
	}
	return &sess, nil
}

func (s *Store) ListSessions(ctx context.Context) ([]models.ActiveSession, error) {
	q := `
	SELECT id, account_id, player_name, lobby_id, session_token, ip_address, connected_at
	FROM active_sessions
	ORDER BY connected_at
	`
	return s.scanSessions(ctx, q)
}

func (s *Store) ListLobbySessions(ctx context.Context, lobbyID uuid.UUID) ([]models.ActiveSession, error) {
	q := `
	SELECT id, account_id, player_name, lobby_id, session_token, ip_address, connected_at
	FROM active_sessions
	WHERE lobby_id = $1
	ORDER BY connected_at
	`
	return s.scanSessions(ctx, q, lobbyID)
}

func (s *Store) scanSessions(ctx context.Context, q string, args ...any) ([]models.ActiveSession, error) {
	rows, err := s.q.Query(ctx, q, args...)
	if err != nil {
		return nil, classify("list sessions", err)
	}
	defer rows.Close()

	var sessions []models.ActiveSession
	for rows.Next() {
		var sess models.ActiveSession
		var ip *string
		if err := rows.Scan(
			&sess.ID, &sess.AccountID, &sess.PlayerName, &sess.LobbyID,
			&sess.SessionToken, &ip, &sess.ConnectedAt,
		); err != nil {
			return nil, classify("scan session", err)
		}
		if ip != nil {
			sess.IPAddress = *ip
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *Store) DeleteSession(ctx context.Context, id uuid.UUID) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM active_sessions WHERE id = $1`, id)
	if err != nil {
		return classify("delete session", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: session %s", state.ErrNotFound, id)
	}
	return nil
}

func (s *Store) DeleteLobbySessions(ctx context.Context, lobbyID uuid.UUID) error {
	_, err := s.q.Exec(ctx, `DELETE FROM active_sessions WHERE lobby_id = $1`, lobbyID)
	if err != nil {
		return classify("delete lobby sessions", err)
	}
	return nil
}

// Scores

func (s *Store) CreateScore(ctx context.Context, score *models.PlayerScore) error {
	q := `
	INSERT INTO player_scores (id, session_id, lobby_id, kills, deaths, score, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.q.Exec(ctx, q,
		score.ID, score.SessionID, score.LobbyID,
		score.Kills, score.Deaths, score.Score, score.UpdatedAt,
	)
	if err != nil {
		return classify("insert score", err)
	}
	return nil
}

func (s *Store) GetScoreBySession(ctx context.Context, sessionID uuid.UUID) (*models.PlayerScore, error) {
	var sc models.PlayerScore
	q := `
	SELECT id, session_id, lobby_id, kills, deaths, score, updated_at
	FROM player_scores
	WHERE session_id = $1
	`
	err := s.q.QueryRow(ctx, q, sessionID).Scan(
		&sc.ID, &sc.SessionID, &sc.LobbyID,
		&sc.Kills, &sc.Deaths, &sc.Score, &sc.UpdatedAt,
	)
	if err != nil {
		return nil, classify("get score", err)
	}
	return &sc, nil
}

func (s *Store) SaveScore(ctx context.Context, score *models.PlayerScore) error {
	q := `
	UPDATE player_scores
	SET kills = $2, deaths = $3, score = $4, updated_at = $5
	WHERE session_id = $1
	`
	tag, err := s.q.Exec(ctx, q,
		score.SessionID, score.Kills, score.Deaths, score.Score, score.UpdatedAt,
	)
	if err != nil {
		return classify("save score", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: score for session %s", state.ErrNotFound, score.SessionID)
	}
	return nil
}

func (s *Store) ListLobbyScores(ctx context.Context, lobbyID uuid.UUID) ([]state.SessionScore, error) {
	q := `
	SELECT sc.id, sc.session_id, sc.lobby_id, sc.kills, sc.deaths, sc.score, sc.updated_at,
	       se.id, se.account_id, se.player_name, se.lobby_id, se.session_token, se.ip_address, se.connected_at
	FROM player_scores sc
	JOIN active_sessions se ON se.id = sc.session_id
	WHERE sc.lobby_id = $1
	ORDER BY se.connected_at
	`
	rows, err := s.q.Query(ctx, q, lobbyID)
	if err != nil {
		return nil, classify("list lobby scores", err)
	}
	defer rows.Close()

	var out []state.SessionScore
	for rows.Next() {
		var ss state.SessionScore
		var ip *string
		if err := rows.Scan(
			&ss.Score.ID, &ss.Score.SessionID, &ss.Score.LobbyID,
			&ss.Score.Kills, &ss.Score.Deaths, &ss.Score.Score, &ss.Score.UpdatedAt,
			&ss.Session.ID, &ss.Session.AccountID, &ss.Session.PlayerName, &ss.Session.LobbyID,
			&ss.Session.SessionToken, &ip, &ss.Session.ConnectedAt,
		); err != nil {
			return nil, classify("scan lobby score", err)
		}
		if ip != nil {
			ss.Session.IPAddress = *ip
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}

func (s *Store) DeleteScoreBySession(ctx context.Context, sessionID uuid.UUID) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM player_scores WHERE session_id = $1`, sessionID)
	if err != nil {
		return classify("delete score", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: score for session %s", state.ErrNotFound, sessionID)
	}
	return nil
}

func (s *Store) DeleteLobbyScores(ctx context.Context, lobbyID uuid.UUID) error {
	_, err := s.q.Exec(ctx, `DELETE FROM player_scores WHERE lobby_id = $1`, lobbyID)
	if err != nil {
		return classify("delete lobby scores", err)
	}
	return nil
}

// Bans

func (s *Store) CreateBan(ctx context.Context, ban *models.BannedPlayer) error {
	q := `
	INSERT INTO banned_players (id, player_name, account_id, reason, banned_at, banned_by, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.q.Exec(ctx, q,
		ban.ID, ban.PlayerName, ban.AccountID, ban.Reason,
		ban.BannedAt, ban.BannedBy, ban.ExpiresAt,
	)
	if err != nil {
		return classify("insert ban", err)
	}
	return nil
}

func (s *Store) GetBan(ctx context.Context, id uuid.UUID) (*models.BannedPlayer, error) {
	var b models.BannedPlayer
	q := `
	SELECT id, player_name, account_id, reason, banned_at, banned_by, expires_at
	FROM banned_players
	WHERE id = $1
	`
	err := s.q.QueryRow(ctx, q, id).Scan(
		&b.ID, &b.PlayerName, &b.AccountID, &b.Reason,
		&b.BannedAt, &b.BannedBy, &b.ExpiresAt,
	)
	if err != nil {
		return nil, classify("get ban", err)
	}
	return &b, nil
}

func (s *Store) ListBans(ctx context.Context) ([]models.BannedPlayer, error) {
	q := `
	SELECT id, player_name, account_id, reason, banned_at, banned_by, expires_at
	FROM banned_players
	ORDER BY banned_at
	`
	return s.scanBans(ctx, q)
}

func (s *Store) FindActiveBans(ctx context.Context, playerName string, accountID *uuid.UUID, now time.Time) ([]models.BannedPlayer, error) {
	q := `
	SELECT id, player_name, account_id, reason, banned_at, banned_by, expires_at
	FROM banned_players
	WHERE (player_name = $1 OR ($2::uuid IS NOT NULL AND account_id = $2))
	  AND (expires_at IS NULL OR expires_at > $3)
	`
	return s.scanBans(ctx, q, playerName, accountID, now)
}

func (s *Store) scanBans(ctx context.Context, q string, args ...any) ([]models.BannedPlayer, error) {
	rows, err := s.q.Query(ctx, q, args...)
	if err != nil {
		return nil, classify("list bans", err)
	}
	defer rows.Close()

	var bans []models.BannedPlayer
	for rows.Next() {
		var b models.BannedPlayer
		if err := rows.Scan(
			&b.ID, &b.PlayerName, &b.AccountID, &b.Reason,
			&b.BannedAt, &b.BannedBy, &b.ExpiresAt,
		); err != nil {
			return nil, classify("scan ban", err)
		}
		bans = append(bans, b)
	}
	return bans, rows.Err()
}

func (s *Store) DeleteBan(ctx context.Context, id uuid.UUID) error {
	tag, err := s.q.Exec(ctx, `DELETE FROM banned_players WHERE id = $1`, id)
	if err != nil {
		return classify("delete ban", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: ban %s", state.ErrNotFound, id)
	}
	return nil
}

// Match history

func (s *Store) CreateMatchRecord(ctx context.Context, rec *models.MatchHistory) error {
	q := `
	INSERT INTO match_history (id, account_id, player_name, lobby_id, kills, deaths, score, match_date)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.q.Exec(ctx, q,
		rec.ID, rec.AccountID, rec.PlayerName, rec.LobbyID,
		rec.Kills, rec.Deaths, rec.Score, rec.MatchDate,
	)
	if err != nil {
		return classify("insert match record", err)
	}
	return nil
}

func (s *Store) ListAccountMatches(ctx context.Context, accountID uuid.UUID) ([]models.MatchHistory, error) {
	q := `
	SELECT id, account_id, player_name, lobby_id, kills, deaths, score, match_date
	FROM match_history
	WHERE account_id = $1
	ORDER BY match_date DESC
	`
	rows, err := s.q.Query(ctx, q, accountID)
	if err != nil {
		return nil, classify("list account matches", err)
	}
	defer rows.Close()

	var out []models.MatchHistory
	for rows.Next() {
		var m models.MatchHistory
		if err := rows.Scan(
			&m.ID, &m.AccountID, &m.PlayerName, &m.LobbyID,
			&m.Kills, &m.Deaths, &m.Score, &m.MatchDate,
		); err != nil {
			return nil, classify("scan match record", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Accounts

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	q := `
	INSERT INTO accounts (id, username, email, password_hash, total_kills, total_deaths, total_score, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.q.Exec(ctx, q,
		account.ID, account.Username, account.Email, account.PasswordHash,
		account.TotalKills, account.TotalDeaths, account.TotalScore, account.CreatedAt,
	)
	if err != nil {
		return classify("insert account", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	q := `
	SELECT id, username, email, password_hash, total_kills, total_deaths, total_score, created_at, last_login
	FROM accounts
	WHERE id = $1
	`
	return s.scanAccount(ctx, q, id)
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	q := `
	SELECT id, username, email, password_hash, total_kills, total_deaths, total_score, created_at, last_login
	FROM accounts
	WHERE email = $1
	`
	return s.scanAccount(ctx, q, email)
}

func (s *Store) scanAccount(ctx context.Context, q string, arg any) (*models.Account, error) {
	var a models.Account
	err := s.q.QueryRow(ctx, q, arg).Scan(
		&a.ID, &a.Username, &a.Email, &a.PasswordHash,
		&a.TotalKills, &a.TotalDeaths, &a.TotalScore,
		&a.CreatedAt, &a.LastLogin,
	)
	if err != nil {
		return nil, classify("get account", err)
	}
	return &a, nil
}

func (s *Store) AddAccountTotals(ctx context.Context, id uuid.UUID, kills, deaths, score int) error {
	q := `
	UPDATE accounts
	SET total_kills = total_kills + $2,
	    total_deaths = total_deaths + $3,
	    total_score = total_score + $4
	WHERE id = $1
	`
	tag, err := s.q.Exec(ctx, q, id, kills, deaths, score)
	if err != nil {
		return classify("add account totals", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %s", state.ErrNotFound, id)
	}
	return nil
}

func (s *Store) TouchAccountLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.q.Exec(ctx, `UPDATE accounts SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return classify("touch account login", err)
	}
	return nil
}

// Admin accounts

func (s *Store) CreateAdmin(ctx context.Context, admin *models.AdminAccount) error {
	q := `
	INSERT INTO admin_accounts (id, username, password_hash, role, created_at)
	VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.q.Exec(ctx, q,
		admin.ID, admin.Username, admin.PasswordHash, admin.Role, admin.CreatedAt,
	)
	if err != nil {
		return classify("insert admin", err)
	}
	return nil
}

func (s *Store) GetAdmin(ctx context.Context, id uuid.UUID) (*models.AdminAccount, error) {
	var a models.AdminAccount
	q := `
	SELECT id, username, password_hash, role, created_at, last_login
	FROM admin_accounts
	WHERE id = $1
	`
	err := s.q.QueryRow(ctx, q, id).Scan(
		&a.ID, &a.Username, &a.PasswordHash, &a.Role, &a.CreatedAt, &a.LastLogin,
	)
	if err != nil {
		return nil, classify("get admin", err)
	}
	return &a, nil
}

func (s *Store) GetAdminByUsername(ctx context.Context, username string) (*models.AdminAccount, error) {
	var a models.AdminAccount
	q := `
	SELECT id, username, password_hash, role, created_at, last_login
	FROM admin_accounts
	WHERE username = $1
	`
	err := s.q.QueryRow(ctx, q, username).Scan(
		&a.ID, &a.Username, &a.PasswordHash, &a.Role, &a.CreatedAt, &a.LastLogin,
	)
	if err != nil {
		return nil, classify("get admin", err)
	}
	return &a, nil
}

func (s *Store) TouchAdminLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.q.Exec(ctx, `UPDATE admin_accounts SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return classify("touch admin login", err)
	}
	return nil
}

// Audit trail

func (s *Store) AppendEvent(ctx context.Context, event *models.EventLog) error {
	q := `
	INSERT INTO event_logs (id, event_type, details, admin_id, timestamp)
	VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.q.Exec(ctx, q,
		event.ID, event.EventType, event.Details, event.AdminID, event.Timestamp,
	)
	if err != nil {
		return classify("append event", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, limit int) ([]models.EventLog, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `
	SELECT id, event_type, details, admin_id, timestamp
	FROM event_logs
	ORDER BY timestamp DESC
	LIMIT $1
	`
	rows, err := s.q.Query(ctx, q, limit)
	if err != nil {
		return nil, classify("list events", err)
	}
	defer rows.Close()

	var out []models.EventLog
	for rows.Next() {
		var e models.EventLog
		if err := rows.Scan(&e.ID, &e.EventType, &e.Details, &e.AdminID, &e.Timestamp); err != nil {
			return nil, classify("scan event", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Aggregates

func (s *Store) GetStats(ctx context.Context) (*state.Stats, error) {
	q := `
	SELECT
		(SELECT count(*) FROM active_lobbies),
		(SELECT count(*) FROM active_sessions),
		(SELECT count(*) FROM banned_players),
		(SELECT count(*) FROM accounts),
		(SELECT count(*) FROM match_history)
	`
	var st state.Stats
	err := s.q.QueryRow(ctx, q).Scan(
		&st.ActiveLobbies, &st.ActivePlayers, &st.BannedCount,
		&st.TotalAccounts, &st.MatchesArchived,
	)
	if err != nil {
		return nil, classify("get stats", err)
	}
	return &st, nil
}

// nullable maps an empty string to NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
