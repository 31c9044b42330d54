// internal/state/postgres/schema.go
package postgres

import (
	"context"
	"fmt"
)

// schema is applied on startup. Foreign keys declare ON DELETE CASCADE as a
// backstop, but the engine still deletes children explicitly inside its
// transactions so the lifecycle invariants hold on any storage engine.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id            UUID PRIMARY KEY,
	username      VARCHAR(100) NOT NULL UNIQUE,
	email         VARCHAR(255) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	total_kills   INTEGER NOT NULL DEFAULT 0,
	total_deaths  INTEGER NOT NULL DEFAULT 0,
	total_score   INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_login    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS admin_accounts (
	id            UUID PRIMARY KEY,
	username      VARCHAR(100) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	role          VARCHAR(50) NOT NULL DEFAULT 'admin',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_login    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS active_lobbies (
	id           UUID PRIMARY KEY,
	name         VARCHAR(100) NOT NULL,
	port         INTEGER,
	max_players  INTEGER NOT NULL DEFAULT 4,
	player_count INTEGER NOT NULL DEFAULT 0 CHECK (player_count >= 0),
	external_id  BIGINT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS active_sessions (
	id            UUID PRIMARY KEY,
	account_id    UUID REFERENCES accounts(id),
	player_name   VARCHAR(255) NOT NULL,
	lobby_id      UUID NOT NULL REFERENCES active_lobbies(id) ON DELETE CASCADE,
	session_token VARCHAR(255) NOT NULL UNIQUE,
	ip_address    VARCHAR(45),
	connected_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS player_scores (
	id         UUID PRIMARY KEY,
	session_id UUID NOT NULL UNIQUE REFERENCES active_sessions(id) ON DELETE CASCADE,
	lobby_id   UUID NOT NULL REFERENCES active_lobbies(id) ON DELETE CASCADE,
	kills      INTEGER NOT NULL DEFAULT 0,
	deaths     INTEGER NOT NULL DEFAULT 0,
	score      INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS banned_players (
	id          UUID PRIMARY KEY,
	player_name VARCHAR(255) NOT NULL,
	account_id  UUID REFERENCES accounts(id),
	reason      TEXT NOT NULL DEFAULT '',
	banned_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	banned_by   VARCHAR(255) NOT NULL DEFAULT '',
	expires_at  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS match_history (
	id          UUID PRIMARY KEY,
	account_id  UUID REFERENCES accounts(id),
	player_name VARCHAR(255) NOT NULL,
	lobby_id    UUID NOT NULL,
	kills       INTEGER NOT NULL DEFAULT 0,
	deaths      INTEGER NOT NULL DEFAULT 0,
	score       INTEGER NOT NULL DEFAULT 0,
	match_date  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS event_logs (
	id         UUID PRIMARY KEY,
	event_type VARCHAR(100) NOT NULL,
	details    TEXT NOT NULL DEFAULT '',
	admin_id   UUID REFERENCES admin_accounts(id),
	timestamp  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sessions_lobby ON active_sessions(lobby_id);
CREATE INDEX IF NOT EXISTS idx_scores_lobby ON player_scores(lobby_id);
CREATE INDEX IF NOT EXISTS idx_bans_name ON banned_players(player_name);
CREATE INDEX IF NOT EXISTS idx_history_account ON match_history(account_id);
CREATE INDEX IF NOT EXISTS idx_events_time ON event_logs(timestamp DESC);
`

// EnsureSchema creates any missing tables and indexes.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.q.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
