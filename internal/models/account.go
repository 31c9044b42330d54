// internal/models/account.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is a registered player. The Total* columns are lifetime
// aggregates, written only at match finalization; at any instant they equal
// the sum over the account's match history rows.
type Account struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	TotalKills   int        `json:"total_kills"`
	TotalDeaths  int        `json:"total_deaths"`
	TotalScore   int        `json:"total_score"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// AdminAccount is an operator login for the admin surface. Admins are
// provisioned out-of-band (see cmd/seed), never through registration.
type AdminAccount struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}
