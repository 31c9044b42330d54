// internal/state/errors.go
package state

import "errors"

// Error taxonomy shared by the store implementations and the engine. Callers
// classify failures with errors.Is; messages are wrapped around these
// sentinels with fmt.Errorf("...: %w", ...).
var (
	// ErrValidation: malformed or missing required input. No state change.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound: a referenced entity does not exist. No state change.
	ErrNotFound = errors.New("not found")

	// ErrConflict: a uniqueness constraint was violated (e.g. duplicate
	// session token). The operation aborted and is safe to retry.
	ErrConflict = errors.New("conflict")

	// ErrUpstream: the authoritative game process was unreachable or rejected
	// the request. Constructive operations surface this; destructive ones log
	// it and continue.
	ErrUpstream = errors.New("upstream failure")

	// ErrInternal: storage failed mid-operation. The enclosing transaction
	// has been rolled back; no partial mutation is visible.
	ErrInternal = errors.New("internal error")

	// ErrBanned: the named player or account has an active ban and may not
	// join a lobby.
	ErrBanned = errors.New("player is banned")
)
