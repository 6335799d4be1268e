package repository

import (
	"context"
	"errors"
)

// ErrAuthRequired means no usable persisted credentials exist. The run must
// halt and ask a human operator to complete the interactive login; the
// session manager never silently retries authentication.
var ErrAuthRequired = errors.New("authentication required: no usable persisted session")

// SessionHandle is an opaque capability for one authenticated messaging
// session. The orchestrator only ever holds the handle, never the raw
// session state.
type SessionHandle interface {
	// ID identifies the session for logging.
	ID() string
}

// SessionRepository owns the long-lived automation session backed by
// persisted credentials, so re-authentication is not needed on every run.
type SessionRepository interface {
	// Acquire restores the persisted session, or returns ErrAuthRequired
	// when there is none (or it has expired).
	Acquire(ctx context.Context) (SessionHandle, error)
	// Invalidate discards the handle after a transport failure; the next
	// Acquire rebuilds the session from persisted credentials.
	Invalidate(ctx context.Context, sess SessionHandle) error
	// Close releases the underlying resources. Credentials stay on disk.
	Close(ctx context.Context) error
}
