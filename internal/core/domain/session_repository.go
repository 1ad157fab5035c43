package domain

import (
	"context"
	"time"
)

// SessionRecord is the durable form of a session, stored in user_sessions.
// Data holds the JSON-encoded payload.
type SessionRecord struct {
	SessionID string
	UserEmail string
	Data      []byte
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionSummary describes one active session without its payload.
type SessionSummary struct {
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionRepository defines the data-access contract for session operations.
// Implementations live in internal/core/repository (Core layer).
type SessionRepository interface {
	// EnsureSchema creates the backing structure if it does not exist.
	EnsureSchema(ctx context.Context) error

	// Upsert inserts the record or overwrites the one with the same SessionID.
	// CreatedAt of an existing record is preserved.
	Upsert(ctx context.Context, rec SessionRecord) error

	// GetActive returns the record only when it exists and expires after now.
	// Returns (nil, nil) when the record is missing or expired.
	GetActive(ctx context.Context, sessionID string, now time.Time) (*SessionRecord, error)

	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, sessionID string) error

	// DeleteExpired removes every record with expires_at <= now and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// ListActiveByEmail returns the non-expired sessions of one user,
	// newest CreatedAt first.
	ListActiveByEmail(ctx context.Context, email string, now time.Time) ([]SessionSummary, error)
}
