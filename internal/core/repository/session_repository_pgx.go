package repository

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/imanix/b2b-storefront/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed sessions_schema.sql
var sessionsSchemaSQL string

// PgxSessionRepository implements domain.SessionRepository using pgxpool.
type PgxSessionRepository struct {
	pool *pgxpool.Pool
}

var _ domain.SessionRepository = (*PgxSessionRepository)(nil)

// NewSessionRepository creates a new PgxSessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PgxSessionRepository {
	return &PgxSessionRepository{pool: pool}
}

// EnsureSchema creates user_sessions and its indexes if they do not exist.
// It is safe to call on every startup.
func (r *PgxSessionRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, sessionsSchemaSQL)
	return err
}

// Upsert inserts or overwrites the session keyed by rec.SessionID.
func (r *PgxSessionRepository) Upsert(ctx context.Context, rec domain.SessionRecord) error {
	query := `
		INSERT INTO user_sessions (session_id, user_email, session_data, expires_at, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6)
		ON CONFLICT (session_id) DO UPDATE SET
			user_email   = EXCLUDED.user_email,
			session_data = EXCLUDED.session_data,
			expires_at   = EXCLUDED.expires_at,
			updated_at   = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		rec.SessionID, rec.UserEmail, rec.Data, rec.ExpiresAt, rec.CreatedAt, rec.UpdatedAt,
	)
	return err
}

// GetActive returns the session if it exists and has not expired.
// Returns (nil, nil) otherwise.
func (r *PgxSessionRepository) GetActive(ctx context.Context, sessionID string, now time.Time) (*domain.SessionRecord, error) {
	query := `
		SELECT session_id, COALESCE(user_email, ''), session_data, expires_at, created_at, updated_at
		FROM user_sessions
		WHERE session_id = $1 AND expires_at > $2
	`

	var rec domain.SessionRecord
	err := r.pool.QueryRow(ctx, query, sessionID, now).Scan(
		&rec.SessionID, &rec.UserEmail, &rec.Data, &rec.ExpiresAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &rec, nil
}

// Delete removes the session. Missing sessions are ignored.
func (r *PgxSessionRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM user_sessions WHERE session_id = $1`, sessionID)
	return err
}

// DeleteExpired removes sessions whose expiry is at or before now.
func (r *PgxSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListActiveByEmail returns the user's live sessions, newest first.
func (r *PgxSessionRepository) ListActiveByEmail(ctx context.Context, email string, now time.Time) ([]domain.SessionSummary, error) {
	query := `
		SELECT session_id, created_at, expires_at
		FROM user_sessions
		WHERE user_email = $1 AND expires_at > $2
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, email, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []domain.SessionSummary{}
	for rows.Next() {
		var s domain.SessionSummary
		if err := rows.Scan(&s.SessionID, &s.CreatedAt, &s.ExpiresAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
