package v1

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/imanix/b2b-storefront/internal/core/domain"
	"github.com/imanix/b2b-storefront/middleware"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultSessionMaxAge is how long a saved session stays valid.
const DefaultSessionMaxAge = 24 * time.Hour

// Payload is the semantic content of a session: an open JSON object.
type Payload map[string]any

// SessionStore persists, retrieves and expires sessions through a
// domain.SessionRepository. It holds no per-request state.
type SessionStore struct {
	repo   domain.SessionRepository
	maxAge time.Duration
	now    func() time.Time
}

// NewSessionStore creates a SessionStore. A non-positive maxAge selects
// DefaultSessionMaxAge.
func NewSessionStore(repo domain.SessionRepository, maxAge time.Duration) *SessionStore {
	if maxAge <= 0 {
		maxAge = DefaultSessionMaxAge
	}
	return &SessionStore{
		repo:   repo,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// MaxAge returns the lifetime applied by SessionContext.Save.
func (s *SessionStore) MaxAge() time.Duration {
	return s.maxAge
}

// EnsureSchemaReady creates the session table if needed. It returns false
// when the backing store is unavailable so the caller can run degraded.
func (s *SessionStore) EnsureSchemaReady(ctx context.Context) bool {
	if err := s.repo.EnsureSchema(ctx); err != nil {
		log.Warn().Err(err).Msg("Session schema not ready")
		return false
	}
	return true
}

// GenerateSessionID returns a new opaque session identifier: a UUIDv7
// (millisecond clock plus in-process sequence) followed by 128 bits from
// crypto/rand, hex encoded.
func (s *SessionStore) GenerateSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	b := make([]byte, 16)
	_, _ = rand.Read(b)

	return strings.ReplaceAll(id.String(), "-", "") + hex.EncodeToString(b)
}

// SetSession upserts the session, expiring maxAge from now.
// A non-positive maxAge selects the store's configured lifetime.
func (s *SessionStore) SetSession(ctx context.Context, sessionID string, payload Payload, maxAge time.Duration) error {
	ctx, span := middleware.StartSpan(ctx, "session.set", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if sessionID == "" {
		return errors.New("set session: empty session id")
	}
	if maxAge <= 0 {
		maxAge = s.maxAge
	}
	if payload == nil {
		payload = Payload{}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode session payload: %w", err)
	}

	now := s.now()
	rec := domain.SessionRecord{
		SessionID: sessionID,
		UserEmail: customerEmail(payload),
		Data:      data,
		ExpiresAt: now.Add(maxAge),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Upsert(ctx, rec); err != nil {
		span.RecordError(err)
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// GetSession returns the payload of a live session. A missing or expired
// session yields (nil, nil); errors are reserved for store failures.
func (s *SessionStore) GetSession(ctx context.Context, sessionID string) (Payload, error) {
	ctx, span := middleware.StartSpan(ctx, "session.get", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if sessionID == "" {
		return nil, nil
	}

	rec, err := s.repo.GetActive(ctx, sessionID, s.now())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query session: %w", err)
	}
	if rec == nil {
		span.SetAttributes(attribute.Bool("session.found", false))
		return nil, nil
	}

	payload := Payload{}
	if len(rec.Data) > 0 {
		if err := json.Unmarshal(rec.Data, &payload); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("decode session payload: %w", err)
		}
	}
	span.SetAttributes(attribute.Bool("session.found", true))
	return payload, nil
}

// DestroySession deletes the session. Destroying an unknown session succeeds.
func (s *SessionStore) DestroySession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions. Failures are logged only.
func (s *SessionStore) CleanupExpiredSessions(ctx context.Context) {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		log.Error().Err(err).Msg("Expired session cleanup failed")
		return
	}
	middleware.SessionsCleaned.Add(float64(n))
	if n > 0 {
		log.Info().Int64("count", n).Msg("Expired sessions cleaned up")
	}
}

// GetUserSessions lists the live sessions of a user, newest first.
func (s *SessionStore) GetUserSessions(ctx context.Context, email string) ([]domain.SessionSummary, error) {
	sessions, err := s.repo.ListActiveByEmail(ctx, email, s.now())
	if err != nil {
		return nil, fmt.Errorf("list sessions for %q: %w", email, err)
	}
	return sessions, nil
}

// RunCleanup sweeps expired sessions every interval until ctx is done.
func (s *SessionStore) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("Session cleanup started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Session cleanup stopped")
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			s.CleanupExpiredSessions(sweepCtx)
			cancel()
		}
	}
}

// customerEmail extracts payload.customer.email for the user index.
func customerEmail(p Payload) string {
	switch c := p[domain.CustomerKey].(type) {
	case domain.SessionCustomer:
		return c.Email
	case *domain.SessionCustomer:
		if c != nil {
			return c.Email
		}
	case map[string]any:
		if email, ok := c["email"].(string); ok {
			return email
		}
	}
	return ""
}
