package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/imanix/b2b-storefront/internal/core/domain"
	"github.com/redis/go-redis/v9"
)

// RedisSessionRepository implements domain.SessionRepository on Redis.
// Each session lives under its own key with a TTL matching its expiry;
// a sorted set per user email (scored by creation time) backs
// ListActiveByEmail.
type RedisSessionRepository struct {
	client *redis.Client
	prefix string
}

var _ domain.SessionRepository = (*RedisSessionRepository)(nil)

type redisSession struct {
	SessionID string          `json:"session_id"`
	UserEmail string          `json:"user_email,omitempty"`
	Data      json.RawMessage `json:"session_data"`
	ExpiresAt time.Time       `json:"expires_at"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewRedisSessionRepository creates a Redis-backed session repository.
func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{
		client: client,
		prefix: "b2b:session:",
	}
}

func (r *RedisSessionRepository) key(sessionID string) string {
	return r.prefix + sessionID
}

func (r *RedisSessionRepository) userKey(email string) string {
	return r.prefix + "user:" + email
}

// EnsureSchema only verifies connectivity; Redis needs no structure.
func (r *RedisSessionRepository) EnsureSchema(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Upsert stores the record with a TTL ending at rec.ExpiresAt.
func (r *RedisSessionRepository) Upsert(ctx context.Context, rec domain.SessionRecord) error {
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return r.Delete(ctx, rec.SessionID)
	}

	prev, err := r.load(ctx, rec.SessionID)
	if err != nil {
		return err
	}
	if prev != nil {
		rec.CreatedAt = prev.CreatedAt
	}

	data, err := json.Marshal(redisSession{
		SessionID: rec.SessionID,
		UserEmail: rec.UserEmail,
		Data:      rec.Data,
		ExpiresAt: rec.ExpiresAt,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(rec.SessionID), data, ttl)
		if prev != nil && prev.UserEmail != "" && prev.UserEmail != rec.UserEmail {
			pipe.ZRem(ctx, r.userKey(prev.UserEmail), rec.SessionID)
		}
		if rec.UserEmail != "" {
			pipe.ZAdd(ctx, r.userKey(rec.UserEmail), redis.Z{
				Score:  float64(rec.CreatedAt.UnixNano()),
				Member: rec.SessionID,
			})
		}
		return nil
	})
	return err
}

// GetActive returns the session when present and not expired.
func (r *RedisSessionRepository) GetActive(ctx context.Context, sessionID string, now time.Time) (*domain.SessionRecord, error) {
	s, err := r.load(ctx, sessionID)
	if err != nil || s == nil {
		return nil, err
	}
	if !s.ExpiresAt.After(now) {
		return nil, nil
	}
	return &domain.SessionRecord{
		SessionID: s.SessionID,
		UserEmail: s.UserEmail,
		Data:      s.Data,
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}, nil
}

// Delete removes the session and its index entry.
func (r *RedisSessionRepository) Delete(ctx context.Context, sessionID string) error {
	s, err := r.load(ctx, sessionID)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key(sessionID))
		if s != nil && s.UserEmail != "" {
			pipe.ZRem(ctx, r.userKey(s.UserEmail), sessionID)
		}
		return nil
	})
	return err
}

// DeleteExpired prunes user index entries whose session keys Redis has
// already expired. The session keys themselves expire via TTL.
func (r *RedisSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var removed int64
	iter := r.client.Scan(ctx, 0, r.userKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		indexKey := iter.Val()
		ids, err := r.client.ZRange(ctx, indexKey, 0, -1).Result()
		if err != nil {
			return removed, err
		}
		for _, id := range ids {
			s, err := r.load(ctx, id)
			if err != nil {
				return removed, err
			}
			if s != nil && s.ExpiresAt.After(now) {
				continue
			}
			if s != nil {
				if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
					return removed, err
				}
			}
			if err := r.client.ZRem(ctx, indexKey, id).Err(); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, iter.Err()
}

// ListActiveByEmail returns the user's live sessions, newest first.
func (r *RedisSessionRepository) ListActiveByEmail(ctx context.Context, email string, now time.Time) ([]domain.SessionSummary, error) {
	ids, err := r.client.ZRevRange(ctx, r.userKey(email), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	sessions := []domain.SessionSummary{}
	for _, id := range ids {
		s, err := r.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if s == nil || !s.ExpiresAt.After(now) {
			continue
		}
		sessions = append(sessions, domain.SessionSummary{
			SessionID: s.SessionID,
			CreatedAt: s.CreatedAt,
			ExpiresAt: s.ExpiresAt,
		})
	}
	return sessions, nil
}

func (r *RedisSessionRepository) load(ctx context.Context, sessionID string) (*redisSession, error) {
	val, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var s redisSession
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	return &s, nil
}
