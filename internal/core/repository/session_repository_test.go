package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/imanix/b2b-storefront/internal/core/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sessionRepositoryTests runs the common suite against any SessionRepository.
func sessionRepositoryTests(t *testing.T, repo domain.SessionRepository) {
	t.Helper()
	ctx := context.Background()

	t.Run("UpsertAndGet", func(t *testing.T) {
		now := time.Now()
		rec := domain.SessionRecord{
			SessionID: "sess-1",
			UserEmail: "buyer@example.com",
			Data:      []byte(`{"customer":{"email":"buyer@example.com"}}`),
			ExpiresAt: now.Add(time.Hour),
			CreatedAt: now,
			UpdatedAt: now,
		}
		require.NoError(t, repo.Upsert(ctx, rec))

		got, err := repo.GetActive(ctx, "sess-1", time.Now())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "buyer@example.com", got.UserEmail)
		assert.JSONEq(t, string(rec.Data), string(got.Data))
	})

	t.Run("GetMissing", func(t *testing.T) {
		got, err := repo.GetActive(ctx, "no-such-session", time.Now())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("GetExpired", func(t *testing.T) {
		now := time.Now()
		require.NoError(t, repo.Upsert(ctx, domain.SessionRecord{
			SessionID: "sess-exp",
			Data:      []byte(`{}`),
			ExpiresAt: now.Add(2 * time.Second),
			CreatedAt: now,
			UpdatedAt: now,
		}))

		got, err := repo.GetActive(ctx, "sess-exp", now.Add(time.Minute))
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("OverwriteKeepsCreatedAt", func(t *testing.T) {
		created := time.Now().Add(-time.Hour).Truncate(time.Millisecond)
		require.NoError(t, repo.Upsert(ctx, domain.SessionRecord{
			SessionID: "sess-ow",
			Data:      []byte(`{"v":1}`),
			ExpiresAt: time.Now().Add(time.Hour),
			CreatedAt: created,
			UpdatedAt: created,
		}))
		require.NoError(t, repo.Upsert(ctx, domain.SessionRecord{
			SessionID: "sess-ow",
			Data:      []byte(`{"v":2}`),
			ExpiresAt: time.Now().Add(time.Hour),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}))

		got, err := repo.GetActive(ctx, "sess-ow", time.Now())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.JSONEq(t, `{"v":2}`, string(got.Data))
		assert.WithinDuration(t, created, got.CreatedAt, time.Millisecond)
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, domain.SessionRecord{
			SessionID: "sess-del",
			Data:      []byte(`{}`),
			ExpiresAt: time.Now().Add(time.Hour),
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}))
		require.NoError(t, repo.Delete(ctx, "sess-del"))
		require.NoError(t, repo.Delete(ctx, "sess-del"))
		require.NoError(t, repo.Delete(ctx, "never-existed"))

		got, err := repo.GetActive(ctx, "sess-del", time.Now())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ListActiveByEmailNewestFirst", func(t *testing.T) {
		base := time.Now().Add(-time.Minute)
		for i, id := range []string{"list-a", "list-b", "list-c"} {
			created := base.Add(time.Duration(i) * time.Second)
			require.NoError(t, repo.Upsert(ctx, domain.SessionRecord{
				SessionID: id,
				UserEmail: "lister@example.com",
				Data:      []byte(`{}`),
				ExpiresAt: time.Now().Add(time.Hour),
				CreatedAt: created,
				UpdatedAt: created,
			}))
		}

		got, err := repo.ListActiveByEmail(ctx, "lister@example.com", time.Now())
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "list-c", got[0].SessionID)
		assert.Equal(t, "list-b", got[1].SessionID)
		assert.Equal(t, "list-a", got[2].SessionID)

		none, err := repo.ListActiveByEmail(ctx, "nobody@example.com", time.Now())
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestMemorySessionRepository(t *testing.T) {
	sessionRepositoryTests(t, NewMemorySessionRepository())
}

func TestMemorySessionRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository()
	now := time.Now()

	require.NoError(t, repo.Upsert(ctx, domain.SessionRecord{SessionID: "live", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, repo.Upsert(ctx, domain.SessionRecord{SessionID: "dead", ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, repo.Upsert(ctx, domain.SessionRecord{SessionID: "edge", ExpiresAt: now}))

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 1, repo.Len())
}

func TestPgxSessionRepository(t *testing.T) {
	dsn := os.Getenv("STOREFRONT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("STOREFRONT_TEST_POSTGRES_DSN not set; skipping PostgreSQL tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	repo := NewSessionRepository(pool)
	require.NoError(t, repo.EnsureSchema(ctx))
	require.NoError(t, repo.EnsureSchema(ctx), "schema creation must be idempotent")

	pool.Exec(ctx, "DELETE FROM user_sessions") //nolint:errcheck
	defer pool.Exec(ctx, "DELETE FROM user_sessions") //nolint:errcheck

	sessionRepositoryTests(t, repo)
}

func TestRedisSessionRepository(t *testing.T) {
	addr := os.Getenv("STOREFRONT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("STOREFRONT_TEST_REDIS_ADDR not set; skipping Redis tests")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	defer client.Close()
	require.NoError(t, client.FlushDB(ctx).Err())
	defer client.FlushDB(ctx) //nolint:errcheck

	repo := NewRedisSessionRepository(client)
	require.NoError(t, repo.EnsureSchema(ctx))

	sessionRepositoryTests(t, repo)
}
