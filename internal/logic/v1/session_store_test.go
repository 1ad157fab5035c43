package v1

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSessionID_Unique(t *testing.T) {
	store, _ := newTestStore(t)

	const draws = 10000
	seen := make(map[string]struct{}, draws)
	for i := 0; i < draws; i++ {
		id := store.GenerateSessionID()
		require.Len(t, id, 64)
		_, dup := seen[id]
		require.False(t, dup, "duplicate session id after %d draws", i)
		seen[id] = struct{}{}
	}
}

func TestSessionStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	payload := Payload{
		"customer": map[string]any{
			"email":           "buyer@example.com",
			"firstName":       "Ada",
			"tags":            []any{"b2b", "vip"},
			"discountRate":    nil,
			"isAuthenticated": true,
		},
		"cartToken": "abc",
		"visits":    float64(3),
	}

	require.NoError(t, store.SetSession(ctx, "sid-1", payload, time.Hour))

	got, err := store.GetSession(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestSessionStore_SetSessionOverwrites(t *testing.T) {
	ctx := context.Background()
	store, repo := newTestStore(t)

	require.NoError(t, store.SetSession(ctx, "sid-1", Payload{"v": "one"}, time.Hour))
	require.NoError(t, store.SetSession(ctx, "sid-1", Payload{"v": "two"}, time.Hour))

	assert.Equal(t, 1, repo.Len())
	got, err := store.GetSession(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "two", got["v"])
}

func TestSessionStore_ExpiredEqualsUnknown(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	require.NoError(t, store.SetSession(ctx, "sid-old", Payload{"v": 1}, time.Minute))
	store.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	expired, err := store.GetSession(ctx, "sid-old")
	require.NoError(t, err)
	unknown, err := store.GetSession(ctx, "sid-never")
	require.NoError(t, err)

	assert.Nil(t, expired)
	assert.Nil(t, unknown)
}

func TestSessionStore_GetSessionEmptyID(t *testing.T) {
	store, _ := newTestStore(t)
	got, err := store.GetSession(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStore_DestroyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	require.NoError(t, store.SetSession(ctx, "sid-1", Payload{}, time.Hour))
	require.NoError(t, store.DestroySession(ctx, "sid-1"))
	require.NoError(t, store.DestroySession(ctx, "sid-1"))
	require.NoError(t, store.DestroySession(ctx, "never-existed"))

	got, err := store.GetSession(ctx, "sid-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStore_CleanupExpiredSessions(t *testing.T) {
	ctx := context.Background()
	store, repo := newTestStore(t)

	require.NoError(t, store.SetSession(ctx, "short", Payload{}, time.Minute))
	require.NoError(t, store.SetSession(ctx, "long", Payload{}, 3*time.Hour))

	store.now = func() time.Time { return time.Now().Add(time.Hour) }
	store.CleanupExpiredSessions(ctx)
	assert.Equal(t, 1, repo.Len())

	repo.SetFailure(errors.New("db down"))
	assert.NotPanics(t, func() { store.CleanupExpiredSessions(ctx) })
}

func TestSessionStore_GetUserSessions(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	base := time.Now()
	for i, id := range []string{"first", "second", "third"} {
		at := base.Add(time.Duration(i) * time.Second)
		store.now = func() time.Time { return at }
		customer := map[string]any{"email": "buyer@example.com"}
		require.NoError(t, store.SetSession(ctx, id, Payload{"customer": customer}, time.Hour))
	}
	store.now = func() time.Time { return base.Add(5 * time.Second) }
	require.NoError(t, store.SetSession(ctx, "anon", Payload{}, time.Hour))

	sessions, err := store.GetUserSessions(ctx, "buyer@example.com")
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, "third", sessions[0].SessionID)
	assert.Equal(t, "first", sessions[2].SessionID)
}

func TestSessionStore_EnsureSchemaReady(t *testing.T) {
	ctx := context.Background()
	store, repo := newTestStore(t)

	assert.True(t, store.EnsureSchemaReady(ctx))
	repo.SetFailure(errors.New("db down"))
	assert.False(t, store.EnsureSchemaReady(ctx))
}

func TestSessionStore_SetSessionErrors(t *testing.T) {
	ctx := context.Background()
	store, repo := newTestStore(t)

	assert.Error(t, store.SetSession(ctx, "", Payload{}, time.Hour))

	repo.SetFailure(errors.New("db down"))
	assert.Error(t, store.SetSession(ctx, "sid", Payload{}, time.Hour))
	_, err := store.GetSession(ctx, "sid")
	assert.Error(t, err)
}
