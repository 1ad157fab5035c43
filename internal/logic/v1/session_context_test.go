package v1

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/imanix/b2b-storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_NoCookieMintsNewSession(t *testing.T) {
	store, repo := newTestStore(t)

	sess := store.Load(context.Background(), "")

	assert.NotEmpty(t, sess.ID())
	assert.True(t, sess.IsNew())
	assert.Empty(t, sess.Payload())
	assert.Equal(t, 0, repo.Len(), "nothing is persisted until Save")
}

func TestLoad_UnknownIDMintsNewSession(t *testing.T) {
	store, _ := newTestStore(t)

	sess := store.Load(context.Background(), "stale-id")

	assert.NotEqual(t, "stale-id", sess.ID())
	assert.True(t, sess.IsNew())
}

func TestLoad_ExpiredIDMintsNewSession(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	require.NoError(t, store.SetSession(ctx, "old", Payload{"k": "v"}, time.Minute))
	store.now = func() time.Time { return time.Now().Add(time.Hour) }

	sess := store.Load(ctx, "old")

	assert.NotEqual(t, "old", sess.ID())
	assert.True(t, sess.IsNew())
	_, ok := sess.Get("k")
	assert.False(t, ok)
}

func TestLoad_StoreFailureMintsNewSession(t *testing.T) {
	store, repo := newTestStore(t)
	repo.SetFailure(errors.New("db down"))

	sess := store.Load(context.Background(), "some-id")

	assert.NotEqual(t, "some-id", sess.ID())
	assert.True(t, sess.IsNew())
}

func TestLoad_ExistingSessionMergesAndKeepsID(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	require.NoError(t, store.SetSession(ctx, "live", Payload{
		"cartToken": "abc",
		"sessionId": "attacker-controlled",
	}, time.Hour))

	sess := store.Load(ctx, "live")

	assert.Equal(t, "live", sess.ID())
	assert.False(t, sess.IsNew())
	v, ok := sess.Get("cartToken")
	require.True(t, ok)
	assert.Equal(t, "abc", v)
	_, ok = sess.Get("sessionId")
	assert.False(t, ok, "control fields from a record are dropped")
}

func TestMerge_NeverOverwritesID(t *testing.T) {
	store, _ := newTestStore(t)
	sess := store.Load(context.Background(), "")
	id := sess.ID()

	sess.Merge(Payload{"sessionId": "other", "a": 1})

	assert.Equal(t, id, sess.ID())
	v, _ := sess.Get("a")
	assert.Equal(t, 1, v)
}

func TestRegenerate_ReplacesID(t *testing.T) {
	store, _ := newTestStore(t)
	sess := store.Load(context.Background(), "")
	first := sess.ID()

	sess.Regenerate()

	assert.NotEqual(t, first, sess.ID())
	assert.True(t, sess.IsNew())
}

func TestSave_PersistsPayloadWithoutControlFields(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	sess := &SessionContext{store: store, payload: Payload{}}

	sess.Set("cartToken", "abc")
	sess.Set("save", "ignored")
	sess.payload["regenerate"] = "smuggled"

	require.NoError(t, sess.Save(ctx))
	require.NotEmpty(t, sess.ID(), "Save mints an id when none exists")
	assert.True(t, sess.Saved())

	got, err := store.GetSession(ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, Payload{"cartToken": "abc"}, got)
}

func TestSave_PropagatesStoreError(t *testing.T) {
	store, repo := newTestStore(t)
	sess := store.Load(context.Background(), "")
	repo.SetFailure(errors.New("db down"))

	assert.Error(t, sess.Save(context.Background()))
	assert.False(t, sess.Saved())
}

func TestCustomer_RoundTripsThroughStore(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	sess := store.Load(ctx, "")
	want := domain.SessionCustomer{
		Email:           "buyer@example.com",
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Company:         "Acme",
		Tags:            []string{"b2b"},
		IsAuthenticated: true,
	}
	sess.SetCustomer(want)
	require.NoError(t, sess.Save(ctx))

	reloaded := store.Load(ctx, sess.ID())
	got, ok := reloaded.Customer()
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestDestroy_ClearsPayload(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	sess := store.Load(ctx, "")
	sess.Set("k", "v")
	require.NoError(t, sess.Save(ctx))

	require.NoError(t, sess.Destroy(ctx))
	require.NoError(t, sess.Destroy(ctx))

	assert.Empty(t, sess.Payload())
	got, err := store.GetSession(ctx, sess.ID())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRotate_MovesPayloadToNewID(t *testing.T) {
	ctx := context.Background()
	store, repo := newTestStore(t)
	require.NoError(t, store.SetSession(ctx, "old", Payload{"cart": "c-1"}, time.Hour))

	sess := store.Load(ctx, "old")
	require.NoError(t, sess.Rotate(ctx))

	assert.NotEqual(t, "old", sess.ID())
	assert.True(t, sess.IsNew())
	v, ok := sess.Get("cart")
	assert.True(t, ok)
	assert.Equal(t, "c-1", v)
	assert.Equal(t, 0, repo.Len())

	require.NoError(t, sess.Save(ctx))
	assert.Equal(t, 1, repo.Len())
}

func TestAuthenticatedAs(t *testing.T) {
	store, _ := newTestStore(t)
	sess := store.Load(context.Background(), "")
	assert.False(t, sess.AuthenticatedAs("a@b.co"))

	sess.SetCustomer(domain.SessionCustomer{Email: "a@b.co", IsAuthenticated: true})
	assert.True(t, sess.AuthenticatedAs("a@b.co"))
	assert.False(t, sess.AuthenticatedAs("c@d.co"))
}
