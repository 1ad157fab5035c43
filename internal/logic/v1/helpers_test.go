package v1

import (
	"context"
	"testing"
	"time"

	"github.com/imanix/b2b-storefront/internal/core/domain"
	"github.com/imanix/b2b-storefront/internal/core/repository"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func hashPassword(t *testing.T, plain string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(b)
}

func newTestStore(t *testing.T) (*SessionStore, *repository.MemorySessionRepository) {
	t.Helper()
	repo := repository.NewMemorySessionRepository()
	return NewSessionStore(repo, time.Hour), repo
}

// fakeDirectory is a domain.CustomerDirectory with canned answers.
type fakeDirectory struct {
	customer *domain.ExternalCustomer
	err      error
	delay    time.Duration
}

func (f *fakeDirectory) FindByEmail(ctx context.Context, _ string) (*domain.ExternalCustomer, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.customer, f.err
}
