package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/imanix/b2b-storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository(domain.UserProfile{
		Email:       "buyer@example.com",
		FirstName:   "Ada",
		CompanyName: "Acme",
	})

	p, err := repo.GetByEmail(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.FirstName)

	_, err = repo.GetByEmail(ctx, "BUYER@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound, "lookup is an exact match")

	require.NoError(t, repo.UpdatePasswordHash(ctx, "buyer@example.com", "hash"))
	require.NoError(t, repo.UpdateCompanyName(ctx, "buyer@example.com", "Acme GmbH"))
	p, err = repo.GetByEmail(ctx, "buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", p.PasswordHash)
	assert.Equal(t, "Acme GmbH", p.CompanyName)

	assert.ErrorIs(t, repo.UpdateCompanyName(ctx, "ghost@example.com", "x"), domain.ErrNotFound)

	down := errors.New("connection refused")
	repo.SetFailure(down)
	assert.ErrorIs(t, repo.Ping(ctx), down)
	_, err = repo.GetByEmail(ctx, "buyer@example.com")
	assert.ErrorIs(t, err, down)
}
