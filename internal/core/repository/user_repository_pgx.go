package repository

import (
	"context"
	"errors"

	"github.com/imanix/b2b-storefront/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxUserRepository implements domain.UserRepository using pgxpool.
type PgxUserRepository struct {
	pool *pgxpool.Pool
}

var _ domain.UserRepository = (*PgxUserRepository)(nil)

// NewUserRepository creates a new PgxUserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PgxUserRepository {
	return &PgxUserRepository{pool: pool}
}

// Ping reports whether the pool can reach the database.
func (r *PgxUserRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// GetByEmail returns the profile matching the given email exactly.
func (r *PgxUserRepository) GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	query := `
		SELECT email, COALESCE(password_hash, ''), COALESCE(first_name, ''),
		       COALESCE(last_name, ''), COALESCE(company_name, ''), created_at, updated_at
		FROM user_profiles
		WHERE email = $1
	`

	var p domain.UserProfile
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&p.Email, &p.PasswordHash, &p.FirstName, &p.LastName, &p.CompanyName,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	return &p, nil
}

// UpdatePasswordHash sets password_hash for the given email.
func (r *PgxUserRepository) UpdatePasswordHash(ctx context.Context, email, passwordHash string) error {
	query := `UPDATE user_profiles SET password_hash = $2, updated_at = NOW() WHERE email = $1`
	return r.execOne(ctx, query, email, passwordHash)
}

// UpdateCompanyName sets company_name for the given email.
func (r *PgxUserRepository) UpdateCompanyName(ctx context.Context, email, companyName string) error {
	query := `UPDATE user_profiles SET company_name = $2, updated_at = NOW() WHERE email = $1`
	return r.execOne(ctx, query, email, companyName)
}

func (r *PgxUserRepository) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
