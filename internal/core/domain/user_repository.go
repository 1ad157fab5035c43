package domain

import (
	"context"
	"time"
)

// UserProfile is a row of user_profiles. Email is the unique key.
// PasswordHash is empty for accounts that were never provisioned for
// password login.
type UserProfile struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	CompanyName  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileCompleted reports whether the profile carries everything the
// storefront needs before checkout.
func (p *UserProfile) ProfileCompleted() bool {
	return p.FirstName != "" && p.LastName != "" && p.CompanyName != ""
}

// UserRepository defines the data-access contract for user profiles.
// Implementations live in internal/core/repository (Core layer).
// The Logic layer depends on this interface only, never on SQL or pgx directly.
type UserRepository interface {
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error

	// GetByEmail returns the profile with exactly the given email.
	// Returns ErrNotFound when no profile matches.
	GetByEmail(ctx context.Context, email string) (*UserProfile, error)

	// UpdatePasswordHash replaces the stored password hash.
	// Returns ErrNotFound when no profile matches.
	UpdatePasswordHash(ctx context.Context, email, passwordHash string) error

	// UpdateCompanyName replaces the stored company name.
	// Returns ErrNotFound when no profile matches.
	UpdateCompanyName(ctx context.Context, email, companyName string) error
}
