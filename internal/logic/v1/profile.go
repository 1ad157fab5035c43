package v1

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/imanix/b2b-storefront/internal/core/domain"
)

// MinPasswordLength applies to passwords set by operators.
const MinPasswordLength = 8

// ProfileReport is an operator view of one user.
type ProfileReport struct {
	Email            string                  `json:"email"`
	FirstName        string                  `json:"firstName"`
	LastName         string                  `json:"lastName"`
	Company          string                  `json:"company"`
	HasPassword      bool                    `json:"hasPassword"`
	ProfileCompleted bool                    `json:"profileCompleted"`
	ActiveSessions   []domain.SessionSummary `json:"activeSessions"`
}

// PasswordHasher produces a storable hash from a plaintext password.
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// ProfileService backs the maintenance commands that inspect or patch a
// single user profile.
type ProfileService struct {
	users    domain.UserRepository
	sessions *SessionStore
	hasher   PasswordHasher
}

// NewProfileService creates a ProfileService. sessions may be nil, in which
// case reports carry no session list.
func NewProfileService(users domain.UserRepository, sessions *SessionStore, hasher PasswordHasher) *ProfileService {
	return &ProfileService{users: users, sessions: sessions, hasher: hasher}
}

// Inspect returns the profile and its live sessions. The hash is never exposed.
func (s *ProfileService) Inspect(ctx context.Context, email string) (*ProfileReport, error) {
	p, err := s.lookup(ctx, email)
	if err != nil {
		return nil, err
	}

	report := &ProfileReport{
		Email:            p.Email,
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		Company:          p.CompanyName,
		HasPassword:      p.PasswordHash != "",
		ProfileCompleted: p.ProfileCompleted(),
		ActiveSessions:   []domain.SessionSummary{},
	}
	if s.sessions != nil {
		sessions, err := s.sessions.GetUserSessions(ctx, p.Email)
		if err != nil {
			return nil, err
		}
		report.ActiveSessions = sessions
	}
	return report, nil
}

// SetPassword hashes and stores a new password for the user.
func (s *ProfileService) SetPassword(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, email, hash); err != nil {
		return wrapProfileErr(email, err)
	}
	return nil
}

// SetCompany replaces the user's company name.
func (s *ProfileService) SetCompany(ctx context.Context, email, company string) error {
	email = strings.TrimSpace(email)
	company = strings.TrimSpace(company)
	if company == "" {
		return fmt.Errorf("%w: company is required", ErrInvalidInput)
	}
	if err := s.users.UpdateCompanyName(ctx, email, company); err != nil {
		return wrapProfileErr(email, err)
	}
	return nil
}

func (s *ProfileService) lookup(ctx context.Context, email string) (*domain.UserProfile, error) {
	email = strings.TrimSpace(email)
	p, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, wrapProfileErr(email, err)
	}
	return p, nil
}

func wrapProfileErr(email string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("profile %q: %w", email, ErrUserNotFound)
	}
	return fmt.Errorf("profile %q: %w", email, err)
}
