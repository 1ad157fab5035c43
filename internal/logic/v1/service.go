package v1

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/go-playground/validator/v10"
	"github.com/imanix/b2b-storefront/internal/core/domain"
	"github.com/imanix/b2b-storefront/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Post-login destinations.
const (
	NextStepDashboard       = "dashboard"
	NextStepCompleteProfile = "complete_profile"

	RedirectDashboard       = "/pages/b2b-dashboard"
	RedirectCompleteProfile = "/pages/complete-profile"
)

// dummyHash is compared against when no profile exists so that unknown
// emails and wrong passwords cost the same bcrypt work.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z6Ghvh3n9wUq3sYzVQ5EpK6e"

// AuthService implements storefront login business rules.
// It depends on repository interfaces (injected via constructor) and
// MUST NOT access the database or SQL directly.
type AuthService struct {
	users    domain.UserRepository
	verifier CredentialVerifier
	enricher *Enricher
	validate *validator.Validate
}

// NewAuthService creates a new AuthService. enricher may be nil.
func NewAuthService(users domain.UserRepository, verifier CredentialVerifier, enricher *Enricher) *AuthService {
	return &AuthService{
		users:    users,
		verifier: verifier,
		enricher: enricher,
		validate: validator.New(),
	}
}

// Login verifies the credentials and, on success, stores the
// authenticated customer in sess and saves it.
func (s *AuthService) Login(ctx context.Context, sess *SessionContext, req domain.LoginRequest) (*domain.LoginResult, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.login", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	logger := pkgzerolog.FromContext(ctx)

	email := strings.TrimSpace(req.Email)
	if err := s.validateCredentials(email, req.Password); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		return nil, err
	}

	if err := s.users.Ping(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	profile, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.verifier.Verify(req.Password, dummyHash)
			span.SetAttributes(attribute.Bool("auth.success", false))
			span.AddEvent("authentication.failed")
			return nil, fmt.Errorf("authenticate %q: %w", email, ErrUserNotFound)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("query profile %q: %w", email, err)
	}

	if profile.PasswordHash == "" {
		span.SetAttributes(attribute.Bool("auth.success", false))
		return nil, fmt.Errorf("authenticate %q: %w", email, ErrPasswordNotSet)
	}

	if !s.verifier.Verify(req.Password, profile.PasswordHash) {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		return nil, fmt.Errorf("authenticate %q: %w", email, ErrInvalidCredentials)
	}

	customer := domain.SessionCustomer{
		Email:           email,
		FirstName:       profile.FirstName,
		LastName:        profile.LastName,
		Company:         profile.CompanyName,
		Tags:            []string{},
		IsAuthenticated: true,
	}

	// Best-effort: login never depends on the platform lookup.
	external, err := s.enricher.Enrich(ctx, email)
	if err != nil {
		middleware.EnrichmentFailures.Inc()
		logger.Warn().Err(err).Msg("Customer enrichment skipped")
	}
	applyEnrichment(&customer, external)

	// A resumed session that was anonymous or belonged to someone else
	// gets a new id so a planted cookie does not become authenticated.
	if !sess.IsNew() && !sess.AuthenticatedAs(email) {
		if err := sess.Rotate(ctx); err != nil {
			logger.Warn().Err(err).Msg("Previous session not deleted on rotation")
		}
		span.AddEvent("session.rotated")
	}

	sess.SetCustomer(customer)
	if err := sess.Save(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("save session: %w", err)
	}

	completed := profile.ProfileCompleted()
	result := &domain.LoginResult{
		Customer: domain.CustomerData{
			Email:     customer.Email,
			FirstName: customer.FirstName,
			LastName:  customer.LastName,
			Company:   customer.Company,
		},
		ProfileCompleted: completed,
		NextStep:         NextStepDashboard,
		Redirect:         RedirectDashboard,
	}
	if !completed {
		result.NextStep = NextStepCompleteProfile
		result.Redirect = RedirectCompleteProfile
	}

	span.SetAttributes(
		attribute.Bool("auth.success", true),
		attribute.Bool("profile.completed", completed),
	)
	span.AddEvent("customer.authenticated")

	return result, nil
}

// CurrentCustomer returns the authenticated customer held by sess.
func (s *AuthService) CurrentCustomer(sess *SessionContext) (domain.SessionCustomer, error) {
	customer, ok := sess.Customer()
	if !ok || !customer.IsAuthenticated {
		return domain.SessionCustomer{}, ErrNotAuthenticated
	}
	return customer, nil
}

// Logout destroys the session. Logging out twice is not an error.
func (s *AuthService) Logout(ctx context.Context, sess *SessionContext) error {
	if err := sess.Destroy(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *AuthService) validateCredentials(email, password string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return ErrEmailInvalid
	}
	if password == "" {
		return ErrPasswordRequired
	}
	return nil
}

// applyEnrichment folds platform data into the customer. Tags always come
// from the platform; names and company only fill gaps in the profile.
// DiscountRate stays nil: it is derived from tags by pricing, not here.
func applyEnrichment(c *domain.SessionCustomer, ext *domain.ExternalCustomer) {
	if ext == nil {
		return
	}
	if ext.Tags != nil {
		c.Tags = ext.Tags
	}
	if c.Company == "" {
		c.Company = ext.Company
	}
	if c.FirstName == "" {
		c.FirstName = ext.FirstName
	}
	if c.LastName == "" {
		c.LastName = ext.LastName
	}
}
