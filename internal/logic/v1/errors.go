// Package v1 provides storefront session and authentication logic for API version 1.
//
// Error Handling:
// This package defines sentinel errors for every client-visible failure class.
// They are wrapped with context using fmt.Errorf("%w") when returned from
// business logic methods, and mapped to HTTP statuses by the web layer.
//
// Error Checking (in handlers):
//
//	switch {
//	case errors.Is(err, logicv1.ErrInvalidInput):
//	    // 400
//	case errors.Is(err, logicv1.ErrInvalidCredentials), errors.Is(err, logicv1.ErrUserNotFound):
//	    // 401, identical body for both
//	case errors.Is(err, logicv1.ErrPasswordNotSet):
//	    // 401, distinct reason
//	default:
//	    // 500
//	}
package v1

import (
	"errors"
	"fmt"
)

// Sentinel errors for authentication operations.
var (
	// ErrInvalidInput is the parent of every request validation failure.
	// HTTP Status: 400 Bad Request
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmailRequired indicates the email field was missing or blank.
	ErrEmailRequired = fmt.Errorf("%w: email is required", ErrInvalidInput)

	// ErrEmailInvalid indicates the email is not shaped like local@domain.tld.
	ErrEmailInvalid = fmt.Errorf("%w: email is malformed", ErrInvalidInput)

	// ErrPasswordRequired indicates the password field was missing or empty.
	ErrPasswordRequired = fmt.Errorf("%w: password is required", ErrInvalidInput)

	// ErrInvalidCredentials indicates the password did not match.
	// HTTP Status: 401 Unauthorized
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound indicates no profile exists for the email.
	// HTTP Status: 401 Unauthorized (same body as ErrInvalidCredentials)
	ErrUserNotFound = errors.New("user not found")

	// ErrPasswordNotSet indicates the profile exists but was never
	// provisioned for password login.
	// HTTP Status: 401 Unauthorized
	ErrPasswordNotSet = errors.New("password not set")

	// ErrStoreUnavailable indicates the profile store could not be reached.
	// HTTP Status: 500 Internal Server Error
	ErrStoreUnavailable = errors.New("profile store unavailable")

	// ErrNotAuthenticated indicates the session carries no authenticated customer.
	// HTTP Status: 401 Unauthorized
	ErrNotAuthenticated = errors.New("not authenticated")
)

// EnrichmentWarning reports a failed or timed-out customer lookup on the
// e-commerce platform. It is logged and never fails a login.
type EnrichmentWarning struct {
	Email string
	Err   error
}

func (w *EnrichmentWarning) Error() string {
	return fmt.Sprintf("enrich customer %q: %v", w.Email, w.Err)
}

func (w *EnrichmentWarning) Unwrap() error {
	return w.Err
}
