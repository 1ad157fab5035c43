package v1

import (
	"context"
	"errors"
	"time"

	"github.com/imanix/b2b-storefront/internal/core/domain"
)

// DefaultEnrichTimeout bounds a single customer enrichment call.
const DefaultEnrichTimeout = 3 * time.Second

// Enricher fetches supplementary customer data from the e-commerce platform.
// Every failure is returned as *EnrichmentWarning.
type Enricher struct {
	directory domain.CustomerDirectory
	timeout   time.Duration
}

// NewEnricher creates an Enricher. A nil directory yields a nil Enricher,
// which enriches nothing.
func NewEnricher(directory domain.CustomerDirectory, timeout time.Duration) *Enricher {
	if directory == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultEnrichTimeout
	}
	return &Enricher{directory: directory, timeout: timeout}
}

// Enrich looks the customer up within the configured timeout. It returns
// (nil, nil) when the platform has no such customer.
func (e *Enricher) Enrich(ctx context.Context, email string) (*domain.ExternalCustomer, error) {
	if e == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type result struct {
		customer *domain.ExternalCustomer
		err      error
	}
	done := make(chan result, 1)
	go func() {
		c, err := e.directory.FindByEmail(ctx, email)
		done <- result{c, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, &EnrichmentWarning{Email: email, Err: r.err}
		}
		return r.customer, nil
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.New("customer lookup timed out")
		}
		return nil, &EnrichmentWarning{Email: email, Err: err}
	}
}
