package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/imanix/b2b-storefront/internal/core/domain"
	"github.com/rs/zerolog"
)

// reservedKeys are control fields that never belong in a persisted payload.
var reservedKeys = []string{"sessionId", "save", "regenerate"}

// SessionContext is the request-scoped view of one session. It is created
// by SessionStore.Load, mutated by the request, and persisted only by Save.
// It is not safe for concurrent use.
type SessionContext struct {
	store   *SessionStore
	id      string
	payload Payload
	isNew   bool
	saved   bool
}

// Load builds the SessionContext for an inbound request.
//
//	no id                     -> mint new, empty payload
//	id, live record           -> merge record, keep id
//	id, missing/expired/error -> mint new, empty payload
//
// Store errors are logged and never returned.
func (s *SessionStore) Load(ctx context.Context, sessionID string) *SessionContext {
	sc := &SessionContext{store: s, payload: Payload{}}

	if sessionID == "" {
		sc.Regenerate()
		return sc
	}

	payload, err := s.GetSession(ctx, sessionID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Session lookup failed, starting a new session")
	}
	if payload == nil {
		sc.Regenerate()
		return sc
	}

	sc.id = sessionID
	sc.Merge(payload)
	return sc
}

// ID returns the session identifier. It is empty only before the first
// Regenerate or Save of a context built outside Load.
func (c *SessionContext) ID() string {
	return c.id
}

// IsNew reports whether the identifier was minted during this request,
// which means the client needs a new cookie once the session is saved.
func (c *SessionContext) IsNew() bool {
	return c.isNew
}

// Saved reports whether Save succeeded during this request.
func (c *SessionContext) Saved() bool {
	return c.saved
}

// Regenerate replaces the identifier with a freshly minted one.
func (c *SessionContext) Regenerate() {
	c.id = c.store.GenerateSessionID()
	c.isNew = true
	c.saved = false
}

// Rotate moves the payload to a freshly minted identifier and deletes the
// record stored under the old one. The payload is kept even when the
// delete fails; the old record then lapses at its expiry.
func (c *SessionContext) Rotate(ctx context.Context) error {
	old := c.id
	c.Regenerate()
	if err := c.store.DestroySession(ctx, old); err != nil {
		return fmt.Errorf("rotate session: %w", err)
	}
	return nil
}

// AuthenticatedAs reports whether the session already holds an
// authenticated customer with this email.
func (c *SessionContext) AuthenticatedAs(email string) bool {
	customer, ok := c.Customer()
	return ok && customer.IsAuthenticated && customer.Email == email
}

// Merge copies the fields of a loaded payload onto the context. Control
// fields in the record are ignored and the context keeps its identifier.
func (c *SessionContext) Merge(p Payload) {
	id := c.id
	maps.Copy(c.payload, p)
	stripReserved(c.payload)
	c.id = id
}

// Get returns the payload value stored under key.
func (c *SessionContext) Get(key string) (any, bool) {
	v, ok := c.payload[key]
	return v, ok
}

// Set stores value under key. Reserved control keys are ignored.
func (c *SessionContext) Set(key string, value any) {
	for _, k := range reservedKeys {
		if k == key {
			return
		}
	}
	c.payload[key] = value
}

// Delete removes key from the payload.
func (c *SessionContext) Delete(key string) {
	delete(c.payload, key)
}

// Payload returns a shallow copy of the semantic payload.
func (c *SessionContext) Payload() Payload {
	return maps.Clone(c.payload)
}

// SetCustomer records the authenticated customer.
func (c *SessionContext) SetCustomer(customer domain.SessionCustomer) {
	c.payload[domain.CustomerKey] = customer
}

// Customer returns the customer sub-record, whether it was set during this
// request or decoded from a loaded payload.
func (c *SessionContext) Customer() (domain.SessionCustomer, bool) {
	switch v := c.payload[domain.CustomerKey].(type) {
	case domain.SessionCustomer:
		return v, true
	case map[string]any:
		raw, err := json.Marshal(v)
		if err != nil {
			return domain.SessionCustomer{}, false
		}
		var customer domain.SessionCustomer
		if err := json.Unmarshal(raw, &customer); err != nil {
			return domain.SessionCustomer{}, false
		}
		return customer, true
	}
	return domain.SessionCustomer{}, false
}

// Save persists the payload, minting an identifier first if there is none.
func (c *SessionContext) Save(ctx context.Context) error {
	if c.id == "" {
		c.Regenerate()
	}
	stripReserved(c.payload)

	if err := c.store.SetSession(ctx, c.id, c.payload, c.store.MaxAge()); err != nil {
		return err
	}
	c.saved = true
	return nil
}

// Destroy deletes the persisted session and clears the payload.
func (c *SessionContext) Destroy(ctx context.Context) error {
	if err := c.store.DestroySession(ctx, c.id); err != nil {
		return err
	}
	c.payload = Payload{}
	c.saved = false
	return nil
}

func stripReserved(p Payload) {
	for _, k := range reservedKeys {
		delete(p, k)
	}
}
