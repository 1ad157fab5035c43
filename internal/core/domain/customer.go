package domain

import "context"

// SessionCustomer is the authenticated customer sub-record kept in the
// session payload under CustomerKey.
type SessionCustomer struct {
	Email           string   `json:"email"`
	FirstName       string   `json:"firstName"`
	LastName        string   `json:"lastName"`
	Company         string   `json:"company"`
	Tags            []string `json:"tags"`
	DiscountRate    *float64 `json:"discountRate"`
	IsAuthenticated bool     `json:"isAuthenticated"`
}

// CustomerKey is the payload key holding the SessionCustomer.
const CustomerKey = "customer"

// ExternalCustomer is the subset of the e-commerce platform's customer
// record used to enrich a session.
type ExternalCustomer struct {
	ID        int64
	Email     string
	FirstName string
	LastName  string
	Company   string
	Tags      []string
}

// CustomerDirectory looks customers up on the e-commerce platform.
type CustomerDirectory interface {
	// FindByEmail returns the customer with the given email, or (nil, nil)
	// when the platform has none.
	FindByEmail(ctx context.Context, email string) (*ExternalCustomer, error)
}
