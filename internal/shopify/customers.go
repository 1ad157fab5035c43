package shopify

import (
	"context"
	"net/http"
	"strings"

	"github.com/imanix/b2b-storefront/internal/core/domain"
)

type customerSearchResponse struct {
	Customers []customerJSON `json:"customers"`
}

type customerJSON struct {
	ID             int64  `json:"id"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Tags           string `json:"tags"`
	DefaultAddress *struct {
		Company string `json:"company"`
	} `json:"default_address"`
}

// FindByEmail implements domain.CustomerDirectory. Only an exact
// (case-insensitive) email match counts; search results are fuzzy.
func (c *Client) FindByEmail(ctx context.Context, email string) (*domain.ExternalCustomer, error) {
	var resp customerSearchResponse
	if err := c.do(ctx, http.MethodGet, searchPath(email), nil, &resp); err != nil {
		return nil, err
	}

	for _, cu := range resp.Customers {
		if !strings.EqualFold(cu.Email, email) {
			continue
		}
		ext := &domain.ExternalCustomer{
			ID:        cu.ID,
			Email:     cu.Email,
			FirstName: cu.FirstName,
			LastName:  cu.LastName,
			Tags:      ParseTags(cu.Tags),
		}
		if cu.DefaultAddress != nil {
			ext.Company = cu.DefaultAddress.Company
		}
		return ext, nil
	}
	return nil, nil
}

// ParseTags splits Shopify's comma-separated tag string.
func ParseTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
