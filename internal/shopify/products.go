package shopify

import (
	"context"
	"fmt"
	"net/http"
)

// productPageSize is the GraphQL page size; 250 is the Admin API maximum.
const productPageSize = 250

const productsQuery = `query Products($first: Int!, $after: String, $query: String!) {
  products(first: $first, after: $after, query: $query) {
    pageInfo { hasNextPage endCursor }
    nodes {
      id
      title
      handle
      vendor
      productType
      status
      tags
      updatedAt
      priceRangeV2 { minVariantPrice { amount currencyCode } }
    }
  }
}`

// Product is the catalog data kept in a snapshot.
type Product struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Handle      string   `json:"handle"`
	Vendor      string   `json:"vendor"`
	ProductType string   `json:"productType"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
	UpdatedAt   string   `json:"updatedAt"`
	MinPrice    string   `json:"minPrice"`
	Currency    string   `json:"currency"`
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type productsResponse struct {
	Data struct {
		Products struct {
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
			Nodes []productNode `json:"nodes"`
		} `json:"products"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type productNode struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Handle       string   `json:"handle"`
	Vendor       string   `json:"vendor"`
	ProductType  string   `json:"productType"`
	Status       string   `json:"status"`
	Tags         []string `json:"tags"`
	UpdatedAt    string   `json:"updatedAt"`
	PriceRangeV2 struct {
		MinVariantPrice struct {
			Amount       string `json:"amount"`
			CurrencyCode string `json:"currencyCode"`
		} `json:"minVariantPrice"`
	} `json:"priceRangeV2"`
}

// ProductsByTag pages through every product carrying tag.
func (c *Client) ProductsByTag(ctx context.Context, tag string) ([]Product, error) {
	products := []Product{}
	var cursor *string

	for {
		var resp productsResponse
		req := graphQLRequest{
			Query: productsQuery,
			Variables: map[string]any{
				"first": productPageSize,
				"after": cursor,
				"query": fmt.Sprintf("tag:%q", tag),
			},
		}
		if err := c.do(ctx, http.MethodPost, "/graphql.json", req, &resp); err != nil {
			return nil, err
		}
		if len(resp.Errors) > 0 {
			return nil, &APIError{StatusCode: http.StatusOK, Message: resp.Errors[0].Message}
		}

		for _, n := range resp.Data.Products.Nodes {
			products = append(products, n.toProduct())
		}

		page := resp.Data.Products.PageInfo
		if !page.HasNextPage || page.EndCursor == "" {
			return products, nil
		}
		next := page.EndCursor
		cursor = &next
	}
}

func (n productNode) toProduct() Product {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return Product{
		ID:          n.ID,
		Title:       n.Title,
		Handle:      n.Handle,
		Vendor:      n.Vendor,
		ProductType: n.ProductType,
		Status:      n.Status,
		Tags:        tags,
		UpdatedAt:   n.UpdatedAt,
		MinPrice:    n.PriceRangeV2.MinVariantPrice.Amount,
		Currency:    n.PriceRangeV2.MinVariantPrice.CurrencyCode,
	}
}
