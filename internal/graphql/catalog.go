package graphql

import (
	"context"
	"fmt"

	"github.com/machinebox/graphql"

	"contabile/internal/core"
)

// Catalog implements catalog.Source over the remote API.
type Catalog struct {
	client *Client
}

func NewCatalog(client *Client) *Catalog {
	return &Catalog{client: client}
}

func (c *Catalog) Products(ctx context.Context) ([]core.AldiProduct, error) {
	var resp struct {
		AldiProducts []wireAldiProduct `json:"aldiProducts"`
	}
	req := graphql.NewRequest(queryAldiProducts)
	if err := c.client.gql.Run(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("query GetAldiProducts: %w", err)
	}
	out := make([]core.AldiProduct, len(resp.AldiProducts))
	for i, w := range resp.AldiProducts {
		out[i] = w.toDomain()
	}
	return out, nil
}

func (c *Catalog) Categories(ctx context.Context) ([]string, error) {
	// The server wraps each category name in an object.
	var resp struct {
		AldiCategories []struct {
			Category string `json:"category"`
		} `json:"aldiCategories"`
	}
	req := graphql.NewRequest(queryAldiCategories)
	if err := c.client.gql.Run(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("query GetAldiCategories: %w", err)
	}
	out := make([]string, len(resp.AldiCategories))
	for i, w := range resp.AldiCategories {
		out[i] = w.Category
	}
	return out, nil
}

func (c *Catalog) ProductBySKU(ctx context.Context, sku string) (core.AldiProduct, error) {
	var resp struct {
		AldiProduct *wireAldiProduct `json:"aldiProduct"`
	}
	req := graphql.NewRequest(queryAldiProductBySku)
	req.Var("sku", sku)
	if err := c.client.gql.Run(ctx, req, &resp); err != nil {
		return core.AldiProduct{}, fmt.Errorf("query GetAldiProductBySku: %w", err)
	}
	if resp.AldiProduct == nil {
		return core.AldiProduct{}, core.ErrNotFound
	}
	return resp.AldiProduct.toDomain(), nil
}
