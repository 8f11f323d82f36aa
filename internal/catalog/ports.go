// Package catalog exposes the read-only Aldi product catalog.
package catalog

import (
	"context"

	"contabile/internal/core"
)

type (
	// Source serves the catalog pages. Products returns list entries
	// without the long-form description; ProductBySKU includes it.
	Source interface {
		Products(ctx context.Context) ([]core.AldiProduct, error)
		Categories(ctx context.Context) ([]string, error)
		ProductBySKU(ctx context.Context, sku string) (core.AldiProduct, error)
	}
)
