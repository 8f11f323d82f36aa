package catalog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"contabile/internal/core"
)

// MemorySource serves the catalog from a JSON seed file, used when no remote
// backend is configured and by tests.
type MemorySource struct {
	mu       sync.Mutex
	products []core.AldiProduct
}

func NewMemorySource(products []core.AldiProduct) *MemorySource {
	return &MemorySource{products: products}
}

type seedProduct struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	SKU         string  `json:"sku"`
	Description string  `json:"description"`
}

// NewFromFiles seeds the catalog from <base>/aldi_products.json. A missing
// or unreadable seed file yields an empty catalog, not an error.
func NewFromFiles(base string) *MemorySource {
	data, err := os.ReadFile(filepath.Join(base, "aldi_products.json"))
	if err != nil {
		return NewMemorySource(nil)
	}
	var seeds []seedProduct
	if err := json.Unmarshal(data, &seeds); err != nil {
		return NewMemorySource(nil)
	}
	products := make([]core.AldiProduct, 0, len(seeds))
	for _, s := range seeds {
		if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.SKU) == "" {
			continue
		}
		products = append(products, core.AldiProduct{
			ID:          s.ID,
			Name:        s.Name,
			Price:       core.Money{Cents: core.CentsFromFloat(s.Price)},
			Category:    s.Category,
			Image:       s.Image,
			SKU:         s.SKU,
			Description: s.Description,
		})
	}
	return NewMemorySource(products)
}

func (s *MemorySource) Products(_ context.Context) ([]core.AldiProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.AldiProduct, len(s.products))
	for i, p := range s.products {
		p.Description = "" // list entries omit the long-form description
		out[i] = p
	}
	return out, nil
}

func (s *MemorySource) Categories(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]struct{}{}
	var cats []string
	for _, p := range s.products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		cats = append(cats, p.Category)
	}
	sort.Strings(cats)
	return cats, nil
}

func (s *MemorySource) ProductBySKU(_ context.Context, sku string) (core.AldiProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return core.AldiProduct{}, core.ErrNotFound
}
