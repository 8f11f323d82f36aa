package http

import (
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"contabile/internal/core"
)

// aldiPageSize is how many catalog products one page shows.
const aldiPageSize = 10

type aldiProductView struct {
	Name     string
	Price    string
	Category string
	Image    string
	SKU      string
}

type aldiPageView struct {
	Active string

	Query      string
	Category   string
	Categories []string

	Products []aldiProductView

	Page      int
	PageCount int
	PrevPage  int
	NextPage  int
	Total     int

	LoadError bool
}

func (s *Server) handleAldi(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	query := sanitizeInput(r.URL.Query().Get("q"))
	category := sanitizeInput(r.URL.Query().Get("category"))
	if category == "" {
		category = "tutti"
	}
	page := atoiDefault(r.URL.Query().Get("page"), 1)
	if page < 1 {
		page = 1
	}

	view := aldiPageView{Active: "aldi", Query: query, Category: category}

	products, err := s.catalog.Products(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Catalog products fetch failed", "error", err)
		view.LoadError = true
	}
	categories, err := s.catalog.Categories(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Catalog categories fetch failed", "error", err)
		view.LoadError = true
	}
	view.Categories = categories

	filtered := filterAldiProducts(products, query, category)
	view.Total = len(filtered)

	view.PageCount = (len(filtered) + aldiPageSize - 1) / aldiPageSize
	if view.PageCount == 0 {
		view.PageCount = 1
	}
	if page > view.PageCount {
		page = view.PageCount
	}
	view.Page = page
	view.PrevPage = page - 1
	view.NextPage = page + 1
	if view.NextPage > view.PageCount {
		view.NextPage = 0
	}

	start := (page - 1) * aldiPageSize
	end := start + aldiPageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	for _, p := range filtered[start:end] {
		view.Products = append(view.Products, aldiProductView{
			Name:     p.Name,
			Price:    p.Price.String(),
			Category: p.Category,
			Image:    p.Image,
			SKU:      p.SKU,
		})
	}

	s.render(w, r, "aldi.html", view)
}

// filterAldiProducts applies the name search (case-insensitive substring)
// and the category filter; "tutti" selects every category.
func filterAldiProducts(products []core.AldiProduct, query, category string) []core.AldiProduct {
	query = strings.ToLower(query)
	out := make([]core.AldiProduct, 0, len(products))
	for _, p := range products {
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		if category != "tutti" && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *Server) handleAldiDetail(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	sku := strings.Trim(strings.TrimPrefix(r.URL.Path, "/aldi/"), "/")
	if sku == "" {
		http.Redirect(w, r, "/aldi", http.StatusFound)
		return
	}

	product, err := s.catalog.ProductBySKU(r.Context(), sku)
	if err != nil {
		if err == core.ErrNotFound {
			http.NotFound(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Catalog product lookup failed", "error", err, "sku", sku)
		http.Error(w, "catalog unavailable", http.StatusInternalServerError)
		return
	}

	view := struct {
		Active   string
		Name     string
		Price    string
		Category string
		Image    string
		SKU      string
		// The catalog ships product descriptions as HTML fragments.
		Description template.HTML
	}{
		Active:      "aldi",
		Name:        product.Name,
		Price:       product.Price.String(),
		Category:    product.Category,
		Image:       product.Image,
		SKU:         product.SKU,
		Description: template.HTML(product.Description),
	}

	s.render(w, r, "aldi_detail.html", view)
}
