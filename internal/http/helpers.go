package http

import (
	"net/http"
	"strconv"
	"strings"

	"contabile/internal/core"
)

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// formValue reads a sanitized form field.
func formValue(r *http.Request, name string) string {
	return sanitizeInput(r.Form.Get(name))
}

// RequireMethod checks if the request method matches one of the expected
// methods. Returns an error response builder if it doesn't.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireDeleteOrPOST is a convenience function for DELETE/POST handlers.
func RequireDeleteOrPOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}

// ParseFormOrFail parses the request form and returns an error response on
// failure. Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Formato richiesta non valido")
	}
	return nil
}

// cardFilter normalizes the card selector value: "all" and the empty string
// both mean no filter.
func cardFilter(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "all" {
		return ""
	}
	return raw
}

// parseTransactionForm builds a transaction from the add form shared by the
// expenses and incomes pages. The card must be a concrete selection, not the
// all-cards view.
func parseTransactionForm(r *http.Request) (core.Transaction, *HTMXResponseBuilder) {
	card := cardFilter(formValue(r, "card"))
	if card == "" {
		return core.Transaction{}, UnprocessableEntityError("Seleziona una carta")
	}

	cents, err := core.ParseDecimalToCents(strings.TrimSpace(r.Form.Get("amount")))
	if err != nil {
		return core.Transaction{}, UnprocessableEntityError("Importo non valido")
	}

	date, err := core.ParseDateLenient(formValue(r, "date"))
	if err != nil {
		return core.Transaction{}, UnprocessableEntityError("Data non valida")
	}

	tx := core.Transaction{
		Description: formValue(r, "description"),
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Category:    formValue(r, "category"),
		CardID:      card,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, UnprocessableEntityError("Dati non validi: " + err.Error())
	}
	return tx, nil
}

// selectedIDs collects the id set of a delete form, preserving submission
// order. A single "id" field is accepted as a one-element selection.
func selectedIDs(r *http.Request) []string {
	var ids []string
	for _, raw := range r.Form["ids"] {
		if id := sanitizeInput(raw); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		if id := formValue(r, "id"); id != "" {
			ids = []string{id}
		}
	}
	return ids
}

// cardNames indexes card display names by id for the transaction tables.
func cardNames(cards []core.Card) map[string]string {
	names := make(map[string]string, len(cards))
	for _, c := range cards {
		names[c.ID] = c.Name
	}
	return names
}

// findCard returns the card with the given id, or nil.
func findCard(cards []core.Card, id string) *core.Card {
	for i := range cards {
		if cards[i].ID == id {
			return &cards[i]
		}
	}
	return nil
}

// barWidth scales a value against the series maximum as a rounded percent,
// keeping tiny non-zero bars visible.
func barWidth(value, max float64) int {
	if max <= 0 || value <= 0 {
		return 0
	}
	width := int(value/max*100 + 0.5)
	if width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}

// atoiDefault parses an integer query parameter with a fallback.
func atoiDefault(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
