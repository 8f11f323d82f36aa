package http

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"contabile/internal/catalog"
	"contabile/internal/core"
	"contabile/internal/ledger"
	"contabile/internal/ledger/memory"
)

func newTestServer(t *testing.T, store ledger.Store, source catalog.Source) *Server {
	t.Helper()
	if store == nil {
		store = memory.New()
	}
	if source == nil {
		source = catalog.NewMemorySource(nil)
	}
	srv := NewServer(":0", store, source)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func get(srv *Server, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.Server.Handler.ServeHTTP(rr, req)
	return rr
}

func postForm(srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Server.Handler.ServeHTTP(rr, req)
	return rr
}

func mustAddCard(t *testing.T, store ledger.Store, name string, initialCents int64) core.Card {
	t.Helper()
	card, err := store.AddCard(context.Background(), core.Card{
		Name:          name,
		InitialCredit: core.Money{Cents: initialCents},
	})
	if err != nil {
		t.Fatalf("AddCard(%q): %v", name, err)
	}
	return card
}

func TestPagesRender(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	paths := []string{
		"/dashboard", "/expenses", "/incomes", "/aldi", "/import",
		"/inventory", "/reports", "/profile", "/settings",
		"/healthz", "/readyz",
	}
	for _, path := range paths {
		if rr := get(srv, path); rr.Code != http.StatusOK {
			t.Errorf("%s status=%d", path, rr.Code)
		}
	}
}

func TestRootRedirectsToDashboard(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	rr := get(srv, "/")
	if rr.Code != http.StatusFound {
		t.Fatalf("status=%d, want %d", rr.Code, http.StatusFound)
	}
	if loc := rr.Header().Get("Location"); loc != "/dashboard" {
		t.Fatalf("Location=%q, want /dashboard", loc)
	}
}

func TestCreateExpenseValidationAndSuccess(t *testing.T) {
	store := memory.New()
	card := mustAddCard(t, store, "Carta principale", 100000)
	srv := newTestServer(t, store, nil)

	// Wrong method
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/expenses", nil)
	srv.Server.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}

	// Card required: the all-cards view cannot receive an expense
	rr = postForm(srv, "/expenses", url.Values{
		"card": {"all"}, "description": {"caffè"}, "amount": {"1,20"},
		"category": {"Bar"}, "date": {"2025-03-10"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without card, got %d", rr.Code)
	}

	// Invalid amount
	rr = postForm(srv, "/expenses", url.Values{
		"card": {card.ID}, "description": {"caffè"}, "amount": {"abc"},
		"category": {"Bar"}, "date": {"2025-03-10"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad amount, got %d", rr.Code)
	}

	// Success
	rr = postForm(srv, "/expenses", url.Values{
		"card": {card.ID}, "description": {"caffè"}, "amount": {"1,20"},
		"category": {"Bar"}, "date": {"2025-03-10"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	trigger := rr.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, "expense:created") {
		t.Fatalf("HX-Trigger missing expense:created: %s", trigger)
	}

	expenses, err := store.ListExpenses(context.Background(), card.ID)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(expenses) != 1 || expenses[0].Amount.Cents != 120 {
		t.Fatalf("unexpected expenses after create: %+v", expenses)
	}
}

func TestExpensesPageUnknownCardFallsBackToAll(t *testing.T) {
	store := memory.New()
	srv := newTestServer(t, store, nil)
	card := mustAddCard(t, store, "Principale", 100_00)

	rr := get(srv, "/expenses?card=ghost")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `value="all" selected`) {
		t.Error("all-cards option must be marked selected after the fallback")
	}
	if strings.Contains(body, `value="`+card.ID+`" selected`) {
		t.Errorf("card %s must not be marked selected", card.ID)
	}

	rr = get(srv, "/expenses?card="+card.ID)
	if !strings.Contains(rr.Body.String(), `value="`+card.ID+`" selected`) {
		t.Errorf("card %s must be marked selected when filtered", card.ID)
	}
}

func TestExpensesPageFiltersAndBalances(t *testing.T) {
	store := memory.New()
	card := mustAddCard(t, store, "Carta principale", 100000) // €1.000,00
	other := mustAddCard(t, store, "Carta risparmi", 50000)

	day1 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
	day2 := time.Date(2025, 3, 11, 9, 0, 0, 0, time.Local)
	for _, tx := range []core.Transaction{
		{Description: "spesa uno", Amount: core.Money{Cents: 4000}, Date: day1, Category: "Casa", CardID: card.ID},
		{Description: "spesa due", Amount: core.Money{Cents: 6000}, Date: day2, Category: "Casa", CardID: card.ID},
		{Description: "altra carta", Amount: core.Money{Cents: 1000}, Date: day1, Category: "Casa", CardID: other.ID},
	} {
		if _, err := store.AddExpense(context.Background(), tx); err != nil {
			t.Fatalf("AddExpense: %v", err)
		}
	}

	srv := newTestServer(t, store, nil)

	rr := get(srv, "/expenses?card="+card.ID)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()

	if !strings.Contains(body, "spesa uno") || !strings.Contains(body, "spesa due") {
		t.Fatalf("body missing selected card expenses")
	}
	if strings.Contains(body, "altra carta") {
		t.Fatalf("body leaks other card's expense")
	}
	// The day changes once, so exactly one divider row.
	if got := strings.Count(body, `class="divider"`); got != 1 {
		t.Fatalf("divider rows = %d, want 1", got)
	}
	// Credito attuale: 1000 − 100 = €900,00
	if !strings.Contains(body, "€900,00") {
		t.Fatalf("body missing credito attuale €900,00")
	}
	// Running-balance column: initial − cumulative, id order.
	if !strings.Contains(body, "€960,00") || !strings.Contains(body, "€900,00") {
		t.Fatalf("body missing residual balances")
	}
}

// recordingStore captures bulk delete calls to verify selection handling.
type recordingStore struct {
	ledger.Store
	deleted [][]string
}

func (r *recordingStore) DeleteExpenses(ctx context.Context, ids []string) error {
	r.deleted = append(r.deleted, ids)
	return r.Store.DeleteExpenses(ctx, ids)
}

func TestBulkDeleteKeepsSelectionOrder(t *testing.T) {
	mem := memory.New()
	card := mustAddCard(t, mem, "Carta principale", 100000)
	var ids []string
	for i := 0; i < 3; i++ {
		tx, err := mem.AddExpense(context.Background(), core.Transaction{
			Description: fmt.Sprintf("spesa %d", i),
			Amount:      core.Money{Cents: 100},
			Date:        time.Now(),
			Category:    "Varie",
			CardID:      card.ID,
		})
		if err != nil {
			t.Fatalf("AddExpense: %v", err)
		}
		ids = append(ids, tx.ID)
	}

	store := &recordingStore{Store: mem}
	srv := newTestServer(t, store, nil)

	// Selection order differs from insertion order and must be preserved.
	selection := []string{ids[2], ids[0], ids[1]}
	rr := postForm(srv, "/expenses/delete", url.Values{
		"card": {card.ID},
		"ids":  selection,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d: %s", rr.Code, rr.Body.String())
	}

	if len(store.deleted) != 1 {
		t.Fatalf("DeleteExpenses calls = %d, want 1", len(store.deleted))
	}
	for i, id := range selection {
		if store.deleted[0][i] != id {
			t.Fatalf("call order %v, want %v", store.deleted[0], selection)
		}
	}

	trigger := rr.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, "selection:clear") {
		t.Fatalf("HX-Trigger missing selection:clear: %s", trigger)
	}

	left, err := mem.ListExpenses(context.Background(), "")
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("expenses left after bulk delete: %d", len(left))
	}
}

func TestDeleteWithoutSelection(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	rr := postForm(srv, "/expenses/delete", url.Values{"card": {"all"}})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rr.Code)
	}
}

func seedCatalog(n int) *catalog.MemorySource {
	var products []core.AldiProduct
	for i := 1; i <= n; i++ {
		category := "dispensa"
		if i%2 == 0 {
			category = "freschi"
		}
		products = append(products, core.AldiProduct{
			ID:          fmt.Sprintf("p-%d", i),
			Name:        fmt.Sprintf("Prodotto %02d", i),
			Price:       core.Money{Cents: int64(i) * 100},
			Category:    category,
			SKU:         fmt.Sprintf("sku-%d", i),
			Description: "<p>Dettagli prodotto</p>",
		})
	}
	return catalog.NewMemorySource(products)
}

func TestAldiPaginationSearchAndCategory(t *testing.T) {
	srv := newTestServer(t, nil, seedCatalog(15))

	// Page 1 holds 10 products, page 2 the remaining 5.
	body := get(srv, "/aldi").Body.String()
	if got := strings.Count(body, "product-card__name"); got != 10 {
		t.Fatalf("page 1 products = %d, want 10", got)
	}
	if !strings.Contains(body, "Pagina 1 di 2") {
		t.Fatalf("page 1 missing pagination label")
	}

	body = get(srv, "/aldi?page=2").Body.String()
	if got := strings.Count(body, "product-card__name"); got != 5 {
		t.Fatalf("page 2 products = %d, want 5", got)
	}

	// Name search is a case-insensitive substring match.
	body = get(srv, "/aldi?q=prodotto+01").Body.String()
	if got := strings.Count(body, "product-card__name"); got != 1 {
		t.Fatalf("search products = %d, want 1", got)
	}

	// Category filter; "tutti" would keep everything.
	body = get(srv, "/aldi?category=freschi").Body.String()
	if got := strings.Count(body, "product-card__name"); got != 7 {
		t.Fatalf("category products = %d, want 7", got)
	}
}

func TestAldiDetail(t *testing.T) {
	srv := newTestServer(t, nil, seedCatalog(3))

	rr := get(srv, "/aldi/sku-2")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	// The long description renders as HTML, not escaped text.
	if !strings.Contains(rr.Body.String(), "<p>Dettagli prodotto</p>") {
		t.Fatalf("detail body missing HTML description")
	}

	if rr := get(srv, "/aldi/sconosciuto"); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown sku status=%d, want 404", rr.Code)
	}
}

func uploadStatement(t *testing.T, srv *Server, cardID, csv string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("card", cardID); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	fw, err := mw.CreateFormFile("statement", "estratto.csv")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte(csv)); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/import/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	srv.Server.Handler.ServeHTTP(rr, req)
	return rr
}

func TestImportFlow(t *testing.T) {
	store := memory.New()
	card := mustAddCard(t, store, "Carta principale", 100000)
	srv := newTestServer(t, store, nil)

	csv := "data,descrizione,importo\n" +
		",,2025-09-27 10:00,Supermercato,-10.5,extra\n" +
		",,2025-09-28 09:00,Stipendio,1500.0,\n" +
		",,data rotta,Bar,-3.0,\n"

	rr := uploadStatement(t, srv, card.ID, csv)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("upload status=%d: %s", rr.Code, rr.Body.String())
	}
	loc := rr.Header().Get("Location")
	if !strings.HasPrefix(loc, "/import?token=") {
		t.Fatalf("upload Location=%q", loc)
	}

	// Review page shows only the staged debit; nothing written yet.
	body := get(srv, loc).Body.String()
	if !strings.Contains(body, "Supermercato") || !strings.Contains(body, "€10,50") {
		t.Fatalf("review page missing staged row: %s", body)
	}
	if strings.Contains(body, "Stipendio") {
		t.Fatalf("review page staged a deposit")
	}
	if expenses, _ := store.ListExpenses(context.Background(), ""); len(expenses) != 0 {
		t.Fatalf("expenses written before confirm: %d", len(expenses))
	}

	token := strings.TrimPrefix(loc, "/import?token=")
	rr = postForm(srv, "/import/confirm", url.Values{"token": {token}})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("confirm status=%d: %s", rr.Code, rr.Body.String())
	}

	expenses, err := store.ListExpenses(context.Background(), card.ID)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("imported expenses = %d, want 1", len(expenses))
	}
	got := expenses[0]
	if got.Amount.Cents != 1050 || got.Description != "Supermercato" || got.Category != importCategory {
		t.Fatalf("unexpected imported expense: %+v", got)
	}

	// The token is single-use.
	rr = postForm(srv, "/import/confirm", url.Values{"token": {token}})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second confirm status=%d, want 404", rr.Code)
	}
}

func TestAddExpenseProductWarnsWhenSumExceeds(t *testing.T) {
	store := memory.New()
	card := mustAddCard(t, store, "Carta principale", 100000)
	tx, err := store.AddExpense(context.Background(), core.Transaction{
		Description: "spesa settimanale",
		Amount:      core.Money{Cents: 1000},
		Date:        time.Now(),
		Category:    "Casa",
		CardID:      card.ID,
	})
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}
	srv := newTestServer(t, store, nil)

	// Within the expense amount: no warning.
	rr := postForm(srv, "/expenses/products", url.Values{
		"expense": {tx.ID}, "name": {"pane"}, "quantity": {"2"}, "price": {"1,00"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d: %s", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Header().Get("HX-Trigger"), "warning") {
		t.Fatalf("unexpected warning: %s", rr.Header().Get("HX-Trigger"))
	}

	// Pushing the sum past the amount warns but still persists.
	rr = postForm(srv, "/expenses/products", url.Values{
		"expense": {tx.ID}, "name": {"vino"}, "quantity": {"1"}, "price": {"9,00"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "warning") {
		t.Fatalf("missing warning trigger: %s", rr.Header().Get("HX-Trigger"))
	}

	products, err := store.ExpenseProducts(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("ExpenseProducts: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("products = %d, want 2", len(products))
	}
}

func TestRateLimiterAllowsThenBlocks(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	for i := 0; i < 60; i++ {
		if !rl.allow("198.51.100.7") {
			t.Fatalf("request %d unexpectedly blocked", i+1)
		}
	}
	if rl.allow("198.51.100.7") {
		t.Fatalf("request 61 unexpectedly allowed")
	}
	// Other clients are unaffected.
	if !rl.allow("198.51.100.8") {
		t.Fatalf("unrelated client blocked")
	}
}
