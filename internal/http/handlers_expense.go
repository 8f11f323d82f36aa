package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"contabile/internal/core"
)

// expensePageView is the payload of the expenses page template.
type expensePageView struct {
	Active string

	Cards    []cardOptionView
	Selected string // "all" or a card id

	Total   string
	Count   int
	Credito string

	// Card editor, populated when a specific card is selected.
	EditCard *cardEditView

	Rows      []txRowView
	LoadError bool
}

type cardOptionView struct {
	ID       string
	Name     string
	Selected bool
}

type cardEditView struct {
	ID            string
	Name          string
	Color         string
	InitialCredit string // decimal euros for the form input
	StartDate     string
}

// txRowView is one row of a transaction table: a day divider or a
// transaction with its formatted columns.
type txRowView struct {
	Divider bool
	Label   string

	ID       string
	Date     string
	Desc     string
	Amount   string
	Category string
	CardName string
	Residual string // initial credit minus the running balance
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderExpensesPage(w, r)
	case http.MethodPost:
		s.handleCreateExpense(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) renderExpensesPage(w http.ResponseWriter, r *http.Request) {
	selected := strings.TrimSpace(r.URL.Query().Get("card"))
	if selected == "" {
		selected = "all"
	}
	filter := cardFilter(selected)

	view := expensePageView{Active: "expenses", Selected: selected}

	cards, err := s.getCards(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List cards failed", "error", err)
		view.LoadError = true
	}
	card := findCard(cards, filter)
	if filter != "" && card == nil {
		// Unknown card in the query string: fall back to the all-cards view.
		selected, filter = "all", ""
		view.Selected = selected
	}
	for _, c := range cards {
		view.Cards = append(view.Cards, cardOptionView{ID: c.ID, Name: c.Name, Selected: c.ID == selected})
	}
	if card != nil {
		view.EditCard = &cardEditView{
			ID:            card.ID,
			Name:          card.Name,
			Color:         card.Color,
			InitialCredit: fmt.Sprintf("%.2f", card.InitialCredit.Euros()),
			StartDate:     core.FormatDateYYYYMMDDLocal(card.StartDate),
		}
	}

	expenses, err := s.getExpenses(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "List expenses failed", "error", err, "card", filter)
		view.LoadError = true
	}
	incomes, err := s.getIncomes(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "List incomes failed", "error", err, "card", filter)
		view.LoadError = true
	}

	view.Total = core.TotalAmount(expenses).String()
	view.Count = len(expenses)
	view.Credito = core.CurrentCredit(card, cards, expenses, incomes).String()

	var initial int64
	if card != nil {
		initial = card.InitialCredit.Cents
	} else {
		initial = core.TotalInitialCredit(cards).Cents
	}

	names := cardNames(cards)
	balances := core.RunningBalances(expenses)
	for _, row := range core.RowsWithDayDividers(expenses) {
		if row.Divider {
			view.Rows = append(view.Rows, txRowView{Divider: true, Label: row.Label})
			continue
		}
		tx := row.Tx
		v := txRowView{
			ID:       tx.ID,
			Date:     core.FormatDateIT(tx.Date),
			Desc:     tx.Description,
			Amount:   tx.Amount.String(),
			Category: tx.Category,
			CardName: names[tx.CardID],
		}
		if bal, ok := balances[tx.ID]; ok {
			v.Residual = core.Money{Cents: initial - bal.Cents}.String()
		}
		view.Rows = append(view.Rows, v)
	}

	s.render(w, r, "expenses.html", view)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	tx, resp := parseTransactionForm(r)
	if resp != nil {
		resp.Write(w)
		return
	}

	created, err := s.ledger.AddExpense(r.Context(), tx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to save expense",
			"error", err,
			"description", tx.Description,
			"amount_cents", tx.Amount.Cents,
			"card_id", tx.CardID)
		InternalServerError("Errore nel salvataggio della spesa").Write(w)
		return
	}

	s.invalidateExpenses(tx.CardID)

	s.structured.LogTransactionCreated(r.Context(), "expense",
		created.Description, created.Amount.Cents, created.Category, created.CardID)

	NewHTMXResponse().
		TriggerExpenseCreated(created.CardID).
		TriggerFormReset().
		TriggerPageRefresh().
		TriggerSuccessNotification(fmt.Sprintf("Spesa registrata: %s - %s", created.Description, created.Amount)).
		Write(w)
}

func (s *Server) handleDeleteExpenses(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	ids := selectedIDs(r)
	if len(ids) == 0 {
		BadRequestError("Nessuna spesa selezionata").Write(w)
		return
	}
	card := cardFilter(formValue(r, "card"))

	// One call for the whole selection, in the order it was made.
	var err error
	if len(ids) == 1 {
		err = s.ledger.DeleteExpense(r.Context(), ids[0])
	} else {
		err = s.ledger.DeleteExpenses(r.Context(), ids)
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete expenses", "error", err, "ids", ids)
		InternalServerError("Errore nella cancellazione").Write(w)
		return
	}

	s.invalidateExpenses(card)

	slog.InfoContext(r.Context(), "Expenses deleted", "count", len(ids), "card_id", card)

	NewHTMXResponse().
		TriggerExpenseDeleted(card).
		TriggerSelectionClear().
		TriggerPageRefresh().
		TriggerSuccessNotification(fmt.Sprintf("%d spese cancellate", len(ids))).
		Write(w)
}

// handleExpenseProducts serves the expandable product list of one expense
// (GET) and appends a product to it (POST).
func (s *Server) handleExpenseProducts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderExpenseProducts(w, r)
	case http.MethodPost:
		s.handleAddExpenseProduct(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

type productRowView struct {
	Name     string
	Quantity int
	Price    string
	Note     string
	ItemType string
	Expiry   string
}

func (s *Server) renderExpenseProducts(w http.ResponseWriter, r *http.Request) {
	expenseID := sanitizeInput(r.URL.Query().Get("expense"))
	if expenseID == "" {
		BadRequestError("ID spesa mancante").Write(w)
		return
	}

	products, err := s.ledger.ExpenseProducts(r.Context(), expenseID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List expense products failed", "error", err, "expense_id", expenseID)
		InternalServerError("Errore caricando i prodotti").Write(w)
		return
	}

	view := struct {
		ExpenseID string
		Products  []productRowView
	}{ExpenseID: expenseID}
	for _, p := range products {
		row := productRowView{
			Name:     p.Name,
			Quantity: p.Quantity,
			Price:    p.Price.String(),
			Note:     p.Note,
			ItemType: string(p.ItemType),
		}
		if !p.Expiry.IsZero() {
			row.Expiry = core.FormatDateIT(p.Expiry)
		}
		view.Products = append(view.Products, row)
	}

	s.render(w, r, "expense_products.html", view)
}

func (s *Server) handleAddExpenseProduct(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	expenseID := formValue(r, "expense")
	if expenseID == "" {
		BadRequestError("ID spesa mancante").Write(w)
		return
	}

	quantity := atoiDefault(r.Form.Get("quantity"), 1)
	cents, err := core.ParseDecimalToCents(strings.TrimSpace(r.Form.Get("price")))
	if err != nil {
		UnprocessableEntityError("Prezzo non valido").Write(w)
		return
	}

	product := core.ExpenseProduct{
		Name:     formValue(r, "name"),
		Quantity: quantity,
		Price:    core.Money{Cents: cents},
		Note:     formValue(r, "note"),
		ItemType: core.ItemType(formValue(r, "item_type")),
	}
	if raw := formValue(r, "expiry"); raw != "" {
		expiry, err := core.ParseDateLenient(raw)
		if err != nil {
			UnprocessableEntityError("Scadenza non valida").Write(w)
			return
		}
		product.Expiry = expiry
	}
	if err := product.Validate(); err != nil {
		UnprocessableEntityError("Dati non validi: " + err.Error()).Write(w)
		return
	}

	// The product sum may exceed the expense amount; that is reported as a
	// warning, it does not block the insert.
	exceeds := s.productSumExceeds(r, expenseID, product)

	added, err := s.ledger.AddExpenseProduct(r.Context(), expenseID, product)
	if err != nil {
		if err == core.ErrNotFound {
			NotFoundError("Spesa non trovata").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to add expense product", "error", err, "expense_id", expenseID)
		InternalServerError("Errore nel salvataggio del prodotto").Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Expense product added",
		"expense_id", expenseID, "product", added.Name, "price_cents", added.Price.Cents)

	resp := NewHTMXResponse().
		TriggerPageRefresh().
		TriggerSuccessNotification("Prodotto aggiunto: " + added.Name)
	if exceeds {
		resp.TriggerWarningNotification("La somma dei prodotti supera l'importo della spesa")
	}
	resp.Write(w)
}

// productSumExceeds reports whether adding the product pushes the product
// total over the expense amount. Lookup failures count as not exceeding.
func (s *Server) productSumExceeds(r *http.Request, expenseID string, product core.ExpenseProduct) bool {
	expenses, err := s.getExpenses(r.Context(), "")
	if err != nil {
		return false
	}
	var amount int64
	found := false
	for _, e := range expenses {
		if e.ID == expenseID {
			amount = e.Amount.Cents
			found = true
			break
		}
	}
	if !found {
		return false
	}

	existing, err := s.ledger.ExpenseProducts(r.Context(), expenseID)
	if err != nil {
		return false
	}
	sum := int64(product.Quantity) * product.Price.Cents
	for _, p := range existing {
		sum += int64(p.Quantity) * p.Price.Cents
	}
	return sum > amount
}
