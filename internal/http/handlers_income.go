package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"contabile/internal/core"
)

// incomePageView mirrors the expenses page minus running balances and
// products.
type incomePageView struct {
	Active string

	Cards    []cardOptionView
	Selected string

	Total   string
	Count   int
	Credito string

	Rows      []txRowView
	LoadError bool
}

func (s *Server) handleIncomes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderIncomesPage(w, r)
	case http.MethodPost:
		s.handleCreateIncome(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) renderIncomesPage(w http.ResponseWriter, r *http.Request) {
	selected := strings.TrimSpace(r.URL.Query().Get("card"))
	if selected == "" {
		selected = "all"
	}
	filter := cardFilter(selected)

	view := incomePageView{Active: "incomes", Selected: selected}

	cards, err := s.getCards(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List cards failed", "error", err)
		view.LoadError = true
	}
	card := findCard(cards, filter)
	if filter != "" && card == nil {
		selected, filter = "all", ""
		view.Selected = selected
	}
	for _, c := range cards {
		view.Cards = append(view.Cards, cardOptionView{ID: c.ID, Name: c.Name, Selected: c.ID == selected})
	}

	incomes, err := s.getIncomes(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "List incomes failed", "error", err, "card", filter)
		view.LoadError = true
	}
	expenses, err := s.getExpenses(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "List expenses failed", "error", err, "card", filter)
		view.LoadError = true
	}

	view.Total = core.TotalAmount(incomes).String()
	view.Count = len(incomes)
	view.Credito = core.CurrentCredit(card, cards, expenses, incomes).String()

	names := cardNames(cards)
	for _, row := range core.RowsWithDayDividers(incomes) {
		if row.Divider {
			view.Rows = append(view.Rows, txRowView{Divider: true, Label: row.Label})
			continue
		}
		tx := row.Tx
		view.Rows = append(view.Rows, txRowView{
			ID:       tx.ID,
			Date:     core.FormatDateIT(tx.Date),
			Desc:     tx.Description,
			Amount:   tx.Amount.String(),
			Category: tx.Category,
			CardName: names[tx.CardID],
		})
	}

	s.render(w, r, "incomes.html", view)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	tx, resp := parseTransactionForm(r)
	if resp != nil {
		resp.Write(w)
		return
	}

	created, err := s.ledger.AddIncome(r.Context(), tx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to save income",
			"error", err,
			"description", tx.Description,
			"amount_cents", tx.Amount.Cents,
			"card_id", tx.CardID)
		InternalServerError("Errore nel salvataggio dell'entrata").Write(w)
		return
	}

	s.invalidateIncomes(tx.CardID)

	s.structured.LogTransactionCreated(r.Context(), "income",
		created.Description, created.Amount.Cents, created.Category, created.CardID)

	NewHTMXResponse().
		TriggerIncomeCreated(created.CardID).
		TriggerFormReset().
		TriggerPageRefresh().
		TriggerSuccessNotification(fmt.Sprintf("Entrata registrata: %s - %s", created.Description, created.Amount)).
		Write(w)
}

func (s *Server) handleDeleteIncomes(w http.ResponseWriter, r *http.Request) {
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
		BadRequestError("Nessuna entrata selezionata").Write(w)
		return
	}
	card := cardFilter(formValue(r, "card"))

	var err error
	if len(ids) == 1 {
		err = s.ledger.DeleteIncome(r.Context(), ids[0])
	} else {
		err = s.ledger.DeleteIncomes(r.Context(), ids)
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete incomes", "error", err, "ids", ids)
		InternalServerError("Errore nella cancellazione").Write(w)
		return
	}

	s.invalidateIncomes(card)

	slog.InfoContext(r.Context(), "Incomes deleted", "count", len(ids), "card_id", card)

	NewHTMXResponse().
		TriggerIncomeDeleted(card).
		TriggerSelectionClear().
		TriggerPageRefresh().
		TriggerSuccessNotification(fmt.Sprintf("%d entrate cancellate", len(ids))).
		Write(w)
}
