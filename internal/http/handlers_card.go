package http

import (
	"log/slog"
	"net/http"
	"strings"

	"contabile/internal/core"
)

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	card := core.Card{
		Name:  formValue(r, "name"),
		Color: formValue(r, "color"),
	}
	if raw := strings.TrimSpace(r.Form.Get("initial_credit")); raw != "" {
		cents, err := core.ParseDecimalToCents(raw)
		if err != nil {
			UnprocessableEntityError("Credito iniziale non valido").Write(w)
			return
		}
		card.InitialCredit = core.Money{Cents: cents}
	}
	if raw := formValue(r, "start_date"); raw != "" {
		start, err := core.ParseDateLenient(raw)
		if err != nil {
			UnprocessableEntityError("Data di inizio non valida").Write(w)
			return
		}
		card.StartDate = start
	}
	if err := card.Validate(); err != nil {
		UnprocessableEntityError("Dati non validi: " + err.Error()).Write(w)
		return
	}

	created, err := s.ledger.AddCard(r.Context(), card)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create card", "error", err, "name", card.Name)
		InternalServerError("Errore nel salvataggio della carta").Write(w)
		return
	}

	s.invalidateCards()

	slog.InfoContext(r.Context(), "Card created", "card_id", created.ID, "name", created.Name)

	NewHTMXResponse().
		TriggerCardSaved(created.ID).
		TriggerPageRefresh().
		TriggerSuccessNotification("Carta creata: " + created.Name).
		Write(w)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	id := formValue(r, "id")
	if id == "" {
		BadRequestError("ID carta mancante").Write(w)
		return
	}

	// Only the submitted fields change; absent ones keep their value.
	var upd core.CardUpdate
	if _, ok := r.Form["name"]; ok {
		name := formValue(r, "name")
		if name == "" {
			UnprocessableEntityError("Il nome non può essere vuoto").Write(w)
			return
		}
		upd.Name = &name
	}
	if _, ok := r.Form["color"]; ok {
		color := formValue(r, "color")
		upd.Color = &color
	}
	if raw := strings.TrimSpace(r.Form.Get("initial_credit")); raw != "" {
		cents, err := core.ParseDecimalToCents(raw)
		if err != nil {
			UnprocessableEntityError("Credito iniziale non valido").Write(w)
			return
		}
		upd.InitialCredit = &core.Money{Cents: cents}
	}
	if raw := formValue(r, "start_date"); raw != "" {
		start, err := core.ParseDateLenient(raw)
		if err != nil {
			UnprocessableEntityError("Data di inizio non valida").Write(w)
			return
		}
		upd.StartDate = &start
	}

	updated, err := s.ledger.UpdateCard(r.Context(), id, upd)
	if err != nil {
		if err == core.ErrNotFound {
			NotFoundError("Carta non trovata").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to update card", "error", err, "card_id", id)
		InternalServerError("Errore nell'aggiornamento della carta").Write(w)
		return
	}

	s.invalidateCards()

	slog.InfoContext(r.Context(), "Card updated", "card_id", updated.ID, "name", updated.Name)

	NewHTMXResponse().
		TriggerCardSaved(updated.ID).
		TriggerPageRefresh().
		TriggerSuccessNotification("Carta aggiornata: " + updated.Name).
		Write(w)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	user := core.User{
		Name:  formValue(r, "name"),
		Email: formValue(r, "email"),
	}
	if err := user.Validate(); err != nil {
		UnprocessableEntityError("Dati non validi: " + err.Error()).Write(w)
		return
	}

	created, err := s.ledger.AddUser(r.Context(), user)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create user", "error", err, "name", user.Name)
		InternalServerError("Errore nel salvataggio dell'utente").Write(w)
		return
	}

	slog.InfoContext(r.Context(), "User created", "user_id", created.ID, "name", created.Name)

	NewHTMXResponse().
		TriggerPageRefresh().
		TriggerSuccessNotification("Utente creato: " + created.Name).
		Write(w)
}
