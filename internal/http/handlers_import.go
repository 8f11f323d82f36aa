package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"contabile/internal/core"
	"contabile/internal/csvimport"
)

const (
	// maxStatementSize bounds the uploaded CSV (form data included).
	maxStatementSize = 10 << 20

	// stagingTTL is how long a staged import waits for confirmation.
	stagingTTL = 30 * time.Minute

	// importCategory is assigned to every expense created from a statement
	// row; the CSV carries no category column.
	importCategory = "Estratto conto"
)

// stagedImport holds the parsed rows of one uploaded statement until the
// user confirms or abandons them. Nothing reaches the ledger before confirm.
type stagedImport struct {
	Token     string
	CardID    string
	Rows      []csvimport.StagedExpense
	CreatedAt time.Time
}

type importStaging struct {
	mu       sync.Mutex
	sessions map[string]*stagedImport
}

func newImportStaging() *importStaging {
	return &importStaging{sessions: make(map[string]*stagedImport)}
}

func (st *importStaging) put(session *stagedImport) {
	st.mu.Lock()
	defer st.mu.Unlock()

	cutoff := time.Now().Add(-stagingTTL)
	for token, s := range st.sessions {
		if s.CreatedAt.Before(cutoff) {
			delete(st.sessions, token)
		}
	}
	st.sessions[session.Token] = session
}

func (st *importStaging) get(token string) (*stagedImport, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[token]
	if !ok || time.Since(s.CreatedAt) > stagingTTL {
		return nil, false
	}
	return s, true
}

func (st *importStaging) drop(token string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, token)
}

type stagedRowView struct {
	ID          string
	Date        string
	Description string
	Amount      string
}

type importPageView struct {
	Active string

	Cards []cardOptionView

	// Review state, set when a staged upload is being confirmed.
	Token    string
	CardName string
	Rows     []stagedRowView
	RowTotal string

	LoadError bool
}

func (s *Server) handleImportPage(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	view := importPageView{Active: "import"}

	cards, err := s.getCards(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List cards failed", "error", err)
		view.LoadError = true
	}
	for _, c := range cards {
		view.Cards = append(view.Cards, cardOptionView{ID: c.ID, Name: c.Name})
	}

	if token := sanitizeInput(r.URL.Query().Get("token")); token != "" {
		session, ok := s.staging.get(token)
		if !ok {
			http.Redirect(w, r, "/import", http.StatusFound)
			return
		}
		view.Token = session.Token
		if card := findCard(cards, session.CardID); card != nil {
			view.CardName = card.Name
		}
		var total int64
		for _, row := range session.Rows {
			total += row.Amount.Cents
			view.Rows = append(view.Rows, stagedRowView{
				ID:          row.ID,
				Date:        core.FormatDateIT(row.Date),
				Description: row.Description,
				Amount:      row.Amount.String(),
			})
		}
		view.RowTotal = core.Money{Cents: total}.String()
	}

	s.render(w, r, "import.html", view)
}

func (s *Server) handleImportUpload(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	if err := r.ParseMultipartForm(maxStatementSize); err != nil {
		BadRequestError("Formato richiesta non valido").Write(w)
		return
	}

	cardID := cardFilter(sanitizeInput(r.FormValue("card")))
	if cardID == "" {
		UnprocessableEntityError("Seleziona una carta").Write(w)
		return
	}

	file, _, err := r.FormFile("statement")
	if err != nil {
		BadRequestError("File estratto conto mancante").Write(w)
		return
	}
	defer file.Close()

	rows, err := csvimport.ParseStatement(file)
	if err != nil {
		slog.ErrorContext(r.Context(), "Statement parse failed", "error", err)
		UnprocessableEntityError("File CSV non leggibile").Write(w)
		return
	}
	if len(rows) == 0 {
		UnprocessableEntityError("Nessuna spesa trovata nell'estratto conto").Write(w)
		return
	}

	session := &stagedImport{
		Token:     uuid.NewString(),
		CardID:    cardID,
		Rows:      rows,
		CreatedAt: time.Now(),
	}
	s.staging.put(session)

	slog.InfoContext(r.Context(), "Statement staged",
		"token", session.Token, "rows", len(rows), "card_id", cardID)

	http.Redirect(w, r, "/import?token="+url.QueryEscape(session.Token), http.StatusSeeOther)
}

func (s *Server) handleImportConfirm(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	token := formValue(r, "token")
	session, ok := s.staging.get(token)
	if !ok {
		NotFoundError("Importazione scaduta o sconosciuta").Write(w)
		return
	}

	// One AddExpense per staged row; a failing row stops the run so a retry
	// does not duplicate what already landed.
	created := 0
	for _, row := range session.Rows {
		tx := core.Transaction{
			Description: row.Description,
			Amount:      row.Amount,
			Date:        row.Date,
			Category:    importCategory,
			CardID:      session.CardID,
		}
		if _, err := s.ledger.AddExpense(r.Context(), tx); err != nil {
			slog.ErrorContext(r.Context(), "Statement row import failed",
				"error", err, "token", token, "created", created, "total", len(session.Rows))
			session.Rows = session.Rows[created:]
			s.invalidateExpenses(session.CardID)
			InternalServerError(fmt.Sprintf("Importate %d spese su %d, riprova per le restanti", created, created+len(session.Rows))).Write(w)
			return
		}
		created++
	}

	s.staging.drop(token)
	s.invalidateExpenses(session.CardID)

	slog.InfoContext(r.Context(), "Statement imported",
		"token", token, "created", created, "card_id", session.CardID)

	http.Redirect(w, r, "/expenses?card="+url.QueryEscape(session.CardID), http.StatusSeeOther)
}
