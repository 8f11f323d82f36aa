package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"contabile/internal/core"
)

// dashboardView is the fully formatted payload of the dashboard template.
// Fetch failures leave their section empty and flip the matching error flag;
// one broken container never blanks the others.
type dashboardView struct {
	Active string

	TotalExpenses string
	TotalIncomes  string
	Credito       string
	CreditoNeg    bool
	CardCount     int
	ExpenseCount  int
	IncomeCount   int

	Months []monthBarView
	Days   []dayRowView

	Users []userRowView

	LedgerError bool
	UsersError  bool
}

type monthBarView struct {
	Label    string
	Expense  string
	Income   string
	ExpWidth int
	IncWidth int
}

type dayRowView struct {
	Label   string
	Expense string // empty when no expense that day
	Income  string
}

type userRowView struct {
	Name  string
	Email string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), fetchTimeout)
	defer cancel()

	var (
		cards    []core.Card
		expenses []core.Transaction
		incomes  []core.Transaction
		users    []core.User

		ledgerErr error
		usersErr  error
	)

	// The four sections are independent: fetch them concurrently and let
	// each failure degrade only its own container.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if cards, err = s.getCards(gctx); err != nil {
			slog.ErrorContext(gctx, "Dashboard cards fetch failed", "error", err)
			ledgerErr = err
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if expenses, err = s.getExpenses(gctx, ""); err != nil {
			slog.ErrorContext(gctx, "Dashboard expenses fetch failed", "error", err)
			ledgerErr = err
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if incomes, err = s.getIncomes(gctx, ""); err != nil {
			slog.ErrorContext(gctx, "Dashboard incomes fetch failed", "error", err)
			ledgerErr = err
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if users, err = s.ledger.ListUsers(gctx); err != nil {
			slog.ErrorContext(gctx, "Dashboard users fetch failed", "error", err)
			usersErr = err
		}
		return nil
	})
	_ = g.Wait()

	credito := core.CurrentCredit(nil, cards, expenses, incomes)

	view := dashboardView{
		Active:        "dashboard",
		TotalExpenses: core.TotalAmount(expenses).String(),
		TotalIncomes:  core.TotalAmount(incomes).String(),
		Credito:       credito.String(),
		CreditoNeg:    credito.Cents < 0,
		CardCount:     len(cards),
		ExpenseCount:  len(expenses),
		IncomeCount:   len(incomes),
		LedgerError:   ledgerErr != nil,
		UsersError:    usersErr != nil,
	}

	buckets := core.LastMonths(time.Now(), core.DefaultMonthBuckets)
	expMonthly := core.MonthlyTotals(expenses, buckets)
	incMonthly := core.MonthlyTotals(incomes, buckets)

	var max float64
	for i := range buckets {
		if expMonthly[i] > max {
			max = expMonthly[i]
		}
		if incMonthly[i] > max {
			max = incMonthly[i]
		}
	}
	for i, b := range buckets {
		view.Months = append(view.Months, monthBarView{
			Label:    b.Label,
			Expense:  core.Money{Cents: int64(expMonthly[i]*100 + 0.5)}.String(),
			Income:   core.Money{Cents: int64(incMonthly[i]*100 + 0.5)}.String(),
			ExpWidth: barWidth(expMonthly[i], max),
			IncWidth: barWidth(incMonthly[i], max),
		})
	}

	labels, expDaily, incDaily := core.DailySeries(expenses, incomes)
	for i, label := range labels {
		row := dayRowView{Label: label}
		if expDaily[i] != nil {
			row.Expense = core.Money{Cents: int64(*expDaily[i]*100 + 0.5)}.String()
		}
		if incDaily[i] != nil {
			row.Income = core.Money{Cents: int64(*incDaily[i]*100 + 0.5)}.String()
		}
		view.Days = append(view.Days, row)
	}

	// Most recently added users first, capped for the side table.
	const maxRecentUsers = 5
	for i := len(users) - 1; i >= 0 && len(view.Users) < maxRecentUsers; i-- {
		view.Users = append(view.Users, userRowView{Name: users[i].Name, Email: users[i].Email})
	}

	s.render(w, r, "dashboard.html", view)
}
