package core

import (
	"testing"
	"time"
)

func tx(id, cardID string, cents int64) Transaction {
	return Transaction{
		ID:          id,
		Description: "d",
		Amount:      Money{Cents: cents},
		Date:        time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local),
		Category:    "Varie",
		CardID:      cardID,
	}
}

func TestIDRank(t *testing.T) {
	tests := []struct {
		id      string
		numeric bool
		num     int64
		str     string
	}{
		{"exp-12", true, 12, ""},
		{"12", true, 12, ""},
		{"a7b42", true, 42, ""},
		{"abc", false, 0, "abc"},
		{"", true, 0, ""},
	}
	for _, tc := range tests {
		r := idRank(tc.id)
		if r.numeric != tc.numeric {
			t.Errorf("idRank(%q).numeric = %v, want %v", tc.id, r.numeric, tc.numeric)
		}
		if tc.numeric && r.num != tc.num {
			t.Errorf("idRank(%q).num = %d, want %d", tc.id, r.num, tc.num)
		}
		if !tc.numeric && r.str != tc.str {
			t.Errorf("idRank(%q).str = %q, want %q", tc.id, r.str, tc.str)
		}
	}
}

func TestRankCompareMixedNeverPanics(t *testing.T) {
	ids := []string{"abc", "exp-2", "", "zz", "10"}
	for _, a := range ids {
		for _, b := range ids {
			_ = idRank(a).less(idRank(b)) // must not panic
		}
	}
	if !idRank("abc").less(idRank("abd")) {
		t.Error("string ranks must fall back to lexicographic order")
	}
}

func TestRunningBalances(t *testing.T) {
	expenses := []Transaction{
		tx("exp-3", "c1", 2000),
		tx("exp-1", "c1", 5000),
		tx("exp-2", "c1", 3000),
		tx("exp-9", "c2", 700),
	}
	got := RunningBalances(expenses)

	want := map[string]int64{
		"exp-1": 5000,
		"exp-2": 8000,
		"exp-3": 10000,
		"exp-9": 700,
	}
	for id, cents := range want {
		if got[id].Cents != cents {
			t.Errorf("RunningBalances[%q] = %d, want %d", id, got[id].Cents, cents)
		}
	}
}

func TestRunningBalancesMonotonicAndTotal(t *testing.T) {
	expenses := []Transaction{
		tx("e5", "c1", 100),
		tx("e2", "c1", 250),
		tx("e10", "c1", 75),
	}
	got := RunningBalances(expenses)

	// Ascending rank order: e2, e5, e10.
	order := []string{"e2", "e5", "e10"}
	prev := int64(-1)
	for _, id := range order {
		if got[id].Cents < prev {
			t.Fatalf("running balance decreased at %q: %d < %d", id, got[id].Cents, prev)
		}
		prev = got[id].Cents
	}
	if total := TotalAmount(expenses).Cents; got["e10"].Cents != total {
		t.Errorf("highest-ranked balance = %d, want group total %d", got["e10"].Cents, total)
	}
}

func TestRunningBalancesMissingID(t *testing.T) {
	expenses := []Transaction{
		tx("", "c1", 1000),
		tx("e1", "c1", 500),
	}
	got := RunningBalances(expenses)
	if _, ok := got[""]; ok {
		t.Error("expense without id must not produce a lookup key")
	}
	// The id-less row still accumulates: rank 0 sorts before e1.
	if got["e1"].Cents != 1500 {
		t.Errorf("got[e1] = %d, want 1500", got["e1"].Cents)
	}
}

func TestRunningBalancesUnassignedCardGroup(t *testing.T) {
	expenses := []Transaction{
		tx("e1", "", 100),
		tx("e2", "", 200),
		tx("e1b", "c1", 400),
	}
	got := RunningBalances(expenses)
	if got["e2"].Cents != 300 {
		t.Errorf("unassigned group must accumulate separately: got %d, want 300", got["e2"].Cents)
	}
	if got["e1b"].Cents != 400 {
		t.Errorf("got[e1b] = %d, want 400", got["e1b"].Cents)
	}
}
