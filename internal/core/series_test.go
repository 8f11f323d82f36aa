package core

import (
	"testing"
	"time"
)

func TestLastMonths(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local)
	buckets := LastMonths(now, 3)
	if len(buckets) != 3 {
		t.Fatalf("got %d buckets, want 3", len(buckets))
	}
	wantKeys := []string{"2024-01", "2024-02", "2024-03"}
	wantLabels := []string{"gen 24", "feb 24", "mar 24"}
	for i := range buckets {
		if buckets[i].Key != wantKeys[i] {
			t.Errorf("bucket %d key = %q, want %q", i, buckets[i].Key, wantKeys[i])
		}
		if buckets[i].Label != wantLabels[i] {
			t.Errorf("bucket %d label = %q, want %q", i, buckets[i].Label, wantLabels[i])
		}
	}
}

func TestLastMonthsYearBoundary(t *testing.T) {
	now := time.Date(2024, 1, 31, 0, 0, 0, 0, time.Local)
	buckets := LastMonths(now, 2)
	if buckets[0].Key != "2023-12" || buckets[1].Key != "2024-01" {
		t.Errorf("got keys %q/%q, want 2023-12/2024-01", buckets[0].Key, buckets[1].Key)
	}
}

func TestMonthlyTotals(t *testing.T) {
	now := time.Date(2024, 2, 10, 0, 0, 0, 0, time.Local)
	buckets := LastMonths(now, 2) // 2024-01, 2024-02
	txs := []Transaction{
		{Amount: Money{Cents: 1050}, Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.Local)},
		{Amount: Money{Cents: 250}, Date: time.Date(2024, 1, 20, 0, 0, 0, 0, time.Local)},
		{Amount: Money{Cents: 9999}, Date: time.Date(2023, 6, 1, 0, 0, 0, 0, time.Local)},
	}
	got := MonthlyTotals(txs, buckets)
	if got[0] != 13.0 {
		t.Errorf("january total = %v, want 13.0", got[0])
	}
	if got[1] != 0 {
		t.Errorf("empty month must contribute zero, got %v", got[1])
	}
}

func TestDailySeriesNilGaps(t *testing.T) {
	expenses := []Transaction{
		{Amount: Money{Cents: 1000}, Date: time.Date(2024, 1, 1, 8, 0, 0, 0, time.Local)},
	}
	incomes := []Transaction{
		{Amount: Money{Cents: 2000}, Date: time.Date(2024, 1, 2, 8, 0, 0, 0, time.Local)},
	}
	labels, exp, inc := DailySeries(expenses, incomes)
	if len(labels) != 2 {
		t.Fatalf("got %d days, want 2", len(labels))
	}
	if labels[0] != "01/01" || labels[1] != "02/01" {
		t.Errorf("labels = %v, want ascending by earliest timestamp", labels)
	}
	if exp[0] == nil || *exp[0] != 10.0 {
		t.Errorf("expense day 1 = %v, want 10.0", exp[0])
	}
	if inc[0] != nil {
		t.Error("income on a day with only expenses must be nil, not zero")
	}
	if exp[1] != nil {
		t.Error("expense on a day with only incomes must be nil, not zero")
	}
	if inc[1] == nil || *inc[1] != 20.0 {
		t.Errorf("income day 2 = %v, want 20.0", inc[1])
	}
}

func TestDailySeriesKeepsMostRecent30(t *testing.T) {
	var expenses []Transaction
	for day := 0; day < 40; day++ {
		expenses = append(expenses, Transaction{
			Amount: Money{Cents: 100},
			Date:   time.Date(2024, 1, 1, 6, 0, 0, 0, time.Local).AddDate(0, 0, day),
		})
	}
	labels, _, _ := DailySeries(expenses, nil)
	if len(labels) != 30 {
		t.Fatalf("got %d days, want 30", len(labels))
	}
	if labels[len(labels)-1] != "09/02" {
		t.Errorf("last label = %q, want the most recent day 09/02", labels[len(labels)-1])
	}
}

func TestRound2(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{1.014, 1.01},
		{1.016, 1.02},
		{10.5, 10.5},
		{0, 0},
	}
	for _, tc := range tests {
		if got := Round2(tc.in); got != tc.want {
			t.Errorf("Round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
