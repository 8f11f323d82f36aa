package core

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// DefaultMonthBuckets is how many months the dashboard trend covers.
const DefaultMonthBuckets = 6

// maxDayBuckets caps the daily comparison series to the most recent days.
const maxDayBuckets = 30

var shortMonthsIT = [...]string{
	"gen", "feb", "mar", "apr", "mag", "giu",
	"lug", "ago", "set", "ott", "nov", "dic",
}

// MonthBucket is one ordered slot of a fixed-width monthly series.
type MonthBucket struct {
	Key   string // YYYY-MM
	Label string // localized, e.g. "set 25"
}

// LastMonths builds the last n calendar months anchored to now, oldest first.
func LastMonths(now time.Time, n int) []MonthBucket {
	if n <= 0 {
		n = DefaultMonthBuckets
	}
	buckets := make([]MonthBucket, 0, n)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := n - 1; i >= 0; i-- {
		d := first.AddDate(0, -i, 0)
		buckets = append(buckets, MonthBucket{
			Key:   d.Format("2006-01"),
			Label: fmt.Sprintf("%s %02d", shortMonthsIT[d.Month()-1], d.Year()%100),
		})
	}
	return buckets
}

// MonthlyTotals sums amounts into the given buckets; months with no data
// contribute zero. Sums are rounded to 2 decimal places.
func MonthlyTotals(txs []Transaction, buckets []MonthBucket) []float64 {
	byMonth := make(map[string]int64)
	for _, t := range txs {
		byMonth[MonthKey(t.Date)] += t.Amount.Cents
	}
	out := make([]float64, len(buckets))
	for i, b := range buckets {
		out[i] = Round2(float64(byMonth[b.Key]) / 100.0)
	}
	return out
}

// DailySeries reduces expense and income lists to per-day totals over the
// union of calendar days present in either list. Days are ordered by the
// earliest timestamp seen for that day and only the most recent 30 are kept.
// A day missing from one side yields nil there, not zero, so a chart does
// not interpolate a misleading drop.
func DailySeries(expenses, incomes []Transaction) (labels []string, expSeries, incSeries []*float64) {
	type dayAgg struct {
		earliest time.Time
		label    string
		exp      *int64
		inc      *int64
	}
	days := make(map[string]*dayAgg)

	touch := func(t Transaction) *dayAgg {
		key := DayKey(t.Date)
		d, ok := days[key]
		if !ok {
			d = &dayAgg{earliest: t.Date, label: t.Date.In(time.Local).Format("02/01")}
			days[key] = d
		} else if t.Date.Before(d.earliest) {
			d.earliest = t.Date
		}
		return d
	}
	for _, t := range expenses {
		d := touch(t)
		if d.exp == nil {
			d.exp = new(int64)
		}
		*d.exp += t.Amount.Cents
	}
	for _, t := range incomes {
		d := touch(t)
		if d.inc == nil {
			d.inc = new(int64)
		}
		*d.inc += t.Amount.Cents
	}

	ordered := make([]*dayAgg, 0, len(days))
	for _, d := range days {
		ordered = append(ordered, d)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].earliest.Before(ordered[j].earliest)
	})
	if len(ordered) > maxDayBuckets {
		ordered = ordered[len(ordered)-maxDayBuckets:]
	}

	toEuros := func(cents *int64) *float64 {
		if cents == nil {
			return nil
		}
		v := Round2(float64(*cents) / 100.0)
		return &v
	}
	for _, d := range ordered {
		labels = append(labels, d.label)
		expSeries = append(expSeries, toEuros(d.exp))
		incSeries = append(incSeries, toEuros(d.inc))
	}
	return labels, expSeries, incSeries
}

// Round2 rounds to 2 decimal places before values reach a chart.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
