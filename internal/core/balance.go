package core

import (
	"sort"
	"strconv"
)

// rank is the sort key derived from a transaction identifier. Identifiers
// ending in digits get a numeric rank; anything else falls back to the
// identifier string itself. The two kinds are not meant to be mixed inside
// one card's group, but comparison must stay total when they are.
type rank struct {
	num     int64
	numeric bool
	str     string
}

// idRank extracts the trailing run of digits of id as the rank. An empty id
// ranks as numeric zero.
func idRank(id string) rank {
	if id == "" {
		return rank{numeric: true}
	}
	end := len(id)
	for end > 0 && id[end-1] >= '0' && id[end-1] <= '9' {
		end--
	}
	if end < len(id) {
		if n, err := strconv.ParseInt(id[end:], 10, 64); err == nil {
			return rank{num: n, numeric: true}
		}
	}
	return rank{str: id}
}

func (r rank) String() string {
	if r.numeric {
		return strconv.FormatInt(r.num, 10)
	}
	return r.str
}

// less compares two ranks: arithmetically when both are numeric, otherwise
// lexicographically on their string forms.
func (r rank) less(other rank) bool {
	if r.numeric && other.numeric {
		return r.num < other.num
	}
	return r.String() < other.String()
}

// RunningBalances computes, for every expense, the cumulative amount of its
// card's expenses up to and including itself, ordered by identifier rank.
// Expenses without an identifier take part in the accumulation but never
// produce a key in the result.
func RunningBalances(expenses []Transaction) map[string]Money {
	byCard := make(map[string][]Transaction)
	for _, e := range expenses {
		byCard[e.CardID] = append(byCard[e.CardID], e)
	}

	out := make(map[string]Money, len(expenses))
	for _, group := range byCard {
		sort.SliceStable(group, func(i, j int) bool {
			return idRank(group[i].ID).less(idRank(group[j].ID))
		})
		var acc int64
		for _, e := range group {
			acc += e.Amount.Cents
			if e.ID != "" {
				out[e.ID] = Money{Cents: acc}
			}
		}
	}
	return out
}
