package core

import (
	"sort"
	"strings"
)

// SortField selects the expense list ordering.
type SortField string

const (
	SortByDate        SortField = "date"
	SortByAmount      SortField = "amount"
	SortByDescription SortField = "description"
)

// ListQuery filters and orders the expense list for display. The zero value
// means "everything, newest first".
type ListQuery struct {
	Search     string // case-insensitive description substring
	CategoryID string // empty matches all categories
	Field      SortField
	Ascending  bool
}

// QueryExpenses returns a new slice with the query applied. The input is
// never mutated and the sort is stable.
func QueryExpenses(expenses []Expense, q ListQuery) []Expense {
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if needle != "" && !strings.Contains(strings.ToLower(e.Description), needle) {
			continue
		}
		if q.CategoryID != "" && e.CategoryID != q.CategoryID {
			continue
		}
		out = append(out, e)
	}

	field := q.Field
	if field == "" {
		field = SortByDate
	}
	sort.SliceStable(out, func(i, j int) bool {
		var less bool
		switch field {
		case SortByAmount:
			less = out[i].Amount < out[j].Amount
		case SortByDescription:
			less = strings.ToLower(out[i].Description) < strings.ToLower(out[j].Description)
		default:
			less = out[i].Date.Before(out[j].Date)
		}
		if q.Ascending {
			return less
		}
		return !less && !equalByField(out[i], out[j], field)
	})
	return out
}

func equalByField(a, b Expense, field SortField) bool {
	switch field {
	case SortByAmount:
		return a.Amount == b.Amount
	case SortByDescription:
		return strings.EqualFold(a.Description, b.Description)
	default:
		return a.Date.Equal(b.Date)
	}
}
