package core

import (
	"sort"
	"time"
)

const monthWindow = 6

// CategoryTotal is one row of the category breakdown. Color and icon travel
// with the total so charts can render without a second lookup.
type CategoryTotal struct {
	CategoryID string
	Name       string
	Color      string
	Icon       string
	Total      float64
}

// MonthEntry is one calendar month of the trailing series.
type MonthEntry struct {
	Label      string    // e.g. "Jan 2024"
	Start      time.Time // first instant of the month
	Total      float64
	ByCategory map[string]float64 // category name -> subtotal, zeros kept
}

// TrendPoint is one step of the cumulative spending line.
type TrendPoint struct {
	Date    time.Time
	Running float64
}

// CategoryTotals sums expense amounts per category. Only categories with a
// positive sum are returned, sorted descending by sum; ties keep the
// categories' input order.
func CategoryTotals(expenses []Expense, categories []Category) []CategoryTotal {
	sums := make(map[string]float64, len(categories))
	for _, e := range expenses {
		sums[e.CategoryID] += e.Amount
	}

	out := make([]CategoryTotal, 0, len(categories))
	for _, c := range categories {
		if sums[c.ID] <= 0 {
			continue
		}
		out = append(out, CategoryTotal{
			CategoryID: c.ID,
			Name:       c.Name,
			Color:      c.Color,
			Icon:       c.Icon,
			Total:      sums[c.ID],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})
	return out
}

// MonthlySeries produces one entry per calendar month for the trailing
// six-month window ending at the month containing now, oldest first. Months
// without expenses still appear with every subtotal at zero.
func MonthlySeries(expenses []Expense, categories []Category, now time.Time) []MonthEntry {
	out := make([]MonthEntry, 0, monthWindow)
	for i := monthWindow - 1; i >= 0; i-- {
		start := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, now.Location())
		next := start.AddDate(0, 1, 0)

		entry := MonthEntry{
			Label:      start.Format("Jan 2006"),
			Start:      start,
			ByCategory: make(map[string]float64, len(categories)),
		}
		for _, c := range categories {
			entry.ByCategory[c.Name] = 0
		}

		names := make(map[string]string, len(categories))
		for _, c := range categories {
			names[c.ID] = c.Name
		}
		for _, e := range expenses {
			if e.Date.Before(start) || !e.Date.Before(next) {
				continue
			}
			entry.Total += e.Amount
			if name, ok := names[e.CategoryID]; ok {
				entry.ByCategory[name] += e.Amount
			}
		}
		out = append(out, entry)
	}
	return out
}

// CumulativeTrend sorts expenses ascending by date (stable, so same-day
// entries keep insertion order) and emits running prefix sums.
func CumulativeTrend(expenses []Expense) []TrendPoint {
	sorted := append([]Expense(nil), expenses...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := make([]TrendPoint, 0, len(sorted))
	var running float64
	for _, e := range sorted {
		running += e.Amount
		out = append(out, TrendPoint{Date: e.Date, Running: running})
	}
	return out
}

// TopCategory returns the category with the highest total. ok is false when
// no category has a positive sum.
func TopCategory(expenses []Expense, categories []Category) (CategoryTotal, bool) {
	totals := CategoryTotals(expenses, categories)
	if len(totals) == 0 {
		return CategoryTotal{}, false
	}
	return totals[0], true
}

// TotalSpent sums all expense amounts.
func TotalSpent(expenses []Expense) float64 {
	var sum float64
	for _, e := range expenses {
		sum += e.Amount
	}
	return sum
}

// CategorySpent sums the amounts of expenses in one category.
func CategorySpent(expenses []Expense, categoryID string) float64 {
	var sum float64
	for _, e := range expenses {
		if e.CategoryID == categoryID {
			sum += e.Amount
		}
	}
	return sum
}
