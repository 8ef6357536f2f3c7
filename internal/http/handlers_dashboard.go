package http

import (
	"net/http"

	"expenza/internal/core"
)

// handleSummary renders the dashboard cards: total spent, remaining budget
// and top category.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	snap := s.store.Snapshot()
	total := core.TotalSpent(snap.Expenses)
	utilization := core.Utilization(total, snap.OverallBudget)
	top, hasTop := core.TopCategory(snap.Expenses, snap.Categories)

	data := struct {
		Total        string
		Count        int
		Remaining    string
		Overspent    bool
		Utilization  string
		NearLimit    bool
		HasTop       bool
		TopIcon      string
		TopName      string
		TopAmount    string
	}{
		Total:       formatAmount(total),
		Count:       len(snap.Expenses),
		Remaining:   formatAmount(snap.OverallBudget - total),
		Overspent:   snap.OverallBudget-total < 0,
		Utilization: formatPercent(utilization),
		NearLimit:   core.Classify(utilization) != core.AlertNormal,
		HasTop:      hasTop,
	}
	if hasTop {
		data.TopIcon = top.Icon
		data.TopName = top.Name
		data.TopAmount = formatAmount(top.Total)
	}
	s.render(w, r, "summary.html", data)
}

// handleCategoryTotals renders the category breakdown partial.
func (s *Server) handleCategoryTotals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	snap := s.store.Snapshot()
	totals := core.CategoryTotals(snap.Expenses, snap.Categories)

	var max float64
	if len(totals) > 0 {
		max = totals[0].Total
	}

	type row struct {
		Icon   string
		Name   string
		Color  string
		Amount string
		Width  int
	}
	rows := make([]row, 0, len(totals))
	for _, t := range totals {
		width := 0
		if max > 0 {
			width = int(t.Total / max * 100)
			if width < 2 {
				width = 2
			}
		}
		rows = append(rows, row{
			Icon:   t.Icon,
			Name:   t.Name,
			Color:  t.Color,
			Amount: formatAmount(t.Total),
			Width:  width,
		})
	}
	s.render(w, r, "category_totals.html", struct{ Rows []row }{rows})
}

// handleMonthlySeries renders the trailing six-month bar chart partial.
func (s *Server) handleMonthlySeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	snap := s.store.Snapshot()
	series := core.MonthlySeries(snap.Expenses, snap.Categories, s.clock())

	var max float64
	for _, m := range series {
		if m.Total > max {
			max = m.Total
		}
	}

	type bar struct {
		Label  string
		Amount string
		Height int
	}
	bars := make([]bar, 0, len(series))
	for _, m := range series {
		height := 0
		if max > 0 && m.Total > 0 {
			height = int(m.Total / max * 100)
			if height < 2 {
				height = 2
			}
		}
		bars = append(bars, bar{
			Label:  m.Label,
			Amount: formatAmount(m.Total),
			Height: height,
		})
	}
	s.render(w, r, "monthly.html", struct{ Bars []bar }{bars})
}

// handleTrend renders the cumulative spending partial.
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	snap := s.store.Snapshot()
	trend := core.CumulativeTrend(snap.Expenses)

	type point struct {
		Date    string
		Running string
	}
	points := make([]point, 0, len(trend))
	for _, p := range trend {
		points = append(points, point{
			Date:    p.Date.Format("Jan 02"),
			Running: formatAmount(p.Running),
		})
	}
	s.render(w, r, "trend.html", struct{ Points []point }{points})
}
