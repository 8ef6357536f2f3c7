package http

import (
	"log/slog"
	"net/http"

	"expenza/internal/core"
)

// handleSaveBudgets atomically replaces the overall budget and the whole
// category budget set from the settings form. Form fields are "overall" plus
// one "budget_<categoryID>" per category; blank or non-positive entries drop
// that category's budget.
func (s *Server) handleSaveBudgets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	overall := core.ParseAmount(r.Form.Get("overall"))

	snap := s.store.Snapshot()
	budgets := make([]core.Budget, 0, len(snap.Categories))
	for _, c := range snap.Categories {
		amount := core.ParseAmount(r.Form.Get("budget_" + c.ID))
		budgets = append(budgets, core.Budget{CategoryID: c.ID, Amount: amount})
	}

	if err := s.store.ReplaceBudgets(r.Context(), overall, budgets); err != nil {
		slog.ErrorContext(r.Context(), "Budget save error", "error", err)
		InternalServerError("Failed to save budgets").Write(w)
		return
	}

	SuccessResponse("budgets:replaced", "Budget settings saved").Write(w)
}

// handleBudgetReport renders the budget settings partial: the form inputs
// plus current utilization, alert level and overage for every active budget.
func (s *Server) handleBudgetReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	snap := s.store.Snapshot()
	report := core.EvaluateBudgets(snap.Expenses, snap.Categories, snap.OverallBudget, snap.Budgets)

	statuses := make(map[string]core.BudgetStatus, len(report.Categories))
	for _, st := range report.Categories {
		statuses[st.CategoryID] = st
	}
	amounts := make(map[string]float64, len(snap.Budgets))
	for _, b := range snap.Budgets {
		amounts[b.CategoryID] = b.Amount
	}

	type categoryRow struct {
		ID          string
		Icon        string
		Name        string
		Amount      string // form value, empty when no budget set
		HasBudget   bool
		Spent       string
		Budget      string
		Utilization string
		Progress    float64
		Level       string
		Overage     string
	}

	data := struct {
		Overall struct {
			Amount      string
			Spent       string
			Utilization string
			Progress    float64
			Level       string
			Overage     string
			HasBudget   bool
		}
		Categories []categoryRow
	}{}

	o := report.Overall
	data.Overall.HasBudget = o.Budget > 0
	if o.Budget > 0 {
		data.Overall.Amount = formatAmountValue(o.Budget)
	}
	data.Overall.Spent = formatAmount(o.Spent)
	data.Overall.Utilization = formatPercent(o.Utilization)
	data.Overall.Progress = core.ProgressValue(o.Utilization)
	data.Overall.Level = string(o.Level)
	if o.Level == core.AlertExceeded {
		data.Overall.Overage = formatAmount(o.Overage)
	}

	for _, c := range snap.Categories {
		row := categoryRow{ID: c.ID, Icon: c.Icon, Name: c.Name}
		if amount, ok := amounts[c.ID]; ok {
			row.Amount = formatAmountValue(amount)
		}
		if st, ok := statuses[c.ID]; ok {
			row.HasBudget = true
			row.Spent = formatAmount(st.Spent)
			row.Budget = formatAmount(st.Budget)
			row.Utilization = formatPercent(st.Utilization)
			row.Progress = core.ProgressValue(st.Utilization)
			row.Level = string(st.Level)
			if st.Level == core.AlertExceeded {
				row.Overage = formatAmount(st.Overage)
			}
		}
		data.Categories = append(data.Categories, row)
	}

	s.render(w, r, "budgets.html", data)
}
