package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"expenza/internal/core"
)

// parseExpenseForm extracts an ExpenseInput from form values. Unparsable
// amounts coerce to 0 and are then rejected by validation, so aggregation
// never sees NaN.
func (s *Server) parseExpenseForm(r *http.Request) (core.ExpenseInput, error) {
	in := core.ExpenseInput{
		Amount:      core.ParseAmount(r.Form.Get("amount")),
		Description: sanitizeInput(r.Form.Get("description")),
		CategoryID:  sanitizeInput(r.Form.Get("category_id")),
	}
	date, err := parseDate(r.Form.Get("date"))
	if err != nil {
		in.Date = s.clock()
	} else {
		in.Date = date
	}
	return in, in.Validate()
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		BadRequestError("Invalid request format").Write(w)
		return
	}

	in, err := s.parseExpenseForm(r)
	if err != nil {
		UnprocessableEntityError("Invalid expense: " + err.Error()).Write(w)
		return
	}

	e, err := s.store.AddExpense(r.Context(), in)
	if errors.Is(err, core.ErrInvalidReference) {
		UnprocessableEntityError("Unknown category").Write(w)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Expense create error", "error", err)
		InternalServerError("Failed to save expense").Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Expense created",
		"id", e.ID, "amount", e.Amount, "category_id", e.CategoryID)
	SuccessResponse("expense:added", "Expense recorded: "+e.Description).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	id := strings.TrimSpace(r.Form.Get("id"))
	if id == "" {
		BadRequestError("Missing expense id").Write(w)
		return
	}
	in, err := s.parseExpenseForm(r)
	if err != nil {
		UnprocessableEntityError("Invalid expense: " + err.Error()).Write(w)
		return
	}

	_, err = s.store.UpdateExpense(r.Context(), id, in)
	switch {
	case errors.Is(err, core.ErrNotFound):
		NotFoundError("Expense not found").Write(w)
		return
	case errors.Is(err, core.ErrInvalidReference):
		UnprocessableEntityError("Unknown category").Write(w)
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Expense update error", "error", err, "id", id)
		InternalServerError("Failed to update expense").Write(w)
		return
	}

	SuccessResponse("expense:updated", "Expense updated").Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	id := strings.TrimSpace(r.Form.Get("id"))
	err := s.store.DeleteExpense(r.Context(), id)
	if errors.Is(err, core.ErrNotFound) {
		NotFoundError("Expense not found").Write(w)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Expense delete error", "error", err, "id", id)
		InternalServerError("Failed to delete expense").Write(w)
		return
	}

	SuccessResponse("expense:deleted", "Expense deleted").Write(w)
}

// handleExpenseList renders the searchable, sortable expense table.
func (s *Server) handleExpenseList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	q := core.ListQuery{
		Search:     r.URL.Query().Get("q"),
		CategoryID: r.URL.Query().Get("category"),
		Field:      core.SortField(r.URL.Query().Get("sort")),
		Ascending:  r.URL.Query().Get("order") == "asc",
	}

	snap := s.store.Snapshot()
	expenses := core.QueryExpenses(snap.Expenses, q)

	type row struct {
		ID          string
		Date        string
		DateValue   string
		Description string
		Icon        string
		Category    string
		CategoryID  string
		Amount      string
		AmountValue string
	}
	rows := make([]row, 0, len(expenses))
	for _, e := range expenses {
		name, icon := "Unknown", ""
		if c, ok := snap.CategoryByID(e.CategoryID); ok {
			name, icon = c.Name, c.Icon
		}
		rows = append(rows, row{
			ID:          e.ID,
			Date:        e.Date.Format("Jan 02, 2006"),
			DateValue:   e.Date.Format("2006-01-02"),
			Description: e.Description,
			Icon:        icon,
			Category:    name,
			CategoryID:  e.CategoryID,
			Amount:      formatAmount(e.Amount),
			AmountValue: formatAmountValue(e.Amount),
		})
	}

	data := struct {
		Rows       []row
		Categories []core.Category
		Query      core.ListQuery
	}{rows, snap.Categories, q}
	s.render(w, r, "expenses.html", data)
}
