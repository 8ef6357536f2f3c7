package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"expenza/internal/core"
)

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	in := core.CategoryInput{
		Name:  sanitizeInput(r.Form.Get("name")),
		Color: sanitizeInput(r.Form.Get("color")),
		Icon:  sanitizeInput(r.Form.Get("icon")),
	}
	if in.Color == "" {
		in.Color = "#6b7280"
	}
	if in.Icon == "" {
		in.Icon = "📌"
	}

	c, err := s.store.AddCategory(r.Context(), in)
	if errors.Is(err, core.ErrEmptyName) {
		UnprocessableEntityError("Category name is required").Write(w)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Category create error", "error", err)
		InternalServerError("Failed to save category").Write(w)
		return
	}

	SuccessResponse("category:added", "Category added: "+c.Name).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	id := strings.TrimSpace(r.Form.Get("id"))
	err := s.store.DeleteCategory(r.Context(), id)
	switch {
	case errors.Is(err, core.ErrNotFound):
		NotFoundError("Category not found").Write(w)
		return
	case errors.Is(err, core.ErrCategoryInUse):
		ConflictError("Cannot delete category with existing expenses").Write(w)
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Category delete error", "error", err, "id", id)
		InternalServerError("Failed to delete category").Write(w)
		return
	}

	SuccessResponse("category:deleted", "Category deleted").Write(w)
}

// handleCategoryList renders the category manager partial with per-category
// expense counts.
func (s *Server) handleCategoryList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	snap := s.store.Snapshot()
	counts := make(map[string]int, len(snap.Categories))
	for _, e := range snap.Expenses {
		counts[e.CategoryID]++
	}

	type row struct {
		ID        string
		Icon      string
		Name      string
		Color     string
		Count     int
		Deletable bool
	}
	rows := make([]row, 0, len(snap.Categories))
	for _, c := range snap.Categories {
		rows = append(rows, row{
			ID:        c.ID,
			Icon:      c.Icon,
			Name:      c.Name,
			Color:     c.Color,
			Count:     counts[c.ID],
			Deletable: counts[c.ID] == 0,
		})
	}
	s.render(w, r, "categories.html", struct{ Rows []row }{rows})
}
