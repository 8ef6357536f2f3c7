package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"expenza/internal/core"
	"expenza/internal/export"
)

// importBodyLimit bounds uploaded import files.
const importBodyLimit = 10 << 20 // 10MB

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	snap, exportedAt := s.store.ExportSnapshot()
	data, err := export.JSON(snap, exportedAt)
	if err != nil {
		slog.ErrorContext(r.Context(), "JSON export error", "error", err)
		InternalServerError("Export failed").Write(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.JSONFilename(exportedAt)+`"`)
	_, _ = w.Write(data)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	snap, exportedAt := s.store.ExportSnapshot()
	data, err := export.CSV(snap)
	if err != nil {
		slog.ErrorContext(r.Context(), "CSV export error", "error", err)
		InternalServerError("Export failed").Write(w)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.CSVFilename(exportedAt)+`"`)
	_, _ = w.Write(data)
}

// handleImport replaces all state from an uploaded JSON export. Rejection
// leaves the current dataset untouched.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, importBodyLimit)
	if err := r.ParseMultipartForm(importBodyLimit); err != nil {
		BadRequestError("Invalid upload").Write(w)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		BadRequestError("Missing import file").Write(w)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		BadRequestError("Failed to read import file").Write(w)
		return
	}

	snap, err := export.Decode(data)
	if err != nil {
		slog.WarnContext(r.Context(), "Import rejected", "error", err)
		UnprocessableEntityError("Invalid file format").Write(w)
		return
	}

	err = s.store.ImportSnapshot(r.Context(), snap)
	if errors.Is(err, core.ErrInvalidImport) {
		UnprocessableEntityError("Import references unknown categories").Write(w)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Import error", "error", err)
		InternalServerError("Import failed").Write(w)
		return
	}

	slog.InfoContext(r.Context(), "Dataset imported",
		"expenses", len(snap.Expenses), "categories", len(snap.Categories))
	SuccessResponse("dataset:imported", "Data imported successfully").Write(w)
}
