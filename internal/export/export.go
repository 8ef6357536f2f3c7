// Package export implements the file export and import formats: a JSON
// document carrying the whole dataset, and a CSV listing of expenses.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"expenza/internal/core"
)

// Payload is the JSON export shape. It is also the only accepted import
// shape.
type Payload struct {
	Expenses        []core.Expense  `json:"expenses"`
	Categories      []core.Category `json:"categories"`
	CategoryBudgets []core.Budget   `json:"categoryBudgets"`
	OverallBudget   float64         `json:"overallBudget"`
	ExportDate      time.Time       `json:"exportDate"`
}

// JSON renders the snapshot as a pretty-printed export document stamped with
// exportedAt.
func JSON(snap core.Snapshot, exportedAt time.Time) ([]byte, error) {
	p := Payload{
		Expenses:        snap.Expenses,
		Categories:      snap.Categories,
		CategoryBudgets: snap.Budgets,
		OverallBudget:   snap.OverallBudget,
		ExportDate:      exportedAt,
	}
	if p.Expenses == nil {
		p.Expenses = []core.Expense{}
	}
	if p.Categories == nil {
		p.Categories = []core.Category{}
	}
	if p.CategoryBudgets == nil {
		p.CategoryBudgets = []core.Budget{}
	}
	out, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return out, nil
}

// CSV renders the expense list as Date,Description,Category,Amount rows.
// Category resolves to its name, "Unknown" when the category no longer
// exists. Fields with embedded commas or quotes are escaped per RFC 4180.
func CSV(snap core.Snapshot) ([]byte, error) {
	names := make(map[string]string, len(snap.Categories))
	for _, c := range snap.Categories {
		names[c.ID] = c.Name
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"Date", "Description", "Category", "Amount"}); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range snap.Expenses {
		name, ok := names[e.CategoryID]
		if !ok {
			name = "Unknown"
		}
		row := []string{
			e.Date.Format("2006-01-02"),
			e.Description,
			name,
			strconv.FormatFloat(e.Amount, 'f', 2, 64),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// JSONFilename returns the download name for a JSON export taken at t.
func JSONFilename(t time.Time) string {
	return "expenses-" + t.Format("2006-01-02") + ".json"
}

// CSVFilename returns the download name for a CSV export taken at t.
func CSVFilename(t time.Time) string {
	return "expenses-" + t.Format("2006-01-02") + ".csv"
}

// Decode parses an import document. Missing or non-array expenses or
// categories reject the whole payload with core.ErrInvalidImport;
// categoryBudgets and overallBudget default to empty and 0 when absent.
func Decode(data []byte) (core.Snapshot, error) {
	var raw struct {
		Expenses        json.RawMessage `json:"expenses"`
		Categories      json.RawMessage `json:"categories"`
		CategoryBudgets []core.Budget   `json:"categoryBudgets"`
		OverallBudget   float64         `json:"overallBudget"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return core.Snapshot{}, fmt.Errorf("%w: %v", core.ErrInvalidImport, err)
	}
	if !isJSONArray(raw.Expenses) || !isJSONArray(raw.Categories) {
		return core.Snapshot{}, core.ErrInvalidImport
	}

	snap := core.Snapshot{
		Budgets:       raw.CategoryBudgets,
		OverallBudget: raw.OverallBudget,
	}
	if err := json.Unmarshal(raw.Expenses, &snap.Expenses); err != nil {
		return core.Snapshot{}, fmt.Errorf("%w: expenses: %v", core.ErrInvalidImport, err)
	}
	if err := json.Unmarshal(raw.Categories, &snap.Categories); err != nil {
		return core.Snapshot{}, fmt.Errorf("%w: categories: %v", core.ErrInvalidImport, err)
	}
	if snap.Expenses == nil {
		snap.Expenses = []core.Expense{}
	}
	if snap.Budgets == nil {
		snap.Budgets = []core.Budget{}
	}
	return snap, nil
}

func isJSONArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}
