package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"expenza/internal/core"
)

// Keys of the persisted state. Each is stored independently so a partially
// written dataset still loads the pieces that are present.
const (
	KeyExpenses        = "expenses"
	KeyCategories      = "categories"
	KeyOverallBudget   = "overallBudget"
	KeyCategoryBudgets = "categoryBudgets"
)

// Snapshots serializes dataset snapshots onto a KV backend. Dates are stored
// as RFC 3339 strings (time.Time's JSON form) and re-hydrated on load.
type Snapshots struct {
	kv KV
}

func NewSnapshots(kv KV) *Snapshots {
	return &Snapshots{kv: kv}
}

// Load reads the four keys, applying defaults for any that are missing:
// empty expenses, the seeded categories, zero budgets.
func (s *Snapshots) Load(ctx context.Context) (core.Snapshot, error) {
	snap := core.Snapshot{
		Expenses:   []core.Expense{},
		Categories: core.DefaultCategories(),
	}

	if raw, ok, err := s.kv.Get(ctx, KeyExpenses); err != nil {
		return core.Snapshot{}, fmt.Errorf("get %s: %w", KeyExpenses, err)
	} else if ok {
		if err := json.Unmarshal([]byte(raw), &snap.Expenses); err != nil {
			return core.Snapshot{}, fmt.Errorf("decode %s: %w", KeyExpenses, err)
		}
	}

	if raw, ok, err := s.kv.Get(ctx, KeyCategories); err != nil {
		return core.Snapshot{}, fmt.Errorf("get %s: %w", KeyCategories, err)
	} else if ok {
		if err := json.Unmarshal([]byte(raw), &snap.Categories); err != nil {
			return core.Snapshot{}, fmt.Errorf("decode %s: %w", KeyCategories, err)
		}
	}

	if raw, ok, err := s.kv.Get(ctx, KeyOverallBudget); err != nil {
		return core.Snapshot{}, fmt.Errorf("get %s: %w", KeyOverallBudget, err)
	} else if ok {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("decode %s: %w", KeyOverallBudget, err)
		}
		snap.OverallBudget = v
	}

	if raw, ok, err := s.kv.Get(ctx, KeyCategoryBudgets); err != nil {
		return core.Snapshot{}, fmt.Errorf("get %s: %w", KeyCategoryBudgets, err)
	} else if ok {
		if err := json.Unmarshal([]byte(raw), &snap.Budgets); err != nil {
			return core.Snapshot{}, fmt.Errorf("decode %s: %w", KeyCategoryBudgets, err)
		}
	}

	return snap, nil
}

// Save writes all four keys in a single SetAll call so readers never observe
// a half-written dataset.
func (s *Snapshots) Save(ctx context.Context, snap core.Snapshot) error {
	expenses := snap.Expenses
	if expenses == nil {
		expenses = []core.Expense{}
	}
	categories := snap.Categories
	if categories == nil {
		categories = []core.Category{}
	}
	budgets := snap.Budgets
	if budgets == nil {
		budgets = []core.Budget{}
	}

	expensesJSON, err := json.Marshal(expenses)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeyExpenses, err)
	}
	categoriesJSON, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeyCategories, err)
	}
	budgetsJSON, err := json.Marshal(budgets)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeyCategoryBudgets, err)
	}

	entries := map[string]string{
		KeyExpenses:        string(expensesJSON),
		KeyCategories:      string(categoriesJSON),
		KeyOverallBudget:   strconv.FormatFloat(snap.OverallBudget, 'f', -1, 64),
		KeyCategoryBudgets: string(budgetsJSON),
	}
	if err := s.kv.SetAll(ctx, entries); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
