package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"expenza/internal/core"
)

func testClock() core.Clock {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func newTestStore() *Store {
	return New(&core.SequenceGenerator{}, testClock(), nil)
}

func TestStore_AddExpense(t *testing.T) {
	st := newTestStore()

	e, err := st.AddExpense(context.Background(), core.ExpenseInput{
		Amount:      12.50,
		Description: "Lunch",
		CategoryID:  "food",
		Date:        time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("AddExpense() error: %v", err)
	}
	if e.ID == "" || e.CreatedAt.IsZero() {
		t.Errorf("expense missing identity: %+v", e)
	}

	snap := st.Snapshot()
	if len(snap.Expenses) != 1 || snap.Expenses[0].ID != e.ID {
		t.Errorf("snapshot expenses = %+v, want the new expense first", snap.Expenses)
	}
}

func TestStore_AddExpense_NewestFirst(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	first, _ := st.AddExpense(ctx, core.ExpenseInput{Amount: 1, CategoryID: "food"})
	second, _ := st.AddExpense(ctx, core.ExpenseInput{Amount: 2, CategoryID: "food"})

	snap := st.Snapshot()
	if snap.Expenses[0].ID != second.ID || snap.Expenses[1].ID != first.ID {
		t.Errorf("expense order = %v then %v, want newest first", snap.Expenses[0].ID, snap.Expenses[1].ID)
	}
}

func TestStore_AddExpense_UnknownCategory(t *testing.T) {
	st := newTestStore()

	_, err := st.AddExpense(context.Background(), core.ExpenseInput{Amount: 5, CategoryID: "nope"})
	if !errors.Is(err, core.ErrInvalidReference) {
		t.Fatalf("AddExpense() error = %v, want ErrInvalidReference", err)
	}
	if n := len(st.Snapshot().Expenses); n != 0 {
		t.Errorf("rejected expense was stored, count = %d", n)
	}
}

func TestStore_UpdateExpense(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	orig, _ := st.AddExpense(ctx, core.ExpenseInput{
		Amount: 10, Description: "Before", CategoryID: "food",
		Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})

	updated, err := st.UpdateExpense(ctx, orig.ID, core.ExpenseInput{
		Amount: 20, Description: "After", CategoryID: "transport",
		Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("UpdateExpense() error: %v", err)
	}
	if updated.ID != orig.ID {
		t.Errorf("ID changed on update: %q -> %q", orig.ID, updated.ID)
	}
	if !updated.CreatedAt.Equal(orig.CreatedAt) {
		t.Errorf("CreatedAt changed on update")
	}
	if updated.Amount != 20 || updated.Description != "After" || updated.CategoryID != "transport" {
		t.Errorf("fields not merged: %+v", updated)
	}
}

func TestStore_UpdateExpense_Errors(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	if _, err := st.UpdateExpense(ctx, "missing", core.ExpenseInput{Amount: 1, CategoryID: "food"}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown id error = %v, want ErrNotFound", err)
	}

	e, _ := st.AddExpense(ctx, core.ExpenseInput{Amount: 1, CategoryID: "food"})
	if _, err := st.UpdateExpense(ctx, e.ID, core.ExpenseInput{Amount: 1, CategoryID: "nope"}); !errors.Is(err, core.ErrInvalidReference) {
		t.Errorf("unknown category error = %v, want ErrInvalidReference", err)
	}
}

func TestStore_DeleteExpense(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	e, _ := st.AddExpense(ctx, core.ExpenseInput{Amount: 1, CategoryID: "food"})
	if err := st.DeleteExpense(ctx, e.ID); err != nil {
		t.Fatalf("DeleteExpense() error: %v", err)
	}
	if n := len(st.Snapshot().Expenses); n != 0 {
		t.Errorf("expense count after delete = %d, want 0", n)
	}
	if err := st.DeleteExpense(ctx, e.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestStore_AddCategory(t *testing.T) {
	st := newTestStore()

	c, err := st.AddCategory(context.Background(), core.CategoryInput{Name: "Pets", Color: "#10b981", Icon: "🐕"})
	if err != nil {
		t.Fatalf("AddCategory() error: %v", err)
	}

	snap := st.Snapshot()
	if _, ok := snap.CategoryByID(c.ID); !ok {
		t.Errorf("new category %q not in snapshot", c.ID)
	}

	if _, err := st.AddCategory(context.Background(), core.CategoryInput{Name: "  "}); !errors.Is(err, core.ErrEmptyName) {
		t.Errorf("blank name error = %v, want ErrEmptyName", err)
	}
}

func TestStore_DeleteCategory_InUse(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	st.AddExpense(ctx, core.ExpenseInput{Amount: 5, CategoryID: "food"})
	before := st.Snapshot()

	err := st.DeleteCategory(ctx, "food")
	if !errors.Is(err, core.ErrCategoryInUse) {
		t.Fatalf("DeleteCategory() error = %v, want ErrCategoryInUse", err)
	}

	after := st.Snapshot()
	if len(after.Categories) != len(before.Categories) {
		t.Errorf("failed delete changed category count: %d -> %d", len(before.Categories), len(after.Categories))
	}
}

func TestStore_DeleteCategory_RemovesBudget(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	st.ReplaceBudgets(ctx, 0, []core.Budget{{CategoryID: "food", Amount: 100}})
	if err := st.DeleteCategory(ctx, "food"); err != nil {
		t.Fatalf("DeleteCategory() error: %v", err)
	}

	snap := st.Snapshot()
	if _, ok := snap.CategoryByID("food"); ok {
		t.Error("category still present after delete")
	}
	for _, b := range snap.Budgets {
		if b.CategoryID == "food" {
			t.Error("budget entry survived category delete")
		}
	}
}

func TestStore_DeleteCategory_NotFound(t *testing.T) {
	st := newTestStore()
	if err := st.DeleteCategory(context.Background(), "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteCategory() error = %v, want ErrNotFound", err)
	}
}

func TestStore_ReplaceBudgets_Normalizes(t *testing.T) {
	st := newTestStore()

	err := st.ReplaceBudgets(context.Background(), 500, []core.Budget{
		{CategoryID: "food", Amount: 100},
		{CategoryID: "food", Amount: 200},
		{CategoryID: "transport", Amount: 0},
		{CategoryID: "bills", Amount: -5},
		{CategoryID: "shopping", Amount: 50},
	})
	if err != nil {
		t.Fatalf("ReplaceBudgets() error: %v", err)
	}

	snap := st.Snapshot()
	if snap.OverallBudget != 500 {
		t.Errorf("overall = %v, want 500", snap.OverallBudget)
	}
	if len(snap.Budgets) != 2 {
		t.Fatalf("budget count = %d, want 2 (duplicates and non-positive dropped)", len(snap.Budgets))
	}
	if snap.Budgets[0].CategoryID != "food" || snap.Budgets[0].Amount != 100 {
		t.Errorf("first budget = %+v, want food 100 (first duplicate wins)", snap.Budgets[0])
	}
}

func TestStore_ImportSnapshot_RoundTrip(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	st.AddExpense(ctx, core.ExpenseInput{Amount: 5, CategoryID: "food"})
	st.ReplaceBudgets(ctx, 300, []core.Budget{{CategoryID: "food", Amount: 100}})
	exported := st.Snapshot()

	other := newTestStore()
	if err := other.ImportSnapshot(ctx, exported); err != nil {
		t.Fatalf("ImportSnapshot() error: %v", err)
	}

	got := other.Snapshot()
	if len(got.Expenses) != 1 || got.Expenses[0].Amount != 5 {
		t.Errorf("imported expenses = %+v", got.Expenses)
	}
	if got.OverallBudget != 300 || len(got.Budgets) != 1 {
		t.Errorf("imported budgets = overall %v, %+v", got.OverallBudget, got.Budgets)
	}
}

func TestStore_ImportSnapshot_RejectsUnknownReference(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	st.AddExpense(ctx, core.ExpenseInput{Amount: 5, CategoryID: "food"})
	before := st.Snapshot()

	bad := core.Snapshot{
		Expenses:   []core.Expense{{ID: "x", Amount: 1, CategoryID: "ghost"}},
		Categories: []core.Category{{ID: "food", Name: "Food"}},
	}
	if err := st.ImportSnapshot(ctx, bad); !errors.Is(err, core.ErrInvalidImport) {
		t.Fatalf("ImportSnapshot() error = %v, want ErrInvalidImport", err)
	}

	after := st.Snapshot()
	if len(after.Expenses) != len(before.Expenses) || len(after.Categories) != len(before.Categories) {
		t.Error("failed import mutated the store")
	}
}

func TestStore_Snapshot_Isolated(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()
	st.AddExpense(ctx, core.ExpenseInput{Amount: 5, CategoryID: "food"})

	snap := st.Snapshot()
	snap.Expenses[0].Amount = 999

	if st.Snapshot().Expenses[0].Amount != 5 {
		t.Error("snapshot mutation leaked into the store")
	}
}

func TestStore_Subscribe_NotifiesAfterMutation(t *testing.T) {
	st := newTestStore()

	var changes []Change
	st.Subscribe(func(ch Change) { changes = append(changes, ch) })

	e, _ := st.AddExpense(context.Background(), core.ExpenseInput{Amount: 5, CategoryID: "food"})
	st.DeleteExpense(context.Background(), e.ID)

	if len(changes) != 2 {
		t.Fatalf("listener saw %d changes, want 2", len(changes))
	}
	if changes[0].Op != OpExpenseAdded || changes[0].EntityID != e.ID {
		t.Errorf("first change = %+v", changes[0])
	}
	if changes[1].Op != OpExpenseDeleted {
		t.Errorf("second change = %+v", changes[1])
	}
}

type failingPersister struct {
	loads int
}

func (p *failingPersister) Load(context.Context) (core.Snapshot, error) {
	p.loads++
	return core.Snapshot{}, errors.New("disk gone")
}

func (p *failingPersister) Save(context.Context, core.Snapshot) error {
	return errors.New("disk gone")
}

func TestStore_SaveFailureDoesNotRollBack(t *testing.T) {
	st := New(&core.SequenceGenerator{}, testClock(), &failingPersister{})

	e, err := st.AddExpense(context.Background(), core.ExpenseInput{Amount: 5, CategoryID: "food"})
	if err != nil {
		t.Fatalf("AddExpense() error despite failing persister: %v", err)
	}
	if len(st.Snapshot().Expenses) != 1 || st.Snapshot().Expenses[0].ID != e.ID {
		t.Error("mutation rolled back on save failure")
	}
}

func TestStore_Restore_FailureKeepsDefaults(t *testing.T) {
	st := New(&core.SequenceGenerator{}, testClock(), &failingPersister{})

	if err := st.Restore(context.Background()); err == nil {
		t.Fatal("Restore() expected error from failing persister")
	}
	if n := len(st.Snapshot().Categories); n != 8 {
		t.Errorf("category count after failed restore = %d, want seeded defaults", n)
	}
}
