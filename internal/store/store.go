// Package store owns the authoritative in-memory dataset: expenses,
// categories, category budgets and the overall budget. All mutations go
// through it; derived views are recomputed by callers from a Snapshot copy.
package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"expenza/internal/core"
)

// Persister saves and restores dataset snapshots. Save failures are
// best-effort: they are logged as warnings and never roll back the in-memory
// mutation that triggered them.
type Persister interface {
	Load(ctx context.Context) (core.Snapshot, error)
	Save(ctx context.Context, snap core.Snapshot) error
}

// Change describes a completed mutation for subscribers.
type Change struct {
	Op       string // e.g. "expense:added"
	EntityID string
}

// Listener receives change notifications after each successful mutation.
type Listener func(Change)

const (
	OpExpenseAdded    = "expense:added"
	OpExpenseUpdated  = "expense:updated"
	OpExpenseDeleted  = "expense:deleted"
	OpCategoryAdded   = "category:added"
	OpCategoryDeleted = "category:deleted"
	OpBudgetsReplaced = "budgets:replaced"
	OpImported        = "dataset:imported"
)

// Store is single-writer state: the mutex serializes mutations, queries copy
// the collections out so aggregation never races a mutation.
type Store struct {
	mu sync.Mutex

	expenses   []core.Expense
	categories []core.Category
	budgets    []core.Budget
	overall    float64

	ids       core.IDGenerator
	clock     core.Clock
	persister Persister
	listeners []Listener
}

// New creates an empty store seeded with the default categories. persister
// may be nil (no durable storage, useful in tests).
func New(ids core.IDGenerator, clock core.Clock, persister Persister) *Store {
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		categories: core.DefaultCategories(),
		ids:        ids,
		clock:      clock,
		persister:  persister,
	}
}

// Restore loads the persisted snapshot into the store, replacing current
// state. A load failure leaves the seeded defaults in place; the caller
// decides whether to warn.
func (s *Store) Restore(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	snap, err := s.persister.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.apply(snap)
	s.mu.Unlock()
	return nil
}

// Subscribe registers a listener invoked after each successful mutation.
// Listeners run on the mutating goroutine and must not call back into
// mutation operations.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() core.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// ExportSnapshot returns a copy of the current state plus the export
// timestamp taken from the store's clock.
func (s *Store) ExportSnapshot() (core.Snapshot, time.Time) {
	return s.Snapshot(), s.clock()
}

// AddExpense constructs a new expense and prepends it, so the newest entry
// is logically first. Unknown categories are rejected with
// core.ErrInvalidReference rather than admitting orphaned data.
func (s *Store) AddExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	s.mu.Lock()
	if !s.categoryExistsLocked(in.CategoryID) {
		s.mu.Unlock()
		return core.Expense{}, core.ErrInvalidReference
	}
	e := core.NewExpense(in, s.ids, s.clock)
	s.expenses = append([]core.Expense{e}, s.expenses...)
	s.mu.Unlock()

	s.afterMutation(ctx, Change{Op: OpExpenseAdded, EntityID: e.ID})
	return e, nil
}

// UpdateExpense merges the input into an existing expense, preserving ID and
// CreatedAt.
func (s *Store) UpdateExpense(ctx context.Context, id string, in core.ExpenseInput) (core.Expense, error) {
	s.mu.Lock()
	idx := s.expenseIndexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return core.Expense{}, core.ErrNotFound
	}
	if !s.categoryExistsLocked(in.CategoryID) {
		s.mu.Unlock()
		return core.Expense{}, core.ErrInvalidReference
	}
	e := s.expenses[idx]
	e.Amount = in.Amount
	e.Description = in.Description
	e.CategoryID = in.CategoryID
	e.Date = in.Date
	s.expenses[idx] = e
	s.mu.Unlock()

	s.afterMutation(ctx, Change{Op: OpExpenseUpdated, EntityID: id})
	return e, nil
}

// DeleteExpense removes the expense with the given id.
func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.expenseIndexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return core.ErrNotFound
	}
	s.expenses = append(s.expenses[:idx], s.expenses[idx+1:]...)
	s.mu.Unlock()

	s.afterMutation(ctx, Change{Op: OpExpenseDeleted, EntityID: id})
	return nil
}

// AddCategory creates a category with a fresh id.
func (s *Store) AddCategory(ctx context.Context, in core.CategoryInput) (core.Category, error) {
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	c := core.NewCategory(in, s.ids)
	s.categories = append(s.categories, c)
	s.mu.Unlock()

	s.afterMutation(ctx, Change{Op: OpCategoryAdded, EntityID: c.ID})
	return c, nil
}

// DeleteCategory removes a category and its budget entry. A category still
// referenced by any expense is protected by core.ErrCategoryInUse.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := -1
	for i, c := range s.categories {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return core.ErrNotFound
	}
	for _, e := range s.expenses {
		if e.CategoryID == id {
			s.mu.Unlock()
			return core.ErrCategoryInUse
		}
	}
	s.categories = append(s.categories[:idx], s.categories[idx+1:]...)
	kept := s.budgets[:0]
	for _, b := range s.budgets {
		if b.CategoryID != id {
			kept = append(kept, b)
		}
	}
	s.budgets = kept
	s.mu.Unlock()

	s.afterMutation(ctx, Change{Op: OpCategoryDeleted, EntityID: id})
	return nil
}

// ReplaceBudgets atomically replaces the overall budget and the whole
// category budget set. Entries with a non-positive amount or a duplicate
// category are dropped: a stored budget always means an active budget.
func (s *Store) ReplaceBudgets(ctx context.Context, overall float64, budgets []core.Budget) error {
	s.mu.Lock()
	s.overall = overall
	s.budgets = normalizeBudgets(budgets)
	s.mu.Unlock()

	s.afterMutation(ctx, Change{Op: OpBudgetsReplaced})
	return nil
}

// ImportSnapshot replaces all state at once. Every expense must reference a
// category present in the incoming snapshot; on violation the prior state is
// left untouched and core.ErrInvalidImport is returned.
func (s *Store) ImportSnapshot(ctx context.Context, snap core.Snapshot) error {
	known := make(map[string]struct{}, len(snap.Categories))
	for _, c := range snap.Categories {
		known[c.ID] = struct{}{}
	}
	for _, e := range snap.Expenses {
		if _, ok := known[e.CategoryID]; !ok {
			return core.ErrInvalidImport
		}
	}

	s.mu.Lock()
	s.apply(snap.Clone())
	s.mu.Unlock()

	s.afterMutation(ctx, Change{Op: OpImported})
	return nil
}

// apply installs a snapshot as current state. Caller holds the mutex.
func (s *Store) apply(snap core.Snapshot) {
	s.expenses = snap.Expenses
	if s.expenses == nil {
		s.expenses = []core.Expense{}
	}
	s.categories = snap.Categories
	if s.categories == nil {
		s.categories = core.DefaultCategories()
	}
	s.budgets = normalizeBudgets(snap.Budgets)
	s.overall = snap.OverallBudget
}

func (s *Store) snapshotLocked() core.Snapshot {
	return core.Snapshot{
		Expenses:      append([]core.Expense(nil), s.expenses...),
		Categories:    append([]core.Category(nil), s.categories...),
		Budgets:       append([]core.Budget(nil), s.budgets...),
		OverallBudget: s.overall,
	}
}

func (s *Store) expenseIndexLocked(id string) int {
	for i, e := range s.expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) categoryExistsLocked(id string) bool {
	for _, c := range s.categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// afterMutation persists the new state best-effort and notifies subscribers.
// Persistence failure is a warning, never a rollback.
func (s *Store) afterMutation(ctx context.Context, ch Change) {
	s.mu.Lock()
	snap := s.snapshotLocked()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	if s.persister != nil {
		if err := s.persister.Save(ctx, snap); err != nil {
			slog.WarnContext(ctx, "Snapshot save failed",
				"op", ch.Op, "entity_id", ch.EntityID, "error", err)
		}
	}
	for _, l := range listeners {
		l(ch)
	}
}

func normalizeBudgets(budgets []core.Budget) []core.Budget {
	out := make([]core.Budget, 0, len(budgets))
	seen := make(map[string]struct{}, len(budgets))
	for _, b := range budgets {
		if b.Amount <= 0 {
			continue
		}
		if _, dup := seen[b.CategoryID]; dup {
			continue
		}
		seen[b.CategoryID] = struct{}{}
		out = append(out, b)
	}
	return out
}
