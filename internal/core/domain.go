package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Category groups expenses for display and budgeting.
	Category struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
		Icon  string `json:"icon"`
	}

	// Expense is a single recorded spend. ID and CreatedAt are assigned at
	// creation and never change afterwards.
	Expense struct {
		ID          string    `json:"id"`
		Amount      float64   `json:"amount"`
		Description string    `json:"description"`
		CategoryID  string    `json:"categoryId"`
		Date        time.Time `json:"date"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	// Budget caps spending for one category. The budget set holds at most one
	// entry per category.
	Budget struct {
		CategoryID string  `json:"categoryId"`
		Amount     float64 `json:"amount"`
	}

	// Snapshot is a full copy of the dataset. Callers own the copy they
	// receive; mutating it never affects the live collections.
	Snapshot struct {
		Expenses      []Expense
		Categories    []Category
		Budgets       []Budget
		OverallBudget float64
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidReference = errors.New("expense references unknown category")
	ErrNotFound         = errors.New("not found")
	ErrCategoryInUse    = errors.New("category has expenses")
	ErrInvalidImport    = errors.New("invalid import payload")
)

// ExpenseInput carries the user-provided fields of an expense.
type ExpenseInput struct {
	Amount      float64
	Description string
	CategoryID  string
	Date        time.Time
}

func (in ExpenseInput) Validate() error {
	if in.Amount <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		return ErrInvalidReference
	}
	return nil
}

// CategoryInput carries the user-provided fields of a category.
type CategoryInput struct {
	Name  string
	Color string
	Icon  string
}

func (in CategoryInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// Clock supplies the current time. Injected so that aggregation windows and
// created-at stamps are deterministic under test.
type Clock func() time.Time

// NewExpense builds an Expense from input, assigning a fresh ID and CreatedAt.
func NewExpense(in ExpenseInput, ids IDGenerator, now Clock) Expense {
	return Expense{
		ID:          ids.NewID(),
		Amount:      in.Amount,
		Description: in.Description,
		CategoryID:  in.CategoryID,
		Date:        in.Date,
		CreatedAt:   now(),
	}
}

// NewCategory builds a Category from input, assigning a fresh ID.
func NewCategory(in CategoryInput, ids IDGenerator) Category {
	return Category{
		ID:    ids.NewID(),
		Name:  in.Name,
		Color: in.Color,
		Icon:  in.Icon,
	}
}

// DefaultCategories returns the seeded category set used when no saved
// categories exist. Returns a fresh slice on every call.
func DefaultCategories() []Category {
	return []Category{
		{ID: "food", Name: "Food & Dining", Color: "#ef4444", Icon: "🍔"},
		{ID: "transport", Name: "Transportation", Color: "#3b82f6", Icon: "🚗"},
		{ID: "shopping", Name: "Shopping", Color: "#ec4899", Icon: "🛍️"},
		{ID: "entertainment", Name: "Entertainment", Color: "#8b5cf6", Icon: "🎬"},
		{ID: "bills", Name: "Bills & Utilities", Color: "#f59e0b", Icon: "📄"},
		{ID: "healthcare", Name: "Healthcare", Color: "#10b981", Icon: "⚕️"},
		{ID: "education", Name: "Education", Color: "#06b6d4", Icon: "📚"},
		{ID: "other", Name: "Other", Color: "#6b7280", Icon: "💼"},
	}
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{OverallBudget: s.OverallBudget}
	if s.Expenses != nil {
		out.Expenses = append([]Expense(nil), s.Expenses...)
	}
	if s.Categories != nil {
		out.Categories = append([]Category(nil), s.Categories...)
	}
	if s.Budgets != nil {
		out.Budgets = append([]Budget(nil), s.Budgets...)
	}
	return out
}

// CategoryByID finds a category in the snapshot's category list.
func (s Snapshot) CategoryByID(id string) (Category, bool) {
	for _, c := range s.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
