package ledger

import (
	"context"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"fintracker/internal/aggregate"
	"fintracker/internal/core"
	"fintracker/internal/storage"
)

func budgetID(c core.BudgetCategory) string { return c.ID }

// BudgetPatch lists the category fields an update may change. The spent
// total is owned by expense reconciliation and cannot be patched.
type BudgetPatch struct {
	Name        *string
	BudgetLimit *decimal.Decimal
}

// Budgets returns the categories in insertion order.
func (s *Store) Budgets() []core.BudgetCategory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.budgets)
}

// SpentByCategory maps category names to their current spent totals.
func (s *Store) SpentByCategory() map[string]decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return aggregate.SpentByCategory(s.budgets)
}

// AddBudgetCategory appends a category. New categories start with nothing
// spent regardless of the input.
func (s *Store) AddBudgetCategory(ctx context.Context, c core.BudgetCategory) (core.BudgetCategory, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.SpentTotal = decimal.Zero
	if err := c.Validate(); err != nil {
		return core.BudgetCategory{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.categoryTaken(c.Name, "") {
		return core.BudgetCategory{}, core.Invalid("name", core.ErrDuplicateCategory)
	}
	c.ID = s.id(c.ID)
	s.budgets = append(s.budgets, c)
	s.persist(ctx, storage.CollectionBudgets)
	return c, nil
}

// UpdateBudgetCategory applies patch to the category with id. Expenses keep
// pointing at the old name after a rename; their totals are not moved.
func (s *Store) UpdateBudgetCategory(ctx context.Context, id string, patch BudgetPatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.budgets, id, budgetID)
	if i < 0 {
		return false, nil
	}
	updated := s.budgets[i]
	if patch.Name != nil {
		updated.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.BudgetLimit != nil {
		updated.BudgetLimit = *patch.BudgetLimit
	}
	if err := updated.Validate(); err != nil {
		return false, err
	}
	if s.categoryTaken(updated.Name, id) {
		return false, core.Invalid("name", core.ErrDuplicateCategory)
	}

	s.budgets[i] = updated
	s.persist(ctx, storage.CollectionBudgets)
	return true, nil
}

// DeleteBudgetCategory removes the category. Its expenses stay and simply
// stop counting toward any budget.
func (s *Store) DeleteBudgetCategory(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.budgets, id, budgetID)
	if i < 0 {
		return false
	}
	s.budgets = slices.Delete(s.budgets, i, i+1)
	s.persist(ctx, storage.CollectionBudgets)
	return true
}

func (s *Store) categoryTaken(name, exceptID string) bool {
	for _, b := range s.budgets {
		if b.Name == name && b.ID != exceptID {
			return true
		}
	}
	return false
}
