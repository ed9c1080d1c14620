package ledger

import (
	"context"
	"slices"
	"strings"

	"fintracker/internal/aggregate"
	"fintracker/internal/core"
	"fintracker/internal/log"
	"fintracker/internal/storage"
)

func expenseID(e core.Expense) string { return e.ID }

// Expenses returns the expenses in insertion order.
func (s *Store) Expenses() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.expenses)
}

// RecordExpense appends e and charges it to its budget category.
func (s *Store) RecordExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.Category = strings.TrimSpace(e.Category)
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = s.id(e.ID)
	s.expenses = append(s.expenses, e)
	if aggregate.ApplyExpenseAdded(s.budgets, e) {
		s.persist(ctx, storage.CollectionExpenses, storage.CollectionBudgets)
	} else {
		s.persist(ctx, storage.CollectionExpenses)
	}

	s.logger.DebugContext(ctx, "Expense recorded",
		log.FieldRecordID, e.ID,
		log.FieldCategory, e.Category,
		log.FieldAmount, e.Amount.String())
	return e, nil
}

// ReviseExpense replaces the expense with id by updated, moving its amount
// between budget categories as needed.
func (s *Store) ReviseExpense(ctx context.Context, id string, updated core.Expense) (bool, error) {
	updated.Category = strings.TrimSpace(updated.Category)
	if err := updated.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.expenses, id, expenseID)
	if i < 0 {
		return false, nil
	}
	old := s.expenses[i]
	updated.ID = old.ID
	s.expenses[i] = updated
	if aggregate.ApplyExpenseRevised(s.budgets, old, updated) {
		s.persist(ctx, storage.CollectionExpenses, storage.CollectionBudgets)
	} else {
		s.persist(ctx, storage.CollectionExpenses)
	}
	return true, nil
}

// RemoveExpense deletes the expense with id and refunds its category.
func (s *Store) RemoveExpense(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.expenses, id, expenseID)
	if i < 0 {
		return false
	}
	removed := s.expenses[i]
	s.expenses = slices.Delete(s.expenses, i, i+1)
	if aggregate.ApplyExpenseRemoved(s.budgets, removed) {
		s.persist(ctx, storage.CollectionExpenses, storage.CollectionBudgets)
	} else {
		s.persist(ctx, storage.CollectionExpenses)
	}
	return true
}
