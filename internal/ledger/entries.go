package ledger

import (
	"context"
	"slices"
	"strings"

	"fintracker/internal/core"
	"fintracker/internal/storage"
)

func incomeID(i core.IncomeEntry) string    { return i.ID }
func savingsID(e core.SavingsEntry) string  { return e.ID }
func investmentID(i core.Investment) string { return i.ID }

func (s *Store) Income() []core.IncomeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.income)
}

func (s *Store) AddIncome(ctx context.Context, i core.IncomeEntry) (core.IncomeEntry, error) {
	i.SourceName = strings.TrimSpace(i.SourceName)
	if err := i.Validate(); err != nil {
		return core.IncomeEntry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i.ID = s.id(i.ID)
	s.income = append(s.income, i)
	s.persist(ctx, storage.CollectionIncome)
	return i, nil
}

// UpdateIncome replaces the entry with id, keeping its id.
func (s *Store) UpdateIncome(ctx context.Context, id string, updated core.IncomeEntry) (bool, error) {
	updated.SourceName = strings.TrimSpace(updated.SourceName)
	if err := updated.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.income, id, incomeID)
	if i < 0 {
		return false, nil
	}
	updated.ID = s.income[i].ID
	s.income[i] = updated
	s.persist(ctx, storage.CollectionIncome)
	return true, nil
}

func (s *Store) DeleteIncome(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.income, id, incomeID)
	if i < 0 {
		return false
	}
	s.income = slices.Delete(s.income, i, i+1)
	s.persist(ctx, storage.CollectionIncome)
	return true
}

func (s *Store) Savings() []core.SavingsEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.savings)
}

func (s *Store) AddSavings(ctx context.Context, e core.SavingsEntry) (core.SavingsEntry, error) {
	if err := e.Validate(); err != nil {
		return core.SavingsEntry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = s.id(e.ID)
	s.savings = append(s.savings, e)
	s.persist(ctx, storage.CollectionSavings)
	return e, nil
}

func (s *Store) UpdateSavings(ctx context.Context, id string, updated core.SavingsEntry) (bool, error) {
	if err := updated.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.savings, id, savingsID)
	if i < 0 {
		return false, nil
	}
	updated.ID = s.savings[i].ID
	s.savings[i] = updated
	s.persist(ctx, storage.CollectionSavings)
	return true, nil
}

func (s *Store) DeleteSavings(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.savings, id, savingsID)
	if i < 0 {
		return false
	}
	s.savings = slices.Delete(s.savings, i, i+1)
	s.persist(ctx, storage.CollectionSavings)
	return true
}

func (s *Store) Investments() []core.Investment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.investments)
}

func (s *Store) AddInvestment(ctx context.Context, inv core.Investment) (core.Investment, error) {
	inv.Name = strings.TrimSpace(inv.Name)
	if err := inv.Validate(); err != nil {
		return core.Investment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inv.ID = s.id(inv.ID)
	s.investments = append(s.investments, inv)
	s.persist(ctx, storage.CollectionInvestments)
	return inv, nil
}

func (s *Store) UpdateInvestment(ctx context.Context, id string, updated core.Investment) (bool, error) {
	updated.Name = strings.TrimSpace(updated.Name)
	if err := updated.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.investments, id, investmentID)
	if i < 0 {
		return false, nil
	}
	updated.ID = s.investments[i].ID
	s.investments[i] = updated
	s.persist(ctx, storage.CollectionInvestments)
	return true, nil
}

func (s *Store) DeleteInvestment(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.investments, id, investmentID)
	if i < 0 {
		return false
	}
	s.investments = slices.Delete(s.investments, i, i+1)
	s.persist(ctx, storage.CollectionInvestments)
	return true
}
