package ledger

import "fintracker/internal/aggregate"

// Dashboard is the derived overview of the active user's ledger.
type Dashboard struct {
	Summary   aggregate.Summary
	Trend     []aggregate.MonthPoint
	Recent    []aggregate.Transaction
	Portfolio aggregate.Portfolio
	Budgets   []aggregate.BudgetStatus
}

func (s *Store) Dashboard() Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Dashboard{
		Summary:   aggregate.Summarize(s.income, s.expenses, s.savings, s.budgets, s.goals),
		Trend:     aggregate.MonthlyTrend(s.income, s.expenses),
		Recent:    aggregate.RecentTransactions(s.income, s.expenses),
		Portfolio: aggregate.SummarizePortfolio(s.investments),
		Budgets:   aggregate.Statuses(s.budgets),
	}
}
