package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"fintracker/internal/core"
)

const (
	trendMonths        = 6
	recentTransactions = 5
)

// Summary holds the dashboard totals.
type Summary struct {
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	TotalSavings  decimal.Decimal
	TotalBudget   decimal.Decimal
	TotalSpent    decimal.Decimal
	Remaining     decimal.Decimal
	ActiveGoals   int
}

// Summarize totals the user's collections.
func Summarize(income []core.IncomeEntry, expenses []core.Expense, savings []core.SavingsEntry,
	budgets []core.BudgetCategory, goals []core.Goal) Summary {
	var s Summary
	for _, i := range income {
		s.TotalIncome = s.TotalIncome.Add(i.Amount)
	}
	for _, e := range expenses {
		s.TotalExpenses = s.TotalExpenses.Add(e.Amount)
	}
	for _, sv := range savings {
		s.TotalSavings = s.TotalSavings.Add(sv.Amount)
	}
	for _, b := range budgets {
		s.TotalBudget = s.TotalBudget.Add(b.BudgetLimit)
		s.TotalSpent = s.TotalSpent.Add(b.SpentTotal)
	}
	s.Remaining = s.TotalBudget.Sub(s.TotalSpent)
	for _, g := range goals {
		if g.Active() {
			s.ActiveGoals++
		}
	}
	return s
}

// MonthPoint is income and expenses for one YYYY-MM month.
type MonthPoint struct {
	Month    string
	Income   decimal.Decimal
	Expenses decimal.Decimal
}

// MonthlyTrend returns the latest six months that have any income or
// expense, oldest first.
func MonthlyTrend(income []core.IncomeEntry, expenses []core.Expense) []MonthPoint {
	points := make(map[string]*MonthPoint)
	point := func(d core.Date) *MonthPoint {
		key := d.MonthKey()
		p, ok := points[key]
		if !ok {
			p = &MonthPoint{Month: key}
			points[key] = p
		}
		return p
	}
	for _, e := range expenses {
		p := point(e.Date)
		p.Expenses = p.Expenses.Add(e.Amount)
	}
	for _, i := range income {
		p := point(i.Date)
		p.Income = p.Income.Add(i.Amount)
	}

	keys := make([]string, 0, len(points))
	for k := range points {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > trendMonths {
		keys = keys[len(keys)-trendMonths:]
	}

	out := make([]MonthPoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, *points[k])
	}
	return out
}

const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"
)

// Transaction is an income or expense entry in the recent activity list.
// Expense amounts are negative.
type Transaction struct {
	ID          string
	Kind        string
	Description string
	Category    string
	Amount      decimal.Decimal
	Date        core.Date
}

// RecentTransactions merges income and expenses and returns the five newest.
// Entries on the same date keep expenses before income, each in insertion order.
func RecentTransactions(income []core.IncomeEntry, expenses []core.Expense) []Transaction {
	all := make([]Transaction, 0, len(income)+len(expenses))
	for _, e := range expenses {
		desc := e.Notes
		if desc == "" {
			desc = e.Category
		}
		all = append(all, Transaction{
			ID:          e.ID,
			Kind:        TransactionExpense,
			Description: desc,
			Category:    e.Category,
			Amount:      e.Amount.Neg(),
			Date:        e.Date,
		})
	}
	for _, i := range income {
		all = append(all, Transaction{
			ID:          i.ID,
			Kind:        TransactionIncome,
			Description: i.SourceName,
			Category:    "Income",
			Amount:      i.Amount,
			Date:        i.Date,
		})
	}

	sort.SliceStable(all, func(a, b int) bool {
		return all[a].Date.After(all[b].Date.Time)
	})
	if len(all) > recentTransactions {
		all = all[:recentTransactions]
	}
	return all
}
