// Package aggregate derives totals from ledger records.
//
// Budget spent totals are maintained incrementally by the Apply* functions,
// which mutate the category slice in place. Group balances and dashboard
// figures are recomputed from the full history on every call.
package aggregate

import (
	"github.com/shopspring/decimal"

	"fintracker/internal/core"
)

// categoryIndex returns the position of the category named name, or -1.
func categoryIndex(budgets []core.BudgetCategory, name string) int {
	if name == "" {
		return -1
	}
	for i := range budgets {
		if budgets[i].Name == name {
			return i
		}
	}
	return -1
}

func addSpent(budgets []core.BudgetCategory, category string, amount decimal.Decimal) bool {
	i := categoryIndex(budgets, category)
	if i < 0 {
		return false
	}
	budgets[i].SpentTotal = budgets[i].SpentTotal.Add(amount)
	return true
}

// subSpent floors the total at zero.
func subSpent(budgets []core.BudgetCategory, category string, amount decimal.Decimal) bool {
	i := categoryIndex(budgets, category)
	if i < 0 {
		return false
	}
	budgets[i].SpentTotal = decimal.Max(decimal.Zero, budgets[i].SpentTotal.Sub(amount))
	return true
}

// ApplyExpenseAdded charges e to its category. It reports whether a category
// matched.
func ApplyExpenseAdded(budgets []core.BudgetCategory, e core.Expense) bool {
	return addSpent(budgets, e.Category, e.Amount)
}

// ApplyExpenseRevised moves old out of its category and charges updated to
// its category. Each side is skipped when its category is unknown.
func ApplyExpenseRevised(budgets []core.BudgetCategory, old, updated core.Expense) bool {
	removed := subSpent(budgets, old.Category, old.Amount)
	added := addSpent(budgets, updated.Category, updated.Amount)
	return removed || added
}

// ApplyExpenseRemoved refunds e from its category.
func ApplyExpenseRemoved(budgets []core.BudgetCategory, e core.Expense) bool {
	return subSpent(budgets, e.Category, e.Amount)
}

// SpentByCategory maps category names to their spent totals.
func SpentByCategory(budgets []core.BudgetCategory) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(budgets))
	for _, b := range budgets {
		out[b.Name] = b.SpentTotal
	}
	return out
}

// ExpectedSpent sums expense amounts per known category from scratch.
func ExpectedSpent(budgets []core.BudgetCategory, expenses []core.Expense) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(budgets))
	for _, b := range budgets {
		out[b.Name] = decimal.Zero
	}
	for _, e := range expenses {
		if total, ok := out[e.Category]; ok {
			out[e.Category] = total.Add(e.Amount)
		}
	}
	return out
}

// BudgetStatus is one category's position against its limit.
type BudgetStatus struct {
	Category  string
	Limit     decimal.Decimal
	Spent     decimal.Decimal
	Remaining decimal.Decimal
	Percent   decimal.Decimal
	Over      bool
}

// Statuses reports each category against its limit, in category order.
func Statuses(budgets []core.BudgetCategory) []BudgetStatus {
	out := make([]BudgetStatus, 0, len(budgets))
	hundred := decimal.NewFromInt(100)
	for _, b := range budgets {
		st := BudgetStatus{
			Category:  b.Name,
			Limit:     b.BudgetLimit,
			Spent:     b.SpentTotal,
			Remaining: b.BudgetLimit.Sub(b.SpentTotal),
			Over:      b.SpentTotal.GreaterThan(b.BudgetLimit),
		}
		if b.BudgetLimit.IsPositive() {
			st.Percent = b.SpentTotal.Div(b.BudgetLimit).Mul(hundred).Round(1)
		}
		out = append(out, st)
	}
	return out
}
