package aggregate

import (
	"github.com/shopspring/decimal"

	"fintracker/internal/core"
)

// Balance is a member's signed position in a group. Positive means the group
// owes the member.
type Balance struct {
	Member string
	Amount decimal.Decimal
}

// ComputeBalances splits every expense of group equally between its split
// members and credits the payer with the full amount.
func ComputeBalances(group core.Group, expenses []core.GroupExpense) map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal, len(group.Members))
	for _, m := range group.Members {
		balances[m] = decimal.Zero
	}

	for _, e := range expenses {
		if e.GroupID != group.ID || len(e.SplitBetween) == 0 {
			continue
		}
		share := e.SplitShare()
		for _, m := range e.SplitBetween {
			balances[m] = balances[m].Sub(share)
		}
		balances[e.PaidBy] = balances[e.PaidBy].Add(e.Amount)
	}
	return balances
}

// OrderedBalances returns ComputeBalances in member order, rounded to cents.
func OrderedBalances(group core.Group, expenses []core.GroupExpense) []Balance {
	balances := ComputeBalances(group, expenses)
	out := make([]Balance, 0, len(group.Members))
	for _, m := range group.Members {
		out = append(out, Balance{Member: m, Amount: balances[m].Round(2)})
	}
	return out
}

// GroupTotal sums the expenses that belong to group.
func GroupTotal(group core.Group, expenses []core.GroupExpense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		if e.GroupID == group.ID {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// ExpensesFor filters expenses to those recorded against groupID, keeping order.
func ExpensesFor(groupID string, expenses []core.GroupExpense) []core.GroupExpense {
	var out []core.GroupExpense
	for _, e := range expenses {
		if e.GroupID == groupID {
			out = append(out, e)
		}
	}
	return out
}
