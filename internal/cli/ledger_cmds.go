package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"fintracker/internal/aggregate"
	"fintracker/internal/core"
	"fintracker/internal/ledger"
)

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}

type budgetCmd struct {
	add    string
	limit  string
	rename string
	id     string
	delete bool
}

func (*budgetCmd) Name() string     { return "budget" }
func (*budgetCmd) Synopsis() string { return "list, add, change or delete budget categories" }
func (*budgetCmd) Usage() string {
	return `fintracker budget [-add <name> -limit <amount>] [-id <id> [-rename <name>] [-limit <amount>] [-delete]]

  Without flags, lists every category with its spent total.
`
}

func (c *budgetCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.add, "add", "", "Name of a category to create.")
	f.StringVar(&c.limit, "limit", "", "Budget limit.")
	f.StringVar(&c.rename, "rename", "", "New name for the category given by -id.")
	f.StringVar(&c.id, "id", "", "Category to change or delete.")
	f.BoolVar(&c.delete, "delete", false, "Delete the category given by -id.")
}

func (c *budgetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rt := openRuntime(ctx)
	defer rt.Close()
	if err := rt.requireUser(); err != nil {
		return fail(err)
	}

	switch {
	case c.add != "":
		limit, err := core.ParseLimit(c.limit)
		if err != nil {
			return fail(fmt.Errorf("budget: -limit: %w", err))
		}
		cat, err := rt.Store.AddBudgetCategory(ctx, core.BudgetCategory{Name: c.add, BudgetLimit: limit})
		if err != nil {
			return fail(err)
		}
		fmt.Printf("Added category %s (%s)\n", cat.Name, cat.ID)
	case c.id != "" && c.delete:
		if !rt.Store.DeleteBudgetCategory(ctx, c.id) {
			fmt.Printf("No category %s\n", c.id)
		}
	case c.id != "":
		var patch ledger.BudgetPatch
		if c.rename != "" {
			patch.Name = &c.rename
		}
		if c.limit != "" {
			limit, err := core.ParseLimit(c.limit)
			if err != nil {
				return fail(fmt.Errorf("budget: -limit: %w", err))
			}
			patch.BudgetLimit = &limit
		}
		found, err := rt.Store.UpdateBudgetCategory(ctx, c.id, patch)
		if err != nil {
			return fail(err)
		}
		if !found {
			fmt.Printf("No category %s\n", c.id)
		}
	}

	printBudgets(rt.Store.Budgets())
	return subcommands.ExitSuccess
}

func printBudgets(budgets []core.BudgetCategory) {
	w := newTable()
	fmt.Fprintln(w, "ID\tCATEGORY\tLIMIT\tSPENT\tREMAINING\t%")
	statuses := aggregate.Statuses(budgets)
	for i, st := range statuses {
		marker := ""
		if st.Over {
			marker = " over"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s%s\n",
			budgets[i].ID, st.Category,
			core.FormatAmount(st.Limit), core.FormatAmount(st.Spent), core.FormatAmount(st.Remaining),
			st.Percent.String(), marker)
	}
	w.Flush()
}

type expenseCmd struct {
	amount   string
	category string
	date     string
	notes    string
	id       string
	delete   bool
}

func (*expenseCmd) Name() string     { return "expense" }
func (*expenseCmd) Synopsis() string { return "record, revise, remove or list expenses" }
func (*expenseCmd) Usage() string {
	return `fintracker expense [-amount <amount> [-category <name>] [-date YYYY-MM-DD] [-notes <text>]] [-id <id> [-delete]]

  With -amount records an expense, or revises the one given by -id.
  Budget totals follow every change.
`
}

func (c *expenseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.amount, "amount", "", "Expense amount.")
	f.StringVar(&c.category, "category", "", "Budget category name.")
	f.StringVar(&c.date, "date", "", "Expense date (defaults to today).")
	f.StringVar(&c.notes, "notes", "", "Free text notes.")
	f.StringVar(&c.id, "id", "", "Expense to revise or delete.")
	f.BoolVar(&c.delete, "delete", false, "Delete the expense given by -id.")
}

func (c *expenseCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rt := openRuntime(ctx)
	defer rt.Close()
	if err := rt.requireUser(); err != nil {
		return fail(err)
	}

	if c.id != "" && c.delete {
		if !rt.Store.RemoveExpense(ctx, c.id) {
			fmt.Printf("No expense %s\n", c.id)
		}
	} else if c.amount != "" {
		amount, err := core.ParseAmount(c.amount)
		if err != nil {
			return fail(fmt.Errorf("expense: -amount: %w", err))
		}
		date, err := parseDateOrToday(c.date)
		if err != nil {
			return fail(fmt.Errorf("expense: -date: %w", err))
		}
		e := core.Expense{Category: c.category, Amount: amount, Date: date, Notes: c.notes}
		if c.id != "" {
			found, err := rt.Store.ReviseExpense(ctx, c.id, e)
			if err != nil {
				return fail(err)
			}
			if !found {
				fmt.Printf("No expense %s\n", c.id)
			}
		} else if _, err := rt.Store.RecordExpense(ctx, e); err != nil {
			return fail(err)
		}
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tDATE\tCATEGORY\tAMOUNT\tNOTES")
	for _, e := range rt.Store.Expenses() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Date, e.Category, core.FormatAmount(e.Amount), e.Notes)
	}
	w.Flush()
	return subcommands.ExitSuccess
}

type goalCmd struct {
	add        string
	target     string
	targetDate string
	id         string
	contribute string
}

func (*goalCmd) Name() string     { return "goal" }
func (*goalCmd) Synopsis() string { return "list, add or contribute to savings goals" }
func (*goalCmd) Usage() string {
	return `fintracker goal [-add <name> -target <amount> [-by YYYY-MM-DD]] [-id <id> -contribute <amount>]
`
}

func (c *goalCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.add, "add", "", "Name of a goal to create.")
	f.StringVar(&c.target, "target", "", "Target amount.")
	f.StringVar(&c.targetDate, "by", "", "Target date.")
	f.StringVar(&c.id, "id", "", "Goal to contribute to.")
	f.StringVar(&c.contribute, "contribute", "", "Amount to add to the goal given by -id.")
}

func (c *goalCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rt := openRuntime(ctx)
	defer rt.Close()
	if err := rt.requireUser(); err != nil {
		return fail(err)
	}

	switch {
	case c.add != "":
		target, err := core.ParseAmount(c.target)
		if err != nil {
			return fail(fmt.Errorf("goal: -target: %w", err))
		}
		g := core.Goal{Name: c.add, TargetAmount: target, CurrentAmount: decimal.Zero}
		if c.targetDate != "" {
			if g.TargetDate, err = core.ParseDate(c.targetDate); err != nil {
				return fail(fmt.Errorf("goal: -by: %w", err))
			}
		}
		if _, err := rt.Store.AddGoal(ctx, g); err != nil {
			return fail(err)
		}
	case c.id != "" && c.contribute != "":
		amount, err := core.ParseAmount(c.contribute)
		if err != nil {
			return fail(fmt.Errorf("goal: -contribute: %w", err))
		}
		_, found, err := rt.Store.AddToGoal(ctx, c.id, amount)
		if err != nil {
			return fail(err)
		}
		if !found {
			fmt.Printf("No goal %s\n", c.id)
		}
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tGOAL\tCURRENT\tTARGET\tPROGRESS\tBY")
	for _, g := range rt.Store.Goals() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s%%\t%s\n", g.ID, g.Name,
			core.FormatAmount(g.CurrentAmount), core.FormatAmount(g.TargetAmount),
			g.Progress().Round(0).String(), g.TargetDate)
	}
	w.Flush()
	return subcommands.ExitSuccess
}

type groupCmd struct {
	add         string
	members     string
	id          string
	member      string
	expense     string
	amount      string
	paidBy      string
	split       string
	expenseDate string
}

func (*groupCmd) Name() string     { return "group" }
func (*groupCmd) Synopsis() string { return "create groups, add members and record shared expenses" }
func (*groupCmd) Usage() string {
	return `fintracker group -add <name> [-members a,b,c]
fintracker group -id <id> -member <name>
fintracker group -id <id> -expense <description> -amount <amount> -paid-by <member> [-split a,b] [-date YYYY-MM-DD]

  The split defaults to every current member.
`
}

func (c *groupCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.add, "add", "", "Name of a group to create.")
	f.StringVar(&c.members, "members", "", "Comma separated initial members.")
	f.StringVar(&c.id, "id", "", "Group to change.")
	f.StringVar(&c.member, "member", "", "Member to append to the group.")
	f.StringVar(&c.expense, "expense", "", "Description of a shared expense.")
	f.StringVar(&c.amount, "amount", "", "Shared expense amount.")
	f.StringVar(&c.paidBy, "paid-by", "", "Member who paid.")
	f.StringVar(&c.split, "split", "", "Comma separated members sharing the expense.")
	f.StringVar(&c.expenseDate, "date", "", "Expense date (defaults to today).")
}

func (c *groupCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rt := openRuntime(ctx)
	defer rt.Close()
	if err := rt.requireUser(); err != nil {
		return fail(err)
	}

	switch {
	case c.add != "":
		g, err := rt.Store.AddGroup(ctx, core.Group{Name: c.add, Members: splitList(c.members)})
		if err != nil {
			return fail(err)
		}
		fmt.Printf("Added group %s (%s)\n", g.Name, g.ID)
	case c.id != "" && c.member != "":
		found, err := rt.Store.AddMember(ctx, c.id, c.member)
		if err != nil {
			return fail(err)
		}
		if !found {
			fmt.Printf("No group %s\n", c.id)
		}
	case c.id != "" && c.expense != "":
		amount, err := core.ParseAmount(c.amount)
		if err != nil {
			return fail(fmt.Errorf("group: -amount: %w", err))
		}
		date, err := parseDateOrToday(c.expenseDate)
		if err != nil {
			return fail(fmt.Errorf("group: -date: %w", err))
		}
		split := splitList(c.split)
		if split == nil {
			for _, g := range rt.Store.Groups() {
				if g.ID == c.id {
					split = g.Members
				}
			}
		}
		e, err := rt.Store.AddGroupExpense(ctx, core.GroupExpense{
			GroupID:      c.id,
			Description:  c.expense,
			Amount:       amount,
			Date:         date,
			PaidBy:       c.paidBy,
			SplitBetween: split,
		})
		if err != nil {
			return fail(err)
		}
		if e.ID == "" {
			fmt.Printf("No group %s\n", c.id)
		} else {
			fmt.Printf("Each of %d members owes %s\n", len(e.SplitBetween), core.FormatAmount(e.SplitShare()))
		}
	}

	w := newTable()
	fmt.Fprintln(w, "ID\tGROUP\tMEMBERS\tTOTAL")
	expenses := rt.Store.GroupExpenses()
	for _, g := range rt.Store.Groups() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", g.ID, g.Name, strings.Join(g.Members, ", "),
			core.FormatAmount(aggregate.GroupTotal(g, expenses)))
	}
	w.Flush()
	return subcommands.ExitSuccess
}

type balancesCmd struct {
	group string
}

func (*balancesCmd) Name() string     { return "balances" }
func (*balancesCmd) Synopsis() string { return "show who owes what in each group" }
func (*balancesCmd) Usage() string {
	return `fintracker balances [-group <id>]

  Positive balances are owed to the member, negative ones are owed by them.
`
}

func (c *balancesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.group, "group", "", "Only show this group.")
}

func (c *balancesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rt := openRuntime(ctx)
	defer rt.Close()
	if err := rt.requireUser(); err != nil {
		return fail(err)
	}

	w := newTable()
	for _, g := range rt.Store.Groups() {
		if c.group != "" && g.ID != c.group {
			continue
		}
		balances, _ := rt.Store.GroupBalances(g.ID)
		fmt.Fprintf(w, "%s\t\n", g.Name)
		for _, b := range balances {
			fmt.Fprintf(w, "  %s\t%s\n", b.Member, b.Amount.StringFixed(2))
		}
	}
	w.Flush()
	return subcommands.ExitSuccess
}

type summaryCmd struct{}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "print the dashboard for the logged in user" }
func (*summaryCmd) Usage() string {
	return `fintracker summary
`
}

func (*summaryCmd) SetFlags(*flag.FlagSet) {}

func (*summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rt := openRuntime(ctx)
	defer rt.Close()
	if err := rt.requireUser(); err != nil {
		return fail(err)
	}

	d := rt.Store.Dashboard()
	s := d.Summary
	w := newTable()
	fmt.Fprintf(w, "User\t%s\n", rt.Store.UserID())
	fmt.Fprintf(w, "Income\t%s\n", core.FormatAmount(s.TotalIncome))
	fmt.Fprintf(w, "Expenses\t%s\n", core.FormatAmount(s.TotalExpenses))
	fmt.Fprintf(w, "Savings\t%s\n", core.FormatAmount(s.TotalSavings))
	fmt.Fprintf(w, "Budget\t%s spent of %s, %s left\n",
		core.FormatAmount(s.TotalSpent), core.FormatAmount(s.TotalBudget), core.FormatAmount(s.Remaining))
	fmt.Fprintf(w, "Active goals\t%d\n", s.ActiveGoals)
	fmt.Fprintf(w, "Investments\t%s, valued %s\n",
		core.FormatAmount(d.Portfolio.Invested), core.FormatAmount(d.Portfolio.CurrentValue))
	w.Flush()

	if len(d.Trend) > 0 {
		fmt.Println()
		w = newTable()
		fmt.Fprintln(w, "MONTH\tINCOME\tEXPENSES")
		for _, p := range d.Trend {
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.Month, core.FormatAmount(p.Income), core.FormatAmount(p.Expenses))
		}
		w.Flush()
	}

	if len(d.Recent) > 0 {
		fmt.Println()
		w = newTable()
		fmt.Fprintln(w, "DATE\tDESCRIPTION\tCATEGORY\tAMOUNT")
		for _, tx := range d.Recent {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", tx.Date, tx.Description, tx.Category, tx.Amount.StringFixed(2))
		}
		w.Flush()
	}
	return subcommands.ExitSuccess
}
