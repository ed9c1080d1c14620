package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintracker/internal/aggregate"
	"fintracker/internal/core"
	"fintracker/internal/identity"
	"fintracker/internal/log"
	"fintracker/internal/session"
	"fintracker/internal/storage"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(dd int) core.Date { return core.NewDate(2024, 3, dd) }

// recordingBackend counts writes and remembers every key touched.
type recordingBackend struct {
	*storage.MemoryBackend
	mu      sync.Mutex
	puts    int
	touched []storage.Key
	failPut error
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{MemoryBackend: storage.NewMemoryBackend()}
}

func (r *recordingBackend) Get(ctx context.Context, key storage.Key) ([]byte, bool, error) {
	r.mu.Lock()
	r.touched = append(r.touched, key)
	r.mu.Unlock()
	return r.MemoryBackend.Get(ctx, key)
}

func (r *recordingBackend) Put(ctx context.Context, key storage.Key, value []byte) error {
	r.mu.Lock()
	r.puts++
	r.touched = append(r.touched, key)
	fail := r.failPut
	r.mu.Unlock()
	if fail != nil {
		return fail
	}
	return r.MemoryBackend.Put(ctx, key, value)
}

func (r *recordingBackend) putCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.puts
}

func (r *recordingBackend) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.puts = 0
	r.touched = nil
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestStore(t *testing.T, backend storage.Backend) *Store {
	t.Helper()
	scoped := storage.NewScoped(backend, storage.DefaultNamespace, log.Discard())
	return New(scoped, WithLogger(log.Discard()), WithIDGenerator(sequentialIDs()))
}

func loggedIn(t *testing.T, userID string) (*Store, *recordingBackend) {
	t.Helper()
	backend := newRecordingBackend()
	s := newTestStore(t, backend)
	s.Load(context.Background(), userID)
	return s, backend
}

func assertBudgetInvariant(t *testing.T, s *Store) {
	t.Helper()
	snap := s.Snapshot()
	want := aggregate.ExpectedSpent(snap.Budgets, snap.Expenses)
	for _, b := range snap.Budgets {
		assert.Truef(t, b.SpentTotal.Equal(want[b.Name]),
			"category %s spent=%s, expected %s", b.Name, b.SpentTotal, want[b.Name])
	}
}

func TestFoodScenario(t *testing.T) {
	ctx := context.Background()
	s, _ := loggedIn(t, "u1")

	food, err := s.AddBudgetCategory(ctx, core.BudgetCategory{Name: "Food", BudgetLimit: d("200")})
	require.NoError(t, err)
	assert.True(t, food.SpentTotal.IsZero())

	e, err := s.RecordExpense(ctx, core.Expense{Category: "Food", Amount: d("50"), Date: day(1)})
	require.NoError(t, err)
	assert.True(t, s.SpentByCategory()["Food"].Equal(d("50")))

	revised := e
	revised.Amount = d("80")
	found, err := s.ReviseExpense(ctx, e.ID, revised)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, s.SpentByCategory()["Food"].Equal(d("80")))

	require.True(t, s.RemoveExpense(ctx, e.ID))
	assert.True(t, s.SpentByCategory()["Food"].IsZero())
	assert.Empty(t, s.Expenses())
}

func TestBudgetInvariantHoldsAfterEveryMutation(t *testing.T) {
	ctx := context.Background()
	s, _ := loggedIn(t, "u1")
	for _, name := range []string{"Food", "Rent", "Fun"} {
		_, err := s.AddBudgetCategory(ctx, core.BudgetCategory{Name: name, BudgetLimit: d("500")})
		require.NoError(t, err)
	}

	categories := []string{"Food", "Rent", "Fun", "Travel", ""}
	rng := rand.New(rand.NewSource(42))
	randomExpense := func() core.Expense {
		return core.Expense{
			Category: categories[rng.Intn(len(categories))],
			Amount:   decimal.New(int64(rng.Intn(10000)+1), -2),
			Date:     day(rng.Intn(28) + 1),
		}
	}

	for step := 0; step < 500; step++ {
		expenses := s.Expenses()
		switch op := rng.Intn(3); {
		case op == 0 || len(expenses) == 0:
			_, err := s.RecordExpense(ctx, randomExpense())
			require.NoError(t, err)
		case op == 1:
			target := expenses[rng.Intn(len(expenses))]
			_, err := s.ReviseExpense(ctx, target.ID, randomExpense())
			require.NoError(t, err)
		default:
			target := expenses[rng.Intn(len(expenses))]
			require.True(t, s.RemoveExpense(ctx, target.ID))
		}
		assertBudgetInvariant(t, s)
	}
}

func TestReviseExpense_SameCategoryAppliesDelta(t *testing.T) {
	ctx := context.Background()
	s, _ := loggedIn(t, "u1")
	_, err := s.AddBudgetCategory(ctx, core.BudgetCategory{Name: "Food", BudgetLimit: d("100")})
	require.NoError(t, err)
	a, _ := s.RecordExpense(ctx, core.Expense{Category: "Food", Amount: d("10"), Date: day(1)})
	_, _ = s.RecordExpense(ctx, core.Expense{Category: "Food", Amount: d("5"), Date: day(2)})

	a.Amount = d("7.25")
	_, err = s.ReviseExpense(ctx, a.ID, a)
	require.NoError(t, err)

	assert.True(t, s.SpentByCategory()["Food"].Equal(d("12.25")))
}

func TestRemoveExpense_CategoryGone(t *testing.T) {
	ctx := context.Background()
	s, _ := loggedIn(t, "u1")
	food, _ := s.AddBudgetCategory(ctx, core.BudgetCategory{Name: "Food", BudgetLimit: d("100")})
	_, _ = s.AddBudgetCategory(ctx, core.BudgetCategory{Name: "Rent", BudgetLimit: d("800")})
	e, _ := s.RecordExpense(ctx, core.Expense{Category: "Food", Amount: d("30"), Date: day(1)})
	_, _ = s.RecordExpense(ctx, core.Expense{Category: "Rent", Amount: d("700"), Date: day(1)})

	require.True(t, s.DeleteBudgetCategory(ctx, food.ID))
	require.True(t, s.RemoveExpense(ctx, e.ID))

	spent := s.SpentByCategory()
	assert.Len(t, spent, 1)
	assert.True(t, spent["Rent"].Equal(d("700")))
}

func TestRenamedCategoryKeepsClampedTotals(t *testing.T) {
	ctx := context.Background()
	s, _ := loggedIn(t, "u1")
	food, _ := s.AddBudgetCategory(ctx, core.BudgetCategory{Name: "Food", BudgetLimit: d("100")})
	e, _ := s.RecordExpense(ctx, core.Expense{Category: "Food", Amount: d("40"), Date: day(1)})
	assertBudgetInvariant(t, s)

	name := "Groceries"
	found, err := s.UpdateBudgetCategory(ctx, food.ID, BudgetPatch{Name: &name})
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, s.SpentByCategory()["Groceries"].Equal(d("40")), "rename does not move totals")
	assertOrphaned(t, s, "Groceries", d("40"))

	// The expense still points at "Food", so removing it refunds nothing.
	require.True(t, s.RemoveExpense(ctx, e.ID))
	assert.True(t, s.SpentByCategory()["Groceries"].Equal(d("40")))
	assertOrphaned(t, s, "Groceries", d("40"))

	_, err = s.RecordExpense(ctx, core.Expense{Category: "Groceries", Amount: d("10"), Date: day(2)})
	require.NoError(t, err)
	assert.True(t, s.SpentByCategory()["Groceries"].Equal(d("50")))

	other, _ := s.RecordExpense(ctx, core.Expense{Category: "Groceries", Amount: d("5"), Date: day(2)})
	assert.True(t, s.SpentByCategory()["Groceries"].Equal(d("55")))

	other.Amount = d("100")
	_, err = s.ReviseExpense(ctx, other.ID, other)
	require.NoError(t, err)
	assert.True(t, s.SpentByCategory()["Groceries"].Equal(d("150")))
	assertOrphaned(t, s, "Groceries", d("40"))
}

// assertOrphaned checks that category's total exceeds what its expenses
// add up to by exactly orphaned.
func assertOrphaned(t *testing.T, s *Store, category string, orphaned decimal.Decimal) {
	t.Helper()
	snap := s.Snapshot()
	want := aggregate.ExpectedSpent(snap.Budgets, snap.Expenses)
	got := s.SpentByCategory()[category]
	assert.Truef(t, got.Sub(want[category]).Equal(orphaned),
		"category %s spent=%s, expenses=%s, want %s orphaned", category, got, want[category], orphaned)
}

func TestBudgetCategoryValidation(t *testing.T) {
	ctx := context.Background()
	s, _ := loggedIn(t, "u1")
	_, err := s.AddBudgetCategory(ctx, core.BudgetCategory{Name: "Food", BudgetLimit: d("100"), SpentTotal: d("999")})
	require.NoError(t, err)
	assert.True(t, s.SpentByCategory()["Food"].IsZero(), "spent is never taken from input")

	_, err = s.AddBudgetCategory(ctx, core.BudgetCategory{Name: " Food ", BudgetLimit: d("1")})
	assert.ErrorIs(t, err, core.ErrDuplicateCategory)

	_, err = s.AddBudgetCategory(ctx, core.BudgetCategory{Name: "  "})
	assert.ErrorIs(t, err, core.ErrEmptyName)

	fun, err := s.AddBudgetCategory(ctx, core.BudgetCategory{Name: "Fun", BudgetLimit: d("10")})
	require.NoError(t, err)
	taken := "Food"
	_, err = s.UpdateBudgetCategory(ctx, fun.ID, BudgetPatch{Name: &taken})
	assert.ErrorIs(t, err, core.ErrDuplicateCategory)

	negative := d("-1")
	_, err = s.UpdateBudgetCategory(ctx, fun.ID, BudgetPatch{BudgetLimit: &negative})
	assert.ErrorIs(t, err, core.ErrNegativeLimit)
	assert.True(t, core.IsValidation(err))

	found, err := s.UpdateBudgetCategory(ctx, "missing", BudgetPatch{Name: &taken})
	assert.NoError(t, err)
	assert.False(t, found)

	assert.Len(t, s.Budgets(), 2)
}

func TestExpenseValidationRejectsBeforeStore(t *testing.T) {
	ctx := context.Background()
	s, backend := loggedIn(t, "u1")
	backend.reset()

	for _, amount := range []string{"0", "-5"} {
		_, err := s.RecordExpense(ctx, core.Expense{Category: "Food", Amount: d(amount), Date: day(1)})
		var ve *core.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "amount", ve.Field)
		assert.ErrorIs(t, err, core.ErrInvalidAmount)
	}
	_, err := s.RecordExpense(ctx, core.Expense{Amount: d("5")})
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	assert.Empty(t, s.Expenses())
	assert.Zero(t, backend.putCount())
}

func TestReferentialMissesAreNoops(t *testing.T) {
	ctx := context.Background()
	s, backend := loggedIn(t, "u1")
	backend.reset()

	found, err := s.ReviseExpense(ctx, "nope", core.Expense{Amount: d("1"), Date: day(1)})
	assert.NoError(t, err)
	assert.False(t, found)
	assert.False(t, s.RemoveExpense(ctx, "nope"))
	assert.False(t, s.DeleteGoal(ctx, "nope"))
	assert.False(t, s.DeleteGroup(ctx, "nope"))
	assert.False(t, s.DeleteIncome(ctx, "nope"))
	assert.False(t, s.DeleteSavings(ctx, "nope"))
	assert.False(t, s.DeleteInvestment(ctx, "nope"))
	assert.False(t, s.DeleteGroupExpense(ctx, "nope"))

	_, found, err = s.AddToGoal(ctx, "nope", d("1"))
	assert.NoError(t, err)
	assert.False(t, found)

	found, err = s.AddMember(ctx, "nope", "x")
	assert.NoError(t, err)
	assert.False(t, found)

	ge, err := s.AddGroupExpense(ctx, core.GroupExpense{
		GroupID: "nope", Description: "d", Amount: d("1"), Date: day(1), PaidBy: "a", SplitBetween: []string{"a"},
	})
	assert.NoError(t, err)
	assert.Empty(t, ge.ID)
	assert.Empty(t, s.GroupExpenses())

	assert.Zero(t, backend.putCount())
}

func TestGoals(t *testing.T) {
	ctx := context.Background()
	s, _ := loggedIn(t, "u1")

	_, err := s.AddGoal(ctx, core.Goal{Name: "Bike", TargetAmount: d("100"), CurrentAmount: d("150")})
	assert.ErrorIs(t, err, core.ErrCurrentAboveTarget)

	g, err := s.AddGoal(ctx, core.Goal{Name: "Bike", TargetAmount: d("100"), CurrentAmount: d("40"), TargetDate: day(30)})
	require.NoError(t, err)
	done, err := s.AddGoal(ctx, core.Goal{Name: "Phone", TargetAmount: d("10"), CurrentAmount: d("10")})
	require.NoError(t, err)

	_, _, err = s.AddToGoal(ctx, g.ID, d("0"))
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, found, err := s.AddToGoal(ctx, g.ID, d("60.01"))
	assert.True(t, found)
	assert.ErrorIs(t, err, core.ErrExceedsTarget)

	updated, found, err := s.AddToGoal(ctx, g.ID, d("25"))
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, updated.CurrentAmount.Equal(d("65")))
	require.Len(t, s.ActiveGoals(), 1)

	updated, _, err = s.AddToGoal(ctx, g.ID, d("35"))
	require.NoError(t, err)
	assert.True(t, updated.CurrentAmount.Equal(updated.TargetAmount))
	assert.True(t, updated.Progress().Equal(d("100")))
	assert.Empty(t, s.ActiveGoals())
	assert.Len(t, s.CompletedGoals(), 2)

	_, _, err = s.AddToGoal(ctx, done.ID, d("0.01"))
	assert.ErrorIs(t, err, core.ErrExceedsTarget)

	for _, goal := range s.Goals() {
		assert.True(t, goal.CurrentAmount.LessThanOrEqual(goal.TargetAmount))
	}

	target := d("200")
	found, err = s.UpdateGoal(ctx, g.ID, GoalPatch{TargetAmount: &target})
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, s.ActiveGoals(), 1)

	low := d("50")
	_, err = s.UpdateGoal(ctx, g.ID, GoalPatch{TargetAmount: &low})
	assert.ErrorIs(t, err, core.ErrCurrentAboveTarget)
}

func TestGroupsAndBalances(t *testing.T) {
	ctx := context.Background()
	s, _ := loggedIn(t, "u1")

	_, err := s.AddGroup(ctx, core.Group{Name: "Trip", Members: []string{"X", " X "}})
	assert.ErrorIs(t, err, core.ErrDuplicateMember)

	g, err := s.AddGroup(ctx, core.Group{Name: "Trip", Members: []string{"X", "Y"}})
	require.NoError(t, err)

	found, err := s.AddMember(ctx, g.ID, " Z ")
	require.NoError(t, err)
	require.True(t, found)
	_, err = s.AddMember(ctx, g.ID, "Y")
	assert.ErrorIs(t, err, core.ErrDuplicateMember)
	_, err = s.AddMember(ctx, g.ID, " ")
	assert.ErrorIs(t, err, core.ErrEmptyName)
	assert.Equal(t, []string{"X", "Y", "Z"}, s.Groups()[0].Members)

	base := core.GroupExpense{GroupID: g.ID, Description: "Dinner", Amount: d("90"), Date: day(3), PaidBy: "X"}

	bad := base
	bad.SplitBetween = nil
	_, err = s.AddGroupExpense(ctx, bad)
	assert.ErrorIs(t, err, core.ErrEmptySplit)

	bad.SplitBetween = []string{"X", "W"}
	_, err = s.AddGroupExpense(ctx, bad)
	assert.ErrorIs(t, err, core.ErrNotMember)

	bad = base
	bad.PaidBy = "W"
	bad.SplitBetween = []string{"X"}
	_, err = s.AddGroupExpense(ctx, bad)
	assert.ErrorIs(t, err, core.ErrNotMember)

	ok := base
	ok.SplitBetween = []string{"X", "Y", "Z"}
	ge, err := s.AddGroupExpense(ctx, ok)
	require.NoError(t, err)
	assert.NotEmpty(t, ge.ID)

	balances, found := s.GroupBalances(g.ID)
	require.True(t, found)
	require.Len(t, balances, 3)
	assert.True(t, balances[0].Amount.Equal(d("60")))
	assert.True(t, balances[1].Amount.Equal(d("-30")))
	assert.True(t, balances[2].Amount.Equal(d("-30")))

	// New members start at zero and do not join earlier splits.
	_, err = s.AddMember(ctx, g.ID, "V")
	require.NoError(t, err)
	balances, _ = s.GroupBalances(g.ID)
	require.Len(t, balances, 4)
	assert.True(t, balances[3].Amount.IsZero())
	assert.True(t, balances[0].Amount.Equal(d("60")))

	ge.Amount = d("30")
	ge.GroupID = "elsewhere"
	found, err = s.UpdateGroupExpense(ctx, ge.ID, ge)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, g.ID, s.GroupExpenses()[0].GroupID)
	balances, _ = s.GroupBalances(g.ID)
	assert.True(t, balances[0].Amount.Equal(d("20")))

	_, found = s.GroupBalances("missing")
	assert.False(t, found)

	require.True(t, s.DeleteGroup(ctx, g.ID))
	assert.Len(t, s.GroupExpenses(), 1)
}

func TestSnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	s, _ := loggedIn(t, "u1")
	g, _ := s.AddGroup(ctx, core.Group{Name: "Flat", Members: []string{"A", "B"}})
	_, _ = s.AddIncome(ctx, core.IncomeEntry{SourceName: "Salary", Amount: d("10"), Date: day(1)})

	snap := s.Snapshot()
	snap.Groups[0].Members[0] = "mutated"
	snap.Income[0].SourceName = "mutated"

	assert.Equal(t, "A", s.Groups()[0].Members[0])
	assert.Equal(t, "Salary", s.Income()[0].SourceName)
	assert.Equal(t, g.ID, s.Groups()[0].ID)
	assert.Equal(t, "u1", snap.UserID)
}

func TestIncomeSavingsInvestments(t *testing.T) {
	ctx := context.Background()
	s, _ := loggedIn(t, "u1")

	inc, err := s.AddIncome(ctx, core.IncomeEntry{SourceName: " Salary ", Amount: d("1000"), Date: day(1)})
	require.NoError(t, err)
	assert.Equal(t, "Salary", inc.SourceName)
	_, err = s.UpdateIncome(ctx, inc.ID, core.IncomeEntry{SourceName: "Salary", Amount: d("1100"), Date: day(1)})
	require.NoError(t, err)
	assert.True(t, s.Income()[0].Amount.Equal(d("1100")))
	assert.Equal(t, inc.ID, s.Income()[0].ID)

	sv, err := s.AddSavings(ctx, core.SavingsEntry{Amount: d("50"), Date: day(2), Note: "rainy day"})
	require.NoError(t, err)
	_, err = s.UpdateSavings(ctx, sv.ID, core.SavingsEntry{Amount: d("-1"), Date: day(2)})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.True(t, s.Savings()[0].Amount.Equal(d("50")))

	_, err = s.AddInvestment(ctx, core.Investment{Name: "Gold", Type: "Gold", Amount: d("1")})
	assert.ErrorIs(t, err, core.ErrInvalidType)
	inv, err := s.AddInvestment(ctx, core.Investment{Name: "Index", Type: core.MutualFund, Amount: d("1000")})
	require.NoError(t, err)
	found, err := s.UpdateInvestment(ctx, inv.ID, core.Investment{Name: "Index", Type: core.Stocks, Amount: d("1200")})
	require.NoError(t, err)
	assert.True(t, found)

	dash := s.Dashboard()
	assert.True(t, dash.Summary.TotalIncome.Equal(d("1100")))
	assert.True(t, dash.Summary.TotalSavings.Equal(d("50")))
	assert.True(t, dash.Portfolio.CurrentValue.Equal(d("1380")))
	require.Len(t, dash.Recent, 1)

	assert.True(t, s.DeleteIncome(ctx, inc.ID))
	assert.True(t, s.DeleteSavings(ctx, sv.ID))
	assert.True(t, s.DeleteInvestment(ctx, inv.ID))
	assert.Empty(t, s.Income())
	assert.Empty(t, s.Savings())
	assert.Empty(t, s.Investments())
}

func TestPersistsOnlyTouchedCollections(t *testing.T) {
	ctx := context.Background()
	s, backend := loggedIn(t, "u1")
	_, _ = s.AddBudgetCategory(ctx, core.BudgetCategory{Name: "Food", BudgetLimit: d("10")})

	backend.reset()
	_, err := s.RecordExpense(ctx, core.Expense{Category: "Travel", Amount: d("1"), Date: day(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, backend.putCount())

	backend.reset()
	_, err = s.RecordExpense(ctx, core.Expense{Category: "Food", Amount: d("1"), Date: day(1)})
	require.NoError(t, err)
	assert.Equal(t, 2, backend.putCount())
}

func TestNoIdentitySkipsPersistence(t *testing.T) {
	ctx := context.Background()
	backend := newRecordingBackend()
	s := newTestStore(t, backend)

	_, err := s.AddBudgetCategory(ctx, core.BudgetCategory{Name: "Food", BudgetLimit: d("10")})
	require.NoError(t, err)
	_, err = s.RecordExpense(ctx, core.Expense{Category: "Food", Amount: d("3"), Date: day(1)})
	require.NoError(t, err)

	assert.Zero(t, backend.putCount())
	assert.Empty(t, backend.Keys())
	assert.True(t, s.SpentByCategory()["Food"].Equal(d("3")))
}

func TestPersistFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	s, backend := loggedIn(t, "u1")
	backend.failPut = errors.New("disk full")

	e, err := s.RecordExpense(ctx, core.Expense{Amount: d("3"), Date: day(1)})
	require.NoError(t, err)
	assert.Equal(t, []core.Expense{e}, s.Expenses())
}

func TestIdentityTransitions(t *testing.T) {
	ctx := context.Background()
	backend := newRecordingBackend()
	s := newTestStore(t, backend)
	src := session.NewMemorySource()
	monitor := identity.NewMonitor(src, s, log.Discard())

	src.SetUser("alice", "Alice", session.RoleUser)
	_, changed := monitor.Check(ctx)
	require.True(t, changed)
	require.Equal(t, "alice", s.UserID())

	_, _ = s.AddBudgetCategory(ctx, core.BudgetCategory{Name: "Food", BudgetLimit: d("200")})
	_, _ = s.RecordExpense(ctx, core.Expense{Category: "Food", Amount: d("50"), Date: day(1)})
	g, _ := s.AddGroup(ctx, core.Group{Name: "Trip", Members: []string{"A", "B"}})
	_, _ = s.AddGroupExpense(ctx, core.GroupExpense{GroupID: g.ID, Description: "Taxi", Amount: d("20"), Date: day(2), PaidBy: "A", SplitBetween: []string{"A", "B"}})
	before := s.Snapshot()

	t.Run("idempotent check", func(t *testing.T) {
		backend.reset()
		for i := 0; i < 5; i++ {
			_, changed := monitor.Check(ctx)
			assert.False(t, changed)
		}
		assert.Zero(t, backend.putCount())
		assert.Empty(t, backend.touched)
		assert.Equal(t, before, s.Snapshot())
	})

	t.Run("logout empties memory keeps storage", func(t *testing.T) {
		keys := len(backend.Keys())
		src.Clear()
		tr, changed := monitor.Check(ctx)
		require.True(t, changed)
		assert.Equal(t, identity.Logout, tr.Kind)
		assert.Equal(t, Snapshot{}, s.Snapshot())
		assert.Len(t, backend.Keys(), keys)
	})

	t.Run("login restores snapshot", func(t *testing.T) {
		src.SetUser("alice", "Alice", session.RoleUser)
		_, changed := monitor.Check(ctx)
		require.True(t, changed)
		assert.Equal(t, before, s.Snapshot())
	})

	t.Run("switch isolates users", func(t *testing.T) {
		backend.reset()
		src.SetUser("bob", "Bob", session.RoleUser)
		tr, changed := monitor.Check(ctx)
		require.True(t, changed)
		assert.Equal(t, identity.Switch, tr.Kind)
		assert.Empty(t, s.Budgets())
		assert.Empty(t, s.Expenses())

		_, err := s.AddBudgetCategory(ctx, core.BudgetCategory{Name: "Books", BudgetLimit: d("30")})
		require.NoError(t, err)

		for _, key := range backend.touched {
			assert.Equal(t, "bob", key.UserID, "bob's session touched %s", key)
		}

		src.SetUser("alice", "Alice", session.RoleUser)
		_, _ = monitor.Check(ctx)
		assert.Equal(t, before, s.Snapshot())
	})
}

func TestReloginSeesWritesFromAnotherProcess(t *testing.T) {
	ctx := context.Background()
	shared := storage.NewMemoryBackend()
	a := newTestStore(t, storage.NewCachedBackend(shared, 64, time.Minute))
	b := newTestStore(t, storage.NewCachedBackend(shared, 64, time.Minute))

	a.Apply(ctx, identity.Transition{Kind: identity.Login, To: "u1"})
	b.Apply(ctx, identity.Transition{Kind: identity.Login, To: "u1"})
	require.Empty(t, a.Expenses())

	_, err := b.RecordExpense(ctx, core.Expense{Category: "Food", Amount: d("12"), Date: day(1)})
	require.NoError(t, err)

	a.Apply(ctx, identity.Transition{Kind: identity.Logout, From: "u1"})
	a.Apply(ctx, identity.Transition{Kind: identity.Login, To: "u1"})
	require.Len(t, a.Expenses(), 1)
	assert.True(t, a.Expenses()[0].Amount.Equal(d("12")))

	// The next write from a keeps b's expense.
	_, err = a.RecordExpense(ctx, core.Expense{Category: "Rent", Amount: d("5"), Date: day(2)})
	require.NoError(t, err)
	b.Apply(ctx, identity.Transition{Kind: identity.Logout, From: "u1"})
	b.Apply(ctx, identity.Transition{Kind: identity.Login, To: "u1"})
	assert.Len(t, b.Expenses(), 2)
}

func TestIsolationWithUnderscoreIDs(t *testing.T) {
	ctx := context.Background()
	backend := newRecordingBackend()
	s := newTestStore(t, backend)

	s.Load(ctx, "1")
	_, _ = s.AddIncome(ctx, core.IncomeEntry{SourceName: "one", Amount: d("1"), Date: day(1)})
	s.Load(ctx, "1_income")
	assert.Empty(t, s.Income())
	_, _ = s.AddIncome(ctx, core.IncomeEntry{SourceName: "other", Amount: d("2"), Date: day(1)})

	s.Load(ctx, "1")
	require.Len(t, s.Income(), 1)
	assert.Equal(t, "one", s.Income()[0].SourceName)
}

func TestCorruptSnapshotLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	backend := newRecordingBackend()
	scoped := storage.NewScoped(backend, storage.DefaultNamespace, log.Discard())
	require.NoError(t, backend.Put(ctx, scoped.Key("u1", storage.CollectionExpenses), []byte("{not json")))
	require.NoError(t, scoped.Save(ctx, "u1", storage.CollectionGoals, []core.Goal{{ID: "g", Name: "Car", TargetAmount: d("5")}}))

	s := New(scoped, WithLogger(log.Discard()))
	s.Load(ctx, "u1")

	assert.Empty(t, s.Expenses())
	require.Len(t, s.Goals(), 1)
	assert.Equal(t, "Car", s.Goals()[0].Name)
}
