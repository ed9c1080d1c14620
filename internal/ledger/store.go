// Package ledger holds the active user's eight record collections.
//
// Every mutation runs under one mutex, updates any dependent aggregate in the
// same critical section and then writes the touched collections through the
// scoped storage. Persistence failures are logged and never fail the call:
// the in-memory state is authoritative for the running process.
package ledger

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"fintracker/internal/core"
	"fintracker/internal/identity"
	"fintracker/internal/log"
	"fintracker/internal/storage"
)

type Store struct {
	mu      sync.Mutex
	storage *storage.Scoped
	logger  *log.Logger
	newID   func() string

	userID        string
	budgets       []core.BudgetCategory
	expenses      []core.Expense
	goals         []core.Goal
	investments   []core.Investment
	groups        []core.Group
	groupExpenses []core.GroupExpense
	income        []core.IncomeEntry
	savings       []core.SavingsEntry
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger.WithComponent(log.ComponentLedger)
		}
	}
}

// WithIDGenerator replaces the uuid generator used for records without an id.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func New(scoped *storage.Scoped, opts ...Option) *Store {
	s := &Store{
		storage: scoped,
		logger:  log.Default(log.ComponentLedger),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UserID returns the identity the collections belong to, "" when none.
func (s *Store) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Apply reacts to an identity transition: login and switch load the new
// user's collections, logout empties memory and leaves storage alone.
func (s *Store) Apply(ctx context.Context, t identity.Transition) {
	switch t.Kind {
	case identity.Login, identity.Switch:
		s.Load(ctx, t.To)
	case identity.Logout:
		s.Reset()
	}
}

// Load replaces the in-memory collections with userID's stored snapshots,
// read past any in-process cache so writes by other processes are seen.
func (s *Store) Load(ctx context.Context, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clear()
	s.userID = userID
	if userID == "" {
		return
	}

	s.storage.Invalidate(userID)
	s.budgets = storage.Load(ctx, s.storage, userID, storage.CollectionBudgets, []core.BudgetCategory(nil))
	s.expenses = storage.Load(ctx, s.storage, userID, storage.CollectionExpenses, []core.Expense(nil))
	s.goals = storage.Load(ctx, s.storage, userID, storage.CollectionGoals, []core.Goal(nil))
	s.investments = storage.Load(ctx, s.storage, userID, storage.CollectionInvestments, []core.Investment(nil))
	s.groups = storage.Load(ctx, s.storage, userID, storage.CollectionGroups, []core.Group(nil))
	s.groupExpenses = storage.Load(ctx, s.storage, userID, storage.CollectionGroupExpenses, []core.GroupExpense(nil))
	s.income = storage.Load(ctx, s.storage, userID, storage.CollectionIncome, []core.IncomeEntry(nil))
	s.savings = storage.Load(ctx, s.storage, userID, storage.CollectionSavings, []core.SavingsEntry(nil))

	s.logger.InfoContext(ctx, "Collections loaded",
		log.FieldUserID, userID,
		"budgets", len(s.budgets),
		"expenses", len(s.expenses),
		"goals", len(s.goals),
		"groups", len(s.groups))
}

// Reset drops the identity and every in-memory record.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	s.userID = ""
}

func (s *Store) clear() {
	s.budgets = nil
	s.expenses = nil
	s.goals = nil
	s.investments = nil
	s.groups = nil
	s.groupExpenses = nil
	s.income = nil
	s.savings = nil
}

// persist writes the named collections for the active user. Callers hold mu.
func (s *Store) persist(ctx context.Context, collections ...string) {
	if s.userID == "" {
		return
	}
	for _, c := range collections {
		if err := s.storage.Save(ctx, s.userID, c, s.collection(c)); err != nil {
			s.logger.Fields(ctx, log.LevelError, "Failed to persist collection",
				log.NewFields().
					WithComponent(log.ComponentLedger).
					WithOperation(log.OpSave).
					WithBucket(s.userID, c).
					WithError(err))
		}
	}
}

func (s *Store) collection(name string) any {
	switch name {
	case storage.CollectionBudgets:
		return nonNil(s.budgets)
	case storage.CollectionExpenses:
		return nonNil(s.expenses)
	case storage.CollectionGoals:
		return nonNil(s.goals)
	case storage.CollectionInvestments:
		return nonNil(s.investments)
	case storage.CollectionGroups:
		return nonNil(s.groups)
	case storage.CollectionGroupExpenses:
		return nonNil(s.groupExpenses)
	case storage.CollectionIncome:
		return nonNil(s.income)
	case storage.CollectionSavings:
		return nonNil(s.savings)
	}
	return nil
}

func (s *Store) id(current string) string {
	if current != "" {
		return current
	}
	return s.newID()
}

// nonNil makes empty collections serialize as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func indexOf[T any](items []T, id string, idOf func(T) string) int {
	return slices.IndexFunc(items, func(item T) bool { return idOf(item) == id })
}

// Snapshot is a deep copy of every collection.
type Snapshot struct {
	UserID        string
	Budgets       []core.BudgetCategory
	Expenses      []core.Expense
	Goals         []core.Goal
	Investments   []core.Investment
	Groups        []core.Group
	GroupExpenses []core.GroupExpense
	Income        []core.IncomeEntry
	Savings       []core.SavingsEntry
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		UserID:        s.userID,
		Budgets:       slices.Clone(s.budgets),
		Expenses:      slices.Clone(s.expenses),
		Goals:         slices.Clone(s.goals),
		Investments:   slices.Clone(s.investments),
		Groups:        cloneGroups(s.groups),
		GroupExpenses: cloneGroupExpenses(s.groupExpenses),
		Income:        slices.Clone(s.income),
		Savings:       slices.Clone(s.savings),
	}
}

func cloneGroup(g core.Group) core.Group {
	g.Members = slices.Clone(g.Members)
	return g
}

func cloneGroups(groups []core.Group) []core.Group {
	if groups == nil {
		return nil
	}
	out := make([]core.Group, len(groups))
	for i, g := range groups {
		out[i] = cloneGroup(g)
	}
	return out
}

func cloneGroupExpense(e core.GroupExpense) core.GroupExpense {
	e.SplitBetween = slices.Clone(e.SplitBetween)
	return e
}

func cloneGroupExpenses(expenses []core.GroupExpense) []core.GroupExpense {
	if expenses == nil {
		return nil
	}
	out := make([]core.GroupExpense, len(expenses))
	for i, e := range expenses {
		out[i] = cloneGroupExpense(e)
	}
	return out
}

var _ identity.Listener = (*Store)(nil)
