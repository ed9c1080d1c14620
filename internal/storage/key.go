package storage

import "strings"

// Collection names, also the last segment of every durable key.
const (
	CollectionBudgets       = "budgets"
	CollectionExpenses      = "expenses"
	CollectionGoals         = "goals"
	CollectionInvestments   = "investments"
	CollectionGroups        = "groups"
	CollectionGroupExpenses = "groupExpenses"
	CollectionIncome        = "income"
	CollectionSavings       = "savings"
)

// Collections lists every per-user collection.
var Collections = []string{
	CollectionBudgets,
	CollectionExpenses,
	CollectionGoals,
	CollectionInvestments,
	CollectionGroups,
	CollectionGroupExpenses,
	CollectionIncome,
	CollectionSavings,
}

// DefaultNamespace prefixes every durable key.
const DefaultNamespace = "fintracker"

// Key identifies one isolated bucket. Backends compare the fields, never
// the rendered string, since user ids may themselves contain '_'.
type Key struct {
	Namespace  string
	UserID     string
	Collection string
}

// String renders the key as <namespace>_<userId>_<collection>.
func (k Key) String() string {
	return k.Namespace + "_" + k.UserID + "_" + k.Collection
}

// Owner reports whether the key belongs to userID within namespace.
func (k Key) Owner(namespace, userID string) bool {
	return k.Namespace == namespace && k.UserID == userID
}

func (k Key) id() string {
	return strings.Join([]string{k.Namespace, k.UserID, k.Collection}, "\x00")
}
