package ledger

import (
	"context"
	"slices"
	"strings"

	"fintracker/internal/aggregate"
	"fintracker/internal/core"
	"fintracker/internal/storage"
)

func groupID(g core.Group) string               { return g.ID }
func groupExpenseID(e core.GroupExpense) string { return e.ID }

func trimAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, strings.TrimSpace(n))
	}
	return out
}

func (s *Store) Groups() []core.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneGroups(s.groups)
}

func (s *Store) AddGroup(ctx context.Context, g core.Group) (core.Group, error) {
	g.Name = strings.TrimSpace(g.Name)
	g.Members = trimAll(g.Members)
	if err := g.Validate(); err != nil {
		return core.Group{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g.ID = s.id(g.ID)
	s.groups = append(s.groups, g)
	s.persist(ctx, storage.CollectionGroups)
	return cloneGroup(g), nil
}

// RenameGroup changes the group's name. Members are append-only, see AddMember.
func (s *Store) RenameGroup(ctx context.Context, id, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, core.Invalid("name", core.ErrEmptyName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.groups, id, groupID)
	if i < 0 {
		return false, nil
	}
	s.groups[i].Name = name
	s.persist(ctx, storage.CollectionGroups)
	return true, nil
}

// DeleteGroup removes the group. Its expenses are kept but no longer
// contribute to any balance.
func (s *Store) DeleteGroup(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.groups, id, groupID)
	if i < 0 {
		return false
	}
	s.groups = slices.Delete(s.groups, i, i+1)
	s.persist(ctx, storage.CollectionGroups)
	return true
}

// AddMember appends member to the group with id.
func (s *Store) AddMember(ctx context.Context, id, member string) (bool, error) {
	member = strings.TrimSpace(member)
	if member == "" {
		return false, core.Invalid("member", core.ErrEmptyName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.groups, id, groupID)
	if i < 0 {
		return false, nil
	}
	if s.groups[i].HasMember(member) {
		return true, core.Invalid("member", core.ErrDuplicateMember)
	}
	s.groups[i].Members = append(slices.Clip(s.groups[i].Members), member)
	s.persist(ctx, storage.CollectionGroups)
	return true, nil
}

func (s *Store) GroupExpenses() []core.GroupExpense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneGroupExpenses(s.groupExpenses)
}

// AddGroupExpense records e against its group after checking the payer and
// the split against the group's current members. An unknown group is a no-op
// and returns the zero expense.
func (s *Store) AddGroupExpense(ctx context.Context, e core.GroupExpense) (core.GroupExpense, error) {
	e.Description = strings.TrimSpace(e.Description)
	e.PaidBy = strings.TrimSpace(e.PaidBy)
	e.SplitBetween = trimAll(e.SplitBetween)
	if err := e.Validate(); err != nil {
		return core.GroupExpense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	gi := indexOf(s.groups, e.GroupID, groupID)
	if gi < 0 {
		return core.GroupExpense{}, nil
	}
	if err := e.ValidateAgainst(s.groups[gi]); err != nil {
		return core.GroupExpense{}, err
	}

	e.ID = s.id(e.ID)
	s.groupExpenses = append(s.groupExpenses, e)
	s.persist(ctx, storage.CollectionGroupExpenses)
	return cloneGroupExpense(e), nil
}

// UpdateGroupExpense replaces the expense with id. The group it belongs to
// cannot change.
func (s *Store) UpdateGroupExpense(ctx context.Context, id string, updated core.GroupExpense) (bool, error) {
	updated.Description = strings.TrimSpace(updated.Description)
	updated.PaidBy = strings.TrimSpace(updated.PaidBy)
	updated.SplitBetween = trimAll(updated.SplitBetween)
	if err := updated.Validate(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.groupExpenses, id, groupExpenseID)
	if i < 0 {
		return false, nil
	}
	updated.ID = s.groupExpenses[i].ID
	updated.GroupID = s.groupExpenses[i].GroupID
	if gi := indexOf(s.groups, updated.GroupID, groupID); gi >= 0 {
		if err := updated.ValidateAgainst(s.groups[gi]); err != nil {
			return false, err
		}
	}

	s.groupExpenses[i] = updated
	s.persist(ctx, storage.CollectionGroupExpenses)
	return true, nil
}

func (s *Store) DeleteGroupExpense(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.groupExpenses, id, groupExpenseID)
	if i < 0 {
		return false
	}
	s.groupExpenses = slices.Delete(s.groupExpenses, i, i+1)
	s.persist(ctx, storage.CollectionGroupExpenses)
	return true
}

// GroupBalances computes the members' balances for the group with id from
// its full expense history.
func (s *Store) GroupBalances(id string) ([]aggregate.Balance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.groups, id, groupID)
	if i < 0 {
		return nil, false
	}
	return aggregate.OrderedBalances(s.groups[i], s.groupExpenses), true
}
