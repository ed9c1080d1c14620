package ledger

import (
	"context"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"fintracker/internal/core"
	"fintracker/internal/storage"
)

func goalID(g core.Goal) string { return g.ID }

// GoalPatch lists the goal fields an update may change.
type GoalPatch struct {
	Name          *string
	TargetAmount  *decimal.Decimal
	CurrentAmount *decimal.Decimal
	TargetDate    *core.Date
}

func (s *Store) Goals() []core.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.goals)
}

// ActiveGoals returns goals whose target has not been reached.
func (s *Store) ActiveGoals() []core.Goal {
	return s.filterGoals(core.Goal.Active)
}

// CompletedGoals returns goals whose target has been reached.
func (s *Store) CompletedGoals() []core.Goal {
	return s.filterGoals(core.Goal.Completed)
}

func (s *Store) filterGoals(keep func(core.Goal) bool) []core.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Goal
	for _, g := range s.goals {
		if keep(g) {
			out = append(out, g)
		}
	}
	return out
}

func (s *Store) AddGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.Name = strings.TrimSpace(g.Name)
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g.ID = s.id(g.ID)
	s.goals = append(s.goals, g)
	s.persist(ctx, storage.CollectionGoals)
	return g, nil
}

func (s *Store) UpdateGoal(ctx context.Context, id string, patch GoalPatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.goals, id, goalID)
	if i < 0 {
		return false, nil
	}
	updated := s.goals[i]
	if patch.Name != nil {
		updated.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.TargetAmount != nil {
		updated.TargetAmount = *patch.TargetAmount
	}
	if patch.CurrentAmount != nil {
		updated.CurrentAmount = *patch.CurrentAmount
	}
	if patch.TargetDate != nil {
		updated.TargetDate = *patch.TargetDate
	}
	if err := updated.Validate(); err != nil {
		return false, err
	}

	s.goals[i] = updated
	s.persist(ctx, storage.CollectionGoals)
	return true, nil
}

func (s *Store) DeleteGoal(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.goals, id, goalID)
	if i < 0 {
		return false
	}
	s.goals = slices.Delete(s.goals, i, i+1)
	s.persist(ctx, storage.CollectionGoals)
	return true
}

// AddToGoal contributes amount to the goal with id. Contributions larger
// than what remains are rejected, and the result never exceeds the target.
func (s *Store) AddToGoal(ctx context.Context, id string, amount decimal.Decimal) (core.Goal, bool, error) {
	if err := core.ValidateAmount("amount", amount); err != nil {
		return core.Goal{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.goals, id, goalID)
	if i < 0 {
		return core.Goal{}, false, nil
	}
	g := s.goals[i]
	if amount.GreaterThan(g.Remaining()) {
		return g, true, core.Invalid("amount", core.ErrExceedsTarget)
	}
	g.CurrentAmount = decimal.Min(g.CurrentAmount.Add(amount), g.TargetAmount)

	s.goals[i] = g
	s.persist(ctx, storage.CollectionGoals)
	return g, true, nil
}
