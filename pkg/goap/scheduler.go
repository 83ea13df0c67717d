package goap

import (
	"math"

	"gambit/internal/logging"
)

// defaultPreemptionRatio is how much another goal's urgency must exceed the
// current goal's before an executing plan is abandoned mid-flight.
const defaultPreemptionRatio = 1.5

// GoalScheduler owns an agent's active goals and the currently cached plan,
// deciding on every tick whether to keep executing or replan. Callers must
// invoke Update with non-decreasing time; the scheduler does not defend
// against time moving backward. Not safe for concurrent use.
type GoalScheduler struct {
	goals           []*Goal
	currentPlan     []string
	hasPlan         bool
	currentGoal     string
	lastReplanTime  float64
	replanInterval  float64
	preemptionRatio float64
	forced          bool
}

// NewGoalScheduler creates a scheduler that replans at most once per
// replanInterval seconds unless forced.
func NewGoalScheduler(replanInterval float64) *GoalScheduler {
	return &GoalScheduler{
		lastReplanTime:  math.Inf(-1),
		replanInterval:  replanInterval,
		preemptionRatio: defaultPreemptionRatio,
	}
}

// SetPreemptionRatio tunes how aggressively urgent goals preempt the current
// plan. Values at or below 1.0 make any more-urgent goal preempt immediately.
func (s *GoalScheduler) SetPreemptionRatio(r float64) { s.preemptionRatio = r }

// AddGoal inserts a goal keeping the active set sorted priority-descending.
// Equal-priority goals preserve insertion order.
func (s *GoalScheduler) AddGoal(goal *Goal) {
	pos := len(s.goals)
	for i, g := range s.goals {
		if g.Priority < goal.Priority {
			pos = i
			break
		}
	}
	s.goals = append(s.goals, nil)
	copy(s.goals[pos+1:], s.goals[pos:])
	s.goals[pos] = goal
}

// RemoveGoal removes the named goal, returning it or nil if absent.
func (s *GoalScheduler) RemoveGoal(name string) *Goal {
	for i, g := range s.goals {
		if g.Name == name {
			s.goals = append(s.goals[:i], s.goals[i+1:]...)
			return g
		}
	}
	return nil
}

// Clear drops every goal and the cached plan.
func (s *GoalScheduler) Clear() {
	s.goals = nil
	s.clearPlan()
}

// GoalCount returns the number of active goals.
func (s *GoalScheduler) GoalCount() int { return len(s.goals) }

// HasGoals reports whether any goal is active.
func (s *GoalScheduler) HasGoals() bool { return len(s.goals) > 0 }

// ActiveGoals returns the active goals, priority-descending.
func (s *GoalScheduler) ActiveGoals() []*Goal {
	out := make([]*Goal, len(s.goals))
	copy(out, s.goals)
	return out
}

// CurrentGoal returns the name of the goal the cached plan serves, empty
// when there is no plan.
func (s *GoalScheduler) CurrentGoal() string { return s.currentGoal }

// CurrentPlan returns a copy of the cached plan and whether one exists.
func (s *GoalScheduler) CurrentPlan() ([]string, bool) {
	if !s.hasPlan {
		return nil, false
	}
	return copyPlan(s.currentPlan), true
}

// ForceReplan makes the next ShouldReplan answer true unconditionally,
// bypassing the rate limit and the preemption policy. The flag is consumed
// by the next Update that replans.
func (s *GoalScheduler) ForceReplan() {
	s.forced = true
}

// ShouldReplan applies the replan policy in order: no plan, forced, rate
// limit, stale or satisfied current goal, urgency preemption.
func (s *GoalScheduler) ShouldReplan(now float64, world *WorldState) bool {
	if !s.hasPlan {
		return true
	}
	if s.forced {
		return true
	}
	if now-s.lastReplanTime < s.replanInterval {
		return false
	}
	current := s.findGoal(s.currentGoal)
	if current == nil || current.IsSatisfied(world) {
		return true
	}
	threshold := current.Urgency(now) * s.preemptionRatio
	for _, g := range s.goals {
		if g.Name != s.currentGoal && g.Urgency(now) > threshold {
			return true
		}
	}
	return false
}

// Update runs one scheduler tick: prune satisfied and expired goals, then
// either return the cached plan or replan for the most urgent goal. A goal
// that fails to plan is dropped as unachievable and the previously cached
// plan (possibly none) is returned.
func (s *GoalScheduler) Update(now float64, world *WorldState, planner *Planner) ([]string, bool) {
	s.pruneSatisfied(world)
	s.pruneExpired(now)

	if len(s.goals) == 0 {
		s.clearPlan()
		return nil, false
	}

	if !s.ShouldReplan(now, world) {
		return s.CurrentPlan()
	}

	s.lastReplanTime = now
	s.forced = false
	goal := s.mostUrgent(now)
	plan, ok := planner.Plan(world, goal)
	if !ok {
		logging.New("scheduler").Warn("goal unachievable, dropping", "goal", goal.Name, "time", now)
		s.RemoveGoal(goal.Name)
		return s.CurrentPlan()
	}

	s.currentPlan = plan
	s.hasPlan = true
	s.currentGoal = goal.Name
	logging.New("scheduler").Debug("replanned", "goal", goal.Name, "steps", len(plan), "time", now)
	return copyPlan(plan), true
}

func (s *GoalScheduler) pruneSatisfied(world *WorldState) {
	kept := s.goals[:0]
	for _, g := range s.goals {
		if g.IsSatisfied(world) {
			logging.New("scheduler").Debug("goal satisfied", "goal", g.Name)
			continue
		}
		kept = append(kept, g)
	}
	s.goals = kept
}

func (s *GoalScheduler) pruneExpired(now float64) {
	kept := s.goals[:0]
	for _, g := range s.goals {
		if g.HasDeadline && now >= g.Deadline {
			logging.New("scheduler").Debug("goal expired", "goal", g.Name, "deadline", g.Deadline)
			continue
		}
		kept = append(kept, g)
	}
	s.goals = kept
}

// mostUrgent returns the active goal with maximum urgency. The active list
// is priority-descending with stable insertion order, and only a strictly
// greater urgency displaces the running best, so ties resolve to the
// earlier-ordered goal deterministically.
func (s *GoalScheduler) mostUrgent(now float64) *Goal {
	best := s.goals[0]
	bestU := best.Urgency(now)
	for _, g := range s.goals[1:] {
		if u := g.Urgency(now); u > bestU {
			best, bestU = g, u
		}
	}
	return best
}

func (s *GoalScheduler) findGoal(name string) *Goal {
	for _, g := range s.goals {
		if g.Name == name {
			return g
		}
	}
	return nil
}

func (s *GoalScheduler) clearPlan() {
	s.currentPlan = nil
	s.hasPlan = false
	s.currentGoal = ""
}

func copyPlan(plan []string) []string {
	out := make([]string, len(plan))
	copy(out, plan)
	return out
}
