package goap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func activeNames(s *GoalScheduler) []string {
	goals := s.ActiveGoals()
	names := make([]string, len(goals))
	for i, g := range goals {
		names[i] = g.Name
	}
	return names
}

func TestSchedulerPriorityOrdering(t *testing.T) {
	s := NewGoalScheduler(10.0)
	s.AddGoal(NewGoal("low", State{"a": Bool(true)}).WithPriority(2.0))
	s.AddGoal(NewGoal("high", State{"b": Bool(true)}).WithPriority(10.0))
	s.AddGoal(NewGoal("medium", State{"c": Bool(true)}).WithPriority(5.0))

	want := []string{"high", "medium", "low"}
	if diff := cmp.Diff(want, activeNames(s)); diff != "" {
		t.Errorf("ordering mismatch (-want +got):\n%s", diff)
	}
}

func TestSchedulerEqualPriorityStable(t *testing.T) {
	s := NewGoalScheduler(10.0)
	s.AddGoal(NewGoal("first", State{"a": Bool(true)}).WithPriority(5.0))
	s.AddGoal(NewGoal("second", State{"b": Bool(true)}).WithPriority(5.0))
	s.AddGoal(NewGoal("third", State{"c": Bool(true)}).WithPriority(5.0))

	want := []string{"first", "second", "third"}
	if diff := cmp.Diff(want, activeNames(s)); diff != "" {
		t.Errorf("equal-priority order mismatch (-want +got):\n%s", diff)
	}
}

func TestSchedulerRemoveGoal(t *testing.T) {
	s := NewGoalScheduler(10.0)
	s.AddGoal(NewGoal("keep", State{"a": Bool(true)}))
	s.AddGoal(NewGoal("drop", State{"b": Bool(true)}))

	if got := s.RemoveGoal("drop"); got == nil || got.Name != "drop" {
		t.Errorf("RemoveGoal returned %v", got)
	}
	if got := s.RemoveGoal("missing"); got != nil {
		t.Errorf("RemoveGoal(missing) = %v, want nil", got)
	}
	if s.GoalCount() != 1 {
		t.Errorf("GoalCount = %d, want 1", s.GoalCount())
	}
}

func TestSchedulerSatisfactionPruning(t *testing.T) {
	s := NewGoalScheduler(10.0)
	s.AddGoal(NewGoal("flag_goal", State{"flag": Bool(true)}))
	p := NewPlanner()

	world := NewWorldState()
	world.Set("flag", Bool(true))

	if _, ok := s.Update(0.0, world, p); ok {
		t.Error("satisfied goal should be pruned, not planned")
	}
	if s.GoalCount() != 0 {
		t.Errorf("GoalCount = %d after satisfaction pruning, want 0", s.GoalCount())
	}
}

func TestSchedulerDeadlinePruning(t *testing.T) {
	s := NewGoalScheduler(0.0)
	s.AddGoal(NewGoal("timed", State{"done": Bool(true)}).WithDeadline(5.0))

	p := NewPlanner()
	p.AddAction(NewSimpleAction("do_it", State{}, State{"done": Bool(true)}, 1.0))
	world := NewWorldState()

	if _, ok := s.Update(4.9, world, p); !ok {
		t.Fatal("goal should plan before its deadline")
	}

	s2 := NewGoalScheduler(0.0)
	s2.AddGoal(NewGoal("timed", State{"done": Bool(true)}).WithDeadline(5.0))
	if _, ok := s2.Update(5.0, world, p); ok {
		t.Error("goal at its deadline should be purged, not planned")
	}
	if s2.GoalCount() != 0 {
		t.Errorf("GoalCount = %d after deadline purge, want 0", s2.GoalCount())
	}
}

func TestSchedulerReplanRateLimiting(t *testing.T) {
	s := NewGoalScheduler(10.0)
	s.AddGoal(NewGoal("g", State{"done": Bool(true)}))
	world := NewWorldState()

	// Seed a cached plan at t=5.
	p := NewPlanner()
	p.AddAction(NewSimpleAction("do_it", State{}, State{"done": Bool(true)}, 1.0))
	if _, ok := s.Update(5.0, world, p); !ok {
		t.Fatal("initial plan failed")
	}

	if s.ShouldReplan(6.0, world) {
		t.Error("should not replan 1s into a 10s interval")
	}

	s.ForceReplan()
	if !s.ShouldReplan(6.0, world) {
		t.Error("ForceReplan should bypass the rate limit")
	}

	// The flag survives repeated queries and is consumed by the replan.
	if !s.ShouldReplan(6.0, world) {
		t.Error("forced flag consumed by a query")
	}
	if _, ok := s.Update(6.0, world, p); !ok {
		t.Fatal("forced replan failed")
	}
	if s.ShouldReplan(7.0, world) {
		t.Error("forced flag not cleared after replanning")
	}
}

func TestSchedulerForceReplanWithLiveGoal(t *testing.T) {
	// The current goal is unsatisfied and nothing preempts it; only the
	// forced flag can justify a replan inside the interval.
	s := NewGoalScheduler(10.0)
	s.AddGoal(NewGoal("g", State{"done": Bool(true)}).WithPriority(5.0))
	s.AddGoal(NewGoal("minor", State{"tidy": Bool(true)}).WithPriority(1.0))
	world := NewWorldState()

	p := NewPlanner()
	p.AddAction(NewSimpleAction("do_it", State{}, State{"done": Bool(true)}, 1.0))
	p.AddAction(NewSimpleAction("tidy_up", State{}, State{"tidy": Bool(true)}, 1.0))
	if _, ok := s.Update(5.0, world, p); !ok {
		t.Fatal("initial plan failed")
	}

	if s.ShouldReplan(6.0, world) {
		t.Fatal("unexpected replan without force")
	}
	s.ForceReplan()
	if !s.ShouldReplan(6.0, world) {
		t.Error("ForceReplan must override the live-goal and preemption checks")
	}
}

func TestSchedulerCachedPlanReturned(t *testing.T) {
	s := NewGoalScheduler(10.0)
	s.AddGoal(NewGoal("g", State{"done": Bool(true)}))
	world := NewWorldState()

	p := NewPlanner()
	p.AddAction(NewSimpleAction("do_it", State{}, State{"done": Bool(true)}, 1.0))

	first, ok := s.Update(0.0, world, p)
	if !ok {
		t.Fatal("initial plan failed")
	}
	second, ok := s.Update(1.0, world, p)
	if !ok {
		t.Fatal("cached plan missing")
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached plan differs (-first +second):\n%s", diff)
	}

	// Callers get copies, not the scheduler's own slice.
	second[0] = "tampered"
	again, _ := s.Update(2.0, world, p)
	if again[0] == "tampered" {
		t.Error("scheduler returned its internal plan slice")
	}
}

func TestSchedulerPreemption(t *testing.T) {
	s := NewGoalScheduler(1.0)
	s.AddGoal(NewGoal("routine", State{"routine_done": Bool(true)}).WithPriority(2.0))

	p := NewPlanner()
	p.AddAction(NewSimpleAction("do_routine", State{}, State{"routine_done": Bool(true)}, 1.0))
	p.AddAction(NewSimpleAction("do_critical", State{}, State{"critical_done": Bool(true)}, 1.0))
	world := NewWorldState()

	if _, ok := s.Update(0.0, world, p); !ok {
		t.Fatal("initial plan failed")
	}
	if s.CurrentGoal() != "routine" {
		t.Fatalf("current goal = %q", s.CurrentGoal())
	}

	// A goal only slightly more urgent does not preempt (ratio 1.5).
	s.AddGoal(NewGoal("slightly", State{"critical_done": Bool(true)}).WithPriority(2.5))
	if s.ShouldReplan(2.0, world) {
		t.Error("sub-threshold urgency should not preempt")
	}
	s.RemoveGoal("slightly")

	s.AddGoal(NewGoal("critical", State{"critical_done": Bool(true)}).WithPriority(10.0))
	if _, ok := s.Update(4.0, world, p); !ok {
		t.Fatal("preemption replan failed")
	}
	if s.CurrentGoal() != "critical" {
		t.Errorf("current goal = %q, want critical after preemption", s.CurrentGoal())
	}
}

func TestSchedulerDropsUnachievableGoal(t *testing.T) {
	s := NewGoalScheduler(0.0)
	s.AddGoal(NewGoal("achievable", State{"done": Bool(true)}).WithPriority(2.0))
	s.AddGoal(NewGoal("impossible", State{"never": Bool(true)}).WithPriority(10.0))

	p := NewPlanner()
	p.AddAction(NewSimpleAction("do_it", State{}, State{"done": Bool(true)}, 1.0))
	world := NewWorldState()

	// The impossible goal is most urgent, fails to plan, and is dropped;
	// the previously cached plan (none) is returned.
	if plan, ok := s.Update(0.0, world, p); ok {
		t.Errorf("first update returned plan %v, want none", plan)
	}
	if s.GoalCount() != 1 {
		t.Fatalf("GoalCount = %d, want 1 after dropping unachievable goal", s.GoalCount())
	}

	// The next update plans the remaining goal.
	plan, ok := s.Update(1.0, world, p)
	if !ok {
		t.Fatal("second update failed to plan remaining goal")
	}
	if diff := cmp.Diff([]string{"do_it"}, plan); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestSchedulerEmptySetClearsPlan(t *testing.T) {
	s := NewGoalScheduler(0.0)
	s.AddGoal(NewGoal("g", State{"done": Bool(true)}))

	p := NewPlanner()
	p.AddAction(NewSimpleAction("do_it", State{}, State{"done": Bool(true)}, 1.0))
	world := NewWorldState()

	if _, ok := s.Update(0.0, world, p); !ok {
		t.Fatal("initial plan failed")
	}

	// Satisfy the goal; the next update prunes it and clears the plan.
	world.Set("done", Bool(true))
	if _, ok := s.Update(1.0, world, p); ok {
		t.Error("update with empty goal set should return no plan")
	}
	if _, ok := s.CurrentPlan(); ok {
		t.Error("cached plan should be cleared with no goals")
	}
	if s.CurrentGoal() != "" {
		t.Errorf("current goal = %q, want empty", s.CurrentGoal())
	}
	if s.HasGoals() {
		t.Error("HasGoals should be false")
	}
}

func TestSchedulerClear(t *testing.T) {
	s := NewGoalScheduler(0.0)
	s.AddGoal(NewGoal("a", State{"a": Bool(true)}))
	s.AddGoal(NewGoal("b", State{"b": Bool(true)}))
	s.Clear()
	if s.GoalCount() != 0 || s.HasGoals() {
		t.Error("Clear left goals behind")
	}
	if _, ok := s.CurrentPlan(); ok {
		t.Error("Clear left a cached plan")
	}
}
