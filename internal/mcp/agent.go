package mcp

import (
	"fmt"
	"sync"

	"gambit/pkg/authoring"
	"gambit/pkg/goap"
)

// Agent is one independently planning entity: a private planner, scheduler,
// learning manager, and world. The core types are single-threaded by design,
// so the agent serializes access with its own mutex.
type Agent struct {
	Name string

	mu        sync.Mutex
	planner   *goap.Planner
	scheduler *goap.GoalScheduler
	learning  *goap.LearningManager
	world     *goap.WorldState
	now       float64
}

// NewAgent compiles a library into a fresh agent. All of the library's goals
// start active; history may be nil for a blank slate.
func NewAgent(name string, lib *authoring.Library, replanInterval float64, cfg goap.LearningConfig, history *goap.ActionHistory) *Agent {
	planner := goap.NewPlanner()
	for _, a := range lib.Actions {
		planner.AddAction(a)
	}
	if history != nil {
		planner.SetHistory(history)
	}
	learning := goap.NewLearningManager(cfg)
	planner.SetLearning(learning, cfg.Enabled)

	scheduler := goap.NewGoalScheduler(replanInterval)
	for _, g := range lib.Goals {
		scheduler.AddGoal(g)
	}

	return &Agent{
		Name:      name,
		planner:   planner,
		scheduler: scheduler,
		learning:  learning,
		world:     goap.NewWorldState(),
	}
}

// UpdateWorld merges facts into the agent's world, advances scheduler time,
// and runs one tick. Time must not move backward.
func (a *Agent) UpdateWorld(now float64, facts map[string]any) ([]string, string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if now < a.now {
		return nil, "", fmt.Errorf("time moved backward: %g after %g", now, a.now)
	}
	a.now = now
	for k, v := range facts {
		sv, err := goap.ValueOf(v)
		if err != nil {
			return nil, "", fmt.Errorf("fact %q: %w", k, err)
		}
		a.world.Set(k, sv)
	}
	plan, ok := a.scheduler.Update(now, a.world, a.planner)
	if !ok {
		return nil, "", nil
	}
	return plan, a.scheduler.CurrentGoal(), nil
}

// ReportOutcome records one action execution into history.
func (a *Agent) ReportOutcome(action string, success bool, duration float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if success {
		a.planner.History().RecordSuccess(action, duration)
	} else {
		a.planner.History().RecordFailure(action)
	}
}

// Stats returns the smoothed stats for every recorded action.
func (a *Agent) Stats() []goap.SmoothedStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	h := a.planner.History()
	var out []goap.SmoothedStats
	for _, name := range h.Names() {
		if s, ok := a.learning.GetSmoothedStats(name, h.Stats(name)); ok {
			out = append(out, s)
		}
	}
	return out
}

// AddGoal inserts a goal into the agent's scheduler.
func (a *Agent) AddGoal(g *goap.Goal) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scheduler.AddGoal(g)
}

// RemoveGoal drops a goal by name, reporting whether it existed.
func (a *Agent) RemoveGoal(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scheduler.RemoveGoal(name) != nil
}

// GoalNames lists active goals, priority-descending.
func (a *Agent) GoalNames() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	goals := a.scheduler.ActiveGoals()
	names := make([]string, len(goals))
	for i, g := range goals {
		names[i] = g.Name
	}
	return names
}

// History returns a snapshot of the agent's counters for persistence.
func (a *Agent) History() map[string]goap.ActionStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.planner.History().Snapshot()
}

// withHistory hands the live history to the persistence layer under the
// agent lock; callers must not retain it.
func (a *Agent) withHistory(f func(*goap.ActionHistory) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return f(a.planner.History())
}
