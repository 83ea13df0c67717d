package goap

import (
	"container/heap"
	"fmt"
	"sort"

	"gambit/internal/logging"
)

const (
	defaultMaxIterations = 10000
	defaultRiskWeight    = 5.0
	// minScaleProbability floors the learned probability when cost scaling
	// is enabled so one disastrous streak cannot blow cost to infinity.
	minScaleProbability = 0.05
)

// planNode is one A* search node: a reached state, the action names that
// reached it, and the accumulated cost/heuristic/risk.
type planNode struct {
	state *WorldState
	path  []string
	g     float64 // actual cost from start
	h     float64 // heuristic distance to goal
	risk  float64 // accumulated (1 - success probability)
	seq   int     // insertion order, the deterministic tie-break
}

func (n *planNode) f(riskWeight float64) float64 {
	return n.g + n.h + n.risk*riskWeight
}

// nodeQueue is a min-heap on f-cost with FIFO tie-breaking.
type nodeQueue struct {
	nodes      []*planNode
	riskWeight float64
}

func (q *nodeQueue) Len() int { return len(q.nodes) }

func (q *nodeQueue) Less(i, j int) bool {
	fi, fj := q.nodes[i].f(q.riskWeight), q.nodes[j].f(q.riskWeight)
	if fi != fj {
		return fi < fj
	}
	return q.nodes[i].seq < q.nodes[j].seq
}

func (q *nodeQueue) Swap(i, j int) { q.nodes[i], q.nodes[j] = q.nodes[j], q.nodes[i] }

func (q *nodeQueue) Push(x any) { q.nodes = append(q.nodes, x.(*planNode)) }

func (q *nodeQueue) Pop() any {
	old := q.nodes
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	q.nodes = old[:n-1]
	return item
}

// Planner searches an ordered action library for a minimum-cost action
// sequence transforming a world state into one satisfying a goal. Planning
// is a pure function of the planner's registered actions, its history, and
// the attached learning state; equal inputs produce equal plans.
type Planner struct {
	actions       []Action
	history       *ActionHistory
	learning      *LearningManager
	scaleCost     bool
	maxIterations int
	riskWeight    float64
}

// NewPlanner returns a planner with an empty action library and history.
func NewPlanner() *Planner {
	return &Planner{
		history:       NewActionHistory(),
		maxIterations: defaultMaxIterations,
		riskWeight:    defaultRiskWeight,
	}
}

// AddAction appends an action to the library. Registration order is the
// search expansion order, so it is part of the deterministic contract.
func (p *Planner) AddAction(a Action) {
	p.actions = append(p.actions, a)
}

// Actions returns the registered actions in registration order.
func (p *Planner) Actions() []Action { return p.actions }

// ActionCount returns the library size.
func (p *Planner) ActionCount() int { return len(p.actions) }

// ActionNames returns the registered names in registration order.
func (p *Planner) ActionNames() []string {
	names := make([]string, len(p.actions))
	for i, a := range p.actions {
		names[i] = a.Name()
	}
	return names
}

// History returns the planner's action history.
func (p *Planner) History() *ActionHistory { return p.history }

// SetHistory replaces the history, e.g. with one restored from persistence.
func (p *Planner) SetHistory(h *ActionHistory) {
	if h != nil {
		p.history = h
	}
}

// SetMaxIterations bounds the A* search; an exhausted bound is a planning
// failure, never a hang.
func (p *Planner) SetMaxIterations(n int) {
	if n > 0 {
		p.maxIterations = n
	}
}

// SetRiskWeight tunes how heavily accumulated risk penalizes a path.
func (p *Planner) SetRiskWeight(w float64) { p.riskWeight = w }

// SetLearning attaches a learning manager. When scaleCost is true, effective
// action cost becomes baseCost / smoothedProbability so historically
// unreliable actions are deprioritized against comparable alternatives.
func (p *Planner) SetLearning(m *LearningManager, scaleCost bool) {
	p.learning = m
	p.scaleCost = scaleCost
}

// Learning returns the attached manager, nil when learning is off.
func (p *Planner) Learning() *LearningManager { return p.learning }

// Plan finds an ordered action-name sequence achieving the goal from the
// given state. It returns (plan, true) on success — an already-satisfied
// goal yields an empty plan — and (nil, false) when no bounded search finds
// one. The input state is never mutated.
func (p *Planner) Plan(start *WorldState, goal *Goal) ([]string, bool) {
	probs := p.successProbabilities(start)
	return p.planHierarchical(start, goal, 0, probs)
}

// successProbabilities snapshots each action's success estimate once per
// Plan call. Estimates depend only on history, not on search states, so the
// snapshot keeps EWMA continuity deterministic across replays.
func (p *Planner) successProbabilities(start *WorldState) map[string]float64 {
	probs := make(map[string]float64, len(p.actions))
	for _, a := range p.actions {
		if p.learning != nil {
			probs[a.Name()] = p.learning.GetProbability(a.Name(), p.history.Stats(a.Name()))
		} else {
			probs[a.Name()] = a.SuccessProbability(start, p.history)
		}
	}
	return probs
}

func (p *Planner) planHierarchical(start *WorldState, goal *Goal, depth int, probs map[string]float64) ([]string, bool) {
	if satisfiedForPlanning(goal, start) {
		return []string{}, true
	}
	if goal.ShouldDecompose(depth) {
		if plan, ok := p.planDecomposed(start, goal, depth, probs); ok {
			return plan, true
		}
		// A pure container has no desired state of its own to fall back
		// on; a vacuous empty plan would not achieve its sub-goals.
		if len(goal.DesiredState) == 0 {
			return nil, false
		}
		logging.New("planner").Debug("decomposition failed, trying direct planning", "goal", goal.Name, "depth", depth)
	}
	return p.planDirect(start, goal, probs)
}

func (p *Planner) planDecomposed(start *WorldState, goal *Goal, depth int, probs map[string]float64) ([]string, bool) {
	subs := goal.Decompose()
	if subs == nil {
		return nil, false
	}
	switch goal.Strategy {
	case AnyOf:
		return p.planAnyOf(start, subs, depth+1, probs)
	case Parallel:
		return p.planIndependent(start, subs, depth+1, probs)
	case AllOf:
		byPriority(subs)
		return p.planSequential(start, subs, depth+1, probs)
	default:
		return p.planSequential(start, subs, depth+1, probs)
	}
}

// planSequential achieves sub-goals in order against an evolving state.
// Sub-goals already satisfied by the evolving state are skipped outright;
// any required sub-goal that fails to plan fails the whole sequence.
func (p *Planner) planSequential(start *WorldState, subs []*Goal, depth int, probs map[string]float64) ([]string, bool) {
	combined := []string{}
	current := start.Clone()
	for _, sub := range subs {
		if satisfiedForPlanning(sub, current) {
			continue
		}
		plan, ok := p.planHierarchical(current, sub, depth, probs)
		if !ok {
			return nil, false
		}
		for _, name := range plan {
			if a := p.findAction(name); a != nil {
				current.ApplyEffects(a.Effects())
			}
		}
		combined = append(combined, plan...)
	}
	return combined, true
}

// planIndependent plans every sub-goal against the original state, highest
// priority first, and concatenates whatever succeeds. Only a total failure
// of all sub-goals fails the decomposition.
func (p *Planner) planIndependent(start *WorldState, subs []*Goal, depth int, probs map[string]float64) ([]string, bool) {
	byPriority(subs)
	combined := []string{}
	succeeded := 0
	for _, sub := range subs {
		plan, ok := p.planHierarchical(start, sub, depth, probs)
		if !ok {
			logging.New("planner").Debug("parallel sub-goal omitted", "goal", sub.Name)
			continue
		}
		succeeded++
		combined = append(combined, plan...)
	}
	if succeeded == 0 {
		return nil, false
	}
	return combined, true
}

// planAnyOf tries sub-goals in priority order; the first plan wins.
func (p *Planner) planAnyOf(start *WorldState, subs []*Goal, depth int, probs map[string]float64) ([]string, bool) {
	byPriority(subs)
	for _, sub := range subs {
		if plan, ok := p.planHierarchical(start, sub, depth, probs); ok {
			return plan, true
		}
	}
	return nil, false
}

// planDirect is the bounded A* search over the action library.
func (p *Planner) planDirect(start *WorldState, goal *Goal, probs map[string]float64) ([]string, bool) {
	open := &nodeQueue{riskWeight: p.riskWeight}
	heap.Init(open)
	closed := make(map[string]bool)
	seq := 0

	heap.Push(open, &planNode{
		state: start.Clone(),
		path:  []string{},
		h:     start.DistanceTo(goal.DesiredState),
	})

	iterations := 0
	for open.Len() > 0 {
		iterations++
		if iterations > p.maxIterations {
			logging.New("planner").Warn("max iterations reached", "goal", goal.Name, "max", p.maxIterations)
			return nil, false
		}

		current := heap.Pop(open).(*planNode)

		if goal.IsSatisfied(current.state) {
			logging.New("planner").Debug("plan found",
				"goal", goal.Name, "steps", len(current.path), "cost", current.g, "risk", current.risk)
			return current.path, true
		}

		sig := current.state.Signature()
		if closed[sig] {
			continue
		}
		closed[sig] = true

		for _, action := range p.actions {
			if !action.CanExecute(current.state) {
				continue
			}
			next := current.state.Applied(action.Effects())
			prob := probs[action.Name()]
			cost := p.effectiveCost(action, current.state, prob)

			path := make([]string, len(current.path)+1)
			copy(path, current.path)
			path[len(current.path)] = action.Name()

			seq++
			heap.Push(open, &planNode{
				state: next,
				path:  path,
				g:     current.g + cost,
				h:     next.DistanceTo(goal.DesiredState),
				risk:  current.risk + (1.0 - prob),
				seq:   seq,
			})
		}
	}

	logging.New("planner").Debug("no plan found", "goal", goal.Name, "iterations", iterations)
	return nil, false
}

func (p *Planner) effectiveCost(action Action, state *WorldState, prob float64) float64 {
	if p.scaleCost && p.learning != nil {
		if prob < minScaleProbability {
			prob = minScaleProbability
		}
		c := action.BaseCost() / prob
		if c < minActionCost {
			c = minActionCost
		}
		return c
	}
	return action.Cost(state, p.history)
}

func (p *Planner) findAction(name string) Action {
	for _, a := range p.actions {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

// satisfiedForPlanning reports whether a goal needs no further planning. A
// container goal's empty desired state is trivially satisfied, so goals with
// sub-goals additionally require the sub-goals to hold; otherwise pure
// containers would never decompose.
func satisfiedForPlanning(goal *Goal, w *WorldState) bool {
	if !goal.IsSatisfied(w) {
		return false
	}
	return len(goal.SubGoals) == 0 || goal.SubGoalsSatisfy(w)
}

// byPriority sorts goals priority-descending, preserving list order on ties.
func byPriority(goals []*Goal) {
	sort.SliceStable(goals, func(i, j int) bool {
		return goals[i].Priority > goals[j].Priority
	})
}

// GoalPlan pairs a goal name with the plan produced for it.
type GoalPlan struct {
	GoalName string
	Plan     []string
}

// PlanForGoals plans for several goals in urgency order, evolving the state
// with each successful plan's effects. Goals that fail to plan are logged
// and omitted.
func (p *Planner) PlanForGoals(start *WorldState, goals []*Goal, now float64) []GoalPlan {
	sorted := make([]*Goal, len(goals))
	copy(sorted, goals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Urgency(now) > sorted[j].Urgency(now)
	})

	var plans []GoalPlan
	current := start.Clone()
	for _, goal := range sorted {
		plan, ok := p.Plan(current, goal)
		if !ok {
			logging.New("planner").Warn("no plan for goal", "goal", goal.Name)
			continue
		}
		for _, name := range plan {
			if a := p.findAction(name); a != nil {
				current.ApplyEffects(a.Effects())
			}
		}
		plans = append(plans, GoalPlan{GoalName: goal.Name, Plan: plan})
	}
	return plans
}

// SimulatePlanExecution walks a plan against a mutable world, recording
// outcomes into history. Steps whose success estimate is at most 0.5 are
// simulated as failures. Intended for testing and tooling; real execution
// happens in the surrounding engine.
func (p *Planner) SimulatePlanExecution(plan []string, world *WorldState) error {
	for _, name := range plan {
		action := p.findAction(name)
		if action == nil {
			return fmt.Errorf("action not found: %s", name)
		}
		if !action.CanExecute(world) {
			p.history.RecordFailure(name)
			return fmt.Errorf("action %q preconditions not met", name)
		}
		if action.SuccessProbability(world, p.history) > 0.5 {
			world.ApplyEffects(action.Effects())
			p.history.RecordSuccess(name, 1.0)
		} else {
			p.history.RecordFailure(name)
			return fmt.Errorf("action %q simulated failure", name)
		}
	}
	return nil
}
