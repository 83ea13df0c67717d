package goap

import "sort"

// DecompositionStrategy governs how a goal's sub-goals combine into a plan.
type DecompositionStrategy int

const (
	// Sequential sub-goals are achieved in list order.
	Sequential DecompositionStrategy = iota
	// Parallel sub-goals are planned independently and merged best-effort.
	Parallel
	// AnyOf is satisfied by the first sub-goal that plans successfully.
	AnyOf
	// AllOf requires every sub-goal, in priority order.
	AllOf
)

func (s DecompositionStrategy) String() string {
	switch s {
	case Sequential:
		return "sequential"
	case Parallel:
		return "parallel"
	case AnyOf:
		return "any_of"
	case AllOf:
		return "all_of"
	}
	return "unknown"
}

// DefaultMaxDepth bounds recursive goal decomposition.
const DefaultMaxDepth = 5

// Goal is a named target state with priority, an optional deadline, and
// hierarchical decomposition. Goals are treated as immutable once handed to
// a scheduler.
type Goal struct {
	Name         string
	DesiredState State
	Priority     float64
	Deadline     float64
	HasDeadline  bool
	SubGoals     []*Goal
	Strategy     DecompositionStrategy
	MaxDepth     int
}

// NewGoal creates a goal with priority 1.0 and the default decomposition
// depth bound.
func NewGoal(name string, desired State) *Goal {
	if desired == nil {
		desired = State{}
	}
	return &Goal{
		Name:         name,
		DesiredState: desired,
		Priority:     1.0,
		Strategy:     Sequential,
		MaxDepth:     DefaultMaxDepth,
	}
}

// WithPriority sets the goal priority (higher = more important).
func (g *Goal) WithPriority(p float64) *Goal {
	g.Priority = p
	return g
}

// WithDeadline sets the absolute time by which the goal must be achieved.
func (g *Goal) WithDeadline(d float64) *Goal {
	g.Deadline = d
	g.HasDeadline = true
	return g
}

// WithSubGoals attaches ordered child goals.
func (g *Goal) WithSubGoals(subs ...*Goal) *Goal {
	g.SubGoals = subs
	return g
}

// WithStrategy sets the decomposition strategy.
func (g *Goal) WithStrategy(s DecompositionStrategy) *Goal {
	g.Strategy = s
	return g
}

// WithMaxDepth sets the recursion bound for hierarchical planning.
func (g *Goal) WithMaxDepth(d int) *Goal {
	g.MaxDepth = d
	return g
}

// IsSatisfied reports whether the world already meets the desired state.
// An empty desired state is trivially satisfied.
func (g *Goal) IsSatisfied(w *WorldState) bool {
	return w.Satisfies(g.DesiredState)
}

// Urgency combines priority with deadline pressure. Without a deadline it is
// the plain priority; with one it grows as the deadline approaches:
// priority * (1 + 10/(remaining+1)), roughly priority*11 at the deadline.
func (g *Goal) Urgency(now float64) float64 {
	if !g.HasDeadline {
		return g.Priority
	}
	remaining := g.Deadline - now
	if remaining < 0 {
		remaining = 0
	}
	return g.Priority * (1.0 + 10.0/(remaining+1.0))
}

// UnmetConditions returns the desired-state keys not yet satisfied, sorted.
func (g *Goal) UnmetConditions(w *WorldState) []string {
	var unmet []string
	for k, target := range g.DesiredState {
		have, ok := w.Get(k)
		if !ok || !have.Satisfies(target) {
			unmet = append(unmet, k)
		}
	}
	sort.Strings(unmet)
	return unmet
}

// Progress reports the satisfied fraction of the desired state, 1.0 for an
// empty desired state.
func (g *Goal) Progress(w *WorldState) float64 {
	if len(g.DesiredState) == 0 {
		return 1.0
	}
	met := 0
	for k, target := range g.DesiredState {
		if have, ok := w.Get(k); ok && have.Satisfies(target) {
			met++
		}
	}
	return float64(met) / float64(len(g.DesiredState))
}

// Achievable reports whether the estimated completion time fits before the
// deadline. Goals without deadlines are always achievable.
func (g *Goal) Achievable(now, estimatedCompletion float64) bool {
	if !g.HasDeadline {
		return true
	}
	return now+estimatedCompletion <= g.Deadline
}

// ShouldDecompose reports whether sub-goals exist and the depth bound still
// permits decomposition.
func (g *Goal) ShouldDecompose(depth int) bool {
	return len(g.SubGoals) > 0 && depth < g.MaxDepth
}

// Decompose returns clones of the sub-goals. Children left at the default
// priority inherit a slightly discounted parent priority so explicit child
// priorities are preserved.
func (g *Goal) Decompose() []*Goal {
	if len(g.SubGoals) == 0 {
		return nil
	}
	subs := make([]*Goal, len(g.SubGoals))
	for i, sub := range g.SubGoals {
		c := sub.Clone()
		if c.Priority == 1.0 && g.Priority != 1.0 {
			c.Priority = g.Priority * 0.9
		}
		subs[i] = c
	}
	return subs
}

// SubGoalsSatisfy reports whether the sub-goals collectively satisfy the
// parent under its strategy. A goal without sub-goals is never satisfied
// this way.
func (g *Goal) SubGoalsSatisfy(w *WorldState) bool {
	if len(g.SubGoals) == 0 {
		return false
	}
	switch g.Strategy {
	case AnyOf:
		for _, sub := range g.SubGoals {
			if sub.IsSatisfied(w) {
				return true
			}
		}
		return false
	default:
		for _, sub := range g.SubGoals {
			if !sub.IsSatisfied(w) {
				return false
			}
		}
		return true
	}
}

// Depth is the height of the goal hierarchy; a leaf has depth 1.
func (g *Goal) Depth() int {
	if len(g.SubGoals) == 0 {
		return 1
	}
	max := 0
	for _, sub := range g.SubGoals {
		if d := sub.Depth(); d > max {
			max = d
		}
	}
	return 1 + max
}

// TotalGoalCount counts this goal and all descendants.
func (g *Goal) TotalGoalCount() int {
	n := 1
	for _, sub := range g.SubGoals {
		n += sub.TotalGoalCount()
	}
	return n
}

// Flatten orders the hierarchy depth-first. Sequential/Parallel/AllOf place
// children before the parent; AnyOf places the parent first since children
// are alternatives.
func (g *Goal) Flatten() []*Goal {
	var out []*Goal
	if g.Strategy == AnyOf {
		out = append(out, g.withoutSubGoals())
		for _, sub := range g.SubGoals {
			out = append(out, sub.Flatten()...)
		}
		return out
	}
	for _, sub := range g.SubGoals {
		out = append(out, sub.Flatten()...)
	}
	return append(out, g.withoutSubGoals())
}

// Clone deep-copies the goal and its hierarchy.
func (g *Goal) Clone() *Goal {
	c := *g
	c.DesiredState = make(State, len(g.DesiredState))
	for k, v := range g.DesiredState {
		c.DesiredState[k] = v
	}
	if len(g.SubGoals) > 0 {
		c.SubGoals = make([]*Goal, len(g.SubGoals))
		for i, sub := range g.SubGoals {
			c.SubGoals[i] = sub.Clone()
		}
	}
	return &c
}

func (g *Goal) withoutSubGoals() *Goal {
	c := g.Clone()
	c.SubGoals = nil
	return c
}
