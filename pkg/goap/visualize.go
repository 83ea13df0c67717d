package goap

import (
	"fmt"
	"strings"
)

// RenderGoalTree formats a goal hierarchy as an ASCII tree, one goal per
// line with its decomposition tag, priority, and deadline when set.
func RenderGoalTree(goal *Goal) string {
	var b strings.Builder
	writeGoalTree(&b, goal, 0, true)
	return b.String()
}

func writeGoalTree(b *strings.Builder, g *Goal, depth int, last bool) {
	if depth > 0 {
		b.WriteString(strings.Repeat("  ", depth-1))
		if last {
			b.WriteString("  └─ ")
		} else {
			b.WriteString("  ├─ ")
		}
	}
	fmt.Fprintf(b, "%s %s (priority: %.1f", strategyTag(g.Strategy), g.Name, g.Priority)
	if g.HasDeadline {
		fmt.Fprintf(b, ", deadline: %.0fs", g.Deadline)
	}
	b.WriteString(")\n")
	for i, sub := range g.SubGoals {
		writeGoalTree(b, sub, depth+1, i == len(g.SubGoals)-1)
	}
}

func strategyTag(s DecompositionStrategy) string {
	switch s {
	case Parallel:
		return "[PAR]"
	case AnyOf:
		return "[ANY]"
	case AllOf:
		return "[ALL]"
	}
	return "[SEQ]"
}

// RenderGoalDot renders a goal hierarchy in GraphViz DOT format, parent
// pointing at each sub-goal.
func RenderGoalDot(goal *Goal) string {
	var b strings.Builder
	b.WriteString("digraph GoalHierarchy {\n")
	b.WriteString("  rankdir=TB;\n")
	b.WriteString("  node [shape=box];\n")
	counter := 0
	writeGoalDot(&b, goal, &counter, -1)
	b.WriteString("}\n")
	return b.String()
}

func writeGoalDot(b *strings.Builder, g *Goal, counter *int, parent int) {
	id := *counter
	*counter = id + 1

	tag := strings.Trim(strategyTag(g.Strategy), "[]")
	fmt.Fprintf(b, "  node_%d [label=\"[%s] %s\\npriority: %.1f\"];\n", id, tag, g.Name, g.Priority)
	if parent >= 0 {
		fmt.Fprintf(b, "  node_%d -> node_%d;\n", parent, id)
	}
	for _, sub := range g.SubGoals {
		writeGoalDot(b, sub, counter, id)
	}
}

// RenderPlanDot renders a plan as a left-to-right GraphViz chain from start
// to end. Each known action is labeled with its cost and risk against the
// state as it evolves step by step; unknown names keep a bare label.
func RenderPlanDot(plan []string, actions []Action, history *ActionHistory, start *WorldState) string {
	var b strings.Builder
	b.WriteString("digraph Plan {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box];\n")
	b.WriteString("  start [label=\"Start\", shape=circle];\n")

	current := start.Clone()
	for i, name := range plan {
		label := name
		if action := findByName(actions, name); action != nil {
			cost := action.Cost(current, history)
			risk := 1.0 - action.SuccessProbability(current, history)
			label = fmt.Sprintf("%s\\ncost: %.1f\\nrisk: %.2f", name, cost, risk)
			current.ApplyEffects(action.Effects())
		}
		fmt.Fprintf(&b, "  action_%d [label=\"%s\"];\n", i, label)
		if i == 0 {
			b.WriteString("  start -> action_0;\n")
		} else {
			fmt.Fprintf(&b, "  action_%d -> action_%d;\n", i-1, i)
		}
	}

	if len(plan) > 0 {
		fmt.Fprintf(&b, "  action_%d -> end;\n", len(plan)-1)
	} else {
		b.WriteString("  start -> end;\n")
	}
	b.WriteString("  end [label=\"End\", shape=doublecircle];\n")
	b.WriteString("}\n")
	return b.String()
}
