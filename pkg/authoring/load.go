package authoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gambit/pkg/goap"
)

// SupportedLibraryVersion is the newest library format this build reads.
const SupportedLibraryVersion = 1

// Library is a compiled action/goal library ready for planning.
type Library struct {
	Def     LibraryDef
	Actions []goap.Action
	Goals   []*goap.Goal
}

// LoadLibrary reads, parses, and compiles a YAML library file.
func LoadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading library: %w", err)
	}
	return ParseLibrary(data)
}

// ParseLibrary parses and compiles YAML library bytes.
func ParseLibrary(data []byte) (*Library, error) {
	var def LibraryDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing library: %w", err)
	}
	if def.Version > SupportedLibraryVersion {
		return nil, fmt.Errorf("library version %d not supported (max %d)", def.Version, SupportedLibraryVersion)
	}
	actions, err := CompileActions(def.Actions)
	if err != nil {
		return nil, err
	}
	goals, err := CompileGoals(def.Goals)
	if err != nil {
		return nil, err
	}
	return &Library{Def: def, Actions: actions, Goals: goals}, nil
}

// CompileActions turns action definitions into planner actions, preserving
// declaration order since it is the planner's expansion order.
func CompileActions(defs []ActionDef) ([]goap.Action, error) {
	actions := make([]goap.Action, 0, len(defs))
	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("action with empty name")
		}
		base := goap.NewSimpleAction(d.Name, toState(d.Preconditions), toState(d.Effects), d.Cost)
		if d.When == "" {
			actions = append(actions, base)
			continue
		}
		ea, err := NewExprAction(base, d.When)
		if err != nil {
			return nil, err
		}
		actions = append(actions, ea)
	}
	return actions, nil
}

// CompileGoals turns goal definitions into planner goals, recursing into
// sub-goals.
func CompileGoals(defs []GoalDef) ([]*goap.Goal, error) {
	goals := make([]*goap.Goal, 0, len(defs))
	for _, d := range defs {
		g, err := compileGoal(d)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, nil
}

func compileGoal(d GoalDef) (*goap.Goal, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("goal with empty name")
	}
	g := goap.NewGoal(d.Name, toState(d.Desired))
	if d.Priority != 0 {
		g.WithPriority(d.Priority)
	}
	if d.Deadline != nil {
		g.WithDeadline(*d.Deadline)
	}
	if d.MaxDepth != 0 {
		g.WithMaxDepth(d.MaxDepth)
	}
	strategy, err := parseStrategy(d.Strategy)
	if err != nil {
		return nil, fmt.Errorf("goal %q: %w", d.Name, err)
	}
	g.WithStrategy(strategy)
	if len(d.SubGoals) > 0 {
		subs := make([]*goap.Goal, 0, len(d.SubGoals))
		for _, sd := range d.SubGoals {
			sub, err := compileGoal(sd)
			if err != nil {
				return nil, err
			}
			subs = append(subs, sub)
		}
		g.WithSubGoals(subs...)
	}
	return g, nil
}

func parseStrategy(s string) (goap.DecompositionStrategy, error) {
	switch s {
	case "", "sequential":
		return goap.Sequential, nil
	case "parallel":
		return goap.Parallel, nil
	case "any_of":
		return goap.AnyOf, nil
	case "all_of":
		return goap.AllOf, nil
	}
	return goap.Sequential, fmt.Errorf("unknown strategy %q", s)
}
