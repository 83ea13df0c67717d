// Package authoring loads declarative GOAP action and goal libraries from
// YAML, compiles them into planner types, validates them for common
// authoring mistakes, and can watch a library file for live reloads.
package authoring

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"gambit/pkg/goap"
)

// LibraryDef is the root of a YAML action/goal library.
type LibraryDef struct {
	Version int         `yaml:"version"`
	Actions []ActionDef `yaml:"actions"`
	Goals   []GoalDef   `yaml:"goals"`
}

// ActionDef declares one action. When is an optional expr-lang boolean
// expression evaluated against the world facts in addition to the
// declarative preconditions.
type ActionDef struct {
	Name          string              `yaml:"name"`
	Cost          float64             `yaml:"cost"`
	Preconditions map[string]ValueDef `yaml:"preconditions"`
	Effects       map[string]ValueDef `yaml:"effects"`
	When          string              `yaml:"when"`
}

// GoalDef declares one goal, optionally hierarchical.
type GoalDef struct {
	Name     string              `yaml:"name"`
	Priority float64             `yaml:"priority"`
	Deadline *float64            `yaml:"deadline"`
	Strategy string              `yaml:"strategy"`
	MaxDepth int                 `yaml:"max_depth"`
	Desired  map[string]ValueDef `yaml:"desired"`
	SubGoals []GoalDef           `yaml:"sub_goals"`
}

// ValueDef is a YAML fact value: a plain scalar (bool, int, float, string),
// an inclusive integer range `{min: a, max: b}`, or a float tolerance
// `{target: t, epsilon: e}`.
type ValueDef struct {
	value goap.StateValue
}

// Value returns the decoded planner value.
func (v ValueDef) Value() goap.StateValue { return v.value }

// rangeDef covers both mapping forms; yaml.v3 leaves absent fields nil.
type rangeDef struct {
	Min     *int64   `yaml:"min"`
	Max     *int64   `yaml:"max"`
	Target  *float64 `yaml:"target"`
	Epsilon *float64 `yaml:"epsilon"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *ValueDef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var raw any
		if err := node.Decode(&raw); err != nil {
			return err
		}
		sv, err := goap.ValueOf(raw)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		v.value = sv
		return nil
	case yaml.MappingNode:
		var r rangeDef
		if err := node.Decode(&r); err != nil {
			return err
		}
		switch {
		case r.Min != nil && r.Max != nil:
			if *r.Min > *r.Max {
				return fmt.Errorf("line %d: range min %d exceeds max %d", node.Line, *r.Min, *r.Max)
			}
			v.value = goap.IntRange(*r.Min, *r.Max)
			return nil
		case r.Target != nil && r.Epsilon != nil:
			if *r.Epsilon < 0 {
				return fmt.Errorf("line %d: negative epsilon %g", node.Line, *r.Epsilon)
			}
			v.value = goap.FloatApprox(*r.Target, *r.Epsilon)
			return nil
		}
		return fmt.Errorf("line %d: mapping value needs min/max or target/epsilon", node.Line)
	}
	return fmt.Errorf("line %d: unsupported value node", node.Line)
}

// toState converts a decoded value map into a planner partial state.
func toState(m map[string]ValueDef) goap.State {
	s := make(goap.State, len(m))
	for k, v := range m {
		s[k] = v.Value()
	}
	return s
}
