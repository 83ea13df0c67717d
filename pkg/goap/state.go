// Package goap implements goal-oriented action planning: a symbolic world
// state, preconditioned/effect-bearing actions, a deterministic A* planner
// with hierarchical goal decomposition, a priority/urgency goal scheduler,
// and an online learning layer that smooths action success estimates.
package goap

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// floatTolerance is the equality tolerance for Float-to-Float satisfaction.
const floatTolerance = 1e-6

// ValueKind discriminates the payload of a StateValue.
type ValueKind int

const (
	KindBool ValueKind = iota
	KindInt
	KindFloat
	KindIntRange
	KindFloatApprox
	KindString
)

func (k ValueKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindIntRange:
		return "int_range"
	case KindFloatApprox:
		return "float_approx"
	case KindString:
		return "string"
	}
	return "unknown"
}

// StateValue is a small discriminated fact value. Concrete kinds (Bool, Int,
// Float, String) appear in world state; range kinds (IntRange, FloatApprox)
// appear only in conditions (preconditions, desired state).
type StateValue struct {
	kind ValueKind
	b    bool
	i    int64
	f    float64
	lo   int64
	hi   int64
	eps  float64
	s    string
}

// Bool returns a boolean fact value.
func Bool(v bool) StateValue { return StateValue{kind: KindBool, b: v} }

// Int returns an integer fact value.
func Int(v int64) StateValue { return StateValue{kind: KindInt, i: v} }

// Float returns a floating-point fact value.
func Float(v float64) StateValue { return StateValue{kind: KindFloat, f: v} }

// IntRange returns an inclusive integer range condition.
func IntRange(lo, hi int64) StateValue { return StateValue{kind: KindIntRange, lo: lo, hi: hi} }

// FloatApprox returns a target-plus-or-minus-epsilon condition.
func FloatApprox(target, epsilon float64) StateValue {
	return StateValue{kind: KindFloatApprox, f: target, eps: epsilon}
}

// String returns a string fact value.
func String(v string) StateValue { return StateValue{kind: KindString, s: v} }

// Kind reports the value's discriminator.
func (v StateValue) Kind() ValueKind { return v.kind }

// BoolValue returns the boolean payload (zero value for other kinds).
func (v StateValue) BoolValue() bool { return v.b }

// IntValue returns the integer payload (zero value for other kinds).
func (v StateValue) IntValue() int64 { return v.i }

// FloatValue returns the float payload or the FloatApprox target.
func (v StateValue) FloatValue() float64 { return v.f }

// StringValue returns the string payload (empty for other kinds).
func (v StateValue) StringValue() string { return v.s }

// Bounds returns the IntRange bounds (zero values for other kinds).
func (v StateValue) Bounds() (lo, hi int64) { return v.lo, v.hi }

// Epsilon returns the FloatApprox tolerance (zero for other kinds).
func (v StateValue) Epsilon() float64 { return v.eps }

// Equal reports exact structural equality.
func (v StateValue) Equal(o StateValue) bool { return v == o }

// Satisfies reports whether the receiver, taken as a concrete world value,
// meets the given condition. Cross-kind comparisons never satisfy, with the
// exception of the range conditions which accept their scalar counterpart.
func (v StateValue) Satisfies(target StateValue) bool {
	switch target.kind {
	case KindBool:
		return v.kind == KindBool && v.b == target.b
	case KindInt:
		return v.kind == KindInt && v.i == target.i
	case KindFloat:
		return v.kind == KindFloat && math.Abs(v.f-target.f) <= floatTolerance
	case KindIntRange:
		return v.kind == KindInt && v.i >= target.lo && v.i <= target.hi
	case KindFloatApprox:
		return v.kind == KindFloat && math.Abs(v.f-target.f) <= target.eps
	case KindString:
		return v.kind == KindString && v.s == target.s
	}
	return false
}

// NumericDistance measures how far the receiver is from satisfying the
// target: 0 on satisfaction, absolute numeric difference for numeric pairs,
// distance to the nearest bound for ranges, and a unit penalty for
// non-numeric or mismatched kinds. Used by the planner's heuristic.
func (v StateValue) NumericDistance(target StateValue) float64 {
	switch {
	case v.kind == KindInt && target.kind == KindInt:
		return math.Abs(float64(v.i - target.i))
	case v.kind == KindInt && target.kind == KindIntRange:
		if v.i < target.lo {
			return float64(target.lo - v.i)
		}
		if v.i > target.hi {
			return float64(v.i - target.hi)
		}
		return 0
	case v.kind == KindFloat && target.kind == KindFloat:
		return math.Abs(v.f - target.f)
	case v.kind == KindFloat && target.kind == KindFloatApprox:
		d := math.Abs(v.f-target.f) - target.eps
		if d < 0 {
			return 0
		}
		return d
	case v.kind == KindBool && target.kind == KindBool:
		if v.b == target.b {
			return 0
		}
		return 1
	case v.kind == KindString && target.kind == KindString:
		if v.s == target.s {
			return 0
		}
		return 1
	}
	return 1
}

// String renders the value for signatures, logs, and the CLI.
func (v StateValue) String() string {
	switch v.kind {
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindIntRange:
		return fmt.Sprintf("[%d,%d]", v.lo, v.hi)
	case KindFloatApprox:
		return fmt.Sprintf("%g±%g", v.f, v.eps)
	case KindString:
		return v.s
	}
	return "?"
}

// AsAny converts the value to a plain Go value for expression environments.
// Range kinds expose their bounds as a two-element slice.
func (v StateValue) AsAny() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindIntRange:
		return []int64{v.lo, v.hi}
	case KindFloatApprox:
		return []float64{v.f, v.eps}
	case KindString:
		return v.s
	}
	return nil
}

// ValueOf coerces a plain Go value (as produced by JSON or YAML decoding)
// into a StateValue. Integral floats become Int so JSON-sourced facts can
// satisfy integer conditions.
func ValueOf(v any) (StateValue, error) {
	switch x := v.(type) {
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return Int(int64(x)), nil
		}
		return Float(x), nil
	case float32:
		return ValueOf(float64(x))
	case string:
		return String(x), nil
	case StateValue:
		return x, nil
	}
	return StateValue{}, fmt.Errorf("unsupported fact value type %T", v)
}

// State is a partial world state: a condition set or an effect set.
type State map[string]StateValue

// sortedKeys returns the keys of a partial state in lexicographic order so
// every iteration over conditions and effects is deterministic.
func sortedKeys(s State) []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WorldState is the symbolic fact store the planner searches over. Absence
// of a key means "unknown", distinct from an explicit false.
type WorldState struct {
	facts map[string]StateValue
}

// NewWorldState returns an empty world state.
func NewWorldState() *WorldState {
	return &WorldState{facts: make(map[string]StateValue)}
}

// Get returns the value for a fact and whether it is set.
func (w *WorldState) Get(key string) (StateValue, bool) {
	v, ok := w.facts[key]
	return v, ok
}

// Set records a fact, overwriting any previous value.
func (w *WorldState) Set(key string, v StateValue) {
	w.facts[key] = v
}

// Delete removes a fact, returning it to the "unknown" state.
func (w *WorldState) Delete(key string) {
	delete(w.facts, key)
}

// Len returns the number of known facts.
func (w *WorldState) Len() int { return len(w.facts) }

// Keys returns all fact names in lexicographic order.
func (w *WorldState) Keys() []string {
	keys := make([]string, 0, len(w.facts))
	for k := range w.facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy. Search never mutates a shared state.
func (w *WorldState) Clone() *WorldState {
	c := &WorldState{facts: make(map[string]StateValue, len(w.facts))}
	for k, v := range w.facts {
		c.facts[k] = v
	}
	return c
}

// Satisfies reports whether every condition holds against known facts.
// Missing keys never satisfy.
func (w *WorldState) Satisfies(conds State) bool {
	for k, target := range conds {
		have, ok := w.facts[k]
		if !ok || !have.Satisfies(target) {
			return false
		}
	}
	return true
}

// ApplyEffects overwrites facts with the effect set; unrelated facts persist.
func (w *WorldState) ApplyEffects(effects State) {
	for k, v := range effects {
		w.facts[k] = v
	}
}

// Applied returns a copy with the effect set applied, leaving the receiver
// untouched. This is the expansion step of the planner's search.
func (w *WorldState) Applied(effects State) *WorldState {
	c := w.Clone()
	c.ApplyEffects(effects)
	return c
}

// unmetPenalty is the flat heuristic charge per unsatisfied condition.
const unmetPenalty = 2.0

// DistanceTo is the planner's admissible-ish heuristic: a flat penalty per
// unmet condition plus the numeric distance to each, with a unit distance
// for entirely missing facts.
func (w *WorldState) DistanceTo(goal State) float64 {
	var d float64
	for k, target := range goal {
		have, ok := w.facts[k]
		if ok && have.Satisfies(target) {
			continue
		}
		d += unmetPenalty
		if ok {
			d += have.NumericDistance(target)
		} else {
			d += 1.0
		}
	}
	return d
}

// Signature returns a canonical string form of the state, used for
// visited-set deduplication. Keys are sorted so equal states always produce
// equal signatures.
func (w *WorldState) Signature() string {
	keys := w.Keys()
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(w.facts[k].String())
		b.WriteByte('|')
	}
	return b.String()
}

// Facts returns a plain-value view of the state for expression evaluation.
func (w *WorldState) Facts() map[string]any {
	out := make(map[string]any, len(w.facts))
	for k, v := range w.facts {
		out[k] = v.AsAny()
	}
	return out
}
