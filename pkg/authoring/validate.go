package authoring

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"

	"gambit/pkg/goap"
)

// Severity grades a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is one validation finding.
type Issue struct {
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Field      string   `json:"field,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

func errorf(field, format string, args ...any) Issue {
	return Issue{Severity: SeverityError, Field: field, Message: fmt.Sprintf(format, args...)}
}

func warnf(field, format string, args ...any) Issue {
	return Issue{Severity: SeverityWarning, Field: field, Message: fmt.Sprintf(format, args...)}
}

func infof(field, format string, args ...any) Issue {
	return Issue{Severity: SeverityInfo, Field: field, Message: fmt.Sprintf(format, args...)}
}

func (i Issue) withSuggestion(s string) Issue {
	i.Suggestion = s
	return i
}

// Result buckets validation issues by severity.
type Result struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
	Info     []Issue `json:"info"`
}

// Add routes an issue into its severity bucket.
func (r *Result) Add(issue Issue) {
	switch issue.Severity {
	case SeverityError:
		r.Errors = append(r.Errors, issue)
	case SeverityWarning:
		r.Warnings = append(r.Warnings, issue)
	default:
		r.Info = append(r.Info, issue)
	}
}

// IsValid reports whether no errors were found.
func (r *Result) IsValid() bool { return len(r.Errors) == 0 }

// TotalIssues counts findings across all severities.
func (r *Result) TotalIssues() int { return len(r.Errors) + len(r.Warnings) + len(r.Info) }

// Merge folds another result into the receiver.
func (r *Result) Merge(other Result) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Info = append(r.Info, other.Info...)
}

// Validator checks a library definition for authoring mistakes before it is
// compiled. Fact names are checked against the union of caller-registered
// known facts and the keys the library's own effects can produce; with strict
// mode those findings are errors instead of warnings. The check is silent
// when both sets are empty.
type Validator struct {
	strict     bool
	knownFacts map[string]bool
	produced   map[string]bool
}

// NewValidator returns a lenient validator with no known-fact list.
func NewValidator() *Validator {
	return &Validator{knownFacts: make(map[string]bool)}
}

// WithStrictMode toggles unknown-fact findings between warning and error.
func (v *Validator) WithStrictMode(strict bool) *Validator {
	v.strict = strict
	return v
}

// AddKnownFact registers a fact name the runtime is known to publish.
func (v *Validator) AddKnownFact(name string) {
	v.knownFacts[name] = true
}

// ValidateLibrary checks every action and goal in a library definition.
// Effect keys across all actions form the producible-fact set for the
// unknown-fact check.
func (v *Validator) ValidateLibrary(def LibraryDef) Result {
	v.produced = producedFacts(def.Actions)
	defer func() { v.produced = nil }()

	var r Result
	seen := make(map[string]bool, len(def.Actions))
	for i, a := range def.Actions {
		field := fmt.Sprintf("actions[%d]", i)
		if seen[a.Name] {
			r.Add(errorf(field+".name", "duplicate action name %q", a.Name))
		}
		seen[a.Name] = true
		r.Merge(v.validateAction(a, field))
	}
	for i, g := range def.Goals {
		r.Merge(v.ValidateGoal(g, fmt.Sprintf("goals[%d]", i)))
	}
	return r
}

// producedFacts collects every key any action's effects can set.
func producedFacts(defs []ActionDef) map[string]bool {
	out := make(map[string]bool)
	for _, a := range defs {
		for key := range a.Effects {
			out[key] = true
		}
	}
	return out
}

func (v *Validator) validateAction(a ActionDef, field string) Result {
	var r Result
	if a.Name == "" {
		r.Add(errorf(field+".name", "action name cannot be empty"))
	}
	if a.Cost < 0 {
		r.Add(errorf(field+".cost", "cost must be non-negative, got %g", a.Cost))
	}
	if len(a.Effects) == 0 {
		r.Add(warnf(field+".effects", "action has no effects and can never advance a plan"))
	}
	for key, val := range a.Effects {
		switch val.Value().Kind() {
		case goap.KindIntRange, goap.KindFloatApprox:
			r.Add(errorf(field+".effects."+key,
				"effects must be concrete values, not ranges").
				withSuggestion("use an exact value; ranges belong in preconditions"))
		}
	}
	for key, val := range a.Preconditions {
		r.Merge(v.validateValue(key, val, field+".preconditions"))
	}
	if a.When != "" {
		if _, err := expr.Compile(a.When, expr.AsBool(), expr.AllowUndefinedVariables()); err != nil {
			r.Add(errorf(field+".when", "predicate does not compile: %v", err))
		}
	}
	return r
}

// ValidateGoal checks one goal definition, recursing into sub-goals with a
// path-prefixed field, and analyzes the hierarchy's complexity.
func (v *Validator) ValidateGoal(g GoalDef, field string) Result {
	r := v.validateGoalRec(g, field, nil)
	r.Merge(analyzeComplexity(g, field))
	return r
}

func (v *Validator) validateGoalRec(g GoalDef, field string, path []string) Result {
	var r Result

	if g.Name != "" && containsName(path, g.Name) {
		r.Add(errorf(field+".name", "circular hierarchy: %q already appears in path %s",
			g.Name, strings.Join(path, " -> ")))
	}

	if g.Name == "" {
		r.Add(errorf(field+".name", "goal name cannot be empty").
			withSuggestion("use a descriptive name like defend_position"))
	} else if len(g.Name) > 100 {
		r.Add(warnf(field+".name", "goal name is very long (>100 chars)"))
	}

	switch {
	case g.Priority < 0:
		r.Add(errorf(field+".priority", "priority must be non-negative, got %g", g.Priority))
	case g.Priority > 10:
		r.Add(warnf(field+".priority", "priority %g is very high, 1-10 is typical", g.Priority))
	}

	if g.Deadline != nil {
		switch d := *g.Deadline; {
		case d < 0:
			r.Add(errorf(field+".deadline", "deadline must be non-negative, got %g", d))
		case d < 1:
			r.Add(warnf(field+".deadline", "deadline under 1s may be unachievable"))
		case d > 3600:
			r.Add(infof(field+".deadline", "deadline over an hour away, urgency will stay minimal"))
		}
	}

	if _, err := parseStrategy(g.Strategy); err != nil {
		r.Add(errorf(field+".strategy", "%v", err).
			withSuggestion("one of: sequential, parallel, any_of, all_of"))
	}

	switch {
	case g.MaxDepth < 0:
		r.Add(errorf(field+".max_depth", "max_depth must be non-negative, got %d", g.MaxDepth))
	case g.MaxDepth > 10:
		r.Add(warnf(field+".max_depth", "max_depth %d is very large", g.MaxDepth).
			withSuggestion("3-5 is usually enough"))
	}

	if len(g.Desired) == 0 && len(g.SubGoals) == 0 {
		r.Add(errorf(field+".desired", "goal has neither desired state nor sub-goals").
			withSuggestion("add a condition like objective_complete: true"))
	}
	for key, val := range g.Desired {
		r.Merge(v.validateValue(key, val, field+".desired"))
	}

	r.Merge(v.validateHierarchy(g, field))

	path = append(path, g.Name)
	for i, sub := range g.SubGoals {
		r.Merge(v.validateGoalRec(sub, fmt.Sprintf("%s.sub_goals[%d]", field, i), path))
	}
	return r
}

// validateHierarchy checks strategy/sub-goal agreement on one level.
func (v *Validator) validateHierarchy(g GoalDef, field string) Result {
	var r Result

	if len(g.SubGoals) == 0 {
		if g.Strategy != "" {
			r.Add(warnf(field+".strategy", "strategy %q set but the goal has no sub-goals", g.Strategy))
		}
		return r
	}

	if g.Strategy == "" {
		r.Add(warnf(field+".strategy", "goal has sub-goals but no explicit strategy, defaulting to sequential"))
	}
	if g.Strategy == "any_of" && len(g.SubGoals) < 2 {
		r.Add(warnf(field+".strategy", "any_of with a single sub-goal, consider a direct goal"))
	}
	if g.MaxDepth > 0 && goalDepth(g)-1 > g.MaxDepth {
		r.Add(warnf(field+".max_depth",
			"hierarchy is %d levels deep but max_depth %d stops decomposition early, deeper goals plan as leaves",
			goalDepth(g), g.MaxDepth))
	}
	if g.Strategy == "parallel" || g.Strategy == "all_of" {
		r.Merge(checkConflictingSubGoals(g.SubGoals, field))
	}
	return r
}

// checkConflictingSubGoals flags sub-goals that desire incompatible values
// for the same fact; under parallel or all_of both must hold at once.
func checkConflictingSubGoals(subs []GoalDef, field string) Result {
	var r Result
	firstBy := make(map[string]goap.StateValue)
	for _, sub := range subs {
		for key, val := range sub.Desired {
			first, seen := firstBy[key]
			if !seen {
				firstBy[key] = val.Value()
				continue
			}
			if !valuesCompatible(first, val.Value()) {
				r.Add(warnf(field+".sub_goals",
					"sub-goals desire conflicting values for %q: %v vs %v", key, first, val.Value()).
					withSuggestion("parallel sub-goals must not contradict each other"))
			}
		}
	}
	return r
}

// valuesCompatible reports whether two desired values can hold at once.
// Ranges count as compatible when they overlap; mixed kinds and floats are
// assumed compatible.
func valuesCompatible(a, b goap.StateValue) bool {
	if a.Kind() != b.Kind() {
		return true
	}
	switch a.Kind() {
	case goap.KindBool, goap.KindInt, goap.KindString:
		return a.Equal(b)
	case goap.KindIntRange:
		aLo, aHi := a.Bounds()
		bLo, bHi := b.Bounds()
		return aHi >= bLo && bHi >= aLo
	}
	return true
}

// analyzeComplexity warns on hierarchies too deep or too large to plan
// comfortably, and notes same-priority sibling sets whose order is arbitrary.
func analyzeComplexity(g GoalDef, field string) Result {
	var r Result
	if depth := goalDepth(g); depth > 5 {
		r.Add(warnf(field, "goal hierarchy is %d levels deep", depth).
			withSuggestion("flatten or split into separate top-level goals"))
	}
	if total := goalCount(g); total > 20 {
		r.Add(warnf(field, "goal hierarchy contains %d goals", total).
			withSuggestion("split into multiple goals"))
	}
	if len(g.SubGoals) > 1 && allSamePriority(g.SubGoals) {
		r.Add(infof(field+".sub_goals", "all sub-goals share priority %g, order may be arbitrary",
			g.SubGoals[0].Priority))
	}
	return r
}

func goalDepth(g GoalDef) int {
	max := 0
	for _, sub := range g.SubGoals {
		if d := goalDepth(sub); d > max {
			max = d
		}
	}
	return max + 1
}

func goalCount(g GoalDef) int {
	n := 1
	for _, sub := range g.SubGoals {
		n += goalCount(sub)
	}
	return n
}

// allSamePriority is true only when every sibling sets an explicit priority
// and they all match; unset priorities inherit from the parent and differ.
func allSamePriority(subs []GoalDef) bool {
	for _, sub := range subs {
		if sub.Priority == 0 || sub.Priority != subs[0].Priority {
			return false
		}
	}
	return true
}

func containsName(path []string, name string) bool {
	for _, p := range path {
		if p == name {
			return true
		}
	}
	return false
}

func (v *Validator) validateValue(key string, val ValueDef, field string) Result {
	var r Result
	path := field + "." + key

	if (len(v.knownFacts) > 0 || len(v.produced) > 0) && !v.knownFacts[key] && !v.produced[key] {
		msg := fmt.Sprintf("unknown fact %q: no action produces it and it is not registered", key)
		if v.strict {
			r.Add(errorf(path, "%s", msg).withSuggestion("register the fact with the world or fix the spelling"))
		} else {
			r.Add(warnf(path, "%s", msg))
		}
	}

	sv := val.Value()
	switch sv.Kind() {
	case goap.KindIntRange:
		if lo, hi := sv.Bounds(); lo == hi {
			r.Add(infof(path, "range with min == max (%d), consider an exact value", lo))
		}
	case goap.KindFloatApprox:
		if sv.Epsilon() > 100 {
			r.Add(warnf(path, "tolerance %g is very large", sv.Epsilon()))
		}
	}
	return r
}
