package goap

// minActionCost floors history-adjusted action cost so a perfect track
// record can never make an action free.
const minActionCost = 0.1

// Action is the capability the planner searches over. Implementations must
// be read-only with respect to the world state they are given; the planner
// applies Effects to copies it owns.
type Action interface {
	// Name identifies the action in plans and history.
	Name() string
	// CanExecute reports whether the action is applicable in the state.
	CanExecute(w *WorldState) bool
	// Effects is the partial state applied on success.
	Effects() State
	// BaseCost is the nominal cost, independent of history.
	BaseCost() float64
	// Cost is the history-adjusted planning cost. history may be nil.
	Cost(w *WorldState, history *ActionHistory) float64
	// SuccessProbability estimates the chance of success. history may be nil.
	SuccessProbability(w *WorldState, history *ActionHistory) float64
}

// SimpleAction is the standard declarative action: a precondition set, an
// effect set, and a base cost.
type SimpleAction struct {
	name          string
	preconditions State
	effects       State
	cost          float64
}

// NewSimpleAction creates an action. Nil condition/effect maps are allowed.
func NewSimpleAction(name string, preconditions, effects State, cost float64) *SimpleAction {
	if preconditions == nil {
		preconditions = State{}
	}
	if effects == nil {
		effects = State{}
	}
	return &SimpleAction{name: name, preconditions: preconditions, effects: effects, cost: cost}
}

// Name implements Action.
func (a *SimpleAction) Name() string { return a.name }

// Preconditions returns the partial state that must hold before execution.
func (a *SimpleAction) Preconditions() State { return a.preconditions }

// Effects implements Action.
func (a *SimpleAction) Effects() State { return a.effects }

// BaseCost implements Action.
func (a *SimpleAction) BaseCost() float64 { return a.cost }

// CanExecute implements Action by subset-matching the preconditions.
func (a *SimpleAction) CanExecute(w *WorldState) bool {
	return w.Satisfies(a.preconditions)
}

// Cost inflates the base cost by the observed failure rate, floored at
// minActionCost. Actions with no history pay their nominal cost.
func (a *SimpleAction) Cost(_ *WorldState, history *ActionHistory) float64 {
	c := a.cost
	if history != nil {
		if stats := history.Stats(a.name); stats != nil && stats.Executions > 0 {
			c *= 1.0 + stats.FailureRate()
		}
	}
	if c < minActionCost {
		c = minActionCost
	}
	return c
}

// SuccessProbability returns the raw observed success rate, or 1.0 for
// actions with no history (optimistic until proven otherwise).
func (a *SimpleAction) SuccessProbability(_ *WorldState, history *ActionHistory) float64 {
	if history != nil {
		if stats := history.Stats(a.name); stats != nil && stats.Executions > 0 {
			return stats.SuccessRate()
		}
	}
	return 1.0
}
