package authoring

import (
	"testing"

	"gambit/pkg/goap"
)

func TestExprActionGating(t *testing.T) {
	base := goap.NewSimpleAction("retreat",
		goap.State{"in_combat": goap.Bool(true)},
		goap.State{"safe": goap.Bool(true)},
		1.0)
	a, err := NewExprAction(base, "health < 30 && ammo == 0")
	if err != nil {
		t.Fatalf("NewExprAction: %v", err)
	}

	w := goap.NewWorldState()
	w.Set("in_combat", goap.Bool(true))
	w.Set("health", goap.Int(20))
	w.Set("ammo", goap.Int(0))
	if !a.CanExecute(w) {
		t.Error("predicate and preconditions met, action not executable")
	}

	w.Set("health", goap.Int(90))
	if a.CanExecute(w) {
		t.Error("predicate false, action still executable")
	}

	// Declarative preconditions gate first.
	w.Set("health", goap.Int(20))
	w.Set("in_combat", goap.Bool(false))
	if a.CanExecute(w) {
		t.Error("preconditions unmet, action still executable")
	}
}

func TestExprActionUndefinedFacts(t *testing.T) {
	base := goap.NewSimpleAction("scout", nil, goap.State{"scouted": goap.Bool(true)}, 1.0)
	a, err := NewExprAction(base, "visibility > 50")
	if err != nil {
		t.Fatalf("NewExprAction: %v", err)
	}

	// The fact is absent; the comparison errors at runtime and the action
	// is treated as not applicable rather than failing the search.
	if a.CanExecute(goap.NewWorldState()) {
		t.Error("action executable with its predicate fact undefined")
	}

	w := goap.NewWorldState()
	w.Set("visibility", goap.Int(80))
	if !a.CanExecute(w) {
		t.Error("action not executable with predicate fact satisfied")
	}
}

func TestExprActionCompileError(t *testing.T) {
	base := goap.NewSimpleAction("broken", nil, nil, 1.0)
	if _, err := NewExprAction(base, "1 +"); err == nil {
		t.Error("expected compile error")
	}
	// Non-boolean expressions are rejected at compile time.
	if _, err := NewExprAction(base, "1 + 2"); err == nil {
		t.Error("expected type error for non-boolean expression")
	}
}
