package authoring

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"gambit/internal/logging"
	"gambit/pkg/goap"
)

// ExprAction is a SimpleAction gated by an additional expr-lang predicate
// evaluated against the world facts. The predicate narrows applicability;
// it never widens it past the declarative preconditions.
type ExprAction struct {
	*goap.SimpleAction
	source  string
	program *vm.Program
}

// NewExprAction compiles the predicate and wraps the action. The expression
// must evaluate to a boolean; undefined world facts are allowed and resolve
// to nil inside the expression.
func NewExprAction(base *goap.SimpleAction, source string) (*ExprAction, error) {
	program, err := expr.Compile(source,
		expr.AsBool(),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, fmt.Errorf("compiling predicate for %q: %w", base.Name(), err)
	}
	return &ExprAction{SimpleAction: base, source: source, program: program}, nil
}

// Source returns the predicate expression text.
func (a *ExprAction) Source() string { return a.source }

// CanExecute requires both the declarative preconditions and the predicate.
// An evaluation error or non-boolean result counts as not applicable.
func (a *ExprAction) CanExecute(w *goap.WorldState) bool {
	if !a.SimpleAction.CanExecute(w) {
		return false
	}
	result, err := expr.Run(a.program, w.Facts())
	if err != nil {
		logging.New("authoring").Warn("predicate evaluation failed",
			"action", a.Name(), "err", err)
		return false
	}
	ok, isBool := result.(bool)
	return isBool && ok
}
