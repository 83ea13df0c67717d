package goap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStateValueSatisfies(t *testing.T) {
	tests := []struct {
		name   string
		have   StateValue
		target StateValue
		want   bool
	}{
		{"bool match", Bool(true), Bool(true), true},
		{"bool mismatch", Bool(true), Bool(false), false},
		{"int match", Int(5), Int(5), true},
		{"int mismatch", Int(5), Int(6), false},
		{"float within tolerance", Float(1.0000005), Float(1.0), true},
		{"float outside tolerance", Float(1.01), Float(1.0), false},
		{"int range inside", Int(5), IntRange(1, 10), true},
		{"int range lower bound", Int(1), IntRange(1, 10), true},
		{"int range upper bound", Int(10), IntRange(1, 10), true},
		{"int range below", Int(0), IntRange(1, 10), false},
		{"int range above", Int(11), IntRange(1, 10), false},
		{"float approx inside", Float(5.05), FloatApprox(5.0, 0.1), true},
		{"float approx boundary", Float(5.1), FloatApprox(5.0, 0.1), true},
		{"float approx outside", Float(5.2), FloatApprox(5.0, 0.1), false},
		{"string match", String("sword"), String("sword"), true},
		{"string mismatch", String("sword"), String("bow"), false},
		{"cross kind bool vs int", Bool(true), Int(1), false},
		{"cross kind int vs float", Int(5), Float(5.0), false},
		{"cross kind float vs int range", Float(5.0), IntRange(1, 10), false},
		{"cross kind string vs bool", String("true"), Bool(true), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.have.Satisfies(tt.target); got != tt.want {
				t.Errorf("Satisfies(%v, %v) = %v, want %v", tt.have, tt.target, got, tt.want)
			}
		})
	}
}

func TestStateValueNumericDistance(t *testing.T) {
	tests := []struct {
		name   string
		have   StateValue
		target StateValue
		want   float64
	}{
		{"int exact", Int(5), Int(5), 0},
		{"int gap", Int(2), Int(7), 5},
		{"int below range", Int(0), IntRange(3, 8), 3},
		{"int above range", Int(12), IntRange(3, 8), 4},
		{"int in range", Int(5), IntRange(3, 8), 0},
		{"float gap", Float(1.5), Float(4.0), 2.5},
		{"float within approx", Float(5.05), FloatApprox(5.0, 0.1), 0},
		{"float beyond approx", Float(5.5), FloatApprox(5.0, 0.1), 0.4},
		{"bool mismatch", Bool(false), Bool(true), 1},
		{"string mismatch", String("a"), String("b"), 1},
		{"kind mismatch", Bool(true), Int(1), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.have.NumericDistance(tt.target)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("NumericDistance = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueOf(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  StateValue
	}{
		{"bool", true, Bool(true)},
		{"int", 7, Int(7)},
		{"int64", int64(7), Int(7)},
		{"integral float", 7.0, Int(7)},
		{"fractional float", 7.5, Float(7.5)},
		{"string", "ready", String("ready")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValueOf(tt.input)
			if err != nil {
				t.Fatalf("ValueOf(%v): %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ValueOf(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	if _, err := ValueOf(struct{}{}); err == nil {
		t.Error("ValueOf(struct{}{}) expected error, got nil")
	}
}

func TestWorldStateSatisfies(t *testing.T) {
	w := NewWorldState()
	w.Set("has_weapon", Bool(true))
	w.Set("ammo", Int(12))
	w.Set("health", Float(80.0))

	tests := []struct {
		name  string
		conds State
		want  bool
	}{
		{"empty conditions", State{}, true},
		{"single match", State{"has_weapon": Bool(true)}, true},
		{"range match", State{"ammo": IntRange(1, 20)}, true},
		{"missing key", State{"has_shield": Bool(true)}, false},
		{"value mismatch", State{"ammo": Int(3)}, false},
		{"all match", State{"has_weapon": Bool(true), "ammo": Int(12), "health": Float(80.0)}, true},
		{"one of many fails", State{"has_weapon": Bool(true), "ammo": Int(3)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Satisfies(tt.conds); got != tt.want {
				t.Errorf("Satisfies = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWorldStateDistanceTo(t *testing.T) {
	w := NewWorldState()
	w.Set("ammo", Int(2))
	w.Set("ready", Bool(false))

	goal := State{
		"ammo":   Int(7),    // unmet: 2.0 + |2-7| = 7.0
		"ready":  Bool(true), // unmet: 2.0 + 1.0 = 3.0
		"target": Bool(true), // missing: 2.0 + 1.0 = 3.0
	}
	if got, want := w.DistanceTo(goal), 13.0; got != want {
		t.Errorf("DistanceTo = %v, want %v", got, want)
	}

	if got := w.DistanceTo(State{"ammo": IntRange(1, 5)}); got != 0 {
		t.Errorf("DistanceTo satisfied range = %v, want 0", got)
	}
}

func TestWorldStateCloneIndependence(t *testing.T) {
	w := NewWorldState()
	w.Set("a", Int(1))

	c := w.Clone()
	c.Set("a", Int(2))
	c.Set("b", Bool(true))

	if v, _ := w.Get("a"); !v.Equal(Int(1)) {
		t.Errorf("original mutated through clone: a = %v", v)
	}
	if _, ok := w.Get("b"); ok {
		t.Error("original gained key set on clone")
	}
}

func TestWorldStateSignatureDeterministic(t *testing.T) {
	a := NewWorldState()
	a.Set("zeta", Int(1))
	a.Set("alpha", Bool(true))
	a.Set("mid", String("x"))

	b := NewWorldState()
	b.Set("mid", String("x"))
	b.Set("alpha", Bool(true))
	b.Set("zeta", Int(1))

	if a.Signature() != b.Signature() {
		t.Errorf("signatures differ for equal states:\n%s\n%s", a.Signature(), b.Signature())
	}

	b.Set("zeta", Int(2))
	if a.Signature() == b.Signature() {
		t.Error("signatures equal for different states")
	}
}

func TestWorldStateAppliedLeavesOriginal(t *testing.T) {
	w := NewWorldState()
	w.Set("ammo", Int(3))

	next := w.Applied(State{"ammo": Int(0), "fired": Bool(true)})

	want := map[string]any{"ammo": int64(3)}
	if diff := cmp.Diff(want, w.Facts()); diff != "" {
		t.Errorf("original state changed (-want +got):\n%s", diff)
	}
	if !next.Satisfies(State{"ammo": Int(0), "fired": Bool(true)}) {
		t.Error("effects not applied to copy")
	}
}
