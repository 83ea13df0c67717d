package authoring

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gambit/pkg/goap"
)

func TestLoadLibrary(t *testing.T) {
	lib, err := LoadLibrary(filepath.Join("testdata", "library.yaml"))
	if err != nil {
		t.Fatalf("LoadLibrary: %v", err)
	}

	if len(lib.Actions) != 4 {
		t.Fatalf("got %d actions, want 4", len(lib.Actions))
	}
	names := make([]string, len(lib.Actions))
	for i, a := range lib.Actions {
		names[i] = a.Name()
	}
	want := []string{"find_weapon", "equip_weapon", "attack", "calibrate"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("action order mismatch (-want +got):\n%s", diff)
	}

	// The attack action carries both declarative and expression gates.
	attack, ok := lib.Actions[2].(*ExprAction)
	if !ok {
		t.Fatalf("attack compiled to %T, want *ExprAction", lib.Actions[2])
	}
	if attack.Source() != "health > 25" {
		t.Errorf("predicate source = %q", attack.Source())
	}

	if len(lib.Goals) != 2 {
		t.Fatalf("got %d goals, want 2", len(lib.Goals))
	}
	threat := lib.Goals[0]
	if threat.Priority != 8.0 || !threat.HasDeadline || threat.Deadline != 30.0 {
		t.Errorf("eliminate_threat = %+v", threat)
	}
	prepare := lib.Goals[1]
	if len(prepare.SubGoals) != 2 || prepare.Strategy != goap.Sequential {
		t.Errorf("prepare sub-goals = %d strategy = %v", len(prepare.SubGoals), prepare.Strategy)
	}
}

func TestLoadedLibraryPlans(t *testing.T) {
	lib, err := LoadLibrary(filepath.Join("testdata", "library.yaml"))
	if err != nil {
		t.Fatalf("LoadLibrary: %v", err)
	}

	p := goap.NewPlanner()
	for _, a := range lib.Actions {
		p.AddAction(a)
	}

	world := goap.NewWorldState()
	world.Set("ammo", goap.Int(10))
	world.Set("health", goap.Int(80))

	plan, ok := p.Plan(world, lib.Goals[0])
	if !ok {
		t.Fatal("no plan for eliminate_threat")
	}
	want := []string{"find_weapon", "equip_weapon", "attack"}
	if diff := cmp.Diff(want, plan); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLibraryValueKinds(t *testing.T) {
	src := []byte(`
actions:
  - name: sense
    cost: 1
    preconditions:
      flag: true
      count: 3
      ratio: 1.5
      label: ready
      band: {min: 2, max: 8}
      temp: {target: 10.0, epsilon: 0.5}
    effects:
      sensed: true
`)
	lib, err := ParseLibrary(src)
	if err != nil {
		t.Fatalf("ParseLibrary: %v", err)
	}
	sense, ok := lib.Actions[0].(*goap.SimpleAction)
	if !ok {
		t.Fatalf("sense compiled to %T", lib.Actions[0])
	}
	pre := sense.Preconditions()

	tests := []struct {
		key  string
		want goap.StateValue
	}{
		{"flag", goap.Bool(true)},
		{"count", goap.Int(3)},
		{"ratio", goap.Float(1.5)},
		{"label", goap.String("ready")},
		{"band", goap.IntRange(2, 8)},
		{"temp", goap.FloatApprox(10.0, 0.5)},
	}
	for _, tt := range tests {
		if got := pre[tt.key]; !got.Equal(tt.want) {
			t.Errorf("%s = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestParseLibraryErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"bad yaml", ":\n  - ["},
		{"unsupported version", "version: 99"},
		{"inverted range", "actions:\n  - name: a\n    preconditions:\n      x: {min: 9, max: 1}\n    effects:\n      y: true"},
		{"negative epsilon", "actions:\n  - name: a\n    preconditions:\n      x: {target: 1.0, epsilon: -0.1}\n    effects:\n      y: true"},
		{"half range", "actions:\n  - name: a\n    preconditions:\n      x: {min: 1}\n    effects:\n      y: true"},
		{"empty action name", "actions:\n  - cost: 1"},
		{"empty goal name", "goals:\n  - priority: 1"},
		{"bad strategy", "goals:\n  - name: g\n    strategy: zigzag\n    desired:\n      x: true"},
		{"bad predicate", "actions:\n  - name: a\n    when: \"((\"\n    effects:\n      y: true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseLibrary([]byte(tt.src)); err == nil {
				t.Error("expected parse error, got nil")
			}
		})
	}
}
