package mcp

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gambit/internal/store"
)

const testLibrary = `
actions:
  - name: find_weapon
    cost: 1.0
    effects:
      has_weapon: true
  - name: attack
    cost: 2.0
    preconditions:
      has_weapon: true
    effects:
      target_down: true
goals:
  - name: eliminate
    priority: 8.0
    desired:
      target_down: true
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return NewServer("test", st)
}

func createTestAgent(t *testing.T, s *Server, name string) {
	t.Helper()
	_, out, err := s.handleCreateAgent(context.Background(), nil, createAgentInput{
		Name:        name,
		LibraryYAML: testLibrary,
		Learning:    true,
	})
	if err != nil {
		t.Fatalf("create_agent: %v", err)
	}
	if out.Actions != 2 {
		t.Fatalf("created agent has %d actions, want 2", out.Actions)
	}
}

func TestCreateAgent(t *testing.T) {
	s := newTestServer(t)
	createTestAgent(t, s, "guard")

	// Duplicate names are rejected without replace.
	_, _, err := s.handleCreateAgent(context.Background(), nil, createAgentInput{
		Name:        "guard",
		LibraryYAML: testLibrary,
	})
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("duplicate create error = %v", err)
	}

	// replace=true rebuilds.
	_, _, err = s.handleCreateAgent(context.Background(), nil, createAgentInput{
		Name:        "guard",
		LibraryYAML: testLibrary,
		Replace:     true,
	})
	if err != nil {
		t.Errorf("replace create: %v", err)
	}
}

func TestCreateAgentRejectsBadLibrary(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name  string
		input createAgentInput
	}{
		{"empty name", createAgentInput{LibraryYAML: testLibrary}},
		{"broken yaml", createAgentInput{Name: "a", LibraryYAML: ":\n  - ["}},
		{"invalid library", createAgentInput{Name: "a", LibraryYAML: "actions:\n  - name: x\n    cost: -5\n    effects:\n      y: true"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := s.handleCreateAgent(context.Background(), nil, tt.input); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestUpdateWorldPlans(t *testing.T) {
	s := newTestServer(t)
	createTestAgent(t, s, "guard")

	_, out, err := s.handleUpdateWorld(context.Background(), nil, updateWorldInput{
		Agent: "guard",
		Time:  0.0,
		Facts: map[string]any{"at_post": true},
	})
	if err != nil {
		t.Fatalf("update_world: %v", err)
	}
	if !out.HasPlan || out.Goal != "eliminate" {
		t.Fatalf("output = %+v, want plan for eliminate", out)
	}
	want := []string{"find_weapon", "attack"}
	if diff := cmp.Diff(want, out.Plan); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}

	// Satisfying the goal prunes it; no plan remains.
	_, out, err = s.handleUpdateWorld(context.Background(), nil, updateWorldInput{
		Agent: "guard",
		Time:  1.0,
		Facts: map[string]any{"target_down": true},
	})
	if err != nil {
		t.Fatalf("update_world: %v", err)
	}
	if out.HasPlan || len(out.Goals) != 0 {
		t.Errorf("output after satisfaction = %+v, want no plan and no goals", out)
	}
}

func TestUpdateWorldRejectsTimeTravel(t *testing.T) {
	s := newTestServer(t)
	createTestAgent(t, s, "guard")

	if _, _, err := s.handleUpdateWorld(context.Background(), nil, updateWorldInput{Agent: "guard", Time: 5.0}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.handleUpdateWorld(context.Background(), nil, updateWorldInput{Agent: "guard", Time: 4.0}); err == nil {
		t.Error("expected error for backward time")
	}
}

func TestReportOutcomeAndStats(t *testing.T) {
	s := newTestServer(t)
	createTestAgent(t, s, "guard")

	for i := 0; i < 8; i++ {
		if _, _, err := s.handleReportOutcome(context.Background(), nil, reportOutcomeInput{
			Agent: "guard", Action: "attack", Success: true, Duration: 1.0,
		}); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 2; i++ {
		if _, _, err := s.handleReportOutcome(context.Background(), nil, reportOutcomeInput{
			Agent: "guard", Action: "attack", Success: false,
		}); err != nil {
			t.Fatal(err)
		}
	}

	_, out, err := s.handleGetStats(context.Background(), nil, getStatsInput{Agent: "guard", Action: "attack"})
	if err != nil {
		t.Fatalf("get_stats: %v", err)
	}
	if len(out.Stats) != 1 {
		t.Fatalf("got %d stats, want 1", len(out.Stats))
	}
	st := out.Stats[0]
	if st.SampleCount != 10 {
		t.Errorf("SampleCount = %d, want 10", st.SampleCount)
	}
	if st.Probability < 0.7 || st.Probability > 0.9 {
		t.Errorf("Probability = %v, want near 0.8", st.Probability)
	}
}

func TestReportOutcomePersists(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	s := NewServer("test", st)
	createTestAgent(t, s, "guard")

	if _, _, err := s.handleReportOutcome(context.Background(), nil, reportOutcomeInput{
		Agent: "guard", Action: "attack", Success: true, Duration: 2.0,
	}); err != nil {
		t.Fatal(err)
	}

	// A rebuilt agent restores its history from the store.
	if _, _, err := s.handleCreateAgent(context.Background(), nil, createAgentInput{
		Name: "guard", LibraryYAML: testLibrary, Replace: true,
	}); err != nil {
		t.Fatal(err)
	}
	agent, err := s.getAgent("guard")
	if err != nil {
		t.Fatal(err)
	}
	snap := agent.History()
	if got := snap["attack"]; got.Successes != 1 {
		t.Errorf("restored attack stats = %+v, want one success", got)
	}
}

func TestRemoveGoal(t *testing.T) {
	s := newTestServer(t)
	createTestAgent(t, s, "guard")

	_, out, err := s.handleRemoveGoal(context.Background(), nil, removeGoalInput{Agent: "guard", Goal: "eliminate"})
	if err != nil {
		t.Fatalf("remove_goal: %v", err)
	}
	if !out.Removed || len(out.Goals) != 0 {
		t.Errorf("output = %+v, want removed with no goals left", out)
	}

	_, out, err = s.handleRemoveGoal(context.Background(), nil, removeGoalInput{Agent: "guard", Goal: "eliminate"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Removed {
		t.Error("second removal reported success")
	}
}

func TestUnknownAgent(t *testing.T) {
	s := newTestServer(t)
	if _, _, err := s.handleUpdateWorld(context.Background(), nil, updateWorldInput{Agent: "ghost", Time: 0}); err == nil {
		t.Error("expected error for unknown agent")
	}
	if _, _, err := s.handleGetStats(context.Background(), nil, getStatsInput{Agent: ""}); err == nil {
		t.Error("expected error for empty agent name")
	}
}
