package simulate

import (
	"context"
	"testing"

	"gambit/pkg/goap"
)

// patrolFactory builds the scripted test agent: three actions, two goals,
// a short replan interval so the script actually exercises replanning.
func patrolFactory() (*goap.Planner, *goap.GoalScheduler) {
	p := goap.NewPlanner()
	p.AddAction(goap.NewSimpleAction("draw_weapon",
		goap.State{},
		goap.State{"armed": goap.Bool(true)},
		1.0))
	p.AddAction(goap.NewSimpleAction("engage",
		goap.State{"armed": goap.Bool(true), "enemy_visible": goap.Bool(true)},
		goap.State{"enemy_down": goap.Bool(true)},
		2.0))
	p.AddAction(goap.NewSimpleAction("walk_route",
		goap.State{},
		goap.State{"route_walked": goap.Bool(true)},
		1.0))

	s := goap.NewGoalScheduler(2.0)
	s.AddGoal(goap.NewGoal("patrol", goap.State{"route_walked": goap.Bool(true)}).WithPriority(2.0))
	s.AddGoal(goap.NewGoal("eliminate", goap.State{"enemy_down": goap.Bool(true)}).WithPriority(8.0))
	return p, s
}

// patrolScript toggles enemy visibility on a fixed cadence.
func patrolScript(frame int) *goap.WorldState {
	w := goap.NewWorldState()
	w.Set("enemy_visible", goap.Bool(frame%10 < 5))
	return w
}

func TestRunReplayProducesFrames(t *testing.T) {
	results := RunReplay(patrolFactory, patrolScript, 20)
	if len(results) != 20 {
		t.Fatalf("got %d frames, want 20", len(results))
	}
	var planned bool
	for _, r := range results {
		if len(r.Plan) > 0 {
			planned = true
		}
	}
	if !planned {
		t.Error("no frame produced a plan")
	}
}

func TestVerifyDeterminism(t *testing.T) {
	// 3 replays x 100 frames, every frame pair must hash identically.
	if mismatches := VerifyDeterminism(patrolFactory, patrolScript, 100, 3); mismatches != 0 {
		t.Errorf("%d frame mismatches across replays, want 0", mismatches)
	}
}

func TestPlanHash(t *testing.T) {
	a := PlanHash([]string{"x", "y"}, true)
	b := PlanHash([]string{"x", "y"}, true)
	if a != b {
		t.Error("equal plans hash differently")
	}
	if PlanHash([]string{"xy"}, true) == PlanHash([]string{"x", "y"}, true) {
		t.Error("boundary-ambiguous plans hash equal")
	}
	if PlanHash(nil, true) == PlanHash(nil, false) {
		t.Error("empty plan and absent plan hash equal")
	}
}

func TestRunConcurrent(t *testing.T) {
	goal := goap.NewGoal("eliminate", goap.State{"enemy_down": goap.Bool(true)})
	world := goap.NewWorldState()
	world.Set("enemy_visible", goap.Bool(true))

	const workers, perWorker = 8, 1000
	total, err := RunConcurrent(context.Background(), patrolFactory, goal, world, workers, perWorker)
	if err != nil {
		t.Fatalf("RunConcurrent: %v", err)
	}
	if want := int64(workers * perWorker); total != want {
		t.Errorf("successful plans = %d, want %d", total, want)
	}
}

func TestRunConcurrentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	goal := goap.NewGoal("eliminate", goap.State{"enemy_down": goap.Bool(true)})
	world := goap.NewWorldState()
	world.Set("enemy_visible", goap.Bool(true))

	if _, err := RunConcurrent(ctx, patrolFactory, goal, world, 4, 100); err == nil {
		t.Error("expected context error after cancellation")
	}
}
