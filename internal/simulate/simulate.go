// Package simulate drives scripted planning runs for determinism
// verification and concurrency stress. A replay feeds a fixed sequence of
// world snapshots through a scheduler and hashes every frame's plan; equal
// scripts must produce equal hash sequences.
package simulate

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"gambit/internal/logging"
	"gambit/pkg/goap"
)

// Factory builds one independent agent: a planner with its action library
// registered and a scheduler with its goals added. Every replay and every
// worker gets a private pair, so runs share nothing.
type Factory func() (*goap.Planner, *goap.GoalScheduler)

// WorldScript produces the world snapshot for a frame. Implementations must
// be deterministic in the frame index.
type WorldScript func(frame int) *goap.WorldState

// FrameResult is one frame of a replay: the plan (nil when the scheduler
// had none) and its hash.
type FrameResult struct {
	Frame int
	Plan  []string
	Hash  uint64
}

// PlanHash collapses a plan into an FNV-64a hash. The absent plan hashes
// differently from the empty one.
func PlanHash(plan []string, present bool) uint64 {
	h := fnv.New64a()
	if !present {
		h.Write([]byte{0})
		return h.Sum64()
	}
	h.Write([]byte{1})
	for _, name := range plan {
		h.Write([]byte(name))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// RunReplay ticks a fresh agent through frames scripted snapshots, one
// scheduler update per frame at time float64(frame).
func RunReplay(factory Factory, script WorldScript, frames int) []FrameResult {
	planner, scheduler := factory()
	results := make([]FrameResult, frames)
	for frame := 0; frame < frames; frame++ {
		world := script(frame)
		plan, ok := scheduler.Update(float64(frame), world, planner)
		results[frame] = FrameResult{Frame: frame, Plan: plan, Hash: PlanHash(plan, ok)}
	}
	return results
}

// VerifyDeterminism runs the same script through replays independent
// replays and compares every frame's plan hash against the first replay.
// It returns the number of mismatched frames; zero means deterministic.
func VerifyDeterminism(factory Factory, script WorldScript, frames, replays int) int {
	if replays < 2 {
		return 0
	}
	reference := RunReplay(factory, script, frames)
	mismatches := 0
	for r := 1; r < replays; r++ {
		run := RunReplay(factory, script, frames)
		for f := 0; f < frames; f++ {
			if run[f].Hash != reference[f].Hash {
				mismatches++
				logging.New("simulate").Warn("replay divergence",
					"replay", r, "frame", f,
					"want", fmt.Sprintf("%016x", reference[f].Hash),
					"got", fmt.Sprintf("%016x", run[f].Hash))
			}
		}
	}
	return mismatches
}

// RunConcurrent runs workers goroutines, each planning against a private
// agent plansPerWorker times, and returns the total number of successful
// plans. Each worker owns all of its state; the only shared value is the
// success counter.
func RunConcurrent(ctx context.Context, factory Factory, goal *goap.Goal, world *goap.WorldState, workers, plansPerWorker int) (int64, error) {
	var successes atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			planner, _ := factory()
			private := world.Clone()
			for i := 0; i < plansPerWorker; i++ {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				if _, ok := planner.Plan(private, goal); ok {
					successes.Add(1)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return successes.Load(), err
	}
	return successes.Load(), nil
}
