package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gambit/internal/store"
	"gambit/pkg/authoring"
	"gambit/pkg/goap"
)

var (
	planLibrary  string
	planWorld    string
	planFacts    []string
	planGoal     string
	planHistory  string
	planLearning bool
	planTree     bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan action sequences for a library's goals",
	Long: `Plan compiles a YAML library, builds the starting world from --world
and --set facts, and prints the plan for --goal. Without --goal it plans
every library goal in urgency order against an evolving world.`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planLibrary, "library", "", "YAML action/goal library (required)")
	planCmd.Flags().StringVar(&planWorld, "world", "", "YAML world snapshot")
	planCmd.Flags().StringArrayVar(&planFacts, "set", nil, "world fact as key=value (repeatable)")
	planCmd.Flags().StringVar(&planGoal, "goal", "", "plan only this goal")
	planCmd.Flags().StringVar(&planHistory, "history", "", "JSON history snapshot to seed success estimates")
	planCmd.Flags().BoolVar(&planLearning, "learning", false, "scale action costs by learned success rates")
	planCmd.Flags().BoolVar(&planTree, "tree", false, "print each goal's hierarchy before its plan")
	_ = planCmd.MarkFlagRequired("library")
}

func runPlan(cmd *cobra.Command, args []string) error {
	lib, err := authoring.LoadLibrary(planLibrary)
	if err != nil {
		return err
	}
	world, err := buildWorld(planWorld, planFacts)
	if err != nil {
		return err
	}
	planner := newPlanner(lib, planHistory, planLearning)

	if planGoal != "" {
		goal, err := findGoal(lib, planGoal)
		if err != nil {
			return err
		}
		plan, ok := planner.Plan(world, goal)
		if !ok {
			return fmt.Errorf("no plan found for goal %q", goal.Name)
		}
		if planTree {
			fmt.Fprint(cmd.OutOrStdout(), goap.RenderGoalTree(goal))
		}
		metrics := goap.AnalyzePlan(plan, lib.Actions, planner.History(), world)
		fmt.Fprintf(cmd.OutOrStdout(), "goal: %s\n%s", goal.Name, goap.RenderPlanText(plan, metrics))
		return nil
	}

	plans := planner.PlanForGoals(world, lib.Goals, 0.0)
	if len(plans) == 0 {
		return fmt.Errorf("no plans found for any goal")
	}
	for _, gp := range plans {
		if planTree {
			if goal, err := findGoal(lib, gp.GoalName); err == nil {
				fmt.Fprint(cmd.OutOrStdout(), goap.RenderGoalTree(goal))
			}
		}
		metrics := goap.AnalyzePlan(gp.Plan, lib.Actions, planner.History(), world)
		fmt.Fprintf(cmd.OutOrStdout(), "goal: %s\n%s\n", gp.GoalName, goap.RenderPlanText(gp.Plan, metrics))
	}
	return nil
}

// buildWorld assembles the starting world from an optional snapshot file
// plus command-line facts.
func buildWorld(path string, facts []string) (*goap.WorldState, error) {
	world := goap.NewWorldState()
	if path != "" {
		loaded, err := loadWorld(path)
		if err != nil {
			return nil, err
		}
		world = loaded
	}
	if err := applyFacts(world, facts); err != nil {
		return nil, err
	}
	return world, nil
}

// newPlanner registers a library's actions and wires optional history and
// learning.
func newPlanner(lib *authoring.Library, historyPath string, learning bool) *goap.Planner {
	planner := goap.NewPlanner()
	for _, a := range lib.Actions {
		planner.AddAction(a)
	}
	if historyPath != "" {
		planner.SetHistory(store.LoadFileOrDefault(historyPath))
	}
	if learning {
		cfg := goap.DefaultLearningConfig()
		cfg.Enabled = true
		planner.SetLearning(goap.NewLearningManager(cfg), true)
	}
	return planner
}
