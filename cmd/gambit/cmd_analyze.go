package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gambit/pkg/authoring"
	"gambit/pkg/goap"
)

var (
	analyzeLibrary string
	analyzeWorld   string
	analyzeFacts   []string
	analyzePlan    string
	analyzeCompare string
	analyzeHistory string
	analyzeDot     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Report cost, risk, and bottlenecks for a plan",
	Long: `Analyze walks a comma-separated action sequence against the starting
world and prints its metrics. With --compare a second sequence is analyzed
and the two are diffed.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeLibrary, "library", "", "YAML action/goal library (required)")
	analyzeCmd.Flags().StringVar(&analyzeWorld, "world", "", "YAML world snapshot")
	analyzeCmd.Flags().StringArrayVar(&analyzeFacts, "set", nil, "world fact as key=value (repeatable)")
	analyzeCmd.Flags().StringVar(&analyzePlan, "plan", "", "comma-separated action names (required)")
	analyzeCmd.Flags().StringVar(&analyzeCompare, "compare", "", "second comma-separated plan to diff against")
	analyzeCmd.Flags().StringVar(&analyzeHistory, "history", "", "JSON history snapshot for observed rates and durations")
	analyzeCmd.Flags().BoolVar(&analyzeDot, "dot", false, "emit the plan as GraphViz DOT instead of a text report")
	_ = analyzeCmd.MarkFlagRequired("library")
	_ = analyzeCmd.MarkFlagRequired("plan")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	lib, err := authoring.LoadLibrary(analyzeLibrary)
	if err != nil {
		return err
	}
	world, err := buildWorld(analyzeWorld, analyzeFacts)
	if err != nil {
		return err
	}
	planner := newPlanner(lib, analyzeHistory, false)

	first, err := splitPlan(analyzePlan)
	if err != nil {
		return err
	}

	if analyzeDot {
		fmt.Fprint(cmd.OutOrStdout(), goap.RenderPlanDot(first, lib.Actions, planner.History(), world))
		return nil
	}

	firstMetrics := goap.AnalyzePlan(first, lib.Actions, planner.History(), world)

	out := cmd.OutOrStdout()
	fmt.Fprint(out, goap.RenderPlanText(first, firstMetrics))

	if analyzeCompare == "" {
		return nil
	}
	second, err := splitPlan(analyzeCompare)
	if err != nil {
		return err
	}
	secondMetrics := goap.AnalyzePlan(second, lib.Actions, planner.History(), world)
	fmt.Fprintf(out, "\ncompared against:\n%s", goap.RenderPlanText(second, secondMetrics))

	report := goap.ComparePlans(firstMetrics, secondMetrics)
	fmt.Fprintf(out, "\nbetter plan: %s\n", report.BetterPlan)
	for _, rec := range report.Recommendations {
		fmt.Fprintf(out, "  - %s\n", rec)
	}
	return nil
}

func splitPlan(s string) ([]string, error) {
	var plan []string
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("plan %q contains an empty action name", s)
		}
		plan = append(plan, name)
	}
	return plan, nil
}
