package goap

import (
	"fmt"
	"sort"
	"strings"
)

// ActionMetrics is the per-step breakdown of an analyzed plan.
type ActionMetrics struct {
	Cost        float64 `json:"cost"`
	Risk        float64 `json:"risk"`
	SuccessRate float64 `json:"success_rate"`
	AvgDuration float64 `json:"avg_duration"`
	Executions  int     `json:"executions"`
}

// BottleneckReason classifies why a plan step stands out.
type BottleneckReason string

const (
	BottleneckHighCost       BottleneckReason = "high_cost"
	BottleneckHighRisk       BottleneckReason = "high_risk"
	BottleneckLowSuccessRate BottleneckReason = "low_success_rate"
	BottleneckLongDuration   BottleneckReason = "long_duration"
)

// Bottleneck flags one action as a weak point of a plan. Severity is in
// [0,1], higher is worse.
type Bottleneck struct {
	ActionName string           `json:"action_name"`
	Reason     BottleneckReason `json:"reason"`
	Severity   float64          `json:"severity"`
}

// PlanMetrics summarizes plan quality: cumulative cost and risk, estimated
// duration, the product success probability, and per-action breakdown.
type PlanMetrics struct {
	TotalCost          float64                  `json:"total_cost"`
	TotalRisk          float64                  `json:"total_risk"`
	ActionCount        int                      `json:"action_count"`
	EstimatedDuration  float64                  `json:"estimated_duration"`
	SuccessProbability float64                  `json:"success_probability"`
	Bottlenecks        []Bottleneck             `json:"bottlenecks"`
	ActionBreakdown    map[string]ActionMetrics `json:"action_breakdown"`
}

// PlanComparison says which of two analyzed plans scores better.
type PlanComparison string

const (
	FirstBetter  PlanComparison = "first"
	SecondBetter PlanComparison = "second"
	Similar      PlanComparison = "similar"
)

// ComparisonReport diffs two plan metrics. Diffs are second minus first, so
// a positive CostDiff means the first plan is cheaper.
type ComparisonReport struct {
	CostDiff        float64        `json:"cost_diff"`
	RiskDiff        float64        `json:"risk_diff"`
	DurationDiff    float64        `json:"duration_diff"`
	SuccessProbDiff float64        `json:"success_prob_diff"`
	BetterPlan      PlanComparison `json:"better_plan"`
	Recommendations []string       `json:"recommendations"`
}

// AnalyzePlan walks a plan against an evolving copy of the start state,
// accumulating cost, risk, and duration per step. Unknown action names are
// skipped. Actions with no history default to a 1.0s duration and a 0.5
// success rate for breakdown purposes.
func AnalyzePlan(plan []string, actions []Action, history *ActionHistory, start *WorldState) PlanMetrics {
	m := PlanMetrics{
		ActionCount:     len(plan),
		ActionBreakdown: make(map[string]ActionMetrics),
	}
	current := start.Clone()

	for _, name := range plan {
		action := findByName(actions, name)
		if action == nil {
			continue
		}
		cost := action.Cost(current, history)
		prob := action.SuccessProbability(current, history)
		risk := 1.0 - prob

		duration := 1.0
		executions := 0
		successRate := 0.5
		if stats := history.Stats(name); stats != nil {
			duration = stats.AverageDuration()
			executions = stats.Executions
			successRate = stats.SuccessRate()
		}

		m.TotalCost += cost
		m.TotalRisk += risk
		m.EstimatedDuration += duration
		m.ActionBreakdown[name] = ActionMetrics{
			Cost:        cost,
			Risk:        risk,
			SuccessRate: successRate,
			AvgDuration: duration,
			Executions:  executions,
		}
		current.ApplyEffects(action.Effects())
	}

	m.SuccessProbability = 1.0
	for _, am := range m.ActionBreakdown {
		m.SuccessProbability *= am.SuccessRate
	}
	m.Bottlenecks = identifyBottlenecks(m.ActionBreakdown)
	return m
}

// identifyBottlenecks flags actions whose cost, risk, or duration stands
// more than 2x above the plan average, or whose observed success rate is
// below 50% with enough samples to matter.
func identifyBottlenecks(breakdown map[string]ActionMetrics) []Bottleneck {
	if len(breakdown) == 0 {
		return nil
	}
	var avgCost, avgRisk, avgDuration float64
	for _, m := range breakdown {
		avgCost += m.Cost
		avgRisk += m.Risk
		avgDuration += m.AvgDuration
	}
	n := float64(len(breakdown))
	avgCost /= n
	avgRisk /= n
	avgDuration /= n

	names := make([]string, 0, len(breakdown))
	for name := range breakdown {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []Bottleneck
	for _, name := range names {
		m := breakdown[name]
		if m.Cost > avgCost*2.0 {
			out = append(out, Bottleneck{name, BottleneckHighCost, clampSeverity(m.Cost / (avgCost * 2.0))})
		}
		if m.Risk > avgRisk*2.0 && m.Risk > 0.3 {
			out = append(out, Bottleneck{name, BottleneckHighRisk, clampSeverity(m.Risk / (avgRisk * 2.0))})
		}
		if m.SuccessRate < 0.5 && m.Executions > 3 {
			out = append(out, Bottleneck{name, BottleneckLowSuccessRate, 1.0 - m.SuccessRate})
		}
		if m.AvgDuration > avgDuration*2.0 && m.AvgDuration > 2.0 {
			out = append(out, Bottleneck{name, BottleneckLongDuration, clampSeverity(m.AvgDuration / (avgDuration * 2.0))})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity > out[j].Severity
	})
	return out
}

func clampSeverity(s float64) float64 {
	if s > 1.0 {
		return 1.0
	}
	return s
}

// ComparePlans scores two analyzed plans (lower cost, risk, and duration
// and higher success probability score better) and renders human-readable
// recommendations for the meaningful differences.
func ComparePlans(first, second PlanMetrics) ComparisonReport {
	r := ComparisonReport{
		CostDiff:        second.TotalCost - first.TotalCost,
		RiskDiff:        second.TotalRisk - first.TotalRisk,
		DurationDiff:    second.EstimatedDuration - first.EstimatedDuration,
		SuccessProbDiff: second.SuccessProbability - first.SuccessProbability,
	}

	score := func(m PlanMetrics) float64 {
		return -m.TotalCost - m.TotalRisk*2.0 - m.EstimatedDuration*0.1 + m.SuccessProbability*10.0
	}
	s1, s2 := score(first), score(second)
	switch {
	case abs(s1-s2) < 0.5:
		r.BetterPlan = Similar
	case s1 > s2:
		r.BetterPlan = FirstBetter
	default:
		r.BetterPlan = SecondBetter
	}

	if abs(r.CostDiff) > 1.0 {
		if r.CostDiff > 0 {
			r.Recommendations = append(r.Recommendations, fmt.Sprintf("first plan is %.1f cost units cheaper", r.CostDiff))
		} else {
			r.Recommendations = append(r.Recommendations, fmt.Sprintf("second plan is %.1f cost units cheaper", -r.CostDiff))
		}
	}
	if abs(r.RiskDiff) > 0.1 {
		if r.RiskDiff > 0 {
			r.Recommendations = append(r.Recommendations, fmt.Sprintf("first plan carries %.2f less risk", r.RiskDiff))
		} else {
			r.Recommendations = append(r.Recommendations, fmt.Sprintf("second plan carries %.2f less risk", -r.RiskDiff))
		}
	}
	if abs(r.DurationDiff) > 2.0 {
		if r.DurationDiff > 0 {
			r.Recommendations = append(r.Recommendations, fmt.Sprintf("first plan is %.1fs faster", r.DurationDiff))
		} else {
			r.Recommendations = append(r.Recommendations, fmt.Sprintf("second plan is %.1fs faster", -r.DurationDiff))
		}
	}
	return r
}

// RenderPlanText formats metrics for CLI output.
func RenderPlanText(plan []string, m PlanMetrics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "plan (%d actions):\n", m.ActionCount)
	for i, name := range plan {
		fmt.Fprintf(&b, "  %d. %s", i+1, name)
		if am, ok := m.ActionBreakdown[name]; ok {
			fmt.Fprintf(&b, "  cost=%.2f risk=%.2f", am.Cost, am.Risk)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "total cost: %.2f\n", m.TotalCost)
	fmt.Fprintf(&b, "total risk: %.2f\n", m.TotalRisk)
	fmt.Fprintf(&b, "estimated duration: %.1fs\n", m.EstimatedDuration)
	fmt.Fprintf(&b, "success probability: %.1f%%\n", m.SuccessProbability*100.0)
	if len(m.Bottlenecks) > 0 {
		b.WriteString("bottlenecks:\n")
		for _, bn := range m.Bottlenecks {
			fmt.Fprintf(&b, "  - %s: %s (severity %.0f%%)\n", bn.ActionName, bn.Reason, bn.Severity*100.0)
		}
	}
	return b.String()
}

func findByName(actions []Action, name string) Action {
	for _, a := range actions {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
