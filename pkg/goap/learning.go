package goap

import (
	"fmt"
	"math"
)

// SmoothingMethod selects the success-probability estimator.
type SmoothingMethod string

const (
	// SmoothingEWMA applies an exponentially weighted moving average over
	// the raw success rate, keyed per action for continuity between calls.
	SmoothingEWMA SmoothingMethod = "ewma"
	// SmoothingBayesian computes a Beta-prior posterior over the counters.
	SmoothingBayesian SmoothingMethod = "bayesian"
)

// LearningConfig tunes the smoothing of action success estimates.
type LearningConfig struct {
	Enabled            bool            `json:"enabled" yaml:"enabled"`
	Method             SmoothingMethod `json:"method" yaml:"method"`
	Alpha              float64         `json:"alpha" yaml:"alpha"`
	InitialSuccessRate float64         `json:"initial_success_rate" yaml:"initial_success_rate"`
	MinSuccessRate     float64         `json:"min_success_rate" yaml:"min_success_rate"`
	MaxSuccessRate     float64         `json:"max_success_rate" yaml:"max_success_rate"`
	PriorSuccesses     float64         `json:"prior_successes" yaml:"prior_successes"`
	PriorFailures      float64         `json:"prior_failures" yaml:"prior_failures"`
}

// DefaultLearningConfig returns EWMA smoothing with a mildly optimistic
// initial estimate and unbounded [0,1] clamping.
func DefaultLearningConfig() LearningConfig {
	return LearningConfig{
		Enabled:            true,
		Method:             SmoothingEWMA,
		Alpha:              0.2,
		InitialSuccessRate: 0.7,
		MinSuccessRate:     0.0,
		MaxSuccessRate:     1.0,
		PriorSuccesses:     1.0,
		PriorFailures:      1.0,
	}
}

// sanitize clamps alpha into [0,1] and repairs degenerate bounds. Other
// misconfigurations are the caller's responsibility.
func (c LearningConfig) sanitize() LearningConfig {
	if c.Alpha < 0 {
		c.Alpha = 0
	}
	if c.Alpha > 1 {
		c.Alpha = 1
	}
	if c.MinSuccessRate < 0 {
		c.MinSuccessRate = 0
	}
	if c.MaxSuccessRate <= 0 || c.MaxSuccessRate > 1 {
		c.MaxSuccessRate = 1
	}
	if c.MinSuccessRate > c.MaxSuccessRate {
		c.MinSuccessRate = c.MaxSuccessRate
	}
	if c.Method == "" {
		c.Method = SmoothingEWMA
	}
	return c
}

// SmoothedStats is the learning manager's per-action output: a smoothed
// success probability plus an advisory confidence signal.
type SmoothedStats struct {
	ActionName  string          `json:"action_name"`
	Probability float64         `json:"probability"`
	Confidence  float64         `json:"confidence"`
	Method      SmoothingMethod `json:"method"`
	SampleCount int             `json:"sample_count"`
}

// LearningManager smooths raw execution statistics into success-probability
// estimates the planner can fold into action cost or risk. EWMA continuity
// state is owned by the manager instance; share across goroutines only with
// external synchronization.
type LearningManager struct {
	cfg       LearningConfig
	estimates map[string]float64
}

// NewLearningManager creates a manager; the config is sanitized on the way in.
func NewLearningManager(cfg LearningConfig) *LearningManager {
	return &LearningManager{
		cfg:       cfg.sanitize(),
		estimates: make(map[string]float64),
	}
}

// Config returns the active (sanitized) configuration.
func (m *LearningManager) Config() LearningConfig { return m.cfg }

// UpdateConfig replaces the configuration. EWMA continuity state is kept so
// tuning alpha mid-run does not discard learned estimates.
func (m *LearningManager) UpdateConfig(cfg LearningConfig) {
	m.cfg = cfg.sanitize()
}

// ResetEstimates discards all EWMA continuity state.
func (m *LearningManager) ResetEstimates() {
	m.estimates = make(map[string]float64)
}

// GetProbability returns the smoothed success probability for an action,
// clamped to the configured bounds. With learning disabled or no recorded
// history it returns the configured initial rate.
func (m *LearningManager) GetProbability(name string, stats *ActionStats) float64 {
	if !m.cfg.Enabled {
		return m.cfg.InitialSuccessRate
	}
	if stats == nil || stats.Executions == 0 {
		return m.cfg.InitialSuccessRate
	}
	var p float64
	switch m.cfg.Method {
	case SmoothingBayesian:
		p = m.bayesian(stats)
	default:
		p = m.ewma(name, stats)
	}
	return m.clamp(p)
}

// GetSmoothedStats returns the probability plus the confidence signal, or
// false when no history exists for the action.
func (m *LearningManager) GetSmoothedStats(name string, stats *ActionStats) (SmoothedStats, bool) {
	if stats == nil || stats.Executions == 0 {
		return SmoothedStats{}, false
	}
	p := m.GetProbability(name, stats)
	return SmoothedStats{
		ActionName:  name,
		Probability: p,
		Confidence:  m.confidence(p, stats),
		Method:      m.cfg.Method,
		SampleCount: stats.Executions,
	}, true
}

// ewma blends the raw rate with the previous per-action estimate. The first
// observation seeds the estimate with the raw rate itself.
func (m *LearningManager) ewma(name string, stats *ActionStats) float64 {
	raw := stats.SuccessRate()
	prev, ok := m.estimates[name]
	est := raw
	if ok {
		est = m.cfg.Alpha*raw + (1.0-m.cfg.Alpha)*prev
	}
	m.estimates[name] = est
	return est
}

// bayesian computes the Beta-prior posterior mean.
func (m *LearningManager) bayesian(stats *ActionStats) float64 {
	num := float64(stats.Successes) + m.cfg.PriorSuccesses
	den := float64(stats.Executions) + m.cfg.PriorSuccesses + m.cfg.PriorFailures
	if den == 0 {
		return m.cfg.InitialSuccessRate
	}
	return num / den
}

// confidence is advisory: EWMA confidence grows with sample count, Bayesian
// confidence shrinks with the posterior interval width.
func (m *LearningManager) confidence(p float64, stats *ActionStats) float64 {
	switch m.cfg.Method {
	case SmoothingBayesian:
		n := float64(stats.Successes+stats.Failures) + m.cfg.PriorSuccesses + m.cfg.PriorFailures
		if n <= 0 {
			return 0
		}
		width := 2.0 * 1.96 * math.Sqrt(p*(1.0-p)/n)
		return math.Max(1.0-width, 0)
	default:
		return math.Min(float64(stats.Executions)/20.0, 1.0)
	}
}

func (m *LearningManager) clamp(p float64) float64 {
	if p < m.cfg.MinSuccessRate {
		return m.cfg.MinSuccessRate
	}
	if p > m.cfg.MaxSuccessRate {
		return m.cfg.MaxSuccessRate
	}
	return p
}

// Describe renders a one-line summary for logs and the CLI.
func (s SmoothedStats) Describe() string {
	return fmt.Sprintf("%s: p=%.3f confidence=%.2f (%s, n=%d)",
		s.ActionName, s.Probability, s.Confidence, s.Method, s.SampleCount)
}
