package goap

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ActionStats holds the running execution counters for one action. Counters
// are append-only; they are never decremented except by an explicit reset.
type ActionStats struct {
	Executions    int     `json:"executions"`
	Successes     int     `json:"successes"`
	Failures      int     `json:"failures"`
	TotalDuration float64 `json:"total_duration"`
}

// SuccessRate is successes/executions, 0 with no executions.
func (s *ActionStats) SuccessRate() float64 {
	if s.Executions == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Executions)
}

// FailureRate is failures/executions, 0 with no executions.
func (s *ActionStats) FailureRate() float64 {
	if s.Executions == 0 {
		return 0
	}
	return float64(s.Failures) / float64(s.Executions)
}

// AverageDuration is the mean recorded success duration, 0 with no successes.
func (s *ActionStats) AverageDuration() float64 {
	if s.Successes == 0 {
		return 0
	}
	return s.TotalDuration / float64(s.Successes)
}

// ActionHistory accumulates per-action execution statistics. The execution
// layer records outcomes; the planner and learning manager read them.
// Not safe for concurrent use; each agent owns a private history.
type ActionHistory struct {
	stats map[string]*ActionStats
}

// NewActionHistory returns an empty history.
func NewActionHistory() *ActionHistory {
	return &ActionHistory{stats: make(map[string]*ActionStats)}
}

// RestoreHistory rebuilds a history from a stats snapshot (persistence).
func RestoreHistory(stats map[string]ActionStats) *ActionHistory {
	h := NewActionHistory()
	for name, s := range stats {
		c := s
		h.stats[name] = &c
	}
	return h
}

// ensure returns the counters for an action, creating them on first use.
func (h *ActionHistory) ensure(name string) *ActionStats {
	s, ok := h.stats[name]
	if !ok {
		s = &ActionStats{}
		h.stats[name] = s
	}
	return s
}

// RecordSuccess counts a successful execution with its duration.
func (h *ActionHistory) RecordSuccess(name string, duration float64) {
	s := h.ensure(name)
	s.Executions++
	s.Successes++
	s.TotalDuration += duration
}

// RecordFailure counts a failed execution.
func (h *ActionHistory) RecordFailure(name string) {
	s := h.ensure(name)
	s.Executions++
	s.Failures++
}

// Stats returns the counters for an action, or nil if never recorded.
func (h *ActionHistory) Stats(name string) *ActionStats {
	return h.stats[name]
}

// Names returns all recorded action names in lexicographic order.
func (h *ActionHistory) Names() []string {
	names := make([]string, 0, len(h.stats))
	for name := range h.stats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of actions with recorded history.
func (h *ActionHistory) Len() int { return len(h.stats) }

// Reset clears the counters for one action.
func (h *ActionHistory) Reset(name string) {
	delete(h.stats, name)
}

// ResetAll clears every counter.
func (h *ActionHistory) ResetAll() {
	h.stats = make(map[string]*ActionStats)
}

// Snapshot copies the counters for persistence.
func (h *ActionHistory) Snapshot() map[string]ActionStats {
	out := make(map[string]ActionStats, len(h.stats))
	for name, s := range h.stats {
		out[name] = *s
	}
	return out
}

// Checksum is a sha256 over a canonical, name-sorted line encoding. The
// persistence layer stores it alongside snapshots and rejects mismatches.
func (h *ActionHistory) Checksum() string {
	var b strings.Builder
	for _, name := range h.Names() {
		s := h.stats[name]
		fmt.Fprintf(&b, "%s:%d:%d:%d:%.6f\n",
			name, s.Executions, s.Successes, s.Failures, s.TotalDuration)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// MarshalJSON encodes the stats map directly.
func (h *ActionHistory) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.stats)
}

// UnmarshalJSON decodes a stats map.
func (h *ActionHistory) UnmarshalJSON(data []byte) error {
	stats := make(map[string]*ActionStats)
	if err := json.Unmarshal(data, &stats); err != nil {
		return err
	}
	if stats == nil {
		stats = make(map[string]*ActionStats)
	}
	for name, s := range stats {
		if s == nil {
			stats[name] = &ActionStats{}
		}
	}
	h.stats = stats
	return nil
}
