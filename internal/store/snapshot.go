// Package store persists learned action histories. Snapshots are wrapped
// with a version, timestamp, and checksum; loading validates all three and
// the LoadOrDefault helpers fail open to an empty history, since losing
// learned estimates only resets planning to its configured initial rates.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gambit/pkg/goap"
)

// SnapshotVersion is the newest snapshot format this build writes and reads.
const SnapshotVersion = 1

// Typed persistence errors. Callers that cannot tolerate data loss check
// for these; everyone else goes through LoadOrDefault.
var (
	ErrChecksumMismatch   = errors.New("history checksum mismatch")
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
)

// Snapshot is the serialized envelope around an action history.
type Snapshot struct {
	Version   int                         `json:"version"`
	Timestamp string                      `json:"timestamp"`
	Checksum  string                      `json:"checksum"`
	Actions   map[string]goap.ActionStats `json:"actions"`
}

// Encode wraps a history into a snapshot stamped with the current time.
func Encode(h *goap.ActionHistory) Snapshot {
	return Snapshot{
		Version:   SnapshotVersion,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checksum:  h.Checksum(),
		Actions:   h.Snapshot(),
	}
}

// EncodeJSON renders a snapshot for file or blob storage.
func EncodeJSON(h *goap.ActionHistory) ([]byte, error) {
	data, err := json.MarshalIndent(Encode(h), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode validates a snapshot and rebuilds its history. Version checking is
// forward-only: older snapshots of the same major layout decode fine, newer
// ones are rejected.
func Decode(s Snapshot) (*goap.ActionHistory, error) {
	if s.Version > SnapshotVersion {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrUnsupportedVersion, s.Version, SnapshotVersion)
	}
	h := goap.RestoreHistory(s.Actions)
	if got := h.Checksum(); got != s.Checksum {
		return nil, fmt.Errorf("%w: stored %s, computed %s", ErrChecksumMismatch, s.Checksum, got)
	}
	return h, nil
}

// DecodeJSON parses and validates snapshot bytes.
func DecodeJSON(data []byte) (*goap.ActionHistory, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return Decode(s)
}
