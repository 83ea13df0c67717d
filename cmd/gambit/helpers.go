package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"gambit/pkg/authoring"
	"gambit/pkg/goap"
)

// loadWorld reads a flat YAML mapping of fact name to value and coerces each
// value into a state value.
func loadWorld(path string) (*goap.WorldState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading world: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing world: %w", err)
	}
	world := goap.NewWorldState()
	for k, v := range raw {
		sv, err := goap.ValueOf(v)
		if err != nil {
			return nil, fmt.Errorf("world fact %q: %w", k, err)
		}
		world.Set(k, sv)
	}
	return world, nil
}

// applyFacts merges key=value pairs from the command line into a world.
// Values parse as bool, then int, then float, and fall back to string.
func applyFacts(world *goap.WorldState, facts []string) error {
	for _, f := range facts {
		key, raw, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return fmt.Errorf("fact %q must be key=value", f)
		}
		world.Set(key, parseScalar(raw))
	}
	return nil
}

func parseScalar(raw string) goap.StateValue {
	if b, err := strconv.ParseBool(raw); err == nil {
		return goap.Bool(b)
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return goap.Int(i)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return goap.Float(f)
	}
	return goap.String(raw)
}

// findGoal looks up a library goal by name.
func findGoal(lib *authoring.Library, name string) (*goap.Goal, error) {
	for _, g := range lib.Goals {
		if g.Name == name {
			return g, nil
		}
	}
	return nil, fmt.Errorf("goal %q not found in library", name)
}
