// Package mcp exposes planning agents to LLM tooling over the Model Context
// Protocol. Each created agent owns a private planner, scheduler, and
// learning manager; the server only adds naming and locking on top.
package mcp

import (
	"context"
	"fmt"
	"sort"
	"sync"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"gambit/internal/logging"
	"gambit/internal/store"
	"gambit/pkg/authoring"
	"gambit/pkg/goap"
)

// Server wraps the MCP SDK server and manages planning agents. When a store
// is attached, agent histories are loaded on create and persisted after
// every reported outcome.
type Server struct {
	MCPServer *sdkmcp.Server

	mu     sync.Mutex
	agents map[string]*Agent
	store  *store.SqlStore
}

// NewServer creates an MCP server with the planning tool set. st may be nil
// to run without persistence.
func NewServer(version string, st *store.SqlStore) *Server {
	s := &Server{
		agents: make(map[string]*Agent),
		store:  st,
	}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "gambit", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves MCP over the given transport until the context ends.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "create_agent",
		Description: "Create a planning agent from a YAML action/goal library. Replaces any agent with the same name.",
	}, s.handleCreateAgent)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "update_world",
		Description: "Merge world facts into an agent, advance its clock, and return the current plan. Time must not move backward.",
	}, s.handleUpdateWorld)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "report_outcome",
		Description: "Report an executed action's outcome so the agent's history and learned success estimates update.",
	}, s.handleReportOutcome)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_stats",
		Description: "Get smoothed per-action success statistics for an agent.",
	}, s.handleGetStats)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "remove_goal",
		Description: "Remove a goal from an agent's active set.",
	}, s.handleRemoveGoal)
}

// --- Tool input/output types ---

type createAgentInput struct {
	Name           string  `json:"name" jsonschema:"unique agent name"`
	LibraryYAML    string  `json:"library_yaml" jsonschema:"YAML action/goal library source"`
	ReplanInterval float64 `json:"replan_interval,omitempty" jsonschema:"minimum seconds between replans (default 1.0)"`
	Learning       bool    `json:"learning,omitempty" jsonschema:"enable EWMA success-rate learning"`
	Replace        bool    `json:"replace,omitempty" jsonschema:"replace an existing agent with the same name"`
}

type createAgentOutput struct {
	Name    string   `json:"name"`
	Actions int      `json:"actions"`
	Goals   []string `json:"goals"`
}

type updateWorldInput struct {
	Agent string         `json:"agent" jsonschema:"agent name from create_agent"`
	Time  float64        `json:"time" jsonschema:"simulation time, non-decreasing per agent"`
	Facts map[string]any `json:"facts,omitempty" jsonschema:"facts to merge into the world state"`
}

type updateWorldOutput struct {
	HasPlan bool     `json:"has_plan"`
	Goal    string   `json:"goal,omitempty"`
	Plan    []string `json:"plan,omitempty"`
	Goals   []string `json:"active_goals"`
}

type reportOutcomeInput struct {
	Agent    string  `json:"agent" jsonschema:"agent name"`
	Action   string  `json:"action" jsonschema:"executed action name"`
	Success  bool    `json:"success" jsonschema:"whether the action succeeded"`
	Duration float64 `json:"duration,omitempty" jsonschema:"execution duration in seconds"`
}

type reportOutcomeOutput struct {
	OK string `json:"ok"`
}

type getStatsInput struct {
	Agent  string `json:"agent" jsonschema:"agent name"`
	Action string `json:"action,omitempty" jsonschema:"restrict to one action"`
}

type getStatsOutput struct {
	Stats []goap.SmoothedStats `json:"stats"`
}

type removeGoalInput struct {
	Agent string `json:"agent" jsonschema:"agent name"`
	Goal  string `json:"goal" jsonschema:"goal name to remove"`
}

type removeGoalOutput struct {
	Removed bool     `json:"removed"`
	Goals   []string `json:"active_goals"`
}

// --- Tool handlers ---

func (s *Server) handleCreateAgent(_ context.Context, _ *sdkmcp.CallToolRequest, input createAgentInput) (*sdkmcp.CallToolResult, createAgentOutput, error) {
	if input.Name == "" {
		return nil, createAgentOutput{}, fmt.Errorf("agent name is required")
	}
	lib, err := authoring.ParseLibrary([]byte(input.LibraryYAML))
	if err != nil {
		return nil, createAgentOutput{}, fmt.Errorf("compile library: %w", err)
	}
	if v := authoring.NewValidator().ValidateLibrary(lib.Def); !v.IsValid() {
		return nil, createAgentOutput{}, fmt.Errorf("library invalid: %s", v.Errors[0].Message)
	}

	interval := input.ReplanInterval
	if interval <= 0 {
		interval = 1.0
	}
	cfg := goap.DefaultLearningConfig()
	cfg.Enabled = input.Learning

	var history *goap.ActionHistory
	if s.store != nil {
		history = s.store.LoadOrDefault(input.Name)
	}
	agent := NewAgent(input.Name, lib, interval, cfg, history)

	s.mu.Lock()
	if _, exists := s.agents[input.Name]; exists && !input.Replace {
		s.mu.Unlock()
		return nil, createAgentOutput{}, fmt.Errorf("agent %q already exists (set replace=true to rebuild)", input.Name)
	}
	s.agents[input.Name] = agent
	s.mu.Unlock()

	logging.New("mcp").Info("agent created",
		"agent", input.Name, "actions", len(lib.Actions), "goals", len(lib.Goals))
	return nil, createAgentOutput{
		Name:    input.Name,
		Actions: len(lib.Actions),
		Goals:   agent.GoalNames(),
	}, nil
}

func (s *Server) handleUpdateWorld(_ context.Context, _ *sdkmcp.CallToolRequest, input updateWorldInput) (*sdkmcp.CallToolResult, updateWorldOutput, error) {
	agent, err := s.getAgent(input.Agent)
	if err != nil {
		return nil, updateWorldOutput{}, err
	}
	plan, goalName, err := agent.UpdateWorld(input.Time, input.Facts)
	if err != nil {
		return nil, updateWorldOutput{}, err
	}
	out := updateWorldOutput{Goals: agent.GoalNames()}
	if goalName != "" {
		out.HasPlan = true
		out.Goal = goalName
		out.Plan = plan
	}
	return nil, out, nil
}

func (s *Server) handleReportOutcome(_ context.Context, _ *sdkmcp.CallToolRequest, input reportOutcomeInput) (*sdkmcp.CallToolResult, reportOutcomeOutput, error) {
	agent, err := s.getAgent(input.Agent)
	if err != nil {
		return nil, reportOutcomeOutput{}, err
	}
	if input.Action == "" {
		return nil, reportOutcomeOutput{}, fmt.Errorf("action name is required")
	}
	agent.ReportOutcome(input.Action, input.Success, input.Duration)

	if s.store != nil {
		err := agent.withHistory(func(h *goap.ActionHistory) error {
			return s.store.SaveHistory(agent.Name, h)
		})
		if err != nil {
			logging.New("mcp").Warn("history persist failed", "agent", agent.Name, "err", err)
		}
	}
	return nil, reportOutcomeOutput{OK: "recorded"}, nil
}

func (s *Server) handleGetStats(_ context.Context, _ *sdkmcp.CallToolRequest, input getStatsInput) (*sdkmcp.CallToolResult, getStatsOutput, error) {
	agent, err := s.getAgent(input.Agent)
	if err != nil {
		return nil, getStatsOutput{}, err
	}
	stats := agent.Stats()
	if input.Action != "" {
		filtered := stats[:0]
		for _, st := range stats {
			if st.ActionName == input.Action {
				filtered = append(filtered, st)
			}
		}
		stats = filtered
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].ActionName < stats[j].ActionName })
	return nil, getStatsOutput{Stats: stats}, nil
}

func (s *Server) handleRemoveGoal(_ context.Context, _ *sdkmcp.CallToolRequest, input removeGoalInput) (*sdkmcp.CallToolResult, removeGoalOutput, error) {
	agent, err := s.getAgent(input.Agent)
	if err != nil {
		return nil, removeGoalOutput{}, err
	}
	removed := agent.RemoveGoal(input.Goal)
	return nil, removeGoalOutput{Removed: removed, Goals: agent.GoalNames()}, nil
}

func (s *Server) getAgent(name string) (*Agent, error) {
	if name == "" {
		return nil, fmt.Errorf("agent name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	agent, ok := s.agents[name]
	if !ok {
		return nil, fmt.Errorf("unknown agent %q", name)
	}
	return agent, nil
}
