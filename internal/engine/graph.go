// Package engine runs a directed graph of named stages over a session's
// workflow state, with per-item fan-out, checkpointing after every
// stage, and durable suspend/resume at human-input boundaries.
package engine

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/handover/internal/session"
)

// StageFunc executes one stage against the session state and returns a
// partial update. It may mutate owned state (the backlog) in place;
// everything else flows through the update's merge policy.
type StageFunc func(ctx context.Context, st *session.State) (*session.Update, error)

// RouteFunc computes the next stage name from the just-produced state.
// Returning "" terminates the workflow.
type RouteFunc func(st *session.State) string

// Stage is one node in the graph. Routing is either a fixed Next edge
// or a Route function; a stage with neither is terminal. A stage with a
// FanOut runs the per-item sub-workflow instead of Run.
type Stage struct {
	Name   string
	Run    StageFunc
	Next   string
	Route  RouteFunc
	FanOut *FanOut
}

// Graph is a directed graph of stages with a single entry point.
type Graph struct {
	start  string
	stages map[string]*Stage
}

// NewGraph creates an empty graph entered at the named stage.
func NewGraph(start string) *Graph {
	return &Graph{
		start:  start,
		stages: make(map[string]*Stage),
	}
}

// Add registers a stage. Later registrations with the same name replace
// earlier ones.
func (g *Graph) Add(s *Stage) *Graph {
	g.stages[s.Name] = s
	return g
}

// Start returns the entry stage name.
func (g *Graph) Start() string {
	return g.start
}

// stage looks up a stage by name.
func (g *Graph) stage(name string) (*Stage, bool) {
	s, ok := g.stages[name]
	return s, ok
}

// Validate checks that the entry point exists, every fixed edge
// resolves, and every stage has something to execute.
func (g *Graph) Validate() error {
	if _, ok := g.stages[g.start]; !ok {
		return fmt.Errorf("start stage %q not registered", g.start)
	}
	for name, s := range g.stages {
		if s.Run == nil && s.FanOut == nil {
			return fmt.Errorf("stage %q has no Run function", name)
		}
		if s.Next != "" {
			if _, ok := g.stages[s.Next]; !ok {
				return fmt.Errorf("stage %q: next stage %q not registered", name, s.Next)
			}
		}
	}
	return nil
}
