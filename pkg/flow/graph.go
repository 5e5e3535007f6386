package flow

import "fmt"

// Graph is the static workflow topology: a registry of stages plus the run
// completion predicate. It is mutable only until Compile; a compiled graph is
// executed many times against fresh state instances.
type Graph[S any] struct {
	stages   []Stage[S]
	index    map[string]Stage[S]
	complete func(s *S) bool
	compiled bool
}

// NewGraph creates an empty graph.
func NewGraph[S any]() *Graph[S] {
	return &Graph[S]{
		index: make(map[string]Stage[S]),
	}
}

// Add registers a stage. Stage ids must be unique and non-empty; adding to a
// compiled graph is rejected.
func (g *Graph[S]) Add(stage Stage[S]) error {
	if g.compiled {
		return fmt.Errorf("add %q: graph already compiled", stage.ID())
	}
	id := stage.ID()
	if id == "" {
		return fmt.Errorf("stage id cannot be empty")
	}
	if _, exists := g.index[id]; exists {
		return fmt.Errorf("duplicate stage id: %s", id)
	}
	g.stages = append(g.stages, stage)
	g.index[id] = stage
	return nil
}

// Complete declares the run completion criterion. The engine ends a run with
// RunComplete once the predicate holds over the current state.
func (g *Graph[S]) Complete(fn func(s *S) bool) {
	if !g.compiled {
		g.complete = fn
	}
}

// Compile freezes the graph. It fails if no stages are registered or the
// completion criterion is missing.
func (g *Graph[S]) Compile() error {
	if g.compiled {
		return nil
	}
	if len(g.stages) == 0 {
		return fmt.Errorf("graph has no stages")
	}
	if g.complete == nil {
		return fmt.Errorf("graph has no completion criterion")
	}
	g.compiled = true
	return nil
}

// Stage returns the registered stage for id.
func (g *Graph[S]) Stage(id string) (Stage[S], bool) {
	stage, ok := g.index[id]
	return stage, ok
}

// Stages returns the stage ids in registration order.
func (g *Graph[S]) Stages() []string {
	ids := make([]string, 0, len(g.stages))
	for _, stage := range g.stages {
		ids = append(ids, stage.ID())
	}
	return ids
}
