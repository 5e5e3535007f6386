package flow

// router is the delegation state machine for one run. At each tick it selects
// the pending stages whose preconditions hold against current state; the
// engine expands those into tasks. A stage with fan-out tasks is Done only
// once every task has been accepted.
type router[S any] struct {
	graph     *Graph[S]
	status    map[string]Status
	remaining map[string]int
}

func newRouter[S any](graph *Graph[S]) *router[S] {
	status := make(map[string]Status, len(graph.stages))
	for _, stage := range graph.stages {
		status[stage.ID()] = StatusPending
	}
	return &router[S]{
		graph:     graph,
		status:    status,
		remaining: make(map[string]int),
	}
}

// eligible returns pending stages whose preconditions hold, in registration
// order so scheduling is deterministic.
func (r *router[S]) eligible(s *S) []Stage[S] {
	var stages []Stage[S]
	for _, stage := range r.graph.stages {
		if r.status[stage.ID()] != StatusPending {
			continue
		}
		if stage.Ready(s) {
			stages = append(stages, stage)
		}
	}
	return stages
}

// start marks a stage running with the given number of outstanding tasks.
// A stage that expands to zero tasks is immediately Done.
func (r *router[S]) start(id string, tasks int) {
	if tasks == 0 {
		r.status[id] = StatusDone
		return
	}
	r.status[id] = StatusRunning
	r.remaining[id] = tasks
}

// taskDone records one accepted task and reports whether the stage finished.
func (r *router[S]) taskDone(id string) bool {
	r.remaining[id]--
	if r.remaining[id] > 0 {
		return false
	}
	delete(r.remaining, id)
	r.status[id] = StatusDone
	return true
}

// fail marks a stage terminally failed.
func (r *router[S]) fail(id string) {
	delete(r.remaining, id)
	r.status[id] = StatusFailed
}

// done reports whether the run completion criterion holds.
func (r *router[S]) done(s *S) bool {
	return r.graph.complete(s)
}
