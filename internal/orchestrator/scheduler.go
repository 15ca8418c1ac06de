package orchestrator

import (
	"golang.org/x/sync/errgroup"

	"github.com/reqflow/engine/internal/types"
)

// subTaskSpec declares one sub-step within a phase: its name, the role
// executing it, and the names (within the same phase) it depends on.
type subTaskSpec struct {
	Name         string
	Role         types.RoleSpec
	Dependencies []string
}

// runPhaseTasks creates one Task per spec under parent, validates the
// dependency graph is acyclic, then runs the ready-set scheduler: a task
// becomes ready once every dependency task has reached terminal success.
// Tasks are dispatched in waves, each launched through an errgroup capped
// at maxAgentsPerSession; within a wave, ready tasks are dispatched FIFO
// in declaration order, so dispatch order is deterministic across runs.
// It returns the first error encountered;
// callers decide whether that aborts the phase.
func (o *Orchestrator) runPhaseTasks(st *sessionState, parent *types.Task, specs []subTaskSpec, mode types.Mode) ([]*types.Task, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	order := make([]string, 0, len(specs))
	tasksByName := make(map[string]*types.Task, len(specs))
	for _, spec := range specs {
		order = append(order, spec.Name)
		tasksByName[spec.Name] = &types.Task{
			ID:        types.NewID(),
			SessionID: st.session.ID,
			ParentID:  parent.ID,
			Name:      spec.Name,
			Status:    types.StatusIdle,
			Weight:    1.0 / float64(len(specs)),
		}
	}
	for _, spec := range specs {
		deps := make([]types.ID, 0, len(spec.Dependencies))
		for _, depName := range spec.Dependencies {
			dep, ok := tasksByName[depName]
			if !ok {
				return nil, types.New(types.ErrInvalidTaskGraph, "dependency "+depName+" not found in phase")
			}
			deps = append(deps, dep.ID)
		}
		tasksByName[spec.Name].Dependencies = deps
	}

	if cyclic(tasksByName) {
		return nil, types.New(types.ErrInvalidTaskGraph, "cycle detected in task dependency graph")
	}

	for _, name := range order {
		st.putTask(tasksByName[name])
	}

	roleByName := make(map[string]types.RoleSpec, len(specs))
	for _, spec := range specs {
		roleByName[spec.Name] = spec.Role
	}

	maxConcurrent := o.deps.Config.MaxAgentsPerSession
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}

	started := make(map[string]bool, len(specs))
	finishedIDs := make(map[types.ID]bool, len(specs))

	ready := func(name string) bool {
		for _, dep := range tasksByName[name].Dependencies {
			if !finishedIDs[dep] {
				return false
			}
		}
		return true
	}

	// Each wave is computed and waited on sequentially in this goroutine;
	// only the tasks within a wave run concurrently (via errgroup), so
	// started/finishedIDs never need their own lock.
	var lastErr error
	for completed := 0; completed < len(specs); {
		wave := make([]string, 0)
		for _, name := range order {
			if !started[name] && ready(name) {
				started[name] = true
				wave = append(wave, name)
			}
		}

		if len(wave) == 0 {
			break
		}

		g := new(errgroup.Group)
		g.SetLimit(maxConcurrent)
		for _, name := range wave {
			name := name
			g.Go(func() error {
				return o.runTaskWithRetry(st, roleByName[name], tasksByName[name], mode)
			})
		}
		if err := g.Wait(); err != nil && lastErr == nil {
			lastErr = err
		}

		for _, name := range wave {
			finishedIDs[tasksByName[name].ID] = true
		}
		completed += len(wave)

		if lastErr != nil {
			break
		}
	}

	out := make([]*types.Task, 0, len(specs))
	for _, spec := range specs {
		out = append(out, tasksByName[spec.Name])
	}
	return out, lastErr
}

// cyclic reports whether the dependency graph formed by tasksByName's
// Dependencies contains a cycle, via recursive DFS with three-state
// (unvisited/visiting/visited) marking.
func cyclic(tasksByName map[string]*types.Task) bool {
	byID := make(map[types.ID]*types.Task, len(tasksByName))
	for _, t := range tasksByName {
		byID[t.ID] = t
	}

	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)
	state := make(map[types.ID]int, len(byID))

	var visit func(id types.ID) bool
	visit = func(id types.ID) bool {
		switch state[id] {
		case visiting:
			return true
		case visited:
			return false
		}
		state[id] = visiting
		for _, dep := range byID[id].Dependencies {
			if visit(dep) {
				return true
			}
		}
		state[id] = visited
		return false
	}

	for id := range byID {
		if visit(id) {
			return true
		}
	}
	return false
}
