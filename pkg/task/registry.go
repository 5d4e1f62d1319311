package task

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kestrel-dev/kestrel/pkg/types"
)

// Registry holds every live Task alongside the Runtime driving its current
// step. One Registry is shared for the process's lifetime; spec.md's
// profile-activation reset clears it via Reset.
type Registry struct {
	mu          sync.Mutex
	tasks       map[types.TaskId]*types.Task
	runtimes    map[types.TaskId]*Runtime
	inlineSteps map[types.TaskId][]types.SequenceStep
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tasks:       make(map[types.TaskId]*types.Task),
		runtimes:    make(map[types.TaskId]*Runtime),
		inlineSteps: make(map[types.TaskId][]types.SequenceStep),
	}
}

// Spawn creates a new Running task instance for the given definition and
// returns its assigned id.
func (r *Registry) Spawn(definitionID types.TaskDefinitionId, serviceID types.ServiceId, now time.Time) types.TaskId {
	id := types.TaskId(uuid.NewString())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[id] = &types.Task{
		Id:           id,
		DefinitionId: definitionID,
		ServiceId:    serviceID,
		Status:       types.RunningTaskStatus(now),
		StartTime:    now,
	}
	r.runtimes[id] = NewRuntime()
	return id
}

// SpawnInline creates a Running task instance from an anonymous step
// sequence — an automation's InlineStepsAction effect (spec.md §3:
// "Automation... action resolves to one or more tasks (by reference or
// inline steps)") rather than a registered TaskDefinition.
func (r *Registry) SpawnInline(steps []types.SequenceStep, serviceID types.ServiceId, now time.Time) types.TaskId {
	id := types.TaskId(uuid.NewString())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[id] = &types.Task{
		Id:        id,
		ServiceId: serviceID,
		Status:    types.RunningTaskStatus(now),
		StartTime: now,
	}
	r.runtimes[id] = NewRuntime()
	r.inlineSteps[id] = steps
	return id
}

// Cancel stops a task's in-flight operation and marks it Failed immediately.
// A no-op for tasks that are already Finished or Failed, or unknown.
func (r *Registry) Cancel(id types.TaskId, now time.Time) {
	r.mu.Lock()
	t, ok := r.tasks[id]
	rt := r.runtimes[id]
	r.mu.Unlock()
	if !ok || t.Status.Kind != types.TaskRunning {
		return
	}
	if rt != nil {
		rt.Stop()
	}
	r.mu.Lock()
	t.Status = types.FailedTaskStatus(now)
	r.mu.Unlock()
}

// Get returns a copy of one task's current state.
func (r *Registry) Get(id types.TaskId) (types.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return types.Task{}, false
	}
	return *t, true
}

// List returns a snapshot of every known task.
func (r *Registry) List() []types.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, *t)
	}
	return out
}

// Reset drops every task and runtime — used on profile deactivation
// (spec.md §3 Lifecycle).
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rt := range r.runtimes {
		rt.Stop()
	}
	r.tasks = make(map[types.TaskId]*types.Task)
	r.runtimes = make(map[types.TaskId]*Runtime)
	r.inlineSteps = make(map[types.TaskId][]types.SequenceStep)
}

// TickRunning advances one step of every currently-Running task. resolve
// looks up the step list for a task's definition id and owning service
// (service-local first, then profile-level, per spec.md §4.8); tasks whose
// definition can no longer be resolved are left untouched on this pass.
// ctxFor builds the Context each task's step should run against — separate
// tasks can belong to different services with different workdirs/base
// environments, so the caller gets one built per task rather than a single
// shared value.
func (r *Registry) TickRunning(ctx context.Context, now time.Time, ctxFor func(t types.Task) Context, resolve func(t types.Task) ([]types.SequenceStep, bool)) {
	r.mu.Lock()
	running := make([]*types.Task, 0)
	for _, t := range r.tasks {
		if t.Status.Kind == types.TaskRunning {
			running = append(running, t)
		}
	}
	r.mu.Unlock()

	for _, t := range running {
		r.mu.Lock()
		steps, ok := r.inlineSteps[t.Id]
		r.mu.Unlock()
		if !ok {
			steps, ok = resolve(*t)
			if !ok {
				continue
			}
		}

		r.mu.Lock()
		rt := r.runtimes[t.Id]
		if rt == nil {
			rt = NewRuntime()
			r.runtimes[t.Id] = rt
		}
		r.mu.Unlock()

		newStatus := rt.Tick(ctx, now, ctxFor(*t), t.Id, steps, t.Status)

		r.mu.Lock()
		t.Status = newStatus
		r.mu.Unlock()
	}
}
