package system

import (
	"time"

	"github.com/kestrel-dev/kestrel/pkg/output"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

// ActiveProfile returns a copy of the currently active profile, if any.
func (e *Engine) ActiveProfile() (types.Profile, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state.profile == nil {
		return types.Profile{}, false
	}
	return *e.state.profile, true
}

// Services returns the ids of every currently active service, in no
// particular order.
func (e *Engine) Services() []types.ServiceId {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]types.ServiceId, 0, len(e.state.services))
	for id := range e.state.services {
		out = append(out, id)
	}
	return out
}

// OutputHidden reports whether service's output is currently toggled off.
func (e *Engine) OutputHidden(service types.ServiceId) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st, ok := e.state.services[service]
	return ok && st.outputHidden
}

// OutputLinesFrom reads up to num output lines across keys, ascending from
// minIdx (spec.md §4.1's consumer-facing read path).
func (e *Engine) OutputLinesFrom(num int, minIdx *types.OutputIndex, keys []types.OutputKey) []types.OutputLine {
	e.mu.RLock()
	store := e.state.output
	e.mu.RUnlock()
	return store.LinesFrom(num, minIdx, keys)
}

// OutputLinesTo reads up to num output lines across keys, ending at maxIdx.
func (e *Engine) OutputLinesTo(num int, maxIdx *types.OutputIndex, keys []types.OutputKey) []types.OutputLine {
	e.mu.RLock()
	store := e.state.output
	e.mu.RUnlock()
	return store.LinesTo(num, maxIdx, keys)
}

// OutputStore exposes the Engine's Output Store directly, for the optional
// pkg/remote broadcast surface (SPEC_FULL.md §9) to subscribe to. The store
// has its own lock independent of the Engine's, so handing out the pointer
// is safe.
func (e *Engine) OutputStore() *output.Store {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.output
}

// Tasks returns a snapshot of every known task.
func (e *Engine) Tasks() []types.Task {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.tasks.List()
}

// Task returns a copy of one task's current state.
func (e *Engine) Task(id types.TaskId) (types.Task, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.tasks.Get(id)
}

// CancelTask stops a running task immediately, marking it Failed.
func (e *Engine) CancelTask(id types.TaskId, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.tasks.Cancel(id, now)
}
