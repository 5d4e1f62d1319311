package system

import (
	"time"

	"github.com/kestrel-dev/kestrel/pkg/action"
	"github.com/kestrel-dev/kestrel/pkg/trigger"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

// SelectProfile switches the active profile, resetting every block Runtime
// to Initial, clearing the task registry and automation scheduler, and
// rebuilding file watches (spec.md §3 Lifecycle).
func (e *Engine) SelectProfile(profile types.ServiceId) {
	p, ok := e.Profiles()[profile]
	if !ok {
		return
	}

	e.mu.Lock()
	e.state.activate(p)
	e.triggers.Reset()
	e.scheduler.Reset()
	e.mu.Unlock()

	if e.watcher != nil {
		e.watcher.Rebuild(&p)
	}
}

// ClearProfile deactivates whichever profile is active, leaving the engine
// idle (spec.md §3 Lifecycle: "the active profile can also be cleared").
func (e *Engine) ClearProfile() {
	e.mu.Lock()
	e.state.deactivate()
	e.triggers.Reset()
	e.scheduler.Reset()
	e.mu.Unlock()

	if e.watcher != nil {
		e.watcher.Rebuild(nil)
	}
}

// ToggleOutput flips whether service's output is shown.
func (e *Engine) ToggleOutput(service types.ServiceId) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st, ok := e.state.services[service]; ok {
		st.outputHidden = !st.outputHidden
	}
}

// ToggleOutputAll flips every service's output visibility together: if any
// service is currently visible, all are hidden; otherwise all are shown.
func (e *Engine) ToggleOutputAll() {
	e.mu.Lock()
	defer e.mu.Unlock()

	anyVisible := false
	for _, st := range e.state.services {
		if !st.outputHidden {
			anyVisible = true
			break
		}
	}
	for _, st := range e.state.services {
		st.outputHidden = anyVisible
	}
}

// SetBlockAction sets block's pending BlockAction, consumed on its Runtime's
// next Tick (spec.md §4.12).
func (e *Engine) SetBlockAction(service types.ServiceId, blockID types.BlockId, act types.BlockAction) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st, ok := e.state.services[service]
	if !ok {
		return
	}
	rt, ok := st.blocks[blockID]
	if !ok {
		return
	}
	rt.SetAction(act)
}

// SpawnTask starts a new Task from definition, optionally scoped to
// service.
func (e *Engine) SpawnTask(definition types.TaskDefinitionId, service types.ServiceId) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.tasks.Spawn(definition, service, time.Now())
}

// Shutdown sets should_exit, observed by the worker loop and every
// procwrap-managed process's manager goroutine on their next iteration
// (spec.md §4.12).
func (e *Engine) Shutdown() {
	e.shouldExit.Store(true)
}

// EnqueueAutomation satisfies pkg/watch's AutomationDispatcher, forwarding
// straight to the Automation Scheduler.
func (e *Engine) EnqueueAutomation(service types.ServiceId, automation types.Automation, now time.Time) {
	e.scheduler.EnqueueAutomation(service, automation, now)
}

// ProcessPendingAutomations satisfies pkg/watch's AutomationDispatcher,
// supplying the Scheduler with its own task spawner, script dispatcher and a
// fresh snapshot under a read lock.
func (e *Engine) ProcessPendingAutomations(now time.Time) {
	e.mu.RLock()
	snapshot := e.state.snapshot(nil)
	e.mu.RUnlock()
	e.scheduler.ProcessPendingAutomations(now, e.state.tasks, e.scriptExec, snapshot)
}

// MarkTriggered satisfies pkg/trigger's Marker, applying a false→true edge
// under the engine's own write lock (spec.md §4.10).
func (e *Engine) MarkTriggered(service types.ServiceId, automationID types.TaskDefinitionId, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.markTriggeredLocked(service, automationID, now)
}

// Profiles returns every profile config has loaded, keyed by id. Populated
// by pkg/config at startup via LoadProfiles.
func (e *Engine) Profiles() map[types.ServiceId]types.Profile {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.profiles
}

// LoadProfiles replaces the set of profiles SelectProfile can activate.
func (e *Engine) LoadProfiles(profiles []types.Profile) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profiles = make(map[types.ServiceId]types.Profile, len(profiles))
	for _, p := range profiles {
		e.profiles[p.Id] = p
	}
}

var (
	_ action.Mutator = (*Engine)(nil)
	_ trigger.Marker = (*Engine)(nil)
)
