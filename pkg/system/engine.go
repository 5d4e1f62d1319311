package system

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/kestrel-dev/kestrel/pkg/action"
	"github.com/kestrel-dev/kestrel/pkg/automation"
	"github.com/kestrel-dev/kestrel/pkg/block"
	"github.com/kestrel-dev/kestrel/pkg/log"
	"github.com/kestrel-dev/kestrel/pkg/requirement"
	"github.com/kestrel-dev/kestrel/pkg/script"
	"github.com/kestrel-dev/kestrel/pkg/task"
	"github.com/kestrel-dev/kestrel/pkg/trigger"
	"github.com/kestrel-dev/kestrel/pkg/types"
	"github.com/kestrel-dev/kestrel/pkg/watch"
)

// tickInterval is the worker loop's period (SPEC_FULL.md §6: "10ms-period
// worker loop", the teacher's reconciler/scheduler ticker idiom sped up by
// three orders of magnitude for an interactive local tool instead of a
// cluster control plane).
const tickInterval = 10 * time.Millisecond

// Engine owns State behind one sync.RWMutex and drives every tick-shaped
// collaborator package from a single goroutine (spec.md §5, SPEC_FULL.md
// §6) — the rough analogue of cuemby-warren/pkg/manager.Manager, with the
// Raft-backed storage.Store dropped for an in-memory State since spec.md §6
// mandates no persistence.
type Engine struct {
	mu       sync.RWMutex
	state    *State
	profiles map[types.ServiceId]types.Profile

	scheduler  *automation.Scheduler
	triggers   *trigger.Handler
	scriptExec *script.Executor
	actionProc *action.Processor
	watcher    *watch.Watcher

	logger zerolog.Logger

	shouldExit atomic.Bool
	stopCh     chan struct{}
}

// New returns an Engine with no active profile. Call Start to begin the
// worker loop.
func New() *Engine {
	e := &Engine{
		state:     newState(),
		profiles:  make(map[types.ServiceId]types.Profile),
		scheduler: automation.NewScheduler(),
		triggers:  trigger.NewHandler(),
		logger:    log.WithComponent("engine"),
		stopCh:    make(chan struct{}),
	}
	e.scriptExec = script.NewExecutor(e)
	e.actionProc = action.NewProcessor(e, e.logger)

	w, err := watch.New(e, log.WithComponent("watch"))
	if err != nil {
		// fsnotify setup failure (e.g. inotify instance limit) leaves the
		// engine running with file-triggered automations inert rather than
		// failing the whole process — every other component still works.
		e.logger.Warn().Err(err).Msg("file watcher unavailable, FileModified triggers disabled")
	} else {
		e.watcher = w
	}

	return e
}

// Start begins the worker loop and every collaborator goroutine (spec.md
// §5's thread roster).
func (e *Engine) Start() {
	e.scriptExec.Start()
	e.actionProc.Start()
	if e.watcher != nil {
		e.watcher.Start()
	}
	go e.run()
}

// Stop terminates the worker loop and every collaborator goroutine.
func (e *Engine) Stop() {
	close(e.stopCh)
	e.scriptExec.Stop()
	e.actionProc.Stop()
	if e.watcher != nil {
		e.watcher.Stop()
	}
}

// Dispatch hands action to the Action Processor, satisfying
// pkg/script.Dispatcher so script-originated actions share the Processor's
// queue with user-originated ones.
func (e *Engine) Dispatch(a types.UserAction) {
	e.actionProc.Dispatch(a)
}

func (e *Engine) run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	e.logger.Info().Msg("worker loop started")

	for {
		select {
		case <-ticker.C:
			e.tick(context.Background(), time.Now())
			if e.shouldExit.Load() {
				e.logger.Info().Msg("shutdown requested, worker loop exiting")
				return
			}
		case <-e.stopCh:
			return
		}
	}
}

// tick runs exactly one pass over every block Runtime and every running
// Task, then the Query Trigger Handler and Automation Scheduler (spec.md
// §5: "one worker thread... iterates blocks and tasks").
func (e *Engine) tick(ctx context.Context, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.profile == nil {
		return
	}

	snapshot := e.state.snapshot(nil)
	scriptEngine := script.NewEngine()

	for sid, st := range e.state.services {
		self := sid
		for bid, rt := range st.blocks {
			rt.Tick(ctx, now, e.blockContextLocked(st, bid, self, scriptEngine, snapshot))
		}
	}

	e.state.tasks.TickRunning(ctx, now, func(t types.Task) task.Context {
		return e.taskContextLocked(t.ServiceId, scriptEngine, snapshot)
	}, e.resolveTaskDefinitionLocked)

	e.triggers.Tick(*e.state.profile, scriptEngine, snapshot, now, lockedMarker{e})
	e.scheduler.ProcessPendingAutomations(now, e.state.tasks, e.scriptExec, snapshot)
}

// lockedMarker adapts Engine to trigger.Marker for use from inside tick,
// where e.mu is already held. Handler.Tick calls Marker.MarkTriggered
// synchronously on the tick goroutine (spec.md §4.10), so routing that
// call through the public, self-locking Engine.MarkTriggered would
// re-acquire e.mu on the same goroutine and deadlock; this adapter applies
// the edge directly against State instead.
type lockedMarker struct{ e *Engine }

func (m lockedMarker) MarkTriggered(service types.ServiceId, automationID types.TaskDefinitionId, now time.Time) {
	m.e.state.markTriggeredLocked(service, automationID, now)
}

func (e *Engine) blockContextLocked(st *serviceState, bid types.BlockId, self types.ServiceId, scriptEngine *script.Engine, snapshot script.Snapshot) block.Context {
	b, _ := st.definition.Block(bid)
	return block.Context{
		Service:    self,
		Block:      b,
		Workdir:    st.definition.Workdir,
		BaseEnv:    st.definition.Env,
		Output:     e.state.output,
		Engine:     scriptEngine,
		Snapshot:   snapshot,
		Lookup:     e,
		ShouldExit: e.shouldExit.Load,
		Logger:     log.WithBlock(string(self), string(bid)),
	}
}

// taskContextLocked builds the Context a task belonging to serviceID (empty
// for a profile-level task) should run its current step against. Callers
// must hold e.mu.
func (e *Engine) taskContextLocked(serviceID types.ServiceId, scriptEngine *script.Engine, snapshot script.Snapshot) task.Context {
	workdir := ""
	baseEnv := map[string]string{}
	if serviceID != "" {
		if st, ok := e.state.services[serviceID]; ok {
			workdir = st.definition.Workdir
			baseEnv = st.definition.Env
		}
	} else if e.state.profile != nil {
		workdir = e.state.profile.Workdir
	}
	return task.Context{
		Workdir:  workdir,
		BaseEnv:  baseEnv,
		Output:   e.state.output,
		Engine:   scriptEngine,
		Snapshot: snapshot,
		Lookup:   e,
	}
}

// resolveTaskDefinitionLocked implements the resolve callback
// task.Registry.TickRunning needs: service-local-first-then-profile-level
// lookup (spec.md §4.8), scoped by whichever service (if any) owns t.
func (e *Engine) resolveTaskDefinitionLocked(t types.Task) ([]types.SequenceStep, bool) {
	var svc types.Service
	if st, ok := e.state.services[t.ServiceId]; ok {
		svc = st.definition
	}
	def, ok := task.ResolveDefinition(svc, *e.state.profile, t.DefinitionId)
	if !ok {
		return nil, false
	}
	return def.Steps, true
}

// BlockStatus satisfies pkg/requirement.StatusLookup and pkg/task's
// equivalent need: the Dependency requirement's read of another block's
// current status.
func (e *Engine) BlockStatus(service types.ServiceId, blockID types.BlockId) (types.BlockStatus, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st, ok := e.state.services[service]
	if !ok {
		return types.BlockStatus{}, false
	}
	rt, ok := st.blocks[blockID]
	if !ok {
		return types.BlockStatus{}, false
	}
	return rt.Status(), true
}

// Compile-time assertions that Engine satisfies every cross-package
// interface it was built to implement (spec.md §5's hub role).
var (
	_ requirement.StatusLookup   = (*Engine)(nil)
	_ script.Dispatcher          = (*Engine)(nil)
	_ watch.AutomationDispatcher = (*Engine)(nil)
)
