package automation

import (
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/kestrel-dev/kestrel/pkg/script"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

// triggerableParkDuration is how far into the future a Triggerable-mode
// automation's effect is parked — spec.md §4.11 names "1000y" as
// "effectively parked until manually triggered"; 1000 years round-trips
// through time.Time without overflow the way math.MaxInt64 nanoseconds
// would not.
const triggerableParkDuration = 1000 * 365 * 24 * time.Hour

// TaskSpawner is the subset of pkg/task.Registry the scheduler needs to
// realize a task-producing effect.
type TaskSpawner interface {
	Spawn(definitionID types.TaskDefinitionId, serviceID types.ServiceId, now time.Time) types.TaskId
	SpawnInline(steps []types.SequenceStep, serviceID types.ServiceId, now time.Time) types.TaskId
}

// ScriptDispatcher is the subset of pkg/script.Executor the scheduler needs
// to run a single dispatching script synchronously (spec.md §4.11: an
// InlineStepsAction effect consisting solely of script steps resolves
// straight to a BlockAction via the script's rerun/stop/etc. builtins,
// rather than being spawned as a tracked Task).
type ScriptDispatcher interface {
	Eval(scr string, snap script.Snapshot) (goja.Value, error)
}

// Scheduler holds pending automation effects and fires the ones whose
// debounce window has elapsed (spec.md §4.11).
type Scheduler struct {
	mu      sync.Mutex
	pending []types.PendingAutomation
}

// NewScheduler returns an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Reset drops every pending effect — used on profile deactivation (spec.md
// §3 Lifecycle).
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

// EnqueueAutomation schedules automation's effect(s) for service, skipping
// disabled automations and Disabled mode, and debouncing by replacing any
// already-pending instance of the same effect (spec.md §4.11).
func (s *Scheduler) EnqueueAutomation(service types.ServiceId, automation types.Automation, now time.Time) {
	if !automation.Enabled || automation.Mode == types.ModeDisabled {
		return
	}

	notBefore := now.Add(automation.Debounce)
	if automation.Mode == types.ModeTriggerable {
		notBefore = now.Add(triggerableParkDuration)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, effect := range effectsOf(automation.Action) {
		s.removePendingLocked(service, automation.Id, effect)
		s.pending = append(s.pending, types.PendingAutomation{
			Service:      service,
			AutomationId: automation.Id,
			Effect:       effect,
			NotBefore:    notBefore,
		})
	}
}

// removePendingLocked drops any pending entry for (service, automationID)
// whose effect matches effect's key. Callers must hold s.mu.
func (s *Scheduler) removePendingLocked(service types.ServiceId, automationID types.TaskDefinitionId, effect types.Action) {
	key := effectKey(effect)
	kept := s.pending[:0]
	for _, p := range s.pending {
		if p.Service == service && p.AutomationId == automationID && effectKey(p.Effect) == key {
			continue
		}
		kept = append(kept, p)
	}
	s.pending = kept
}

// ProcessPendingAutomations dispatches every pending effect whose NotBefore
// has elapsed, then removes them (spec.md §4.11).
func (s *Scheduler) ProcessPendingAutomations(now time.Time, spawner TaskSpawner, dispatcher ScriptDispatcher, snapshot script.Snapshot) {
	s.mu.Lock()
	var fire []types.PendingAutomation
	kept := s.pending[:0]
	for _, p := range s.pending {
		if !now.Before(p.NotBefore) {
			fire = append(fire, p)
		} else {
			kept = append(kept, p)
		}
	}
	s.pending = kept
	s.mu.Unlock()

	for _, p := range fire {
		dispatchEffect(p, spawner, dispatcher, snapshot, now)
	}
}

// Pending returns a snapshot of every effect awaiting dispatch.
func (s *Scheduler) Pending() []types.PendingAutomation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.PendingAutomation, len(s.pending))
	copy(out, s.pending)
	return out
}

func dispatchEffect(p types.PendingAutomation, spawner TaskSpawner, dispatcher ScriptDispatcher, snapshot script.Snapshot, now time.Time) {
	switch effect := p.Effect.(type) {
	case types.TaskReferenceAction:
		spawner.Spawn(effect.Definition, p.Service, now)
	case types.InlineStepsAction:
		if dispatcher != nil && onlyScriptSteps(effect.Steps) {
			for _, step := range effect.Steps {
				_, _ = dispatcher.Eval(step.(types.ScriptStep).Script, snapshot)
			}
			return
		}
		spawner.SpawnInline(effect.Steps, p.Service, now)
	}
}

func onlyScriptSteps(steps []types.SequenceStep) bool {
	if len(steps) == 0 {
		return false
	}
	for _, s := range steps {
		if _, ok := s.(types.ScriptStep); !ok {
			return false
		}
	}
	return true
}

// effectsOf expands an Automation's Action into the individual effects it
// produces — a TaskReferenceListAction becomes one TaskReferenceAction per
// definition, each its own pending effect (spec.md §3).
func effectsOf(action types.Action) []types.Action {
	switch a := action.(type) {
	case types.TaskReferenceAction:
		return []types.Action{a}
	case types.TaskReferenceListAction:
		effects := make([]types.Action, len(a.Definitions))
		for i, d := range a.Definitions {
			effects[i] = types.TaskReferenceAction{Definition: d}
		}
		return effects
	case types.InlineStepsAction:
		return []types.Action{a}
	default:
		return nil
	}
}

// effectKey identifies "the same effect" for debounce-replacement purposes.
// Task-producing effects key on the definition id; inline step effects have
// no natural identity, so the whole automation's inline effect is treated
// as one logical slot (a single automation has at most one InlineStepsAction).
func effectKey(effect types.Action) string {
	switch a := effect.(type) {
	case types.TaskReferenceAction:
		return fmt.Sprintf("task:%s", a.Definition)
	case types.InlineStepsAction:
		return "inline"
	default:
		return "unknown"
	}
}
