package automation

import (
	"testing"
	"time"

	"github.com/dop251/goja"

	"github.com/kestrel-dev/kestrel/pkg/script"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

type fakeSpawner struct {
	spawned       []types.TaskDefinitionId
	inlineSpawned [][]types.SequenceStep
}

func (f *fakeSpawner) Spawn(definitionID types.TaskDefinitionId, _ types.ServiceId, _ time.Time) types.TaskId {
	f.spawned = append(f.spawned, definitionID)
	return types.TaskId("t")
}

func (f *fakeSpawner) SpawnInline(steps []types.SequenceStep, _ types.ServiceId, _ time.Time) types.TaskId {
	f.inlineSpawned = append(f.inlineSpawned, steps)
	return types.TaskId("t")
}

type fakeDispatcher struct {
	evaluated []string
}

func (f *fakeDispatcher) Eval(scr string, _ script.Snapshot) (goja.Value, error) {
	f.evaluated = append(f.evaluated, scr)
	return nil, nil
}

func TestEnqueueSkipsDisabledAndDisabledMode(t *testing.T) {
	s := NewScheduler()
	now := time.Now()

	s.EnqueueAutomation("api", types.Automation{Id: "a", Enabled: false, Action: types.TaskReferenceAction{Definition: "build"}}, now)
	s.EnqueueAutomation("api", types.Automation{Id: "b", Enabled: true, Mode: types.ModeDisabled, Action: types.TaskReferenceAction{Definition: "build"}}, now)

	if len(s.Pending()) != 0 {
		t.Errorf("expected no pending entries, got %d", len(s.Pending()))
	}
}

func TestEnqueueDebounceReplacesSameEffect(t *testing.T) {
	s := NewScheduler()
	now := time.Now()
	automation := types.Automation{Id: "a", Enabled: true, Debounce: time.Second, Action: types.TaskReferenceAction{Definition: "build"}}

	s.EnqueueAutomation("api", automation, now)
	s.EnqueueAutomation("api", automation, now.Add(100*time.Millisecond))

	pending := s.Pending()
	if len(pending) != 1 {
		t.Fatalf("expected exactly one pending entry after re-enqueue, got %d", len(pending))
	}
	want := now.Add(100 * time.Millisecond).Add(time.Second)
	if !pending[0].NotBefore.Equal(want) {
		t.Errorf("NotBefore = %v, want %v (debounce window restarted)", pending[0].NotBefore, want)
	}
}

func TestEnqueueExpandsTaskReferenceList(t *testing.T) {
	s := NewScheduler()
	now := time.Now()
	automation := types.Automation{
		Id:      "a",
		Enabled: true,
		Action:  types.TaskReferenceListAction{Definitions: []types.TaskDefinitionId{"one", "two"}},
	}

	s.EnqueueAutomation("api", automation, now)

	if len(s.Pending()) != 2 {
		t.Fatalf("expected two pending effects, got %d", len(s.Pending()))
	}
}

func TestEnqueueTriggerableParksFarInFuture(t *testing.T) {
	s := NewScheduler()
	now := time.Now()
	automation := types.Automation{Id: "a", Enabled: true, Mode: types.ModeTriggerable, Action: types.TaskReferenceAction{Definition: "build"}}

	s.EnqueueAutomation("api", automation, now)

	pending := s.Pending()
	if len(pending) != 1 {
		t.Fatalf("expected one pending entry, got %d", len(pending))
	}
	if pending[0].NotBefore.Before(now.Add(100 * 365 * 24 * time.Hour)) {
		t.Errorf("expected NotBefore to be parked far in the future, got %v", pending[0].NotBefore)
	}
}

func TestProcessPendingSpawnsTaskOnceDue(t *testing.T) {
	s := NewScheduler()
	now := time.Now()
	automation := types.Automation{Id: "a", Enabled: true, Action: types.TaskReferenceAction{Definition: "build"}}
	s.EnqueueAutomation("api", automation, now)

	spawner := &fakeSpawner{}
	s.ProcessPendingAutomations(now, spawner, nil, script.Snapshot{})
	if len(spawner.spawned) != 0 {
		t.Fatalf("expected no spawn before debounce elapses, got %d", len(spawner.spawned))
	}

	s.ProcessPendingAutomations(now.Add(time.Hour), spawner, nil, script.Snapshot{})
	if len(spawner.spawned) != 1 || spawner.spawned[0] != "build" {
		t.Fatalf("expected one spawn of 'build', got %v", spawner.spawned)
	}
	if len(s.Pending()) != 0 {
		t.Errorf("expected pending entry to be removed after firing, got %d", len(s.Pending()))
	}
}

func TestProcessPendingRunsScriptOnlyInlineEffectDirectly(t *testing.T) {
	s := NewScheduler()
	now := time.Now()
	automation := types.Automation{
		Id:      "a",
		Enabled: true,
		Action:  types.InlineStepsAction{Steps: []types.SequenceStep{types.ScriptStep{Script: "rerun(self, 'build')"}}},
	}
	s.EnqueueAutomation("api", automation, now)

	spawner := &fakeSpawner{}
	dispatcher := &fakeDispatcher{}
	s.ProcessPendingAutomations(now, spawner, dispatcher, script.Snapshot{})

	if len(dispatcher.evaluated) != 1 {
		t.Fatalf("expected the script-only inline effect to run directly, got %d evals", len(dispatcher.evaluated))
	}
	if len(spawner.inlineSpawned) != 0 {
		t.Errorf("expected no inline task spawn for a script-only effect, got %d", len(spawner.inlineSpawned))
	}
}

func TestProcessPendingSpawnsInlineTaskForMixedSteps(t *testing.T) {
	s := NewScheduler()
	now := time.Now()
	automation := types.Automation{
		Id:      "a",
		Enabled: true,
		Action: types.InlineStepsAction{Steps: []types.SequenceStep{
			types.ExecStep{Exec: types.Exec{Executable: "/bin/true"}},
		}},
	}
	s.EnqueueAutomation("api", automation, now)

	spawner := &fakeSpawner{}
	s.ProcessPendingAutomations(now, spawner, nil, script.Snapshot{})

	if len(spawner.inlineSpawned) != 1 {
		t.Fatalf("expected one inline task spawn, got %d", len(spawner.inlineSpawned))
	}
}
