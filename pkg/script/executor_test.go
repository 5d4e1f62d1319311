package script

import (
	"sync"
	"testing"

	"github.com/kestrel-dev/kestrel/pkg/types"
)

type recordingDispatcher struct {
	mu      sync.Mutex
	actions []types.UserAction
}

func (d *recordingDispatcher) Dispatch(action types.UserAction) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions = append(d.actions, action)
}

func (d *recordingDispatcher) last() types.UserAction {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.actions) == 0 {
		return nil
	}
	return d.actions[len(d.actions)-1]
}

func TestExecutorDispatchesBlockAction(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	x := NewExecutor(dispatcher)
	x.Start()
	defer x.Stop()

	service := types.ServiceId("api")
	snap := Snapshot{Self: &service}

	if _, err := x.Eval(`rerun("api", "build")`, snap); err != nil {
		t.Fatalf("Eval: %v", err)
	}

	got, ok := dispatcher.last().(types.SetBlockActionAction)
	if !ok {
		t.Fatalf("last action = %T, want SetBlockActionAction", dispatcher.last())
	}
	if got.Service != "api" || got.Block != "build" || got.Action != types.ActionReRun {
		t.Errorf("unexpected action: %+v", got)
	}
}

func TestExecutorDispatchesSpawnTaskWithDefaultSelf(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	x := NewExecutor(dispatcher)
	x.Start()
	defer x.Stop()

	service := types.ServiceId("api")
	snap := Snapshot{Self: &service}

	if _, err := x.Eval(`spawn_task("migrate")`, snap); err != nil {
		t.Fatalf("Eval: %v", err)
	}

	got, ok := dispatcher.last().(types.SpawnTaskAction)
	if !ok {
		t.Fatalf("last action = %T, want SpawnTaskAction", dispatcher.last())
	}
	if got.Service != "api" || got.Definition != "migrate" {
		t.Errorf("unexpected action: %+v", got)
	}
}
