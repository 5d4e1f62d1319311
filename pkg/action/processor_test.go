package action

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kestrel-dev/kestrel/pkg/types"
)

type recordingMutator struct {
	mu              sync.Mutex
	selectedProfile types.ServiceId
	toggledOutputs  []types.ServiceId
	toggledAll      int
	blockActions    []types.SetBlockActionAction
	spawnedTasks    []types.SpawnTaskAction
	shutdowns       int
}

func (m *recordingMutator) SelectProfile(profile types.ServiceId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selectedProfile = profile
}

func (m *recordingMutator) ToggleOutput(service types.ServiceId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toggledOutputs = append(m.toggledOutputs, service)
}

func (m *recordingMutator) ToggleOutputAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toggledAll++
}

func (m *recordingMutator) SetBlockAction(service types.ServiceId, block types.BlockId, act types.BlockAction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockActions = append(m.blockActions, types.SetBlockActionAction{Service: service, Block: block, Action: act})
}

func (m *recordingMutator) SpawnTask(definition types.TaskDefinitionId, service types.ServiceId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spawnedTasks = append(m.spawnedTasks, types.SpawnTaskAction{Definition: definition, Service: service})
}

func (m *recordingMutator) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdowns++
}

func (m *recordingMutator) snapshot() recordingMutator {
	m.mu.Lock()
	defer m.mu.Unlock()
	return recordingMutator{
		selectedProfile: m.selectedProfile,
		toggledOutputs:  append([]types.ServiceId(nil), m.toggledOutputs...),
		toggledAll:      m.toggledAll,
		blockActions:    append([]types.SetBlockActionAction(nil), m.blockActions...),
		spawnedTasks:    append([]types.SpawnTaskAction(nil), m.spawnedTasks...),
		shutdowns:       m.shutdowns,
	}
}

func awaitCondition(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for condition")
}

func TestProcessorDispatchesEachActionKind(t *testing.T) {
	mutator := &recordingMutator{}
	p := NewProcessor(mutator, zerolog.Nop())
	p.Start()
	defer p.Stop()

	p.Dispatch(types.SelectProfileAction{Profile: "prod"})
	p.Dispatch(types.ToggleOutputAction{Service: "api"})
	p.Dispatch(types.ToggleOutputAllAction{})
	p.Dispatch(types.SetBlockActionAction{Service: "api", Block: "build", Action: types.ActionReRun})
	p.Dispatch(types.SpawnTaskAction{Definition: "migrate", Service: "api"})
	p.Dispatch(types.ShutdownAction{})

	awaitCondition(t, func() bool { return mutator.snapshot().shutdowns == 1 })

	snap := mutator.snapshot()
	if snap.selectedProfile != "prod" {
		t.Errorf("selectedProfile = %v, want prod", snap.selectedProfile)
	}
	if len(snap.toggledOutputs) != 1 || snap.toggledOutputs[0] != "api" {
		t.Errorf("toggledOutputs = %v", snap.toggledOutputs)
	}
	if snap.toggledAll != 1 {
		t.Errorf("toggledAll = %d, want 1", snap.toggledAll)
	}
	if len(snap.blockActions) != 1 || snap.blockActions[0].Action != types.ActionReRun {
		t.Errorf("blockActions = %v", snap.blockActions)
	}
	if len(snap.spawnedTasks) != 1 || snap.spawnedTasks[0].Definition != "migrate" {
		t.Errorf("spawnedTasks = %v", snap.spawnedTasks)
	}
}

func TestProcessorPreservesFIFOOrder(t *testing.T) {
	mutator := &recordingMutator{}
	p := NewProcessor(mutator, zerolog.Nop())
	p.Start()
	defer p.Stop()

	for i := 0; i < 10; i++ {
		p.Dispatch(types.ToggleOutputAction{Service: types.ServiceId(string(rune('a' + i)))})
	}
	p.Dispatch(types.ShutdownAction{})

	awaitCondition(t, func() bool { return mutator.snapshot().shutdowns == 1 })

	snap := mutator.snapshot()
	if len(snap.toggledOutputs) != 10 {
		t.Fatalf("expected 10 toggles, got %d", len(snap.toggledOutputs))
	}
	for i, svc := range snap.toggledOutputs {
		want := types.ServiceId(string(rune('a' + i)))
		if svc != want {
			t.Errorf("toggledOutputs[%d] = %v, want %v (FIFO order)", i, svc, want)
		}
	}
}
