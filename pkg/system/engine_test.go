package system

import (
	"testing"
	"time"

	"github.com/kestrel-dev/kestrel/pkg/types"
)

func awaitBlockStatus(t *testing.T, e *Engine, service types.ServiceId, block types.BlockId, want types.BlockStatusKind) types.BlockStatus {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		status, ok := e.BlockStatus(service, block)
		if ok && status.Kind == want {
			return status
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s/%s to reach %s", service, block, want)
	return types.BlockStatus{}
}

func buildProfile() types.Profile {
	return types.Profile{
		Id:      "default",
		Workdir: "/tmp",
		Services: []types.Service{
			{
				Id:      "api",
				Workdir: "/tmp",
				Blocks: []types.Block{
					{
						Id:   "build",
						Work: types.CommandSeqWork{Commands: []types.Exec{{Executable: "/bin/true"}}},
					},
				},
			},
		},
	}
}

func TestEngineRunsBlockToOkAfterSelectProfile(t *testing.T) {
	e := New()
	e.LoadProfiles([]types.Profile{buildProfile()})
	e.Start()
	defer e.Stop()

	e.SelectProfile("default")
	e.SetBlockAction("api", "build", types.ActionRun)

	awaitBlockStatus(t, e, "api", "build", types.BlockOk)
}

func TestEngineClearProfileResetsBlocks(t *testing.T) {
	e := New()
	e.LoadProfiles([]types.Profile{buildProfile()})
	e.Start()
	defer e.Stop()

	e.SelectProfile("default")
	e.SetBlockAction("api", "build", types.ActionRun)
	awaitBlockStatus(t, e, "api", "build", types.BlockOk)

	e.ClearProfile()

	if _, ok := e.BlockStatus("api", "build"); ok {
		t.Error("expected no block status after ClearProfile")
	}
	if _, ok := e.ActiveProfile(); ok {
		t.Error("expected no active profile after ClearProfile")
	}
}

func TestEngineSpawnTaskReachesFinished(t *testing.T) {
	e := New()
	profile := buildProfile()
	profile.Tasks = []types.TaskDefinition{
		{Id: "smoke", Name: "smoke test", Steps: []types.SequenceStep{types.ScriptStep{Script: "1 + 1"}}},
	}
	e.LoadProfiles([]types.Profile{profile})
	e.Start()
	defer e.Stop()

	e.SelectProfile("default")
	e.SpawnTask("smoke", "api")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		tasks := e.Tasks()
		if len(tasks) == 1 && tasks[0].Status.Kind == types.TaskFinished {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for spawned task to finish")
}

func TestEngineToggleOutputAndToggleOutputAll(t *testing.T) {
	e := New()
	e.LoadProfiles([]types.Profile{buildProfile()})
	e.Start()
	defer e.Stop()

	e.SelectProfile("default")

	if e.OutputHidden("api") {
		t.Fatal("expected output visible by default")
	}
	e.ToggleOutput("api")
	if !e.OutputHidden("api") {
		t.Error("expected output hidden after ToggleOutput")
	}
	e.ToggleOutputAll()
	if e.OutputHidden("api") {
		t.Error("expected ToggleOutputAll to show output again once all were hidden")
	}
}

// TestEngineQueryTriggerFiresWithoutDeadlockingTick guards against tick
// re-entering e.mu through the Query Trigger Handler's Marker callback: a
// BecomesTrueTrigger that is true from the very first tick fires
// MarkTriggered synchronously on the tick goroutine while e.mu is still
// held, so if that callback ever routes back through the self-locking
// public Engine.MarkTriggered, the worker loop wedges and every other
// assertion in this test times out instead of failing fast.
func TestEngineQueryTriggerFiresWithoutDeadlockingTick(t *testing.T) {
	profile := buildProfile()
	profile.Services[0].Automations = []types.Automation{
		{
			Id:      "always-on",
			Enabled: true,
			Action:  types.InlineStepsAction{Steps: []types.SequenceStep{types.ScriptStep{Script: "1 + 1"}}},
			Triggers: []types.Trigger{
				types.BecomesTrueTrigger{Script: "true"},
			},
		},
	}

	e := New()
	e.LoadProfiles([]types.Profile{profile})
	e.Start()
	defer e.Stop()

	e.SelectProfile("default")

	// The query trigger above fires on the engine's very first tick. If
	// that wedged the worker loop, this block (scheduled independently of
	// the trigger machinery) would never progress past BlockWorking and
	// awaitBlockStatus's own deadline would fire first.
	e.SetBlockAction("api", "build", types.ActionRun)
	awaitBlockStatus(t, e, "api", "build", types.BlockOk)
}

func TestEngineShutdownSetsShouldExit(t *testing.T) {
	e := New()
	e.LoadProfiles([]types.Profile{buildProfile()})
	e.Start()
	defer e.Stop()

	e.Shutdown()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if e.shouldExit.Load() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for should_exit to be observed")
}
