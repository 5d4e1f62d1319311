package block

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kestrel-dev/kestrel/pkg/output"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

func testContext(def types.Block) Context {
	return Context{
		Service: "api",
		Block:   def,
		BaseEnv: types.OSEnv(),
		Output:  output.New(),
		Logger:  zerolog.Nop(),
	}
}

func tickUntil(t *testing.T, r *Runtime, bctx Context, want types.BlockStatusKind) types.BlockStatus {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		r.Tick(context.Background(), time.Now(), bctx)
		status := r.Status()
		if status.Kind == want {
			return status
		}
		if status.Kind == types.BlockError && want != types.BlockError {
			t.Fatalf("block reached Error unexpectedly")
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for status %v, last was %v", want, r.Status())
	return types.BlockStatus{}
}

func TestDisabledEnableTransitionsToInitial(t *testing.T) {
	r := NewRuntime()
	r.status = types.DisabledStatus()
	r.SetAction(types.ActionEnable)

	bctx := testContext(types.Block{Id: "build"})
	r.Tick(context.Background(), time.Now(), bctx)

	if got := r.Status(); got.Kind != types.BlockInitial {
		t.Errorf("status = %v, want Initial", got)
	}
	if r.action != nil {
		t.Error("expected action to be cleared")
	}
}

func TestDisabledOtherActionStaysDisabled(t *testing.T) {
	r := NewRuntime()
	r.status = types.DisabledStatus()
	r.SetAction(types.ActionRun)

	bctx := testContext(types.Block{Id: "build"})
	r.Tick(context.Background(), time.Now(), bctx)

	if got := r.Status(); got.Kind != types.BlockDisabled {
		t.Errorf("status = %v, want Disabled", got)
	}
	if r.action != nil {
		t.Error("expected action to be cleared")
	}
}

func TestInitialRunEntersWorkingSkipTrue(t *testing.T) {
	r := NewRuntime()
	r.SetAction(types.ActionRun)

	bctx := testContext(types.Block{Id: "build"})
	r.Tick(context.Background(), time.Now(), bctx)

	status := r.Status()
	if status.Kind != types.BlockWorking {
		t.Fatalf("status = %v, want Working", status)
	}
	initial, ok := status.Step.(types.StepInitial)
	if !ok {
		t.Fatalf("step = %T, want StepInitial", status.Step)
	}
	if !initial.SkipWorkIfHealthy {
		t.Error("expected SkipWorkIfHealthy = true")
	}
}

func TestCommandSeqHappyPathReachesOk(t *testing.T) {
	def := types.Block{
		Id:   "build",
		Work: types.CommandSeqWork{Commands: []types.Exec{{Executable: "/bin/true"}}},
	}
	r := NewRuntime()
	r.SetAction(types.ActionRun)
	bctx := testContext(def)

	r.Tick(context.Background(), time.Now(), bctx) // consume Run -> Working{Initial}
	tickUntil(t, r, bctx, types.BlockOk)
}

func TestCommandSeqFailureReachesError(t *testing.T) {
	def := types.Block{
		Id:   "build",
		Work: types.CommandSeqWork{Commands: []types.Exec{{Executable: "/bin/sh", Args: []string{"-c", "exit 1"}}}},
	}
	r := NewRuntime()
	r.SetAction(types.ActionRun)
	bctx := testContext(def)

	r.Tick(context.Background(), time.Now(), bctx)
	tickUntil(t, r, bctx, types.BlockError)
}

func TestStopActionResetsToInitial(t *testing.T) {
	r := NewRuntime()
	r.status = types.WorkingStatus(types.StepPerformWork{StepStartedAt: time.Now()})
	r.SetAction(types.ActionStop)

	bctx := testContext(types.Block{Id: "build", Work: types.CommandSeqWork{}})
	r.Tick(context.Background(), time.Now(), bctx)

	if got := r.Status(); got.Kind != types.BlockInitial {
		t.Errorf("status = %v, want Initial", got)
	}
}

func TestStopActionKeepsError(t *testing.T) {
	r := NewRuntime()
	r.status = types.ErrorStatus()
	r.SetAction(types.ActionStop)

	bctx := testContext(types.Block{Id: "build"})
	r.Tick(context.Background(), time.Now(), bctx)

	if got := r.Status(); got.Kind != types.BlockError {
		t.Errorf("status = %v, want Error (kept)", got)
	}
}

func TestReRunFromErrorRestartsWorking(t *testing.T) {
	r := NewRuntime()
	r.status = types.ErrorStatus()
	r.SetAction(types.ActionReRun)

	bctx := testContext(types.Block{Id: "build"})
	r.Tick(context.Background(), time.Now(), bctx)

	status := r.Status()
	if status.Kind != types.BlockWorking {
		t.Fatalf("status = %v, want Working", status)
	}
	if _, ok := status.Step.(types.StepInitial); !ok {
		t.Errorf("step = %T, want StepInitial", status.Step)
	}
}

func TestOkProcessWithDeadHandleBecomesError(t *testing.T) {
	def := types.Block{
		Id:   "server",
		Work: types.ProcessWork{Command: types.Exec{Executable: "/bin/sleep", Args: []string{"0.01"}}},
	}
	r := NewRuntime()
	r.status = types.OkStatus()
	bctx := testContext(def)

	// No live Work handle at all (process was never spawned in this
	// Runtime's lifetime) — the "Ok, None, process-kind, no live Work
	// handle" row should fire immediately.
	r.Tick(context.Background(), time.Now(), bctx)

	if got := r.Status(); got.Kind != types.BlockError {
		t.Errorf("status = %v, want Error", got)
	}
}

func TestProcessHappyPathReachesOkAndStaysUpSupervised(t *testing.T) {
	def := types.Block{
		Id:   "server",
		Work: types.ProcessWork{Command: types.Exec{Executable: "/bin/sleep", Args: []string{"30"}}},
	}
	r := NewRuntime()
	r.SetAction(types.ActionRun)
	bctx := testContext(def)

	r.Tick(context.Background(), time.Now(), bctx)
	status := tickUntil(t, r, bctx, types.BlockOk)
	if status.Kind != types.BlockOk {
		t.Fatalf("status = %v, want Ok", status)
	}

	// Stop and confirm it resets cleanly without hanging.
	r.SetAction(types.ActionStop)
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		r.Tick(context.Background(), time.Now(), bctx)
		if r.Status().Kind == types.BlockInitial {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for Stop to settle the block back to Initial")
}
