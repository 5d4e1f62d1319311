package sequence

import (
	"context"
	"testing"
	"time"

	"github.com/kestrel-dev/kestrel/pkg/output"
	"github.com/kestrel-dev/kestrel/pkg/requirement"
	"github.com/kestrel-dev/kestrel/pkg/script"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

func awaitOutcome(t *testing.T, x *Executor, steps []types.SequenceStep, completed int, sctx Context) types.SequenceOutcome {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		outcome := x.Evaluate(context.Background(), steps, completed, time.Now(), sctx)
		if outcome != types.SequenceWorking {
			return outcome
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for non-Working outcome")
	return types.SequenceWorking
}

func TestEvaluateAllOkPastEnd(t *testing.T) {
	x := NewExecutor()
	steps := []types.SequenceStep{types.ScriptStep{Script: "true"}}

	outcome := x.Evaluate(context.Background(), steps, 1, time.Now(), Context{})
	if outcome != types.SequenceAllOk {
		t.Errorf("outcome = %v, want AllOk", outcome)
	}
}

func TestEvaluateScriptSuccess(t *testing.T) {
	x := NewExecutor()
	steps := []types.SequenceStep{types.ScriptStep{Script: "1 + 1"}}
	sctx := Context{Engine: script.NewEngine()}

	outcome := x.Evaluate(context.Background(), steps, 0, time.Now(), sctx)
	if outcome != types.SequenceEntryOk {
		t.Errorf("outcome = %v, want EntryOk", outcome)
	}
}

func TestEvaluateScriptThrowIsFailed(t *testing.T) {
	x := NewExecutor()
	steps := []types.SequenceStep{types.ScriptStep{Script: `throw new Error("boom")`}}
	sctx := Context{Engine: script.NewEngine()}

	outcome := x.Evaluate(context.Background(), steps, 0, time.Now(), sctx)
	if outcome != types.SequenceFailed {
		t.Errorf("outcome = %v, want Failed", outcome)
	}
}

func TestEvaluateExecSuccess(t *testing.T) {
	x := NewExecutor()
	steps := []types.SequenceStep{types.ExecStep{Exec: types.Exec{Executable: "/bin/echo", Args: []string{"hi"}}}}
	store := output.New()
	key := types.OutputKey{Service: "api", SourceName: "deploy", Kind: types.OutputSystem}
	sctx := Context{Output: store, OutputKey: key, BaseEnv: types.OSEnv()}

	outcome := awaitOutcome(t, x, steps, 0, sctx)
	if outcome != types.SequenceEntryOk {
		t.Errorf("outcome = %v, want EntryOk", outcome)
	}
}

func TestEvaluateExecFailure(t *testing.T) {
	x := NewExecutor()
	steps := []types.SequenceStep{types.ExecStep{Exec: types.Exec{Executable: "/bin/sh", Args: []string{"-c", "exit 1"}}}}
	sctx := Context{BaseEnv: types.OSEnv()}

	outcome := awaitOutcome(t, x, steps, 0, sctx)
	if outcome != types.SequenceFailed {
		t.Errorf("outcome = %v, want Failed", outcome)
	}
}

func TestEvaluateWaitRequirementSucceeds(t *testing.T) {
	x := NewExecutor()
	steps := []types.SequenceStep{types.WaitRequirementStep{
		Timeout:     time.Second,
		Requirement: types.StateQueryRequirement{Script: "true"},
	}}
	sctx := Context{Requirement: requirement.Context{Engine: script.NewEngine()}}

	outcome := awaitOutcome(t, x, steps, 0, sctx)
	if outcome != types.SequenceEntryOk {
		t.Errorf("outcome = %v, want EntryOk", outcome)
	}
}

func TestEvaluateWaitRequirementTimesOut(t *testing.T) {
	x := NewExecutor()
	steps := []types.SequenceStep{types.WaitRequirementStep{
		Timeout:     10 * time.Millisecond,
		Requirement: types.StateQueryRequirement{Script: "false"},
	}}
	sctx := Context{Requirement: requirement.Context{Engine: script.NewEngine()}}

	deadline := time.Now().Add(2 * time.Second)
	var outcome types.SequenceOutcome
	for time.Now().Before(deadline) {
		outcome = x.Evaluate(context.Background(), steps, 0, time.Now(), sctx)
		if outcome == types.SequenceFailed {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected eventual Failed (timeout), got %v", outcome)
}
