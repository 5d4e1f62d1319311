package task

import (
	"context"
	"time"

	"github.com/kestrel-dev/kestrel/pkg/sequence"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

// Runtime drives one running Task's steps one at a time (spec.md §4.8). Like
// block.Runtime, it persists no progress state of its own — the caller's
// types.TaskStatus is the source of truth; Runtime owns only the in-flight
// sequence.Executor handle for whichever step is current.
type Runtime struct {
	seq *sequence.Executor
}

// NewRuntime returns a ready-to-use Runtime.
func NewRuntime() *Runtime {
	return &Runtime{}
}

// Running reports whether the current step has an in-flight operation.
func (r *Runtime) Running() bool {
	return r.seq != nil && r.seq.Running()
}

// Stop terminates the current step's in-flight operation, if any — used
// by Registry.Cancel and Registry.Reset.
func (r *Runtime) Stop() {
	if r.seq != nil {
		r.seq.Stop()
	}
}

// Tick runs one step of the task's sequence and returns the status that
// should replace the caller's current one. Called only when status.Kind is
// TaskRunning; any other status is returned unchanged.
func (r *Runtime) Tick(ctx context.Context, now time.Time, tctx Context, id types.TaskId, steps []types.SequenceStep, status types.TaskStatus) types.TaskStatus {
	if status.Kind != types.TaskRunning {
		return status
	}

	if r.seq == nil {
		r.seq = sequence.NewExecutor()
	}

	outcome := r.seq.Evaluate(ctx, steps, status.CompletedSteps, now, tctx.sequenceContext(id))

	switch outcome {
	case types.SequenceEntryOk:
		status.CompletedSteps++
		status.StepStartedAt = now
		status.LastRecoverableFailure = nil
		return status
	case types.SequenceRecoverableFailure:
		failedAt := now
		status.LastRecoverableFailure = &failedAt
		return status
	case types.SequenceAllOk:
		r.seq = nil
		return types.FinishedTaskStatus(now)
	case types.SequenceFailed:
		r.seq = nil
		return types.FailedTaskStatus(now)
	default: // types.SequenceWorking
		return status
	}
}
