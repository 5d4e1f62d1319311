package sequence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kestrel-dev/kestrel/pkg/requirement"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

// waitRequirementBackoff is the retry interval a WaitRequirementStep's
// nested requirement Checker backs off for after a failed probe. spec.md
// §4.6 doesn't name one explicitly; 500ms matches the prerequisite-check
// backoff in §4.7, the closest analogous wait in the decision tables.
const waitRequirementBackoff = 500 * time.Millisecond

// Executor drives one SequenceStep at a time (spec.md §4.6). Like
// requirement.Checker, it does not own progression through the step list —
// the caller's completed-step count (a Block's steps_completed, or a Task's
// CompletedSteps) is the source of truth; Executor owns only whatever
// in-flight handle the current step needs.
type Executor struct {
	mu          sync.Mutex
	completed   int
	haveState   bool
	exec        *execHandle
	waitChecker *requirement.Checker
	waitStarted time.Time
	waitFailure *time.Time
}

// Running reports whether the current step has an in-flight operation —
// used by pkg/block's "any running ops" checks.
func (x *Executor) Running() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.exec != nil {
		return x.exec.Status() == types.OperationRunning
	}
	if x.waitChecker != nil {
		return x.waitChecker.Running()
	}
	return false
}

// Stop terminates the current step's in-flight operation, if any (spec.md
// §4.7 "stop all operations").
func (x *Executor) Stop() {
	x.mu.Lock()
	exec := x.exec
	wait := x.waitChecker
	x.mu.Unlock()
	if exec != nil {
		exec.Stop()
	}
	if wait != nil {
		wait.Stop()
	}
}

// NewExecutor returns a ready-to-use Executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Evaluate runs one tick of the step at index completed. now is used to seed
// and drive any WaitRequirementStep's internal backoff timer.
func (x *Executor) Evaluate(ctx context.Context, steps []types.SequenceStep, completed int, now time.Time, sctx Context) types.SequenceOutcome {
	x.mu.Lock()
	if !x.haveState || completed != x.completed {
		x.exec = nil
		x.waitChecker = nil
		x.waitStarted = now
		x.waitFailure = nil
		x.completed = completed
		x.haveState = true
	}
	x.mu.Unlock()

	if completed >= len(steps) {
		return types.SequenceAllOk
	}

	switch s := steps[completed].(type) {
	case types.ExecStep:
		return x.tickExec(s, sctx)
	case types.ScriptStep:
		return x.tickScript(s, sctx)
	case types.WaitRequirementStep:
		return x.tickWait(ctx, now, s, sctx)
	default:
		return types.SequenceFailed
	}
}

func (x *Executor) tickExec(s types.ExecStep, sctx Context) types.SequenceOutcome {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.exec == nil {
		resolved, err := s.Exec.Resolve(sctx.BaseEnv)
		if err != nil {
			writeLine(sctx.Output, sctx.OutputKey, fmt.Sprintf("command resolution failed: %v", err))
			return types.SequenceFailed
		}
		x.exec = startExec(resolved, sctx.Output, sctx.OutputKey)
		return types.SequenceWorking
	}

	switch x.exec.Status() {
	case types.OperationRunning:
		return types.SequenceWorking
	case types.OperationOk:
		x.exec = nil
		return types.SequenceEntryOk
	default:
		x.exec = nil
		return types.SequenceFailed
	}
}

// tickScript evaluates synchronously on the calling goroutine, per spec.md
// §4.6 ("Implementer may promote to an engine request for long scripts" —
// kestrel does not, since sequence scripts are expected to be short).
func (x *Executor) tickScript(s types.ScriptStep, sctx Context) types.SequenceOutcome {
	if sctx.Engine == nil {
		return types.SequenceFailed
	}
	if _, err := sctx.Engine.Eval(s.Script, sctx.Snapshot); err != nil {
		return types.SequenceFailed
	}
	return types.SequenceEntryOk
}

func (x *Executor) tickWait(ctx context.Context, now time.Time, s types.WaitRequirementStep, sctx Context) types.SequenceOutcome {
	x.mu.Lock()
	if x.waitChecker == nil {
		x.waitChecker = requirement.NewChecker()
	}
	checker := x.waitChecker
	startedAt := x.waitStarted
	lastFailure := x.waitFailure
	x.mu.Unlock()

	var timeout *time.Duration
	if s.Timeout > 0 {
		timeout = &s.Timeout
	}

	outcome := checker.Evaluate(ctx, []types.Requirement{s.Requirement}, 0, timeout, waitRequirementBackoff, startedAt, lastFailure, now, sctx.Requirement)

	switch outcome {
	case requirement.AllOk, requirement.CurrentCheckOk:
		x.mu.Lock()
		x.waitChecker = nil
		x.mu.Unlock()
		return types.SequenceEntryOk
	case requirement.CurrentCheckFailed:
		failedAt := now
		x.mu.Lock()
		x.waitFailure = &failedAt
		x.mu.Unlock()
		return types.SequenceRecoverableFailure
	case requirement.Timeout:
		x.mu.Lock()
		x.waitChecker = nil
		x.mu.Unlock()
		return types.SequenceFailed
	default: // requirement.Working
		return types.SequenceWorking
	}
}
