package block

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kestrel-dev/kestrel/pkg/procwrap"
	"github.com/kestrel-dev/kestrel/pkg/requirement"
	"github.com/kestrel-dev/kestrel/pkg/sequence"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

const (
	prerequisiteCheckBackoff = 500 * time.Millisecond
	postWorkHealthBackoff    = 3 * time.Second
)

// Runtime is the per-(service, block) state machine (spec.md §4.7): the
// current status, any pending user action, and whichever in-flight
// operation handle the current step owns.
type Runtime struct {
	mu     sync.Mutex
	status types.BlockStatus
	action *types.BlockAction

	checker *requirement.Checker
	seq     *sequence.Executor
	proc    *procwrap.Wrapper
}

// NewRuntime returns a Runtime in its starting Initial status.
func NewRuntime() *Runtime {
	return &Runtime{status: types.InitialStatus()}
}

// Status returns the block's current status.
func (r *Runtime) Status() types.BlockStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// SetAction records a pending action for the next Tick to consume,
// overwriting whatever was pending before (spec.md §4.12 — the Action
// Processor is the only writer of this field).
func (r *Runtime) SetAction(a types.BlockAction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.action = &a
}

// Reset returns the block to Initial, stopping and dropping any in-flight
// operations. Used on profile activation (spec.md §3 Lifecycle).
func (r *Runtime) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopAllOpsLocked()
	r.checker = nil
	r.seq = nil
	r.proc = nil
	r.action = nil
	r.status = types.InitialStatus()
}

// Tick runs exactly one pass of the state machine (spec.md §4.7).
func (r *Runtime) Tick(ctx context.Context, now time.Time, bctx Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := r.status
	action := r.action

	isAction := func(a types.BlockAction) bool { return action != nil && *action == a }

	switch {
	case status.Kind == types.BlockDisabled && (isAction(types.ActionEnable) || isAction(types.ActionToggleEnabled)):
		r.action = nil
		r.status = types.InitialStatus()
		return

	case status.Kind == types.BlockDisabled:
		r.action = nil
		return

	case isAction(types.ActionDisable) && r.hasRunningOpsLocked():
		r.stopAllOpsLocked()
		return

	case isAction(types.ActionDisable) || isAction(types.ActionToggleEnabled):
		r.clearOpsLocked(bctx)
		r.action = nil
		r.status = types.DisabledStatus()
		return

	case status.Kind == types.BlockWorking && action == nil:
		r.workHandler(ctx, now, bctx)
		return

	case isAction(types.ActionReRun) && r.hasRunningOpsLocked():
		r.stopAllOpsLocked()
		return

	case isAction(types.ActionReRun):
		r.clearOpsLocked(bctx)
		r.action = nil
		r.status = types.WorkingStatus(types.StepInitial{SkipWorkIfHealthy: false})
		return

	case isAction(types.ActionRun) && (status.Kind == types.BlockInitial || status.Kind == types.BlockError):
		r.action = nil
		r.status = types.WorkingStatus(types.StepInitial{SkipWorkIfHealthy: true})
		return

	case isAction(types.ActionRun) && (status.Kind == types.BlockWorking || status.Kind == types.BlockOk):
		r.action = nil
		return

	case isAction(types.ActionStop) && r.hasRunningOpsLocked():
		r.stopAllOpsLocked()
		return

	case isAction(types.ActionStop):
		r.clearOpsLocked(bctx)
		r.action = nil
		if status.Kind != types.BlockError && status.Kind != types.BlockDisabled {
			r.status = types.InitialStatus()
		}
		return

	case isAction(types.ActionCancel) && status.Kind == types.BlockWorking && r.hasRunningOpsLocked():
		r.stopAllOpsLocked()
		return

	case isAction(types.ActionCancel) && status.Kind == types.BlockWorking:
		r.clearOpsLocked(bctx)
		r.action = nil
		return

	case isAction(types.ActionCancel):
		r.action = nil
		return

	case status.Kind == types.BlockOk && action == nil && types.IsProcess(bctx.Block.Work):
		if r.proc == nil || r.proc.Status() != types.OperationRunning {
			bctx.writeSystem("External process has terminated unexpectedly.")
			r.status = types.ErrorStatus()
		}
		return

	default:
		// any, None (not otherwise matched): do nothing.
	}
}

// hasRunningOpsLocked reports whether any Check or Work operation this
// Runtime owns is currently Running. Callers must hold r.mu.
func (r *Runtime) hasRunningOpsLocked() bool {
	if r.checker != nil && r.checker.Running() {
		return true
	}
	if r.seq != nil && r.seq.Running() {
		return true
	}
	if r.proc != nil && r.proc.Status() == types.OperationRunning {
		return true
	}
	return false
}

// stopAllOpsLocked signals every in-flight operation to terminate; the
// state machine observes the non-Running status on a later tick and clears
// the handles via clearOpsLocked (spec.md §4.7 "stop all operations").
// Callers must hold r.mu.
func (r *Runtime) stopAllOpsLocked() {
	if r.checker != nil {
		r.checker.Stop()
	}
	if r.seq != nil {
		r.seq.Stop()
	}
	if r.proc != nil {
		r.proc.Stop()
	}
}

// clearOpsLocked drops handles whose status is Ok or Failed; a handle still
// Running is left in place with a warning logged, since that indicates a
// bug elsewhere (spec.md §4.7 "clear ops"). Callers must hold r.mu.
func (r *Runtime) clearOpsLocked(bctx Context) {
	if r.checker != nil {
		if r.checker.Running() {
			bctx.Logger.Warn().Msg("clearOps: check operation still running")
		} else {
			r.checker = nil
		}
	}
	if r.seq != nil {
		if r.seq.Running() {
			bctx.Logger.Warn().Msg("clearOps: sequence operation still running")
		} else {
			r.seq = nil
		}
	}
	if r.proc != nil {
		if r.proc.Status() == types.OperationRunning {
			bctx.Logger.Warn().Msg("clearOps: process operation still running")
		} else {
			r.proc = nil
		}
	}
}

func (r *Runtime) workHandler(ctx context.Context, now time.Time, bctx Context) {
	step := r.status.Step

	switch s := step.(type) {
	case types.StepInitial:
		if r.hasRunningOpsLocked() {
			r.stopAllOpsLocked()
			return
		}
		r.clearOpsLocked(bctx)
		r.status = types.WorkingStatus(types.StepPrerequisiteCheck{
			SkipWorkIfHealthy: s.SkipWorkIfHealthy,
			StartedAt:         now,
		})

	case types.StepPrerequisiteCheck:
		r.tickPrerequisiteCheck(ctx, now, bctx, s)

	case types.StepPreWorkHealthCheck:
		r.tickPreWorkHealthCheck(ctx, now, bctx, s)

	case types.StepPerformWork:
		r.tickPerformWork(ctx, now, bctx, s)

	case types.StepPostWorkHealthCheck:
		r.tickPostWorkHealthCheck(ctx, now, bctx, s)
	}
}

func (r *Runtime) tickPrerequisiteCheck(ctx context.Context, now time.Time, bctx Context, s types.StepPrerequisiteCheck) {
	if r.checker == nil {
		r.checker = requirement.NewChecker()
	}

	outcome := r.checker.Evaluate(ctx, bctx.Block.Prerequisites, s.ChecksCompleted, nil, prerequisiteCheckBackoff, s.StartedAt, s.LastFailure, now, bctx.requirementContext())

	switch outcome {
	case requirement.AllOk:
		r.checker = nil
		if s.SkipWorkIfHealthy && !types.IsProcess(bctx.Block.Work) {
			r.status = types.WorkingStatus(types.StepPreWorkHealthCheck{StartedAt: now})
		} else {
			r.status = types.WorkingStatus(types.StepPerformWork{StepStartedAt: now})
		}
	case requirement.CurrentCheckOk:
		s.ChecksCompleted++
		s.LastFailure = nil
		r.status = types.WorkingStatus(s)
	case requirement.CurrentCheckFailed:
		s.ChecksCompleted = 0
		failedAt := now
		s.LastFailure = &failedAt
		r.status = types.WorkingStatus(s)
	case requirement.Working, requirement.Timeout:
		// Timeout is unreachable here: PrerequisiteCheck runs with no
		// timeout (nil), per spec.md §4.7.
	}
}

func (r *Runtime) tickPreWorkHealthCheck(ctx context.Context, now time.Time, bctx Context, s types.StepPreWorkHealthCheck) {
	if r.checker == nil {
		r.checker = requirement.NewChecker()
	}

	zero := time.Duration(0)
	outcome := r.checker.Evaluate(ctx, bctx.Block.Health.Requirements, s.ChecksCompleted, &zero, 0, s.StartedAt, nil, now, bctx.requirementContext())

	switch outcome {
	case requirement.AllOk:
		r.checker = nil
		r.status = types.OkStatus()
	case requirement.CurrentCheckOk:
		s.ChecksCompleted++
		r.status = types.WorkingStatus(s)
	case requirement.CurrentCheckFailed, requirement.Timeout:
		r.checker = nil
		r.status = types.WorkingStatus(types.StepPerformWork{StepStartedAt: now})
	case requirement.Working:
	}
}

func (r *Runtime) tickPerformWork(ctx context.Context, now time.Time, bctx Context, s types.StepPerformWork) {
	switch w := bctx.Block.Work.(type) {
	case types.CommandSeqWork:
		r.tickCommandSeq(ctx, now, bctx, w, s)
	case types.ProcessWork:
		r.tickProcessSpawn(bctx, w, now)
	}
}

func (r *Runtime) tickCommandSeq(ctx context.Context, now time.Time, bctx Context, w types.CommandSeqWork, s types.StepPerformWork) {
	if r.seq == nil {
		r.seq = sequence.NewExecutor()
	}

	outcome := r.seq.Evaluate(ctx, execsToSteps(w.Commands), s.StepsCompleted, now, bctx.sequenceContext())

	switch outcome {
	case types.SequenceFailed, types.SequenceRecoverableFailure:
		r.seq = nil
		r.status = types.ErrorStatus()
	case types.SequenceEntryOk:
		s.StepsCompleted++
		s.StepStartedAt = now
		r.status = types.WorkingStatus(s)
	case types.SequenceAllOk:
		r.seq = nil
		r.status = types.WorkingStatus(types.StepPostWorkHealthCheck{StartedAt: now})
	case types.SequenceWorking:
	}
}

func (r *Runtime) tickProcessSpawn(bctx Context, w types.ProcessWork, now time.Time) {
	resolved, err := w.Command.Resolve(bctx.BaseEnv)
	if err != nil {
		bctx.writeSystem(fmt.Sprintf("failed to resolve process command: %v", err))
		r.status = types.ErrorStatus()
		return
	}

	shouldExit := bctx.ShouldExit
	if shouldExit == nil {
		shouldExit = func() bool { return false }
	}

	proc, err := procwrap.Start(resolved, bctx.Output, bctx.extKey(), bctx.sysKey(), shouldExit)
	if err != nil {
		bctx.writeSystem(fmt.Sprintf("failed to spawn process: %v", err))
		r.status = types.ErrorStatus()
		return
	}

	r.proc = proc
	r.status = types.WorkingStatus(types.StepPostWorkHealthCheck{StartedAt: now})
}

func (r *Runtime) tickPostWorkHealthCheck(ctx context.Context, now time.Time, bctx Context, s types.StepPostWorkHealthCheck) {
	if types.IsProcess(bctx.Block.Work) && (r.proc == nil || r.proc.Status() != types.OperationRunning) {
		r.clearOpsLocked(bctx)
		bctx.writeSystem("External process has terminated unexpectedly.")
		r.status = types.ErrorStatus()
		return
	}

	if r.checker == nil {
		r.checker = requirement.NewChecker()
	}

	timeout := bctx.Block.Health.Timeout
	outcome := r.checker.Evaluate(ctx, bctx.Block.Health.Requirements, s.ChecksCompleted, &timeout, postWorkHealthBackoff, s.StartedAt, s.LastFailure, now, bctx.requirementContext())

	switch outcome {
	case requirement.AllOk:
		r.checker = nil
		r.status = types.OkStatus()
	case requirement.Timeout:
		r.checker = nil
		r.status = types.ErrorStatus()
	case requirement.CurrentCheckOk:
		s.ChecksCompleted++
		s.LastFailure = nil
		r.status = types.WorkingStatus(s)
	case requirement.CurrentCheckFailed:
		s.ChecksCompleted = 0
		failedAt := now
		s.LastFailure = &failedAt
		r.status = types.WorkingStatus(s)
	case requirement.Working:
	}
}
