package types

import "time"

// Health bundles the ordered list of health Requirements checked after work
// completes with the timeout the post-work health check is allowed before
// the block is declared Error.
type Health struct {
	Requirements []Requirement
	Timeout      time.Duration
}

// Work is the tagged union of what a block does to reach Ok: either a finite
// command sequence, or spawning a single long-lived process.
type Work interface {
	isWork()
}

// CommandSeqWork runs each Exec to completion, in order.
type CommandSeqWork struct {
	Commands []Exec
}

func (CommandSeqWork) isWork() {}

// ProcessWork spawns a single long-lived process; the block stays Ok only
// while it keeps running.
type ProcessWork struct {
	Command Exec
}

func (ProcessWork) isWork() {}

// IsProcess reports whether w is a ProcessWork variant — used by the state
// machine wherever behavior depends on "is this a long-lived process".
func IsProcess(w Work) bool {
	_, ok := w.(ProcessWork)
	return ok
}

// StatusLine is a UI hint carried on a Block: a symbol and a column,
// consumed by the (out-of-scope) TUI layer.
type StatusLine struct {
	Symbol string
	Column int
}

// Block is the unit of work (spec.md §3).
type Block struct {
	Id             BlockId
	StatusLine     StatusLine
	Health         Health
	Prerequisites  []Requirement // no timeout
	Work           Work
}

// BlockStatusKind enumerates a block's top-level status.
type BlockStatusKind string

const (
	BlockDisabled BlockStatusKind = "disabled"
	BlockInitial  BlockStatusKind = "initial"
	BlockWorking  BlockStatusKind = "working"
	BlockOk       BlockStatusKind = "ok"
	BlockError    BlockStatusKind = "error"
)

// BlockStatus is the tagged union of spec.md §3: Disabled | Initial |
// Working{step} | Ok | Error. Step is only meaningful when Kind ==
// BlockWorking.
type BlockStatus struct {
	Kind BlockStatusKind
	Step WorkStep
}

func DisabledStatus() BlockStatus { return BlockStatus{Kind: BlockDisabled} }
func InitialStatus() BlockStatus  { return BlockStatus{Kind: BlockInitial} }
func OkStatus() BlockStatus       { return BlockStatus{Kind: BlockOk} }
func ErrorStatus() BlockStatus    { return BlockStatus{Kind: BlockError} }
func WorkingStatus(step WorkStep) BlockStatus {
	return BlockStatus{Kind: BlockWorking, Step: step}
}

// WorkStep is the tagged union of the five internal states of a Working
// block (spec.md §3).
type WorkStep interface {
	isWorkStep()
}

// StepInitial is the first step entered whenever a block starts working.
type StepInitial struct {
	SkipWorkIfHealthy bool
}

func (StepInitial) isWorkStep() {}

// StepPrerequisiteCheck evaluates the block's prerequisites with no timeout
// and a 500ms failure backoff.
type StepPrerequisiteCheck struct {
	SkipWorkIfHealthy bool
	StartedAt         time.Time
	ChecksCompleted   int
	LastFailure       *time.Time
}

func (StepPrerequisiteCheck) isWorkStep() {}

// StepPreWorkHealthCheck evaluates the block's health requirements with
// timeout=0 and failure_wait=0 — a single best-effort pass used to skip
// work entirely when the block is already healthy.
type StepPreWorkHealthCheck struct {
	StartedAt       time.Time
	ChecksCompleted int
}

func (StepPreWorkHealthCheck) isWorkStep() {}

// StepPerformWork drives the block's Work to completion.
type StepPerformWork struct {
	StepStartedAt   time.Time
	StepsCompleted  int
}

func (StepPerformWork) isWorkStep() {}

// StepPostWorkHealthCheck evaluates the block's health requirements with the
// block's configured timeout and a 3000ms failure backoff.
type StepPostWorkHealthCheck struct {
	StartedAt       time.Time
	ChecksCompleted int
	LastFailure     *time.Time
}

func (StepPostWorkHealthCheck) isWorkStep() {}
