package requirement

import (
	"context"
	"sync"
	"time"

	"github.com/kestrel-dev/kestrel/pkg/types"
)

// Checker evaluates one ordered list of Requirements, one at a time, against
// the decision table in spec.md §4.5. A Checker owns exactly one in-flight
// probe at a time; the caller is responsible for the checks_completed and
// last_failure bookkeeping the decision table hands back to it (the same
// split spec.md draws between the Requirement Checker and the block state
// machine that drives it).
type Checker struct {
	mu     sync.Mutex
	handle *handle
}

type handle struct {
	status types.AsyncOperationStatus
	ok     bool
	cancel context.CancelFunc
}

// NewChecker returns a ready-to-use Checker.
func NewChecker() *Checker {
	return &Checker{}
}

// Evaluate runs one step of the decision table. requirements is the full
// ordered list; completed is how many have already passed. timeout is
// optional (nil disables it, as prerequisite checks do); failureWait is the
// backoff window after a failure. startedAt and lastFailure describe the
// caller's persisted state for this check series.
func (c *Checker) Evaluate(
	ctx context.Context,
	requirements []types.Requirement,
	completed int,
	timeout *time.Duration,
	failureWait time.Duration,
	startedAt time.Time,
	lastFailure *time.Time,
	now time.Time,
	ectx Context,
) Outcome {
	if completed >= len(requirements) {
		return AllOk
	}

	if lastFailure != nil {
		if timeout != nil && now.Sub(startedAt) > *timeout {
			c.clear()
			return Timeout
		}
		if now.Sub(*lastFailure) < failureWait {
			return Working
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle == nil {
		probeCtx, cancel := context.WithCancel(ctx)
		h := &handle{status: types.OperationRunning, cancel: cancel}
		c.handle = h
		req := requirements[completed]
		go func() {
			ok, err := probe(probeCtx, ectx, req)
			c.mu.Lock()
			defer c.mu.Unlock()
			if h != c.handle {
				return
			}
			if err != nil {
				h.status = types.OperationFailed
				h.ok = false
				return
			}
			h.status = types.OperationOk
			h.ok = ok
		}()
		return Working
	}

	switch c.handle.status {
	case types.OperationRunning:
		return Working
	case types.OperationOk:
		ok := c.handle.ok
		c.handle = nil
		if ok {
			return CurrentCheckOk
		}
		return CurrentCheckFailed
	default: // OperationFailed: the probe itself errored, not just failed its check
		c.handle = nil
		return CurrentCheckFailed
	}
}

// clear cancels and drops any in-flight probe, used when a check series
// times out.
func (c *Checker) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle != nil {
		c.handle.cancel()
		c.handle = nil
	}
}

// Running reports whether a probe is currently in flight — the Check
// operation handle's status, for pkg/block's "any running ops" checks.
func (c *Checker) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle != nil && c.handle.status == types.OperationRunning
}

// Stop cancels any in-flight probe (spec.md §4.7 "stop all operations").
func (c *Checker) Stop() {
	c.clear()
}
