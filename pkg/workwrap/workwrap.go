package workwrap

import (
	"sync"

	"github.com/kestrel-dev/kestrel/pkg/output"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

// Func is the closure a Wrapper runs on a background goroutine: a
// short-lived, non-cancelable probe.
type Func func() types.WorkResult

// Wrapper runs a Func once on a background goroutine and reports its
// status and result (spec.md §4.3). Work is non-cancelable — there is no
// Stop; callers poll Status until it leaves OperationRunning.
type Wrapper struct {
	mu     sync.Mutex
	status types.AsyncOperationStatus
	result types.WorkResult
}

// Start spawns fn on a background goroutine. If not silent, each line of
// the result's Output is appended to store under key once fn completes.
func Start(fn Func, store *output.Store, key types.OutputKey, silent bool) *Wrapper {
	w := &Wrapper{status: types.OperationRunning}

	go func() {
		result := fn()

		w.mu.Lock()
		w.result = result
		if result.Successful {
			w.status = types.OperationOk
		} else {
			w.status = types.OperationFailed
		}
		w.mu.Unlock()

		if !silent && store != nil {
			for _, line := range result.Output {
				store.Add(key, line)
			}
		}
	}()

	return w
}

// Status returns the wrapper's current lifecycle status.
func (w *Wrapper) Status() types.AsyncOperationStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Result returns the closure's result once Status is no longer
// OperationRunning; ok is false while still running.
func (w *Wrapper) Result() (result types.WorkResult, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.status == types.OperationRunning {
		return types.WorkResult{}, false
	}
	return w.result, true
}
