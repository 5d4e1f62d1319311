package sequence

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/kestrel-dev/kestrel/pkg/output"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

// execHandle is the run-to-completion counterpart of pkg/procwrap's
// long-lived process handle: spawn once, run to exit, report Ok/Failed.
// There is no signal escalation here because Exec steps are expected to
// terminate on their own.
type execHandle struct {
	mu     sync.Mutex
	status types.AsyncOperationStatus
	cmd    *exec.Cmd
}

func (h *execHandle) Status() types.AsyncOperationStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

func (h *execHandle) setStatus(s types.AsyncOperationStatus) {
	h.mu.Lock()
	h.status = s
	h.mu.Unlock()
}

// Stop kills the process directly. Unlike pkg/procwrap there is no signal
// escalation: a sequence Exec step is a short one-shot command, not a
// daemon expected to shut down gracefully (spec.md §4.6 names no
// termination policy for it).
func (h *execHandle) Stop() {
	h.mu.Lock()
	cmd := h.cmd
	h.mu.Unlock()
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

// startExec spawns resolved and returns immediately with a handle that
// resolves once the process exits.
func startExec(resolved types.ResolvedExec, store *output.Store, key types.OutputKey) *execHandle {
	h := &execHandle{status: types.OperationRunning}

	go func() {
		cmd := exec.Command(resolved.Executable, resolved.Args...)
		cmd.Dir = resolved.Workdir
		cmd.Env = resolved.Env

		stdout, err := cmd.StdoutPipe()
		if err != nil {
			writeLine(store, key, fmt.Sprintf("failed to start %s: %v", resolved.Executable, err))
			h.setStatus(types.OperationFailed)
			return
		}
		stderr, err := cmd.StderrPipe()
		if err != nil {
			writeLine(store, key, fmt.Sprintf("failed to start %s: %v", resolved.Executable, err))
			h.setStatus(types.OperationFailed)
			return
		}

		if err := cmd.Start(); err != nil {
			writeLine(store, key, fmt.Sprintf("failed to start %s: %v", resolved.Executable, err))
			h.setStatus(types.OperationFailed)
			return
		}
		h.mu.Lock()
		h.cmd = cmd
		h.mu.Unlock()

		var wg sync.WaitGroup
		wg.Add(2)
		go readLines(stdout, store, key, &wg)
		go readLines(stderr, store, key, &wg)
		wg.Wait()

		if err := cmd.Wait(); err != nil {
			h.setStatus(types.OperationFailed)
			return
		}
		h.setStatus(types.OperationOk)
	}()

	return h
}

func readLines(r io.Reader, store *output.Store, key types.OutputKey, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		writeLine(store, key, scanner.Text())
	}
}

func writeLine(store *output.Store, key types.OutputKey, line string) {
	if store == nil {
		return
	}
	store.Add(key, line)
}
