package procwrap

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kestrel-dev/kestrel/pkg/output"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

const pollInterval = 10 * time.Millisecond

// Wrapper owns one spawned child process: a manager goroutine that waits for
// it to exit (by itself, or because it was told to stop) and two reader
// goroutines that pipe its stdout/stderr into the Output Store (spec.md
// §4.2).
type Wrapper struct {
	cmd *exec.Cmd

	mu     sync.Mutex
	status types.AsyncOperationStatus

	forceExit atomic.Bool
	done      chan struct{}
	group     *errgroup.Group
}

// Start spawns resolved in its own process group, stdin closed, stdout and
// stderr piped into store under extKey (kind ExtProcess); sysKey (kind
// System) receives termination-escalation narration. shouldExit is polled
// every 10ms and, if true alongside a still-running child, short-circuits
// straight to SIGKILL (the system is already exiting ungracefully).
func Start(resolved types.ResolvedExec, store *output.Store, extKey, sysKey types.OutputKey, shouldExit func() bool) (*Wrapper, error) {
	cmd := exec.Command(resolved.Executable, resolved.Args...)
	cmd.Dir = resolved.Workdir
	cmd.Env = resolved.Env
	cmd.Stdin = nil
	setupProcAttr(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn %q: %w", resolved.Executable, err)
	}

	w := &Wrapper{
		cmd:    cmd,
		status: types.OperationRunning,
		done:   make(chan struct{}),
	}

	group := &errgroup.Group{}
	group.Go(func() error { readLines(stdout, store, extKey); return nil })
	group.Go(func() error { readLines(stderr, store, extKey); return nil })

	waitCh := make(chan error, 1)
	group.Go(func() error {
		waitCh <- cmd.Wait()
		return nil
	})
	w.group = group

	go w.manage(waitCh, store, sysKey, shouldExit)

	return w, nil
}

func readLines(r io.Reader, store *output.Store, key types.OutputKey) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		store.Add(key, scanner.Text())
	}
}

func (w *Wrapper) manage(waitCh <-chan error, store *output.Store, sysKey types.OutputKey, shouldExit func() bool) {
	defer close(w.done)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var waitErr error
	exited := false

loop:
	for {
		select {
		case waitErr = <-waitCh:
			exited = true
			break loop
		case <-ticker.C:
			if w.forceExit.Load() || shouldExit() {
				break loop
			}
		}
	}

	if !exited {
		graceful := !shouldExit()
		waitErr = w.terminate(store, sysKey, graceful, waitCh)
	}

	w.mu.Lock()
	if waitErr == nil {
		w.status = types.OperationOk
	} else {
		w.status = types.OperationFailed
	}
	w.mu.Unlock()

	_ = w.group.Wait()
}

// Stop requests termination; the manager goroutine observes this within one
// poll interval and drives the kill escalation.
func (w *Wrapper) Stop() {
	w.forceExit.Store(true)
}

// Status returns the wrapper's current lifecycle status.
func (w *Wrapper) Status() types.AsyncOperationStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Done is closed once the child has exited and all reader goroutines have
// drained.
func (w *Wrapper) Done() <-chan struct{} {
	return w.done
}

// PID returns the child's process (and process group) id.
func (w *Wrapper) PID() int {
	return w.cmd.Process.Pid
}

// waitWithTimeout blocks until waitCh delivers the child's exit error or
// timeout elapses, whichever comes first. ok is true iff the child exited
// within timeout.
func waitWithTimeout(waitCh <-chan error, timeout time.Duration) (err error, ok bool) {
	select {
	case err = <-waitCh:
		return err, true
	case <-time.After(timeout):
		return nil, false
	}
}
