//go:build linux

package procwrap

import (
	"os/exec"
	"syscall"
	"time"

	"github.com/kestrel-dev/kestrel/pkg/output"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

const terminationTimeout = 5 * time.Second

func setupProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminate drives the Linux signal-escalation policy against the child's
// process group: SIGINT, wait ≤5s; SIGTERM, wait ≤5s; SIGKILL, wait ≤5s;
// then a direct kill as a last resort. If graceful is false (the system is
// already exiting ungracefully) it skips straight to SIGKILL.
func (w *Wrapper) terminate(store *output.Store, sysKey types.OutputKey, graceful bool, waitCh <-chan error) error {
	pgid := -w.cmd.Process.Pid

	signalAndWait := func(sig syscall.Signal, name string) (error, bool) {
		store.Add(sysKey, "Sending "+name+" to process group")
		if err := syscall.Kill(pgid, sig); err != nil {
			store.Add(sysKey, "Failed to send "+name+" to process: "+err.Error())
			return nil, false
		}
		return waitWithTimeout(waitCh, terminationTimeout)
	}

	if graceful {
		if err, ok := signalAndWait(syscall.SIGINT, "SIGINT"); ok {
			return err
		}
		if err, ok := signalAndWait(syscall.SIGTERM, "SIGTERM"); ok {
			return err
		}
		if err, ok := signalAndWait(syscall.SIGKILL, "SIGKILL"); ok {
			return err
		}
	} else {
		if err, ok := signalAndWait(syscall.SIGKILL, "SIGKILL"); ok {
			return err
		}
	}

	store.Add(sysKey, "Terminating process forcefully")
	_ = w.cmd.Process.Kill()
	return <-waitCh
}
