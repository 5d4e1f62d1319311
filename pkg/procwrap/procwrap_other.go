//go:build !linux

package procwrap

import (
	"os/exec"

	"github.com/kestrel-dev/kestrel/pkg/output"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

func setupProcAttr(cmd *exec.Cmd) {}

// terminate falls back to a direct kill on non-Linux platforms, where
// process groups and POSIX signal escalation aren't available the same way
// (spec.md §4.2).
func (w *Wrapper) terminate(store *output.Store, sysKey types.OutputKey, graceful bool, waitCh <-chan error) error {
	store.Add(sysKey, "Terminating process forcefully")
	_ = w.cmd.Process.Kill()
	return <-waitCh
}
