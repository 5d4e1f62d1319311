/*
Package procwrap is the Process Wrapper of spec.md §4.2: it owns one spawned
child, piping its stdout/stderr into an output.Store and driving graceful
termination on request or system shutdown.

A Wrapper runs four goroutines: two line readers and one cmd.Wait waiter,
joined through an errgroup.Group, plus one manager that closes Done after
that group has finished. The manager waits for the child to exit on its
own, or for Stop to be called, or for the supplied shouldExit callback to
report the system is already exiting; in the latter two cases it escalates
through the platform's termination policy (procwrap_linux.go implements the
full SIGINT/SIGTERM/SIGKILL sequence against the child's process group;
procwrap_other.go falls back to a direct kill).
*/
package procwrap
