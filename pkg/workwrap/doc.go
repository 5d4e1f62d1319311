/*
Package workwrap runs a short-lived, non-cancelable probe closure on a
background goroutine — the Work Wrapper of spec.md §4.3 — and reports an
AsyncOperationStatus that callers poll, the same way pkg/procwrap reports a
long-lived process's status.
*/
package workwrap
