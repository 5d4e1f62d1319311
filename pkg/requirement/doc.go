/*
Package requirement implements the Requirement Checker (spec.md §4.5): the
decision table that drives one Requirement's async probe to a verdict and
backs both block prerequisites and health checks.

The HTTP and TCP-style probes are adapted from cuemby-warren's
pkg/health/http.go and tcp.go — the same request-or-dial-and-compare shape —
and the consecutive-failure/backoff notion in the decision table is modeled
on pkg/health/health.go's Config.Retries and Status.ConsecutiveFailures.
Checker itself owns only the in-flight probe handle; checks_completed and
last_failure are the caller's state, mirrored in the WorkStep variants in
pkg/types.
*/
package requirement
