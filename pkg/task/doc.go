/*
Package task implements the Task Engine (spec.md §4.8): ad-hoc, concurrent
step-sequence runs spawned by a user action or an automation effect, sharing
pkg/sequence with the block engine's CommandSeq work.

Runtime mirrors pkg/block's per-unit-of-work shape: it owns only the
in-flight sequence.Executor handle for the task's current step, while the
caller's types.TaskStatus carries the persisted progress. Registry is the
tick-loop-owning collaborator cuemby-warren's pkg/scheduler models: a single
worker loop (owned by pkg/system, not by this package — spec.md §5 describes
one worker thread driving both blocks and tasks) calls TickRunning once per
iteration to advance every Running task by one step.
*/
package task
