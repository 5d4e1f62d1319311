/*
Package sequence implements the Sequence Executor (spec.md §4.6), the engine
behind a block's CommandSeq work, a task definition's steps, and an
automation's InlineStepsAction. Exec steps reuse procwrap's goroutine-plus-
output-store shape but run to completion rather than staying resident;
WaitRequirement steps wrap a single-entry pkg/requirement.Checker; Script
steps evaluate synchronously through pkg/script.

Like pkg/requirement.Checker, Executor does not track how many steps have
completed — that belongs to whatever state the caller persists (a Block's
steps_completed, a Task's CompletedSteps) — it owns only the in-flight
handle for whichever step is currently active.
*/
package sequence
