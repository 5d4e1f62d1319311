/*
Package block implements the Block State Machine (spec.md §4.7), the core of
kestrel: one Runtime per (service, block), ticked once per worker-loop
iteration. It is grounded on cuemby-warren's pkg/reconciler in spirit (a
single synchronous pass reading and folding back shared state under a
lock) but the decision table itself has no teacher analogue — it is
translated directly from the original Rust work_handler/block_processor
state machine into an explicit Go switch.

Runtime owns the Check operation (a pkg/requirement.Checker), the CommandSeq
Work operation (a pkg/sequence.Executor) and the Process Work operation (a
pkg/procwrap.Wrapper) — never more than one of each, matching spec.md §3's
"at most one active Work or Process handle per operation kind".
*/
package block
