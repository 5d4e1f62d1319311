/*
Package script is kestrel's embedded Script Engine & Executor (spec.md
§4.4), grounded on r3e-network-service_layer's goja usage: a fresh
*goja.Runtime per evaluation, with eval/print/debug/import overridden to
throw and no other host APIs wired in.

Engine is the read-only variant used by the StateQuery requirement and by
Script sequence steps: it evaluates against a Snapshot, a plain-data copy of
whatever part of SystemState the caller chooses to expose, so the VM never
touches shared, mutable state.

Executor adds the mutating surface — disable/enable/toggle/run/rerun/stop/
cancel and spawn_task — and runs all evaluations on one dedicated goroutine,
so a pathological script can't stall the worker tick loop.
*/
package script
