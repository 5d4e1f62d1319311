/*
Package trigger implements the Query Trigger Handler (spec.md §4.10): the
periodic false→true edge detector for StateQuery-sourced automation
triggers, driven by a single caller-owned tick loop the way
cuemby-warren/pkg/scheduler drives its own scheduling cycle.

Edge detection itself is novel bookkeeping spec.md describes directly; this
package contributes no teacher-grounded algorithm beyond the tick-loop shape
and pkg/script's read-only Engine.EvalBool for evaluation.
*/
package trigger
