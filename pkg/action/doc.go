/*
Package action implements the Action Processor (spec.md §4.12): the single
consumer of the user-action queue, translating each types.UserAction into a
call against pkg/system's Mutator surface.

Its Start/Stop/stopCh lifecycle is grounded on
cuemby-warren/pkg/reconciler's loop shape, adapted from a fixed-interval
ticker to draining a buffered channel — this loop has no periodic work of
its own, only reacting to enqueued actions, which Dispatch also makes it
usable directly as pkg/script's Dispatcher.
*/
package action
