/*
Package log provides structured logging for kestrel using zerolog.

It wraps zerolog with a package-level Logger, a Config/Init pair, and
component/service/block/task-scoped child loggers so every goroutine in the
engine (block state machine, requirement checker, process wrapper, watcher,
automation scheduler, ...) logs with consistent context fields.

SetComponentLevel raises one component's effective level above Init's global
floor, independent of everything else — useful for quieting the file
watcher's per-filesystem-event debug logging while running the rest of the
process at debug to chase a stuck block.

	log.Init(log.Config{Level: log.DebugLevel, JSONOutput: true})
	log.SetComponentLevel("watch", log.WarnLevel)
	blockLog := log.WithBlock("api", "build")
	blockLog.Info().Msg("entering PrerequisiteCheck")
*/
package log
