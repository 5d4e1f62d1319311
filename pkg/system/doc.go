/*
Package system implements SystemState and the worker loop (spec.md §2, §5,
§9's design note): the single in-memory struct every other package reads
from or mutates, and the Engine that ticks it.

Engine plays the role cuemby-warren/pkg/manager.Manager plays for Warren —
the hub that owns shared state and is driven by every reconciler/scheduler
package around it — but with the Raft-backed storage.Store dropped for a
plain map behind one sync.RWMutex, since spec.md §6 rules out persistence
entirely. Engine is also where the narrow interfaces defined by pkg/watch,
pkg/trigger, pkg/action, pkg/requirement, pkg/metrics, pkg/script and
pkg/remote get their concrete implementation, keeping every one of those
packages free of an import on this one. pkg/automation's interfaces are
satisfied by task.Registry and script.Executor instead.
*/
package system
