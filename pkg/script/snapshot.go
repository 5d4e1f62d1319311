package script

import "github.com/kestrel-dev/kestrel/pkg/types"

// BlockSnapshot is the read-only view of one block exposed to scripts.
type BlockSnapshot struct {
	Id     types.BlockId
	Status types.BlockStatus
}

// ServiceSnapshot is the read-only view of one service exposed to scripts.
type ServiceSnapshot struct {
	Id     types.ServiceId
	Blocks map[types.BlockId]BlockSnapshot
}

// Snapshot is a point-in-time, read-only copy of SystemState handed to the
// script engine. Building it under a read lock and evaluating against the
// copy keeps goja's single-threaded VM from ever touching shared state
// directly (spec.md §4.4).
type Snapshot struct {
	Services map[types.ServiceId]ServiceSnapshot
	// Self is the service the evaluation is scoped to, if any; scripts see
	// it bound to the `self` constant.
	Self *types.ServiceId
}
