package system

import (
	"github.com/kestrel-dev/kestrel/pkg/metrics"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

// ActiveProfileId satisfies pkg/metrics.StatsSource.
func (e *Engine) ActiveProfileId() (types.ServiceId, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state.profile == nil {
		return "", false
	}
	return e.state.profile.Id, true
}

// ServiceCount satisfies pkg/metrics.StatsSource.
func (e *Engine) ServiceCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.state.services)
}

// BlockStatusCounts satisfies pkg/metrics.StatsSource.
func (e *Engine) BlockStatusCounts() map[types.ServiceId]map[types.BlockStatusKind]int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[types.ServiceId]map[types.BlockStatusKind]int, len(e.state.services))
	for sid, st := range e.state.services {
		counts := make(map[types.BlockStatusKind]int)
		for _, rt := range st.blocks {
			counts[rt.Status().Kind]++
		}
		out[sid] = counts
	}
	return out
}

// TaskStatusCounts satisfies pkg/metrics.StatsSource.
func (e *Engine) TaskStatusCounts() map[types.TaskStatusKind]int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	counts := make(map[types.TaskStatusKind]int)
	for _, t := range e.state.tasks.List() {
		counts[t.Status.Kind]++
	}
	return counts
}

// OutputBucketCount satisfies pkg/metrics.StatsSource.
func (e *Engine) OutputBucketCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.output.BucketCount()
}

var _ metrics.StatsSource = (*Engine)(nil)
