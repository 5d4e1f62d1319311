package trigger

import (
	"fmt"
	"sync"
	"time"

	"github.com/kestrel-dev/kestrel/pkg/script"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

// Marker records that an automation's StateQuery trigger fired on this pass.
// Implemented by pkg/system, which applies it under its own write lock
// (spec.md §4.10: "takes a write lock on system state and marks each
// automation's last_triggered = now").
type Marker interface {
	MarkTriggered(service types.ServiceId, automationID types.TaskDefinitionId, now time.Time)
}

// Handler re-evaluates every BecomesTrueTrigger across a profile's
// automations on each tick, firing on a false→true edge (spec.md §4.10).
// It holds only the previous-value bookkeeping; profile, snapshot and
// engine are supplied fresh on every call so it has no stale state to reset
// on profile change beyond clearing this map.
type Handler struct {
	mu       sync.Mutex
	previous map[string]bool
}

// NewHandler returns a Handler with no recorded history.
func NewHandler() *Handler {
	return &Handler{previous: make(map[string]bool)}
}

// Reset drops all previous-value bookkeeping (spec.md §3 Lifecycle: "query
// trigger previous-values is reset when the active profile changes").
func (h *Handler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.previous = make(map[string]bool)
}

// Tick evaluates every StateQuery trigger in stable enumeration order,
// updates the previous-value map, and reports Marker.MarkTriggered for every
// false→true edge observed on this pass.
func (h *Handler) Tick(profile types.Profile, engine *script.Engine, snapshot script.Snapshot, now time.Time, marker Marker) {
	type edge struct {
		service      types.ServiceId
		automationID types.TaskDefinitionId
	}
	var edges []edge

	h.mu.Lock()
	for _, service := range profile.Services {
		for _, automation := range service.Automations {
			if !automation.Enabled {
				continue
			}
			for idx, trig := range automation.Triggers {
				becomesTrue, ok := trig.(types.BecomesTrueTrigger)
				if !ok {
					continue
				}

				key := triggerKey(service.Id, automation.Id, idx)
				wasTrue := h.previous[key]

				current, err := engine.EvalBool(becomesTrue.Script, snapshot)
				if err != nil {
					// Treat an evaluation error as false: a broken query
					// should not spuriously fire an automation.
					current = false
				}
				h.previous[key] = current

				if current && !wasTrue {
					edges = append(edges, edge{service: service.Id, automationID: automation.Id})
				}
			}
		}
	}
	h.mu.Unlock()

	for _, e := range edges {
		marker.MarkTriggered(e.service, e.automationID, now)
	}
}

func triggerKey(service types.ServiceId, automationID types.TaskDefinitionId, idx int) string {
	return fmt.Sprintf("%s|%s|%d", service, automationID, idx)
}
