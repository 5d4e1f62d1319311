package system

import (
	"time"

	"github.com/kestrel-dev/kestrel/pkg/block"
	"github.com/kestrel-dev/kestrel/pkg/output"
	"github.com/kestrel-dev/kestrel/pkg/script"
	"github.com/kestrel-dev/kestrel/pkg/task"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

// serviceState is everything the engine keeps per active service beyond the
// static types.Service definition: the per-block Runtimes and each block's
// output-visibility toggle.
type serviceState struct {
	definition   types.Service
	blocks       map[types.BlockId]*block.Runtime
	outputHidden bool
}

// State is kestrel's single shared mutable struct — spec.md §9's
// "SystemState" — held entirely in memory behind Engine's lock (spec.md §6:
// no persistence). It holds the active profile, one Runtime per (service,
// block), the shared Output store, and the collaborator registries every
// other package's Tick methods are driven against.
//
// State itself does no locking; Engine wraps every access with its
// sync.RWMutex, matching the split cuemby-warren/pkg/manager draws between
// Manager (lock owner) and the FSM/store it drives.
type State struct {
	profile  *types.Profile
	services map[types.ServiceId]*serviceState

	output *output.Store
	tasks  *task.Registry

	automations map[types.ServiceId]map[types.TaskDefinitionId]*time.Time // LastTriggered overlay
}

func newState() *State {
	return &State{
		services:    make(map[types.ServiceId]*serviceState),
		output:      output.New(),
		tasks:       task.NewRegistry(),
		automations: make(map[types.ServiceId]map[types.TaskDefinitionId]*time.Time),
	}
}

// activate tears down whatever profile is currently loaded and builds fresh
// Runtimes for every service/block in profile (spec.md §3 Lifecycle: "On
// profile activation... every block's Runtime resets to Initial").
func (s *State) activate(profile types.Profile) {
	for _, st := range s.services {
		for _, rt := range st.blocks {
			rt.Reset()
		}
	}
	s.services = make(map[types.ServiceId]*serviceState, len(profile.Services))
	for _, svc := range profile.Services {
		st := &serviceState{definition: svc, blocks: make(map[types.BlockId]*block.Runtime, len(svc.Blocks))}
		for _, b := range svc.Blocks {
			st.blocks[b.Id] = block.NewRuntime()
		}
		s.services[svc.Id] = st
	}
	s.profile = &profile
	s.tasks.Reset()
	s.automations = make(map[types.ServiceId]map[types.TaskDefinitionId]*time.Time)
}

// deactivate clears the active profile entirely (spec.md §3 Lifecycle: "the
// active profile can also be cleared, leaving the system idle").
func (s *State) deactivate() {
	for _, st := range s.services {
		for _, rt := range st.blocks {
			rt.Reset()
		}
	}
	s.profile = nil
	s.services = make(map[types.ServiceId]*serviceState)
	s.tasks.Reset()
	s.automations = make(map[types.ServiceId]map[types.TaskDefinitionId]*time.Time)
}

func (s *State) service(id types.ServiceId) (*serviceState, bool) {
	st, ok := s.services[id]
	return st, ok
}

// snapshot builds the read-only copy of this profile handed to the script
// engine (spec.md §4.4).
func (s *State) snapshot(self *types.ServiceId) script.Snapshot {
	snap := script.Snapshot{Services: make(map[types.ServiceId]script.ServiceSnapshot, len(s.services)), Self: self}
	for id, st := range s.services {
		blocks := make(map[types.BlockId]script.BlockSnapshot, len(st.blocks))
		for bid, rt := range st.blocks {
			blocks[bid] = script.BlockSnapshot{Id: bid, Status: rt.Status()}
		}
		snap.Services[id] = script.ServiceSnapshot{Id: id, Blocks: blocks}
	}
	return snap
}

// markTriggeredLocked applies a Query Trigger Handler edge to the owning
// Automation's LastTriggered field. The profile's Automation value itself is
// immutable static config, so the overlay map is what actually carries this
// piece of runtime state forward.
func (s *State) markTriggeredLocked(service types.ServiceId, automationID types.TaskDefinitionId, now time.Time) {
	byAutomation, ok := s.automations[service]
	if !ok {
		byAutomation = make(map[types.TaskDefinitionId]*time.Time)
		s.automations[service] = byAutomation
	}
	t := now
	byAutomation[automationID] = &t
}
