package task

import (
	"github.com/kestrel-dev/kestrel/pkg/output"
	"github.com/kestrel-dev/kestrel/pkg/requirement"
	"github.com/kestrel-dev/kestrel/pkg/script"
	"github.com/kestrel-dev/kestrel/pkg/sequence"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

// Context bundles what one Task's Runtime needs to drive its steps: the
// workdir Exec/FileExists substitutions resolve against, where to write
// output, and the collaborators pkg/sequence depends on.
type Context struct {
	Workdir  string
	BaseEnv  map[string]string
	Output   *output.Store
	Engine   *script.Engine
	Snapshot script.Snapshot
	Lookup   requirement.StatusLookup
}

func (c Context) outputKey(id types.TaskId) types.OutputKey {
	return types.OutputKey{SourceName: string(id), Kind: types.OutputSystem}
}

func (c Context) sequenceContext(id types.TaskId) sequence.Context {
	key := c.outputKey(id)
	return sequence.Context{
		BaseEnv:   c.BaseEnv,
		Output:    c.Output,
		OutputKey: key,
		Engine:    c.Engine,
		Snapshot:  c.Snapshot,
		Requirement: requirement.Context{
			Workdir:   c.Workdir,
			Lookup:    c.Lookup,
			Engine:    c.Engine,
			Snapshot:  c.Snapshot,
			Output:    c.Output,
			OutputKey: key,
		},
	}
}

// ResolveDefinition looks up a task definition by id, preferring a
// service-local definition over a profile-level one (spec.md §4.8:
// "resolution is service-local first, then profile-level").
func ResolveDefinition(service types.Service, profile types.Profile, id types.TaskDefinitionId) (types.TaskDefinition, bool) {
	if def, ok := service.TaskDefinition(id); ok {
		return def, true
	}
	return profile.TaskDefinition(id)
}
