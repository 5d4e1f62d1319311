package block

import (
	"github.com/rs/zerolog"

	"github.com/kestrel-dev/kestrel/pkg/output"
	"github.com/kestrel-dev/kestrel/pkg/requirement"
	"github.com/kestrel-dev/kestrel/pkg/script"
	"github.com/kestrel-dev/kestrel/pkg/sequence"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

// Context bundles everything one Tick needs beyond the Runtime's own
// persisted state: the block's definition, where to resolve Exec
// substitutions and FileExists globs from, where operations write output,
// and the collaborators pkg/requirement and pkg/sequence depend on.
type Context struct {
	Service  types.ServiceId
	Block    types.Block
	Workdir  string
	BaseEnv  map[string]string
	Output   *output.Store
	Engine   *script.Engine
	Snapshot script.Snapshot
	Lookup   requirement.StatusLookup

	// ShouldExit reports whether the whole process is shutting down — a
	// spawned process's manager goroutine polls it to decide whether to
	// skip straight to the ungraceful (SIGKILL) termination path.
	ShouldExit func() bool

	Logger zerolog.Logger
}

func (c Context) sysKey() types.OutputKey {
	return types.OutputKey{Service: c.Service, SourceName: string(c.Block.Id), Kind: types.OutputSystem}
}

func (c Context) extKey() types.OutputKey {
	return types.OutputKey{Service: c.Service, SourceName: string(c.Block.Id), Kind: types.OutputExtProcess}
}

func (c Context) writeSystem(line string) {
	if c.Output != nil {
		c.Output.Add(c.sysKey(), line)
	}
}

func (c Context) requirementContext() requirement.Context {
	return requirement.Context{
		Workdir:   c.Workdir,
		Self:      c.Service,
		Lookup:    c.Lookup,
		Engine:    c.Engine,
		Snapshot:  c.Snapshot,
		Output:    c.Output,
		OutputKey: c.sysKey(),
	}
}

func (c Context) sequenceContext() sequence.Context {
	return sequence.Context{
		BaseEnv:     c.BaseEnv,
		Output:      c.Output,
		OutputKey:   c.sysKey(),
		Engine:      c.Engine,
		Snapshot:    c.Snapshot,
		Requirement: c.requirementContext(),
	}
}

func execsToSteps(execs []types.Exec) []types.SequenceStep {
	steps := make([]types.SequenceStep, len(execs))
	for i, e := range execs {
		steps[i] = types.ExecStep{Exec: e}
	}
	return steps
}
