package requirement

import (
	"github.com/kestrel-dev/kestrel/pkg/output"
	"github.com/kestrel-dev/kestrel/pkg/script"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

// StatusLookup resolves another block's current status for the Dependency
// requirement. pkg/system's state accessor satisfies this.
type StatusLookup interface {
	BlockStatus(service types.ServiceId, block types.BlockId) (types.BlockStatus, bool)
}

// Context bundles everything a probe needs beyond the Requirement itself:
// where to resolve relative paths and dependency lookups from, and where to
// write the human-readable lines Http probes produce.
type Context struct {
	Workdir   string
	Self      types.ServiceId
	Lookup    StatusLookup
	Engine    *script.Engine
	Snapshot  script.Snapshot
	Output    *output.Store
	OutputKey types.OutputKey
}
