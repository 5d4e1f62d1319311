package sequence

import (
	"github.com/kestrel-dev/kestrel/pkg/output"
	"github.com/kestrel-dev/kestrel/pkg/requirement"
	"github.com/kestrel-dev/kestrel/pkg/script"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

// Context bundles everything a sequence step needs: the base environment for
// resolving Exec substitutions, where to write process output, the script
// engine for Script steps, and the requirement.Context a WaitRequirement
// step's nested Checker evaluates against.
type Context struct {
	BaseEnv     map[string]string
	Output      *output.Store
	OutputKey   types.OutputKey
	Engine      *script.Engine
	Snapshot    script.Snapshot
	Requirement requirement.Context
}
