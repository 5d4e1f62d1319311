package types

import "time"

// RequiredStatus is the set of block statuses a Dependency requirement can
// compare against. It deliberately excludes the Disabled status — nothing
// should be expressed as "depends on block being disabled".
type RequiredStatus string

const (
	RequiredInitial RequiredStatus = "initial"
	RequiredWorking RequiredStatus = "working"
	RequiredOk      RequiredStatus = "ok"
	RequiredError   RequiredStatus = "error"
)

// Requirement is the tagged union of spec.md §3: an observable condition
// checked by the Requirement Checker, used both as a block prerequisite and
// as a health check.
type Requirement interface {
	isRequirement()
}

// HTTPMethod restricts Requirement's Http variant to the methods spec.md §6
// enumerates.
type HTTPMethod string

const (
	MethodGet     HTTPMethod = "GET"
	MethodPost    HTTPMethod = "POST"
	MethodPut     HTTPMethod = "PUT"
	MethodPatch   HTTPMethod = "PATCH"
	MethodDelete  HTTPMethod = "DELETE"
	MethodOptions HTTPMethod = "OPTIONS"
)

// HTTPRequirement issues a request and compares the response status.
type HTTPRequirement struct {
	URL            string
	Method         HTTPMethod
	Timeout        time.Duration
	ExpectedStatus int
}

func (HTTPRequirement) isRequirement() {}

// PortRequirement succeeds iff something is already listening on Host:Port —
// the probe attempts to bind the address; a successful bind means the port
// is free, which is a requirement *failure* (spec.md §4.5, §8).
type PortRequirement struct {
	Host string // defaults to 127.0.0.1
	Port int
}

func (PortRequirement) isRequirement() {}

// StateQueryRequirement demands a boolean result from the script engine; any
// non-boolean result is a failure.
type StateQueryRequirement struct {
	Script string
}

func (StateQueryRequirement) isRequirement() {}

// FileExistsRequirement passes iff at least one path matching each glob
// pattern exists on disk. Relative patterns are resolved against the owning
// service's workdir; patterns are not canonicalized before matching
// (spec.md §9 Open Questions).
type FileExistsRequirement struct {
	GlobPaths []string
}

func (FileExistsRequirement) isRequirement() {}

// DependencyRequirement passes iff the named block (in the named service, or
// the current service if Service is empty) currently has the required
// status.
type DependencyRequirement struct {
	Service  ServiceId // optional; empty means "this service"
	Block    BlockId
	Required RequiredStatus
}

func (DependencyRequirement) isRequirement() {}
