package requirement

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kestrel-dev/kestrel/pkg/types"
)

// probe runs one Requirement to completion and reports success or failure.
// It is run on its own goroutine by Checker; ctx is cancelled if the Checker
// times the check out while the probe is in flight.
func probe(ctx context.Context, ectx Context, req types.Requirement) (bool, error) {
	switch r := req.(type) {
	case types.HTTPRequirement:
		return checkHTTP(ctx, ectx, r)
	case types.PortRequirement:
		return checkPort(ctx, r)
	case types.StateQueryRequirement:
		return checkStateQuery(ectx, r)
	case types.FileExistsRequirement:
		return checkFileExists(ectx, r)
	case types.DependencyRequirement:
		return checkDependency(ectx, r)
	default:
		return false, fmt.Errorf("requirement: unknown requirement type %T", req)
	}
}

// checkHTTP issues a request and compares its status code. Both outcomes
// write one human-readable line to the block's system output (spec.md
// §4.5).
func checkHTTP(ctx context.Context, ectx Context, r types.HTTPRequirement) (bool, error) {
	method := string(r.Method)
	if method == "" {
		method = http.MethodGet
	}

	reqCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, method, r.URL, nil)
	if err != nil {
		writeLine(ectx, fmt.Sprintf("http %s %s: failed to build request: %v", method, r.URL, err))
		return false, nil
	}

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		writeLine(ectx, fmt.Sprintf("http %s %s: %v", method, r.URL, err))
		return false, nil
	}
	defer resp.Body.Close()

	expected := r.ExpectedStatus
	if expected == 0 {
		expected = http.StatusOK
	}
	ok := resp.StatusCode == expected
	if ok {
		writeLine(ectx, fmt.Sprintf("http %s %s: %d", method, r.URL, resp.StatusCode))
	} else {
		writeLine(ectx, fmt.Sprintf("http %s %s: %d (expected %d)", method, r.URL, resp.StatusCode, expected))
	}
	return ok, nil
}

func writeLine(ectx Context, line string) {
	if ectx.Output == nil {
		return
	}
	ectx.Output.Add(ectx.OutputKey, line)
}

// checkPort attempts to bind host:port. A successful bind means the address
// is free, which is a requirement *failure*; a bind failure means something
// is already listening there, which is success (spec.md §4.5, §8).
func checkPort(ctx context.Context, r types.PortRequirement) (bool, error) {
	host := r.Host
	if host == "" {
		host = "127.0.0.1"
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", host, r.Port))
	if err != nil {
		return true, nil
	}
	_ = ln.Close()
	return false, nil
}

// checkStateQuery demands a boolean result from the read-only script engine;
// a non-boolean result (or a thrown error) is a failure, not a Go error —
// the caller isn't supposed to crash over a bad script.
func checkStateQuery(ectx Context, r types.StateQueryRequirement) (bool, error) {
	if ectx.Engine == nil {
		return false, fmt.Errorf("requirement: StateQuery with no script engine configured")
	}
	ok, err := ectx.Engine.EvalBool(r.Script, ectx.Snapshot)
	if err != nil {
		return false, nil
	}
	return ok, nil
}

// checkFileExists resolves each glob pattern against workdir (if relative)
// and passes iff every pattern matches at least one filesystem entry.
func checkFileExists(ectx Context, r types.FileExistsRequirement) (bool, error) {
	if len(r.GlobPaths) == 0 {
		return true, nil
	}
	for _, pattern := range r.GlobPaths {
		resolved := pattern
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(ectx.Workdir, resolved)
		}
		matches, err := doublestar.FilepathGlob(resolved)
		if err != nil {
			return false, nil
		}
		if len(matches) == 0 {
			return false, nil
		}
	}
	return true, nil
}

// checkDependency reads the target service/block's status and compares it
// against the required one; a Disabled target never satisfies any
// RequiredStatus (spec.md §3: RequiredStatus deliberately excludes
// Disabled).
func checkDependency(ectx Context, r types.DependencyRequirement) (bool, error) {
	if ectx.Lookup == nil {
		return false, fmt.Errorf("requirement: Dependency with no status lookup configured")
	}
	service := r.Service
	if service == "" {
		service = ectx.Self
	}
	status, ok := ectx.Lookup.BlockStatus(service, r.Block)
	if !ok {
		return false, nil
	}
	return matchesRequired(status, r.Required), nil
}

func matchesRequired(status types.BlockStatus, required types.RequiredStatus) bool {
	switch status.Kind {
	case types.BlockInitial:
		return required == types.RequiredInitial
	case types.BlockWorking:
		return required == types.RequiredWorking
	case types.BlockOk:
		return required == types.RequiredOk
	case types.BlockError:
		return required == types.RequiredError
	default:
		return false
	}
}
