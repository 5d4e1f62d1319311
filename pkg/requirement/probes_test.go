package requirement

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/kestrel-dev/kestrel/pkg/output"
	"github.com/kestrel-dev/kestrel/pkg/script"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

func newTestEngine() *script.Engine {
	return script.NewEngine()
}

func TestCheckHTTPSuccessWritesOutputLine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := output.New()
	key := types.OutputKey{Service: "api", SourceName: "run", Kind: types.OutputSystem}
	ectx := Context{Output: store, OutputKey: key}

	ok, err := checkHTTP(context.Background(), ectx, types.HTTPRequirement{URL: srv.URL})
	if err != nil {
		t.Fatalf("checkHTTP: %v", err)
	}
	if !ok {
		t.Error("expected success")
	}
	if store.BucketCount() != 1 {
		t.Errorf("expected one output bucket, got %d", store.BucketCount())
	}
}

func TestCheckHTTPWrongStatusFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ok, err := checkHTTP(context.Background(), Context{}, types.HTTPRequirement{URL: srv.URL})
	if err != nil {
		t.Fatalf("checkHTTP: %v", err)
	}
	if ok {
		t.Error("expected failure on 500")
	}
}

func TestCheckPortSucceedsWhenSomethingListens(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	addr := ln.Addr().(*net.TCPAddr)

	ok, err := checkPort(context.Background(), types.PortRequirement{Host: "127.0.0.1", Port: addr.Port})
	if err != nil {
		t.Fatalf("checkPort: %v", err)
	}
	if !ok {
		t.Error("expected success when port is occupied")
	}
}

func TestCheckPortFailsWhenPortIsFree(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	ok, err := checkPort(context.Background(), types.PortRequirement{Host: "127.0.0.1", Port: addr.Port})
	if err != nil {
		t.Fatalf("checkPort: %v", err)
	}
	if ok {
		t.Error("expected failure when port is free (bind succeeds)")
	}
}

func TestCheckFileExistsAllPatternsMatch(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ready.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	ectx := Context{Workdir: dir}
	ok, err := checkFileExists(ectx, types.FileExistsRequirement{GlobPaths: []string{"*.txt"}})
	if err != nil {
		t.Fatalf("checkFileExists: %v", err)
	}
	if !ok {
		t.Error("expected match")
	}
}

func TestCheckFileExistsMissingPatternFails(t *testing.T) {
	dir := t.TempDir()

	ectx := Context{Workdir: dir}
	ok, err := checkFileExists(ectx, types.FileExistsRequirement{GlobPaths: []string{"*.txt"}})
	if err != nil {
		t.Fatalf("checkFileExists: %v", err)
	}
	if ok {
		t.Error("expected no match in empty dir")
	}
}

type fakeLookup struct {
	statuses map[types.BlockId]types.BlockStatus
}

func (f fakeLookup) BlockStatus(service types.ServiceId, block types.BlockId) (types.BlockStatus, bool) {
	s, ok := f.statuses[block]
	return s, ok
}

func TestCheckDependencyMatchesRequiredStatus(t *testing.T) {
	lookup := fakeLookup{statuses: map[types.BlockId]types.BlockStatus{
		"build": types.OkStatus(),
	}}
	ectx := Context{Self: "api", Lookup: lookup}

	ok, err := checkDependency(ectx, types.DependencyRequirement{Block: "build", Required: types.RequiredOk})
	if err != nil {
		t.Fatalf("checkDependency: %v", err)
	}
	if !ok {
		t.Error("expected match")
	}
}

func TestCheckDependencyMismatchFails(t *testing.T) {
	lookup := fakeLookup{statuses: map[types.BlockId]types.BlockStatus{
		"build": types.ErrorStatus(),
	}}
	ectx := Context{Self: "api", Lookup: lookup}

	ok, err := checkDependency(ectx, types.DependencyRequirement{Block: "build", Required: types.RequiredOk})
	if err != nil {
		t.Fatalf("checkDependency: %v", err)
	}
	if ok {
		t.Error("expected mismatch to fail")
	}
}

func TestCheckDependencyUnknownBlockFails(t *testing.T) {
	ectx := Context{Self: "api", Lookup: fakeLookup{statuses: map[types.BlockId]types.BlockStatus{}}}

	ok, err := checkDependency(ectx, types.DependencyRequirement{Block: "missing", Required: types.RequiredOk})
	if err != nil {
		t.Fatalf("checkDependency: %v", err)
	}
	if ok {
		t.Error("expected unknown block to fail")
	}
}
