package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kestrel-dev/kestrel/pkg/types"
)

type recordingDispatcher struct {
	mu        sync.Mutex
	enqueued  []types.ServiceId
	processed int
}

func (d *recordingDispatcher) EnqueueAutomation(service types.ServiceId, _ types.Automation, _ time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enqueued = append(d.enqueued, service)
}

func (d *recordingDispatcher) ProcessPendingAutomations(_ time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.processed++
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.enqueued)
}

func TestRebuildWatchesConfiguredRootAndFiresOnWrite(t *testing.T) {
	dir := t.TempDir()

	dispatcher := &recordingDispatcher{}
	w, err := New(dispatcher, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()
	w.Start()

	profile := &types.Profile{
		Id: "default",
		Services: []types.Service{{
			Id:      "api",
			Workdir: dir,
			Automations: []types.Automation{{
				Id:      "rebuild",
				Enabled: true,
				Triggers: []types.Trigger{
					types.FileModifiedTrigger{Paths: []string{"."}},
				},
			}},
		}},
	}
	w.Rebuild(profile)

	if err := os.WriteFile(filepath.Join(dir, "touched.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if dispatcher.count() > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected at least one automation enqueue after file write")
}

func TestRebuildWithNilProfileClearsWatches(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	w, err := New(dispatcher, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()

	dir := t.TempDir()
	profile := &types.Profile{
		Services: []types.Service{{
			Id:      "api",
			Workdir: dir,
			Automations: []types.Automation{{
				Id:       "a",
				Enabled:  true,
				Triggers: []types.Trigger{types.FileModifiedTrigger{Paths: []string{"."}}},
			}},
		}},
	}
	w.Rebuild(profile)
	if len(w.dirToRoot) == 0 {
		t.Fatal("expected at least one watched directory after Rebuild")
	}

	w.Rebuild(nil)
	if len(w.dirToRoot) != 0 {
		t.Errorf("expected no watched directories after Rebuild(nil), got %d", len(w.dirToRoot))
	}
}

func TestRebuildSkipsDisabledAutomations(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	w, err := New(dispatcher, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Stop()

	dir := t.TempDir()
	profile := &types.Profile{
		Services: []types.Service{{
			Id:      "api",
			Workdir: dir,
			Automations: []types.Automation{{
				Id:       "disabled",
				Enabled:  false,
				Triggers: []types.Trigger{types.FileModifiedTrigger{Paths: []string{"."}}},
			}},
		}},
	}
	w.Rebuild(profile)
	if len(w.dirToRoot) != 0 {
		t.Errorf("expected no watches for a disabled automation, got %d", len(w.dirToRoot))
	}
}
