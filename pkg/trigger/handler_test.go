package trigger

import (
	"sync"
	"testing"
	"time"

	"github.com/kestrel-dev/kestrel/pkg/script"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

type recordingMarker struct {
	mu     sync.Mutex
	marked []types.TaskDefinitionId
}

func (m *recordingMarker) MarkTriggered(_ types.ServiceId, automationID types.TaskDefinitionId, _ time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marked = append(m.marked, automationID)
}

func (m *recordingMarker) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.marked)
}

func profileWithQuery(script string) types.Profile {
	return types.Profile{
		Id: "default",
		Services: []types.Service{{
			Id: "api",
			Automations: []types.Automation{{
				Id:      "deploy",
				Enabled: true,
				Triggers: []types.Trigger{
					types.BecomesTrueTrigger{Script: script},
				},
			}},
		}},
	}
}

func TestTickFiresOnFalseToTrueEdge(t *testing.T) {
	h := NewHandler()
	engine := script.NewEngine()
	marker := &recordingMarker{}

	profile := profileWithQuery("false")
	h.Tick(profile, engine, script.Snapshot{}, time.Now(), marker)
	if marker.count() != 0 {
		t.Fatalf("expected no fire on initial false, got %d", marker.count())
	}

	profile = profileWithQuery("true")
	h.Tick(profile, engine, script.Snapshot{}, time.Now(), marker)
	if marker.count() != 1 {
		t.Fatalf("expected exactly one fire on false->true edge, got %d", marker.count())
	}

	// Staying true must not re-fire.
	h.Tick(profile, engine, script.Snapshot{}, time.Now(), marker)
	if marker.count() != 1 {
		t.Fatalf("expected no re-fire while staying true, got %d", marker.count())
	}
}

func TestTickSkipsDisabledAutomations(t *testing.T) {
	h := NewHandler()
	engine := script.NewEngine()
	marker := &recordingMarker{}

	profile := profileWithQuery("true")
	profile.Services[0].Automations[0].Enabled = false

	h.Tick(profile, engine, script.Snapshot{}, time.Now(), marker)
	if marker.count() != 0 {
		t.Errorf("expected disabled automation to never fire, got %d", marker.count())
	}
}

func TestResetClearsHistoryAllowingRefire(t *testing.T) {
	h := NewHandler()
	engine := script.NewEngine()
	marker := &recordingMarker{}

	profile := profileWithQuery("true")
	h.Tick(profile, engine, script.Snapshot{}, time.Now(), marker)
	if marker.count() != 1 {
		t.Fatalf("expected one fire, got %d", marker.count())
	}

	h.Reset()
	h.Tick(profile, engine, script.Snapshot{}, time.Now(), marker)
	if marker.count() != 2 {
		t.Errorf("expected re-fire after Reset, got %d", marker.count())
	}
}
