package remote

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kestrel-dev/kestrel/pkg/log"
	"github.com/kestrel-dev/kestrel/pkg/output"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

type fakeStatusSource struct {
	profile types.Profile
	active  bool
	status  map[blockKey]types.BlockStatus
}

func (f *fakeStatusSource) ActiveProfile() (types.Profile, bool) { return f.profile, f.active }

func (f *fakeStatusSource) Services() []types.ServiceId {
	ids := make([]types.ServiceId, 0, len(f.profile.Services))
	for _, svc := range f.profile.Services {
		ids = append(ids, svc.Id)
	}
	return ids
}

func (f *fakeStatusSource) BlockStatus(service types.ServiceId, block types.BlockId) (types.BlockStatus, bool) {
	st, ok := f.status[blockKey{service: service, block: block}]
	return st, ok
}

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestHubBroadcastsNewOutputLines(t *testing.T) {
	store := output.New()
	status := &fakeStatusSource{active: false}

	h := NewHub(store, status, log.WithComponent("remote-test"))
	h.Start()
	defer h.Stop()

	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()

	time.Sleep(20 * time.Millisecond) // let the registry process the register

	store.Add(types.OutputKey{Service: "api", SourceName: "build", Kind: types.OutputSystem}, "hello world")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "hello world") {
		t.Fatalf("unexpected message: %s", data)
	}
	if !strings.Contains(string(data), msgTypeOutputLine) {
		t.Fatalf("expected output_line message, got: %s", data)
	}
}

func TestHubBroadcastsBlockStatusChange(t *testing.T) {
	store := output.New()
	svc := types.Service{
		Id: "api",
		Blocks: []types.Block{
			{Id: "build"},
		},
	}
	status := &fakeStatusSource{
		active:  true,
		profile: types.Profile{Id: "default", Services: []types.Service{svc}},
		status: map[blockKey]types.BlockStatus{
			{service: "api", block: "build"}: {Kind: types.BlockWorking},
		},
	}

	h := NewHub(store, status, log.WithComponent("remote-test"))
	h.Start()
	defer h.Stop()

	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), msgTypeBlockStatus) || !strings.Contains(string(data), "working") {
		t.Fatalf("unexpected message: %s", data)
	}

	status.status[blockKey{service: "api", block: "build"}] = types.BlockStatus{Kind: types.BlockOk}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("read after change: %v", err)
	}
	if !strings.Contains(string(data), "\"status\":\"ok\"") {
		t.Fatalf("expected status change to ok, got: %s", data)
	}
}
