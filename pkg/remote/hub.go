package remote

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/kestrel-dev/kestrel/pkg/output"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

// statusPollInterval is how often the Hub re-samples block status to detect
// changes worth broadcasting — far shorter than pkg/metrics.Collector's 15s
// poll, so that a TUI-equivalent client sees a status flip promptly.
const statusPollInterval = 250 * time.Millisecond

// OutputSource is the slice of pkg/output.Store the Hub needs: a
// subscription to newly-added lines.
type OutputSource interface {
	Subscribe() chan output.Event
	Unsubscribe(chan output.Event)
}

// StatusSource is the slice of pkg/system.Engine the Hub needs to sample
// block statuses for change detection, without importing pkg/system.
type StatusSource interface {
	ActiveProfile() (types.Profile, bool)
	Services() []types.ServiceId
	BlockStatus(service types.ServiceId, block types.BlockId) (types.BlockStatus, bool)
}

type blockKey struct {
	service types.ServiceId
	block   types.BlockId
}

// Hub fans OutputLine and block-status-change events out to every connected
// websocket client (SPEC_FULL.md §9).
type Hub struct {
	output OutputSource
	status StatusSource
	logger zerolog.Logger

	register   chan *client
	unregister chan *client
	broadcast  chan []byte

	stopCh chan struct{}
}

// NewHub wires a Hub over output and status; the Hub keeps both and only
// reads from them.
func NewHub(outputSource OutputSource, statusSource StatusSource, logger zerolog.Logger) *Hub {
	return &Hub{
		output:     outputSource,
		status:     statusSource,
		logger:     logger,
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 256),
		stopCh:     make(chan struct{}),
	}
}

// Start begins the output-subscription pump, the status-poll ticker and the
// client registry loop.
func (h *Hub) Start() {
	go h.runOutputPump()
	go h.runStatusPoll()
	go h.runRegistry()
}

// Stop terminates every Hub goroutine, closing all connected clients.
func (h *Hub) Stop() {
	close(h.stopCh)
}

func (h *Hub) runRegistry() {
	clients := make(map[*client]struct{})
	for {
		select {
		case c := <-h.register:
			clients[c] = struct{}{}
		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			for c := range clients {
				select {
				case c.send <- msg:
				default:
					// slow client: drop rather than stall the broadcaster
				}
			}
		case <-h.stopCh:
			for c := range clients {
				close(c.send)
			}
			return
		}
	}
}

func (h *Hub) runOutputPump() {
	sub := h.output.Subscribe()
	defer h.output.Unsubscribe(sub)

	for {
		select {
		case event, ok := <-sub:
			if !ok {
				return
			}
			msg, err := encodeOutputLine(event)
			if err != nil {
				h.logger.Warn().Err(err).Msg("failed to encode output line event")
				continue
			}
			select {
			case h.broadcast <- msg:
			case <-h.stopCh:
				return
			}
		case <-h.stopCh:
			return
		}
	}
}

func (h *Hub) runStatusPoll() {
	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	last := make(map[blockKey]types.BlockStatusKind)

	for {
		select {
		case <-ticker.C:
			h.pollStatus(last)
		case <-h.stopCh:
			return
		}
	}
}

func (h *Hub) pollStatus(last map[blockKey]types.BlockStatusKind) {
	profile, ok := h.status.ActiveProfile()
	if !ok {
		for k := range last {
			delete(last, k)
		}
		return
	}

	seen := make(map[blockKey]struct{})
	for _, svc := range profile.Services {
		for _, block := range svc.Blocks {
			k := blockKey{service: svc.Id, block: block.Id}
			seen[k] = struct{}{}

			status, ok := h.status.BlockStatus(svc.Id, block.Id)
			if !ok {
				continue
			}
			if prev, ok := last[k]; ok && prev == status.Kind {
				continue
			}
			last[k] = status.Kind

			msg, err := encodeBlockStatus(svc.Id, block.Id, status.Kind)
			if err != nil {
				h.logger.Warn().Err(err).Msg("failed to encode block status event")
				continue
			}
			select {
			case h.broadcast <- msg:
			case <-h.stopCh:
				return
			}
		}
	}

	for k := range last {
		if _, ok := seen[k]; !ok {
			delete(last, k)
		}
	}
}
