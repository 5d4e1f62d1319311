package action

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kestrel-dev/kestrel/pkg/types"
)

// Mutator is the subset of pkg/system's state-mutation surface the
// Processor drives — one method per types.UserAction variant (spec.md
// §4.12).
type Mutator interface {
	SelectProfile(profile types.ServiceId)
	ToggleOutput(service types.ServiceId)
	ToggleOutputAll()
	SetBlockAction(service types.ServiceId, block types.BlockId, action types.BlockAction)
	SpawnTask(definition types.TaskDefinitionId, service types.ServiceId)
	Shutdown()
}

// Processor is the single consumer of the user-action queue (spec.md
// §4.12). Its lifecycle (Start/Stop, a goroutine draining a channel until
// stopCh closes) is grounded on cuemby-warren/pkg/reconciler's
// Start/Stop/stopCh shape, adapted from a ticker to a channel drain since
// this loop has work only when an action arrives.
type Processor struct {
	mutator Mutator
	logger  zerolog.Logger
	queue   chan types.UserAction
	stopCh  chan struct{}
}

// NewProcessor returns a Processor with a 256-entry action buffer; Dispatch
// blocks the caller only while that buffer is full.
func NewProcessor(mutator Mutator, logger zerolog.Logger) *Processor {
	return &Processor{
		mutator: mutator,
		logger:  logger,
		queue:   make(chan types.UserAction, 256),
		stopCh:  make(chan struct{}),
	}
}

// Dispatch enqueues action for processing. It satisfies pkg/script's
// Dispatcher interface so script-originated actions (rerun, spawn_task, ...)
// flow through the same queue as TUI-originated ones, preserving spec.md
// §5's FIFO ordering guarantee.
func (p *Processor) Dispatch(action types.UserAction) {
	p.queue <- action
}

// Start begins draining the action queue.
func (p *Processor) Start() {
	go p.run()
}

// Stop terminates the drain loop. Actions already enqueued but not yet
// drained are dropped.
func (p *Processor) Stop() {
	close(p.stopCh)
}

func (p *Processor) run() {
	for {
		select {
		case a := <-p.queue:
			p.apply(a)
		case <-p.stopCh:
			return
		}
	}
}

func (p *Processor) apply(a types.UserAction) {
	switch act := a.(type) {
	case types.SelectProfileAction:
		p.mutator.SelectProfile(act.Profile)
	case types.ToggleOutputAction:
		p.mutator.ToggleOutput(act.Service)
	case types.ToggleOutputAllAction:
		p.mutator.ToggleOutputAll()
	case types.SetBlockActionAction:
		p.mutator.SetBlockAction(act.Service, act.Block, act.Action)
	case types.SpawnTaskAction:
		p.mutator.SpawnTask(act.Definition, act.Service)
	case types.ShutdownAction:
		p.mutator.Shutdown()
	default:
		p.logger.Warn().Str("action_type", fmt.Sprintf("%T", a)).Msg("action processor: unrecognized action type")
	}
}
