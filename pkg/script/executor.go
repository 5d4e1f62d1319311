package script

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/kestrel-dev/kestrel/pkg/types"
)

// Dispatcher is the sink for the mutations an Executor's bound script
// functions enqueue (spec.md §4.4). pkg/system's action queue satisfies
// this.
type Dispatcher interface {
	Dispatch(action types.UserAction)
}

// request is one evaluation to run on the Executor's dedicated goroutine,
// paired with its own reply channel (spec.md §4.4: "consuming (request,
// reply_channel) messages").
type request struct {
	script string
	snap   Snapshot
	reply  chan reply
}

type reply struct {
	value goja.Value
	err   error
}

// Executor is the mutating variant of Engine: in addition to everything
// Engine exposes, scripts get disable/enable/toggle/run/rerun/stop/cancel
// and spawn_task, each of which enqueues a UserAction on Dispatcher rather
// than mutating anything directly. Evaluation runs on one dedicated
// goroutine so a long script can't stall the worker tick loop.
type Executor struct {
	engine     *Engine
	dispatcher Dispatcher
	requests   chan request
	stop       chan struct{}
}

// NewExecutor creates an Executor; call Start to begin processing requests.
func NewExecutor(dispatcher Dispatcher) *Executor {
	return &Executor{
		engine:     NewEngine(),
		dispatcher: dispatcher,
		requests:   make(chan request),
		stop:       make(chan struct{}),
	}
}

// Start runs the executor's evaluation goroutine until Stop is called.
func (x *Executor) Start() {
	go func() {
		for {
			select {
			case req := <-x.requests:
				value, err := x.engine.eval(req.script, req.snap, mutatorFor(x, req.snap))
				req.reply <- reply{value: value, err: err}
			case <-x.stop:
				return
			}
		}
	}()
}

// Stop signals the evaluation goroutine to exit after its current request.
func (x *Executor) Stop() {
	close(x.stop)
}

// Eval submits script for evaluation and blocks until the dedicated
// goroutine replies.
func (x *Executor) Eval(script string, snap Snapshot) (goja.Value, error) {
	req := request{script: script, snap: snap, reply: make(chan reply, 1)}
	x.requests <- req
	r := <-req.reply
	return r.value, r.err
}

func mutatorFor(x *Executor, snap Snapshot) mutator {
	return executorMutator{dispatcher: x.dispatcher}
}

type executorMutator struct {
	dispatcher Dispatcher
}

func (m executorMutator) bind(vm *goja.Runtime, self func() (string, bool)) {
	resolveService := func(arg goja.Value) types.ServiceId {
		if arg == nil || goja.IsUndefined(arg) || goja.IsNull(arg) {
			if id, ok := self(); ok {
				return types.ServiceId(id)
			}
			return ""
		}
		return types.ServiceId(arg.String())
	}

	action := func(kind types.BlockAction) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			args := call.Arguments
			if len(args) < 2 {
				panic(vm.NewTypeError(fmt.Sprintf("%s(service, block) requires two arguments", kind)))
			}
			m.dispatcher.Dispatch(types.SetBlockActionAction{
				Service: resolveService(args[0]),
				Block:   types.BlockId(args[1].String()),
				Action:  kind,
			})
			return goja.Undefined()
		}
	}

	_ = vm.Set("disable", action(types.ActionDisable))
	_ = vm.Set("enable", action(types.ActionEnable))
	_ = vm.Set("toggle", action(types.ActionToggleEnabled))
	_ = vm.Set("run", action(types.ActionRun))
	_ = vm.Set("rerun", action(types.ActionReRun))
	_ = vm.Set("stop", action(types.ActionStop))
	_ = vm.Set("cancel", action(types.ActionCancel))

	_ = vm.Set("spawn_task", func(call goja.FunctionCall) goja.Value {
		args := call.Arguments
		if len(args) < 1 {
			panic(vm.NewTypeError("spawn_task(service?, definition_id) requires at least one argument"))
		}
		var service types.ServiceId
		var definition types.TaskDefinitionId
		if len(args) == 1 {
			if id, ok := self(); ok {
				service = types.ServiceId(id)
			}
			definition = types.TaskDefinitionId(args[0].String())
		} else {
			service = resolveService(args[0])
			definition = types.TaskDefinitionId(args[1].String())
		}
		m.dispatcher.Dispatch(types.SpawnTaskAction{Definition: definition, Service: service})
		return goja.Undefined()
	})
}
