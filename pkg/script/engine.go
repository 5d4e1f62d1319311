package script

import (
	"fmt"

	"github.com/dop251/goja"
)

// Engine evaluates expressions against a Snapshot in a fresh, sandboxed
// goja.Runtime. A new Runtime per call is the isolation boundary: nothing
// wires host APIs into it, so there is nothing for one evaluation to leak
// into the next (spec.md §4.4).
type Engine struct{}

// NewEngine returns a ready-to-use Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// mutator is implemented by Executor to expose the imperative functions a
// read-only Engine never binds.
type mutator interface {
	bind(vm *goja.Runtime, self func() (string, bool))
}

// Eval runs script against snap and returns its final expression value.
func (e *Engine) Eval(script string, snap Snapshot) (goja.Value, error) {
	return e.eval(script, snap, nil)
}

// EvalBool runs script against snap and demands a boolean result; any other
// result (including a thrown error) is a failure, per the StateQuery
// requirement's semantics (spec.md §4.5).
func (e *Engine) EvalBool(script string, snap Snapshot) (bool, error) {
	v, err := e.eval(script, snap, nil)
	if err != nil {
		return false, err
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return false, fmt.Errorf("script returned no value, want bool")
	}
	b, ok := v.Export().(bool)
	if !ok {
		return false, fmt.Errorf("script returned %T, want bool", v.Export())
	}
	return b, nil
}

func (e *Engine) eval(script string, snap Snapshot, m mutator) (goja.Value, error) {
	vm := goja.New()

	disabled := func(name string) func(goja.FunctionCall) goja.Value {
		return func(goja.FunctionCall) goja.Value {
			panic(vm.NewTypeError(name + " is disabled"))
		}
	}
	for _, name := range []string{"eval", "print", "debug", "import"} {
		if err := vm.Set(name, disabled(name)); err != nil {
			return nil, fmt.Errorf("sandboxing %q: %w", name, err)
		}
	}

	if err := bindConstants(vm); err != nil {
		return nil, err
	}

	servicesObj, selfRef, err := bindServices(vm, snap)
	if err != nil {
		return nil, err
	}
	if err := vm.Set("services", servicesObj); err != nil {
		return nil, fmt.Errorf("binding services: %w", err)
	}
	if err := vm.Set("self", selfRef); err != nil {
		return nil, fmt.Errorf("binding self: %w", err)
	}

	if m != nil {
		m.bind(vm, func() (string, bool) {
			if snap.Self == nil {
				return "", false
			}
			return string(*snap.Self), true
		})
	}

	return vm.RunString(script)
}

func bindConstants(vm *goja.Runtime) error {
	constants := map[string]string{
		"INITIAL":  statusInitial,
		"DISABLED": statusDisabled,
		"WAITING":  statusWaiting,
		"WORKING":  statusWorking,
		"OK":       statusOk,
		"ERROR":    statusError,
	}
	for name, value := range constants {
		if err := vm.Set(name, value); err != nil {
			return fmt.Errorf("binding constant %q: %w", name, err)
		}
	}
	return nil
}

// bindServices builds the top-level `services` proxy object and returns the
// value `self` should be bound to (the matching service object, or
// goja.Undefined()).
func bindServices(vm *goja.Runtime, snap Snapshot) (*goja.Object, goja.Value, error) {
	services := vm.NewObject()
	var selfValue goja.Value = goja.Undefined()

	for id, svc := range snap.Services {
		svcObj, err := buildServiceObject(vm, svc)
		if err != nil {
			return nil, nil, err
		}
		if err := services.Set(string(id), svcObj); err != nil {
			return nil, nil, fmt.Errorf("binding service %q: %w", id, err)
		}
		if snap.Self != nil && *snap.Self == id {
			selfValue = svcObj
		}
	}

	return services, selfValue, nil
}

func buildServiceObject(vm *goja.Runtime, svc ServiceSnapshot) (*goja.Object, error) {
	obj := vm.NewObject()
	if err := obj.Set("id", string(svc.Id)); err != nil {
		return nil, err
	}

	blocks := vm.NewObject()
	for id, block := range svc.Blocks {
		blockObj := vm.NewObject()
		if err := blockObj.Set("id", string(block.Id)); err != nil {
			return nil, err
		}
		if err := blockObj.Set("status", statusString(block.Status)); err != nil {
			return nil, err
		}
		if err := blockObj.Set("is_processing", isProcessing(block.Status)); err != nil {
			return nil, err
		}
		if err := blocks.Set(string(id), blockObj); err != nil {
			return nil, err
		}
	}
	if err := obj.Set("blocks", blocks); err != nil {
		return nil, err
	}

	return obj, nil
}
