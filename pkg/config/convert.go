package config

import (
	"fmt"
	"time"

	"github.com/kestrel-dev/kestrel/pkg/types"
)

// humantime parses a Go duration string (e.g. "30s", "500ms"); spec.md §6
// calls this encoding "humantime" without pinning a concrete grammar, and
// time.ParseDuration's is the only one anything in the retrieved pack
// pulls in a library for. An empty string yields def.
func humantime(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}

func convertExec(r rawExec) types.Exec {
	return types.Exec{
		Executable: r.Executable,
		Args:       r.Args,
		Env:        r.Env,
		Workdir:    r.Workdir,
	}
}

func convertRequirement(r rawRequirement) (types.Requirement, error) {
	switch r.Type {
	case "http":
		timeout, err := humantime(r.Timeout, 5*time.Second)
		if err != nil {
			return nil, err
		}
		method := types.HTTPMethod(r.Method)
		if method == "" {
			method = types.MethodGet
		}
		status := r.Status
		if status == 0 {
			status = 200
		}
		return types.HTTPRequirement{
			URL:            r.URL,
			Method:         method,
			Timeout:        timeout,
			ExpectedStatus: status,
		}, nil
	case "port":
		host := r.Host
		if host == "" {
			host = "127.0.0.1"
		}
		return types.PortRequirement{Host: host, Port: r.Port}, nil
	case "dependency":
		required := types.RequiredStatus(r.RequiredStatus)
		if required == "" {
			required = types.RequiredOk
		}
		return types.DependencyRequirement{
			Service:  types.ServiceId(r.Service),
			Block:    types.BlockId(r.Block),
			Required: required,
		}, nil
	case "state_query":
		return types.StateQueryRequirement{Script: r.Script}, nil
	case "file_exists":
		return types.FileExistsRequirement{GlobPaths: r.GlobPaths}, nil
	default:
		return nil, fmt.Errorf("unknown requirement type %q", r.Type)
	}
}

func convertRequirements(rs []rawRequirement) ([]types.Requirement, error) {
	out := make([]types.Requirement, 0, len(rs))
	for i, r := range rs {
		req, err := convertRequirement(r)
		if err != nil {
			return nil, fmt.Errorf("requirement[%d]: %w", i, err)
		}
		out = append(out, req)
	}
	return out, nil
}

func convertWork(r rawWork) (types.Work, error) {
	switch r.Type {
	case "cmd-seq":
		commands := make([]types.Exec, len(r.Commands))
		for i, c := range r.Commands {
			commands[i] = convertExec(c)
		}
		return types.CommandSeqWork{Commands: commands}, nil
	case "process":
		if r.Command == nil {
			return nil, fmt.Errorf("process work requires command")
		}
		return types.ProcessWork{Command: convertExec(*r.Command)}, nil
	default:
		return nil, fmt.Errorf("unknown work type %q", r.Type)
	}
}

func convertBlock(r rawBlock) (types.Block, error) {
	work, err := convertWork(r.Work)
	if err != nil {
		return types.Block{}, fmt.Errorf("block %q: %w", r.Id, err)
	}
	healthReqs, err := convertRequirements(r.Health.Requirements)
	if err != nil {
		return types.Block{}, fmt.Errorf("block %q health: %w", r.Id, err)
	}
	healthTimeout, err := humantime(r.Health.Timeout, 5*time.Second)
	if err != nil {
		return types.Block{}, fmt.Errorf("block %q health timeout: %w", r.Id, err)
	}
	prereqs, err := convertRequirements(r.Prerequisites)
	if err != nil {
		return types.Block{}, fmt.Errorf("block %q prerequisites: %w", r.Id, err)
	}

	return types.Block{
		Id: types.BlockId(r.Id),
		StatusLine: types.StatusLine{
			Symbol: r.StatusLine.Symbol,
			Column: r.StatusLine.Column,
		},
		Health: types.Health{
			Requirements: healthReqs,
			Timeout:      healthTimeout,
		},
		Prerequisites: prereqs,
		Work:          work,
	}, nil
}

func convertSequenceStep(r rawSequenceStep) (types.SequenceStep, error) {
	switch r.Type {
	case "exec":
		if r.Exec == nil {
			return nil, fmt.Errorf("exec step requires exec")
		}
		return types.ExecStep{Exec: convertExec(*r.Exec)}, nil
	case "script":
		return types.ScriptStep{Script: r.Script}, nil
	case "wait":
		if r.Requirement == nil {
			return nil, fmt.Errorf("wait step requires requirement")
		}
		req, err := convertRequirement(*r.Requirement)
		if err != nil {
			return nil, fmt.Errorf("wait step: %w", err)
		}
		timeout, err := humantime(r.Timeout, 30*time.Second)
		if err != nil {
			return nil, fmt.Errorf("wait step timeout: %w", err)
		}
		return types.WaitRequirementStep{Timeout: timeout, Requirement: req}, nil
	default:
		return nil, fmt.Errorf("unknown sequence step type %q", r.Type)
	}
}

func convertSteps(rs []rawSequenceStep) ([]types.SequenceStep, error) {
	out := make([]types.SequenceStep, 0, len(rs))
	for i, r := range rs {
		step, err := convertSequenceStep(r)
		if err != nil {
			return nil, fmt.Errorf("step[%d]: %w", i, err)
		}
		out = append(out, step)
	}
	return out, nil
}

func convertTaskDefinition(r rawTaskDefinition) (types.TaskDefinition, error) {
	steps, err := convertSteps(r.Steps)
	if err != nil {
		return types.TaskDefinition{}, fmt.Errorf("task %q: %w", r.Id, err)
	}
	return types.TaskDefinition{
		Id:    types.TaskDefinitionId(r.Id),
		Name:  r.Name,
		Steps: steps,
	}, nil
}

func convertTaskDefinitions(rs []rawTaskDefinition) ([]types.TaskDefinition, error) {
	out := make([]types.TaskDefinition, 0, len(rs))
	for _, r := range rs {
		td, err := convertTaskDefinition(r)
		if err != nil {
			return nil, err
		}
		out = append(out, td)
	}
	return out, nil
}

func convertTrigger(r rawTrigger) (types.Trigger, error) {
	switch r.Type {
	case "file_modified":
		return types.FileModifiedTrigger{Paths: r.Paths}, nil
	case "becomes_true":
		return types.BecomesTrueTrigger{Script: r.Script}, nil
	default:
		return nil, fmt.Errorf("unknown trigger type %q", r.Type)
	}
}

func convertAction(r rawAction) (types.Action, error) {
	switch {
	case r.Task != "":
		return types.TaskReferenceAction{Definition: types.TaskDefinitionId(r.Task)}, nil
	case len(r.Tasks) > 0:
		defs := make([]types.TaskDefinitionId, len(r.Tasks))
		for i, t := range r.Tasks {
			defs[i] = types.TaskDefinitionId(t)
		}
		return types.TaskReferenceListAction{Definitions: defs}, nil
	case len(r.Steps) > 0:
		steps, err := convertSteps(r.Steps)
		if err != nil {
			return nil, fmt.Errorf("inline action: %w", err)
		}
		return types.InlineStepsAction{Steps: steps}, nil
	default:
		return nil, fmt.Errorf("automation action has no task, tasks or steps")
	}
}

func convertAutomation(r rawAutomation) (types.Automation, error) {
	action, err := convertAction(r.Action)
	if err != nil {
		return types.Automation{}, fmt.Errorf("automation %q: %w", r.Name, err)
	}
	debounce, err := humantime(r.Debounce, 0)
	if err != nil {
		return types.Automation{}, fmt.Errorf("automation %q debounce: %w", r.Name, err)
	}
	triggers := make([]types.Trigger, 0, len(r.Triggers))
	for i, t := range r.Triggers {
		trigger, err := convertTrigger(t)
		if err != nil {
			return types.Automation{}, fmt.Errorf("automation %q trigger[%d]: %w", r.Name, i, err)
		}
		triggers = append(triggers, trigger)
	}
	mode := types.AutomationMode(r.Mode)
	if mode == "" {
		mode = types.ModeDebounced
	}
	enabled := true
	if r.Enabled != nil {
		enabled = *r.Enabled
	}

	return types.Automation{
		Id:       types.TaskDefinitionId(r.Name),
		Name:     r.Name,
		Debounce: debounce,
		Mode:     mode,
		Action:   action,
		Triggers: triggers,
		Enabled:  enabled,
	}, nil
}

func convertService(r rawService) (types.Service, error) {
	blocks := make([]types.Block, 0, len(r.Blocks))
	for _, b := range r.Blocks {
		block, err := convertBlock(b)
		if err != nil {
			return types.Service{}, fmt.Errorf("service %q: %w", r.Id, err)
		}
		blocks = append(blocks, block)
	}
	tasks, err := convertTaskDefinitions(r.Tasks)
	if err != nil {
		return types.Service{}, fmt.Errorf("service %q: %w", r.Id, err)
	}
	automations := make([]types.Automation, 0, len(r.Automations))
	for _, a := range r.Automations {
		automation, err := convertAutomation(a)
		if err != nil {
			return types.Service{}, fmt.Errorf("service %q: %w", r.Id, err)
		}
		automations = append(automations, automation)
	}

	return types.Service{
		Id:          types.ServiceId(r.Id),
		Workdir:     r.Workdir,
		Env:         r.Env,
		Blocks:      blocks,
		Tasks:       tasks,
		Automations: automations,
	}, nil
}

func convertSettings(r rawSettings) types.Settings {
	return types.Settings{
		DefaultProfile: types.ServiceId(r.DefaultProfile),
		LogLevel:       r.LogLevel,
		LogJSON:        r.LogJSON,
	}
}
