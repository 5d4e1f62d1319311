package types

import "time"

// Trigger is the tagged union of what can enqueue an Automation: a set of
// filesystem glob paths, or a boolean script query evaluated on a
// false→true edge.
type Trigger interface {
	isTrigger()
}

// FileModifiedTrigger fires on any filesystem event under any of Paths
// (resolved against the owning service's workdir).
type FileModifiedTrigger struct {
	Paths []string
}

func (FileModifiedTrigger) isTrigger() {}

// BecomesTrueTrigger fires once each time Script transitions from false to
// true (spec.md §4.10).
type BecomesTrueTrigger struct {
	Script string
}

func (BecomesTrueTrigger) isTrigger() {}

// AutomationMode controls how an enqueued effect is scheduled.
type AutomationMode string

const (
	// ModeDebounced is the default: effects are scheduled debounce after
	// the triggering event, coalescing repeats of the same effect.
	ModeDebounced AutomationMode = "debounced"
	// ModeDisabled makes enqueue_automation a no-op.
	ModeDisabled AutomationMode = "disabled"
	// ModeTriggerable parks the effect far in the future; it only fires
	// when a user explicitly runs the automation.
	ModeTriggerable AutomationMode = "triggerable"
)

// Action is what an Automation resolves to when it fires: one or more task
// references, or an inline step sequence (spec.md §3, §6).
type Action interface {
	isAction()
}

// TaskReferenceAction runs one existing task definition by id.
type TaskReferenceAction struct {
	Definition TaskDefinitionId
}

func (TaskReferenceAction) isAction() {}

// TaskReferenceListAction runs several task definitions; each becomes its
// own pending effect.
type TaskReferenceListAction struct {
	Definitions []TaskDefinitionId
}

func (TaskReferenceListAction) isAction() {}

// InlineStepsAction runs an anonymous, unregistered sequence of steps.
type InlineStepsAction struct {
	Steps []SequenceStep
}

func (InlineStepsAction) isAction() {}

// Automation is a named rule: when Triggers fire, Action is scheduled
// (spec.md §3, §4.11).
type Automation struct {
	Id       TaskDefinitionId // automation_definition_id; unique within its service
	Name     string
	Debounce time.Duration
	Mode     AutomationMode
	Action   Action
	Triggers []Trigger
	Enabled  bool

	// LastTriggered is set by the Query Trigger Handler on a false→true
	// edge and read by the scheduler when dispatching StateQuery-sourced
	// effects.
	LastTriggered *time.Time
}

// PendingAutomation is a scheduled effect awaiting dispatch, held by the
// Automation Scheduler (spec.md §4.11). AutomationId scopes "same effect"
// debounce matching to the automation that produced it, so two different
// automations that happen to spawn the same task definition don't collide.
type PendingAutomation struct {
	Service      ServiceId
	AutomationId TaskDefinitionId
	Effect       Action
	NotBefore    time.Time
}
