package types

import "time"

// TaskDefinition is the static description of a runnable step sequence,
// declared at profile or service scope (spec.md §4.8).
type TaskDefinition struct {
	Id      TaskDefinitionId
	Name    string
	Steps   []SequenceStep
}

// TaskStatusKind enumerates a Task's lifecycle.
type TaskStatusKind string

const (
	TaskRunning  TaskStatusKind = "running"
	TaskFinished TaskStatusKind = "finished"
	TaskFailed   TaskStatusKind = "failed"
)

// TaskStatus is the tagged union of spec.md §3: Running{...} | Finished |
// Failed. The Running fields are only meaningful when Kind == TaskRunning.
type TaskStatus struct {
	Kind TaskStatusKind

	CompletedSteps         int
	StepStartedAt          time.Time
	LastRecoverableFailure *time.Time

	FinishedAt time.Time // set for Finished and Failed
}

func RunningTaskStatus(startedAt time.Time) TaskStatus {
	return TaskStatus{Kind: TaskRunning, StepStartedAt: startedAt}
}

func FinishedTaskStatus(at time.Time) TaskStatus {
	return TaskStatus{Kind: TaskFinished, FinishedAt: at}
}

func FailedTaskStatus(at time.Time) TaskStatus {
	return TaskStatus{Kind: TaskFailed, FinishedAt: at}
}

// Task is a runtime instance of a TaskDefinition (spec.md §3).
type Task struct {
	Id           TaskId
	DefinitionId TaskDefinitionId
	ServiceId    ServiceId // optional; empty for profile-level tasks
	Status       TaskStatus
	StartTime    time.Time

	// PendingAction is a slot for a user-requested status change (e.g.
	// cancel). The worker loop does not read it; task.Registry.Cancel
	// stops and fails a task immediately.
	PendingAction *BlockAction
}
