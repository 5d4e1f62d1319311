package script

import "github.com/kestrel-dev/kestrel/pkg/types"

// Status string constants surfaced to scripts (spec.md §4.4).
const (
	statusInitial  = "Initial"
	statusDisabled = "Disabled"
	statusWaiting  = "Waiting"
	statusWorking  = "Working"
	statusOk       = "Ok"
	statusError    = "Error"
	statusUnknown  = "Unknown"
)

// statusString maps a BlockStatus to the string scripts observe.
// Working{step: PrerequisiteCheck{last_failure: Some}} surfaces as
// "Waiting" (backing off after a failed prerequisite check, as opposed to
// actively probing); every other Working substate surfaces as "Working".
func statusString(status types.BlockStatus) string {
	switch status.Kind {
	case types.BlockInitial:
		return statusInitial
	case types.BlockDisabled:
		return statusDisabled
	case types.BlockOk:
		return statusOk
	case types.BlockError:
		return statusError
	case types.BlockWorking:
		if check, ok := status.Step.(types.StepPrerequisiteCheck); ok && check.LastFailure != nil {
			return statusWaiting
		}
		return statusWorking
	default:
		return statusUnknown
	}
}

// isProcessing reports whether the block currently has an async operation
// in flight — true for every Working substate.
func isProcessing(status types.BlockStatus) bool {
	return status.Kind == types.BlockWorking
}
