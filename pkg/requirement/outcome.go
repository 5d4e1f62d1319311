package requirement

// Outcome is the result of one Checker.Evaluate call (spec.md §4.5).
type Outcome string

const (
	// AllOk means every requirement in the list has already passed.
	AllOk Outcome = "all_ok"
	// CurrentCheckOk means the requirement at the current index just
	// passed; the caller should advance its completed-count and clear
	// last_failure.
	CurrentCheckOk Outcome = "current_check_ok"
	// CurrentCheckFailed means the requirement at the current index just
	// failed; the caller should reset completed-count to zero and record
	// last_failure.
	CurrentCheckFailed Outcome = "current_check_failed"
	// Working means a probe is in flight, or the checker is in its
	// failure-backoff window.
	Working Outcome = "working"
	// Timeout means last_failure is set and more than the configured
	// timeout has passed since started_at.
	Timeout Outcome = "timeout"
)
