// Package checks folds commit statuses and check runs into a single state
// for the merge decision.
package checks

import "depkeeper/internal/api"

// State is the aggregate condition of all checks on a commit.
type State int

const (
	StatePending State = iota
	StateSuccess
	StateFailure
)

func (s State) String() string {
	switch s {
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	default:
		return "pending"
	}
}

// Evaluate folds the combined commit status and the check runs of a commit
// into one State.
//
// A commit with no statuses and no check runs is a success: there is
// nothing to wait for.
//
// Any failing status or check run makes the whole state a failure, even if
// other checks are still running; otherwise any pending one keeps the state
// pending.
func Evaluate(combined *api.CombinedStatus, runs []api.CheckRun) State {
	if len(combined.Statuses) == 0 && len(runs) == 0 {
		return StateSuccess
	}

	state := StateSuccess
	for _, s := range combined.Statuses {
		switch commitStatusState(s) {
		case StateFailure:
			return StateFailure
		case StatePending:
			state = StatePending
		}
	}
	for _, r := range runs {
		switch checkRunState(r) {
		case StateFailure:
			return StateFailure
		case StatePending:
			state = StatePending
		}
	}

	return state
}

// commitStatusState maps a commit status context state (success, pending,
// failure, error) to a State.
func commitStatusState(s api.CommitStatus) State {
	switch s.State {
	case "success":
		return StateSuccess
	case "pending":
		return StatePending
	default: // failure, error
		return StateFailure
	}
}

// checkRunState maps a check run to a State. Runs that have not completed
// are pending. Completed runs count as success only for the success,
// neutral and skipped conclusions; every other conclusion (failure,
// cancelled, timed_out, stale, startup_failure, action_required) fails.
func checkRunState(r api.CheckRun) State {
	if r.Status != "completed" {
		return StatePending
	}
	switch r.Conclusion {
	case "success", "neutral", "skipped":
		return StateSuccess
	default:
		return StateFailure
	}
}
