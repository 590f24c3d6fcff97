package supplier

import "fmt"

// Action is a status-changing operation of the review pipeline.
type Action string

const (
	ActionSubmit             Action = "submit"
	ActionClaim              Action = "claim"
	ActionRequestCorrections Action = "request_corrections"
	ActionApprove            Action = "approve"
	ActionGoLive             Action = "go_live"
)

// Transition is one row of the pipeline table.
type Transition struct {
	From []Status
	To   Status
}

// validTransitions defines which source states allow each action and where it leads.
// Nothing leaves StatusLive.
var validTransitions = map[Action]Transition{
	ActionSubmit:             {From: []Status{StatusInProgress, StatusActionNeeded}, To: StatusSubmitted},
	ActionClaim:              {From: []Status{StatusSubmitted}, To: StatusUnderReview},
	ActionRequestCorrections: {From: []Status{StatusSubmitted, StatusUnderReview}, To: StatusActionNeeded},
	ActionApprove:            {From: []Status{StatusSubmitted, StatusUnderReview}, To: StatusApproved},
	ActionGoLive:             {From: []Status{StatusApproved}, To: StatusLive},
}

// TransitionFor returns the table row for a, or an error for an unknown action.
func TransitionFor(a Action) (Transition, error) {
	t, ok := validTransitions[a]
	if !ok {
		return Transition{}, fmt.Errorf("unknown pipeline action %q", a)
	}
	return t, nil
}

// Allowed reports whether a may be taken from status.
func Allowed(a Action, status Status) bool {
	for _, from := range validTransitions[a].From {
		if from == status {
			return true
		}
	}
	return false
}

func CanSubmit(s Status) bool             { return Allowed(ActionSubmit, s) }
func CanClaim(s Status) bool              { return Allowed(ActionClaim, s) }
func CanRequestCorrections(s Status) bool { return Allowed(ActionRequestCorrections, s) }
func CanApprove(s Status) bool            { return Allowed(ActionApprove, s) }
func CanGoLive(s Status) bool             { return Allowed(ActionGoLive, s) }

// CanEdit reports whether the supplier may change draft fields.
func CanEdit(s Status) bool { return s == StatusInProgress || s == StatusActionNeeded }

// Actions is the set of buttons an admin or supplier may be offered for a status.
type Actions struct {
	CanSubmit             bool `json:"can_submit"`
	CanClaim              bool `json:"can_claim"`
	CanRequestCorrections bool `json:"can_request_corrections"`
	CanApprove            bool `json:"can_approve"`
	CanGoLive             bool `json:"can_go_live"`
}

func ActionsFor(s Status) Actions {
	return Actions{
		CanSubmit:             CanSubmit(s),
		CanClaim:              CanClaim(s),
		CanRequestCorrections: CanRequestCorrections(s),
		CanApprove:            CanApprove(s),
		CanGoLive:             CanGoLive(s),
	}
}

// IllegalTransitionError names the rejected action and the status it was attempted from.
type IllegalTransitionError struct {
	Action Action
	Status Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot %s supplier in status %s", e.Action, e.Status)
}

func (e *IllegalTransitionError) Unwrap() error { return ErrIllegalTransition }
