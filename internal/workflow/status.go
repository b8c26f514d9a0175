package workflow

import "errors"

// Status enum constants (wire values shared with the upstream API)
const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusReturned  Status = "RETURNED"
	StatusWithdrawn Status = "WITHDRAWN"
	StatusRejected  Status = "REJECTED"
)

// Action enum constants
const (
	ActionSubmit   Action = "SUBMIT"
	ActionApprove  Action = "APPROVE"
	ActionReturn   Action = "RETURN"
	ActionWithdraw Action = "WITHDRAW"
	ActionReject   Action = "REJECT"
)

type Status string

type Action string

// ErrIllegalTransition is returned by Apply when the action is not legal in
// the current status. The upstream maps the same situation to HTTP 409.
var ErrIllegalTransition = errors.New("illegal status transition")

type transitionKey struct {
	from   Status
	action Action
}

// transitions is the single source of truth for which action moves which
// status where. Every page derives its buttons from this table instead of
// testing statuses inline.
var transitions = map[transitionKey]Status{
	{StatusDraft, ActionSubmit}:      StatusSubmitted,
	{StatusDraft, ActionWithdraw}:    StatusWithdrawn,
	{StatusReturned, ActionSubmit}:   StatusSubmitted,
	{StatusReturned, ActionWithdraw}: StatusWithdrawn,
	{StatusSubmitted, ActionApprove}: StatusApproved,
	{StatusSubmitted, ActionReturn}:  StatusReturned,
	{StatusSubmitted, ActionReject}:  StatusRejected,
}

// actionOrder fixes the iteration order of AllowedActions.
var actionOrder = []Action{ActionSubmit, ActionApprove, ActionReturn, ActionWithdraw, ActionReject}

// Apply returns the status after performing action, or ErrIllegalTransition.
func Apply(from Status, action Action) (Status, error) {
	next, ok := transitions[transitionKey{from, action}]
	if !ok {
		return from, ErrIllegalTransition
	}
	return next, nil
}

// Allows reports whether action is legal in the given status.
func Allows(from Status, action Action) bool {
	_, ok := transitions[transitionKey{from, action}]
	return ok
}

// AllowedActions returns every action legal in the given status.
func AllowedActions(from Status) []Action {
	var actions []Action
	for _, a := range actionOrder {
		if Allows(from, a) {
			actions = append(actions, a)
		}
	}
	return actions
}

// CanEdit reports whether the request's fields may still be edited.
// Editing (PATCH) keeps the status, so it is not part of the transition table.
func CanEdit(s Status) bool {
	return s == StatusDraft || s == StatusReturned
}

// IsTerminal reports whether no further in-app action applies.
func IsTerminal(s Status) bool {
	return len(AllowedActions(s)) == 0
}

// SectionOrder is the fixed display order of the request-list sections.
// Every section renders even when empty.
var SectionOrder = []Status{
	StatusReturned,
	StatusDraft,
	StatusSubmitted,
	StatusApproved,
	StatusWithdrawn,
	StatusRejected,
}
