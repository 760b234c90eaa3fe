package order

import (
	"errors"
	"fmt"

	"dispatch/internal/pkg/errs"
)

// State represents the lifecycle state of an order.
// It implements a state machine with a fixed transition table to ensure
// orders follow the correct delivery workflow.
//
// State transitions:
//
//	Created ──> AwaitingDriver ──> Assigned ──> PickedUp ──> InTransit ──> Delivered ──> Completed
//	   │              │  │            │  │
//	   │              │  └─> Failed <─┘  │
//	   └──────────────┴──> Cancelled <───┘
//
// Cancelled is reachable from any non-terminal state before pickup.
// Failed is reachable only from AwaitingDriver (no driver found) and
// Assigned (driver unresponsive). Completed, Cancelled and Failed are
// terminal and admit no outgoing transitions.
type State int

const (
	// Unknown represents an invalid or undefined state.
	// This value (0) helps catch uninitialized State values.
	Unknown State = iota

	// Created is the initial state when an order is first registered.
	Created

	// AwaitingDriver indicates the order is queued for driver assignment.
	AwaitingDriver

	// Assigned indicates a driver assignment has been bound to the order.
	Assigned

	// PickedUp indicates the driver has collected all pickup stops.
	PickedUp

	// InTransit indicates the driver is en route to the delivery point.
	InTransit

	// Delivered indicates the order has reached the customer.
	Delivered

	// Completed is the terminal happy-path state.
	Completed

	// Cancelled is a terminal state reachable from any state before pickup.
	Cancelled

	// Failed is a terminal state for orders that could not be dispatched
	// or whose driver became unresponsive.
	Failed
)

// FailureReason is a machine-readable code attached to transitions into Failed.
type FailureReason string

const (
	// ReasonNoDriverAvailable marks orders failed because no driver could be
	// found within the dispatch retry budget.
	ReasonNoDriverAvailable FailureReason = "no_driver_available"

	// ReasonDriverUnresponsive marks orders failed because the assigned driver
	// did not progress the order within the response timeout.
	ReasonDriverUnresponsive FailureReason = "driver_unresponsive"
)

// ErrFailureReasonIsRequired is returned when transitioning into Failed
// without a reason code.
var ErrFailureReasonIsRequired = errs.NewValueIsRequiredError("failure reason")

// ErrInvalidTransition is the sentinel for state machine rule violations.
// Use errors.Is to classify; use errors.As with *InvalidTransitionError
// to inspect the offending pair.
var ErrInvalidTransition = errors.New("invalid state transition")

// InvalidTransitionError reports a forbidden state transition.
// It indicates a caller or logic bug and is never retried.
type InvalidTransitionError struct {
	From State
	To   State
}

// NewInvalidTransitionError creates an InvalidTransitionError for the pair.
func NewInvalidTransitionError(from State, to State) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// getStateStrings returns a map of State values to their string representations.
func getStateStrings() map[State]string {
	return map[State]string{
		Unknown:        "Unknown",
		Created:        "Created",
		AwaitingDriver: "AwaitingDriver",
		Assigned:       "Assigned",
		PickedUp:       "PickedUp",
		InTransit:      "InTransit",
		Delivered:      "Delivered",
		Completed:      "Completed",
		Cancelled:      "Cancelled",
		Failed:         "Failed",
	}
}

// getTransitionTable returns the fixed set of legal transitions.
// Terminal states are present with empty target sets.
func getTransitionTable() map[State][]State {
	return map[State][]State{
		Created:        {AwaitingDriver, Cancelled},
		AwaitingDriver: {Assigned, Cancelled, Failed},
		Assigned:       {PickedUp, Cancelled, Failed},
		PickedUp:       {InTransit},
		InTransit:      {Delivered},
		Delivered:      {Completed},
		Completed:      {},
		Cancelled:      {},
		Failed:         {},
	}
}

// AllStates returns every valid state in lifecycle order.
// Useful for exhaustive enumeration in tests and persistence checks.
func AllStates() []State {
	return []State{
		Created, AwaitingDriver, Assigned, PickedUp,
		InTransit, Delivered, Completed, Cancelled, Failed,
	}
}

// Validate checks if the State value is one of the defined lifecycle states.
// Unknown (0) and any other values are invalid.
func (s State) Validate() error {
	if _, ok := getTransitionTable()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("state is invalid",
			fmt.Errorf("%d is not a valid state", s))
	}
	return nil
}

// String returns the human-readable name of the state.
// Implements fmt.Stringer and is safe on any State value.
func (s State) String() string {
	if str, ok := getStateStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// IsTerminal reports whether the state admits no outgoing transitions.
func (s State) IsTerminal() bool {
	return len(getTransitionTable()[s]) == 0 && s.Validate() == nil
}

// CanTransition reports whether the fixed transition table permits moving
// from s to target. It is a pure function: no side effects, deterministic,
// and false for any pair involving an invalid state or a terminal source.
func (s State) CanTransition(target State) bool {
	for _, allowed := range getTransitionTable()[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ValidateCanHaveAssignment validates the consistency between order state and
// the presence of a bound driver assignment.
//
// Rules:
//   - Created and AwaitingDriver orders must not have an assignment
//   - Assigned, PickedUp, InTransit, Delivered and Completed orders must have one
//   - Cancelled and Failed orders may have either (a cancellation after
//     assignment keeps the record for audit)
func (s State) ValidateCanHaveAssignment(hasAssignment bool) error {
	if hasAssignment && (s == Created || s == AwaitingDriver) {
		return errs.NewValueIsInvalidErrorWithCause("state is invalid",
			fmt.Errorf("%s is not a valid state to have an assignment", s))
	}

	if !hasAssignment && (s == Assigned || s == PickedUp || s == InTransit || s == Delivered || s == Completed) {
		return errs.NewValueIsInvalidErrorWithCause("state is invalid",
			fmt.Errorf("%s is not a valid state to have no assignment", s))
	}

	return nil
}

// Transition returns the target state if the move is legal, or an
// InvalidTransitionError otherwise. State values are immutable; callers
// receive the new value and decide whether to adopt it.
func (s State) Transition(target State) (State, error) {
	if !s.CanTransition(target) {
		return Unknown, NewInvalidTransitionError(s, target)
	}
	return target, nil
}
