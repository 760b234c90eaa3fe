// Package order implements the Order aggregate for the dispatch domain.
//
// An Order moves through a fixed lifecycle state machine
// (Created -> AwaitingDriver -> Assigned -> PickedUp -> InTransit ->
// Delivered -> Completed, with terminal Cancelled and Failed exits) and
// keeps an append-only history of every state it has entered. The aggregate
// enforces that transitions into Assigned carry a bound driver assignment
// and that transitions into Failed carry a reason code.
//
// The package follows the constructor-guard pattern: all types must be
// created through their New*/Restore* constructors and validate themselves
// before use.
package order
