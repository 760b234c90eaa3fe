package order

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// Domain errors for order operations.
var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created
	// through NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder constructor")
	// ErrLineItemsAreRequired is returned when creating an order without items.
	ErrLineItemsAreRequired = errs.NewValueIsRequiredError("line items")
	// ErrPickupsAreRequired is returned when creating an order without pickup stops.
	ErrPickupsAreRequired = errs.NewValueIsRequiredError("pickup stops")
	// ErrAssignmentIsRequired is returned when transitioning into Assigned
	// without a bound driver assignment.
	ErrAssignmentIsRequired = errs.NewValueIsRequiredError("driver assignment")
)

// Order represents a food-delivery order in the system. It is the aggregate
// root that manages the order lifecycle from creation through driver
// assignment to completion.
//
// Order follows these invariants:
//   - Exactly one active state at a time; transitions obey the fixed table
//   - State history is append-only, one entry per state entered
//   - At least one pickup stop and a valid delivery point
//   - Transitions into Assigned require a bound driver assignment
//   - Can only be created through NewOrder or RestoreOrder
type Order struct {
	// id is the unique identifier for the order
	id kernel.UUID

	// customerID identifies the ordering customer
	customerID kernel.UUID

	// items are the ordered line items
	items []LineItem

	// pickups are the merchant pickup stops; an order may source items
	// from more than one merchant
	pickups []Pickup

	// deliveryPoint is the geographic delivery destination
	deliveryPoint kernel.GeoPoint

	// deliveryAddress is the human-readable delivery address
	deliveryAddress string

	// requiredVehicle constrains which drivers may take the order
	// (empty means any vehicle)
	requiredVehicle string

	// state is the current lifecycle state
	state State

	// history is the append-only record of entered states
	history []HistoryEntry

	// assignmentID is the currently bound driver assignment (nil if none)
	assignmentID *kernel.UUID

	// guard ensures the order was created via a constructor
	guard guard.ConstructorGuard
}

// NewOrder creates a new Order in Created state with a first history entry.
// All invariants are validated; on any failure the aggregated error is returned.
//
// Example:
//
//	pickup, _ := order.NewPickup(merchantID, merchantPoint)
//	item, _ := order.NewLineItem("Margherita", 2)
//	o, err := order.NewOrder(kernel.NewUUID(), customerID,
//	    []order.LineItem{item}, []order.Pickup{pickup},
//	    deliveryPoint, "221B Baker Street", "")
func NewOrder(
	id kernel.UUID,
	customerID kernel.UUID,
	items []LineItem,
	pickups []Pickup,
	deliveryPoint kernel.GeoPoint,
	deliveryAddress string,
	requiredVehicle string,
) (*Order, error) {
	o := &Order{
		state:           Created,
		deliveryAddress: deliveryAddress,
		requiredVehicle: requiredVehicle,
		guard:           guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerID(customerID),
		o.setItems(items),
		o.setPickups(pickups),
		o.setDeliveryPoint(deliveryPoint),
	); err != nil {
		return nil, err
	}

	o.history = append(o.history, newHistoryEntry(Created, ""))
	return o, nil
}

// RestoreOrder reconstructs an Order aggregate from persistent storage.
// Unlike NewOrder it accepts the stored state, history and assignment binding,
// and validates their consistency (e.g. an Assigned order must carry an
// assignment). Used by repositories only.
func RestoreOrder(
	id kernel.UUID,
	customerID kernel.UUID,
	items []LineItem,
	pickups []Pickup,
	deliveryPoint kernel.GeoPoint,
	deliveryAddress string,
	requiredVehicle string,
	state State,
	history []HistoryEntry,
	assignmentID *kernel.UUID,
) (*Order, error) {
	o, err := NewOrder(id, customerID, items, pickups, deliveryPoint, deliveryAddress, requiredVehicle)
	if err != nil {
		return nil, err
	}

	if err = state.Validate(); err != nil {
		return nil, err
	}
	if err = state.ValidateCanHaveAssignment(assignmentID != nil); err != nil {
		return nil, err
	}
	if assignmentID != nil {
		if err = assignmentID.Validate(); err != nil {
			return nil, err
		}
	}

	o.state = state
	o.assignmentID = assignmentID
	if len(history) > 0 {
		o.history = history
	}
	return o, nil
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil || o.guard.Validate(ErrOrderIsNotConstructed) != nil {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by their unique identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// CustomerID returns the ordering customer's identifier.
func (o *Order) CustomerID() kernel.UUID {
	return o.customerID
}

// Items returns a copy of the ordered line items.
func (o *Order) Items() []LineItem {
	items := make([]LineItem, len(o.items))
	copy(items, o.items)
	return items
}

// Pickups returns a copy of the merchant pickup stops.
func (o *Order) Pickups() []Pickup {
	pickups := make([]Pickup, len(o.pickups))
	copy(pickups, o.pickups)
	return pickups
}

// PickupPoints returns the geographic points of all pickup stops in order.
func (o *Order) PickupPoints() []kernel.GeoPoint {
	points := make([]kernel.GeoPoint, len(o.pickups))
	for i, p := range o.pickups {
		points[i] = p.Point()
	}
	return points
}

// DeliveryPoint returns the geographic delivery destination.
func (o *Order) DeliveryPoint() kernel.GeoPoint {
	return o.deliveryPoint
}

// DeliveryAddress returns the human-readable delivery address.
func (o *Order) DeliveryAddress() string {
	return o.deliveryAddress
}

// RequiredVehicle returns the vehicle constraint for the order.
// An empty string means any vehicle may take it.
func (o *Order) RequiredVehicle() string {
	return o.requiredVehicle
}

// State returns the current lifecycle state of the order.
func (o *Order) State() State {
	return o.state
}

// History returns a copy of the append-only state history.
func (o *Order) History() []HistoryEntry {
	history := make([]HistoryEntry, len(o.history))
	copy(history, o.history)
	return history
}

// AssignmentID returns the currently bound driver assignment id.
// Returns nil if no assignment is bound.
func (o *Order) AssignmentID() *kernel.UUID {
	return o.assignmentID
}

// QueueForDispatch moves a freshly created order into AwaitingDriver,
// making it eligible for driver assignment.
func (o *Order) QueueForDispatch() error {
	return o.transitionTo(AwaitingDriver, "")
}

// AssignDriver binds a driver assignment to the order and transitions it
// into Assigned. The assignment id must be valid; transitions into Assigned
// without one fail with ErrAssignmentIsRequired.
func (o *Order) AssignDriver(assignmentID kernel.UUID) error {
	if err := assignmentID.Validate(); err != nil {
		return ErrAssignmentIsRequired
	}

	if err := o.transitionTo(Assigned, ""); err != nil {
		return err
	}

	o.assignmentID = &assignmentID
	return nil
}

// MarkPickedUp records that the driver has collected all pickup stops.
func (o *Order) MarkPickedUp() error {
	return o.transitionTo(PickedUp, "")
}

// MarkInTransit records that the driver is en route to the delivery point.
func (o *Order) MarkInTransit() error {
	return o.transitionTo(InTransit, "")
}

// MarkDelivered records that the order reached the customer.
func (o *Order) MarkDelivered() error {
	return o.transitionTo(Delivered, "")
}

// Complete closes a delivered order. Completed is terminal.
func (o *Order) Complete() error {
	return o.transitionTo(Completed, "")
}

// Cancel moves the order into the terminal Cancelled state.
// Permitted from any state before pickup; a bound assignment is retained
// for audit.
func (o *Order) Cancel() error {
	return o.transitionTo(Cancelled, "")
}

// Fail moves the order into the terminal Failed state with a reason code.
// Permitted only from AwaitingDriver and Assigned; the reason is mandatory.
func (o *Order) Fail(reason FailureReason) error {
	if reason == "" {
		return ErrFailureReasonIsRequired
	}
	return o.transitionTo(Failed, reason)
}

// transitionTo applies a state transition, appending a history entry.
// The transition table is the single source of truth for legality.
func (o *Order) transitionTo(target State, reason FailureReason) error {
	newState, err := o.state.Transition(target)
	if err != nil {
		return err
	}

	o.state = newState
	o.history = append(o.history, newHistoryEntry(newState, reason))
	return nil
}

// setID validates and sets the order's unique identifier.
func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

// setCustomerID validates and sets the customer identifier.
func (o *Order) setCustomerID(customerID kernel.UUID) error {
	if err := customerID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("customer id", err)
	}
	o.customerID = customerID
	return nil
}

// setItems validates and sets the line items (at least one required).
func (o *Order) setItems(items []LineItem) error {
	if len(items) == 0 {
		return ErrLineItemsAreRequired
	}
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return errs.NewValueIsInvalidErrorWithCause(fmt.Sprintf("line item %d", i), err)
		}
	}
	o.items = items
	return nil
}

// setPickups validates and sets the pickup stops (at least one required).
func (o *Order) setPickups(pickups []Pickup) error {
	if len(pickups) == 0 {
		return ErrPickupsAreRequired
	}
	for i, pickup := range pickups {
		if err := pickup.Validate(); err != nil {
			return errs.NewValueIsInvalidErrorWithCause(fmt.Sprintf("pickup %d", i), err)
		}
	}
	o.pickups = pickups
	return nil
}

// setDeliveryPoint validates and sets the delivery destination.
func (o *Order) setDeliveryPoint(point kernel.GeoPoint) error {
	if err := point.Validate(); err != nil {
		return err
	}
	o.deliveryPoint = point
	return nil
}

// HistoryEntry records a single state entered by the order, with the entry
// timestamp and, for Failed, the reason code. History is append-only.
type HistoryEntry struct {
	state     State
	enteredAt time.Time
	reason    FailureReason
}

// RestoreHistoryEntry reconstructs a history entry from persistence.
func RestoreHistoryEntry(state State, enteredAt time.Time, reason FailureReason) HistoryEntry {
	return HistoryEntry{state: state, enteredAt: enteredAt, reason: reason}
}

func newHistoryEntry(state State, reason FailureReason) HistoryEntry {
	return HistoryEntry{state: state, enteredAt: time.Now().UTC(), reason: reason}
}

// State returns the state entered.
func (h HistoryEntry) State() State {
	return h.state
}

// EnteredAt returns when the state was entered (UTC).
func (h HistoryEntry) EnteredAt() time.Time {
	return h.enteredAt
}

// Reason returns the failure reason code, empty for non-failure entries.
func (h HistoryEntry) Reason() FailureReason {
	return h.reason
}
