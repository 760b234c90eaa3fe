package ports

import (
	"context"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/order"
)

// NotificationGateway delivers dispatch outcomes to drivers and customers.
// Notifications are best-effort side effects: a failure is logged by the
// caller and never rolls back the originating transaction. Implementations
// must not retry internally.
type NotificationGateway interface {
	// NotifyDriverAssigned tells the driver about their new assignment
	// with the planned route.
	NotifyDriverAssigned(ctx context.Context, record *assignment.DriverAssignment) error

	// NotifyCustomerOrderUpdate tells the customer about an order
	// lifecycle change (assigned, picked up, delivered, failed).
	NotifyCustomerOrderUpdate(ctx context.Context, aggregate *order.Order) error
}
