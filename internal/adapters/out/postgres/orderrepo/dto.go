// Package orderrepo provides data transfer objects and mapping functions for
// order persistence. The order aggregate spans four tables: the orders row
// itself plus line items, pickup stops and the append-only state history.
package orderrepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO represents the database structure for persisting order aggregates.
// Child rows (items, pickups, history) hang off the order by id and are
// loaded together with the root.
type OrderDTO struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CustomerID      uuid.UUID  `gorm:"type:uuid;index"`
	State           int        `gorm:"index"`
	DeliveryLat     float64
	DeliveryLon     float64
	DeliveryAddress string
	RequiredVehicle string
	AssignmentID    *uuid.UUID `gorm:"type:uuid"`
	CreatedAt       time.Time

	Items   []ItemDTO    `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
	Pickups []PickupDTO  `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
	History []HistoryDTO `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for order entities.
func (OrderDTO) TableName() string {
	return "orders"
}

// ItemDTO is one ordered line item, keyed by order and position.
type ItemDTO struct {
	OrderID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq      int       `gorm:"primaryKey"`
	Name     string
	Quantity int
}

// TableName specifies the database table name for line items.
func (ItemDTO) TableName() string {
	return "order_items"
}

// PickupDTO is one merchant pickup stop, keyed by order and position.
type PickupDTO struct {
	OrderID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq        int       `gorm:"primaryKey"`
	MerchantID uuid.UUID `gorm:"type:uuid"`
	Lat        float64
	Lon        float64
}

// TableName specifies the database table name for pickup stops.
func (PickupDTO) TableName() string {
	return "order_pickups"
}

// HistoryDTO is one entry of the append-only state history. The (order, seq)
// key makes re-inserting already persisted entries a no-op on conflict.
type HistoryDTO struct {
	OrderID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq       int       `gorm:"primaryKey"`
	State     int
	EnteredAt time.Time
	Reason    string
}

// TableName specifies the database table name for history entries.
func (HistoryDTO) TableName() string {
	return "order_history"
}

// fromDomain converts an order domain aggregate to its database representation.
// Child rows are numbered by their position in the aggregate.
func fromDomain(aggregate *order.Order) OrderDTO {
	var assignmentID *uuid.UUID
	if id := aggregate.AssignmentID(); id != nil {
		raw := id.Bytes()
		assignmentID = &raw
	}

	orderID := aggregate.ID().Bytes()
	history := aggregate.History()

	dto := OrderDTO{
		ID:              orderID,
		CustomerID:      aggregate.CustomerID().Bytes(),
		State:           int(aggregate.State()),
		DeliveryLat:     aggregate.DeliveryPoint().Lat(),
		DeliveryLon:     aggregate.DeliveryPoint().Lon(),
		DeliveryAddress: aggregate.DeliveryAddress(),
		RequiredVehicle: aggregate.RequiredVehicle(),
		AssignmentID:    assignmentID,
		CreatedAt:       history[0].EnteredAt(),
	}

	for i, item := range aggregate.Items() {
		dto.Items = append(dto.Items, ItemDTO{
			OrderID:  orderID,
			Seq:      i,
			Name:     item.Name(),
			Quantity: item.Quantity(),
		})
	}
	for i, pickup := range aggregate.Pickups() {
		dto.Pickups = append(dto.Pickups, PickupDTO{
			OrderID:    orderID,
			Seq:        i,
			MerchantID: pickup.MerchantID().Bytes(),
			Lat:        pickup.Point().Lat(),
			Lon:        pickup.Point().Lon(),
		})
	}
	for i, entry := range history {
		dto.History = append(dto.History, HistoryDTO{
			OrderID:   orderID,
			Seq:       i,
			State:     int(entry.State()),
			EnteredAt: entry.EnteredAt(),
			Reason:    string(entry.Reason()),
		})
	}

	return dto
}

// toDomain converts a database DTO to an order domain aggregate.
// Reconstructs the complete aggregate including history and assignment
// binding using RestoreOrder.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	customerID, err := kernel.UUIDFromBytes(dto.CustomerID[:])
	if err != nil {
		return nil, err
	}
	deliveryPoint, err := kernel.NewGeoPoint(dto.DeliveryLat, dto.DeliveryLon)
	if err != nil {
		return nil, err
	}

	items := make([]order.LineItem, 0, len(dto.Items))
	for _, row := range dto.Items {
		item, itemErr := order.NewLineItem(row.Name, row.Quantity)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	pickups := make([]order.Pickup, 0, len(dto.Pickups))
	for _, row := range dto.Pickups {
		merchantID, rowErr := kernel.UUIDFromBytes(row.MerchantID[:])
		if rowErr != nil {
			return nil, rowErr
		}
		point, rowErr := kernel.NewGeoPoint(row.Lat, row.Lon)
		if rowErr != nil {
			return nil, rowErr
		}
		pickup, rowErr := order.NewPickup(merchantID, point)
		if rowErr != nil {
			return nil, rowErr
		}
		pickups = append(pickups, pickup)
	}

	history := make([]order.HistoryEntry, 0, len(dto.History))
	for _, row := range dto.History {
		history = append(history, order.RestoreHistoryEntry(
			order.State(row.State), row.EnteredAt, order.FailureReason(row.Reason)))
	}

	var assignmentID *kernel.UUID
	if dto.AssignmentID != nil {
		bound, boundErr := kernel.UUIDFromBytes((*dto.AssignmentID)[:])
		if boundErr != nil {
			return nil, boundErr
		}
		assignmentID = &bound
	}

	return order.RestoreOrder(
		id, customerID, items, pickups,
		deliveryPoint, dto.DeliveryAddress, dto.RequiredVehicle,
		order.State(dto.State), history, assignmentID)
}
