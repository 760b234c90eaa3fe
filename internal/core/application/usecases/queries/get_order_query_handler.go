package queries

import (
	"context"
	"database/sql"
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetOrderQueryHandler reads the current view of one order from the database.
// Uses a direct SQL query for optimal read performance in the CQRS pattern.
type GetOrderQueryHandler struct {
	db *gorm.DB
}

// NewGetOrderQueryHandler creates a handler for single-order lookups.
// Requires a GORM database connection for query execution.
func NewGetOrderQueryHandler(db *gorm.DB) GetOrderQueryHandler {
	return GetOrderQueryHandler{db: db}
}

// Handle executes the lookup. Returns errs.ErrObjectNotFound (via
// ObjectNotFoundError) when the order does not exist.
func (h GetOrderQueryHandler) Handle(
	ctx context.Context,
	query GetOrderQuery,
) (GetOrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderQueryResponse{}, err
	}

	row := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			customer_id,
			state,
			delivery_lat,
			delivery_lon,
			delivery_address,
			assignment_id
		FROM orders
		WHERE id = ?
	`, query.OrderID().String()).Row()

	var (
		id, customerID  uuid.UUID
		state           int
		deliveryLat     float64
		deliveryLon     float64
		deliveryAddress string
		assignmentID    uuid.NullUUID
	)
	err := row.Scan(&id, &customerID, &state, &deliveryLat, &deliveryLon, &deliveryAddress, &assignmentID)
	if errors.Is(err, sql.ErrNoRows) {
		return GetOrderQueryResponse{}, errs.NewObjectNotFoundError("order id", query.OrderID().String())
	}
	if err != nil {
		return GetOrderQueryResponse{}, err
	}

	return buildOrderResponse(id, customerID, state, deliveryLat, deliveryLon, deliveryAddress, assignmentID)
}

func buildOrderResponse(
	id uuid.UUID,
	customerID uuid.UUID,
	state int,
	deliveryLat float64,
	deliveryLon float64,
	deliveryAddress string,
	assignmentID uuid.NullUUID,
) (GetOrderQueryResponse, error) {
	orderID, err := kernel.UUIDFromBytes(id[:])
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	customer, err := kernel.UUIDFromBytes(customerID[:])
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	deliveryPoint, err := kernel.NewGeoPoint(deliveryLat, deliveryLon)
	if err != nil {
		return GetOrderQueryResponse{}, err
	}

	response := GetOrderQueryResponse{
		ID:              orderID,
		CustomerID:      customer,
		State:           order.State(state),
		DeliveryPoint:   deliveryPoint,
		DeliveryAddress: deliveryAddress,
	}

	if assignmentID.Valid {
		bound, idErr := kernel.UUIDFromBytes(assignmentID.UUID[:])
		if idErr != nil {
			return GetOrderQueryResponse{}, idErr
		}
		response.AssignmentID = &bound
	}

	return response, nil
}
