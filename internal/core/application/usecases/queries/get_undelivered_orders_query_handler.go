package queries

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetUndeliveredOrdersQueryHandler retrieves the active delivery workload
// from the database: orders that are neither delivered nor terminally closed.
type GetUndeliveredOrdersQueryHandler struct {
	db *gorm.DB
}

// NewGetUndeliveredOrdersQueryHandler creates a handler for workload queries.
// Requires a GORM database connection for query execution.
func NewGetUndeliveredOrdersQueryHandler(db *gorm.DB) GetUndeliveredOrdersQueryHandler {
	return GetUndeliveredOrdersQueryHandler{db: db}
}

// Handle executes the query. Results are sorted by order id for consistent
// output.
func (h GetUndeliveredOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetUndeliveredOrdersQuery,
) ([]GetUndeliveredOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	orders := make([]GetUndeliveredOrdersQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			state,
			delivery_lat,
			delivery_lon
		FROM orders
		WHERE state NOT IN (?, ?, ?, ?)
		ORDER BY id
	`, int(order.Delivered), int(order.Completed), int(order.Cancelled), int(order.Failed)).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id          uuid.UUID
			state       int
			deliveryLat float64
			deliveryLon float64
		)

		if err = rows.Scan(&id, &state, &deliveryLat, &deliveryLon); err != nil {
			return nil, err
		}

		orderID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		deliveryPoint, pointErr := kernel.NewGeoPoint(deliveryLat, deliveryLon)
		if pointErr != nil {
			return nil, pointErr
		}

		orders = append(orders, GetUndeliveredOrdersQueryResponse{
			ID:            orderID,
			State:         order.State(state),
			DeliveryPoint: deliveryPoint,
		})
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
