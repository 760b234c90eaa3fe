package http

import (
	"dispatch/internal/core/application/usecases/queries"
)

// Error is the JSON error envelope returned by all endpoints.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewOrderRequest is the payload for registering a delivery order.
type NewOrderRequest struct {
	OrderID         string             `json:"order_id,omitempty"`
	CustomerID      string             `json:"customer_id"`
	Items           []NewItemRequest   `json:"items"`
	Pickups         []NewPickupRequest `json:"pickups"`
	DeliveryLat     float64            `json:"delivery_lat"`
	DeliveryLon     float64            `json:"delivery_lon"`
	DeliveryAddress string             `json:"delivery_address"`
	RequiredVehicle string             `json:"required_vehicle,omitempty"`
}

// NewItemRequest is one ordered line item.
type NewItemRequest struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// NewPickupRequest is one merchant pickup stop.
type NewPickupRequest struct {
	MerchantID string  `json:"merchant_id"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

// OrderCreatedResponse acknowledges a registered order.
type OrderCreatedResponse struct {
	OrderID string `json:"order_id"`
}

// StatusUpdateRequest carries a driver progress report.
type StatusUpdateRequest struct {
	State string `json:"state"`
}

// OrderResponse is the JSON view of a single order.
type OrderResponse struct {
	ID              string  `json:"id"`
	CustomerID      string  `json:"customer_id"`
	State           string  `json:"state"`
	DeliveryLat     float64 `json:"delivery_lat"`
	DeliveryLon     float64 `json:"delivery_lon"`
	DeliveryAddress string  `json:"delivery_address"`
	AssignmentID    string  `json:"assignment_id,omitempty"`
}

// ActiveOrderResponse is the JSON view of one entry in the active workload.
type ActiveOrderResponse struct {
	ID          string  `json:"id"`
	State       string  `json:"state"`
	DeliveryLat float64 `json:"delivery_lat"`
	DeliveryLon float64 `json:"delivery_lon"`
}

// orderResponseFrom maps the query read model to the JSON view.
func orderResponseFrom(view queries.GetOrderQueryResponse) OrderResponse {
	response := OrderResponse{
		ID:              view.ID.String(),
		CustomerID:      view.CustomerID.String(),
		State:           view.State.String(),
		DeliveryLat:     view.DeliveryPoint.Lat(),
		DeliveryLon:     view.DeliveryPoint.Lon(),
		DeliveryAddress: view.DeliveryAddress,
	}
	if view.AssignmentID != nil {
		response.AssignmentID = view.AssignmentID.String()
	}
	return response
}

// activeOrderResponseFrom maps one workload entry to the JSON view.
func activeOrderResponseFrom(view queries.GetUndeliveredOrdersQueryResponse) ActiveOrderResponse {
	return ActiveOrderResponse{
		ID:          view.ID.String(),
		State:       view.State.String(),
		DeliveryLat: view.DeliveryPoint.Lat(),
		DeliveryLon: view.DeliveryPoint.Lon(),
	}
}
