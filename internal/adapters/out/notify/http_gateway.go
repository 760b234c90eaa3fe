// Package notify delivers dispatch outcomes to the external notification
// service over HTTP. Deliveries are fire-and-forget from the dispatch flow's
// point of view: the gateway reports failures to its caller, which logs them
// and moves on. Retrying is the notification service's job, not ours.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/order"
)

const defaultRequestTimeout = 5 * time.Second

// HTTPNotificationGateway implements NotificationGateway against the
// notification service's REST API.
type HTTPNotificationGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPNotificationGateway creates a gateway for the notification service
// at baseURL, e.g. "http://notifications:8090".
func NewHTTPNotificationGateway(baseURL string) *HTTPNotificationGateway {
	return &HTTPNotificationGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultRequestTimeout},
	}
}

// driverAssignedPayload is the wire format for driver hand-off notifications.
type driverAssignedPayload struct {
	AssignmentID        string        `json:"assignment_id"`
	OrderID             string        `json:"order_id"`
	DriverID            string        `json:"driver_id"`
	TotalDistanceKm     float64       `json:"total_distance_km"`
	EstimatedDeliveryAt time.Time     `json:"estimated_delivery_at"`
	Stops               []stopPayload `json:"stops"`
}

type stopPayload struct {
	Seq  int       `json:"seq"`
	Kind string    `json:"kind"`
	Lat  float64   `json:"lat"`
	Lon  float64   `json:"lon"`
	ETA  time.Time `json:"eta"`
}

// orderUpdatePayload is the wire format for customer lifecycle notifications.
type orderUpdatePayload struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
	State      string `json:"state"`
	Reason     string `json:"reason,omitempty"`
}

// NotifyDriverAssigned posts the new assignment with its planned route to
// the driver channel.
func (g *HTTPNotificationGateway) NotifyDriverAssigned(
	ctx context.Context,
	record *assignment.DriverAssignment,
) error {
	if err := record.Validate(); err != nil {
		return err
	}

	payload := driverAssignedPayload{
		AssignmentID:        record.ID().String(),
		OrderID:             record.OrderID().String(),
		DriverID:            record.DriverID().String(),
		TotalDistanceKm:     record.TotalDistanceKm(),
		EstimatedDeliveryAt: record.EstimatedDeliveryAt(),
	}
	for _, stop := range record.Stops() {
		payload.Stops = append(payload.Stops, stopPayload{
			Seq:  stop.Seq(),
			Kind: stop.Kind().String(),
			Lat:  stop.Point().Lat(),
			Lon:  stop.Point().Lon(),
			ETA:  stop.ETA(),
		})
	}

	return g.post(ctx, "/api/v1/notifications/driver-assignments", payload)
}

// NotifyCustomerOrderUpdate posts the order's current state to the customer
// channel. For failed orders the reason code is included.
func (g *HTTPNotificationGateway) NotifyCustomerOrderUpdate(
	ctx context.Context,
	aggregate *order.Order,
) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	history := aggregate.History()
	payload := orderUpdatePayload{
		OrderID:    aggregate.ID().String(),
		CustomerID: aggregate.CustomerID().String(),
		State:      aggregate.State().String(),
		Reason:     string(history[len(history)-1].Reason()),
	}

	return g.post(ctx, "/api/v1/notifications/order-updates", payload)
}

// post sends one JSON request and treats any non-2xx response as an error.
func (g *HTTPNotificationGateway) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("notification service returned status %d for %s", resp.StatusCode, path)
	}

	return nil
}
