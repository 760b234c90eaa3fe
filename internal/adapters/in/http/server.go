// Package http exposes the dispatch core over a REST API.
package http

import (
	"errors"
	"net/http"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	// Command handlers
	createOrderHandler       commands.CreateOrderCommandHandler
	dispatchOrderHandler     commands.DispatchOrderCommandHandler
	cancelOrderHandler       commands.CancelOrderCommandHandler
	updateOrderStatusHandler commands.UpdateOrderStatusCommandHandler

	// Query handlers
	getOrderHandler             queries.GetOrderQueryHandler
	getUndeliveredOrdersHandler queries.GetUndeliveredOrdersQueryHandler
}

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(
	createOrderHandler commands.CreateOrderCommandHandler,
	dispatchOrderHandler commands.DispatchOrderCommandHandler,
	cancelOrderHandler commands.CancelOrderCommandHandler,
	updateOrderStatusHandler commands.UpdateOrderStatusCommandHandler,
	getOrderHandler queries.GetOrderQueryHandler,
	getUndeliveredOrdersHandler queries.GetUndeliveredOrdersQueryHandler,
) *Server {
	return &Server{
		createOrderHandler:          createOrderHandler,
		dispatchOrderHandler:        dispatchOrderHandler,
		cancelOrderHandler:          cancelOrderHandler,
		updateOrderStatusHandler:    updateOrderStatusHandler,
		getOrderHandler:             getOrderHandler,
		getUndeliveredOrdersHandler: getUndeliveredOrdersHandler,
	}
}

// RegisterRoutes binds all endpoints on the given echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/orders", s.CreateOrder)
	e.POST("/api/v1/orders/:id/dispatch", s.DispatchOrder)
	e.POST("/api/v1/orders/:id/cancel", s.CancelOrder)
	e.POST("/api/v1/orders/:id/status", s.UpdateOrderStatus)
	e.GET("/api/v1/orders/:id", s.GetOrder)
	e.GET("/api/v1/orders/active", s.GetActiveOrders)
}

// CreateOrder handles POST /api/v1/orders - registers a new delivery order.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var request NewOrderRequest
	if err := ctx.Bind(&request); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	cmd, err := buildCreateOrderCommand(request)
	if err != nil {
		return badRequest(ctx, "Invalid order data: "+err.Error())
	}

	if handleErr := s.createOrderHandler.Handle(ctx.Request().Context(), cmd); handleErr != nil {
		return internalError(ctx, "Failed to create order")
	}

	return ctx.JSON(http.StatusCreated, OrderCreatedResponse{OrderID: cmd.OrderID().String()})
}

// DispatchOrder handles POST /api/v1/orders/:id/dispatch - runs the dispatch
// flow for one order.
func (s *Server) DispatchOrder(ctx echo.Context) error {
	orderID, err := parseOrderID(ctx)
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	cmd, err := commands.NewDispatchOrderCommand(orderID)
	if err != nil {
		return badRequest(ctx, "Invalid dispatch request: "+err.Error())
	}

	if handleErr := s.dispatchOrderHandler.Handle(ctx.Request().Context(), cmd); handleErr != nil {
		return mapDomainError(ctx, handleErr, "Failed to dispatch order")
	}

	return ctx.NoContent(http.StatusAccepted)
}

// CancelOrder handles POST /api/v1/orders/:id/cancel - cancels an order
// before pickup.
func (s *Server) CancelOrder(ctx echo.Context) error {
	orderID, err := parseOrderID(ctx)
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	cmd, err := commands.NewCancelOrderCommand(orderID)
	if err != nil {
		return badRequest(ctx, "Invalid cancel request: "+err.Error())
	}

	if handleErr := s.cancelOrderHandler.Handle(ctx.Request().Context(), cmd); handleErr != nil {
		return mapDomainError(ctx, handleErr, "Failed to cancel order")
	}

	return ctx.NoContent(http.StatusOK)
}

// UpdateOrderStatus handles POST /api/v1/orders/:id/status - records driver
// progress (picked up, in transit, delivered, completed).
func (s *Server) UpdateOrderStatus(ctx echo.Context) error {
	orderID, err := parseOrderID(ctx)
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	var request StatusUpdateRequest
	if err = ctx.Bind(&request); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	target, ok := stateFromString(request.State)
	if !ok {
		return badRequest(ctx, "Unknown state: "+request.State)
	}

	cmd, err := commands.NewUpdateOrderStatusCommand(orderID, target)
	if err != nil {
		return badRequest(ctx, "Invalid status update: "+err.Error())
	}

	if handleErr := s.updateOrderStatusHandler.Handle(ctx.Request().Context(), cmd); handleErr != nil {
		return mapDomainError(ctx, handleErr, "Failed to update order status")
	}

	return ctx.NoContent(http.StatusOK)
}

// GetOrder handles GET /api/v1/orders/:id - retrieves one order.
func (s *Server) GetOrder(ctx echo.Context) error {
	orderID, err := parseOrderID(ctx)
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	view, err := s.getOrderHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return mapDomainError(ctx, err, "Failed to retrieve order")
	}

	return ctx.JSON(http.StatusOK, orderResponseFrom(view))
}

// GetActiveOrders handles GET /api/v1/orders/active - retrieves the active
// delivery workload.
func (s *Server) GetActiveOrders(ctx echo.Context) error {
	query := queries.NewGetUndeliveredOrdersQuery()

	views, err := s.getUndeliveredOrdersHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return internalError(ctx, "Failed to retrieve orders")
	}

	response := make([]ActiveOrderResponse, len(views))
	for i, view := range views {
		response[i] = activeOrderResponseFrom(view)
	}

	return ctx.JSON(http.StatusOK, response)
}

// buildCreateOrderCommand converts the request payload into a validated command.
func buildCreateOrderCommand(request NewOrderRequest) (commands.CreateOrderCommand, error) {
	orderID := kernel.NewUUID()
	if request.OrderID != "" {
		parsed, err := kernel.UUIDFromString(request.OrderID)
		if err != nil {
			return commands.CreateOrderCommand{}, err
		}
		orderID = parsed
	}

	customerID, err := kernel.UUIDFromString(request.CustomerID)
	if err != nil {
		return commands.CreateOrderCommand{}, err
	}

	items := make([]order.LineItem, 0, len(request.Items))
	for _, row := range request.Items {
		item, itemErr := order.NewLineItem(row.Name, row.Quantity)
		if itemErr != nil {
			return commands.CreateOrderCommand{}, itemErr
		}
		items = append(items, item)
	}

	pickups := make([]order.Pickup, 0, len(request.Pickups))
	for _, row := range request.Pickups {
		merchantID, rowErr := kernel.UUIDFromString(row.MerchantID)
		if rowErr != nil {
			return commands.CreateOrderCommand{}, rowErr
		}
		point, rowErr := kernel.NewGeoPoint(row.Lat, row.Lon)
		if rowErr != nil {
			return commands.CreateOrderCommand{}, rowErr
		}
		pickup, rowErr := order.NewPickup(merchantID, point)
		if rowErr != nil {
			return commands.CreateOrderCommand{}, rowErr
		}
		pickups = append(pickups, pickup)
	}

	deliveryPoint, err := kernel.NewGeoPoint(request.DeliveryLat, request.DeliveryLon)
	if err != nil {
		return commands.CreateOrderCommand{}, err
	}

	return commands.NewCreateOrderCommand(
		orderID, customerID, items, pickups,
		deliveryPoint, request.DeliveryAddress, request.RequiredVehicle)
}

// parseOrderID extracts and validates the :id path parameter.
func parseOrderID(ctx echo.Context) (kernel.UUID, error) {
	return kernel.UUIDFromString(ctx.Param("id"))
}

// stateFromString resolves a state by its wire name.
func stateFromString(name string) (order.State, bool) {
	for _, state := range order.AllStates() {
		if state.String() == name {
			return state, true
		}
	}
	return 0, false
}

// mapDomainError translates domain errors into HTTP status codes.
func mapDomainError(ctx echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		return ctx.JSON(http.StatusNotFound, Error{
			Code:    http.StatusNotFound,
			Message: "Order not found",
		})
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, services.ErrNoDriverAvailable):
		return ctx.JSON(http.StatusConflict, Error{
			Code:    http.StatusConflict,
			Message: err.Error(),
		})
	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		})
	default:
		return internalError(ctx, fallback)
	}
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, Error{
		Code:    http.StatusBadRequest,
		Message: message,
	})
}

func internalError(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusInternalServerError, Error{
		Code:    http.StatusInternalServerError,
		Message: message,
	})
}
