package commands_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetAllAwaitingDriver(ctx context.Context) ([]*order.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetAllAssignedBefore(ctx context.Context, deadline time.Time) ([]*order.Order, error) {
	args := m.Called(ctx, deadline)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

type MockAssignmentRepository struct{ mock.Mock }

func (m *MockAssignmentRepository) Add(ctx context.Context, record *assignment.DriverAssignment) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockAssignmentRepository) Get(ctx context.Context, id kernel.UUID) (*assignment.DriverAssignment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assignment.DriverAssignment), args.Error(1)
}

func (m *MockAssignmentRepository) GetAllForOrder(
	ctx context.Context,
	orderID kernel.UUID,
) ([]*assignment.DriverAssignment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*assignment.DriverAssignment), args.Error(1)
}

type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockUoW) AssignmentRepository() ports.AssignmentRepository {
	args := m.Called()
	return args.Get(0).(ports.AssignmentRepository)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	args := m.Called()
	return args.Get(0).(commands.UoW)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockDriverRegistry struct{ mock.Mock }

func (m *MockDriverRegistry) GetAvailableDrivers(
	ctx context.Context,
	near kernel.GeoPoint,
	radiusKm float64,
) ([]driver.Driver, error) {
	args := m.Called(ctx, near, radiusKm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]driver.Driver), args.Error(1)
}

func (m *MockDriverRegistry) GetDriver(ctx context.Context, id kernel.UUID) (driver.Driver, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(driver.Driver), args.Error(1)
}

type MockNotificationGateway struct{ mock.Mock }

func (m *MockNotificationGateway) NotifyDriverAssigned(
	ctx context.Context,
	record *assignment.DriverAssignment,
) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockNotificationGateway) NotifyCustomerOrderUpdate(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPoint(t *testing.T, lat, lon float64) kernel.GeoPoint {
	t.Helper()
	point, err := kernel.NewGeoPoint(lat, lon)
	require.NoError(t, err)
	return point
}

// testAwaitingOrder builds an order in AwaitingDriver with one pickup at (0,0)
// and delivery at (1,1).
func testAwaitingOrder(t *testing.T) *order.Order {
	t.Helper()

	item, err := order.NewLineItem("Pad Thai", 2)
	require.NoError(t, err)
	pickup, err := order.NewPickup(kernel.NewUUID(), testPoint(t, 0, 0))
	require.NoError(t, err)

	o, err := order.NewOrder(
		kernel.NewUUID(), kernel.NewUUID(),
		[]order.LineItem{item}, []order.Pickup{pickup},
		testPoint(t, 1, 1), "7 Canal Street", "")
	require.NoError(t, err)
	require.NoError(t, o.QueueForDispatch())
	return o
}

// testAssignedOrder builds an order already bound to an assignment.
func testAssignedOrder(t *testing.T) *order.Order {
	t.Helper()
	o := testAwaitingOrder(t)
	require.NoError(t, o.AssignDriver(kernel.NewUUID()))
	return o
}

func testDriver(t *testing.T, lat, lon float64) driver.Driver {
	t.Helper()
	d, err := driver.NewDriver(kernel.NewUUID(), testPoint(t, lat, lon), true, nil, 0.9)
	require.NoError(t, err)
	return d
}
