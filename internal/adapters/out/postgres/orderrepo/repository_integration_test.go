package orderrepo_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/adapters/out/postgres/orderrepo"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// MockAggregateTracker is a mock implementation of aggregateTracker interface.
type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate any) {
	m.Called(id, aggregate)
}

// OrderRepositoryIntegrationTestSuite provides integration tests for OrderRepository
// using PostgreSQL containers to verify database persistence behavior.
type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *orderrepo.GormOrderRepository
	tracker    *MockAggregateTracker
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&orderrepo.ItemDTO{},
		&orderrepo.PickupDTO{},
		&orderrepo.HistoryDTO{},
	))
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec(
		"TRUNCATE TABLE orders, order_items, order_pickups, order_history").Error)

	suite.tracker = new(MockAggregateTracker)
	suite.repository = orderrepo.NewGormOrderRepository(suite.db, suite.tracker)
}

func (suite *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_ValidOrder_Success() {
	ctx := context.Background()

	testOrder := suite.createAwaitingOrder()
	suite.tracker.On("TrackAggregate", testOrder.ID(), testOrder).Once()

	err := suite.repository.Add(ctx, testOrder)
	suite.Require().NoError(err)

	suite.assertOrderCount(1)
	suite.assertRowCount("order_items", 2)
	suite.assertRowCount("order_pickups", 1)
	suite.assertRowCount("order_history", 2)

	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_ExistingOrder_RoundTripsAggregate() {
	ctx := context.Background()

	original := suite.createAwaitingOrder()
	suite.tracker.On("TrackAggregate", original.ID(), original).Once()
	suite.Require().NoError(suite.repository.Add(ctx, original))

	retrieved, err := suite.repository.Get(ctx, original.ID())
	suite.Require().NoError(err)

	suite.Equal(original.ID(), retrieved.ID())
	suite.Equal(original.CustomerID(), retrieved.CustomerID())
	suite.Equal(order.AwaitingDriver, retrieved.State())
	suite.Equal(original.DeliveryAddress(), retrieved.DeliveryAddress())
	suite.Nil(retrieved.AssignmentID())

	suite.Require().Len(retrieved.Items(), 2)
	suite.Equal(original.Items()[0].Name(), retrieved.Items()[0].Name())
	suite.Equal(original.Items()[1].Quantity(), retrieved.Items()[1].Quantity())

	suite.Require().Len(retrieved.Pickups(), 1)
	suite.Equal(original.Pickups()[0].MerchantID(), retrieved.Pickups()[0].MerchantID())

	history := retrieved.History()
	suite.Require().Len(history, 2)
	suite.Equal(order.Created, history[0].State())
	suite.Equal(order.AwaitingDriver, history[1].State())

	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_NonExistentOrder_ReturnsNotFoundError() {
	ctx := context.Background()

	retrieved, err := suite.repository.Get(ctx, kernel.NewUUID())

	suite.Nil(retrieved)
	suite.Require().Error(err)

	var notFoundErr *errs.ObjectNotFoundError
	suite.Require().ErrorAs(err, &notFoundErr)

	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_AppendsHistoryAndBindsAssignment() {
	ctx := context.Background()

	testOrder := suite.createAwaitingOrder()
	suite.tracker.On("TrackAggregate", testOrder.ID(), testOrder).Twice()
	suite.Require().NoError(suite.repository.Add(ctx, testOrder))

	assignmentID := kernel.NewUUID()
	suite.Require().NoError(testOrder.AssignDriver(assignmentID))
	suite.Require().NoError(suite.repository.Update(ctx, testOrder))

	retrieved, err := suite.repository.Get(ctx, testOrder.ID())
	suite.Require().NoError(err)

	suite.Equal(order.Assigned, retrieved.State())
	suite.Require().NotNil(retrieved.AssignmentID())
	suite.True(assignmentID.IsEqual(*retrieved.AssignmentID()))

	history := retrieved.History()
	suite.Require().Len(history, 3)
	suite.Equal(order.Assigned, history[2].State())

	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_PersistsFailureReason() {
	ctx := context.Background()

	testOrder := suite.createAwaitingOrder()
	suite.tracker.On("TrackAggregate", testOrder.ID(), testOrder).Twice()
	suite.Require().NoError(suite.repository.Add(ctx, testOrder))

	suite.Require().NoError(testOrder.Fail(order.ReasonNoDriverAvailable))
	suite.Require().NoError(suite.repository.Update(ctx, testOrder))

	retrieved, err := suite.repository.Get(ctx, testOrder.ID())
	suite.Require().NoError(err)

	suite.Equal(order.Failed, retrieved.State())
	history := retrieved.History()
	suite.Equal(order.ReasonNoDriverAvailable, history[len(history)-1].Reason())

	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestUpdate_NonExistentOrder_ReturnsError() {
	ctx := context.Background()

	missing := suite.createAwaitingOrder()

	err := suite.repository.Update(ctx, missing)
	suite.Require().ErrorIs(err, gorm.ErrRecordNotFound)

	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGetAllAwaitingDriver_ReturnsOldestFirst() {
	ctx := context.Background()

	suite.tracker.On("TrackAggregate", mock.AnythingOfType("kernel.UUID"), mock.Anything).Times(3)

	first := suite.createAwaitingOrder()
	suite.Require().NoError(suite.repository.Add(ctx, first))

	second := suite.createAwaitingOrder()
	suite.Require().NoError(suite.repository.Add(ctx, second))

	assigned := suite.createAwaitingOrder()
	suite.Require().NoError(assigned.AssignDriver(kernel.NewUUID()))
	suite.Require().NoError(suite.repository.Add(ctx, assigned))

	awaiting, err := suite.repository.GetAllAwaitingDriver(ctx)
	suite.Require().NoError(err)

	suite.Require().Len(awaiting, 2)
	for _, o := range awaiting {
		suite.Equal(order.AwaitingDriver, o.State())
	}

	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGetAllAssignedBefore_FiltersByDeadline() {
	ctx := context.Background()

	suite.tracker.On("TrackAggregate", mock.AnythingOfType("kernel.UUID"), mock.Anything).Times(2)

	stale := suite.createAwaitingOrder()
	suite.Require().NoError(stale.AssignDriver(kernel.NewUUID()))
	suite.Require().NoError(suite.repository.Add(ctx, stale))

	pending := suite.createAwaitingOrder()
	suite.Require().NoError(suite.repository.Add(ctx, pending))

	past, err := suite.repository.GetAllAssignedBefore(ctx, time.Now().UTC().Add(-time.Hour))
	suite.Require().NoError(err)
	suite.Empty(past)

	future, err := suite.repository.GetAllAssignedBefore(ctx, time.Now().UTC().Add(time.Hour))
	suite.Require().NoError(err)
	suite.Require().Len(future, 1)
	suite.Equal(stale.ID(), future[0].ID())

	suite.tracker.AssertExpectations(suite.T())
}

// createAwaitingOrder creates a dispatchable order with two items and one pickup.
func (suite *OrderRepositoryIntegrationTestSuite) createAwaitingOrder() *order.Order {
	pickupPoint, err := kernel.NewGeoPoint(40.7128, -74.0060)
	suite.Require().NoError(err)
	deliveryPoint, err := kernel.NewGeoPoint(40.7306, -73.9866)
	suite.Require().NoError(err)

	pickup, err := order.NewPickup(kernel.NewUUID(), pickupPoint)
	suite.Require().NoError(err)

	pasta, err := order.NewLineItem("Cacio e Pepe", 1)
	suite.Require().NoError(err)
	soda, err := order.NewLineItem("Lemon Soda", 2)
	suite.Require().NoError(err)

	testOrder, err := order.NewOrder(
		kernel.NewUUID(), kernel.NewUUID(),
		[]order.LineItem{pasta, soda}, []order.Pickup{pickup},
		deliveryPoint, "7 Canal Street", "")
	suite.Require().NoError(err)
	suite.Require().NoError(testOrder.QueueForDispatch())

	return testOrder
}

// assertOrderCount verifies the number of orders in the database.
func (suite *OrderRepositoryIntegrationTestSuite) assertOrderCount(expected int) {
	var count int64
	err := suite.db.Model(&orderrepo.OrderDTO{}).Count(&count).Error
	suite.Require().NoError(err)
	suite.Equal(int64(expected), count)
}

// assertRowCount verifies the number of rows in a child table.
func (suite *OrderRepositoryIntegrationTestSuite) assertRowCount(table string, expected int) {
	var count int64
	err := suite.db.Table(table).Count(&count).Error
	suite.Require().NoError(err)
	suite.Equal(int64(expected), count)
}

func TestOrderRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}
