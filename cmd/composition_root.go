package cmd

import (
	"context"
	"log/slog"

	"dispatch/internal/adapters/out/geo"
	"dispatch/internal/adapters/out/notify"
	"dispatch/internal/adapters/out/postgres"
	"dispatch/internal/adapters/out/postgres/driverregistry"
	"dispatch/internal/adapters/out/redis/distancecache"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/keylock"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CompositionRoot wires adapters, domain services and use case handlers.
// The keyed mutex and cancellation flag set are created once here: every
// handler touching order state must share them.
type CompositionRoot struct {
	config Config

	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory

	registry ports.DriverRegistry
	notifier ports.NotificationGateway
	engine   services.AssignmentEngine

	locks         *keylock.KeyedMutex
	cancellations *keylock.FlagSet
	logger        *slog.Logger
}

// NewCompositionRoot builds the object graph. redisClient may be nil, in
// which case distance estimates skip the cache layer.
func NewCompositionRoot(
	config Config,
	gormDB *gorm.DB,
	redisClient *redis.Client,
	logger *slog.Logger,
) CompositionRoot {
	var estimator ports.DistanceEstimator = geo.NewHaversineEstimator()
	if redisClient != nil {
		estimator = distancecache.NewCachedDistanceEstimator(redisClient, estimator, logger)
	}

	optimizer := services.NewRouteOptimizer(
		services.WithDistanceFunc(func(from kernel.GeoPoint, to kernel.GeoPoint) (float64, error) {
			return estimator.EstimateKm(context.Background(), from, to)
		}),
	)

	return CompositionRoot{
		config:        config,
		gormDB:        gormDB,
		uowFactory:    postgres.NewGormUnitOfWorkFactory(gormDB),
		registry:      driverregistry.NewGormDriverRegistry(gormDB),
		notifier:      notify.NewHTTPNotificationGateway(config.NotificationsBaseURL),
		engine:        services.NewAssignmentEngine(optimizer, services.DefaultScoreWeights()),
		locks:         keylock.NewKeyedMutex(),
		cancellations: keylock.NewFlagSet(),
		logger:        logger,
	}
}

// CreateOrderUoWFactory exposes the order unit of work factory for callers
// outside the command handlers, such as the dispatch sweep job.
func (c *CompositionRoot) CreateOrderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.CreateOrderUoWFactory())
}

func (c *CompositionRoot) CreateDispatchOrderCommandHandler() commands.DispatchOrderCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewDispatchOrderCommandHandler(
		f, c.registry, c.notifier, c.engine, c.locks, c.cancellations, c.logger,
		commands.WithSearchRadius(c.config.SearchRadiusKm),
		commands.WithDispatchAttempts(c.config.DispatchAttempts),
	)
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(
		c.CreateOrderUoWFactory(), c.notifier, c.locks, c.cancellations, c.logger)
}

func (c *CompositionRoot) CreateUpdateOrderStatusCommandHandler() commands.UpdateOrderStatusCommandHandler {
	return commands.NewUpdateOrderStatusCommandHandler(
		c.CreateOrderUoWFactory(), c.notifier, c.locks, c.logger)
}

func (c *CompositionRoot) CreateFailUnresponsiveAssignmentsCommandHandler() commands.FailUnresponsiveAssignmentsCommandHandler {
	return commands.NewFailUnresponsiveAssignmentsCommandHandler(
		c.CreateOrderUoWFactory(), c.notifier, c.locks, c.logger)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetUndeliveredOrdersQueryHandler() queries.GetUndeliveredOrdersQueryHandler {
	return queries.NewGetUndeliveredOrdersQueryHandler(c.gormDB)
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
