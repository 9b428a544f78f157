// Package main provides the checkout worker service entry point: the command
// workers for every bounded context, the saga worker and the operational
// HTTP endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"golang.org/x/sync/errgroup"

	appcart "github.com/lllypuk/orderflow/internal/application/cart"
	appcatalog "github.com/lllypuk/orderflow/internal/application/catalog"
	appcheckout "github.com/lllypuk/orderflow/internal/application/checkout"
	appinventory "github.com/lllypuk/orderflow/internal/application/inventory"
	apporder "github.com/lllypuk/orderflow/internal/application/order"
	"github.com/lllypuk/orderflow/internal/application/appcore"
	"github.com/lllypuk/orderflow/internal/config"
	"github.com/lllypuk/orderflow/internal/domain/cart"
	"github.com/lllypuk/orderflow/internal/domain/catalog"
	"github.com/lllypuk/orderflow/internal/domain/checkout"
	"github.com/lllypuk/orderflow/internal/domain/inventory"
	"github.com/lllypuk/orderflow/internal/domain/order"
	"github.com/lllypuk/orderflow/internal/infrastructure/broker"
	"github.com/lllypuk/orderflow/internal/infrastructure/eventstore"
	"github.com/lllypuk/orderflow/internal/infrastructure/httpserver"
	"github.com/lllypuk/orderflow/internal/infrastructure/idempotency"
	"github.com/lllypuk/orderflow/internal/infrastructure/metrics"
	mongodbinfra "github.com/lllypuk/orderflow/internal/infrastructure/mongodb"
	"github.com/lllypuk/orderflow/internal/infrastructure/repository/mongodb"
	"github.com/lllypuk/orderflow/internal/infrastructure/snapshot"
	"github.com/lllypuk/orderflow/internal/worker"
)

const redisPingTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		//nolint:sloglint // No context available before logger setup
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if runErr := run(ctx, cfg, logger); runErr != nil {
		logger.Error("worker service failed", slog.String("error", runErr.Error()))
		os.Exit(1)
	}

	logger.Info("worker service shutdown complete")
}

//nolint:funlen // Startup orchestration is readable as-is
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.InfoContext(ctx, "starting orderflow worker service",
		slog.String("app", cfg.App.Name),
	)

	mongoClient, err := connectMongoDB(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer func() {
		if disconnectErr := mongoClient.Disconnect(context.Background()); disconnectErr != nil {
			logger.Error("failed to disconnect from MongoDB", slog.String("error", disconnectErr.Error()))
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)
	if indexErr := mongodbinfra.EnsureIndexes(ctx, db); indexErr != nil {
		return fmt.Errorf("failed to ensure indexes: %w", indexErr)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	defer func() {
		if closeErr := redisClient.Close(); closeErr != nil {
			logger.Error("failed to close Redis", slog.String("error", closeErr.Error()))
		}
	}()

	pingCtx, pingCancel := context.WithTimeout(ctx, redisPingTimeout)
	defer pingCancel()
	if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
		return fmt.Errorf("failed to connect to Redis: %w", pingErr)
	}
	logger.InfoContext(ctx, "connected to Redis", slog.String("addr", cfg.Redis.Addr))

	// Coordination substrate.
	idemStore := idempotency.NewRedisStore(idempotency.RedisStoreConfig{
		Client:     redisClient,
		CommandTTL: cfg.Idempotency.CommandTTL,
		EventTTL:   cfg.Idempotency.EventTTL,
	})
	sagaRepo := appcore.NewRepository(
		eventstore.NewMongoEventStore(mongoClient, cfg.MongoDB.Database, eventstore.WithLogger(logger)),
		snapshot.NewMongoSnapshotStore(mongoClient, cfg.MongoDB.Database, snapshot.WithLogger(logger)),
		checkout.New,
		appcore.WithSnapshotEvery[*checkout.Checkout](cfg.Saga.SnapshotEvery),
		appcore.WithRepositoryLogger[*checkout.Checkout](logger),
	)

	publisher := broker.NewKafkaPublisher(cfg.Kafka.Brokers, broker.WithPublisherLogger(logger))
	enqueuer := broker.NewKafkaEnqueuer(cfg.Kafka.Brokers, broker.WithEnqueuerLogger(logger))
	defer func() {
		if closeErr := publisher.Close(); closeErr != nil {
			logger.Error("failed to close Kafka publisher", slog.String("error", closeErr.Error()))
		}
		if closeErr := enqueuer.Close(); closeErr != nil {
			logger.Error("failed to close Kafka enqueuer", slog.String("error", closeErr.Error()))
		}
	}()

	// Context repositories.
	carts := mongodb.NewMongoCartRepository(
		db.Collection(mongodb.CartsCollection), mongodb.WithCartRepoLogger(logger))
	products := mongodb.NewMongoProductRepository(
		db.Collection(mongodb.ProductsCollection), mongodb.WithProductRepoLogger(logger))
	stock := mongodb.NewMongoStockRepository(
		mongoClient, db.Collection(mongodb.StockCollection), mongodb.WithStockRepoLogger(logger))
	orders := mongodb.NewMongoOrderRepository(
		db.Collection(mongodb.OrdersCollection), mongodb.WithOrderRepoLogger(logger))

	// Use cases and handlers.
	initiate := appcheckout.NewInitiateUseCase(sagaRepo, idemStore, enqueuer,
		appcheckout.WithInitiateLogger(logger))
	advance := appcheckout.NewAdvanceUseCase(sagaRepo, idemStore, enqueuer,
		appcheckout.WithAdvanceLogger(logger))
	status := appcheckout.NewStatusUseCase(sagaRepo)

	router := appcore.NewRouter()
	registry := broker.NewDefaultRegistry()
	if wireErr := registerHandlers(router, handlerSet{
		initiate:      initiate,
		advance:       advance,
		takeSnapshot:  appcart.NewTakeSnapshotHandler(carts, publisher, idemStore, logger),
		clearCart:     appcart.NewClearHandler(carts, publisher, idemStore, logger),
		takeProducts:  appcatalog.NewTakeProductSnapshotsHandler(products, publisher, idemStore, logger),
		validateStock: appinventory.NewValidateStockHandler(stock, publisher, idemStore, logger),
		deductStock:   appinventory.NewDeductStockHandler(stock, publisher, idemStore, logger),
		placeOrder:    apporder.NewPlaceHandler(orders, publisher, idemStore, logger),
		finalizeOrder: apporder.NewFinalizeHandler(orders, publisher, idemStore, logger),
	}); wireErr != nil {
		return wireErr
	}
	if checkErr := checkWiring(registry, router); checkErr != nil {
		return checkErr
	}

	workerMetrics := metrics.NewWorkerMetrics(prometheus.DefaultRegisterer)

	// Operational HTTP surface.
	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger)
	server.HealthCheck("/health")
	server.Ready("/ready", func(ctx context.Context) bool {
		return mongoClient.Ping(ctx, nil) == nil && redisClient.Ping(ctx).Err() == nil
	})
	server.Metrics("/metrics", prometheus.DefaultGatherer)
	server.CheckoutStatus("/checkouts/:id", status.Execute)

	group, groupCtx := errgroup.WithContext(ctx)

	contexts := []string{cart.Context, catalog.Context, inventory.Context, order.Context, checkout.Context}
	for _, contextName := range contexts {
		w := worker.NewCommandWorker(
			contextName,
			worker.NewCommandReader(cfg.Kafka, contextName),
			registry, router, workerMetrics, logger,
		)
		group.Go(func() error { return w.Run(groupCtx) })
	}

	sagaWorker := worker.NewSagaWorker(worker.NewSagaReader(cfg.Kafka), router, workerMetrics, logger)
	group.Go(func() error { return sagaWorker.Run(groupCtx) })

	group.Go(func() error {
		if serveErr := server.Start(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return serveErr
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		return server.Shutdown(context.Background())
	})

	logger.InfoContext(ctx, "workers started",
		slog.Int("command_workers", len(contexts)),
		slog.String("http_addr", cfg.Server.Address()),
	)

	return group.Wait()
}

// handlerSet bundles every command handler for registration.
type handlerSet struct {
	initiate      *appcheckout.InitiateUseCase
	advance       *appcheckout.AdvanceUseCase
	takeSnapshot  *appcart.TakeSnapshotHandler
	clearCart     *appcart.ClearHandler
	takeProducts  *appcatalog.TakeProductSnapshotsHandler
	validateStock *appinventory.ValidateStockHandler
	deductStock   *appinventory.DeductStockHandler
	placeOrder    *apporder.PlaceHandler
	finalizeOrder *apporder.FinalizeHandler
}

func registerHandlers(router *appcore.Router, handlers handlerSet) error {
	bindings := map[string]appcore.HandlerFunc{
		checkout.CommandNameInitiate: appcore.NewHandler(
			func(ctx context.Context, cmd *checkout.InitiateCommand) (any, error) {
				return handlers.initiate.Execute(ctx, cmd)
			}),
		checkout.CommandNameAdvance: appcore.NewHandler(
			func(ctx context.Context, cmd *checkout.AdvanceCommand) (any, error) {
				return nil, handlers.advance.Execute(ctx, cmd)
			}),
		cart.CommandNameTakeSnapshot: appcore.NewHandler(
			func(ctx context.Context, cmd *cart.TakeSnapshot) (any, error) {
				return nil, handlers.takeSnapshot.Execute(ctx, cmd)
			}),
		cart.CommandNameClear: appcore.NewHandler(
			func(ctx context.Context, cmd *cart.Clear) (any, error) {
				return nil, handlers.clearCart.Execute(ctx, cmd)
			}),
		catalog.CommandNameTakeProductSnapshots: appcore.NewHandler(
			func(ctx context.Context, cmd *catalog.TakeProductSnapshots) (any, error) {
				return nil, handlers.takeProducts.Execute(ctx, cmd)
			}),
		inventory.CommandNameValidateStock: appcore.NewHandler(
			func(ctx context.Context, cmd *inventory.ValidateStock) (any, error) {
				return nil, handlers.validateStock.Execute(ctx, cmd)
			}),
		inventory.CommandNameDeductStock: appcore.NewHandler(
			func(ctx context.Context, cmd *inventory.DeductStock) (any, error) {
				return nil, handlers.deductStock.Execute(ctx, cmd)
			}),
		order.CommandNamePlace: appcore.NewHandler(
			func(ctx context.Context, cmd *order.Place) (any, error) {
				return nil, handlers.placeOrder.Execute(ctx, cmd)
			}),
		order.CommandNameFinalize: appcore.NewHandler(
			func(ctx context.Context, cmd *order.Finalize) (any, error) {
				return nil, handlers.finalizeOrder.Execute(ctx, cmd)
			}),
	}

	for name, handler := range bindings {
		if err := router.Register(name, handler); err != nil {
			return fmt.Errorf("failed to register handler for %s: %w", name, err)
		}
	}
	return nil
}

// checkWiring verifies at startup that every decodable command has a handler.
func checkWiring(registry *broker.CommandRegistry, router *appcore.Router) error {
	names := []string{
		checkout.CommandNameInitiate,
		checkout.CommandNameAdvance,
		cart.CommandNameTakeSnapshot,
		cart.CommandNameClear,
		catalog.CommandNameTakeProductSnapshots,
		inventory.CommandNameValidateStock,
		inventory.CommandNameDeductStock,
		order.CommandNamePlace,
		order.CommandNameFinalize,
	}
	for _, name := range names {
		if !registry.Known(name) {
			return fmt.Errorf("command %s is not decodable", name)
		}
		if !router.Handles(name) {
			return fmt.Errorf("command %s has no handler", name)
		}
	}
	return nil
}

// setupLogger creates the structured logger the whole service shares.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLogLevel(cfg.Log.Level),
		AddSource: cfg.IsDevelopment(),
	}

	var handler slog.Handler
	switch cfg.Log.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// connectMongoDB establishes and verifies the MongoDB connection.
func connectMongoDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*mongo.Client, error) {
	clientOpts := options.Client().
		ApplyURI(cfg.MongoDB.URI).
		SetMaxPoolSize(cfg.MongoDB.MaxPoolSize)

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, cfg.MongoDB.Timeout)
	defer pingCancel()
	if pingErr := client.Ping(pingCtx, nil); pingErr != nil {
		return nil, pingErr
	}

	logger.InfoContext(ctx, "connected to MongoDB",
		slog.String("database", cfg.MongoDB.Database),
	)
	return client, nil
}
