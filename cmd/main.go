package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fjod/go_cart/storefront-checkout/domain"
	"github.com/fjod/go_cart/storefront-checkout/internal/backend"
	c "github.com/fjod/go_cart/storefront-checkout/internal/cache"
	"github.com/fjod/go_cart/storefront-checkout/internal/cart"
	"github.com/fjod/go_cart/storefront-checkout/internal/checkout"
	"github.com/fjod/go_cart/storefront-checkout/internal/config"
	h "github.com/fjod/go_cart/storefront-checkout/internal/http"
	"github.com/fjod/go_cart/storefront-checkout/internal/metrics"
	"github.com/fjod/go_cart/storefront-checkout/internal/order"
	"github.com/fjod/go_cart/storefront-checkout/internal/pricing"
	"github.com/fjod/go_cart/storefront-checkout/internal/publisher"
	"github.com/fjod/go_cart/storefront-checkout/internal/repository"
	"github.com/fjod/go_cart/storefront-checkout/internal/session"
	"github.com/fjod/go_cart/storefront-checkout/internal/shipping"
	"github.com/fjod/go_cart/storefront-checkout/internal/telemetry"
	"github.com/fjod/go_cart/storefront-checkout/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const serviceName = "storefront-checkout"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(serviceName, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)

	if err := run(cfg, zl); err != nil {
		zl.Fatal("checkout service failed", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			zl.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Carts: MongoDB behind a Redis cache
	mongoDB, err := cart.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}
	defer func() { _ = mongoDB.Client().Disconnect(context.Background()) }()
	zl.Info("connected to mongodb", zap.String("database", cfg.MongoDBName))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	carts := cart.NewService(
		cart.NewMongoRepository(mongoDB),
		c.NewRedisCache[domain.Cart](redisClient, "cart", 15*time.Minute, 5*time.Minute),
		zl,
	)

	// Order ledger and outbox
	creds := &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsPath,
	}
	repo, err := repository.NewRepository(creds)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer repo.Close()
	if err := repo.RunMigrations(creds); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	zl.Info("database migrations completed")

	// Backends
	shippingAPI := backend.NewShippingClient(backend.NewClient("shipping", cfg.ShippingServiceURL, cfg.BackendTimeout, m, zl))
	paymentAPI := backend.NewPaymentClient(backend.NewClient("payments", cfg.PaymentServiceURL, cfg.BackendTimeout, m, zl))
	orderAPI := backend.NewOrderClient(backend.NewClient("orders", cfg.OrderServiceURL, cfg.BackendTimeout, m, zl))

	checkoutCfg := cfg.Checkout()
	pricingCfg := cfg.Pricing()

	resolver := shipping.NewResolver(
		shippingAPI,
		c.NewRedisCache[shipping.Quote](redisClient, "shipping-quote", cfg.RateCacheTTL, 0),
		checkoutCfg.LocalPickupMethodID,
		zl,
	)
	submitter := order.NewSubmitter(orderAPI, carts, repo, m, checkoutCfg.ConfirmationPath, zl)

	store := session.NewMemoryStore[*checkout.Wizard](cfg.SessionTTL, time.Minute)
	defer store.Close()

	svc := checkout.NewService(carts, store, checkout.Deps{
		Resolver:   resolver,
		Payments:   paymentAPI,
		Submitter:  submitter,
		Calculator: pricing.NewCalculator(pricingCfg.TaxRate, pricingCfg.FreeShippingThreshold),
		Log:        zl,
	}, checkout.Options{
		ShippingDebounce:       checkoutCfg.ShippingDebounce,
		RequireSMSVerification: checkoutCfg.RequireSMSVerification,
	})

	// Outbox poller
	poller := publisher.NewOutboxPoller(
		repo,
		publisher.NewKafkaWriter(cfg.OutboxTopic, cfg.KafkaBrokers...),
		publisher.Options{PollInterval: cfg.OutboxPollInterval, Retention: cfg.OutboxRetention},
		zl,
	)
	cartConsumer := cart.NewOrderPlacedConsumer(
		carts,
		cart.NewKafkaReader(cfg.OutboxTopic, cfg.CartConsumerGroup, cfg.KafkaBrokers...),
		zl,
	)
	pollCtx, stopPoller := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		poller.Run(pollCtx)
	}()
	go func() {
		defer wg.Done()
		cartConsumer.Run(pollCtx)
	}()

	router := h.NewRouter(h.NewCheckoutHandler(svc, cfg.RequestTimeout, zl), h.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		Metrics:        m,
		MetricsHandler: metrics.Handler(reg),
		Log:            zl,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "checkout-api"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		zl.Info("checkout service listening", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			stopPoller()
			wg.Wait()
			return fmt.Errorf("http server: %w", err)
		}
	}

	zl.Info("shutting down checkout service")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}

	stopPoller()
	wg.Wait()
	if err := poller.Close(); err != nil {
		zl.Warn("kafka writer close failed", zap.Error(err))
	}
	if err := cartConsumer.Close(); err != nil {
		zl.Warn("kafka reader close failed", zap.Error(err))
	}

	zl.Info("checkout service stopped")
	return nil
}
