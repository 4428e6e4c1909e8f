package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fjod/storefront/internal/admin"
	"github.com/fjod/storefront/internal/auth"
	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/config"
	"github.com/fjod/storefront/internal/consumer"
	"github.com/fjod/storefront/internal/db"
	apihttp "github.com/fjod/storefront/internal/http"
	"github.com/fjod/storefront/internal/logger"
	"github.com/fjod/storefront/internal/notify"
	"github.com/fjod/storefront/internal/publisher"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the outbox publisher and the order consumer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
		zap.ReplaceGlobals(log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, log)
	},
}

// closers runs cleanup functions in reverse registration order.
type closers []func()

func (c *closers) add(fn func()) { *c = append(*c, fn) }

func (c closers) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	var cleanup closers
	defer cleanup.run()

	conn, err := db.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	cleanup.add(func() { conn.Close() })
	if err := db.RunMigrations(conn, cfg.DBDriver); err != nil {
		return err
	}
	log.Info("database ready", zap.String("driver", cfg.DBDriver))

	health := map[string]apihttp.HealthCheck{"database": conn.PingContext}

	slotRepo, err := openSlotRepository(ctx, cfg, health, &cleanup)
	if err != nil {
		return err
	}

	var (
		slotCache cache.SlotCache = cache.Noop{}
		broker    notify.Broker   = notify.NewMemoryBroker()
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		cleanup.add(func() { rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		slotCache = cache.NewRedisCache(rdb)
		broker = notify.NewRedisBroker(rdb, log)
		health["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info("redis cache and broker enabled", zap.String("addr", cfg.RedisAddr))
	} else {
		log.Warn("REDIS_ADDR not set, using in-process broker without cache")
	}

	slots := service.NewSlotStore(slotRepo, slotCache, broker)
	cart := service.NewCartStore(slots)
	wishlist := service.NewWishlistStore(slots, cart)

	products := catalog.NewSQLRepository(conn)
	orders := checkout.NewSQLRepository(conn)
	tokens := auth.NewTokens(cfg.JWTSecret)
	if cfg.AdminEmail == "" || cfg.AdminPasswordHash == "" {
		log.Warn("admin account not configured, admin login is disabled")
	}

	var wg sync.WaitGroup
	if len(cfg.KafkaBrokers) > 0 {
		writer := publisher.NewKafkaWriter(cfg.KafkaTopic, cfg.KafkaBrokers...)
		cleanup.add(func() {
			if err := writer.Close(); err != nil {
				log.Error("kafka writer close failed", zap.Error(err))
			}
		})
		poller := publisher.NewOutboxPoller(orders, writer, cfg.OutboxTick, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(ctx)
		}()

		orderConsumer := consumer.NewOrderConsumer(consumer.NewKafkaReader(cfg.KafkaTopic, cfg.KafkaGroup, cfg.KafkaBrokers...), cart, log)
		cleanup.add(orderConsumer.Close)
		wg.Add(1)
		go func() {
			defer wg.Done()
			orderConsumer.Run(ctx)
		}()
		log.Info("outbox publisher and order consumer started",
			zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	} else {
		log.Warn("KAFKA_BROKERS not set, order events stay in the outbox")
	}

	streamsDone := make(chan struct{})
	handler := apihttp.NewRouter(apihttp.Deps{
		Catalog:  catalog.NewService(products, log),
		Cart:     cart,
		Wishlist: wishlist,
		Checkout: checkout.NewService(orders, cart, checkout.Pricing{
			FreeShippingThreshold: cfg.FreeShippingThreshold,
			FlatShippingFee:       cfg.FlatShippingFee,
			Currency:              cfg.Currency,
		}),
		Admin:      admin.NewService(products, orders),
		AdminLogin: auth.NewAdminLogin(cfg.AdminEmail, cfg.AdminPasswordHash, tokens, cfg.AdminTokenTTL),
		Tokens:     tokens,
		Broker:     broker,
		Shipping: apihttp.ShippingPolicy{
			FreeShippingThreshold: cfg.FreeShippingThreshold,
			FlatShippingFee:       cfg.FlatShippingFee,
		},
		Health:         health,
		Log:            log,
		RequestTimeout: cfg.RequestTimeout,
		MaxBodySize:    cfg.MaxRequestBodySize,
		GuestTokenTTL:  cfg.GuestTokenTTL,
		Heartbeat:      cfg.EventHeartbeat,
		StreamsDone:    streamsDone,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	srv.RegisterOnShutdown(func() { close(streamsDone) })

	serverErr := make(chan error, 1)
	go func() {
		log.Info("storefront listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down server...")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Info("background workers stopped")
	case <-shutdownCtx.Done():
		log.Warn("background workers did not stop in time")
	}

	log.Info("server exited")
	return nil
}

func openSlotRepository(ctx context.Context, cfg *config.Config, health map[string]apihttp.HealthCheck, cleanup *closers) (repository.SlotRepository, error) {
	if cfg.SlotBackend != "mongo" {
		zap.L().Warn("carts and wishlists are kept in memory and lost on restart")
		return repository.NewMemoryRepository(), nil
	}

	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return nil, err
	}
	cleanup.add(func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoDB.Client().Disconnect(disconnectCtx)
	})

	repo := repository.NewMongoRepository(mongoDB)
	if err := repo.CreateIndexes(ctx); err != nil {
		return nil, err
	}
	health["mongo"] = func(ctx context.Context) error { return mongoDB.Client().Ping(ctx, nil) }
	zap.L().Info("connected to MongoDB", zap.String("database", cfg.MongoDBName))
	return repo, nil
}
