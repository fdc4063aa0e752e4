package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fjod/go_delivery/internal/cache"
	"github.com/fjod/go_delivery/internal/cart"
	"github.com/fjod/go_delivery/internal/config"
	deliverygrpc "github.com/fjod/go_delivery/internal/grpc"
	h "github.com/fjod/go_delivery/internal/http"
	"github.com/fjod/go_delivery/internal/logger"
	"github.com/fjod/go_delivery/internal/publisher"
	"github.com/fjod/go_delivery/internal/repository"
	"github.com/fjod/go_delivery/internal/service"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg := config.Load()

	log, logCloser := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	defer logCloser.Close()
	slog.SetDefault(log)

	log.Info("go_delivery starting...", "db_driver", cfg.DBDriver, "cart_backend", cfg.CartBackend)
	var wg sync.WaitGroup
	ctx := context.Background()

	// Database setup
	repo, err := repository.NewRepository(&repository.Credentials{
		Driver:     cfg.DBDriver,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		User:       cfg.DBUser,
		Password:   cfg.DBPassword,
		DBName:     cfg.DBName,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		fatal(log, "failed to connect to database", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(); err != nil {
		fatal(log, "failed to run migrations", err)
	}
	log.Info("database migrations completed")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		fatal(log, "redis connection failed", err)
	}
	log.Info("redis ping succeeded", "addr", cfg.RedisAddr)

	slots, closeSlots := cartSlots(ctx, cfg, redisClient, log)
	defer closeSlots()

	catalogService := service.NewCatalogService(repo, log)
	orderService := service.NewOrderService(repo, repo, cache.NewRedisOrderCache(redisClient, cfg.OrderCacheTTL), log)
	carts := cart.NewManager(slots, log)

	workersCtx, workersCancel := context.WithCancel(ctx)

	// Outbox poller
	var poller *publisher.OutboxPoller
	if len(cfg.KafkaBrokers) > 0 {
		poller = publisher.NewOutboxPoller(repo, cfg.OrdersTopic, log, cfg.KafkaBrokers...)
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(workersCtx)
		}()
	} else {
		log.Warn("KAFKA_BROKERS is empty, order events stay in the outbox")
	}

	// gRPC health
	reporter := deliverygrpc.NewHealthReporter(repo, 10*time.Second, log)
	wg.Add(1)
	go func() {
		defer wg.Done()
		reporter.Run(workersCtx)
	}()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		fatal(log, "failed to listen", err)
	}
	grpcServer := deliverygrpc.NewServer(reporter)
	go func() {
		log.Info("grpc health listening", "port", cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			fatal(log, "grpc server error", err)
		}
	}()

	// HTTP
	router := h.NewRouter(h.RouterConfig{
		Catalog:        catalogService,
		Orders:         orderService,
		Carts:          carts,
		Sessions:       h.NewSessionStore(cfg.SessionKey, cfg.CookieSecure),
		DB:             repo,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "go_delivery"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("http server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "http server error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server forced to shutdown", "error", err)
	}
	grpcServer.GracefulStop()
	workersCancel()

	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		log.Info("background workers stopped cleanly")
	case <-shutdownCtx.Done():
		log.Warn("background workers didn't stop in time")
	}

	if poller != nil {
		if err := poller.Close(); err != nil {
			log.Error("failed to close kafka writer", "error", err)
		}
	}
	log.Info("server exited")
}

// cartSlots picks the durable storage behind visitor carts.
func cartSlots(ctx context.Context, cfg *config.Config, redisClient *redis.Client, log *slog.Logger) (cart.SlotFactory, func()) {
	switch cfg.CartBackend {
	case "mongo":
		db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			fatal(log, "failed to connect to MongoDB", err)
		}
		slots := repository.NewMongoCartSlots(db, cfg.CartTTL)
		if err := slots.CreateIndexes(ctx); err != nil {
			fatal(log, "failed to create cart indexes", err)
		}
		log.Info("carts stored in MongoDB", "uri", cfg.MongoURI, "database", cfg.MongoDBName)
		return slots, func() { db.Client().Disconnect(context.Background()) }
	case "memory":
		log.Warn("carts kept in memory, they are lost on restart")
		return cart.NewMemorySlots(), func() {}
	default:
		log.Info("carts stored in redis")
		return cache.NewRedisSlots(redisClient, cfg.CartTTL), func() {}
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
