package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aescanero/lazymint/internal/application/orchestrator"
	"github.com/aescanero/lazymint/internal/application/workers"
	"github.com/aescanero/lazymint/internal/config"
	"github.com/aescanero/lazymint/pkg/adapters/contentstore/ipfs"
	contentmemory "github.com/aescanero/lazymint/pkg/adapters/contentstore/memory"
	eventsmemory "github.com/aescanero/lazymint/pkg/adapters/events/memory"
	redisevents "github.com/aescanero/lazymint/pkg/adapters/events/redis"
	marketmemory "github.com/aescanero/lazymint/pkg/adapters/marketplace/memory"
	"github.com/aescanero/lazymint/pkg/adapters/marketplace/rarible"
	"github.com/aescanero/lazymint/pkg/adapters/metrics/prometheus"
	storagememory "github.com/aescanero/lazymint/pkg/adapters/storage/memory"
	mongostorage "github.com/aescanero/lazymint/pkg/adapters/storage/mongodb"
	redisstorage "github.com/aescanero/lazymint/pkg/adapters/storage/redis"
	"github.com/aescanero/lazymint/pkg/adapters/wallet"
	"github.com/aescanero/lazymint/pkg/api/grpc"
	"github.com/aescanero/lazymint/pkg/api/http"
	"github.com/aescanero/lazymint/pkg/api/websocket"
	"github.com/aescanero/lazymint/pkg/ports"

	promclient "github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting lazy-mint service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	ctx := context.Background()

	// Status store and event bus
	var (
		redisClient *goredis.Client
		mongoClient *mongo.Client
		statusStore ports.StatusStore
		eventBus    ports.EventBus
	)

	switch cfg.Status.Backend {
	case config.BackendRedis:
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

		statusStore = redisstorage.NewStatusStore(redisClient, cfg.Status.TTL, logger)
		eventBus = redisevents.NewStreamsEventBus(redisClient, cfg.Status.StreamMaxLen, logger)
	case config.BackendMongo:
		mongoClient, err = mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
		if err != nil {
			logger.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		if err := mongoClient.Ping(ctx, nil); err != nil {
			logger.Fatal("failed to ping MongoDB", zap.Error(err))
		}
		logger.Info("connected to MongoDB", zap.String("database", cfg.MongoDB.Database))

		store := mongostorage.NewStatusStore(
			mongoClient.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.Collection),
			cfg.Status.TTL,
			logger,
		)
		if err := store.InitSchema(ctx); err != nil {
			logger.Fatal("failed to initialize MongoDB schema", zap.Error(err))
		}
		statusStore = store
		eventBus = eventsmemory.NewInMemoryEventBus(logger)
	default:
		statusStore = storagememory.NewStatusStore()
		eventBus = eventsmemory.NewInMemoryEventBus(logger)
	}

	// Content store
	var contentStore ports.ContentStore
	switch cfg.IPFS.Backend {
	case config.BackendIPFS:
		contentStore, err = ipfs.NewContentStore(&ipfs.Config{
			APIURL:        cfg.IPFS.APIURL,
			ProjectID:     cfg.IPFS.ProjectID,
			ProjectSecret: cfg.IPFS.ProjectSecret,
			Timeout:       cfg.IPFS.Timeout,
			Logger:        logger,
		})
		if err != nil {
			logger.Fatal("failed to create IPFS client", zap.Error(err))
		}
	default:
		logger.Warn("using in-memory content store; stored content is not published")
		contentStore = contentmemory.NewContentStore()
	}

	// Marketplace
	var marketplace ports.Marketplace
	switch cfg.Marketplace.Backend {
	case config.BackendHTTP:
		marketplace, err = rarible.NewClient(&rarible.Config{
			APIURL:  cfg.Marketplace.APIURL,
			APIKey:  cfg.Marketplace.APIKey,
			Timeout: cfg.Marketplace.Timeout,
			Logger:  logger,
		})
		if err != nil {
			logger.Fatal("failed to create marketplace client", zap.Error(err))
		}
	default:
		logger.Warn("using in-memory marketplace; tokens are not registered")
		marketplace = marketmemory.NewMarketplace(cfg.Marketplace.TokenAddress)
	}

	authorizer := wallet.NewAuthorizer([]string{cfg.Submission.Chain}, logger)

	metricsCollector := prometheus.NewCollector(promclient.DefaultRegisterer)

	// Initialize application components
	workerPool := workers.NewPool(
		cfg.Workers.PoolSize,
		cfg.Workers.QueueSize,
		metricsCollector,
		logger,
		cfg.Workers.HealthCheckInterval,
	)

	orchestratorMgr := orchestrator.NewManager(&orchestrator.Config{
		ContentStore:    contentStore,
		Marketplace:     marketplace,
		Authorizer:      authorizer,
		StatusStore:     statusStore,
		EventBus:        eventBus,
		Metrics:         metricsCollector,
		Dispatcher:      workerPool,
		Validator:       orchestrator.NewValidator(cfg.Submission.MaxImageBytes),
		Logger:          logger,
		Chain:           cfg.Submission.Chain,
		MarketplaceHost: cfg.Marketplace.Host,
		ResubmitPolicy:  orchestrator.ResubmitPolicy(cfg.Submission.ResubmitPolicy),
		AttemptTimeout:  cfg.Submission.AttemptTimeout,
	})

	// Start worker pool
	if err := workerPool.Start(); err != nil {
		logger.Fatal("failed to start worker pool", zap.Error(err))
	}

	// Initialize API servers
	httpServer := http.NewServer(&http.Config{
		Addr:           cfg.GetHTTPAddr(),
		Orchestrator:   orchestratorMgr,
		Health:         workerPool.Health(),
		MaxUploadBytes: cfg.Submission.MaxImageBytes,
		Logger:         logger,
	})

	// Add WebSocket handler to HTTP server
	wsHandler := websocket.NewHandler(eventBus, orchestratorMgr, logger)
	httpServer.SetupWebSocket(wsHandler)

	grpcServer, err := grpc.NewServer(&grpc.Config{
		Addr:   cfg.GetGRPCAddr(),
		Health: workerPool.Health(),
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("failed to create gRPC server", zap.Error(err))
	}

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	healthCtx, stopHealth := context.WithCancel(ctx)
	go refreshHealth(healthCtx, grpcServer, cfg.Workers.HealthCheckInterval)

	logger.Info("lazy-mint service started",
		zap.String("http_addr", cfg.GetHTTPAddr()),
		zap.String("grpc_addr", cfg.GetGRPCAddr()),
		zap.Int("worker_pool_size", cfg.Workers.PoolSize),
		zap.String("status_backend", cfg.Status.Backend),
		zap.String("chain", cfg.Submission.Chain),
		zap.String("resubmit_policy", cfg.Submission.ResubmitPolicy))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")
	stopHealth()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	// Shutdown components
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gRPC server shutdown error", zap.Error(err))
	}

	if err := orchestratorMgr.Shutdown(shutdownCtx); err != nil {
		logger.Error("orchestrator shutdown error", zap.Error(err))
	}

	if err := workerPool.Shutdown(shutdownCtx); err != nil {
		logger.Error("worker pool shutdown error", zap.Error(err))
	}

	if err := eventBus.Close(); err != nil {
		logger.Error("event bus close error", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	if mongoClient != nil {
		if err := mongoClient.Disconnect(shutdownCtx); err != nil {
			logger.Error("MongoDB disconnect error", zap.Error(err))
		}
	}

	logger.Info("lazy-mint service shut down complete")
}

// refreshHealth keeps the gRPC health status in line with the worker pool
func refreshHealth(ctx context.Context, s *grpc.Server, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh()
		}
	}
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
