package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/your-org/iam-service/internal/cache"
	"github.com/your-org/iam-service/internal/config"
	"github.com/your-org/iam-service/internal/domain/repository/interfaces"
	repoPostgres "github.com/your-org/iam-service/internal/domain/repository/postgres"
	domainService "github.com/your-org/iam-service/internal/domain/service"
	"github.com/your-org/iam-service/internal/events/kafka"
	httpHandler "github.com/your-org/iam-service/internal/handler/http"
	"github.com/your-org/iam-service/internal/service"
	"github.com/your-org/iam-service/internal/utils/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if cfg.Database.AutoMigrate {
		log.Info("Running database migrations")
		m, err := migrate.New("file://migrations", cfg.Database.DSN())
		if err != nil {
			log.Fatal("Failed to create migration instance", zap.Error(err))
		}
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
		log.Info("Migrations applied successfully")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to parse database config", zap.Error(err))
	}
	poolCfg.MaxConns = cfg.Database.MaxConns
	dbPool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		log.Fatal("Failed to initialize PostgreSQL connection pool", zap.Error(err))
	}
	defer dbPool.Close()

	roleStore := repoPostgres.NewRoleRepositoryPostgres(dbPool)
	permissionStore := repoPostgres.NewPermissionRepositoryPostgres(dbPool)

	// Entity cache: redis when configured, in-process otherwise.
	var entityCache cache.EntityCache
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		entityCache = cache.NewRedisCache(redisClient, log, "iam", cfg.Cache.TTL)
	} else {
		memoryCache := cache.NewMemoryCache(cfg.Cache.MaxSize, log,
			cache.WithDefaultTTL(cfg.Cache.TTL),
			cache.WithSweepInterval(cfg.Cache.SweepInterval),
		)
		memoryCache.Start()
		defer memoryCache.Stop()
		entityCache = memoryCache
	}

	var roleRepo interfaces.RoleRepository = cache.NewCachedRoleRepository(roleStore, entityCache, log, cfg.Cache.TTL)
	var permissionRepo interfaces.PermissionRepository = cache.NewCachedPermissionRepository(permissionStore, entityCache, log, cfg.Cache.TTL)

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
	}
	publisher := kafka.NewPublisher(producer, log)

	var audit domainService.AuditRecorder = domainService.NopAuditRecorder{}
	if cfg.Kafka.Enabled {
		audit = publisher
	}

	validation := domainService.NewValidationService(roleRepo, permissionRepo)
	resolver := domainService.NewEntitlementResolver(roleRepo, permissionRepo, log)
	roleService := service.NewRoleService(roleRepo, permissionRepo, validation, publisher, audit, log)
	permissionService := service.NewPermissionService(permissionRepo, roleRepo, validation, publisher, audit, log)

	router := httpHandler.SetupRouter(roleService, permissionService, resolver, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Starting HTTP server", zap.Int("port", cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited properly")
}
