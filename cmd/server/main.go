// Package main is the entry point for the wallet transfer service. It wires
// the database, Redis, the optional Kafka publisher and the background jobs,
// then serves the HTTP API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fundlink/internal/config"
	"fundlink/internal/jobs"
	"fundlink/internal/logging"
	"fundlink/internal/metrics"
	"fundlink/internal/mq"
	"fundlink/internal/repositories"
	"fundlink/internal/repositories/cache"
	"fundlink/internal/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()

	logger, err := logging.New(config.IsProduction())
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := repositories.InitDB()
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("failed to get database handle", zap.Error(err))
	}
	defer sqlDB.Close()

	var redisClient *redis.Client
	if host := config.GetEnv("REDIS_HOST", ""); host != "" {
		redisClient = cache.NewRedisClient(&cache.Config{
			Host:     host,
			Port:     config.GetEnv("REDIS_PORT", "6379"),
			Password: config.GetEnv("REDIS_PASSWORD", ""),
			DB:       config.GetIntEnv("REDIS_DB", 0),
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, falling back to in-process cache and locks", zap.Error(err))
			redisClient = nil
		}
		cancel()
		if redisClient != nil {
			defer redisClient.Close()
		}
	}

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	jobCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()

	outboxRepo := repositories.NewOutboxRepository(db)
	ledgerRepo := repositories.NewLedgerRepository(db)

	kafkaCfg := config.KafkaFromEnv()
	if kafkaCfg.Enabled {
		producer, err := mq.NewProducer(kafkaCfg)
		if err != nil {
			logger.Error("kafka unavailable, reconciliation events stay queued in the outbox", zap.Error(err))
		} else {
			defer producer.Close()
			go jobs.NewOutboxSender(outboxRepo, producer, logger).Run(jobCtx)
		}
	} else {
		logger.Info("kafka disabled, reconciliation events stay queued in the outbox")
	}
	go jobs.NewStaleSweeper(ledgerRepo, outboxRepo, logger).Run(jobCtx)

	app := fiber.New(fiber.Config{
		AppName: "fundlink",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.SetupRoutes(app, db, redisClient, collector, logger)

	go func() {
		addr := ":" + config.GetEnv("PORT", "3000")
		if err := app.Listen(addr); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	stopJobs()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
