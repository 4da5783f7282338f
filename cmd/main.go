package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"marketplace-service/internal/config"
	"marketplace-service/internal/database/minio"
	"marketplace-service/internal/database/postgres"
	"marketplace-service/internal/database/redis"
	"marketplace-service/internal/event"
	"marketplace-service/internal/handlers"
	"marketplace-service/internal/repository"
	"marketplace-service/internal/services"
	"marketplace-service/internal/worker"

	"github.com/gofiber/fiber/v3"
)

func setupLogging() (*os.File, error) {
	logDir := filepath.Join("/marketplace", "log", "marketplace_service")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	logFileName := fmt.Sprintf("log_%s.log", time.Now().Format("2006-01-02"))
	file, err := os.OpenFile(filepath.Join(logDir, logFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(file, nil)))
	return file, nil
}

func main() {
	logFile, err := setupLogging()
	if err != nil {
		log.Printf("Failed to set up file logging, using stderr: %v", err)
	} else {
		defer logFile.Close()
	}

	cfg := config.New()

	slog.Info("Connecting to PostgreSQL",
		"host", cfg.PostgresCfg.Host, "port", cfg.PostgresCfg.Port, "dbname", cfg.PostgresCfg.DBname)
	db, err := postgres.ConnectAndCreateDB(cfg.PostgresCfg)
	if err != nil {
		slog.Error("Failed to connect to database, retrying in background", "error", err)
		go postgres.RetryConnectOnFailed(30*time.Second, &db, cfg.PostgresCfg)
	}

	var cache services.Cache
	redisClient, err := redis.NewClient(cfg.RedisCfg)
	if err != nil {
		slog.Warn("Redis unavailable, running without read cache", "error", err)
	} else {
		defer redisClient.Close()
		cache = redis.NewCacheAdapter(redisClient)
	}

	var publisher services.Publisher
	rabbitConn, err := event.Dial(cfg.RabbitMQCfg)
	if err != nil {
		slog.Warn("RabbitMQ unavailable, events will not be published", "error", err)
	} else {
		defer rabbitConn.Close()
		marketplacePublisher, err := event.NewMarketplacePublisher(rabbitConn)
		if err != nil {
			slog.Warn("Failed to set up event publisher", "error", err)
		} else {
			publisher = marketplacePublisher
		}
	}

	minioClient, err := minio.NewMinioClient(cfg.MinioCfg)
	if err != nil {
		slog.Warn("MinIO unavailable, evidence upload disabled", "error", err)
		minioClient = nil
	}

	proposalRepo := repository.NewProposalRepository(db)
	bidRepo := repository.NewBidRepository(db)
	contractRepo := repository.NewContractRepository(db)
	claimRepo := repository.NewClaimRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	rewardRepo := repository.NewRewardRepository(db)
	partyRepo := repository.NewPartyRepository(db)

	locks := services.NewKeyedMutex()
	partyService := services.NewPartyService(partyRepo, publisher, nil, cfg.AdminID)
	proposalService := services.NewProposalService(proposalRepo, bidRepo, publisher, nil, locks, cfg.Marketplace)
	bidService := services.NewBidService(bidRepo, proposalRepo, partyRepo, publisher, nil, locks, cfg.Marketplace)
	contractService := services.NewContractService(contractRepo, proposalRepo, bidRepo, claimRepo, publisher, nil, locks, cfg.Marketplace)
	claimService := services.NewClaimService(claimRepo, contractRepo, partyRepo, publisher, cache, nil, locks, cfg.Marketplace, cfg.AdminID)
	rewardService := services.NewRewardService(rewardRepo, cache, publisher, nil, locks)
	reviewService := services.NewReviewService(reviewRepo, contractRepo, rewardService, publisher, nil, locks, cfg.AdminID)

	app := fiber.New()
	app.Get("/checkhealth", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("Marketplace service is healthy")
	})

	handlers.NewPartyHandler(partyService).Register(app)
	handlers.NewProposalHandler(proposalService, bidService).Register(app)
	handlers.NewBidHandler(bidService).Register(app)
	handlers.NewContractHandler(contractService).Register(app)
	handlers.NewClaimHandler(claimService, minioClient).Register(app)
	handlers.NewReviewHandler(reviewService, minioClient).Register(app)
	handlers.NewRewardHandler(rewardService, cfg.AdminID).Register(app)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	pool := worker.NewWorkingPool(2, 16)
	wg.Add(1)
	go pool.Start(ctx, &wg)

	sweeper := worker.NewJobScheduler("contract-expiration", time.Minute, pool)
	sweeper.AddJob(func(jobCtx context.Context) error {
		_, err := contractService.ExpireContracts(jobCtx)
		return err
	})
	go sweeper.Run(ctx)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		slog.Info("Shutdown signal received")
		cancel()
		if err := app.Shutdown(); err != nil {
			slog.Error("Failed to shut down server", "error", err)
		}
	}()

	slog.Info("Marketplace service listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("Server stopped", "error", err)
	}

	wg.Wait()
}
