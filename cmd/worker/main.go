package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/streamhive/video-ingest/internal/config"
	jobsRepository "github.com/streamhive/video-ingest/internal/jobs/repository"
	"github.com/streamhive/video-ingest/internal/pipeline"
	uploadRepository "github.com/streamhive/video-ingest/internal/upload/repository"
	"github.com/streamhive/video-ingest/pkg/db/aws"
	"github.com/streamhive/video-ingest/pkg/db/postgres"
	"github.com/streamhive/video-ingest/pkg/db/redis"
	"github.com/streamhive/video-ingest/pkg/logger"
)

func main() {
	log.Println("Starting transcode worker")
	cfgFile, err := config.LoadConfig("config.yml")
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}

	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Workers: %d", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Worker.WorkerCount)

	psqlDB, err := postgres.NewPsqlDB(cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to db: %s", err)
	}
	defer psqlDB.Close()

	redisClient, err := redis.NewRedisClient(cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to redis: %s", err)
	}
	defer redisClient.Close()

	s3Client, err := aws.NewAWSClient(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey)
	if err != nil {
		appLogger.Fatalf("could not create s3 client: %s", err)
	}

	jobRepo := jobsRepository.NewJobRepo(psqlDB)
	queue := jobsRepository.NewJobQueue(redisClient, cfg)
	awsRepo := uploadRepository.NewAwsRepository(s3Client)

	pipe := pipeline.NewPipeline(
		cfg,
		jobRepo,
		queue,
		awsRepo,
		pipeline.NewFFprobeProber(),
		pipeline.NewFFmpegEncoder(),
		appLogger,
	)
	pool := pipeline.NewWorkerPool(cfg, queue, pipe, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGTERM, os.Interrupt)
		<-quit
		appLogger.Infof("shutdown signal received, draining workers")
		cancel()
	}()

	pool.Run(ctx)
	appLogger.Infof("worker stopped")
}
