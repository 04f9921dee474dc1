// Package main runs the background worker: CMS mirror jobs and approval reconciliation.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/firstindallas/backend/config"
	"github.com/firstindallas/backend/internal/cms"
	"github.com/firstindallas/backend/internal/directory"
	"github.com/firstindallas/backend/internal/realtime"
	"github.com/firstindallas/backend/internal/submissions"
	"github.com/firstindallas/backend/internal/worker"
	"github.com/firstindallas/backend/pkg/database"
	"github.com/firstindallas/backend/pkg/queue"
	"github.com/firstindallas/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	cmsClient := cms.NewClient(cfg.CMS.BaseURL, cfg.CMS.APIToken, cfg.CMS.Timeout, logger)
	// Publish-only hub: dashboards connected to any API instance get the events.
	hub := realtime.NewHub(logger, realtime.NewRedisPubSub(rdb.Client, logger), nil)

	submissionRepo := submissions.NewRepository(pool)
	submissionService := submissions.NewService(submissions.Deps{
		Store:        submissionRepo,
		Events:       cmsClient,
		Locker:       redis.NewLocker(rdb.Client, "lock:"),
		Notifier:     realtime.NewNotifier(hub),
		Directory:    directory.NewCache(rdb.Client, cfg.Directory.CacheTTL),
		Location:     cfg.Directory.Location(),
		EventURLBase: cfg.Directory.EventURLBase,
		Logger:       logger,
	})

	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewMirrorProcessor(jobQueue, cmsClient, submissionRepo, logger)
	reconciler := worker.NewReconciler(submissionService, cfg.Worker.ReconcileInterval, cfg.Worker.ReconcileBatch, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Run(workerCtx)
	}()
	go func() {
		defer wg.Done()
		reconciler.Run(workerCtx)
	}()
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	wg.Wait()
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
