package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/propshare/checkout/config"
	"github.com/propshare/checkout/data"
	"github.com/propshare/checkout/data/cache"
	"github.com/propshare/checkout/data/repository/postgres"
	"github.com/propshare/checkout/data/session"
	"github.com/propshare/checkout/internal/externalApi/accountsApi"
	"github.com/propshare/checkout/internal/externalApi/catalogApi"
	"github.com/propshare/checkout/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/propshare/checkout/internal/externalApi/paymentApi"
	"github.com/propshare/checkout/internal/externalApi/walletApi"
	"github.com/propshare/checkout/internal/httpserver"
	"github.com/propshare/checkout/internal/notifier/telegramNotifier"
	"github.com/propshare/checkout/internal/reportGenerator/xlsxGenerator"
	"github.com/propshare/checkout/internal/scheduler"
	"github.com/propshare/checkout/internal/service/catalogService"
	"github.com/propshare/checkout/internal/service/checkoutService"
	"github.com/propshare/checkout/internal/service/portfolioService"
	transport "github.com/propshare/checkout/internal/transport/http"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgClient := data.NewPostgresClient(cfg)
	defer pgClient.Close()

	pgRepo := postgres.NewPostgres(cfg, pgClient)

	redisClient := data.NewRedisClient(cfg)
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, cfg)
	redisSession := session.NewRedisSession(redisClient, cfg)

	catalogApiClient := catalogApi.New(cfg)
	accountsApiClient := accountsApi.New(cfg)
	paymentApiClient := paymentApi.New(cfg)
	walletApiClient := walletApi.New(cfg)

	reportGenerator := xlsxGenerator.New()

	googleCloudStorage := googleDriveApi.New(ctx, cfg)

	opsNotifier := telegramNotifier.New(cfg)

	checkoutSrv := checkoutService.New(cfg, redisSession, catalogApiClient, accountsApiClient, paymentApiClient, pgRepo, opsNotifier)
	catalogSrv := catalogService.New(catalogApiClient, redisCache)
	portfolioSrv := portfolioService.New(pgRepo, reportGenerator, googleCloudStorage)

	sched := scheduler.New(
		scheduler.Job{
			Name:             "refresh properties cache",
			Interval:         cfg.Jobs.RefreshPropertiesInterval,
			StartImmediately: true,
			Run:              catalogSrv.RefreshProperties,
		},
		scheduler.Job{
			Name:     "drive cleanup",
			Interval: cfg.Jobs.DriveCleanupInterval,
			Run:      googleCloudStorage.DeleteOldFiles,
		},
	)
	sched.Start()
	defer sched.Stop()

	ctrl := transport.NewController(checkoutSrv, catalogSrv, portfolioSrv, walletApiClient)

	server := httpserver.New(cfg, ctrl)
	server.Start()
	defer server.Stop()

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-interrupt
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
