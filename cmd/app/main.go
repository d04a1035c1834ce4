package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avilov/drivebook/config"
	"github.com/avilov/drivebook/internal/bootstrap"
	"github.com/avilov/drivebook/internal/cache"
	"github.com/avilov/drivebook/internal/kafka"
	"github.com/avilov/drivebook/internal/repository"
	"github.com/avilov/drivebook/internal/service/booking"
	"github.com/avilov/drivebook/internal/service/packages"
	"github.com/avilov/drivebook/internal/service/schedule"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.SlotsCacheTTL)*time.Second)

	availabilityRepo := repository.NewAvailabilityRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	packageRepo := repository.NewPackageRepository(pool)

	packageSvc := packages.NewPackageService(
		packageRepo,
		producer,
		cfg.Kafka.LessonEventsTopic,
		packages.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)
	bookingSvc := booking.NewBookingService(
		bookingRepo,
		availabilityRepo,
		packageSvc,
		redisCache,
		producer,
		cfg.Kafka.LessonEventsTopic,
		time.Duration(cfg.Booking.SlotHoldTTLMinutes)*time.Minute,
		time.Duration(cfg.Booking.PendingTTLMinutes)*time.Minute,
		cfg.Booking.PlatformFeePercent,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)
	scheduleSvc := schedule.NewScheduleService(availabilityRepo, bookingRepo, redisCache)

	logger.Info("starting drivebook server", zap.String("addr", cfg.HTTP.Address))
	if err := bootstrap.Run(ctx, cfg, scheduleSvc, bookingSvc, packageSvc); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("server stopped gracefully")
}
