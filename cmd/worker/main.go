package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avilov/drivebook/config"
	"github.com/avilov/drivebook/internal/cache"
	"github.com/avilov/drivebook/internal/kafka"
	"github.com/avilov/drivebook/internal/notify"
	"github.com/avilov/drivebook/internal/repository"
	"github.com/avilov/drivebook/internal/service/booking"
	"github.com/avilov/drivebook/internal/service/packages"
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

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.SlotsCacheTTL)*time.Second)

	availabilityRepo := repository.NewAvailabilityRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	packageRepo := repository.NewPackageRepository(pool)

	packageSvc := packages.NewPackageService(packageRepo, producer, cfg.Kafka.LessonEventsTopic)
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
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	sender := notify.NewSender(logger)

	go func() {
		if err := consumer.Consume(ctx, sender.Send); err != nil {
			logger.Warn("consumer stopped", zap.Error(err))
		}
	}()

	expireTicker := time.NewTicker(time.Duration(cfg.Worker.ExpirationSweepMinutes) * time.Minute)
	defer expireTicker.Stop()

	for {
		select {
		case <-expireTicker.C:
			expired, err := bookingSvc.ExpirePendingBookings(ctx)
			if err != nil {
				logger.Error("expire bookings", zap.Error(err))
				continue
			}
			if len(expired) > 0 {
				logger.Info("expired pending bookings", zap.Int("count", len(expired)))
			}
		case <-ctx.Done():
			logger.Info("shutting down worker")
			return
		}
	}
}
