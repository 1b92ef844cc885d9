package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/hotelbooking/api"
	"github.com/Domenick1991/hotelbooking/config"
	"github.com/Domenick1991/hotelbooking/internal/auth"
	"github.com/Domenick1991/hotelbooking/internal/bootstrap"
	"github.com/Domenick1991/hotelbooking/internal/cache"
	"github.com/Domenick1991/hotelbooking/internal/kafka"
	"github.com/Domenick1991/hotelbooking/internal/logger"
	"github.com/Domenick1991/hotelbooking/internal/repository"
	"github.com/Domenick1991/hotelbooking/internal/service/booking"
	"github.com/Domenick1991/hotelbooking/internal/service/rooms"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const publishAttempts = 3

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("failed to load .env")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logrus.NewEntry(logger.New(cfg.Log)).WithField("app", "hotelbooking-api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		log.WithError(err).Fatal("parse postgres config")
	}
	poolCfg.MaxConns = cfg.Database.MaxConns
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.WithError(err).Fatal("connect postgres")
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.RoomsCacheTTL())
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		log.WithError(err).Warn("redis is not reachable")
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		log.WithError(err).Warn("kafka is not reachable, events will fail until it is")
	}

	roomRepo := repository.NewRoomRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)

	roomService := rooms.NewRoomService(roomRepo, redisCache, log)
	bookingService := booking.NewBookingService(
		bookingRepo,
		roomRepo,
		redisCache,
		producer.WithRetries(publishAttempts),
		cfg.Kafka.BookingTopic,
		cfg.Booking.ConfirmationTTL(),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithResendCooldown(cfg.Booking.ResendCooldown()),
		booking.WithMaxCodeAttempts(cfg.Booking.MaxCodeAttempts),
		booking.WithLogger(log.WithField("component", "booking_service")),
	)

	services := bootstrap.Services{
		Bookings: bookingService,
		Rooms:    roomService,
		Checks: map[string]api.Check{
			"postgres": pool.Ping,
			"redis":    redisCache.Ping,
		},
	}
	if cfg.Auth.JWTSecret != "" && cfg.Auth.AdminPasswordHash != "" {
		services.Auth = auth.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.AdminUser, cfg.Auth.AdminPasswordHash, cfg.Auth.TokenTTL())
	} else {
		log.Warn("auth is not configured, admin endpoints are disabled")
	}

	if err := bootstrap.Run(ctx, cfg, services, log); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
