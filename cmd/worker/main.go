package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	kafkaGo "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/luxtouch/spadispatch/config"
	"github.com/luxtouch/spadispatch/internal/kafka"
	"github.com/luxtouch/spadispatch/internal/logging"
	"github.com/luxtouch/spadispatch/internal/notify"
	"github.com/luxtouch/spadispatch/internal/repository"
	requestsvc "github.com/luxtouch/spadispatch/internal/service/request"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(cfg.Logging)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.NewPool(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	therapistRepo := repository.NewTherapistRepository(pool)
	requestRepo := repository.NewPendingRequestRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	couponRepo := repository.NewCouponRepository(pool)
	tokenRepo := repository.NewDeviceTokenRepository(pool)

	requestService := requestsvc.NewRequestService(requestRepo, bookingRepo, couponRepo, therapistRepo,
		producer, cfg.Kafka.NotificationsTopic, logger)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	pushSender := notify.NewSender(cfg.Push.GatewayURL,
		time.Duration(cfg.Push.TimeoutSeconds)*time.Second, tokenRepo, logger)

	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.LifecycleEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				logger.Warn("decode event", zap.Error(err))
				return nil
			}
			return pushSender.Send(ctx, event)
		}); err != nil {
			logger.Warn("consumer stopped", zap.Error(err))
		}
	}()

	sweepInterval := time.Duration(cfg.Worker.ExpirationSweepSeconds) * time.Second
	if sweepInterval <= 0 {
		sweepInterval = 30 * time.Second
	}
	sweepTicker := time.NewTicker(sweepInterval)
	defer sweepTicker.Stop()

	logger.Info("worker started", zap.Duration("sweep_interval", sweepInterval))

	for {
		select {
		case <-sweepTicker.C:
			expired, err := requestService.ExpirePendingRequests(ctx)
			if err != nil {
				logger.Warn("expire pending requests", zap.Error(err))
				continue
			}
			if len(expired) > 0 {
				logger.Info("expired pending requests", zap.Int("count", len(expired)))
			}
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		}
	}
}
