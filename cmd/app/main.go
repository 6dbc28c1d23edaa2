package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/luxtouch/spadispatch/api"
	"github.com/luxtouch/spadispatch/config"
	"github.com/luxtouch/spadispatch/internal/bootstrap"
	"github.com/luxtouch/spadispatch/internal/cache"
	"github.com/luxtouch/spadispatch/internal/kafka"
	"github.com/luxtouch/spadispatch/internal/logging"
	"github.com/luxtouch/spadispatch/internal/repository"
	bookingsvc "github.com/luxtouch/spadispatch/internal/service/booking"
	requestsvc "github.com/luxtouch/spadispatch/internal/service/request"
	searchsvc "github.com/luxtouch/spadispatch/internal/service/search"
	therapistsvc "github.com/luxtouch/spadispatch/internal/service/therapist"
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

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Dispatch.SearchCacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	therapistRepo := repository.NewTherapistRepository(pool)
	requestRepo := repository.NewPendingRequestRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	couponRepo := repository.NewCouponRepository(pool)
	tokenRepo := repository.NewDeviceTokenRepository(pool)

	searchService := searchsvc.NewSearchService(therapistRepo, redisCache, logger)
	requestService := requestsvc.NewRequestService(requestRepo, bookingRepo, couponRepo, therapistRepo,
		producer, cfg.Kafka.NotificationsTopic, logger)
	bookingService := bookingsvc.NewBookingService(bookingRepo, producer, cfg.Kafka.NotificationsTopic, logger)
	therapistService := therapistsvc.NewTherapistService(therapistRepo, redisCache, logger)

	handlers := bootstrap.Handlers{
		Search:   api.NewTherapistSearchHandler(searchService, cfg.Dispatch.DefaultSearchRadiusKm),
		Requests: api.NewRequestHandler(requestService),
		Bookings: api.NewBookingHandler(bookingService),
		Pricing:  api.NewPricingHandler(requestService),
		Profile:  api.NewProfileHandler(therapistService, tokenRepo),
	}

	if err := bootstrap.Run(ctx, cfg, handlers, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
