package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/repository/postgres"
	requestService "github.com/asadi-yousef/personal-trainer-app-sub001/internal/service/request"
	reservationService "github.com/asadi-yousef/personal-trainer-app-sub001/internal/service/reservation"
	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/service/scheduling"
	trainerService "github.com/asadi-yousef/personal-trainer-app-sub001/internal/service/trainer"
	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/worker"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/logger"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/messaging"
	messagingRedis "github.com/asadi-yousef/personal-trainer-app-sub001/pkg/messaging/redis"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/metrics"
)

// workerConfig is populated from the environment; the sweeper is meant
// to run as a sidecar or cron-style deployment with no config file.
type workerConfig struct {
	DatabaseURL    string        `envconfig:"DATABASE_URL" required:"true"`
	RedisURL       string        `envconfig:"REDIS_URL"`
	SweepInterval  time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
	ReservationTTL time.Duration `envconfig:"RESERVATION_TTL" default:"10m"`
	RequestTTL     time.Duration `envconfig:"REQUEST_TTL" default:"48h"`
	HealthPort     int           `envconfig:"HEALTH_PORT" default:"8081"`
}

func setupHealthCheck(port int, appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			appLogger.Fatal(err, "health check server failed")
		}
	}()
}

func main() {
	var cfg workerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load worker config")
	}

	appLogger := logger.NewLogger(nil).WithComponent("expiry-worker")
	appMetrics := metrics.NewMetrics("booking_worker")

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	var (
		broker messaging.Broker
		store  reservationService.Store
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid redis URL")
		}
		store = reservationService.NewRedisStore(redis.NewClient(opts))

		broker, err = messagingRedis.NewRedisBroker(messagingRedis.Config{URL: cfg.RedisURL}, &log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis broker")
		}
		defer broker.Close()
	} else {
		store = reservationService.NewMemoryStore()
	}

	baseRepo := postgres.NewBaseRepository(db)
	slotRepo := postgres.InstrumentSlotRepository(postgres.NewSlotRepository(db), appMetrics)
	requestRepo := postgres.InstrumentBookingRequestRepository(postgres.NewBookingRequestRepository(db), appMetrics)
	bookingRepo := postgres.InstrumentBookingRepository(postgres.NewBookingRepository(db), appMetrics)
	trainerRepo := postgres.InstrumentTrainerRepository(postgres.NewTrainerRepository(db), appMetrics)

	reservationMgr := reservationService.NewManager(store, slotRepo, cfg.ReservationTTL, appLogger, appMetrics)
	requestSvc := requestService.NewService(
		requestRepo,
		bookingRepo,
		slotRepo,
		&baseRepo,
		scheduling.NewConflictChecker(bookingRepo),
		trainerService.NewService(trainerRepo),
		reservationMgr,
		broker,
		cfg.RequestTTL,
		appLogger,
		appMetrics,
	)

	setupHealthCheck(cfg.HealthPort, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	expiryWorker := worker.NewExpiryWorker(requestSvc, cfg.SweepInterval, appLogger)
	go expiryWorker.Start(ctx)

	appLogger.Info("expiry worker started", "interval", cfg.SweepInterval.String())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	appLogger.Info("expiry worker stopped")
}
