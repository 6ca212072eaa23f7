package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	availabilityH "github.com/asadi-yousef/personal-trainer-app-sub001/internal/handler/availability"
	healthH "github.com/asadi-yousef/personal-trainer-app-sub001/internal/handler/health"
	prometheusH "github.com/asadi-yousef/personal-trainer-app-sub001/internal/handler/prometheus"
	requestH "github.com/asadi-yousef/personal-trainer-app-sub001/internal/handler/request"
	reservationH "github.com/asadi-yousef/personal-trainer-app-sub001/internal/handler/reservation"
	scheduleH "github.com/asadi-yousef/personal-trainer-app-sub001/internal/handler/schedule"

	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/config"
	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/middleware"
	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/repository/postgres"
	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/router"
	availabilityService "github.com/asadi-yousef/personal-trainer-app-sub001/internal/service/availability"
	requestService "github.com/asadi-yousef/personal-trainer-app-sub001/internal/service/request"
	reservationService "github.com/asadi-yousef/personal-trainer-app-sub001/internal/service/reservation"
	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/service/scheduling"
	trainerService "github.com/asadi-yousef/personal-trainer-app-sub001/internal/service/trainer"
	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/worker"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/auth"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/logger"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/messaging"
	messagingRedis "github.com/asadi-yousef/personal-trainer-app-sub001/pkg/messaging/redis"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("booking")

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Redis backs both the reservation store and the event broker.
	// Without it the service still runs, holding reservations in
	// process memory.
	var (
		redisClient *redis.Client
		broker      messaging.Broker
		store       reservationService.Store
	)
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid redis URL")
		}
		redisClient = redis.NewClient(opts)
		store = reservationService.NewRedisStore(redisClient)

		broker, err = messagingRedis.NewRedisBroker(messagingRedis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, &log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis broker")
		}
		defer broker.Close()
	} else {
		store = reservationService.NewMemoryStore()
	}

	// Repositories.
	baseRepo := postgres.NewBaseRepository(db)
	slotRepo := postgres.InstrumentSlotRepository(postgres.NewSlotRepository(db), appMetrics)
	requestRepo := postgres.InstrumentBookingRequestRepository(postgres.NewBookingRequestRepository(db), appMetrics)
	bookingRepo := postgres.InstrumentBookingRepository(postgres.NewBookingRepository(db), appMetrics)
	trainerRepo := postgres.InstrumentTrainerRepository(postgres.NewTrainerRepository(db), appMetrics)

	// Services.
	reservationMgr := reservationService.NewManager(store, slotRepo, cfg.Scheduler.ReservationTTL, appLogger.WithComponent("reservation"), appMetrics)
	availabilitySvc := availabilityService.NewService(slotRepo, reservationMgr, appLogger.WithComponent("availability"))
	trainerSvc := trainerService.NewService(trainerRepo)
	conflicts := scheduling.NewConflictChecker(bookingRepo)
	scorer := scheduling.NewScorer(cfg.Scheduler.ReferenceMaxCost)
	finder := scheduling.NewFinder(availabilitySvc, trainerSvc, conflicts, scorer, cfg.Scheduler.TopK, appLogger.WithComponent("scheduling"), appMetrics)
	requestSvc := requestService.NewService(
		requestRepo,
		bookingRepo,
		slotRepo,
		&baseRepo,
		conflicts,
		trainerSvc,
		reservationMgr,
		broker,
		cfg.Scheduler.RequestTTL,
		appLogger.WithComponent("request"),
		appMetrics,
	)

	// Expiry sweep runs inside the API process; the standalone worker
	// binary covers deployments that prefer it out of band.
	expiryCtx, stopExpiry := context.WithCancel(context.Background())
	defer stopExpiry()
	expiryWorker := worker.NewExpiryWorker(requestSvc, cfg.Scheduler.SweepInterval, appLogger.WithComponent("expiry"))
	go expiryWorker.Start(expiryCtx)

	// Handlers and router.
	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	r := router.New(
		authMiddleware,
		availabilityH.NewHandler(availabilitySvc),
		scheduleH.NewHandler(finder),
		reservationH.NewHandler(reservationMgr),
		requestH.NewHandler(requestSvc),
		healthH.NewHandler(db, redisClient),
		prometheusH.New(),
		router.DefaultConfig(),
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	stopExpiry()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
