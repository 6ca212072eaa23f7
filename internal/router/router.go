package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	availabilityH "github.com/asadi-yousef/personal-trainer-app-sub001/internal/handler/availability"
	healthH "github.com/asadi-yousef/personal-trainer-app-sub001/internal/handler/health"
	prometheusH "github.com/asadi-yousef/personal-trainer-app-sub001/internal/handler/prometheus"
	requestH "github.com/asadi-yousef/personal-trainer-app-sub001/internal/handler/request"
	reservationH "github.com/asadi-yousef/personal-trainer-app-sub001/internal/handler/reservation"
	scheduleH "github.com/asadi-yousef/personal-trainer-app-sub001/internal/handler/schedule"
	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/middleware"
)

type Config struct {
	RateLimit  rate.Limit
	RateBurst  int
	Timeout    time.Duration
	CORSConfig middleware.CORSConfig
}

func DefaultConfig() Config {
	return Config{
		RateLimit:  100,
		RateBurst:  200,
		Timeout:    30 * time.Second,
		CORSConfig: middleware.DefaultCORSConfig(),
	}
}

type Router struct {
	engine       *gin.Engine
	auth         *middleware.AuthMiddleware
	availability *availabilityH.Handler
	schedule     *scheduleH.Handler
	reservation  *reservationH.Handler
	request      *requestH.Handler
	health       *healthH.Handler
	prometheus   *prometheusH.Handler
}

func New(
	auth *middleware.AuthMiddleware,
	availability *availabilityH.Handler,
	schedule *scheduleH.Handler,
	reservation *reservationH.Handler,
	request *requestH.Handler,
	health *healthH.Handler,
	prometheus *prometheusH.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	registerValidations()
	engine := gin.New()

	r := &Router{
		engine:       engine,
		auth:         auth,
		availability: availability,
		schedule:     schedule,
		reservation:  reservation,
		request:      request,
		health:       health,
		prometheus:   prometheus,
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		prometheus.Middleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
		middleware.CORS(config.CORSConfig),
	)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  config.RateLimit,
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", r.prometheus.Handler())

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.health.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	r.availability.RegisterRoutes(protected, r.auth)
	r.schedule.RegisterRoutes(protected, r.auth)
	r.reservation.RegisterRoutes(protected, r.auth)
	r.request.RegisterRoutes(protected, r.auth)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
