package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cleanmatch/cleanmatch-backend/api/controllers"
	"github.com/cleanmatch/cleanmatch-backend/api/middleware"
	"github.com/cleanmatch/cleanmatch-backend/internal/catalog"
	"github.com/cleanmatch/cleanmatch-backend/internal/orders"
	"github.com/cleanmatch/cleanmatch-backend/internal/otp"
	"github.com/cleanmatch/cleanmatch-backend/internal/reviews"
	"github.com/cleanmatch/cleanmatch-backend/internal/shops"
	"github.com/cleanmatch/cleanmatch-backend/internal/users"
	"github.com/cleanmatch/cleanmatch-backend/pkg/config"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db"
	"github.com/cleanmatch/cleanmatch-backend/pkg/logger"
	"github.com/cleanmatch/cleanmatch-backend/pkg/metrics"
	"github.com/cleanmatch/cleanmatch-backend/pkg/redis"
)

// Services bundles the domain services exposed over HTTP.
type Services struct {
	Users   users.Service
	Shops   shops.Service
	Catalog catalog.Service
	Orders  orders.Service
	Reviews reviews.Service
	OTP     otp.Service
}

// Observability carries the metrics collectors and the registry served on /metrics.
type Observability struct {
	HTTP     *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	obs Observability,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(obs.HTTP),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		middleware.Identity(cfg.JWT, logg),
	)

	sendOTPPolicy := middleware.NewRateLimitPolicy(
		"send-otp",
		cfg.AuthRateLimit.SendOTPWindow,
		cfg.AuthRateLimit.SendOTPIPLimit,
		cfg.AuthRateLimit.SendOTPEmailLimit,
	)
	verifyOTPPolicy := middleware.NewRateLimitPolicy(
		"verify-otp",
		cfg.AuthRateLimit.VerifyOTPWindow,
		cfg.AuthRateLimit.VerifyOTPIPLimit,
		cfg.AuthRateLimit.VerifyOTPEmailLimit,
	)

	// A nil *redis.Client must not reach the middleware as a non-nil interface.
	var (
		readiness = map[string]controllers.Pinger{}
		rateStore middleware.RateLimiterStore
		idemStore redis.IdempotencyStore
	)
	if dbP != nil {
		readiness["db"] = dbP
	}
	if redisClient != nil {
		readiness["redis"] = redisClient
		rateStore = redisClient
		idemStore = redisClient
	}
	idempotency := middleware.Idempotency(idemStore, cfg.Orders.IdempotencyTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if obs.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(obs.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", controllers.UserUpsert(svcs.Users, logg))
			r.Get("/{userId}", controllers.UserGet(svcs.Users, logg))
		})

		r.Route("/shops", func(r chi.Router) {
			r.Get("/", controllers.ShopList(svcs.Shops, logg))
			r.Post("/", controllers.ShopUpsert(svcs.Shops, logg))
		})

		r.Route("/services", func(r chi.Router) {
			r.Get("/", controllers.ServiceList(svcs.Catalog, logg))
			r.Post("/", controllers.ServiceAdd(svcs.Catalog, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(svcs.Orders, cfg.Orders.ListLimit, logg))
			r.With(idempotency).Post("/", controllers.OrderCreate(svcs.Orders, logg))
			r.Patch("/", controllers.OrderUpdateStatus(svcs.Orders, logg))
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", controllers.ReviewList(svcs.Reviews, logg))
			r.Post("/", controllers.ReviewCreate(svcs.Reviews, logg))
		})

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimit(sendOTPPolicy, rateStore, logg)).Post("/send-otp", controllers.AuthSendOTP(svcs.OTP, logg))
			r.With(middleware.RateLimit(verifyOTPPolicy, rateStore, logg)).Post("/verify-otp", controllers.AuthVerifyOTP(svcs.OTP, logg))
		})
	})

	return r
}
