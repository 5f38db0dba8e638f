package routes

import (
	"fmt"

	"github.com/cleanmatch/cleanmatch-backend/internal/authz"
	"github.com/cleanmatch/cleanmatch-backend/internal/catalog"
	"github.com/cleanmatch/cleanmatch-backend/internal/orders"
	"github.com/cleanmatch/cleanmatch-backend/internal/otp"
	"github.com/cleanmatch/cleanmatch-backend/internal/reviews"
	"github.com/cleanmatch/cleanmatch-backend/internal/shops"
	"github.com/cleanmatch/cleanmatch-backend/internal/users"
	"github.com/cleanmatch/cleanmatch-backend/pkg/config"
	"github.com/cleanmatch/cleanmatch-backend/pkg/db"
	"github.com/cleanmatch/cleanmatch-backend/pkg/logger"
	"github.com/cleanmatch/cleanmatch-backend/pkg/mailer"
	"github.com/cleanmatch/cleanmatch-backend/pkg/metrics"
	"github.com/cleanmatch/cleanmatch-backend/pkg/outbox"
)

// NewServices wires every domain service against one database client. All
// services share a single authorization policy and outbox emitter.
func NewServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, m mailer.Mailer, otpMetrics *metrics.OTPMetrics) (Services, error) {
	if dbClient == nil {
		return Services{}, fmt.Errorf("database client required")
	}
	conn := dbClient.DB()
	policy := authz.NewPolicy(cfg.JWT.Required)
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	userService, err := users.NewService(users.NewRepository(conn), dbClient, policy)
	if err != nil {
		return Services{}, fmt.Errorf("users service: %w", err)
	}
	shopService, err := shops.NewService(shops.NewRepository(conn), dbClient, emitter, policy)
	if err != nil {
		return Services{}, fmt.Errorf("shops service: %w", err)
	}
	catalogService, err := catalog.NewService(catalog.NewRepository(conn), dbClient, policy)
	if err != nil {
		return Services{}, fmt.Errorf("catalog service: %w", err)
	}
	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:   orders.NewRepository(conn),
		Tx:     dbClient,
		Outbox: emitter,
		Policy: policy,
		Config: cfg.Orders,
		Logger: logg,
	})
	if err != nil {
		return Services{}, fmt.Errorf("orders service: %w", err)
	}
	reviewService, err := reviews.NewService(reviews.NewRepository(conn), dbClient, emitter, policy)
	if err != nil {
		return Services{}, fmt.Errorf("reviews service: %w", err)
	}
	otpService, err := otp.NewService(otp.ServiceParams{
		Repo:    otp.NewRepository(conn),
		Tx:      dbClient,
		Mailer:  m,
		Config:  cfg.OTP,
		Metrics: otpMetrics,
		Logger:  logg,
	})
	if err != nil {
		return Services{}, fmt.Errorf("otp service: %w", err)
	}

	return Services{
		Users:   userService,
		Shops:   shopService,
		Catalog: catalogService,
		Orders:  orderService,
		Reviews: reviewService,
		OTP:     otpService,
	}, nil
}
