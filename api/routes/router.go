package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aumatinvert/storefront-api/api/controllers"
	"github.com/aumatinvert/storefront-api/api/middleware"
	product "github.com/aumatinvert/storefront-api/internal/products"
	"github.com/aumatinvert/storefront-api/internal/promocodes"
	"github.com/aumatinvert/storefront-api/internal/quotes"
	"github.com/aumatinvert/storefront-api/pkg/config"
	"github.com/aumatinvert/storefront-api/pkg/db"
	"github.com/aumatinvert/storefront-api/pkg/enums"
	"github.com/aumatinvert/storefront-api/pkg/logger"
	"github.com/aumatinvert/storefront-api/pkg/metrics"
	"github.com/aumatinvert/storefront-api/pkg/redis"
)

// redisStore is the slice of the redis client the HTTP surface needs.
type redisStore interface {
	redis.Pinger
	redis.RateLimiter
	redis.IdempotencyStore
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient redisStore,
	productService product.Service,
	promoService promocodes.Service,
	quoteService quotes.Service,
	pricingMetrics *metrics.PricingMetrics,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	deps := map[string]controllers.Pinger{}
	if dbP != nil {
		deps["database"] = dbP
	}
	if redisClient != nil {
		deps["redis"] = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	validatePolicy := middleware.RateLimitPolicy{
		Name:   "promo-validate",
		Limit:  cfg.Pricing.PromoValidateLimit,
		Window: cfg.Pricing.PromoValidateEvery,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/pricing/quote", controllers.Quote(quoteService, logg))
		r.Get("/products/{productId}/pricing", controllers.ProductPricing(productService, logg))

		r.Route("/promo-codes", func(r chi.Router) {
			r.With(middleware.RateLimitByIP(validatePolicy, redisClient, logg)).
				Post("/validate", controllers.ValidatePromoCode(promoService, pricingMetrics, logg))
			r.With(
				middleware.RequireToken(cfg.JWT, logg, enums.APIRoleAdmin, enums.APIRoleCheckout),
				middleware.Idempotency(redisClient, cfg.Idempotency.RedeemTTL, logg),
			).Post("/redeem", controllers.RedeemPromoCode(promoService, pricingMetrics, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireToken(cfg.JWT, logg, enums.APIRoleAdmin))

			r.Post("/products", controllers.AdminCreateProduct(productService, logg))
			r.Route("/products/{productId}", func(r chi.Router) {
				r.Put("/pricing", controllers.AdminUpdatePricing(productService, logg))
				r.Put("/price-tiers", controllers.AdminReplacePriceTiers(productService, logg))
				r.Put("/weight-tiers", controllers.AdminReplaceWeightTiers(productService, logg))
				r.Put("/quantity-discounts", controllers.AdminReplaceQuantityDiscounts(productService, logg))
				r.Put("/sections", controllers.AdminReplaceSections(productService, logg))
				r.Put("/ranges", controllers.AdminReplaceRanges(productService, logg))
				r.Put("/person-tiers", controllers.AdminReplacePersonPriceTiers(productService, logg))
				r.Post("/promo-codes", controllers.AdminCreatePromoCode(promoService, logg))
				r.Get("/promo-codes", controllers.AdminListPromoCodes(promoService, logg))
			})
			r.Put("/ranges/{rangeId}/discount-tiers", controllers.AdminReplaceRangeDiscountTiers(productService, logg))
			r.Patch("/promo-codes/{promoCodeId}", controllers.AdminUpdatePromoCode(promoService, logg))
			r.Delete("/promo-codes/{promoCodeId}", controllers.AdminDeactivatePromoCode(promoService, logg))
		})
	})

	return r
}
