package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/foodorder-backend/api/controllers"
	"github.com/angelmondragon/foodorder-backend/api/middleware"
	"github.com/angelmondragon/foodorder-backend/internal/auth"
	"github.com/angelmondragon/foodorder-backend/internal/cart"
	"github.com/angelmondragon/foodorder-backend/internal/catalog"
	"github.com/angelmondragon/foodorder-backend/internal/checkout"
	"github.com/angelmondragon/foodorder-backend/internal/orders"
	"github.com/angelmondragon/foodorder-backend/internal/users"
	"github.com/angelmondragon/foodorder-backend/pkg/auth/session"
	"github.com/angelmondragon/foodorder-backend/pkg/config"
	"github.com/angelmondragon/foodorder-backend/pkg/enums"
	"github.com/angelmondragon/foodorder-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/foodorder-backend/pkg/redis"
)

// Store is the Redis surface the HTTP layer needs: idempotency replay and
// fixed-window rate limiting.
type Store interface {
	pkgredis.IdempotencyStore
	middleware.WindowLimiter
}

// Params groups everything NewRouter mounts.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	Store    Store
	Tokens   middleware.TokenParser
	Sessions session.AccessSessionChecker
	Ready    map[string]controllers.Pinger
	Observer middleware.RequestObserver
	Gatherer prometheus.Gatherer

	Auth     auth.Service
	Profiles users.Service
	Catalog  catalog.Provider
	Cart     cart.Service
	Checkout checkout.Service
	Orders   orders.Service
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.Observer),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	// Applied per route so the full chi pattern is known when rules are matched.
	idempotent := middleware.Idempotency(p.Store, logg)
	authenticated := middleware.Auth(p.Tokens, p.Sessions, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, logg, p.Ready))
	})
	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Store, logg)).Post("/login", controllers.AuthLogin(p.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, p.Store, logg), idempotent).Post("/register", controllers.AuthRegister(p.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.Auth, logg))
		r.With(authenticated).Post("/logout", controllers.AuthLogout(p.Auth, logg))
		r.With(authenticated).Get("/me", controllers.AuthMe(p.Auth, logg))
	})

	r.Route("/api/v1/restaurants", func(r chi.Router) {
		r.Get("/", controllers.RestaurantList(p.Catalog))
		r.Get("/{slug}", controllers.RestaurantDetail(p.Catalog, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(authenticated)

		r.Route("/api/v1/profile", func(r chi.Router) {
			r.Get("/", controllers.ProfileGet(p.Profiles, logg))
			r.Patch("/", controllers.ProfileUpdate(p.Profiles, logg))
			r.With(idempotent).Post("/password", controllers.ProfileChangePassword(p.Profiles, logg))
		})

		r.Route("/api/v1/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(p.Cart, logg))
			r.Delete("/", controllers.CartClear(p.Cart, logg))
			r.With(idempotent).Post("/items", controllers.CartAddItem(p.Cart, logg))
			r.Patch("/items/{itemId}", controllers.CartSetQuantity(p.Cart, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(p.Cart, logg))
		})

		r.Route("/api/v1/checkout", func(r chi.Router) {
			r.With(idempotent).Post("/", controllers.CheckoutPlaceOrder(p.Checkout, logg))
			r.With(middleware.RateLimit("location_pick", cfg.Maps.PickWindow, cfg.Maps.PickLimit, p.Store, logg)).
				Post("/location", controllers.CheckoutSelectLocation(p.Checkout, logg))
			r.Get("/location", controllers.CheckoutGetLocation(p.Checkout, logg))
		})

		r.Route("/api/v1/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(p.Orders, logg))
			r.Get("/stream", controllers.OrdersStream(p.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(p.Orders, logg))
			r.Get("/{orderId}/stream", controllers.OrderStream(p.Orders, logg))
			r.Get("/{orderId}/route", controllers.OrderRoute(p.Orders, logg))
		})

		r.Route("/api/v1/admin/orders", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
			r.With(idempotent).Patch("/{userId}/{orderId}/status", controllers.AdminUpdateOrderStatus(p.Orders, logg))
			r.Patch("/{userId}/{orderId}/location", controllers.AdminUpdateOrderLocation(p.Orders, logg))
		})
	})

	return r
}
