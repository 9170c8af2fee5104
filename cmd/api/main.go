package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/foodorder-backend/api/controllers"
	"github.com/angelmondragon/foodorder-backend/api/routes"
	"github.com/angelmondragon/foodorder-backend/internal/auth"
	"github.com/angelmondragon/foodorder-backend/internal/cart"
	"github.com/angelmondragon/foodorder-backend/internal/catalog"
	"github.com/angelmondragon/foodorder-backend/internal/checkout"
	"github.com/angelmondragon/foodorder-backend/internal/location"
	"github.com/angelmondragon/foodorder-backend/internal/orders"
	"github.com/angelmondragon/foodorder-backend/internal/recordstore"
	"github.com/angelmondragon/foodorder-backend/internal/users"
	pkgAuth "github.com/angelmondragon/foodorder-backend/pkg/auth"
	"github.com/angelmondragon/foodorder-backend/pkg/auth/session"
	"github.com/angelmondragon/foodorder-backend/pkg/config"
	"github.com/angelmondragon/foodorder-backend/pkg/db"
	"github.com/angelmondragon/foodorder-backend/pkg/logger"
	"github.com/angelmondragon/foodorder-backend/pkg/maps"
	"github.com/angelmondragon/foodorder-backend/pkg/metrics"
	"github.com/angelmondragon/foodorder-backend/pkg/migrate"
	"github.com/angelmondragon/foodorder-backend/pkg/redis"
	"github.com/angelmondragon/foodorder-backend/pkg/security"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.Prepare(ctx, cfg, logg, dbClient, &users.User{}, &recordstore.Record{}); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	records, err := recordstore.New(recordstore.Params{
		Repo:   recordstore.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		return err
	}
	var relay *recordstore.RedisRelay
	if cfg.FeatureFlags.RecordRelay {
		relay = recordstore.NewRedisRelay(redisClient, records, logg)
	}

	signer, err := pkgAuth.NewSigner(cfg.JWT)
	if err != nil {
		return err
	}
	sessions, err := session.NewManager(redisClient, redisClient, cfg.JWT.RefreshTokenTTL(), signer.TTL())
	if err != nil {
		return err
	}
	hasher := security.NewHasher(cfg.Password)
	credentials := users.NewRepository(dbClient.DB())

	breaker := maps.BreakerSettings{
		Timeout:      cfg.Maps.BreakerTimeout,
		MinRequests:  cfg.Maps.BreakerMinCalls,
		FailureRatio: cfg.Maps.BreakerFailRatio,
	}
	geocoder := maps.NewGeocoder(maps.Config{
		BaseURL:   cfg.Maps.NominatimURL,
		UserAgent: cfg.Maps.UserAgent,
		Timeout:   cfg.Maps.Timeout,
		Breaker:   breaker,
	}, maps.WithObserver(m), maps.WithLogger(logg))
	router := maps.NewRouter(maps.Config{
		BaseURL:   cfg.Maps.OSRMURL,
		UserAgent: cfg.Maps.UserAgent,
		Timeout:   cfg.Maps.Timeout,
		Breaker:   breaker,
	}, maps.WithObserver(m), maps.WithLogger(logg))

	picker, err := location.NewPicker(geocoder, cfg.Maps.Timeout, logg)
	if err != nil {
		return err
	}
	defer picker.Wait()
	tracker, err := location.NewTracker(router, logg)
	if err != nil {
		return err
	}

	menu := catalog.NewProvider()

	cartService, err := cart.NewService(cart.ServiceParams{
		Slot:    redisClient,
		Keys:    redisClient,
		Catalog: menu,
		SlotTTL: cfg.Cart.SlotTTL,
		Logger:  logg,
	})
	if err != nil {
		return err
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Cart:          cartService,
		Catalog:       menu,
		Records:       records,
		Picker:        picker,
		KV:            redisClient,
		Keys:          redisClient,
		Metrics:       m,
		Logger:        logg,
		DeliveryETA:   cfg.Checkout.DeliveryETA,
		RedirectDelay: cfg.Checkout.RedirectDelay,
		RedirectPath:  cfg.Checkout.RedirectPath,
		InFlightTTL:   cfg.Checkout.InFlightTTL,
		DraftTTL:      cfg.Checkout.DraftTTL,
	})
	if err != nil {
		return err
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Store:   records,
		Catalog: menu,
		Tracker: tracker,
		Logger:  logg,
	})
	if err != nil {
		return err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Users:    credentials,
		Profiles: records,
		Sessions: sessions,
		Signer:   signer,
		Hasher:   hasher,
		Cart:     cartService,
		Drafts:   checkoutService,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	profileService, err := users.NewService(users.ServiceParams{
		Profiles: records,
		Users:    credentials,
		Hasher:   hasher,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
		"relay":    relay != nil,
	})
	logg.Info(logCtx, "starting api server")

	g, gctx := errgroup.WithContext(ctx)
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:   cfg,
			Logger:   logg,
			Store:    redisClient,
			Tokens:   signer,
			Sessions: sessions,
			Ready: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
			Observer: m,
			Gatherer: registry,
			Auth:     authService,
			Profiles: profileService,
			Catalog:  menu,
			Cart:     cartService,
			Checkout: checkoutService,
			Orders:   ordersService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		// open order streams end when the process starts shutting down
		BaseContext: func(net.Listener) context.Context { return gctx },
	}

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if relay != nil {
		g.Go(func() error {
			if err := relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}
