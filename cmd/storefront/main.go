package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	storecfg "github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/es"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/service/search"
	"github.com/Skotchmaster/storefront/pkg/cookies"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
	"github.com/Skotchmaster/storefront/pkg/observability"
)

func main() {
	cfg := storecfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("storefront_stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("storefront stopped")
}

func run(ctx context.Context, cfg storecfg.ServiceConfig, logger *slog.Logger) error {
	shutdownTracing, err := observability.SetupTracing(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing_shutdown_error", "error", err)
		}
	}()

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	db, err := pkgdb.Open(openCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer func() { _ = pkgdb.Close(db) }()

	if err := repo.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	store := &repo.GormRepo{DB: db}

	if cfg.SeedData {
		seeded, err := store.Seed(ctx)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		logger.Info("seed_checked", "seeded", seeded)
	}

	auth := &service.AuthService{
		Repo:          store,
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}
	if cfg.AdminEmail != "" {
		created, err := auth.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		logger.Info("admin_checked", "email", cfg.AdminEmail, "created", created)
	}

	var events mykafka.Publisher = mykafka.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		tctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := mykafka.EnsureTopics(tctx, cfg.KafkaBrokers[0], mykafka.Topics...); err != nil {
			logger.Warn("kafka_topics_error", "error", err)
		}
		cancel()

		producer := mykafka.NewProducer(cfg.KafkaBrokers)
		defer func() { _ = producer.Close() }()
		events = producer
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	var gateway payment.Gateway = payment.Unavailable{}
	if cfg.StripeSecretKey != "" {
		gateway = payment.NewStripeGateway(cfg.StripeSecretKey, cfg.Currency, nil)
	} else {
		logger.Warn("payments_disabled", "reason", "STRIPE_SECRET_KEY is empty")
	}

	catalog := &service.CatalogService{Repo: store, Events: events}

	var (
		index   *search.Index
		indexer *mykafka.Consumer
	)
	if cfg.ESURL != "" {
		esCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		client, err := es.NewClient(esCtx, es.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword})
		cancel()
		if err != nil {
			logger.Warn("search_disabled", "reason", "elasticsearch unreachable", "error", err)
		} else {
			index = search.NewIndex(client, cfg.ESIndex)
			catalog.Search = index
			if len(cfg.KafkaBrokers) > 0 {
				indexer = mykafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, mykafka.TopicProduct, logger)
				defer func() { _ = indexer.Close() }()
			} else {
				logger.Warn("search_indexer_disabled", "reason", "KAFKA_BROKERS is empty")
			}
		}
	}

	cookies.Secure = cfg.SecureCookies

	carts := &httpserver.CartHTTP{Svc: &service.CartService{Repo: store, Events: events}}
	orders := &service.OrderService{Repo: store, Gateway: gateway, Events: events}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.SecureWithConfig(echomw.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: len(cfg.CORSOrigins) > 0,
		AllowHeaders:     []string{echo.HeaderContentType, "X-CSRF-Token"},
		ExposeHeaders:    []string{"X-CSRF-Token", echo.HeaderXRequestID},
	}))
	if cfg.CSRFEnabled {
		e.Use(csrf.Middleware(csrf.Config{
			Secure:            cfg.SecureCookies,
			EnforceSameOrigin: true,
			SkipPaths:         []string{httpserver.WebhookPath},
		}))
	}

	httpserver.Register(e, &httpserver.Deps{
		CartHandler:    carts,
		OrderHandler:   &httpserver.OrderHTTP{Svc: orders, Carts: carts},
		CatalogHandler: &httpserver.CatalogHTTP{Svc: catalog},
		AuthHandler:    &httpserver.AuthHTTP{Svc: auth},
		WebhookHandler: &httpserver.WebhookHTTP{Orders: orders, Secret: cfg.StripeWebhookSecret},
		HealthHandler:  &httpserver.HealthHTTP{DB: sqlDB},
		JWTSecret:      cfg.JWTAccessSecret,
		AuthRateLimit:  cfg.AuthRateLimit,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("storefront listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	if indexer != nil {
		// The storefront keeps serving when the indexer dies; search falls
		// back to the database.
		g.Go(func() error {
			if err := indexer.Run(gctx, index.HandleProductEvent); err != nil {
				logger.Error("search_indexer_stopped", "error", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}
