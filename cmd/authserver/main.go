package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	auth "github.com/goliatone/go-jwt-auth"
	"github.com/goliatone/go-jwt-auth/middleware/jwtware"
	"github.com/goliatone/go-jwt-auth/repository"
)

type App struct {
	opts    auth.Options
	logger  auth.Logger
	zap     *zap.Logger
	db      *bun.DB
	server  router.Server[*fiber.App]
	metrics *auth.Metrics
}

func main() {
	opts, err := auth.LoadOptions()
	if err != nil {
		log.Fatal(err)
	}

	app, err := NewApp(context.Background(), opts)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	go func() {
		if err := app.server.Serve(opts.HTTPAddr); err != nil {
			app.logger.Error("server stopped", "error", err)
		}
	}()

	app.logger.Info("auth server listening", "addr", opts.HTTPAddr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("shutdown", "error", err)
	}
}

// NewApp wires storage, services and the HTTP pipeline
func NewApp(ctx context.Context, opts auth.Options) (*App, error) {
	logger, zl, err := auth.NewProductionLogger(opts.LogLevel)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics, err := auth.NewMetrics(registry)
	if err != nil {
		return nil, err
	}

	db, err := repository.Open(opts.DBDriver, opts.DBDSN, repository.WithQueryDebug(opts.Debug))
	if err != nil {
		return nil, err
	}

	users := repository.NewUsers(db)
	if err := users.CreateSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	hasher, err := auth.NewBcryptHasher(opts.BcryptCost)
	if err != nil {
		db.Close()
		return nil, err
	}

	tokens, err := auth.NewTokenServiceFromConfig(opts,
		auth.WithTokenLogger(logger),
		auth.WithTokenMetrics(metrics),
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	service := auth.NewAuthenticationService(users, hasher,
		auth.WithServiceLogger(logger),
		auth.WithServiceMetrics(metrics),
		auth.WithHashedIDs(opts.UseHashedIDs),
	)

	auther := auth.NewAuthenticator(service, tokens).WithLogger(logger)

	authenticator := auth.NewRequestAuthenticator(tokens, users,
		auth.WithAuthScheme(opts.GetAuthScheme()),
		auth.WithRequestLogger(logger),
		auth.WithRequestMetrics(metrics),
	)

	policy, err := auth.NewPolicy(auth.DefaultRules()...)
	if err != nil {
		db.Close()
		return nil, err
	}

	server := router.NewFiberAdapter(func(_ *fiber.App) *fiber.App {
		app := fiber.New(fiber.Config{
			AppName:      "authserver",
			ErrorHandler: auth.ErrorHandler(logger),
		})
		app.Use(recover.New())
		app.Use(cors.New(cors.Config{
			AllowOrigins: opts.AllowedOrigins(),
			AllowMethods: "GET,POST",
			AllowHeaders: "Authorization,Content-Type",
		}))
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
		return app
	})

	r := server.Router().WithLogger(logger)
	r.Use(jwtware.RequestTimeout(opts.RequestTimeout))
	r.Use(jwtware.New(jwtware.Config{
		Authenticator: authenticator,
		ContextKey:    opts.GetContextKey(),
		Logger:        logger,
	}))
	r.Use(jwtware.Gate(policy, jwtware.GateConfig{
		ContextKey: opts.GetContextKey(),
	}))

	r.Get("/healthz", func(ctx router.Context) error {
		if err := db.PingContext(ctx.Context()); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryExternal, "database unavailable")
		}
		return ctx.JSON(router.StatusOK, map[string]string{"status": "ok"})
	}).SetName("healthz")

	auth.NewAuthController(auther,
		auth.WithControllerDebug(opts.Debug),
		auth.WithControllerLogger(logger),
	).RegisterRoutes(r)

	return &App{
		opts:    opts,
		logger:  logger,
		zap:     zl,
		db:      db,
		server:  server,
		metrics: metrics,
	}, nil
}

// Close releases the database and flushes logs
func (a *App) Close() {
	if err := a.db.Close(); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("close database", "error", err)
	}
	_ = a.zap.Sync()
}
