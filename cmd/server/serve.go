package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"
	"github.com/iliyamo/restaurant-table-reservation/internal/calendar"
	"github.com/iliyamo/restaurant-table-reservation/internal/config"
	"github.com/iliyamo/restaurant-table-reservation/internal/database"
	"github.com/iliyamo/restaurant-table-reservation/internal/handler"
	"github.com/iliyamo/restaurant-table-reservation/internal/logger"
	"github.com/iliyamo/restaurant-table-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-table-reservation/internal/queue"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
	"github.com/iliyamo/restaurant-table-reservation/internal/router"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(parent context.Context) error {
	cfg := config.Load()
	log, err := logger.New(cfg.Env)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.MigrateUp(cfg.DB, db); err != nil {
			return err
		}
		log.Info("schema migrated", zap.String("driver", cfg.DB.Driver))
	}

	policy, err := calendar.LoadPolicy(calendar.SystemClock{}, cfg.Timezone)
	if err != nil {
		return err
	}

	var events booking.EventPublisher = queue.NopPublisher{}
	if cfg.EventsEnabled {
		events = queue.NewPublisher(cfg.RabbitURL, log)
	}

	store := repository.NewStore(db, cfg.DB.Dialect())
	svc := booking.NewService(store, policy, events, log)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.AuditConsumerEnabled {
		consumer := queue.NewAuditConsumer(cfg.RabbitURL, cfg.AuditLogDir, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit consumer stopped", zap.Error(err))
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	deps := router.Deps{
		DB:        db,
		JWTSecret: cfg.JWTSecret,
		Auth:      handler.NewAuthHandler(cfg, svc, store, log),
		Booking:   handler.NewBookingHandler(svc, log),
		Catalog:   handler.NewCatalogHandler(svc, log),
	}

	// Redis is optional: without it the service runs with caching and rate
	// limiting disabled.
	rdb, err := config.NewRedisClient(config.LoadRedisConfig())
	if err != nil {
		log.Warn("redis unavailable, cache and rate limit disabled", zap.Error(err))
	} else {
		defer rdb.Close()
		if cc := config.LoadCacheConfig(); cc.Enabled {
			deps.Cache = middleware.ResponseCache(cc, rdb, log)
		}
		if rl := config.LoadRateLimitConfig(); rl.Enabled {
			deps.RateLimit = middleware.RateLimit(rl, rdb, log)
		}
	}
	router.Setup(e, deps)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("tz", cfg.Timezone))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(sctx)
}
