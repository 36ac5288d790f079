package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/comedy-tour-seating/internal/catalog"
	"github.com/iliyamo/comedy-tour-seating/internal/checkout"
	"github.com/iliyamo/comedy-tour-seating/internal/config"
	"github.com/iliyamo/comedy-tour-seating/internal/database"
	"github.com/iliyamo/comedy-tour-seating/internal/handler"
	"github.com/iliyamo/comedy-tour-seating/internal/metrics"
	"github.com/iliyamo/comedy-tour-seating/internal/middleware"
	"github.com/iliyamo/comedy-tour-seating/internal/queue"
	"github.com/iliyamo/comedy-tour-seating/internal/repository"
	"github.com/iliyamo/comedy-tour-seating/internal/router"
	"github.com/iliyamo/comedy-tour-seating/internal/session"
	"github.com/iliyamo/comedy-tour-seating/pkg/logging"
)

func main() {
	logger := logging.Setup()
	if err := run(logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := map[string]handler.Pinger{"mysql": nil, "redis": nil}

	var provider catalog.Provider = catalog.NewFixture()
	var orders checkout.OrderStore = checkout.NewMemoryOrders()
	if cfg.CatalogSource == config.CatalogMySQL {
		db, err := database.Open(ctx, database.Options{
			User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
		})
		if err != nil {
			return err
		}
		defer db.Close()
		repo := repository.NewCatalogRepo(db)
		if cfg.DBMigrate {
			if err := migrate(ctx, db, repo); err != nil {
				return err
			}
			logger.Info("catalog schema applied and tour seeded")
		}
		provider = repo
		orders = repository.NewOrderRepo(db)
		health["mysql"] = db
	}

	rdb := config.NewRedisClient(ctx)
	if rdb != nil {
		defer rdb.Close()
		health["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	} else {
		logger.Warn("redis unavailable: caching and rate limiting disabled")
	}

	sessions, err := sessionStore(cfg, rdb)
	if err != nil {
		return err
	}

	m := metrics.New()
	svc := checkout.NewService(provider, queue.NewPublisher(cfg.RabbitURL), m, logger)
	svc.Capacity = cfg.Capacity
	svc.FeeRate = cfg.FeeRate
	svc.Orders = orders

	if cfg.OrderConsumerEnabled {
		go func() {
			if err := queue.StartOrderConsumer(ctx, cfg.RabbitURL, cfg.OrderLogDir, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("order consumer stopped", "err", err)
			}
		}()
	}

	e := router.New(router.Deps{
		Logger:    logger,
		Metrics:   m,
		Catalogs:  provider,
		Sessions:  sessions,
		Signer:    session.NewSigner(cfg.SessionSecret, cfg.SessionTTL),
		Checkout:  svc,
		Cache:     middleware.ResponseCache(config.LoadCacheConfig(), rdb),
		RateLimit: middleware.TokenBucket(config.LoadRateLimitConfig(), rdb, logger),
		Health:    health,
	})

	addr := ":" + cfg.Port
	logger.Info("listening",
		"addr", addr,
		"env", cfg.Env,
		"catalog", cfg.CatalogSource,
		"sessions", cfg.SessionStore,
		"fee", cfg.FeeRate.String())

	errc := make(chan error, 1)
	go func() { errc <- e.Start(addr) }()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func sessionStore(cfg config.Config, rdb *redis.Client) (session.Store, error) {
	if cfg.SessionStore == config.SessionRedis {
		if rdb == nil {
			return nil, errors.New("SESSION_STORE=redis but redis is unreachable")
		}
		return session.NewRedisStore(rdb, cfg.SessionTTL, "seating:session"), nil
	}
	return session.NewMemoryStore(cfg.SessionTTL), nil
}

func migrate(ctx context.Context, db *sql.DB, repo *repository.CatalogRepo) error {
	if err := database.EnsureSchema(ctx, db); err != nil {
		return err
	}
	return repo.Seed(ctx, catalog.NewFixture())
}
