package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/courier-webhooks/internal/api"
	"github.com/ignite/courier-webhooks/internal/archive"
	"github.com/ignite/courier-webhooks/internal/cache"
	"github.com/ignite/courier-webhooks/internal/config"
	"github.com/ignite/courier-webhooks/internal/courier"
	"github.com/ignite/courier-webhooks/internal/database"
	"github.com/ignite/courier-webhooks/internal/metrics"
	"github.com/ignite/courier-webhooks/internal/notify"
	"github.com/ignite/courier-webhooks/internal/pkg/distlock"
	"github.com/ignite/courier-webhooks/internal/pkg/logger"
	"github.com/ignite/courier-webhooks/internal/repository/postgres"
	"github.com/ignite/courier-webhooks/internal/service/reconcile"
	"github.com/ignite/courier-webhooks/internal/service/webhook"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logger.Error("server exited", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Logging.Level); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if cfg.Logging.RedactPII != nil {
		logger.SetRedactPII(*cfg.Logging.RedactPII)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(cfg.Database.URL); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	redisClient := connectRedis(ctx, cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}

	deps := reconcile.Deps{
		Orders:      postgres.NewOrderRepo(db),
		Performance: postgres.NewPerformanceRepo(db),
		Audit:       postgres.NewAuditRepo(db),
		Recipients:  postgres.NewRecipientRepo(db),
		Locker:      distlock.NewLocker(redisClient, db, cfg.Tracking.LockTTL(), cfg.Tracking.LockWait()),
	}
	if redisClient != nil {
		deps.Cache = cache.NewTrackingCache(redisClient)
	}

	notifier, err := notify.New(ctx, cfg.Notification)
	if err != nil {
		return fmt.Errorf("notification: %w", err)
	}
	if notifier != nil {
		deps.Notifier = notifier
		logger.Info("notifications enabled", "mode", cfg.Notification.Mode)
	}

	if cfg.Archive.Enabled {
		a, err := archive.NewS3Archive(ctx, cfg.Archive)
		if err != nil {
			return fmt.Errorf("archive: %w", err)
		}
		deps.Archive = a
	}

	metrics.Register()

	engine := reconcile.NewEngine(deps, reconcile.Options{
		CacheTTL:          cfg.Tracking.CacheTTL(),
		SideEffectTimeout: cfg.Tracking.SideEffectTimeout(),
	})
	verifier := courier.NewVerifier(courier.Secrets{
		PostNord:      cfg.Couriers.PostNordSecret,
		Bring:         cfg.Couriers.BringSecret,
		Budbee:        cfg.Couriers.BudbeeSecret,
		DHLCredential: cfg.Couriers.DHLCredential,
	}, cfg.Couriers.ReplayWindow())
	warnMissingSecrets(cfg.Couriers)

	server := api.NewServer(api.Deps{
		Router: webhook.NewRouter(verifier, engine, cfg.Tracking.ProcessingTimeout()),
		DB:     db,
		Redis:  redisClient,
	})

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		logger.Info("starting server", "addr", addr, "endpoint", reconcile.Endpoint)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-done:
		logger.Info("shutting down")
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
	return nil
}

// connectRedis returns nil when Redis is disabled or unreachable. The cache
// is then skipped and locks fall back to PostgreSQL advisory locks.
func connectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if !cfg.Enabled {
		logger.Info("redis disabled, using PostgreSQL advisory locks")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, continuing without cache", "addr", cfg.Addr, "error", err)
		client.Close()
		return nil
	}
	logger.Info("connected to Redis", "addr", cfg.Addr)
	return client
}

func warnMissingSecrets(c config.CourierConfig) {
	missing := map[string]string{
		"postnord": c.PostNordSecret,
		"bring":    c.BringSecret,
		"budbee":   c.BudbeeSecret,
		"dhl":      c.DHLCredential,
	}
	for name, v := range missing {
		if v == "" {
			logger.Warn("no secret configured, webhooks from this courier will be rejected", "courier", name)
		}
	}
}
