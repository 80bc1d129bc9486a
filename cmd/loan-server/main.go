// cmd/loan-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"loanflow/internal/common/aws"
	"loanflow/internal/common/config"
	"loanflow/internal/common/database"
	"loanflow/internal/common/logger"
	"loanflow/internal/common/observability"
	"loanflow/internal/httpapi"
	"loanflow/internal/ledger"
	"loanflow/internal/stages/contact"
	"loanflow/internal/stages/decide"
	"loanflow/internal/stages/dupcheck"
	"loanflow/internal/stages/format"
	"loanflow/internal/stages/notify"
	"loanflow/internal/stages/persist"
	"loanflow/internal/stages/validate"
	"loanflow/internal/steprunner"
	"loanflow/internal/workflow"
	"loanflow/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting loan server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Submission ledger store ---
	var store ledger.Store
	switch cfg.Ledger.Backend {
	case config.LedgerBackendPostgres:
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		pgStore := ledger.NewPostgresStore(pg.GetDB())
		if err := pgStore.Migrate(ctx); err != nil {
			zapLog.Fatal("postgres migration failed", zap.Error(err))
		}
		store = pgStore
		zapLog.Info("PostgreSQL ledger ready")

	case config.LedgerBackendRedis:
		var rdb *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()

		store = ledger.NewRedisStore(rdb.GetClient(), cfg.Ledger.RedisKey)
		zapLog.Info("Redis ledger ready")

	default:
		store = ledger.NewFileStore(cfg.Ledger.FilePath)
		zapLog.Info("File ledger ready", zap.String("path", cfg.Ledger.FilePath))
	}

	led := ledger.New(store, log)
	guard := ledger.NewDuplicateGuard(store)

	// --- Message registry ---
	reg, err := registry.LoadRegistry(cfg.Messages.RegistryPath)
	if err != nil {
		zapLog.Fatal("message registry load failed", zap.Error(err))
	}

	// --- AWS notification clients ---
	sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("ses client init failed", zap.Error(err))
	}
	snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("sns client init failed", zap.Error(err))
	}

	notifyCfg := notify.LoadConfig()
	notifyCfg.EmailEnabled = cfg.Notifications.Email.Enabled
	notifyCfg.SMSEnabled = cfg.Notifications.SMS.Enabled
	notifyCfg.FromEmail = cfg.Notifications.Email.FromEmail
	notifyCfg.AgentEmail = cfg.Notifications.Email.AgentEmail
	notifyCfg.AgentPhone = cfg.Notifications.SMS.AgentPhone
	notifyCfg.PageThreshold = cfg.Notifications.SMS.PageThreshold

	// --- Workflows ---
	runner := steprunner.NewLocalRunner(log)
	contactCfg := contact.LoadConfig()

	approval := workflow.NewLoanApproval(
		runner,
		workflow.DefaultPolicies(),
		validate.NewHandler(validate.LoadConfig(), log),
		dupcheck.NewHandler(dupcheck.LoadConfig(), guard, log),
		decide.NewHandler(decide.LoadConfig(), log),
		format.NewHandler(format.LoadConfig(), reg, log),
		persist.NewHandler(persist.LoadConfig(), led, log),
		notify.NewHandler(notifyCfg, sesClient, snsClient, log),
		log,
	)
	contactWF := workflow.NewContactPreference(runner, contactCfg.Policy, contact.NewHandler(contactCfg, led, log), log)

	api := httpapi.NewServer(approval, contactWF, led, reg, obs, log)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/", http.DefaultServeMux)
	mux.Handle("/", api.Handler())

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      mux,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("server shutdown failed", zap.Error(err))
	}
	zapLog.Info("Server stopped")
}
