// Emissary scheduler — сервис планировщика публикаций.
//
// Один бинарь несёт весь цикл: cron-расписание проходов, sweep
// просроченной работы, выборку due-публикаций, захват и доставку
// через delivery backend, плюс admin HTTP (healthz, metrics, запуск
// прохода по требованию).
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Emissary/internal/api"
	"github.com/shaiso/Emissary/internal/config"
	"github.com/shaiso/Emissary/internal/delivery"
	"github.com/shaiso/Emissary/internal/mq"
	"github.com/shaiso/Emissary/internal/repo"
	"github.com/shaiso/Emissary/internal/scheduler"
	"github.com/shaiso/Emissary/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting emissary-scheduler")

	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Подключаемся к базе данных
	pool, err := repo.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	if err := repo.Migrate(ctx, pool); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Репозитории
	publicationRepo := repo.NewPublicationRepo(pool)
	postRepo := repo.NewPostRepo(pool)
	lockRepo := repo.NewLockRepo(pool)

	// RabbitMQ опционален: без брокера сервис работает,
	// уведомления о просрочке просто не отправляются.
	var hooks []scheduler.ExpiryHook
	var notifier *mq.Notifier
	if cfg.AMQP.URL != "" {
		conn, err := mq.NewConnection(cfg.AMQP.URL, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		if err := mq.SetupTopology(ctx, conn); err != nil {
			logger.Error("failed to setup rabbitmq topology", "error", err)
			os.Exit(1)
		}

		notifier = mq.NewNotifier(conn, logger)
		hooks = append(hooks, notifier)
		logger.Info("connected to rabbitmq")
	}

	backend := delivery.NewHTTPBackend(
		cfg.Delivery.URL,
		time.Duration(cfg.Delivery.TimeoutSec)*time.Second,
	)

	sched := scheduler.New(scheduler.Config{
		PublicationStore: publicationRepo,
		PostStore:        postRepo,
		Locker:           lockRepo,
		Backend:          backend,
		Hooks:            hooks,
		Lookback:         cfg.Scheduler.Lookback(),
		LockTTL:          cfg.Scheduler.LockTTL(),
		Logger:           logger,
	})

	// Сводка каждого выполненного прохода уходит в очередь событий.
	var runner scheduler.PassRunner = sched
	if notifier != nil {
		runner = &eventedRunner{inner: sched, notifier: notifier, logger: logger}
	}

	// Cron-цикл проходов
	cronRunner, err := scheduler.NewRunner(runner, cfg.Scheduler.PassCron, logger)
	if err != nil {
		logger.Error("invalid pass cron expression", "cron", cfg.Scheduler.PassCron, "error", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("pass loop started", "cron", cfg.Scheduler.PassCron)
		if err := cronRunner.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("pass loop stopped", "error", err)
		}
	}()

	// Admin HTTP
	handler := api.NewHandler(api.Config{
		Runner:          runner,
		PublicationRepo: publicationRepo,
		PostRepo:        postRepo,
		Logger:          logger,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:    cfg.HTTP.Addr(),
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", cfg.HTTP.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
