package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-bot/internal/api/http"
	"github.com/spec-kit/ticket-bot/internal/api/http/handlers"
	"github.com/spec-kit/ticket-bot/internal/auth"
	"github.com/spec-kit/ticket-bot/internal/config"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/observability"
	"github.com/spec-kit/ticket-bot/internal/persistence"
	"github.com/spec-kit/ticket-bot/internal/platform"
	"github.com/spec-kit/ticket-bot/internal/platform/bridge"
	"github.com/spec-kit/ticket-bot/internal/registry"
	"github.com/spec-kit/ticket-bot/internal/service"
	"github.com/spec-kit/ticket-bot/internal/stats"
	"github.com/spec-kit/ticket-bot/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	guild := newGuild(cfg, logger)

	var redis *persistence.Redis
	reservations := registry.NewMemoryReservations()
	if cfg.Registry.Backend == "redis" {
		redis = persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		reservations = registry.NewRedisReservations(redis.Client, cfg.Registry.ReservationKeyPrefix)
	}
	reg := registry.New(reservations, cfg.Registry.ReservationTTL())

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	statsStore := stats.NewStore()
	promRegistry.MustRegister(stats.NewCollector(statsStore))
	metrics := observability.NewMetrics(promRegistry)

	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartAlertWorker(service.NewAlertService(dispatcher, guild, logger, cfg.Guild))

	scheduler := worker.NewScheduler(ctx, logger)

	catalog := cfg.Catalog.PriorityCatalog()
	ticketService := service.NewTicketService(service.TicketDependencies{
		Guild:      guild,
		Registry:   reg,
		Stats:      statsStore,
		Catalog:    catalog,
		Scheduler:  scheduler,
		Dispatcher: dispatcher,
		Logger:     logger.Named("tickets"),
		GuildCfg:   cfg.Guild,
		TicketCfg:  cfg.Tickets,
	})
	applicationService := service.NewApplicationService(service.ApplicationDependencies{
		Guild:      guild,
		Registry:   reg,
		Dispatcher: dispatcher,
		Logger:     logger.Named("applications"),
		GuildCfg:   cfg.Guild,
		AppCfg:     cfg.Applications,
	})

	monitor := worker.NewInactivityMonitor(worker.InactivityDependencies{
		Guild:      guild,
		Registry:   reg,
		Closer:     ticketService,
		Dispatcher: dispatcher,
		Logger:     logger.Named("inactivity"),
		Config: worker.InactivityConfig{
			Interval:  cfg.Inactivity.SweepInterval(),
			Threshold: cfg.Inactivity.Threshold(),
			Grace:     cfg.Inactivity.Grace(),
			AutoClose: cfg.Inactivity.AutoClose,
		},
	})
	monitorCtx, stopMonitor := context.WithCancel(ctx)
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		monitor.Run(monitorCtx)
	}()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	readiness := map[string]handlers.Pinger{}
	if redis != nil {
		readiness["redis"] = redis
	}
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, readiness),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Applications:   handlers.NewApplicationsHandler(applicationService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, logger.Named("auth")),
		Metrics:        adaptor.HTTPHandler(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})),
	})

	go func() {
		logger.Info("intent api listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("platform", string(cfg.Platform.Mode)),
			zap.String("registry", cfg.Registry.Backend))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	stopMonitor()
	<-monitorDone
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	scheduler.Shutdown()
	logger.Info("shutdown complete")
}

func newGuild(cfg *config.Config, logger *zap.Logger) platform.Guild {
	if cfg.Platform.Mode == config.PlatformBridge {
		return bridge.NewClient(bridge.Config{
			BaseURL: cfg.Platform.BridgeURL,
			Token:   cfg.Platform.BridgeToken,
			GuildID: cfg.Guild.ID,
			Timeout: cfg.Platform.Timeout(),
		}, logger.Named("bridge"))
	}
	logger.Warn("running against the in-memory sandbox guild")
	return newSandboxGuild(&cfg.Guild)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
