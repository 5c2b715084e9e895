package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/aparate/handover/internal/api/http"
	"github.com/aparate/handover/internal/api/http/handlers"
	"github.com/aparate/handover/internal/chat"
	"github.com/aparate/handover/internal/config"
	"github.com/aparate/handover/internal/coordinator"
	"github.com/aparate/handover/internal/dialog"
	"github.com/aparate/handover/internal/events"
	"github.com/aparate/handover/internal/observability"
	"github.com/aparate/handover/internal/peer"
	"github.com/aparate/handover/internal/persistence"
	"github.com/aparate/handover/internal/report"
	"github.com/aparate/handover/internal/service"
	"github.com/aparate/handover/internal/worker"
)

func main() {
	cfg, err := config.Load(config.RoleTABot)
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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.PoolHandle() != nil {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var states chat.StateStore
	if redis.Client != nil {
		states = chat.NewRedisStateStore(redis.Client)
	} else {
		states = chat.NewMemoryStateStore()
	}

	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notifications)

	sinks := []report.Sink{report.NewFileStore(cfg.Reports.Dir)}
	if pg.PoolHandle() != nil {
		sinks = append(sinks, report.NewPGArchive(pg.PoolHandle()))
	}
	reports := report.NewGenerator(dispatcher, logger, sinks...)

	tokens := chat.NewTokenCodec(cfg.Chat.ReplyTokenSecret)
	connector := chat.NewHTTPConnector(cfg.Chat.DeliveryURL, cfg.App.RequestTimeout())
	peers := peer.NewClient(cfg.Peer.BaseURL, cfg.Peer.Timeout())

	coord := coordinator.New(connector, states, peers, dispatcher, logger)
	taDialog := dialog.NewTADialog(coord, connector, states, reports, logger)

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		TABot:  handlers.NewTABotHandler(taDialog, coord, tokens, logger),
	})

	go func() {
		logger.Info("TA bot listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
