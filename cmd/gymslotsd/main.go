package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/gym-slots/internal/app"
	"github.com/joseph-ayodele/gym-slots/internal/async"
	"github.com/joseph-ayodele/gym-slots/internal/common"
	"github.com/joseph-ayodele/gym-slots/internal/events"
	"github.com/joseph-ayodele/gym-slots/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbResult, err := app.InitDatabase(ctx, cfg, false, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbResult.Cleanup()

	publisher := events.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, logger)
	c := app.Wire(cfg, dbResult.DB, publisher, logger)
	if cfg.LLM.APIKey == "" && cfg.Pipeline.SlotExtractor == "ai" {
		logger.Warn("DEEPSEEK_API_KEY is not set; ingestions will fail with a configuration error")
	}
	logger.Info("pipeline ready", "extractor", c.Extractor, "parser_version", cfg.Pipeline.ParserVersion)

	rdb := server.NewRedisClient(ctx, cfg.Redis, logger)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}
	ingester := server.NewPurgingIngester(c.Processor, cfg.Cache, rdb, logger)

	queue := async.NewProcessorQueue(ingester, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
	)

	h := server.NewHandler(server.Deps{
		Ingester:      ingester,
		Queue:         queue,
		Exporter:      c.Exporter,
		Areas:         c.Areas,
		Sports:        c.Sports,
		Gyms:          c.Gyms,
		Sources:       c.Sources,
		Slots:         c.Slots,
		ParserVersion: cfg.Pipeline.ParserVersion,
	}, logger)
	e := server.NewRouter(h, logger, server.CacheMiddleware(cfg.Cache, rdb, logger))

	errCh := make(chan error, 2)
	if cfg.Server.HTTPAddr != "" {
		go func() {
			logger.Info("HTTP serving", "addr", cfg.Server.HTTPAddr)
			if err := e.Start(cfg.Server.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	grpcServer, hs := server.NewGRPCServer(ingester, logger)
	reflection.Register(grpcServer)
	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			logger.Error("listen failed", "addr", cfg.Server.GRPCAddr, "error", err)
			os.Exit(1)
		}
		go func() {
			logger.Info("gRPC serving", "addr", cfg.Server.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server failed", "error", err)
	}

	logger.Info("shutting down...")
	hs.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	grpcServer.GracefulStop()
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}
