package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/driftmirror/dlob-mirror/internal/app/mirror"
	"github.com/driftmirror/dlob-mirror/internal/config"
	dlobv1 "github.com/driftmirror/dlob-mirror/internal/domain/dlob/v1"
	"github.com/driftmirror/dlob-mirror/internal/usecase/ingestion"
	"github.com/driftmirror/dlob-mirror/internal/usecase/pricefeed"
	"github.com/driftmirror/dlob-mirror/pkg/grpclib/health"
	"github.com/driftmirror/dlob-mirror/pkg/httplib/healthcheck"
	"github.com/driftmirror/dlob-mirror/pkg/logger"
	"github.com/driftmirror/dlob-mirror/pkg/redis"
	"google.golang.org/grpc"
)

var cfg *config.Config
var log *logger.Logger

func init() {
	cfg = &config.Config{}
	config.MustLoad(cfg)

	l, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}
	log = l
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	redisConfig := cfg.Redis
	rclient := redis.NewClient(log, &redisConfig)
	if err := rclient.Connect(ctx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "connect_redis"})
		return
	}

	feedCache := pricefeed.NewCache(rclient, cfg.Redis.PrefixKey, log)
	reader := ingestion.NewReader(cfg.Kafka, log)
	dlob := dlobv1.NewDLOB(log)

	eng := mirror.NewEngine(dlob, reader, feedCache, log, cfg.MarketRefs(), mirror.Options{
		RestingLimitPollInterval: cfg.RestingLimitPollInterval,
		PriceFeedRefreshInterval: cfg.PriceFeedRefreshInterval,
		MinPerpAuctionDuration:   cfg.MinPerpAuctionDuration,
	})

	if err := eng.Start(ctx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "start_engine"})
		return
	}

	grpcHealth := health.NewServer()
	grpcHealth.InitService("dlob_mirror")
	grpcServer := grpc.NewServer()
	grpcHealth.Register(grpcServer)

	grpcListener, err := net.Listen("tcp", cfg.GRPCHealthAddr)
	if err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "listen_grpc_health"})
		return
	}
	go func() {
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Error(err, logger.Field{Key: "action", Value: "serve_grpc_health"})
		}
	}()

	httpServer := &http.Server{
		Addr:    cfg.HealthAddr,
		Handler: healthcheck.HealthCheck{}.Handler(http.NotFoundHandler()),
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, logger.Field{Key: "action", Value: "serve_healthcheck"})
		}
	}()

	log.Info("dlob mirror started successfully", logger.Field{Key: "markets", Value: cfg.Markets})

	sig := <-sigChan
	log.Info("received shutdown signal", logger.Field{Key: "signal", Value: sig.String()})

	grpcHealth.Shutdown()
	grpcServer.GracefulStop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := eng.Stop(shutdownCtx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "stop_engine"})
	}

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "shutdown_healthcheck"})
	}

	if err := rclient.Disconnect(shutdownCtx); err != nil {
		log.Error(err, logger.Field{Key: "action", Value: "disconnect_redis"})
	}

	log.Info("dlob mirror shutdown complete")
}
