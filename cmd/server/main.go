package main

import (
	"context"
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joripage/matching-engine/config"
	redis_wrapper "github.com/joripage/matching-engine/pkg/infra/redis"
	"github.com/joripage/matching-engine/pkg/httpapi"
	"github.com/joripage/matching-engine/pkg/logging"
	"github.com/joripage/matching-engine/pkg/oms"
	fixgateway "github.com/joripage/matching-engine/pkg/oms/fix"
	"github.com/joripage/matching-engine/pkg/oms/stream"
	"github.com/joripage/matching-engine/pkg/orderbook"
	"go.uber.org/zap"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.Log).With(zap.String("service", cfg.ServiceName))
	defer logger.Sync() // nolint
	zap.ReplaceGlobals(logger.Zap())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.PprofAddr != "" {
		go func() {
			if err := http.ListenAndServe(cfg.PprofAddr, nil); err != nil {
				logger.Warn(ctx, "pprof server stopped", zap.Error(err))
			}
		}()
	}

	engine := orderbook.NewEngine(nil)
	omsInstance, err := oms.NewOMS(engine, &cfg.Oms, logger)
	if err != nil {
		logger.Fatal(ctx, "init oms failed", zap.Error(err))
	}

	if err := addPublishers(ctx, cfg, omsInstance, logger); err != nil {
		logger.Fatal(ctx, "init publishers failed", zap.Error(err))
	}

	if cfg.Fix.Enabled {
		fixGateway := fixgateway.NewFixGateway(&cfg.Fix, logger)
		fixGateway.AddOmsInstance(omsInstance)
		omsInstance.AddOrderGateway(fixGateway)
	}

	if err := omsInstance.Start(ctx); err != nil {
		logger.Fatal(ctx, "start oms failed", zap.Error(err))
	}

	server := httpapi.NewServer(cfg.HTTP, omsInstance, logger)
	server.Start(ctx)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	logger.Info(ctx, "shutting down", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "http shutdown", zap.Error(err))
	}

	// Gateways and publishers stop on ctx.
	cancel()
	omsInstance.Stop()

	stats := omsInstance.Stats()
	logger.Info(ctx, "exited cleanly",
		zap.Int64("orders", stats.Orders),
		zap.Int64("trades", stats.Trades),
		zap.Int64("rejects", stats.Rejects),
	)
}

func addPublishers(ctx context.Context, cfg *config.AppConfig, omsInstance *oms.OMS, logger *logging.Logger) error {
	if cfg.Publishers.Nats.Enabled {
		publisher, err := stream.NewNatsPublisher(cfg.Publishers.Nats, logger)
		if err != nil {
			return err
		}
		omsInstance.AddOrderGateway(publisher)
	}

	if cfg.Publishers.Kafka.Enabled {
		omsInstance.AddOrderGateway(stream.NewKafkaPublisher(cfg.Publishers.Kafka, logger))
	}

	if cfg.Publishers.Redis.Enabled {
		client, err := redis_wrapper.InitRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		go func() {
			<-ctx.Done()
			_ = client.Close()
		}()
		omsInstance.AddOrderGateway(stream.NewRedisPublisher(cfg.Publishers.Redis, client, omsInstance, logger))
	}
	return nil
}
