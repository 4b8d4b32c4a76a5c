package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joripage/matching-engine/config"
	postgres_wrapper "github.com/joripage/matching-engine/pkg/infra/postgres"
	kafkawrapper "github.com/joripage/matching-engine/pkg/kafka_wrapper"
	"github.com/joripage/matching-engine/pkg/logging"
	"github.com/joripage/matching-engine/pkg/oms/repo"
	"github.com/joripage/matching-engine/pkg/oms/stream"
	"github.com/joripage/matching-engine/pkg/oms/worker"
	"github.com/nats-io/nats.go"
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

	logger := logging.New(cfg.Log).With(zap.String("service", cfg.ServiceName+"-worker"))
	defer logger.Sync() // nolint
	zap.ReplaceGlobals(logger.Zap())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.OmsDB == nil {
		logger.Fatal(ctx, "oms_db section is required")
	}
	db, err := postgres_wrapper.InitPostgresWithBackoff(cfg.OmsDB)
	if err != nil {
		logger.Fatal(ctx, "init db failed", zap.Error(err))
	}

	w := worker.NewWorker(repo.NewRepo(db), logger)

	switch cfg.Worker.Source {
	case config.SourceKafka:
		err = runKafka(ctx, cfg, w)
	default:
		err = runNats(ctx, cfg, w)
	}
	if err != nil && ctx.Err() == nil {
		logger.Fatal(ctx, "worker stopped", zap.Error(err))
	}
	logger.Info(ctx, "worker exited")
}

func runNats(ctx context.Context, cfg *config.AppConfig, w *worker.Worker) error {
	natsCfg := cfg.Publishers.Nats
	if natsCfg.URL == "" {
		natsCfg.URL = nats.DefaultURL
	}
	if natsCfg.Stream == "" {
		natsCfg.Stream = stream.DefaultStream
	}

	nc, err := nats.Connect(natsCfg.URL, nats.Name("matching-engine-worker"))
	if err != nil {
		return err
	}
	defer nc.Drain() // nolint

	js, err := nc.JetStream()
	if err != nil {
		return err
	}
	if err := stream.EnsureStream(js, natsCfg.Stream); err != nil {
		return err
	}

	return w.StartNatsConsumer(ctx, js, natsCfg.Stream+".*", cfg.Worker.Durable, cfg.Worker.BatchSize)
}

func runKafka(ctx context.Context, cfg *config.AppConfig, w *worker.Worker) error {
	consumerCfg := cfg.Worker.Kafka
	if consumerCfg.Topic == "" {
		consumerCfg.Topic = cfg.Publishers.Kafka.Topic
	}
	if len(consumerCfg.Brokers) == 0 {
		consumerCfg.Brokers = cfg.Publishers.Kafka.Producer.Brokers
	}
	if consumerCfg.GroupID == "" {
		consumerCfg.GroupID = cfg.Worker.Durable
	}
	if consumerCfg.BatchSize <= 0 {
		consumerCfg.BatchSize = cfg.Worker.BatchSize
	}

	cg, err := kafkawrapper.NewConsumerGroup(consumerCfg)
	if err != nil {
		return err
	}
	defer cg.Close() // nolint

	return w.StartKafkaConsumer(ctx, cg)
}
