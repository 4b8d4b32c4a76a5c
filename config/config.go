package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/joripage/matching-engine/pkg/httpapi"
	postgres_wrapper "github.com/joripage/matching-engine/pkg/infra/postgres"
	redis_wrapper "github.com/joripage/matching-engine/pkg/infra/redis"
	kafkawrapper "github.com/joripage/matching-engine/pkg/kafka_wrapper"
	"github.com/joripage/matching-engine/pkg/logging"
	"github.com/joripage/matching-engine/pkg/oms"
	fixgateway "github.com/joripage/matching-engine/pkg/oms/fix"
	"github.com/joripage/matching-engine/pkg/oms/stream"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	ServiceName string                      `yaml:"service_name"`
	Log         logging.Config              `yaml:"log"`
	HTTP        httpapi.Config              `yaml:"http"`
	PprofAddr   string                      `yaml:"pprof_addr"`
	Fix         fixgateway.FixGatewayConfig `yaml:"fix"`
	Oms         oms.Config                  `yaml:"oms"`

	Redis      *redis_wrapper.RedisConfig `yaml:"redis"`
	Publishers PublishersConfig           `yaml:"publishers"`
	Worker     WorkerConfig               `yaml:"worker"`

	OmsDB *postgres_wrapper.PostgresConfig `yaml:"oms_db"`
}

type PublishersConfig struct {
	Nats  stream.NatsConfig  `yaml:"nats"`
	Kafka stream.KafkaConfig `yaml:"kafka"`
	Redis stream.RedisConfig `yaml:"redis"`
}

type WorkerConfig struct {
	// Source is "nats" or "kafka".
	Source    string                      `yaml:"source"`
	Durable   string                      `yaml:"durable"`
	BatchSize int                         `yaml:"batch_size"`
	Kafka     kafkawrapper.ConsumerConfig `yaml:"kafka"`
}

const (
	SourceNats  = "nats"
	SourceKafka = "kafka"
)

var ErrNoConfigFile = errors.New("no config file given and CONFIG_FILE is empty")

// Load load config from file and environment variables.
//
// A .env file in the working directory, if any, is loaded first so its
// variables can be referenced as ${VAR} in the YAML.
func Load(filePath string) (*AppConfig, error) {
	_ = godotenv.Load(".env")

	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}
	if len(filePath) == 0 {
		return nil, ErrNoConfigFile
	}

	sugar := zap.S().With("func", "config.Load", "filePath", filePath)
	sugar.Debug("Load config...")

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("Failed to load config file")
		return nil, err
	}

	cfg, err := Parse(configBytes)
	if err != nil {
		sugar.Error("Failed to parse config file")
		return nil, err
	}

	zap.S().Debugf("config: %+v", cfg)
	return cfg, nil
}

// Parse expands ${VAR} references in data, decodes it and fills defaults.
func Parse(data []byte) (*AppConfig, error) {
	data = []byte(os.ExpandEnv(string(data)))

	cfg := &AppConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) setDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "matching-engine"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Fix.SettingsFile == "" {
		c.Fix.SettingsFile = "./config/fixserver.cfg"
	}
	if c.Worker.Source == "" {
		c.Worker.Source = SourceNats
	}
	if c.Worker.Durable == "" {
		c.Worker.Durable = "order_worker"
	}
	if c.Worker.BatchSize <= 0 {
		c.Worker.BatchSize = 100
	}
}

func (c *AppConfig) validate() error {
	switch c.Worker.Source {
	case SourceNats, SourceKafka:
	default:
		return fmt.Errorf("worker.source must be %q or %q, got %q", SourceNats, SourceKafka, c.Worker.Source)
	}
	if c.Publishers.Redis.Enabled && c.Redis == nil {
		return errors.New("publishers.redis is enabled but the redis section is missing")
	}
	return nil
}
