package stream

import (
	"context"
	"encoding/json"

	kafkawrapper "github.com/joripage/matching-engine/pkg/kafka_wrapper"
	"github.com/joripage/matching-engine/pkg/logging"
	"github.com/joripage/matching-engine/pkg/oms/model"
	"go.uber.org/zap"
)

type KafkaConfig struct {
	Enabled  bool                        `yaml:"enabled"`
	Topic    string                      `yaml:"topic"`
	Producer kafkawrapper.ProducerConfig `yaml:"producer"`
}

const defaultKafkaTopic = "orders"

type kafkaProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value []byte, headers map[string]string) error
	Close(ctx context.Context) error
}

// KafkaPublisher puts order events and trades on one topic keyed by symbol,
// so a partition carries a symbol's reports in execution order.
type KafkaPublisher struct {
	topic    string
	producer kafkaProducer
	logger   *logging.Logger
}

func NewKafkaPublisher(cfg KafkaConfig, logger *logging.Logger) *KafkaPublisher {
	return newKafkaPublisher(cfg.Topic, kafkawrapper.NewProducer(cfg.Producer), logger)
}

func newKafkaPublisher(topic string, producer kafkaProducer, logger *logging.Logger) *KafkaPublisher {
	if topic == "" {
		topic = defaultKafkaTopic
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &KafkaPublisher{
		topic:    topic,
		producer: producer,
		logger:   logger.With(zap.String("component", "kafka_publisher"), zap.String("topic", topic)),
	}
}

func (p *KafkaPublisher) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		if err := p.producer.Close(context.Background()); err != nil {
			p.logger.Warn(context.Background(), "close kafka producer failed", zap.Error(err))
		}
	}()
	return nil
}

func (p *KafkaPublisher) OnOrderReport(ctx context.Context, ev model.OrderEvent) {
	p.publish(ctx, ev.Symbol, model.KindOrderEvent, &ev)
}

func (p *KafkaPublisher) OnTrade(ctx context.Context, trade model.TradeEvent) {
	p.publish(ctx, trade.Symbol, model.KindTrade, &trade)
}

func (p *KafkaPublisher) publish(ctx context.Context, symbol, kind string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		p.logger.Error(ctx, "encode kafka payload failed", zap.String("kind", kind), zap.Error(err))
		return
	}
	err = p.producer.Publish(ctx, p.topic, kafkawrapper.HashKey(symbol), data, map[string]string{HeaderKind: kind})
	if err != nil {
		p.logger.Error(ctx, "kafka publish failed", zap.String("kind", kind), zap.String("symbol", symbol), zap.Error(err))
	}
}
