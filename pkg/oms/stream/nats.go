package stream

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/joripage/matching-engine/pkg/logging"
	"github.com/joripage/matching-engine/pkg/oms/model"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type NatsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	URL        string `yaml:"url"`
	Stream     string `yaml:"stream"`
	MaxPending int    `yaml:"max_pending"`
}

func (c *NatsConfig) setDefaults() {
	if c.URL == "" {
		c.URL = nats.DefaultURL
	}
	if c.Stream == "" {
		c.Stream = DefaultStream
	}
	if c.MaxPending <= 0 {
		c.MaxPending = 4096
	}
}

// NatsPublisher writes order events to <stream>.events and trades to
// <stream>.trades on JetStream.
type NatsPublisher struct {
	cfg    NatsConfig
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *logging.Logger
}

func NewNatsPublisher(cfg NatsConfig, logger *logging.Logger) (*NatsPublisher, error) {
	cfg.setDefaults()
	if logger == nil {
		logger = logging.NewNop()
	}

	nc, err := nats.Connect(cfg.URL, nats.Name("matching-engine"))
	if err != nil {
		return nil, err
	}
	js, err := nc.JetStream(nats.PublishAsyncMaxPending(cfg.MaxPending))
	if err != nil {
		nc.Close()
		return nil, err
	}
	if err := EnsureStream(js, cfg.Stream); err != nil {
		nc.Close()
		return nil, err
	}

	return &NatsPublisher{
		cfg:    cfg,
		nc:     nc,
		js:     js,
		logger: logger.With(zap.String("component", "nats_publisher")),
	}, nil
}

// EnsureStream creates stream with subjects "<stream>.*" unless it exists.
func EnsureStream(js nats.JetStreamContext, stream string) error {
	_, err := js.StreamInfo(stream)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}
	_, err = js.AddStream(&nats.StreamConfig{
		Name:     stream,
		Subjects: []string{stream + ".*"},
	})
	return err
}

// Start flushes pending publishes and drains the connection once ctx is done.
func (p *NatsPublisher) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		p.Close()
	}()
	return nil
}

func (p *NatsPublisher) Close() {
	select {
	case <-p.js.PublishAsyncComplete():
	case <-time.After(5 * time.Second):
		p.logger.Warn(context.Background(), "nats publish backlog not flushed", zap.Int("pending", p.js.PublishAsyncPending()))
	}
	_ = p.nc.Drain()
}

func (p *NatsPublisher) OnOrderReport(ctx context.Context, ev model.OrderEvent) {
	msg, err := orderEventMsg(p.cfg.Stream, &ev)
	if err != nil {
		p.logger.Error(ctx, "encode order event failed", zap.String("order_id", ev.OrderID), zap.Error(err))
		return
	}
	p.publish(ctx, msg, ev.EventID)
}

func (p *NatsPublisher) OnTrade(ctx context.Context, trade model.TradeEvent) {
	msg, err := tradeMsg(p.cfg.Stream, &trade)
	if err != nil {
		p.logger.Error(ctx, "encode trade failed", zap.String("trade_id", trade.TradeID), zap.Error(err))
		return
	}
	p.publish(ctx, msg, trade.TradeID)
}

func (p *NatsPublisher) publish(ctx context.Context, msg *nats.Msg, msgID string) {
	// MsgId lets JetStream drop the duplicate if a publish is retried.
	if _, err := p.js.PublishMsgAsync(msg, nats.MsgId(msgID)); err != nil {
		p.logger.Error(ctx, "nats publish failed", zap.String("subject", msg.Subject), zap.Error(err))
	}
}

func orderEventMsg(stream string, ev *model.OrderEvent) (*nats.Msg, error) {
	return newMsg(EventsSubject(stream), model.KindOrderEvent, ev)
}

func tradeMsg(stream string, trade *model.TradeEvent) (*nats.Msg, error) {
	return newMsg(TradesSubject(stream), model.KindTrade, trade)
}

func newMsg(subject, kind string, v any) (*nats.Msg, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	msg := nats.NewMsg(subject)
	msg.Header.Set(HeaderKind, kind)
	msg.Data = data
	return msg, nil
}
