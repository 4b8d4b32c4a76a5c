// Package worker persists the OMS event stream into the audit tables.
package worker

import (
	"context"
	"errors"
	"strings"
	"time"

	kafkawrapper "github.com/joripage/matching-engine/pkg/kafka_wrapper"
	"github.com/joripage/matching-engine/pkg/logging"
	"github.com/joripage/matching-engine/pkg/oms/model"
	"github.com/joripage/matching-engine/pkg/oms/repo"
	"github.com/joripage/matching-engine/pkg/oms/stream"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Payload is one message off the stream, whatever the broker.
type Payload struct {
	Kind string
	Data []byte
}

type Worker struct {
	orderEvent repo.IOrderEvent
	trade      repo.ITrade
	logger     *logging.Logger
}

func NewWorker(r repo.IRepo, logger *logging.Logger) *Worker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Worker{
		orderEvent: r.OrderEvent(),
		trade:      r.Trade(),
		logger:     logger.With(zap.String("component", "worker")),
	}
}

// HandleBatch stores a batch. Undecodable payloads are logged and skipped,
// a storage error fails the whole batch so it is redelivered.
func (w *Worker) HandleBatch(ctx context.Context, batch []Payload) error {
	var (
		events []*model.OrderEvent
		trades []*model.TradeEvent
	)
	for _, p := range batch {
		decoded, err := stream.Decode(p.Kind, p.Data)
		if err != nil {
			w.logger.Warn(ctx, "skip payload", zap.String("kind", p.Kind), zap.Error(err))
			continue
		}
		if decoded.Event != nil {
			events = append(events, decoded.Event)
		}
		if decoded.Trade != nil {
			trades = append(trades, decoded.Trade)
		}
	}

	if _, err := w.orderEvent.BulkCreate(ctx, events); err != nil {
		return err
	}
	if _, err := w.trade.BulkCreate(ctx, trades); err != nil {
		return err
	}

	w.logger.Debug(ctx, "batch stored", zap.Int("events", len(events)), zap.Int("trades", len(trades)))
	return nil
}

// StartNatsConsumer pulls from a durable JetStream consumer until ctx is done.
func (w *Worker) StartNatsConsumer(ctx context.Context, js nats.JetStreamContext, subject, durable string, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 100
	}
	cons, err := js.PullSubscribe(subject, durable)
	if err != nil {
		return err
	}
	defer cons.Unsubscribe() // nolint

	for {
		if ctx.Err() != nil {
			return nil
		}

		msgs, err := cons.Fetch(batchSize, nats.MaxWait(time.Second))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.logger.Warn(ctx, "nats fetch failed", zap.Error(err))
			time.Sleep(200 * time.Millisecond)
			continue
		}

		batch := make([]Payload, len(msgs))
		for i, msg := range msgs {
			batch[i] = natsPayload(msg)
		}

		if err := w.HandleBatch(ctx, batch); err != nil {
			w.logger.Error(ctx, "store batch failed", zap.Int("size", len(msgs)), zap.Error(err))
			for _, msg := range msgs {
				_ = msg.Nak()
			}
			continue
		}
		for _, msg := range msgs {
			_ = msg.Ack()
		}
	}
}

// StartKafkaConsumer runs the consumer group with HandleBatch as handler.
func (w *Worker) StartKafkaConsumer(ctx context.Context, cg *kafkawrapper.ConsumerGroup) error {
	return cg.Run(ctx, func(ctx context.Context, msgs []kafkawrapper.Message) error {
		batch := make([]Payload, len(msgs))
		for i, m := range msgs {
			batch[i] = Payload{Kind: m.Headers[stream.HeaderKind], Data: m.Value}
		}
		return w.HandleBatch(ctx, batch)
	})
}

// natsPayload falls back to the subject for messages without a kind header.
func natsPayload(msg *nats.Msg) Payload {
	kind := ""
	if msg.Header != nil {
		kind = msg.Header.Get(stream.HeaderKind)
	}
	if kind == "" {
		switch {
		case strings.HasSuffix(msg.Subject, ".events"):
			kind = model.KindOrderEvent
		case strings.HasSuffix(msg.Subject, ".trades"):
			kind = model.KindTrade
		}
	}
	return Payload{Kind: kind, Data: msg.Data}
}
