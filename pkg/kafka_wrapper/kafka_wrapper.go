// Package kafkawrapper publishes JSON messages to Kafka and consumes a topic
// with a pool of workers that receive messages in batches.
package kafkawrapper

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var ErrNotInitialized = errors.New("kafka client not initialized")

type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Time      time.Time
	Headers   map[string]string
}

type ProducerConfig struct {
	Brokers        []string `yaml:"brokers"`
	BatchSize      int      `yaml:"batch_size"`
	BatchBytes     int64    `yaml:"batch_bytes"`
	BatchTimeoutMs int      `yaml:"batch_timeout_ms"`
	// RequireAcks waits for the leader; without it writes are fire-and-forget.
	RequireAcks bool `yaml:"require_acks"`
}

type Producer struct {
	w *kafka.Writer
}

func NewProducer(cfg ProducerConfig) *Producer {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchBytes == 0 {
		cfg.BatchBytes = 1 << 20
	}
	if cfg.BatchTimeoutMs == 0 {
		cfg.BatchTimeoutMs = 50
	}
	acks := kafka.RequireNone
	if cfg.RequireAcks {
		acks = kafka.RequireOne
	}

	wr := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchBytes:             cfg.BatchBytes,
		BatchTimeout:           time.Duration(cfg.BatchTimeoutMs) * time.Millisecond,
		AllowAutoTopicCreation: true,
		RequiredAcks:           acks,
		Async:                  true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				zap.S().Warnf("kafka write of %d messages failed: %v", len(messages), err)
			}
		},
	}
	return &Producer{w: wr}
}

func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value []byte, headers map[string]string) error {
	if p == nil || p.w == nil {
		return ErrNotInitialized
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Headers: mapToHeaders(headers),
		Time:    time.Now(),
	})
}

func (p *Producer) Close(ctx context.Context) error {
	if p == nil || p.w == nil {
		return nil
	}
	return p.w.Close()
}

type ConsumerConfig struct {
	Brokers      []string `yaml:"brokers"`
	GroupID      string   `yaml:"group_id"`
	Topic        string   `yaml:"topic"`
	WorkerCount  int      `yaml:"worker_count"`
	MaxRetries   int      `yaml:"max_retries"`
	BackoffMinMs int      `yaml:"backoff_min_ms"`
	BackoffMaxMs int      `yaml:"backoff_max_ms"`
	DLQTopic     string   `yaml:"dlq_topic"`
	// BatchSize caps one handler call; BatchTimeoutMs flushes a partial batch.
	BatchSize      int `yaml:"batch_size"`
	BatchTimeoutMs int `yaml:"batch_timeout_ms"`
}

func (cfg *ConsumerConfig) setDefaults() {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BackoffMinMs <= 0 {
		cfg.BackoffMinMs = 100
	}
	if cfg.BackoffMaxMs <= 0 {
		cfg.BackoffMaxMs = 10_000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.BatchTimeoutMs <= 0 {
		cfg.BatchTimeoutMs = 200
	}
}

type ConsumerGroup struct {
	r          *kafka.Reader
	cfg        ConsumerConfig
	prodForDLQ *Producer
}

func NewConsumerGroup(cfg ConsumerConfig) (*ConsumerGroup, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("kafka consumer: brokers and topic are required")
	}
	cfg.setDefaults()

	rd := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		StartOffset: kafka.FirstOffset,
		MaxWait:     500 * time.Millisecond,
		MinBytes:    1,
		MaxBytes:    10 << 20,
	})

	var prod *Producer
	if cfg.DLQTopic != "" {
		prod = NewProducer(ProducerConfig{Brokers: cfg.Brokers, RequireAcks: true})
	}

	return &ConsumerGroup{r: rd, cfg: cfg, prodForDLQ: prod}, nil
}

func (cg *ConsumerGroup) Close() error {
	if cg == nil {
		return nil
	}
	if cg.prodForDLQ != nil {
		_ = cg.prodForDLQ.Close(context.Background())
	}
	if cg.r != nil {
		return cg.r.Close()
	}
	return nil
}

// Run hands batches to handler until ctx is done. A batch is committed once
// handler succeeds, or once retries are exhausted and it went to the DLQ.
func (cg *ConsumerGroup) Run(ctx context.Context, handler func(context.Context, []Message) error) error {
	if cg == nil || cg.r == nil {
		return ErrNotInitialized
	}

	batches := make(chan []kafka.Message, cg.cfg.WorkerCount)
	go cg.fetchLoop(ctx, batches)

	done := make(chan struct{}, cg.cfg.WorkerCount)
	for i := 0; i < cg.cfg.WorkerCount; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for ms := range batches {
				if !cg.handleBatch(ctx, ms, handler) {
					return
				}
			}
		}()
	}

	for exited := 0; exited < cg.cfg.WorkerCount; exited++ {
		<-done
	}
	return ctx.Err()
}

func (cg *ConsumerGroup) fetchLoop(ctx context.Context, batches chan<- []kafka.Message) {
	defer close(batches)

	timeout := time.Duration(cg.cfg.BatchTimeoutMs) * time.Millisecond
	var buf []kafka.Message
	deadline := time.Now().Add(timeout)

	flush := func() bool {
		if len(buf) == 0 {
			return true
		}
		select {
		case batches <- buf:
			buf = nil
			deadline = time.Now().Add(timeout)
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		fetchCtx, cancel := context.WithDeadline(ctx, deadline)
		m, err := cg.r.FetchMessage(fetchCtx)
		cancel()

		switch {
		case err == nil:
			buf = append(buf, m)
			if len(buf) >= cg.cfg.BatchSize && !flush() {
				return
			}
		case ctx.Err() != nil:
			return
		case errors.Is(err, context.DeadlineExceeded):
			if !flush() {
				return
			}
			deadline = time.Now().Add(timeout)
		default:
			zap.S().Warnf("kafka fetch from %s failed: %v", cg.cfg.Topic, err)
			time.Sleep(200 * time.Millisecond)
		}
	}
}

// handleBatch reports false when ctx ended while backing off.
func (cg *ConsumerGroup) handleBatch(ctx context.Context, ms []kafka.Message, handler func(context.Context, []Message) error) bool {
	wrapped := make([]Message, len(ms))
	for i, m := range ms {
		wrapped[i] = wrapMessage(m)
	}

	minBackoff := time.Duration(cg.cfg.BackoffMinMs) * time.Millisecond
	maxBackoff := time.Duration(cg.cfg.BackoffMaxMs) * time.Millisecond

	for attempt := 1; ; attempt++ {
		err := handler(ctx, wrapped)
		if err == nil {
			break
		}
		if attempt > cg.cfg.MaxRetries {
			zap.S().Errorf("kafka batch of %d dropped after %d attempts: %v", len(ms), attempt, err)
			if cg.prodForDLQ != nil {
				for _, m := range ms {
					_ = cg.prodForDLQ.Publish(ctx, cg.cfg.DLQTopic, m.Key, m.Value, headersToMap(m.Headers))
				}
			}
			break
		}
		select {
		case <-time.After(backoffDuration(minBackoff, maxBackoff, attempt)):
		case <-ctx.Done():
			return false
		}
	}

	if err := cg.r.CommitMessages(ctx, ms...); err != nil {
		zap.S().Warnf("kafka commit failed: %v", err)
	}
	return true
}

func wrapMessage(m kafka.Message) Message {
	return Message{
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Key:       m.Key,
		Value:     m.Value,
		Time:      m.Time,
		Headers:   headersToMap(m.Headers),
	}
}

func mapToHeaders(headers map[string]string) []kafka.Header {
	var kh []kafka.Header
	for k, v := range headers {
		kh = append(kh, kafka.Header{Key: k, Value: []byte(v)})
	}
	return kh
}

func headersToMap(hs []kafka.Header) map[string]string {
	out := make(map[string]string, len(hs))
	for _, h := range hs {
		out[h.Key] = string(h.Value)
	}
	return out
}

func backoffDuration(min, max time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	pow := math.Pow(2, float64(attempt-1))
	d := time.Duration(float64(min) * pow)
	if d > max {
		d = max
	}
	if d > 0 {
		d = time.Duration(rand.Int63n(int64(d)))
	}
	return d
}

// HashKey is a stable 8 byte key for s, for spreading keys over partitions.
func HashKey(s string) []byte {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	sum := h.Sum64()
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(sum >> (56 - 8*i))
	}
	return b
}
