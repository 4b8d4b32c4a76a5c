package kafkawrapper

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	kafka "github.com/segmentio/kafka-go"
)

func TestBackoffDurationIsCapped(t *testing.T) {
	min, max := 10*time.Millisecond, 80*time.Millisecond
	for attempt := 0; attempt < 12; attempt++ {
		d := backoffDuration(min, max, attempt)
		if d < 0 || d > max {
			t.Fatalf("attempt %d: backoff %v outside [0, %v]", attempt, d, max)
		}
	}
}

func TestHeadersRoundTrip(t *testing.T) {
	in := map[string]string{"type": "trade", "source": "engine"}
	out := headersToMap(mapToHeaders(in))
	if len(out) != len(in) {
		t.Fatalf("got %d headers, want %d", len(out), len(in))
	}
	for k, v := range in {
		if out[k] != v {
			t.Errorf("header %q = %q, want %q", k, out[k], v)
		}
	}
}

func TestWrapMessage(t *testing.T) {
	m := kafka.Message{
		Topic:     "orders",
		Partition: 3,
		Offset:    42,
		Key:       []byte("BTC"),
		Value:     []byte(`{}`),
		Headers:   []kafka.Header{{Key: "type", Value: []byte("order_event")}},
	}
	w := wrapMessage(m)
	if w.Topic != "orders" || w.Partition != 3 || w.Offset != 42 {
		t.Fatalf("unexpected position %+v", w)
	}
	if w.Headers["type"] != "order_event" {
		t.Errorf("header type = %q", w.Headers["type"])
	}
}

func TestHashKeyIsStable(t *testing.T) {
	a, b := HashKey("BTC"), HashKey("BTC")
	if !bytes.Equal(a, b) {
		t.Fatalf("HashKey not stable: %x vs %x", a, b)
	}
	if len(a) != 8 {
		t.Fatalf("HashKey length %d", len(a))
	}
	if bytes.Equal(a, HashKey("ETH")) {
		t.Errorf("distinct symbols hashed to the same key")
	}
}

func TestNilClientsAreRejected(t *testing.T) {
	var p *Producer
	if err := p.Publish(context.Background(), "t", nil, nil, nil); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Publish on nil producer: %v", err)
	}
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("Close on nil producer: %v", err)
	}

	var cg *ConsumerGroup
	if err := cg.Run(context.Background(), nil); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Run on nil consumer: %v", err)
	}
}

func TestNewConsumerGroupRequiresTopic(t *testing.T) {
	if _, err := NewConsumerGroup(ConsumerConfig{Brokers: []string{"localhost:9092"}}); err == nil {
		t.Fatal("expected an error without a topic")
	}
}

func TestConsumerConfigDefaults(t *testing.T) {
	cfg := ConsumerConfig{MaxRetries: -1}
	cfg.setDefaults()
	if cfg.WorkerCount != 4 || cfg.BatchSize != 50 || cfg.MaxRetries != 0 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}
