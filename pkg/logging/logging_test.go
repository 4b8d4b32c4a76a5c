package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("warn"))
	assert.Equal(t, ERROR, ParseLevel("error"))
	assert.Equal(t, INFO, ParseLevel(""))
	assert.Equal(t, INFO, ParseLevel("chatty"))
}

func TestRequestIDIsAttached(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core))

	ctx := WithRequestID(context.Background(), "req-1")
	l.Info(ctx, "hello", zap.String("k", "v"))
	l.Debug(context.Background(), "no id")

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "v", entries[0].ContextMap()["k"])
	_, ok := entries[1].ContextMap()["request_id"]
	assert.False(t, ok)
}

func TestContextLogger(t *testing.T) {
	def := NewNop()
	assert.Same(t, def, GetLogger(context.Background(), def))

	l := NewNop().With(zap.String("component", "x"))
	ctx := WithLogger(context.Background(), l)
	assert.Same(t, l, GetLogger(ctx, def))

	assert.Equal(t, "no-request-id", RequestID(context.Background()))
	assert.NotEmpty(t, NewRequestID())
}
