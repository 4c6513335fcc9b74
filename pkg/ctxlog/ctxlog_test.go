package ctxlog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGetLogger(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, zapcore.NewNopCore(), L(ctx).Core())

	want := zap.NewExample()
	ctx = WithLogger(ctx, want)
	assert.Equal(t, want, L(ctx))
}

func TestWithFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	field := zap.String("foo", "bar")
	ctx := WithLogger(context.Background(), zap.New(core))
	L(ctx).Debug("no fields")
	ctx = WithFields(ctx, field)
	L(ctx).Debug("with field")
	assert.Equal(t, 2, logs.Len())
	assert.Equal(t, 1, logs.FilterField(field).Len())
}

func TestWithRunIDAndHost(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := WithLogger(context.Background(), zap.New(core))
	ctx = WithRunID(ctx, "abc")
	ctx = WithHost(ctx, "data1.example.com")
	L(ctx).Info("hello")
	if assert.Equal(t, 1, logs.Len()) {
		entry := logs.All()[0]
		assert.Equal(t, "abc", entry.ContextMap()[RunIDField])
		assert.Equal(t, "data1.example.com", entry.ContextMap()[HostField])
	}
}

func TestWithName(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := WithName(WithLogger(context.Background(), zap.New(core)), "node")
	L(ctx).Debug("named")
	if assert.Equal(t, 1, logs.Len()) {
		assert.Equal(t, "node", logs.All()[0].LoggerName)
	}
}
