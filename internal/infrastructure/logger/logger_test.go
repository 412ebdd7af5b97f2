package logger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	t.Run("nil config uses defaults", func(t *testing.T) {
		l, err := New(nil)
		require.NoError(t, err)
		assert.NotNil(t, l)
	})

	t.Run("json output to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		l, err := New(&Config{Level: "debug", Format: "json", Output: path})
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("unwritable file is an error", func(t *testing.T) {
		_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "app.log")})
		assert.Error(t, err)
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ParseLevel(in))
		})
	}
}

func TestFromContext(t *testing.T) {
	t.Run("without logger returns nop", func(t *testing.T) {
		l := FromContext(context.Background())
		assert.NotNil(t, l)
	})

	t.Run("carries ids from context", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		ctx := WithContext(context.Background(), zap.New(core))
		ctx = WithRequestID(ctx, "req-1")
		ctx = WithTenantID(ctx, "tenant-1")
		ctx = WithSessionID(ctx, "session-1")

		traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
		spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
		ctx = trace.ContextWithSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
			TraceID: traceID,
			SpanID:  spanID,
		}))

		FromContext(ctx).Info("hello")

		require.Equal(t, 1, recorded.Len())
		fields := recorded.All()[0].ContextMap()
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, "tenant-1", fields["tenant_id"])
		assert.Equal(t, "session-1", fields["session_id"])
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
		assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
	})

	t.Run("falls back when context has no logger", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		ctx := WithSessionID(context.Background(), "session-2")

		FromContextOr(ctx, zap.New(core)).Info("fallback")

		require.Equal(t, 1, recorded.Len())
		assert.Equal(t, "session-2", recorded.All()[0].ContextMap()["session_id"])
	})

	t.Run("getters on empty context", func(t *testing.T) {
		ctx := context.Background()
		assert.Empty(t, GetRequestID(ctx))
		assert.Empty(t, GetTenantID(ctx))
		assert.Empty(t, GetSessionID(ctx))
	})
}
