package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func TestRegisterDBTracing(t *testing.T) {
	t.Run("disabled config installs nothing", func(t *testing.T) {
		db := openWidgetDB(t)
		require.NoError(t, RegisterDBTracing(db, DefaultDBTracingConfig(), zap.NewNop()))
		assert.Nil(t, db.Callback().Query().Get("settlement:after_query"))
	})

	t.Run("queries inside a span produce child spans", func(t *testing.T) {
		sr := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
		previous := otel.GetTracerProvider()
		otel.SetTracerProvider(tp)
		t.Cleanup(func() {
			_ = tp.Shutdown(context.Background())
			otel.SetTracerProvider(previous)
		})

		db := openWidgetDB(t)
		cfg := DefaultDBTracingConfig()
		cfg.Enabled = true
		cfg.DBSystem = "sqlite"
		require.NoError(t, RegisterDBTracing(db, cfg, zap.NewNop()))
		assert.NotNil(t, db.Callback().Query().Get("settlement:after_query"))

		ctx, span := tp.Tracer("test").Start(context.Background(), "AllocationService.Save")
		require.NoError(t, db.WithContext(ctx).Create(&widget{Name: "a"}).Error)
		var rows []widget
		require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
		span.End()

		ended := sr.Ended()
		require.GreaterOrEqual(t, len(ended), 3)
		parent := span.SpanContext().SpanID()
		children := 0
		for _, s := range ended {
			if s.Parent().SpanID() == parent {
				children++
			}
		}
		assert.Equal(t, 2, children)
	})
}
