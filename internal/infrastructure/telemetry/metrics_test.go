package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumFor(t *testing.T, m metricdata.Metrics, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	want := attribute.NewSet(attrs...)
	var total int64
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			total += dp.Value
		}
	}
	return total
}

func TestAllocationMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })

	m, err := NewAllocationMetrics(provider.Meter("test"))
	require.NoError(t, err)

	m.SessionOpened(ctx, "CUSTOMER_PAYMENT", "CREATE")
	m.SessionOpened(ctx, "CUSTOMER_PAYMENT", "CREATE")
	m.EventApplied(ctx, "TOGGLE_LINE")
	m.EventRejected(ctx, "TOGGLE_LINE", "ALLOCATION_LIMIT_REQUIRED")
	m.SaveCompleted(ctx, "VENDOR_PAYMENT", 20*time.Millisecond, nil)
	m.SaveCompleted(ctx, "VENDOR_PAYMENT", 5*time.Millisecond, errors.New("boom"))

	metrics := collect(t, reader)

	assert.Equal(t, int64(2), sumFor(t, metrics["allocation_sessions_opened_total"],
		AttrApplicationType.String("CUSTOMER_PAYMENT"), AttrSessionMode.String("CREATE")))
	assert.Equal(t, int64(1), sumFor(t, metrics["allocation_events_applied_total"],
		AttrEventType.String("TOGGLE_LINE")))
	assert.Equal(t, int64(1), sumFor(t, metrics["allocation_events_rejected_total"],
		AttrEventType.String("TOGGLE_LINE"), AttrErrorCode.String("ALLOCATION_LIMIT_REQUIRED")))
	assert.Equal(t, int64(1), sumFor(t, metrics["allocation_saves_total"],
		AttrApplicationType.String("VENDOR_PAYMENT"), AttrOutcome.String("failure")))

	hist, ok := metrics["allocation_save_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
}

func TestAllocationMetrics_NilSafe(t *testing.T) {
	_, err := NewAllocationMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)

	var m *AllocationMetrics
	assert.NotPanics(t, func() {
		m.SessionOpened(context.Background(), "VENDOR_CREDIT", "EDIT")
		m.SaveCompleted(context.Background(), "VENDOR_CREDIT", time.Second, nil)
	})
}
