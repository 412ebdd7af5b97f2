package telemetry

import (
	"context"
	"sort"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelOperation       = "operation"
	ProfilingLabelApplicationType = "application_type"
	ProfilingLabelTenantID        = "tenant_id"
	ProfilingLabelMethod          = "method"
	ProfilingLabelRoute           = "route"
)

// highCardinalityLabels are dropped before tagging profiles.
var highCardinalityLabels = map[string]bool{
	"request_id": true,
	"session_id": true,
	"trace_id":   true,
	"span_id":    true,
}

// WithProfilingLabels runs fn with pyroscope labels attached to its samples.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	kv := profilingLabelPairs(labels)
	if len(kv) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(kv...), fn)
}

// AllocationLabels builds labels for an allocation service operation.
func AllocationLabels(operation, applicationType string) map[string]string {
	labels := map[string]string{ProfilingLabelOperation: operation}
	if applicationType != "" {
		labels[ProfilingLabelApplicationType] = applicationType
	}
	return labels
}

// profilingLabelPairs flattens labels into sorted key/value pairs, skipping
// empty values and high-cardinality keys.
func profilingLabelPairs(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k, v := range labels {
		if k == "" || v == "" || highCardinalityLabels[k] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		kv = append(kv, k, labels[k])
	}
	return kv
}
