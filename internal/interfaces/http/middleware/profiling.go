package middleware

import (
	"context"

	"github.com/erp/settlement/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// Profiling tags CPU and allocation samples of each request with its method, route and tenant.
// Labels are no-ops when the profiler is not running.
func Profiling(skipPaths ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipped(c.Request.URL.Path, skipPaths) {
			c.Next()
			return
		}

		labels := map[string]string{
			telemetry.ProfilingLabelMethod: c.Request.Method,
			telemetry.ProfilingLabelRoute:  routePattern(c),
		}
		if id, ok := GetTenantUUID(c); ok {
			labels[telemetry.ProfilingLabelTenantID] = id.String()
		}

		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
