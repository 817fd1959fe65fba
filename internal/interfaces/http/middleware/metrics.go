package middleware

import (
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/prometheus"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

// Metrics records request counts and latencies by route template, so path
// parameters do not explode label cardinality.
func Metrics(m *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		method := c.Request.Method
		m.HTTPActiveRequests.WithLabelValues(method).Inc()
		start := time.Now()

		c.Next()

		m.HTTPActiveRequests.WithLabelValues(method).Dec()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		prometheus.RecordHTTPRequest(m, method, route, c.Writer.Status(), time.Since(start))
	}
}

// Recovery turns a panic into a 500 response and logs it.
func Recovery(logger logging.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			logging.String("path", c.Request.URL.Path),
			logging.String("request_id", RequestIDFrom(c)),
			logging.String("panic", fmt.Sprint(recovered)))
		AbortWithError(c, errors.ErrCodeInternal, "internal server error", "")
	})
}

//Personal.AI order the ending
