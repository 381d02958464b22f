package handler

import (
	"strconv"
	"time"

	"meme-radar/internal/tracker/monitor"
	"meme-radar/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const tracerName = "meme-radar/http"

// Tracing 为每个请求开启 span，下游日志带 trace_id
func Tracing() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := logger.StartSpanWithRequest(c.Request, tracerName, c.Request.Method+" "+routeOf(c))
		defer span.End()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Logger creates a middleware for logging HTTP requests
func Logger(tl *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		logger.WithTrace(c.Request.Context(), tl).Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := routeOf(c)
		monitor.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		monitor.HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// routeOf 未匹配的路由统一成 unmatched，避免 label 爆炸
func routeOf(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return "unmatched"
}
