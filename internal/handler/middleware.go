package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habbits/internal/metrics"
)

// RequestMetrics 记录入站请求的计数和时延。
// path 取路由模板而不是原始 URL，避免标签基数膨胀。
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(started))
	}
}
