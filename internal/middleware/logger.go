package middleware

import (
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger 请求日志中间件
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		// 静态资源和健康检查不记日志
		if strings.HasPrefix(path, "/static") || path == "/health" {
			c.Next()
			return
		}

		// 处理请求
		c.Next()

		// 记录日志
		latency := time.Since(start).Round(time.Millisecond)
		status := c.Writer.Status()

		log.Printf("[%s] %s %s %d %v",
			c.Request.Method,
			path,
			c.ClientIP(),
			status,
			latency,
		)
	}
}
