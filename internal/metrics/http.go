package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Middleware считает запросы по шаблону маршрута, а не по фактическому пути,
// чтобы id в URL не раздували кардинальность.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" || path == "/metrics" || path == "/health" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		code := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		elapsed := time.Since(start).Seconds()

		reqDur.WithLabelValues(code, method, path).Observe(elapsed)
		reqCnt.WithLabelValues(code, method, path).Inc()
		resSz.WithLabelValues(code, method, path).Observe(float64(c.Writer.Size()))
	}
}

// Handler отдаёт метрики в формате Prometheus.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
