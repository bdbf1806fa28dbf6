package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/ignatzorin/rsip-gallery/internal/logger"
)

// RateLimitMiddleware ограничивает число запросов с одного IP.
// Используется на формах жалоб, предложений и DMCA. По умолчанию 10 запросов в минуту.
func RateLimitMiddleware(limit int64, period time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = 10
	}
	if period <= 0 {
		period = time.Minute
	}

	instance := limiter.New(memory.NewStore(), limiter.Rate{
		Period: period,
		Limit:  limit,
	})
	log := logger.WithComponent("rate_limit")

	return func(c *gin.Context) {
		key := c.ClientIP()
		state, err := instance.Get(c, key)
		if err != nil {
			log.WithError(err).Error("ошибка лимитера")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", state.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", state.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", state.Reset))

		if state.Reached {
			log.WithField("ip", key).Warn("превышен лимит запросов")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "слишком много запросов, попробуйте позже",
			})
			return
		}

		c.Next()
	}
}
