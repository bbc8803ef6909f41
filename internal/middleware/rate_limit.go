package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"microblog/internal/metrics"
	"microblog/internal/schemas"
	"microblog/internal/utils"
)

// LoginRateLimiter limits login attempts per client IP using Redis counters.
// A nil client disables the limiter, so the server runs fine without Redis.
func LoginRateLimiter(rdb *redis.Client, limit int64, window time.Duration) gin.HandlerFunc {
	const limiterName = "login"
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("mb:rl:%s:%s", limiterName, c.ClientIP())

		count, err := rdb.Incr(c, key).Result()
		if err != nil {
			// The limiter must not take logins down with it.
			utils.LogMessageWithFieldsAndError(c, "warn", "Rate limiter unavailable", err)
			c.Next()
			return
		}
		if count == 1 {
			_ = rdb.Expire(c, key, window).Err()
		}
		if count > limit {
			metrics.IncRateLimit(limiterName)
			c.Header("Retry-After", fmt.Sprintf("%.f", window.Seconds()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, &schemas.ErrorDTO{Error: *schemas.TooManyRequests})
			return
		}
		c.Next()
	}
}
