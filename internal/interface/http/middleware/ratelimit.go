package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/ratelimit"
	"github.com/xiebiao/library/pkg/response"
)

// RateLimit 按用户限流,匿名请求按客户端IP
// 挂在写接口上,需放在RequireAuth之后才能取到用户ID
func RateLimit(limiter *ratelimit.KeyedRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		if id := GetUserID(c); id != 0 {
			key = "user:" + strconv.FormatUint(uint64(id), 10)
		}

		if !limiter.Allow(key) {
			metrics.IncCounterVec(metrics.RateLimitRejectedTotal, map[string]string{"path": c.FullPath()})
			c.Header("Retry-After", "1")
			response.Error(c, apperrors.ErrTooManyCalls)
			return
		}
		c.Next()
	}
}
