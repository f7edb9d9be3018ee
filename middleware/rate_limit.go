package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/ktwom22/plater8te/config"
	"github.com/ktwom22/plater8te/utils"
)

// clientBucket pairs a token bucket with its eviction deadline.
type clientBucket struct {
	limiter *rate.Limiter
	expires time.Time
}

const bucketIdleTTL = 5 * time.Minute

var (
	buckets   = map[string]*clientBucket{}
	bucketsMu sync.Mutex
)

// RateLimitMiddleware caps requests per client IP with a token bucket.
// Buckets idle past their TTL are evicted on the next lookup, so the map
// stays bounded by recent traffic.
func RateLimitMiddleware() gin.HandlerFunc {
	perMinute := max(config.Get().RateLimitPerMinute, 1)
	limit := rate.Every(time.Minute / time.Duration(perMinute))
	burst := max(perMinute/2, 1)

	return func(ctx *gin.Context) {
		if !bucketFor(ctx.ClientIP(), limit, burst).Allow() {
			utils.Error(ctx, http.StatusTooManyRequests, 42901, "rate limit exceeded")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func bucketFor(ip string, limit rate.Limit, burst int) *rate.Limiter {
	bucketsMu.Lock()
	defer bucketsMu.Unlock()

	now := time.Now()
	for key, b := range buckets {
		if now.After(b.expires) {
			delete(buckets, key)
		}
	}

	b, ok := buckets[ip]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(limit, burst)}
		buckets[ip] = b
	}
	b.expires = now.Add(bucketIdleTTL)
	return b.limiter
}
