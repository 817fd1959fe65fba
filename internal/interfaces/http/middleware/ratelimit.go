package middleware

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/sj-huang/rdkit-m/pkg/errors"
)

const defaultMaxClients = 10000

type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per key.
	RequestsPerSecond float64
	// BurstSize is the bucket capacity.
	BurstSize int
	// KeyFunc extracts the limit key; nil keys by subject, then client IP.
	KeyFunc func(c *gin.Context) string
	// SkipPaths bypass limiting.
	SkipPaths []string
	// MaxClients bounds the number of tracked keys; the least recently seen
	// keys are forgotten first.
	MaxClients int
}

// RateLimiter keeps one token bucket per client key.
type RateLimiter struct {
	config   RateLimitConfig
	limiters *lru.Cache[string, *rate.Limiter]
}

func NewRateLimiter(config RateLimitConfig) (*RateLimiter, error) {
	if config.RequestsPerSecond <= 0 {
		return nil, errors.InvalidParam("requests per second must be positive")
	}
	if config.BurstSize <= 0 {
		config.BurstSize = int(math.Ceil(config.RequestsPerSecond))
	}
	if config.MaxClients <= 0 {
		config.MaxClients = defaultMaxClients
	}
	if config.KeyFunc == nil {
		config.KeyFunc = defaultKey
	}
	cache, err := lru.New[string, *rate.Limiter](config.MaxClients)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create limiter cache")
	}
	return &RateLimiter{config: config, limiters: cache}, nil
}

func (l *RateLimiter) limiter(key string) *rate.Limiter {
	if lim, ok := l.limiters.Get(key); ok {
		return lim
	}
	lim := rate.NewLimiter(rate.Limit(l.config.RequestsPerSecond), l.config.BurstSize)
	if prev, ok, _ := l.limiters.PeekOrAdd(key, lim); ok {
		return prev
	}
	return lim
}

// Allow takes one token for key and reports the tokens left.
func (l *RateLimiter) Allow(key string) (bool, int) {
	lim := l.limiter(key)
	ok := lim.Allow()
	return ok, int(math.Max(0, math.Floor(lim.Tokens())))
}

// Handler rejects requests over the limit with 429 and a Retry-After hint.
func (l *RateLimiter) Handler() gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(math.Ceil(1 / l.config.RequestsPerSecond)))
	limit := strconv.Itoa(l.config.BurstSize)

	return func(c *gin.Context) {
		for _, p := range l.config.SkipPaths {
			if c.Request.URL.Path == p || strings.HasPrefix(c.Request.URL.Path, p+"/") {
				c.Next()
				return
			}
		}

		ok, remaining := l.Allow(l.config.KeyFunc(c))
		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !ok {
			c.Header("Retry-After", retryAfter)
			AbortWithError(c, errors.ErrCodeTooManyRequests, "rate limit exceeded", "")
			return
		}
		c.Next()
	}
}

func defaultKey(c *gin.Context) string {
	if sub := SubjectFrom(c); sub != "" {
		return "sub:" + sub
	}
	return "ip:" + c.ClientIP()
}

//Personal.AI order the ending
