package router

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/checkout-widget/internal/http/response"
	"github.com/checkout-widget/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const defaultRateLimitMessage = "Too many requests. Please try again in %d seconds."

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
}

func (r RateLimitRule) valid() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

// RateLimitMiddleware 频率限制中间件：有 Redis 时按固定窗口计数（多副本共享），
// 否则退化为进程内令牌桶。
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	if !rule.valid() {
		return func(c *gin.Context) { c.Next() }
	}
	if client == nil {
		return localRateLimit(newLocalLimiter(rule), rule, keyFunc)
	}
	return func(c *gin.Context) {
		key := resolveRateLimitKey(c, rule, keyFunc)
		result, err := rateLimitScript.Run(c.Request.Context(), client, []string{key}, rule.WindowSeconds).Result()
		if err != nil {
			// Redis 不可用时放行，提交本身仍受单实例互斥保护
			logger.Warnw("rate_limit_redis_failed", "key", key, "error", err)
			c.Next()
			return
		}
		values, ok := result.([]interface{})
		if !ok || len(values) < 2 {
			logger.Warnw("rate_limit_unexpected_result", "key", key)
			c.Next()
			return
		}
		count, ok := toInt64(values[0])
		if !ok {
			logger.Warnw("rate_limit_unexpected_count", "key", key)
			c.Next()
			return
		}
		ttlSeconds, _ := toInt64(values[1])
		if count > int64(rule.MaxRequests) {
			waitSeconds := int(ttlSeconds)
			if waitSeconds < 1 {
				waitSeconds = rule.WindowSeconds
			}
			abortRateLimited(c, waitSeconds)
			return
		}
		c.Next()
	}
}

func localRateLimit(limiter *localLimiter, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := resolveRateLimitKey(c, rule, keyFunc)
		if wait, ok := limiter.allow(key, time.Now()); !ok {
			abortRateLimited(c, int(wait.Seconds()+0.999))
			return
		}
		c.Next()
	}
}

func resolveRateLimitKey(c *gin.Context, rule RateLimitRule, keyFunc RateLimitKeyFunc) string {
	key := ""
	if keyFunc != nil {
		key = strings.TrimSpace(keyFunc(c))
	}
	if key == "" {
		key = c.ClientIP()
	}
	if rule.Prefix != "" {
		key = fmt.Sprintf("%s:%s", rule.Prefix, key)
	}
	return key
}

func abortRateLimited(c *gin.Context, waitSeconds int) {
	if waitSeconds < 1 {
		waitSeconds = 1
	}
	msg := fmt.Sprintf(defaultRateLimitMessage, waitSeconds)
	c.Header("Retry-After", fmt.Sprintf("%d", waitSeconds))
	// 组件表单直接提交时返回纯文本，API 调用返回统一结构
	if strings.Contains(c.GetHeader("Accept"), "text/html") {
		c.String(http.StatusTooManyRequests, msg)
		c.Abort()
		return
	}
	response.TooManyRequests(c, msg)
	c.Abort()
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByIPAndParam 使用 IP + 路由参数作为限流 key
func KeyByIPAndParam(param string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.TrimSpace(c.Param(param))
		if value == "" {
			return c.ClientIP()
		}
		if len(value) > 32 {
			value = value[:32]
		}
		return fmt.Sprintf("%s|%s", value, c.ClientIP())
	}
}

type localLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter 进程内按 key 的令牌桶
type localLimiter struct {
	mu       sync.Mutex
	entries  map[string]*localLimiterEntry
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	maxKeys  int
	lastGC   time.Time
	gcPeriod time.Duration
}

func newLocalLimiter(rule RateLimitRule) *localLimiter {
	window := time.Duration(rule.WindowSeconds) * time.Second
	return &localLimiter{
		entries:  make(map[string]*localLimiterEntry),
		limit:    rate.Every(window / time.Duration(rule.MaxRequests)),
		burst:    rule.MaxRequests,
		idleTTL:  2 * window,
		maxKeys:  10000,
		gcPeriod: window,
	}
}

// allow 返回是否放行；拒绝时同时返回建议等待时间
func (l *localLimiter) allow(key string, now time.Time) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.collectLocked(now)
	entry, ok := l.entries[key]
	if !ok {
		entry = &localLimiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return time.Second, false
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return delay, false
	}
	return 0, true
}

func (l *localLimiter) collectLocked(now time.Time) {
	if now.Sub(l.lastGC) < l.gcPeriod && len(l.entries) < l.maxKeys {
		return
	}
	l.lastGC = now
	for key, entry := range l.entries {
		if now.Sub(entry.lastSeen) > l.idleTTL {
			delete(l.entries, key)
		}
	}
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case uint32:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
