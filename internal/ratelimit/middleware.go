package ratelimit

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/shengyanli1982/slidegate/internal/apperr"
	"github.com/shengyanli1982/slidegate/internal/constants"
	"github.com/shengyanli1982/slidegate/internal/response"
)

// DecisionObserver 在每次限流判定后被调用，用于指标和统计
type DecisionObserver func(c *gin.Context, clientID string, result Result)

// Middleware 限流中间件，将判定结果转换为 HTTP 响应
type Middleware struct {
	limiter    Limiter
	identify   IdentityFunc
	clock      Clock
	limit      int
	retryAfter bool
	observer   DecisionObserver
	logger     *logr.Logger
}

// MiddlewareOption 代表中间件的可选配置
type MiddlewareOption func(*Middleware)

// WithClock 设置时间来源
func WithClock(clock Clock) MiddlewareOption {
	return func(m *Middleware) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithRetryAfter 设置拒绝时是否输出 Retry-After 头部
func WithRetryAfter(enabled bool) MiddlewareOption {
	return func(m *Middleware) {
		m.retryAfter = enabled
	}
}

// WithObserver 设置判定回调
func WithObserver(observer DecisionObserver) MiddlewareOption {
	return func(m *Middleware) {
		m.observer = observer
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *logr.Logger) MiddlewareOption {
	return func(m *Middleware) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMiddleware 创建新的限流中间件实例
// limit: 窗口内最大请求数，用于 X-RateLimit-Limit 头部
func NewMiddleware(limiter Limiter, identify IdentityFunc, limit int, opts ...MiddlewareOption) *Middleware {
	discard := logr.Discard()
	m := &Middleware{
		limiter:    limiter,
		identify:   identify,
		clock:      SystemClock,
		limit:      limit,
		retryAfter: true,
		logger:     &discard,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handler 返回 gin 中间件函数
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := m.identify(c.Request)
		clientID := identity.ClientID()

		result, err := m.limiter.CheckAndRecordAll(identity.IDs(), m.clock())
		if err != nil {
			m.logger.V(1).Info("Unable to identify client", "remote", c.Request.RemoteAddr, "path", c.Request.URL.Path)
			response.Failure(c, apperr.Wrap(apperr.KindInvalid, constants.MsgInvalidClient, err))
			return
		}

		c.Set(constants.ContextKeyClientID, clientID)
		c.Header(constants.HeaderRateLimitLimit, strconv.Itoa(m.limit))
		c.Header(constants.HeaderRateLimitRemaining, strconv.Itoa(result.Remaining))

		if m.observer != nil {
			m.observer(c, clientID, result)
		}

		if !result.Allowed() {
			if m.retryAfter {
				c.Header(constants.HeaderRetryAfter, strconv.FormatInt(retryAfterSeconds(result.RetryAfter), 10))
			}
			m.logger.V(1).Info("Rate limit exceeded", "client", clientID, "retryAfterMs", result.RetryAfter)
			response.TooManyRequests(c, constants.MsgTooManyRequests)
			return
		}

		c.Next()
	}
}

// ClientID 返回中间件写入上下文的客户端标识
func ClientID(c *gin.Context) string {
	return c.GetString(constants.ContextKeyClientID)
}

// retryAfterSeconds 将毫秒向上取整为秒，最小为 1
func retryAfterSeconds(ms int64) int64 {
	if ms <= 0 {
		return 1
	}
	return (ms + 999) / 1000
}
