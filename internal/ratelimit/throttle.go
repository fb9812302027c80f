package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// UpstreamThrottle 按上游名称进行令牌桶限流，保护上游服务不被突发流量压垮
type UpstreamThrottle struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewUpstreamThrottle 创建新的上游限流器实例
func NewUpstreamThrottle(perSecond float64, burst int) (*UpstreamThrottle, error) {
	if perSecond <= 0 {
		return nil, &ConfigurationError{Field: "perSecond", Value: perSecond, Err: ErrInvalidPerSecond}
	}
	if burst <= 0 {
		return nil, &ConfigurationError{Field: "burst", Value: burst, Err: ErrInvalidBurst}
	}

	return &UpstreamThrottle{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}, nil
}

// Allow 检查指定上游是否允许通过
func (t *UpstreamThrottle) Allow(upstream string) bool {
	if upstream == "" {
		return true
	}
	return t.getLimiter(upstream).Allow()
}

// Reset 重置指定上游的限流状态
func (t *UpstreamThrottle) Reset(upstream string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.limiters, upstream)
}

// getLimiter 获取或创建指定上游的令牌桶
func (t *UpstreamThrottle) getLimiter(upstream string) *rate.Limiter {
	t.mu.RLock()
	limiter, exists := t.limiters[upstream]
	t.mu.RUnlock()

	if exists {
		return limiter
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// 双重检查
	if limiter, exists := t.limiters[upstream]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(t.limit, t.burst)
	t.limiters[upstream] = limiter

	return limiter
}
