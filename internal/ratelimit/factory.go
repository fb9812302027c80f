package ratelimit

import (
	"github.com/shengyanli1982/slidegate/internal/config"
)

// NewFromConfig 根据网关限流配置创建滑动窗口限流器
func NewFromConfig(cfg *config.RateLimitConfig) (*SlidingWindowLimiter, error) {
	if cfg == nil {
		return NewSlidingWindowLimiter(DefaultConfig())
	}

	return NewSlidingWindowLimiter(&Config{
		MaxRequests: cfg.GetMaxRequests(),
		TimeWindow:  cfg.GetTimeWindow(),
		Shards:      cfg.Shards,
		MaxClients:  cfg.GetMaxClients(),
	})
}

// NewThrottleFromConfig 根据上游限流配置创建令牌桶限流器，未配置时返回 nil
func NewThrottleFromConfig(cfg *config.ThrottleConfig) (*UpstreamThrottle, error) {
	if cfg == nil {
		return nil, nil
	}
	return NewUpstreamThrottle(float64(cfg.PerSecond), cfg.Burst)
}

// IdentityFromConfig 转换客户端标识配置
func IdentityFromConfig(cfg *config.RateLimitConfig) IdentityConfig {
	if cfg == nil {
		return IdentityConfig{}
	}
	return IdentityConfig{
		Header:         cfg.Identity.Header,
		TrustForwarded: cfg.Identity.TrustForwarded,
	}
}
