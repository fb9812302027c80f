package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/shengyanli1982/slidegate/internal/config"
	"github.com/shengyanli1982/slidegate/internal/constants"
	"github.com/sony/gobreaker"
)

// DefaultSettings 返回默认的熔断器设置
func DefaultSettings() gobreaker.Settings {
	return gobreaker.Settings{
		Name:         constants.DefaultBreakerName,
		MaxRequests:  constants.DefaultBreakerMaxRequests,
		Interval:     time.Duration(constants.DefaultBreakerInterval) * time.Millisecond,
		Timeout:      time.Duration(constants.DefaultBreakerCooldown) * time.Millisecond,
		ReadyToTrip:  readyToTrip(constants.DefaultBreakerThreshold),
		IsSuccessful: isSuccessful,
	}
}

// isSuccessful 客户端主动断开不计为上游失败
func isSuccessful(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

// SettingsFromConfig 从配置创建熔断器设置
// name: 熔断器名称，通常为上游名称
// observer: 状态变化回调，可为 nil
func SettingsFromConfig(name string, cfg *config.BreakerConfig, observer StateObserver) gobreaker.Settings {
	settings := DefaultSettings()
	settings.Name = name

	if cfg != nil {
		if cfg.MaxRequests > 0 {
			settings.MaxRequests = cfg.MaxRequests
		}
		if cfg.Interval > 0 {
			settings.Interval = time.Duration(cfg.Interval) * time.Millisecond
		}
		if cfg.Cooldown > 0 {
			settings.Timeout = time.Duration(cfg.Cooldown) * time.Millisecond
		}
		if cfg.Threshold > 0 {
			settings.ReadyToTrip = readyToTrip(cfg.Threshold)
		}
	}

	if observer != nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			observer(name, from, to)
		}
	}

	return settings
}

// readyToTrip 在最少请求数达到后按失败率判定是否熔断
func readyToTrip(threshold float64) func(counts gobreaker.Counts) bool {
	return func(counts gobreaker.Counts) bool {
		if counts.Requests < constants.DefaultBreakerMinRequests {
			return false
		}
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return failureRatio >= threshold
	}
}
