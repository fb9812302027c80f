package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// noopCollector 空操作指标收集器，用于禁用指标收集时的占位实现
type noopCollector struct {
	registry *prometheus.Registry
}

// NewNoopCollector 创建新的空操作指标收集器实例
func NewNoopCollector() MetricsCollector {
	return &noopCollector{registry: prometheus.NewRegistry()}
}

func (c *noopCollector) RecordRequest(gateway, method string, statusCode int, duration time.Duration) {}

func (c *noopCollector) RecordRateLimitDecision(gateway, decision string) {}

func (c *noopCollector) SetTrackedClients(gateway string, count int) {}

func (c *noopCollector) RecordEvictions(gateway, reason string, count int) {}

func (c *noopCollector) RecordUpstreamResponse(upstream string, statusCode int, duration time.Duration) {
}

func (c *noopCollector) RecordUpstreamError(upstream, errorType string) {}

func (c *noopCollector) RecordLoadBalancerSelection(upstream, strategy string) {}

func (c *noopCollector) RecordCircuitBreakerState(upstream string, state int) {}

func (c *noopCollector) RecordCircuitBreakerStateChange(upstream, fromState, toState string) {}

// GetRegistry 返回一个空的注册器
func (c *noopCollector) GetRegistry() *prometheus.Registry {
	return c.registry
}

func (c *noopCollector) Name() string {
	return NoopType
}

func (c *noopCollector) Close() error {
	return nil
}
