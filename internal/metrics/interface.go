package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector 代表指标收集器接口，定义统一的指标收集行为
type MetricsCollector interface {
	// 网关请求指标

	// RecordRequest 记录一次网关请求的最终状态和耗时
	// gateway: 网关名称
	// method: HTTP 方法
	// statusCode: HTTP 状态码
	// duration: 请求处理时间
	RecordRequest(gateway, method string, statusCode int, duration time.Duration)

	// 限流指标

	// RecordRateLimitDecision 记录一次限流判定
	// decision: allowed, rejected
	RecordRateLimitDecision(gateway, decision string)

	// SetTrackedClients 设置当前跟踪的客户端数量
	SetTrackedClients(gateway string, count int)

	// RecordEvictions 记录被清理的客户端数量
	// reason: expired, capacity
	RecordEvictions(gateway, reason string, count int)

	// 上游指标

	// RecordUpstreamResponse 记录上游响应
	RecordUpstreamResponse(upstream string, statusCode int, duration time.Duration)

	// RecordUpstreamError 记录上游错误
	// errorType: breaker_open, throttled, transport_error, selection_failed
	RecordUpstreamError(upstream, errorType string)

	// RecordLoadBalancerSelection 记录负载均衡器选择
	RecordLoadBalancerSelection(upstream, strategy string)

	// 断路器指标

	// RecordCircuitBreakerState 记录断路器状态（0=关闭, 1=半开, 2=开启）
	RecordCircuitBreakerState(upstream string, state int)

	// RecordCircuitBreakerStateChange 记录断路器状态变化
	RecordCircuitBreakerStateChange(upstream, fromState, toState string)

	// GetRegistry 获取 Prometheus 注册器
	GetRegistry() *prometheus.Registry

	// Name 获取收集器名称
	Name() string

	// Close 关闭收集器并清理资源
	Close() error
}

// MetricsCollectorFactory 代表指标收集器工厂接口
type MetricsCollectorFactory interface {
	// Create 根据配置创建指标收集器
	Create(config *Config) (MetricsCollector, error)
}

// Config 代表指标收集器配置
type Config struct {
	// Type 指标收集器类型（prometheus, noop）
	Type string `yaml:"type" json:"type"`

	// Enabled 是否启用指标收集
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Namespace 指标命名空间前缀
	Namespace string `yaml:"namespace" json:"namespace"`

	// Subsystem 指标子系统名称
	Subsystem string `yaml:"subsystem" json:"subsystem"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Type:      "prometheus",
		Enabled:   true,
		Namespace: "slidegate",
	}
}
