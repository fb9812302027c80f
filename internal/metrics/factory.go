package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// 工厂相关错误定义
var (
	ErrInvalidMetricsType    = errors.New("invalid metrics type")
	ErrNilConfig             = errors.New("metrics config cannot be nil")
	ErrNilRegistry           = errors.New("registry cannot be nil")
	ErrInvalidConfig         = errors.New("invalid metrics config")
	ErrMetricsTypeEmpty      = errors.New("metrics type cannot be empty")
	ErrMetricsNamespaceEmpty = errors.New("metrics namespace cannot be empty")
)

const (
	NoopType       = "noop"
	PrometheusType = "prometheus"
)

// metricsFactory 代表指标收集器工厂实现
type metricsFactory struct {
	registry *prometheus.Registry
}

// NewFactory 创建新的指标收集器工厂实例
// registry: Prometheus 收集器使用的注册器
func NewFactory(registry *prometheus.Registry) MetricsCollectorFactory {
	return &metricsFactory{registry: registry}
}

// Create 根据配置创建对应的指标收集器
func (f *metricsFactory) Create(config *Config) (MetricsCollector, error) {
	if config == nil {
		return nil, ErrNilConfig
	}

	// 未启用时返回空操作收集器
	if !config.Enabled {
		return NewNoopCollector(), nil
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	switch config.Type {
	case NoopType:
		return NewNoopCollector(), nil
	case PrometheusType:
		registry := f.registry
		if registry == nil {
			registry = prometheus.NewRegistry()
		}
		return NewPrometheusCollectorWithRegistry(config, registry)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidMetricsType, config.Type)
	}
}

// validateConfig 验证配置的有效性
func validateConfig(config *Config) error {
	if config.Type == "" {
		return ErrMetricsTypeEmpty
	}

	if config.Namespace == "" {
		return ErrMetricsNamespaceEmpty
	}

	// 只允许字母、数字和下划线
	if !isMetricName(config.Namespace) {
		return fmt.Errorf("invalid namespace format: %s", config.Namespace)
	}

	if config.Subsystem != "" && !isMetricName(config.Subsystem) {
		return fmt.Errorf("invalid subsystem format: %s", config.Subsystem)
	}

	return nil
}

func isMetricName(s string) bool {
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_') {
			return false
		}
	}
	return true
}
