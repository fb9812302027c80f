package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// prometheusCollector 基于 Prometheus 的指标收集器实现
type prometheusCollector struct {
	registry *prometheus.Registry

	// 网关请求指标
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	// 限流指标
	rateLimitDecisions *prometheus.CounterVec
	trackedClients     *prometheus.GaugeVec
	evictionsTotal     *prometheus.CounterVec

	// 上游指标
	upstreamRequestsTotal   *prometheus.CounterVec
	upstreamRequestDuration *prometheus.HistogramVec
	upstreamErrorsTotal     *prometheus.CounterVec
	loadBalancerSelections  *prometheus.CounterVec

	// 断路器指标
	circuitBreakerState        *prometheus.GaugeVec
	circuitBreakerStateChanges *prometheus.CounterVec
}

// NewPrometheusCollectorWithRegistry 创建使用指定注册器的 Prometheus 指标收集器实例
func NewPrometheusCollectorWithRegistry(config *Config, registry *prometheus.Registry) (MetricsCollector, error) {
	if config == nil {
		return nil, ErrNilConfig
	}
	if registry == nil {
		return nil, ErrNilRegistry
	}

	collector := &prometheusCollector{registry: registry}
	if err := collector.initMetrics(config.Namespace, config.Subsystem); err != nil {
		return nil, err
	}

	return collector, nil
}

// initMetrics 初始化并注册所有 Prometheus 指标
func (c *prometheusCollector) initMetrics(namespace, subsystem string) error {
	c.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Total number of gateway requests",
		},
		[]string{"gateway", "method", "status_code"},
	)

	c.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Gateway request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"gateway", "method"},
	)

	c.rateLimitDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ratelimit_decisions_total",
			Help:      "Total number of rate limit decisions",
		},
		[]string{"gateway", "decision"},
	)

	c.trackedClients = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ratelimit_tracked_clients",
			Help:      "Number of clients currently tracked by the rate limiter",
		},
		[]string{"gateway"},
	)

	c.evictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ratelimit_evictions_total",
			Help:      "Total number of clients removed by the sweeper",
		},
		[]string{"gateway", "reason"},
	)

	c.upstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "upstream_requests_total",
			Help:      "Total number of upstream requests",
		},
		[]string{"upstream", "status_code"},
	)

	c.upstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"upstream"},
	)

	c.upstreamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "upstream_errors_total",
			Help:      "Total number of upstream errors",
		},
		[]string{"upstream", "error_type"},
	)

	c.loadBalancerSelections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "load_balancer_selections_total",
			Help:      "Total number of load balancer selections",
		},
		[]string{"upstream", "strategy"},
	)

	c.circuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"upstream"},
	)

	c.circuitBreakerStateChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "circuit_breaker_state_changes_total",
			Help:      "Total number of circuit breaker state changes",
		},
		[]string{"upstream", "from_state", "to_state"},
	)

	collectors := []prometheus.Collector{
		c.requestsTotal,
		c.requestDuration,
		c.rateLimitDecisions,
		c.trackedClients,
		c.evictionsTotal,
		c.upstreamRequestsTotal,
		c.upstreamRequestDuration,
		c.upstreamErrorsTotal,
		c.loadBalancerSelections,
		c.circuitBreakerState,
		c.circuitBreakerStateChanges,
	}

	for _, collector := range collectors {
		if err := c.registry.Register(collector); err != nil {
			return fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return nil
}

// RecordRequest 记录网关请求
func (c *prometheusCollector) RecordRequest(gateway, method string, statusCode int, duration time.Duration) {
	c.requestsTotal.WithLabelValues(gateway, method, strconv.Itoa(statusCode)).Inc()
	c.requestDuration.WithLabelValues(gateway, method).Observe(duration.Seconds())
}

// RecordRateLimitDecision 记录限流判定
func (c *prometheusCollector) RecordRateLimitDecision(gateway, decision string) {
	c.rateLimitDecisions.WithLabelValues(gateway, decision).Inc()
}

// SetTrackedClients 设置跟踪的客户端数量
func (c *prometheusCollector) SetTrackedClients(gateway string, count int) {
	c.trackedClients.WithLabelValues(gateway).Set(float64(count))
}

// RecordEvictions 记录被清理的客户端数量
func (c *prometheusCollector) RecordEvictions(gateway, reason string, count int) {
	if count <= 0 {
		return
	}
	c.evictionsTotal.WithLabelValues(gateway, reason).Add(float64(count))
}

// RecordUpstreamResponse 记录上游响应
func (c *prometheusCollector) RecordUpstreamResponse(upstream string, statusCode int, duration time.Duration) {
	c.upstreamRequestsTotal.WithLabelValues(upstream, strconv.Itoa(statusCode)).Inc()
	c.upstreamRequestDuration.WithLabelValues(upstream).Observe(duration.Seconds())
}

// RecordUpstreamError 记录上游错误
func (c *prometheusCollector) RecordUpstreamError(upstream, errorType string) {
	c.upstreamErrorsTotal.WithLabelValues(upstream, errorType).Inc()
}

// RecordLoadBalancerSelection 记录负载均衡器选择
func (c *prometheusCollector) RecordLoadBalancerSelection(upstream, strategy string) {
	c.loadBalancerSelections.WithLabelValues(upstream, strategy).Inc()
}

// RecordCircuitBreakerState 记录断路器状态
func (c *prometheusCollector) RecordCircuitBreakerState(upstream string, state int) {
	c.circuitBreakerState.WithLabelValues(upstream).Set(float64(state))
}

// RecordCircuitBreakerStateChange 记录断路器状态变化
func (c *prometheusCollector) RecordCircuitBreakerStateChange(upstream, fromState, toState string) {
	c.circuitBreakerStateChanges.WithLabelValues(upstream, fromState, toState).Inc()
}

// GetRegistry 获取 Prometheus 注册器
func (c *prometheusCollector) GetRegistry() *prometheus.Registry {
	return c.registry
}

// Name 获取收集器名称
func (c *prometheusCollector) Name() string {
	return PrometheusType
}

// Close 关闭收集器并从注册器中注销指标
func (c *prometheusCollector) Close() error {
	c.registry.Unregister(c.requestsTotal)
	c.registry.Unregister(c.requestDuration)
	c.registry.Unregister(c.rateLimitDecisions)
	c.registry.Unregister(c.trackedClients)
	c.registry.Unregister(c.evictionsTotal)
	c.registry.Unregister(c.upstreamRequestsTotal)
	c.registry.Unregister(c.upstreamRequestDuration)
	c.registry.Unregister(c.upstreamErrorsTotal)
	c.registry.Unregister(c.loadBalancerSelections)
	c.registry.Unregister(c.circuitBreakerState)
	c.registry.Unregister(c.circuitBreakerStateChanges)
	return nil
}
