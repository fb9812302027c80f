package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestCollector 创建用于测试的 Prometheus 收集器
func createTestCollector(t *testing.T, namespace, subsystem string) (*prometheusCollector, *prometheus.Registry) {
	t.Helper()
	registry := prometheus.NewRegistry()
	collector, err := NewPrometheusCollectorWithRegistry(&Config{
		Type:      PrometheusType,
		Enabled:   true,
		Namespace: namespace,
		Subsystem: subsystem,
	}, registry)
	require.NoError(t, err)
	return collector.(*prometheusCollector), registry
}

func TestNewPrometheusCollectorWithRegistry(t *testing.T) {
	collector, _ := createTestCollector(t, "test", "")
	assert.Equal(t, PrometheusType, collector.Name())
	assert.NotNil(t, collector.GetRegistry())
}

func TestNewPrometheusCollectorWithRegistry_Errors(t *testing.T) {
	_, err := NewPrometheusCollectorWithRegistry(nil, prometheus.NewRegistry())
	assert.ErrorIs(t, err, ErrNilConfig)

	_, err = NewPrometheusCollectorWithRegistry(DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrNilRegistry)

	// 同一注册器上重复注册同名指标
	registry := prometheus.NewRegistry()
	_, err = NewPrometheusCollectorWithRegistry(DefaultConfig(), registry)
	require.NoError(t, err)
	_, err = NewPrometheusCollectorWithRegistry(DefaultConfig(), registry)
	assert.Error(t, err)
}

func TestPrometheusCollector_RateLimitMetrics(t *testing.T) {
	c, _ := createTestCollector(t, "test", "")

	c.RecordRateLimitDecision("gw", "allowed")
	c.RecordRateLimitDecision("gw", "allowed")
	c.RecordRateLimitDecision("gw", "rejected")
	c.SetTrackedClients("gw", 42)
	c.RecordEvictions("gw", "expired", 3)
	c.RecordEvictions("gw", "capacity", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.rateLimitDecisions.WithLabelValues("gw", "allowed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rateLimitDecisions.WithLabelValues("gw", "rejected")))
	assert.Equal(t, 42.0, testutil.ToFloat64(c.trackedClients.WithLabelValues("gw")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.evictionsTotal.WithLabelValues("gw", "expired")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.evictionsTotal))
}

func TestPrometheusCollector_RequestAndUpstreamMetrics(t *testing.T) {
	c, registry := createTestCollector(t, "test", "sub")

	c.RecordRequest("gw", "GET", 200, 10*time.Millisecond)
	c.RecordRequest("gw", "GET", 429, time.Millisecond)
	c.RecordUpstreamResponse("api", 502, 20*time.Millisecond)
	c.RecordUpstreamError("api", "breaker_open")
	c.RecordLoadBalancerSelection("api", "roundrobin")
	c.RecordCircuitBreakerState("api", 2)
	c.RecordCircuitBreakerStateChange("api", "closed", "open")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("gw", "GET", "429")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.upstreamRequestsTotal.WithLabelValues("api", "502")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.upstreamErrorsTotal.WithLabelValues("api", "breaker_open")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.loadBalancerSelections.WithLabelValues("api", "roundrobin")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.circuitBreakerState.WithLabelValues("api")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.circuitBreakerStateChanges.WithLabelValues("api", "closed", "open")))

	families, err := registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		assert.True(t, strings.HasPrefix(family.GetName(), "test_sub_"), family.GetName())
	}
}

func TestPrometheusCollector_Close(t *testing.T) {
	c, registry := createTestCollector(t, "test", "")
	c.RecordRateLimitDecision("gw", "allowed")

	require.NoError(t, c.Close())

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.Empty(t, families)

	// 注销后可以重新注册
	_, err = NewPrometheusCollectorWithRegistry(&Config{Type: PrometheusType, Enabled: true, Namespace: "test"}, registry)
	assert.NoError(t, err)
}

func TestNoopCollector(t *testing.T) {
	c := NewNoopCollector()

	c.RecordRequest("gw", "GET", 200, time.Millisecond)
	c.RecordRateLimitDecision("gw", "allowed")
	c.SetTrackedClients("gw", 1)
	c.RecordEvictions("gw", "expired", 1)
	c.RecordUpstreamResponse("api", 200, time.Millisecond)
	c.RecordUpstreamError("api", "throttled")
	c.RecordLoadBalancerSelection("api", "iphash")
	c.RecordCircuitBreakerState("api", 0)
	c.RecordCircuitBreakerStateChange("api", "open", "half-open")

	assert.Equal(t, NoopType, c.Name())
	assert.NoError(t, c.Close())

	families, err := c.GetRegistry().Gather()
	require.NoError(t, err)
	assert.Empty(t, families)
}
