package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shengyanli1982/slidegate/internal/config"
	"github.com/shengyanli1982/slidegate/internal/constants"
	"github.com/shengyanli1982/slidegate/internal/metrics"
	"github.com/shengyanli1982/slidegate/internal/stats"
	"github.com/shengyanli1982/toolkit/pkg/httptool"
	"github.com/stretchr/testify/require"
)

// memoryRecorder 在内存中保存统计事件
type memoryRecorder struct {
	mu     sync.Mutex
	events []stats.Event
}

func (m *memoryRecorder) Record(_ context.Context, ev stats.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *memoryRecorder) Totals(context.Context) (stats.Totals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var totals stats.Totals
	for _, ev := range m.events {
		if ev.Allowed {
			totals.Allowed++
		} else {
			totals.Denied++
		}
	}
	return totals, nil
}

func (m *memoryRecorder) Close() error { return nil }

func (m *memoryRecorder) Type() string { return "memory" }

func (m *memoryRecorder) snapshot() []stats.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]stats.Event(nil), m.events...)
}

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("upstream:" + r.URL.Path))
	}))
	t.Cleanup(upstream.Close)
	return upstream
}

func gatewayConfig(upstreamURL string, maxRequests int) *config.GatewayConfig {
	return &config.GatewayConfig{
		Name:    "test-gateway",
		Address: "127.0.0.1",
		Port:    18080,
		RateLimit: &config.RateLimitConfig{
			MaxRequests: ptr(maxRequests),
			TimeWindow:  ptr(int64(60000)),
			Shards:      4,
		},
		Upstream: config.UpstreamConfig{
			Balance: &config.BalanceConfig{Strategy: constants.BalanceRoundRobin},
			Targets: []config.TargetConfig{{Name: "api", URL: upstreamURL, Weight: 1}},
			Transport: &config.TransportConfig{
				Agent:   constants.UserAgent,
				Timeout: &config.TimeoutConfig{Connect: 1000, Request: 5000},
			},
		},
	}
}

func newCollector(t *testing.T) (metrics.MetricsCollector, *prometheus.Registry) {
	t.Helper()
	registry := prometheus.NewRegistry()
	collector, err := metrics.NewPrometheusCollectorWithRegistry(&metrics.Config{
		Type:      metrics.PrometheusType,
		Enabled:   true,
		Namespace: "test",
	}, registry)
	require.NoError(t, err)
	return collector, registry
}

// newRouter 将服务注册到独立的 gin 引擎，避免监听端口
func newRouter(register func(*gin.RouterGroup)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	register(&r.RouterGroup)
	return r
}

func doRequest(router http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) httptool.BaseHttpResponse {
	t.Helper()
	var body httptool.BaseHttpResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// metricValue 汇总指定指标所有序列的值
func metricValue(t *testing.T, registry *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)

	total := 0.0
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				total += m.GetGauge().GetValue()
			}
		}
	}
	return total
}

func ptr[T any](v T) *T {
	return &v
}
