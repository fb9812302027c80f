package proxy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shengyanli1982/slidegate/internal/config"
	"github.com/shengyanli1982/slidegate/internal/constants"
	"github.com/shengyanli1982/slidegate/internal/metrics"
	"github.com/shengyanli1982/slidegate/internal/response"
	"github.com/shengyanli1982/toolkit/pkg/httptool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upstreamConfig(targets ...config.TargetConfig) *config.UpstreamConfig {
	return &config.UpstreamConfig{
		Balance: &config.BalanceConfig{Strategy: constants.BalanceRoundRobin},
		Targets: targets,
		Transport: &config.TransportConfig{
			Agent:   constants.UserAgent,
			Connect: &config.ConnectConfig{IdleTotal: 10, IdlePerHost: 2},
			Timeout: &config.TimeoutConfig{Connect: 1000, Request: 5000},
		},
	}
}

func newTestForwarder(t *testing.T, cfg *config.UpstreamConfig) (*Forwarder, *prometheus.Registry) {
	t.Helper()
	registry := prometheus.NewRegistry()
	collector, err := metrics.NewPrometheusCollectorWithRegistry(&metrics.Config{
		Type:      metrics.PrometheusType,
		Enabled:   true,
		Namespace: "test",
	}, registry)
	require.NoError(t, err)

	f, err := New(cfg, collector, nil)
	require.NoError(t, err)
	t.Cleanup(f.Close)
	return f, registry
}

func newRouter(f *Forwarder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Any("/*path", f.Forward)
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) httptool.BaseHttpResponse {
	t.Helper()
	var body httptool.BaseHttpResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestForwarder_Forward(t *testing.T) {
	var gotPath, gotForwarded string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		gotForwarded = r.Header.Get(constants.HeaderXForwardedFor)
		w.Header().Set("X-Upstream", "api")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	}))
	defer upstream.Close()

	f, registry := newTestForwarder(t, upstreamConfig(config.TargetConfig{Name: "api", URL: upstream.URL, Weight: 1}))
	router := newRouter(f)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/items?page=2", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "created", w.Body.String())
	assert.Equal(t, "api", w.Header().Get("X-Upstream"))
	assert.Equal(t, "/v1/items?page=2", gotPath)
	assert.Equal(t, "192.0.2.1", gotForwarded)

	count, err := testutil.GatherAndCount(registry, "test_upstream_requests_total", "test_load_balancer_selections_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestForwarder_RewritesOutboundRequest(t *testing.T) {
	var got http.Header
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	f, _ := newTestForwarder(t, upstreamConfig(config.TargetConfig{
		Name:   "api",
		URL:    upstream.URL,
		Weight: 1,
		Auth:   &config.AuthConfig{Type: constants.AuthTypeBearer, Token: "upstream-token"},
		Headers: []config.HeaderOpConfig{
			{Op: constants.HeaderOpRemove, Key: "X-Api-Key"},
			{Op: constants.HeaderOpInsert, Key: "X-Gateway", Value: "slidegate"},
		},
	}))
	router := newRouter(f)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Api-Key", "client-key")
	req.Header.Set(constants.HeaderAuthorization, "Bearer client-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, got.Get("X-Api-Key"))
	assert.Equal(t, "slidegate", got.Get("X-Gateway"))
	assert.Equal(t, "Bearer upstream-token", got.Get(constants.HeaderAuthorization))
	assert.Equal(t, constants.AuthTypeBearer, f.Targets()[0].Auth)
}

func TestForwarder_BadGateway(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	f, registry := newTestForwarder(t, upstreamConfig(config.TargetConfig{Name: "down", URL: url, Weight: 1}))
	router := newRouter(f)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decode(t, w)
	assert.Equal(t, int64(response.CodeBadGateway), body.Code)
	assert.Equal(t, constants.MsgBadGateway, body.ErrorMessage)

	count, err := testutil.GatherAndCount(registry, "test_upstream_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestForwarder_Throttle(t *testing.T) {
	var hits int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	cfg := upstreamConfig(config.TargetConfig{Name: "api", URL: upstream.URL, Weight: 1})
	cfg.Throttle = &config.ThrottleConfig{PerSecond: 1, Burst: 1}
	f, _ := newTestForwarder(t, cfg)
	router := newRouter(f)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	body := decode(t, w)
	assert.Equal(t, int64(response.CodeRateLimit), body.Code)
	assert.Equal(t, constants.MsgUpstreamThrottled, body.ErrorMessage)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestForwarder_BreakerOpens(t *testing.T) {
	var hits int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer upstream.Close()

	cfg := upstreamConfig(config.TargetConfig{Name: "api", URL: upstream.URL, Weight: 1})
	cfg.Breaker = &config.BreakerConfig{Threshold: 0.5, Cooldown: 60000, MaxRequests: 1, Interval: 60000}
	f, registry := newTestForwarder(t, cfg)
	router := newRouter(f)

	// 上游的 5xx 响应原样返回，同时计为熔断失败
	for i := 0; i < int(constants.DefaultBreakerMinRequests); i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "boom", w.Body.String())
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	body := decode(t, w)
	assert.Equal(t, int64(response.CodeServiceUnavailable), body.Code)
	assert.Equal(t, int32(constants.DefaultBreakerMinRequests), atomic.LoadInt32(&hits))

	statuses := f.Targets()
	require.Len(t, statuses, 1)
	assert.Equal(t, "open", statuses[0].Breaker)

	count, err := testutil.GatherAndCount(registry, "test_circuit_breaker_state_changes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestForwarder_Targets(t *testing.T) {
	cfg := upstreamConfig(
		config.TargetConfig{Name: "a", URL: "http://127.0.0.1:1", Weight: 3},
		config.TargetConfig{Name: "b", URL: "http://127.0.0.1:2", Weight: 1},
	)
	cfg.Balance.Strategy = constants.BalanceWeightedRoundRobin
	f, _ := newTestForwarder(t, cfg)

	statuses := f.Targets()
	require.Len(t, statuses, 2)
	assert.Equal(t, TargetStatus{Name: "a", URL: "http://127.0.0.1:1", Weight: 3, Auth: constants.AuthTypeNone}, statuses[0])
	assert.Equal(t, "b", statuses[1].Name)
	assert.Equal(t, constants.BalanceWeightedRoundRobin, f.Strategy())
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil, nil, nil)
	assert.Error(t, err)

	_, err = New(&config.UpstreamConfig{}, nil, nil)
	assert.Error(t, err)

	cfg := upstreamConfig(config.TargetConfig{Name: "api", URL: "http://127.0.0.1:1", Weight: 1})
	cfg.Balance.Strategy = "random"
	_, err = New(cfg, nil, nil)
	assert.Error(t, err)

	cfg = upstreamConfig(config.TargetConfig{Name: "api", URL: "http://127.0.0.1:1", Weight: 1, Auth: &config.AuthConfig{Type: "digest"}})
	_, err = New(cfg, nil, nil)
	assert.Error(t, err)

	cfg = upstreamConfig(config.TargetConfig{Name: "api", URL: "http://127.0.0.1:1", Weight: 1})
	cfg.Transport = nil
	_, err = New(cfg, nil, nil)
	assert.Error(t, err)
}
