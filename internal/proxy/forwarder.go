// Package proxy 将通过限流的请求转发到上游服务组
package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/shengyanli1982/slidegate/internal/apperr"
	"github.com/shengyanli1982/slidegate/internal/auth"
	"github.com/shengyanli1982/slidegate/internal/balance"
	"github.com/shengyanli1982/slidegate/internal/breaker"
	"github.com/shengyanli1982/slidegate/internal/client"
	"github.com/shengyanli1982/slidegate/internal/config"
	"github.com/shengyanli1982/slidegate/internal/constants"
	"github.com/shengyanli1982/slidegate/internal/headers"
	"github.com/shengyanli1982/slidegate/internal/metrics"
	"github.com/shengyanli1982/slidegate/internal/ratelimit"
	"github.com/shengyanli1982/slidegate/internal/response"
	"github.com/sony/gobreaker"
)

// target 代表一个已解析的上游服务
type target struct {
	upstream balance.Upstream
	url      *url.URL
	auth     auth.Authenticator
	rules    headers.Rules
	breaker  breaker.CircuitBreaker // 未配置熔断时为 nil
}

// TargetStatus 代表上游服务的运行状态
type TargetStatus struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Weight  int    `json:"weight"`
	Auth    string `json:"auth"`
	Breaker string `json:"breaker,omitempty"`
}

// upstreamStatusError 表示上游返回了 5xx，响应已经写回客户端
type upstreamStatusError struct {
	status int
}

func (e *upstreamStatusError) Error() string {
	return fmt.Sprintf("upstream responded with status %d", e.status)
}

// Forwarder 负责选择上游并转发请求
type Forwarder struct {
	upstreams []balance.Upstream
	targets   map[string]*target
	balancer  balance.LoadBalancer
	throttle  *ratelimit.UpstreamThrottle
	transport *http.Transport
	metrics   metrics.MetricsCollector
	logger    *logr.Logger
}

// New 根据上游组配置创建转发器
func New(cfg *config.UpstreamConfig, collector metrics.MetricsCollector, logger *logr.Logger) (*Forwarder, error) {
	if cfg == nil || len(cfg.Targets) == 0 {
		return nil, balance.ErrEmptyUpstreams
	}
	if collector == nil {
		collector = metrics.NewNoopCollector()
	}
	if logger == nil {
		discard := logr.Discard()
		logger = &discard
	}

	balancer, err := balance.New(cfg.Balance)
	if err != nil {
		return nil, fmt.Errorf("failed to create load balancer: %w", err)
	}

	throttle, err := ratelimit.NewThrottleFromConfig(cfg.Throttle)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream throttle: %w", err)
	}

	transport, err := client.NewTransport(cfg.Transport)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream transport: %w", err)
	}

	f := &Forwarder{
		upstreams: balance.UpstreamsFromConfig(cfg.Targets),
		targets:   make(map[string]*target, len(cfg.Targets)),
		balancer:  balancer,
		throttle:  throttle,
		transport: transport,
		metrics:   collector,
		logger:    logger,
	}

	for i, upstream := range f.upstreams {
		parsed, err := url.Parse(upstream.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid upstream url for %s: %w", upstream.Name, err)
		}

		authenticator, err := auth.New(cfg.Targets[i].Auth)
		if err != nil {
			return nil, fmt.Errorf("invalid auth for %s: %w", upstream.Name, err)
		}

		rules, err := headers.Compile(cfg.Targets[i].Headers)
		if err != nil {
			return nil, fmt.Errorf("invalid header rules for %s: %w", upstream.Name, err)
		}

		t := &target{upstream: upstream, url: parsed, auth: authenticator, rules: rules}
		if cfg.Breaker != nil {
			t.breaker = breaker.NewCircuitBreaker(breaker.SettingsFromConfig(upstream.Name, cfg.Breaker, f.onBreakerStateChange))
			collector.RecordCircuitBreakerState(upstream.Name, breaker.StateValue(gobreaker.StateClosed))
		}
		f.targets[upstream.Name] = t
	}

	return f, nil
}

// onBreakerStateChange 记录熔断器状态变化
func (f *Forwarder) onBreakerStateChange(name string, from, to gobreaker.State) {
	f.logger.Info("Circuit breaker state changed", "upstream", name, "from", from.String(), "to", to.String())
	f.metrics.RecordCircuitBreakerState(name, breaker.StateValue(to))
	f.metrics.RecordCircuitBreakerStateChange(name, from.String(), to.String())
}

// Forward 是转发请求的 gin 处理器
func (f *Forwarder) Forward(c *gin.Context) {
	ctx := balance.WithClientKey(c.Request.Context(), ratelimit.ClientID(c))

	selected, err := f.balancer.Select(ctx, f.upstreams)
	if err != nil {
		f.metrics.RecordUpstreamError("", constants.ErrorTypeSelection)
		f.fail(c, "", apperr.Wrap(apperr.KindUnavailable, constants.MsgUpstreamUnavailable, err))
		return
	}
	f.metrics.RecordLoadBalancerSelection(selected.Name, f.balancer.Type())

	t := f.targets[selected.Name]

	if f.throttle != nil && !f.throttle.Allow(selected.Name) {
		f.metrics.RecordUpstreamError(selected.Name, constants.ErrorTypeThrottled)
		f.fail(c, selected.Name, apperr.New(apperr.KindRejected, constants.MsgUpstreamThrottled))
		return
	}

	start := time.Now()
	err = f.execute(c, t)
	duration := time.Since(start)

	var statusErr *upstreamStatusError
	switch {
	case err == nil:
		f.metrics.RecordUpstreamResponse(selected.Name, c.Writer.Status(), duration)
	case errors.As(err, &statusErr):
		f.metrics.RecordUpstreamResponse(selected.Name, statusErr.status, duration)
	case breaker.IsOpenError(err):
		f.metrics.RecordUpstreamError(selected.Name, constants.ErrorTypeBreakerOpen)
		f.fail(c, selected.Name, apperr.Wrap(apperr.KindUnavailable, constants.MsgUpstreamUnavailable, err))
	case errors.Is(err, context.Canceled):
		f.logger.V(1).Info("Client went away before upstream responded", "upstream", selected.Name, "path", c.Request.URL.Path)
		c.Abort()
	default:
		f.metrics.RecordUpstreamError(selected.Name, constants.ErrorTypeTransport)
		f.fail(c, selected.Name, apperr.Wrap(apperr.KindBadGateway, constants.MsgBadGateway, err))
	}
}

// execute 通过熔断器转发请求，上游 5xx 计为失败
func (f *Forwarder) execute(c *gin.Context, t *target) error {
	if t.breaker == nil {
		return f.serve(c, t)
	}
	_, err := t.breaker.Execute(func() (interface{}, error) {
		return nil, f.serve(c, t)
	})
	return err
}

// serve 使用反向代理转发单个请求
func (f *Forwarder) serve(c *gin.Context, t *target) error {
	var proxyErr error
	var status int

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(t.url)
			pr.SetXForwarded()
			t.rules.Apply(pr.Out.Header)
			t.auth.Apply(pr.Out)
		},
		Transport: f.transport,
		ModifyResponse: func(resp *http.Response) error {
			status = resp.StatusCode
			return nil
		},
		ErrorHandler: func(_ http.ResponseWriter, _ *http.Request, err error) {
			proxyErr = err
		},
	}

	rp.ServeHTTP(c.Writer, c.Request)

	if proxyErr != nil {
		return proxyErr
	}
	if status >= http.StatusInternalServerError {
		return &upstreamStatusError{status: status}
	}
	return nil
}

// fail 在响应尚未写出时输出分类错误
func (f *Forwarder) fail(c *gin.Context, upstream string, err error) {
	if apperr.KindOf(err).Expected() {
		f.logger.V(1).Info("Upstream request rejected", "upstream", upstream, "path", c.Request.URL.Path, "reason", err.Error())
	} else {
		f.logger.Error(err, "Upstream request failed", "upstream", upstream, "method", c.Request.Method, "path", c.Request.URL.Path)
	}

	if c.Writer.Written() {
		c.Abort()
		return
	}
	response.Failure(c, err)
}

// Targets 返回所有上游服务的状态
func (f *Forwarder) Targets() []TargetStatus {
	statuses := make([]TargetStatus, 0, len(f.upstreams))
	for _, upstream := range f.upstreams {
		t := f.targets[upstream.Name]
		status := TargetStatus{Name: upstream.Name, URL: upstream.URL, Weight: upstream.Weight, Auth: t.auth.Type()}
		if t.breaker != nil {
			status.Breaker = t.breaker.State().String()
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// Strategy 返回负载均衡策略
func (f *Forwarder) Strategy() string {
	return f.balancer.Type()
}

// Close 关闭空闲的上游连接
func (f *Forwarder) Close() {
	f.transport.CloseIdleConnections()
}
