package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/shengyanli1982/slidegate/internal/config"
	"github.com/shengyanli1982/slidegate/internal/constants"
	"github.com/shengyanli1982/slidegate/internal/metrics"
	"github.com/shengyanli1982/slidegate/internal/proxy"
	"github.com/shengyanli1982/slidegate/internal/ratelimit"
	"github.com/shengyanli1982/slidegate/internal/response"
	"github.com/shengyanli1982/slidegate/internal/stats"
)

// GatewayService 代表网关服务，对每个请求执行限流判定后转发到上游
type GatewayService struct {
	mu     sync.Mutex
	config *config.GatewayConfig
	logger *logr.Logger

	limiter    *ratelimit.SlidingWindowLimiter
	middleware *ratelimit.Middleware
	sweeper    *ratelimit.Sweeper
	forwarder  *proxy.Forwarder
	dispatcher *stats.Dispatcher
	metrics    metrics.MetricsCollector

	running bool
	cancel  context.CancelFunc
}

// NewGatewayService 创建新的网关服务实例
// collector: 指标收集器，为 nil 时不收集指标
// recorder: 限流统计记录器，为 nil 时不记录
func NewGatewayService(cfg *config.GatewayConfig, collector metrics.MetricsCollector, recorder stats.Recorder, logger *logr.Logger) (*GatewayService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("gateway config cannot be nil")
	}
	if logger == nil {
		discard := logr.Discard()
		logger = &discard
	}
	if collector == nil {
		collector = metrics.NewNoopCollector()
	}
	if recorder == nil {
		recorder = stats.NewNoopRecorder()
	}

	rl := cfg.RateLimit
	if rl == nil {
		rl = &config.RateLimitConfig{}
	}

	limiter, err := ratelimit.NewFromConfig(rl)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	forwarder, err := proxy.New(&cfg.Upstream, collector, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create forwarder: %w", err)
	}

	s := &GatewayService{
		config:     cfg,
		logger:     logger,
		limiter:    limiter,
		forwarder:  forwarder,
		metrics:    collector,
		dispatcher: stats.NewDispatcher(recorder, constants.DefaultStatsQueueSize, constants.DefaultStatsWriteTimeout*time.Millisecond, logger),
	}

	sweepInterval := rl.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = rl.GetTimeWindow()
	}
	s.sweeper = ratelimit.NewSweeper(limiter, time.Duration(sweepInterval)*time.Millisecond, ratelimit.SystemClock, logger)
	s.sweeper.SetObserver(s.onSweep)

	s.middleware = ratelimit.NewMiddleware(
		limiter,
		ratelimit.NewIdentityResolver(ratelimit.IdentityFromConfig(rl)),
		limiter.MaxRequests(),
		ratelimit.WithRetryAfter(rl.RetryAfterEnabled()),
		ratelimit.WithObserver(s.onDecision),
		ratelimit.WithLogger(logger),
	)

	return s, nil
}

// RegisterGroup 实现orbit.Service接口，注册到orbit引擎
func (s *GatewayService) RegisterGroup(g *gin.RouterGroup) {
	g.Use(s.accessLog(), s.rateLimit())

	// 健康检查与 catch-all 路由不能在同一层级共存，统一由 dispatch 分发
	g.Any("/*path", s.dispatch)
}

// Run 启动后台清理和统计写入
func (s *GatewayService) Run() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.dispatcher.Start()
	s.sweeper.Start(ctx)
	s.running = true

	s.logger.Info("Gateway service started", "name", s.config.Name)
}

// Stop 停止后台任务并释放上游连接
func (s *GatewayService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.sweeper.Stop()
	s.cancel()
	s.dispatcher.Stop()
	s.forwarder.Close()
	s.running = false

	s.logger.Info("Gateway service stopped", "name", s.config.Name)
}

// IsRunning 检查服务是否运行中
func (s *GatewayService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Limiter 返回网关使用的限流器
func (s *GatewayService) Limiter() *ratelimit.SlidingWindowLimiter {
	return s.limiter
}

// Forwarder 返回网关使用的转发器
func (s *GatewayService) Forwarder() *proxy.Forwarder {
	return s.forwarder
}

// Dispatcher 返回统计分发器
func (s *GatewayService) Dispatcher() *stats.Dispatcher {
	return s.dispatcher
}

// Config 返回网关配置
func (s *GatewayService) Config() *config.GatewayConfig {
	return s.config
}

// accessLog 记录每个请求的最终状态和耗时
func (s *GatewayService) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		duration := time.Since(start)
		s.metrics.RecordRequest(s.config.Name, c.Request.Method, status, duration)

		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", duration.String(),
			"client", ratelimit.ClientID(c),
		}
		switch {
		case status >= http.StatusInternalServerError:
			s.logger.Error(nil, "Request failed", kv...)
		case status >= http.StatusBadRequest:
			s.logger.Info("Request rejected", kv...)
		default:
			s.logger.V(1).Info("Request completed", kv...)
		}
	}
}

// rateLimit 对除健康检查外的请求执行限流
func (s *GatewayService) rateLimit() gin.HandlerFunc {
	handler := s.middleware.Handler()
	return func(c *gin.Context) {
		if isHealthCheck(c.Request) {
			c.Next()
			return
		}
		handler(c)
	}
}

// dispatch 处理健康检查，其余请求转发到上游
func (s *GatewayService) dispatch(c *gin.Context) {
	if isHealthCheck(c.Request) {
		s.handleHealth(c)
		return
	}
	s.forwarder.Forward(c)
}

// handleHealth 返回网关的健康状态
func (s *GatewayService) handleHealth(c *gin.Context) {
	status := constants.MsgServerRunning
	if c.Request.URL.Path == "/api" {
		status = constants.MsgAPIRunning
	}

	response.OK(c, gin.H{
		"status":         status,
		"stats":          s.dispatcher.Recorder().Type(),
		"trackedClients": s.limiter.Len(),
	})
}

// onDecision 记录限流判定的指标和统计
func (s *GatewayService) onDecision(c *gin.Context, clientID string, result ratelimit.Result) {
	s.metrics.RecordRateLimitDecision(s.config.Name, result.Decision.String())

	if !s.dispatcher.Submit(stats.Event{
		ClientID: clientID,
		Allowed:  result.Allowed(),
		Method:   c.Request.Method,
		Path:     c.Request.URL.Path,
		At:       time.Now(),
	}) {
		s.logger.V(2).Info("Stats queue is full, event dropped", "client", clientID)
	}
}

// onSweep 记录清理结果
func (s *GatewayService) onSweep(st ratelimit.SweepStats) {
	s.metrics.RecordEvictions(s.config.Name, constants.EvictionExpired, st.Expired)
	s.metrics.RecordEvictions(s.config.Name, constants.EvictionCapacity, st.Evicted)
	s.metrics.SetTrackedClients(s.config.Name, st.Remaining)
}

func isHealthCheck(req *http.Request) bool {
	if req.Method != http.MethodGet {
		return false
	}
	return req.URL.Path == "/" || req.URL.Path == "/api"
}
