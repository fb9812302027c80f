package server

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shengyanli1982/slidegate/internal/constants"
	"github.com/shengyanli1982/slidegate/internal/ratelimit"
	"github.com/shengyanli1982/slidegate/internal/response"
)

// AdminService 代表管理服务，提供状态查询、限流窗口管理和指标暴露
type AdminService struct {
	gateway   *GatewayServer
	registry  *prometheus.Registry
	logger    *logr.Logger
	clock     ratelimit.Clock
	startTime time.Time
}

// NewAdminService 创建新的管理服务实例
func NewAdminService(gateway *GatewayServer, registry *prometheus.Registry, logger *logr.Logger) *AdminService {
	if logger == nil {
		discard := logr.Discard()
		logger = &discard
	}
	return &AdminService{
		gateway:   gateway,
		registry:  registry,
		logger:    logger,
		clock:     ratelimit.SystemClock,
		startTime: time.Now(),
	}
}

// RegisterGroup 注册路由组和处理器
func (s *AdminService) RegisterGroup(g *gin.RouterGroup) {
	g.GET("/metrics", s.handleMetrics)
	g.GET("/status", s.handleStatus)

	rl := g.Group("/ratelimit")
	rl.GET("", s.handleRateLimit)
	rl.GET("/clients/:id", s.handleGetClient)
	rl.DELETE("/clients/:id", s.handleResetClient)
}

// handleMetrics 使用 Prometheus HTTP 处理器输出指标
func (s *AdminService) handleMetrics(c *gin.Context) {
	if s.registry == nil {
		response.NotFound(c, "metrics registry not available")
		return
	}

	promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}).ServeHTTP(c.Writer, c.Request)
}

// handleStatus 返回服务运行状态
func (s *AdminService) handleStatus(c *gin.Context) {
	svc := s.gateway.GetService()

	response.OK(c, gin.H{
		"service": gin.H{
			"name":       constants.AppName,
			"uptime":     time.Since(s.startTime).Seconds(),
			"start_time": s.startTime.Format(time.RFC3339),
		},
		"runtime": gin.H{
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
		"gateway": gin.H{
			"name":     s.gateway.GetConfig().Name,
			"endpoint": s.gateway.GetEndpoint(),
			"running":  s.gateway.IsRunning(),
		},
		"upstream": gin.H{
			"strategy": svc.Forwarder().Strategy(),
			"targets":  svc.Forwarder().Targets(),
		},
	})
}

// handleRateLimit 返回限流配置、跟踪的客户端数量和累计统计
func (s *AdminService) handleRateLimit(c *gin.Context) {
	svc := s.gateway.GetService()
	limiter := svc.Limiter()
	dispatcher := svc.Dispatcher()

	statsInfo := gin.H{
		"type":    dispatcher.Recorder().Type(),
		"dropped": dispatcher.Dropped(),
		"failed":  dispatcher.Failed(),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.DefaultStatsPingTimeout*time.Millisecond)
	defer cancel()

	if totals, err := dispatcher.Recorder().Totals(ctx); err != nil {
		s.logger.Error(err, "Failed to read rate limit stats")
		statsInfo["error"] = http.StatusText(http.StatusServiceUnavailable)
	} else {
		statsInfo["totals"] = totals
	}

	response.OK(c, gin.H{
		"maxRequests":    limiter.MaxRequests(),
		"timeWindow":     limiter.TimeWindow(),
		"maxClients":     limiter.MaxClients(),
		"trackedClients": limiter.Len(),
		"stats":          statsInfo,
	})
}

// handleGetClient 返回指定客户端当前的窗口视图
func (s *AdminService) handleGetClient(c *gin.Context) {
	id := c.Param("id")

	snapshot, ok := s.gateway.GetService().Limiter().Snapshot(id, s.clock())
	if !ok {
		response.NotFound(c, "client is not tracked")
		return
	}
	response.OK(c, snapshot)
}

// handleResetClient 清除指定客户端的窗口记录
func (s *AdminService) handleResetClient(c *gin.Context) {
	id := c.Param("id")

	if !s.gateway.GetService().Limiter().Reset(id) {
		response.NotFound(c, "client is not tracked")
		return
	}

	s.logger.Info("Rate limit window reset", "client", id)
	response.OK(c, gin.H{"clientId": id, "reset": true})
}
