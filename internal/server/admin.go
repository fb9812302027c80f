package server

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shengyanli1982/orbit"
	"github.com/shengyanli1982/slidegate/internal/config"
)

// AdminServer 代表管理服务器，提供状态查询、限流管理和监控指标
type AdminServer struct {
	endpoint   string              // 服务器监听地址
	httpEngine *orbit.Engine       // HTTP 引擎实例
	closeOnce  sync.Once           // 确保只关闭一次
	config     *config.AdminConfig // 管理服务配置
	logger     *logr.Logger        // 日志记录器
	service    *AdminService       // 管理服务实例
}

// NewAdminServer 创建新的管理服务器实例
// gateway: 被管理的网关服务器
// registry: 暴露在 /metrics 上的 Prometheus 注册器
func NewAdminServer(debug bool, logger *logr.Logger, cfg *config.AdminConfig, gateway *GatewayServer, registry *prometheus.Registry) *AdminServer {
	if logger == nil {
		discard := logr.Discard()
		logger = &discard
	}
	engine := newEngine(debug, logger, cfg.Address, cfg.Port, cfg.Timeout)

	svc := NewAdminService(gateway, registry, logger)
	engine.RegisterService(svc)

	return &AdminServer{
		endpoint:   fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		httpEngine: engine,
		config:     cfg,
		logger:     logger,
		service:    svc,
	}
}

// Start 启动管理服务器
func (s *AdminServer) Start() {
	if s.httpEngine.IsRunning() {
		s.logger.Error(ErrServerAlreadyStarted, "Admin server is already started")
		return
	}

	s.logger.Info("Starting admin server", "endpoint", s.endpoint)

	s.httpEngine.Run()

	// 重置关闭标志
	s.closeOnce = sync.Once{}

	s.logger.Info("Admin server started successfully", "endpoint", s.endpoint)
}

// Stop 停止管理服务器
func (s *AdminServer) Stop() {
	if !s.httpEngine.IsRunning() {
		s.logger.Info("Admin server is not running")
		return
	}

	s.logger.Info("Stopping admin server", "endpoint", s.endpoint)

	s.closeOnce.Do(func() {
		s.httpEngine.Stop()
		s.logger.Info("Admin server stopped successfully", "endpoint", s.endpoint)
	})
}

// IsRunning 检查管理服务器是否正在运行
func (s *AdminServer) IsRunning() bool {
	return s.httpEngine.IsRunning()
}

// GetEndpoint 获取服务器监听地址
func (s *AdminServer) GetEndpoint() string {
	return s.endpoint
}

// GetConfig 获取管理服务配置
func (s *AdminServer) GetConfig() *config.AdminConfig {
	return s.config
}
