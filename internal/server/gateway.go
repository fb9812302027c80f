package server

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	"github.com/shengyanli1982/orbit"
	"github.com/shengyanli1982/slidegate/internal/config"
	"github.com/shengyanli1982/slidegate/internal/metrics"
	"github.com/shengyanli1982/slidegate/internal/stats"
)

// GatewayServer 代表网关服务器，负责接收客户端请求、限流并转发到上游服务
type GatewayServer struct {
	name       string                // 服务器名称
	endpoint   string                // 服务器监听地址
	httpEngine *orbit.Engine         // HTTP 引擎实例
	closeOnce  sync.Once             // 确保只关闭一次
	config     *config.GatewayConfig // 网关配置
	logger     *logr.Logger          // 日志记录器
	service    *GatewayService       // 网关服务实例
}

// NewGatewayServer 创建新的网关服务器实例
// debug: 是否启用调试模式
// collector: 指标收集器
// recorder: 限流统计记录器
func NewGatewayServer(debug bool, logger *logr.Logger, cfg *config.GatewayConfig, collector metrics.MetricsCollector, recorder stats.Recorder) (*GatewayServer, error) {
	if logger == nil {
		discard := logr.Discard()
		logger = &discard
	}
	svc, err := NewGatewayService(cfg, collector, recorder, logger)
	if err != nil {
		return nil, err
	}

	engine := newEngine(debug, logger, cfg.Address, cfg.Port, cfg.Timeout)
	engine.RegisterService(svc)

	return &GatewayServer{
		name:       cfg.Name,
		endpoint:   fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		httpEngine: engine,
		config:     cfg,
		logger:     logger,
		service:    svc,
	}, nil
}

// Start 启动网关服务器
func (s *GatewayServer) Start() {
	if s.httpEngine.IsRunning() {
		s.logger.Error(ErrServerAlreadyStarted, "Gateway server is already started", "name", s.name)
		return
	}

	s.logger.Info("Starting gateway server", "name", s.name, "endpoint", s.endpoint)

	s.service.Run()
	s.httpEngine.Run()

	// 重置关闭标志
	s.closeOnce = sync.Once{}

	s.logger.Info("Gateway server started successfully", "name", s.name)
}

// Stop 停止网关服务器
func (s *GatewayServer) Stop() {
	if !s.httpEngine.IsRunning() {
		s.logger.Info("Gateway server is not running", "name", s.name)
		return
	}

	s.logger.Info("Stopping gateway server", "name", s.name)

	s.closeOnce.Do(func() {
		// 先停止接收请求，再停止后台任务
		s.httpEngine.Stop()
		s.service.Stop()

		s.logger.Info("Gateway server stopped successfully", "name", s.name)
	})
}

// IsRunning 检查网关服务器是否正在运行
func (s *GatewayServer) IsRunning() bool {
	return s.httpEngine.IsRunning()
}

// GetEndpoint 获取服务器监听地址
func (s *GatewayServer) GetEndpoint() string {
	return s.endpoint
}

// GetConfig 获取网关配置
func (s *GatewayServer) GetConfig() *config.GatewayConfig {
	return s.config
}

// GetService 获取网关服务实例
func (s *GatewayServer) GetService() *GatewayService {
	return s.service
}
