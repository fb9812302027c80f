// Package server 组合网关服务器和管理服务器
package server

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/shengyanli1982/slidegate/internal/config"
	"github.com/shengyanli1982/slidegate/internal/metrics"
	"github.com/shengyanli1982/slidegate/internal/stats"
)

// Server 代表主服务器，管理网关服务器和管理服务器
type Server struct {
	gateway   *GatewayServer           // 网关服务器实例
	admin     *AdminServer             // 管理服务器实例
	registry  *metrics.MetricsRegistry // 指标注册器
	collector string                   // 已注册的收集器名称，未启用指标时为空
	logger    *logr.Logger             // 日志记录器
}

// NewServer 创建新的服务器实例
// debug: 是否启用调试模式
// registry: 指标注册器，网关收集器注册在其中并由管理服务器暴露
// recorder: 限流统计记录器
func NewServer(debug bool, logger *logr.Logger, cfg *config.Config, registry *metrics.MetricsRegistry, recorder stats.Recorder) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if registry == nil {
		return nil, metrics.ErrNilRegistry
	}
	if logger == nil {
		discard := logr.Discard()
		logger = &discard
	}

	srv := &Server{registry: registry, logger: logger}

	collector := metrics.NewNoopCollector()
	if cfg.Metrics.IsEnabled() {
		var err error
		collector, err = registry.CreateSharedCollector(cfg.Gateway.Name, &metrics.Config{
			Type:      metrics.PrometheusType,
			Enabled:   true,
			Namespace: cfg.Metrics.Namespace,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics collector: %w", err)
		}
		srv.collector = cfg.Gateway.Name
	}

	gateway, err := NewGatewayServer(debug, logger, &cfg.Gateway, collector, recorder)
	if err != nil {
		srv.releaseCollector()
		return nil, fmt.Errorf("failed to create gateway server: %w", err)
	}
	srv.gateway = gateway

	srv.admin = NewAdminServer(debug, logger, &cfg.Admin, gateway, registry.GetRegistry())

	return srv, nil
}

// Start 启动网关服务器和管理服务器
func (s *Server) Start() {
	s.logger.Info("Starting all servers")
	s.gateway.Start()
	s.admin.Start()
}

// Stop 停止网关服务器和管理服务器
func (s *Server) Stop() {
	s.logger.Info("Stopping all servers")
	s.gateway.Stop()
	s.admin.Stop()
	s.releaseCollector()
}

// Gateway 返回网关服务器实例
func (s *Server) Gateway() *GatewayServer {
	return s.gateway
}

// Admin 返回管理服务器实例
func (s *Server) Admin() *AdminServer {
	return s.admin
}

func (s *Server) releaseCollector() {
	if s.collector == "" {
		return
	}
	if err := s.registry.UnregisterCollector(s.collector); err != nil {
		s.logger.Error(err, "Failed to unregister metrics collector", "name", s.collector)
	}
	s.collector = ""
}
