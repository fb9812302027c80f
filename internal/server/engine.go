package server

import (
	"github.com/go-logr/logr"
	"github.com/shengyanli1982/orbit"
	"github.com/shengyanli1982/slidegate/internal/config"
	"github.com/shengyanli1982/slidegate/internal/constants"
)

// newEngine 创建 Orbit HTTP 引擎，timeout 的单位是毫秒
func newEngine(debug bool, logger *logr.Logger, address string, port int, timeout *config.TimeoutConfig) *orbit.Engine {
	idle, read, write := constants.DefaultIdleTimeout, constants.DefaultReadTimeout, constants.DefaultWriteTimeout
	if timeout != nil {
		if timeout.Idle > 0 {
			idle = timeout.Idle
		}
		if timeout.Read > 0 {
			read = timeout.Read
		}
		if timeout.Write > 0 {
			write = timeout.Write
		}
	}

	cfg := orbit.NewConfig().
		WithLogger(logger).
		WithAddress(address).
		WithPort(uint16(port)).
		WithHttpIdleTimeout(uint32(idle)).
		WithHttpReadHeaderTimeout(uint32(read)).
		WithHttpReadTimeout(uint32(read)).
		WithHttpWriteTimeout(uint32(write))

	if !debug {
		cfg.WithRelease()
	}

	// 路由全部由服务自行注册，/metrics 由管理服务提供
	return orbit.NewEngine(cfg, orbit.EmptyOptions())
}
