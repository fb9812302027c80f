// Package client 构建访问上游服务使用的 HTTP 传输层
package client

import (
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/shengyanli1982/slidegate/internal/config"
)

// ErrNilConfig 传输层配置为空
var ErrNilConfig = errors.New("transport config cannot be nil")

// NewTransport 根据配置创建带连接池的 HTTP 传输层
func NewTransport(cfg *config.TransportConfig) (*http.Transport, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	proxy, err := proxyFunc(cfg.Proxy)
	if err != nil {
		return nil, err
	}

	keepAlive := time.Duration(cfg.KeepAlive) * time.Millisecond
	dialer := &net.Dialer{KeepAlive: keepAlive}

	transport := &http.Transport{
		Proxy:                 proxy,
		TLSHandshakeTimeout:   10 * time.Second,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
		DisableKeepAlives:     cfg.KeepAlive == 0,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
	}

	if cfg.Connect != nil {
		transport.MaxIdleConns = cfg.Connect.IdleTotal
		transport.MaxIdleConnsPerHost = cfg.Connect.IdlePerHost
		transport.MaxConnsPerHost = cfg.Connect.MaxPerHost
	}

	if cfg.Timeout != nil {
		if cfg.Timeout.Connect > 0 {
			dialer.Timeout = time.Duration(cfg.Timeout.Connect) * time.Millisecond
		}
		if cfg.Timeout.Request > 0 {
			transport.ResponseHeaderTimeout = time.Duration(cfg.Timeout.Request) * time.Millisecond
		}
		if cfg.Timeout.Idle > 0 {
			transport.IdleConnTimeout = time.Duration(cfg.Timeout.Idle) * time.Millisecond
		}
	}

	transport.DialContext = dialer.DialContext
	return transport, nil
}
