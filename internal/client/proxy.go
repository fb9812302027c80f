package client

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/shengyanli1982/slidegate/internal/config"
)

// proxyFunc 返回出站代理函数，未配置代理时使用环境变量
func proxyFunc(cfg *config.ProxyConfig) (func(*http.Request) (*url.URL, error), error) {
	if cfg == nil || cfg.URL == "" {
		return http.ProxyFromEnvironment, nil
	}

	proxyURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy url %q: %w", cfg.URL, err)
	}
	return http.ProxyURL(proxyURL), nil
}
