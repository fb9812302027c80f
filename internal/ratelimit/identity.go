package ratelimit

import (
	"net"
	"net/http"
	"strings"

	"github.com/shengyanli1982/slidegate/internal/constants"
)

// Identity 代表一个请求的客户端标识
//
// Address 总是参与限流；Key 来自配置的标识头部，存在时与 Address 同时计数，
// 因此更换头部的值无法绕过地址的配额。
type Identity struct {
	Address string
	Key     string
}

// ClientID 返回用于日志、统计和负载均衡的主标识
func (id Identity) ClientID() string {
	if id.Key != "" {
		return id.Key
	}
	return id.Address
}

// IDs 返回需要同时计数的全部标识，地址无法识别时返回 nil
func (id Identity) IDs() []string {
	if id.Address == "" {
		return nil
	}
	if id.Key == "" {
		return []string{id.Address}
	}
	return []string{id.Address, id.Key}
}

// IdentityFunc 从请求中解析客户端标识
type IdentityFunc func(req *http.Request) Identity

// IdentityConfig 代表客户端标识解析配置
type IdentityConfig struct {
	Header         string // 非空时该头部的值作为附加标识
	TrustForwarded bool   // 是否信任 X-Forwarded-For / X-Real-IP
}

// keyPrefix 区分来自头部的标识与地址标识
const keyPrefix = "key:"

// NewIdentityResolver 创建客户端标识解析函数
//
// 地址的解析顺序：受信任的转发头部、连接的远端地址。
func NewIdentityResolver(cfg IdentityConfig) IdentityFunc {
	header := strings.TrimSpace(cfg.Header)
	trustForwarded := cfg.TrustForwarded

	return func(req *http.Request) Identity {
		id := Identity{Address: resolveAddress(req, trustForwarded)}
		if header != "" {
			if value := strings.TrimSpace(req.Header.Get(header)); value != "" {
				id.Key = keyPrefix + value
			}
		}
		return id
	}
}

func resolveAddress(req *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if ip := parseFirstIP(req.Header.Get(constants.HeaderXForwardedFor)); ip != "" {
			return ip
		}
		if xri := strings.TrimSpace(req.Header.Get(constants.HeaderXRealIP)); xri != "" {
			if net.ParseIP(xri) != nil {
				return xri
			}
		}
	}
	return remoteHost(req.RemoteAddr)
}

// remoteHost 返回 RemoteAddr 的主机部分
func remoteHost(remoteAddr string) string {
	remoteAddr = strings.TrimSpace(remoteAddr)
	if remoteAddr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// parseFirstIP 解析 X-Forwarded-For 中的第一个地址
func parseFirstIP(xff string) string {
	if xff == "" {
		return ""
	}
	first := xff
	if idx := strings.IndexByte(xff, ','); idx >= 0 {
		first = xff[:idx]
	}
	first = strings.TrimSpace(first)
	if net.ParseIP(first) == nil {
		return ""
	}
	return first
}
