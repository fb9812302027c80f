package config

import "github.com/shengyanli1982/slidegate/internal/constants"

// Config 代表主配置结构体，包含网关、管理服务、统计和指标的完整配置
type Config struct {
	Gateway GatewayConfig `yaml:"gateway" validate:"required"`
	Admin   AdminConfig   `yaml:"admin"`
	Stats   StatsConfig   `yaml:"stats"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// GatewayConfig 代表网关服务配置，定义限流入口和上游转发参数
type GatewayConfig struct {
	Name      string           `yaml:"name" validate:"required"`
	Address   string           `yaml:"address"`
	Port      int              `yaml:"port" validate:"required,min=1,max=65535"`
	Timeout   *TimeoutConfig   `yaml:"timeout,omitempty"`
	RateLimit *RateLimitConfig `yaml:"ratelimit,omitempty"`
	Upstream  UpstreamConfig   `yaml:"upstream" validate:"required"`
}

// AdminConfig 代表管理服务配置，用于健康检查、限流状态查询和监控指标暴露
type AdminConfig struct {
	Port    int            `yaml:"port" validate:"min=1,max=65535"`
	Address string         `yaml:"address"`
	Timeout *TimeoutConfig `yaml:"timeout,omitempty"`
}

// RateLimitConfig 代表滑动窗口限流配置
type RateLimitConfig struct {
	MaxRequests      *int           `yaml:"maxRequests,omitempty" validate:"required,min=1"`
	TimeWindow       *int64         `yaml:"timeWindow,omitempty" validate:"required,min=1,max=86400000"` // 单位：毫秒
	SweepInterval    int64          `yaml:"sweepInterval" validate:"min=0,max=86400000"`                 // 单位：毫秒，0 表示等于 timeWindow
	MaxClients       *int           `yaml:"maxClients,omitempty" validate:"required,min=0"`              // 0 表示不限制
	Shards           int            `yaml:"shards" validate:"min=1,max=1024"`
	RetryAfterHeader *bool          `yaml:"retryAfterHeader,omitempty"`
	Identity         IdentityConfig `yaml:"identity"`
}

// GetMaxRequests 返回窗口内最大请求数，未配置时返回默认值
func (c *RateLimitConfig) GetMaxRequests() int {
	if c.MaxRequests == nil {
		return constants.DefaultMaxRequests
	}
	return *c.MaxRequests
}

// GetTimeWindow 返回窗口长度（毫秒），未配置时返回默认值
func (c *RateLimitConfig) GetTimeWindow() int64 {
	if c.TimeWindow == nil {
		return constants.DefaultTimeWindow
	}
	return *c.TimeWindow
}

// GetMaxClients 返回最多跟踪的客户端数，未配置时返回默认值，0 表示不限制
func (c *RateLimitConfig) GetMaxClients() int {
	if c.MaxClients == nil {
		return constants.DefaultMaxClients
	}
	return *c.MaxClients
}

// RetryAfterEnabled 返回拒绝时是否输出 Retry-After 头部
func (c *RateLimitConfig) RetryAfterEnabled() bool {
	return c.RetryAfterHeader == nil || *c.RetryAfterHeader
}

// IdentityConfig 代表客户端标识解析配置
type IdentityConfig struct {
	Header         string `yaml:"header,omitempty"`
	TrustForwarded bool   `yaml:"trustForwarded"`
}

// TimeoutConfig 代表超时配置，定义各种操作的超时时间（单位：毫秒）
type TimeoutConfig struct {
	Idle    int `yaml:"idle,omitempty" validate:"omitempty,min=1000,max=86400000"`
	Read    int `yaml:"read,omitempty" validate:"omitempty,min=1000,max=86400000"`
	Write   int `yaml:"write,omitempty" validate:"omitempty,min=1000,max=86400000"`
	Connect int `yaml:"connect,omitempty" validate:"omitempty,min=1000,max=86400000"`
	Request int `yaml:"request,omitempty" validate:"omitempty,min=1000,max=86400000"`
}

// UpstreamConfig 代表上游组配置，限流通过后的请求会转发到这里
type UpstreamConfig struct {
	Balance   *BalanceConfig   `yaml:"balance,omitempty"`
	Targets   []TargetConfig   `yaml:"targets" validate:"required,min=1,dive"`
	Breaker   *BreakerConfig   `yaml:"breaker,omitempty"`
	Throttle  *ThrottleConfig  `yaml:"throttle,omitempty"`
	Transport *TransportConfig `yaml:"transport,omitempty"`
}

// TargetConfig 代表单个上游服务
type TargetConfig struct {
	Name    string           `yaml:"name" validate:"required"`
	URL     string           `yaml:"url" validate:"required,http_url"`
	Weight  int              `yaml:"weight,omitempty" validate:"min=0,max=65535"`
	Auth    *AuthConfig      `yaml:"auth,omitempty"`
	Headers []HeaderOpConfig `yaml:"headers,omitempty" validate:"dive"`
}

// AuthConfig 代表转发到上游时附加的认证信息
type AuthConfig struct {
	Type     string `yaml:"type" validate:"omitempty,oneof=none bearer basic"`
	Token    string `yaml:"token,omitempty" validate:"required_if=Type bearer"`
	Username string `yaml:"username,omitempty" validate:"required_if=Type basic"`
	Password string `yaml:"password,omitempty" validate:"required_if=Type basic"`
}

// HeaderOpConfig 代表转发请求的头部改写规则
type HeaderOpConfig struct {
	Op    string `yaml:"op" validate:"required,oneof=insert replace remove"`
	Key   string `yaml:"key" validate:"required"`
	Value string `yaml:"value,omitempty"`
}

// BalanceConfig 代表负载均衡配置，定义选择上游服务的策略
type BalanceConfig struct {
	Strategy string `yaml:"strategy" validate:"oneof=roundrobin weighted_roundrobin iphash"`
}

// BreakerConfig 代表熔断器配置，用于保护上游服务避免过载
type BreakerConfig struct {
	Threshold   float64 `yaml:"threshold,omitempty" validate:"omitempty,min=0.01,max=1.0"`
	Cooldown    int     `yaml:"cooldown,omitempty" validate:"omitempty,min=1000,max=3600000"` // 单位：毫秒
	MaxRequests uint32  `yaml:"maxRequests,omitempty" validate:"omitempty,min=1,max=100"`
	Interval    int     `yaml:"interval,omitempty" validate:"omitempty,min=1000,max=3600000"` // 单位：毫秒
}

// ThrottleConfig 代表上游令牌桶限流配置
type ThrottleConfig struct {
	PerSecond int `yaml:"perSecond" validate:"omitempty,min=1,max=65535"`
	Burst     int `yaml:"burst" validate:"omitempty,min=1,max=65535"`
}

// TransportConfig 代表上游连接配置，控制与上游服务的连接行为
type TransportConfig struct {
	Agent     string         `yaml:"agent"`
	KeepAlive int            `yaml:"keepalive" validate:"min=0,max=600000"` // 单位：毫秒
	Connect   *ConnectConfig `yaml:"connect,omitempty"`
	Timeout   *TimeoutConfig `yaml:"timeout,omitempty"`
	Proxy     *ProxyConfig   `yaml:"proxy,omitempty"`
}

// ConnectConfig 代表连接池配置，控制HTTP连接的复用和管理
type ConnectConfig struct {
	IdleTotal   int `yaml:"idleTotal" validate:"min=0,max=1000"`
	IdlePerHost int `yaml:"idlePerHost" validate:"min=0,max=100"`
	MaxPerHost  int `yaml:"maxPerHost" validate:"min=0,max=500"`
}

// ProxyConfig 代表出站代理配置
type ProxyConfig struct {
	URL string `yaml:"url" validate:"omitempty,url"`
}

// StatsConfig 代表限流决策统计配置，统计数据写入 Redis
type StatsConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Address      string `yaml:"address" validate:"required_if=Enabled true"`
	Password     string `yaml:"password,omitempty"`
	DB           int    `yaml:"db" validate:"min=0,max=15"`
	Prefix       string `yaml:"prefix"`
	TTL          int64  `yaml:"ttl" validate:"min=0"` // 单位：毫秒
	Bucket       string `yaml:"bucket" validate:"omitempty,oneof=minute none"`
	TrackClients bool   `yaml:"trackClients"`
}

// MetricsConfig 代表 Prometheus 指标配置
type MetricsConfig struct {
	Enabled   *bool  `yaml:"enabled,omitempty"`
	Namespace string `yaml:"namespace"`
}

// IsEnabled 返回是否启用指标收集，未配置时默认启用
func (c *MetricsConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}
