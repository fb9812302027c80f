package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shengyanli1982/slidegate/internal/constants"
	"gopkg.in/yaml.v3"
)

// Manager 代表配置管理器，负责配置文件的加载、验证和管理
type Manager struct {
	config     *Config             // 当前加载的配置实例
	configPath string              // 配置文件的绝对路径
	validator  *validator.Validate // 配置验证器
}

// NewManager 创建新的配置管理器实例
func NewManager() (*Manager, error) {
	validate := validator.New()

	// 注册自定义验证器
	if err := validate.RegisterValidation("http_url", validateHTTPURL); err != nil {
		return nil, err
	}

	return &Manager{
		validator: validate,
	}, nil
}

// LoadFromFile 从指定路径加载配置文件并进行验证
// configPath: 配置文件路径
func (m *Manager) LoadFromFile(configPath string) error {
	// 检查文件是否存在
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", configPath)
	}

	// 读取配置文件
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := m.LoadFromBytes(data); err != nil {
		return err
	}

	m.configPath, _ = filepath.Abs(configPath)
	return nil
}

// LoadFromBytes 解析 YAML 内容，依次应用环境变量覆盖、默认值和校验
func (m *Manager) LoadFromBytes(data []byte) error {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	// 环境变量优先于文件
	if err := ApplyEnvOverrides(&config); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	m.SetDefaults(&config)

	if err := m.validator.Struct(&config); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if err := m.validateReferences(&config); err != nil {
		return fmt.Errorf("config reference validation failed: %w", err)
	}

	m.config = &config
	return nil
}

// validateReferences 验证配置中的交叉约束
// config: 待验证的配置实例
func (m *Manager) validateReferences(config *Config) error {
	names := make(map[string]bool, len(config.Gateway.Upstream.Targets))
	for _, target := range config.Gateway.Upstream.Targets {
		if names[target.Name] {
			return fmt.Errorf("upstream target '%s' is defined more than once", target.Name)
		}
		names[target.Name] = true
	}

	if config.Gateway.Port == config.Admin.Port {
		return fmt.Errorf("gateway and admin cannot share port %d", config.Gateway.Port)
	}

	return nil
}

// GetConfig 返回当前加载的配置实例
func (m *Manager) GetConfig() *Config {
	return m.config
}

// GetConfigPath 返回当前配置文件的绝对路径
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// SetDefaults 为配置设置默认值，确保所有必需字段都有合理的默认值
// config: 待设置默认值的配置实例
func (m *Manager) SetDefaults(config *Config) {
	m.setGatewayDefaults(config)
	m.setRateLimitDefaults(config)
	m.setUpstreamDefaults(config)
	m.setAdminDefaults(config)
	m.setStatsDefaults(config)
	m.setMetricsDefaults(config)
}

// setGatewayDefaults 设置网关服务的默认值
func (m *Manager) setGatewayDefaults(config *Config) {
	gateway := &config.Gateway
	if gateway.Name == "" {
		gateway.Name = constants.DefaultGatewayName
	}
	if gateway.Address == "" {
		gateway.Address = constants.DefaultAddress
	}
	if gateway.Port == 0 {
		gateway.Port = constants.DefaultGatewayPort
	}
	gateway.Timeout = withServerTimeoutDefaults(gateway.Timeout)
}

// setRateLimitDefaults 设置滑动窗口限流的默认值
func (m *Manager) setRateLimitDefaults(config *Config) {
	if config.Gateway.RateLimit == nil {
		config.Gateway.RateLimit = &RateLimitConfig{}
	}

	// 只为未配置的字段设置默认值，显式的 0 交给校验拒绝
	rl := config.Gateway.RateLimit
	if rl.MaxRequests == nil {
		maxRequests := rl.GetMaxRequests()
		rl.MaxRequests = &maxRequests
	}
	if rl.TimeWindow == nil {
		timeWindow := rl.GetTimeWindow()
		rl.TimeWindow = &timeWindow
	}
	if rl.SweepInterval == 0 {
		rl.SweepInterval = *rl.TimeWindow
	}
	if rl.Shards == 0 {
		rl.Shards = constants.DefaultShards
	}
	if rl.MaxClients == nil {
		maxClients := rl.GetMaxClients()
		rl.MaxClients = &maxClients
	}
}

// setUpstreamDefaults 设置上游组的默认值
func (m *Manager) setUpstreamDefaults(config *Config) {
	upstream := &config.Gateway.Upstream

	if upstream.Balance == nil {
		upstream.Balance = &BalanceConfig{Strategy: constants.DefaultBalanceStrategy}
	} else if upstream.Balance.Strategy == "" {
		upstream.Balance.Strategy = constants.DefaultBalanceStrategy
	}

	for i := range upstream.Targets {
		if upstream.Targets[i].Weight == 0 {
			upstream.Targets[i].Weight = constants.DefaultWeight
		}
	}

	if upstream.Breaker != nil {
		if upstream.Breaker.Threshold == 0 {
			upstream.Breaker.Threshold = constants.DefaultBreakerThreshold
		}
		if upstream.Breaker.Cooldown == 0 {
			upstream.Breaker.Cooldown = constants.DefaultBreakerCooldown
		}
		if upstream.Breaker.MaxRequests == 0 {
			upstream.Breaker.MaxRequests = constants.DefaultBreakerMaxRequests
		}
		if upstream.Breaker.Interval == 0 {
			upstream.Breaker.Interval = constants.DefaultBreakerInterval
		}
	}

	if upstream.Throttle != nil {
		if upstream.Throttle.PerSecond == 0 {
			upstream.Throttle.PerSecond = constants.DefaultThrottlePerSecond
		}
		if upstream.Throttle.Burst == 0 {
			upstream.Throttle.Burst = constants.DefaultThrottleBurst
		}
	}

	if upstream.Transport == nil {
		upstream.Transport = &TransportConfig{
			Agent:     constants.UserAgent,
			KeepAlive: constants.DefaultKeepAlive,
		}
	}

	transport := upstream.Transport
	if transport.Agent == "" {
		transport.Agent = constants.UserAgent
	}
	if transport.Connect == nil {
		transport.Connect = &ConnectConfig{}
	}
	if transport.Connect.IdleTotal == 0 {
		transport.Connect.IdleTotal = constants.DefaultIdleTotal
	}
	if transport.Connect.IdlePerHost == 0 {
		transport.Connect.IdlePerHost = constants.DefaultIdlePerHost
	}
	if transport.Connect.MaxPerHost == 0 {
		transport.Connect.MaxPerHost = constants.DefaultMaxPerHost
	}
	if transport.Timeout == nil {
		transport.Timeout = &TimeoutConfig{}
	}
	if transport.Timeout.Connect == 0 {
		transport.Timeout.Connect = constants.DefaultConnectTimeout
	}
	if transport.Timeout.Request == 0 {
		transport.Timeout.Request = constants.DefaultRequestTimeout
	}
	if transport.Timeout.Idle == 0 {
		transport.Timeout.Idle = constants.DefaultIdleTimeout
	}
}

// setAdminDefaults 设置管理服务的默认值
func (m *Manager) setAdminDefaults(config *Config) {
	if config.Admin.Port == 0 {
		config.Admin.Port = constants.DefaultAdminPort
	}
	if config.Admin.Address == "" {
		config.Admin.Address = constants.DefaultAddress
	}
	config.Admin.Timeout = withServerTimeoutDefaults(config.Admin.Timeout)
}

// setStatsDefaults 设置统计的默认值
func (m *Manager) setStatsDefaults(config *Config) {
	stats := &config.Stats
	if !stats.Enabled {
		return
	}
	if stats.Address == "" {
		stats.Address = constants.DefaultStatsAddress
	}
	if stats.Prefix == "" {
		stats.Prefix = constants.DefaultStatsPrefix
	}
	if stats.TTL == 0 {
		stats.TTL = constants.DefaultStatsTTL
	}
	if stats.Bucket == "" {
		stats.Bucket = "minute"
	}
}

// setMetricsDefaults 设置指标的默认值
func (m *Manager) setMetricsDefaults(config *Config) {
	if config.Metrics.Namespace == "" {
		config.Metrics.Namespace = constants.MetricsNamespace
	}
}

// withServerTimeoutDefaults 为服务端超时补齐默认值
func withServerTimeoutDefaults(timeout *TimeoutConfig) *TimeoutConfig {
	if timeout == nil {
		timeout = &TimeoutConfig{}
	}
	if timeout.Idle == 0 {
		timeout.Idle = constants.DefaultIdleTimeout
	}
	if timeout.Read == 0 {
		timeout.Read = constants.DefaultReadTimeout
	}
	if timeout.Write == 0 {
		timeout.Write = constants.DefaultWriteTimeout
	}
	return timeout
}

// validateHTTPURL 验证URL必须使用HTTP或HTTPS协议
func validateHTTPURL(fl validator.FieldLevel) bool {
	urlStr := fl.Field().String()
	if urlStr == "" {
		return false
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	// 协议大小写不敏感
	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != constants.ProtocolHTTP && scheme != constants.ProtocolHTTPS {
		return false
	}

	return parsedURL.Host != ""
}
