package constants

const (
	// Command line flags - 命令行标志

	// FlagConfig 配置文件路径参数名
	FlagConfig = "config"

	// FlagJSON JSON日志格式参数名
	FlagJSON = "json"

	// FlagRelease 发布模式参数名
	FlagRelease = "release"

	// FlagEnvFile 环境变量文件参数名
	FlagEnvFile = "env-file"

	// Flag short aliases - 短参数别名

	// FlagConfigShort 配置文件路径短参数
	FlagConfigShort = "c"

	// FlagJSONShort JSON日志格式短参数
	FlagJSONShort = "j"

	// FlagReleaseShort 发布模式短参数
	FlagReleaseShort = "r"

	// FlagEnvFileShort 环境变量文件短参数
	FlagEnvFileShort = "e"
)

const (
	// Limits and constraints - 限制和约束

	// MinTimeout 最小超时时间（毫秒）
	MinTimeout = 1000

	// MaxTimeout 最大超时时间（毫秒，24小时）
	MaxTimeout = 86400000

	// MinPort 最小端口号
	MinPort = 1

	// MaxPort 最大端口号
	MaxPort = 65535

	// MaxShards 限流器最大分片数
	MaxShards = 1024
)

const (
	// Default configuration values - 配置默认值

	// DefaultAddress 默认绑定地址
	DefaultAddress = "0.0.0.0"

	// DefaultGatewayName 默认网关名称
	DefaultGatewayName = "gateway"

	// DefaultGatewayPort 默认网关端口
	DefaultGatewayPort = 5000

	// DefaultAdminPort 默认管理端口
	DefaultAdminPort = 9000

	// DefaultIdleTimeout 默认空闲超时（毫秒）
	DefaultIdleTimeout = 60000

	// DefaultReadTimeout 默认读取超时（毫秒）
	DefaultReadTimeout = 30000

	// DefaultWriteTimeout 默认写入超时（毫秒）
	DefaultWriteTimeout = 30000

	// DefaultConnectTimeout 默认连接超时（毫秒）
	DefaultConnectTimeout = 10000

	// DefaultRequestTimeout 默认上游请求超时（毫秒）
	DefaultRequestTimeout = 60000

	// DefaultKeepAlive 默认Keep-Alive时间（毫秒）
	DefaultKeepAlive = 60000

	// DefaultMaxRequests 默认窗口内最大请求数
	DefaultMaxRequests = 100

	// DefaultTimeWindow 默认滑动窗口长度（毫秒）
	DefaultTimeWindow = 60000

	// DefaultShards 默认限流器分片数
	DefaultShards = 16

	// DefaultMaxClients 默认最多跟踪的客户端数量
	DefaultMaxClients = 100000

	// DefaultThrottlePerSecond 默认上游每秒请求数
	DefaultThrottlePerSecond = 200

	// DefaultThrottleBurst 默认上游突发请求数
	DefaultThrottleBurst = 400

	// DefaultBreakerThreshold 默认熔断器阈值
	DefaultBreakerThreshold = 0.5

	// DefaultBreakerCooldown 默认熔断器冷却时间（毫秒）
	DefaultBreakerCooldown = 30000

	// DefaultBreakerMaxRequests 默认熔断器半开状态最大请求数
	DefaultBreakerMaxRequests = 3

	// DefaultBreakerInterval 默认熔断器统计间隔（毫秒）
	DefaultBreakerInterval = 10000

	// DefaultBreakerMinRequests 触发熔断前的最少请求数
	DefaultBreakerMinRequests = 5

	// DefaultBreakerName 默认熔断器名称
	DefaultBreakerName = "upstream"

	// DefaultIdleTotal 默认总空闲连接数
	DefaultIdleTotal = 100

	// DefaultIdlePerHost 默认每主机空闲连接数
	DefaultIdlePerHost = 10

	// DefaultMaxPerHost 默认每主机最大连接数
	DefaultMaxPerHost = 50

	// DefaultWeight 默认权重
	DefaultWeight = 1

	// DefaultStatsAddress 默认统计 Redis 地址
	DefaultStatsAddress = "127.0.0.1:6379"

	// DefaultStatsPrefix 默认统计键前缀
	DefaultStatsPrefix = "slidegate:stats"

	// DefaultStatsTTL 默认统计键过期时间（毫秒，24小时）
	DefaultStatsTTL = 86400000

	// DefaultStatsPingTimeout 启动时 Redis 连通性检查超时（毫秒）
	DefaultStatsPingTimeout = 2000
)

const (
	// Stats dispatch defaults - 统计异步写入默认值

	// DefaultStatsQueueSize 统计事件队列长度
	DefaultStatsQueueSize = 4096

	// DefaultStatsWriteTimeout 单次统计写入超时（毫秒）
	DefaultStatsWriteTimeout = 500
)
