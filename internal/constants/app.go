// Package constants 定义项目中使用的应用级常量
package constants

const (
	// Application metadata - 应用程序元数据

	// DefaultVersion 应用程序默认版本号
	DefaultVersion = "0.0.0"

	// AppName 应用程序名称
	AppName = "SlideGate"

	// UserAgent 默认HTTP用户代理字符串
	UserAgent = "SlideGate/1.0"

	// DefaultConfigPath 默认配置文件路径
	DefaultConfigPath = "./config.yaml"

	// DefaultEnvFile 默认环境变量文件路径
	DefaultEnvFile = ".env"
)

const (
	// Exit codes - 程序退出码

	// ExitFailure 程序异常退出码
	ExitFailure = -1

	// ExitSuccess 程序正常退出码
	ExitSuccess = 0
)

const (
	// Metrics collector constants - 指标收集器常量

	// MetricsCollectorGlobal 全局指标收集器名称
	MetricsCollectorGlobal = "global"

	// MetricsTypePrometheus Prometheus指标类型
	MetricsTypePrometheus = "prometheus"

	// MetricsTypeNoop 空操作指标类型
	MetricsTypeNoop = "noop"

	// MetricsNamespace 指标命名空间
	MetricsNamespace = "slidegate"
)

const (
	// Environment overrides - 环境变量覆盖项

	// EnvGatewayPort 覆盖网关监听端口
	EnvGatewayPort = "SLIDEGATE_PORT"

	// EnvMaxRequests 覆盖窗口内最大请求数
	EnvMaxRequests = "SLIDEGATE_MAX_REQUESTS"

	// EnvTimeWindow 覆盖滑动窗口长度（毫秒）
	EnvTimeWindow = "SLIDEGATE_TIME_WINDOW"

	// EnvRedisAddress 覆盖统计使用的 Redis 地址
	EnvRedisAddress = "SLIDEGATE_REDIS_ADDR"

	// EnvRedisPassword 覆盖统计使用的 Redis 密码
	EnvRedisPassword = "SLIDEGATE_REDIS_PASSWORD"
)
