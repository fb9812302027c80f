package constants

const (
	// Error messages - 错误消息

	// ErrMsgServerAlreadyStarted 服务器已启动错误消息
	ErrMsgServerAlreadyStarted = "server already started"

	// ErrMsgInvalidMaxRequests 无效最大请求数错误消息
	ErrMsgInvalidMaxRequests = "maxRequests must be greater than 0"

	// ErrMsgInvalidTimeWindow 无效时间窗口错误消息
	ErrMsgInvalidTimeWindow = "timeWindow must be greater than 0"

	// ErrMsgInvalidShards 无效分片数错误消息
	ErrMsgInvalidShards = "shards must be between 1 and 1024"

	// ErrMsgInvalidMaxClients 无效客户端上限错误消息
	ErrMsgInvalidMaxClients = "maxClients must not be negative"

	// ErrMsgInvalidClient 无效客户端标识错误消息
	ErrMsgInvalidClient = "client identifier must not be empty"

	// ErrMsgInvalidPerSecond 无效每秒请求数错误消息
	ErrMsgInvalidPerSecond = "perSecond must be greater than 0"

	// ErrMsgInvalidBurst 无效突发请求数错误消息
	ErrMsgInvalidBurst = "burst must be greater than 0"

	// ErrMsgNoAvailableUpstream 无可用上游错误消息
	ErrMsgNoAvailableUpstream = "no available upstream"

	// ErrMsgUnknownStrategy 未知策略错误消息
	ErrMsgUnknownStrategy = "unknown load balance strategy"

	// ErrMsgEmptyTargets 空上游列表错误消息
	ErrMsgEmptyTargets = "upstream targets cannot be empty"

	// ErrMsgNilBalanceConfig 空负载均衡配置错误消息
	ErrMsgNilBalanceConfig = "balance config cannot be nil"
)

const (
	// User facing messages - 面向客户端的消息

	// MsgTooManyRequests 限流拒绝消息
	MsgTooManyRequests = "Too many requests, please try again later"

	// MsgInvalidClient 无法识别客户端消息
	MsgInvalidClient = "Unable to identify client"

	// MsgUpstreamThrottled 上游限流消息
	MsgUpstreamThrottled = "Too many requests to upstream service"

	// MsgUpstreamUnavailable 上游不可用消息
	MsgUpstreamUnavailable = "Upstream service unavailable"

	// MsgBadGateway 上游网关错误消息
	MsgBadGateway = "Upstream service returned an invalid response"

	// MsgInternalError 内部错误消息
	MsgInternalError = "An unexpected error occurred"
)

const (
	// Error types for metrics - 指标错误类型

	// ErrorTypeSelection 选择错误类型
	ErrorTypeSelection = "selection_failed"

	// ErrorTypeBreakerOpen 熔断器开启错误类型
	ErrorTypeBreakerOpen = "breaker_open"

	// ErrorTypeThrottled 上游限流错误类型
	ErrorTypeThrottled = "throttled"

	// ErrorTypeTransport 传输错误类型
	ErrorTypeTransport = "transport_error"
)

const (
	// Eviction reasons for metrics - 清理原因

	// EvictionExpired 窗口已过期
	EvictionExpired = "expired"

	// EvictionCapacity 超出客户端上限
	EvictionCapacity = "capacity"
)

const (
	// Health check messages - 健康检查消息

	// MsgServerRunning 根路径健康检查消息
	MsgServerRunning = "Server is running"

	// MsgAPIRunning /api 路径健康检查消息
	MsgAPIRunning = "API is running"
)
