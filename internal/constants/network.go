package constants

const (
	// Protocol names for validation - 协议名称用于验证

	// ProtocolHTTP HTTP协议名称
	ProtocolHTTP = "http"

	// ProtocolHTTPS HTTPS协议名称
	ProtocolHTTPS = "https"
)

const (
	// HTTP headers - HTTP头部

	// HeaderUserAgent User-Agent头部名称
	HeaderUserAgent = "User-Agent"

	// HeaderXForwardedFor X-Forwarded-For头部名称
	HeaderXForwardedFor = "X-Forwarded-For"

	// HeaderXRealIP X-Real-IP头部名称
	HeaderXRealIP = "X-Real-IP"

	// HeaderXForwardedHost X-Forwarded-Host头部名称
	HeaderXForwardedHost = "X-Forwarded-Host"

	// HeaderRetryAfter Retry-After头部名称
	HeaderRetryAfter = "Retry-After"

	// HeaderRateLimitLimit 窗口配额头部
	HeaderRateLimitLimit = "X-RateLimit-Limit"

	// HeaderRateLimitRemaining 剩余配额头部
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
)

const (
	// LoadBalanceStrategies - 负载均衡策略

	// BalanceRoundRobin 轮询负载均衡策略
	BalanceRoundRobin = "roundrobin"

	// BalanceWeightedRoundRobin 加权轮询负载均衡策略
	BalanceWeightedRoundRobin = "weighted_roundrobin"

	// BalanceIPHash 客户端哈希负载均衡策略
	BalanceIPHash = "iphash"

	// DefaultBalanceStrategy 默认负载均衡策略
	DefaultBalanceStrategy = BalanceRoundRobin
)

const (
	// Context keys - 上下文键

	// ContextKeyClientID gin 上下文中保存客户端标识的键
	ContextKeyClientID = "slidegate.client_id"
)

const (
	// Upstream credentials - 上游认证

	// AuthTypeNone 不附加认证信息
	AuthTypeNone = "none"

	// AuthTypeBearer Bearer Token 认证
	AuthTypeBearer = "bearer"

	// AuthTypeBasic Basic Auth 认证
	AuthTypeBasic = "basic"

	// HeaderAuthorization 认证头部
	HeaderAuthorization = "Authorization"

	// BearerPrefix Bearer Token 前缀
	BearerPrefix = "Bearer "
)

const (
	// Header rewrite operations - 转发请求头部改写操作

	// HeaderOpInsert 头部不存在时插入
	HeaderOpInsert = "insert"

	// HeaderOpReplace 设置头部，覆盖已有值
	HeaderOpReplace = "replace"

	// HeaderOpRemove 删除头部
	HeaderOpRemove = "remove"
)
