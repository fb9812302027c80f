package ratelimit

import "time"

// Decision 代表一次限流判定的结果
type Decision uint8

const (
	// Allowed 请求被记录并放行
	Allowed Decision = iota
	// Rejected 窗口内请求数已达上限，请求未被记录
	Rejected
)

// String 返回判定结果名称
func (d Decision) String() string {
	if d == Rejected {
		return "rejected"
	}
	return "allowed"
}

// Result 代表 CheckAndRecord 的返回值
type Result struct {
	Decision   Decision
	Remaining  int   // 本次判定后窗口内剩余配额
	RetryAfter int64 // 被拒绝时距离最早一条记录滑出窗口的毫秒数
}

// Allowed 返回请求是否被放行
func (r Result) Allowed() bool {
	return r.Decision == Allowed
}

// Limiter 代表按客户端计数的限流器接口
type Limiter interface {
	// CheckAndRecord 判定 clientID 在 now 时刻的请求是否允许，允许时记录该请求
	CheckAndRecord(clientID string, now int64) (Result, error)

	// CheckAndRecordAll 对同一请求的多个标识一起判定，任一拒绝则都不记录
	CheckAndRecordAll(clientIDs []string, now int64) (Result, error)

	// Snapshot 返回 clientID 当前窗口的只读视图，不修改状态
	Snapshot(clientID string, now int64) (WindowSnapshot, bool)

	// Reset 清除 clientID 的窗口记录
	Reset(clientID string) bool

	// Len 返回当前跟踪的客户端数量
	Len() int

	// Sweep 清理过期客户端并执行容量上限
	Sweep(now int64) SweepStats
}

// WindowSnapshot 代表某个客户端窗口的只读视图
type WindowSnapshot struct {
	ClientID   string `json:"clientId"`
	Count      int    `json:"count"`
	Remaining  int    `json:"remaining"`
	Oldest     int64  `json:"oldest"`
	Newest     int64  `json:"newest"`
	ResetAfter int64  `json:"resetAfter"` // 毫秒
}

// SweepStats 代表一次清理的统计
type SweepStats struct {
	Expired   int // 窗口已完全过期而移除的客户端
	Evicted   int // 超出 MaxClients 而移除的客户端
	Remaining int // 清理后仍在跟踪的客户端
}

// Config 代表滑动窗口限流配置
type Config struct {
	MaxRequests int   // 窗口内允许的最大请求数
	TimeWindow  int64 // 窗口长度（毫秒）
	Shards      int   // 分片数，0 表示默认值
	MaxClients  int   // 最多跟踪的客户端数，0 表示不限制
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		MaxRequests: 100,
		TimeWindow:  60000,
		Shards:      16,
	}
}

// Clock 返回毫秒时间戳
type Clock func() int64

// SystemClock 返回当前系统时间的毫秒时间戳
func SystemClock() int64 {
	return time.Now().UnixMilli()
}
