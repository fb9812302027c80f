// Package stats 记录限流判定的统计数据
package stats

import (
	"context"
	"time"
)

// Event 代表一次限流判定
type Event struct {
	ClientID string
	Allowed  bool
	Method   string
	Path     string
	At       time.Time
}

// Totals 代表累计的判定次数
type Totals struct {
	Allowed int64 `json:"allowed"`
	Denied  int64 `json:"denied"`
}

// Recorder 代表统计记录器接口
type Recorder interface {
	// Record 记录一次判定，失败不影响请求处理
	Record(ctx context.Context, ev Event) error

	// Totals 返回累计的判定次数
	Totals(ctx context.Context) (Totals, error)

	// Close 释放底层连接
	Close() error

	// Type 获取记录器类型
	Type() string
}
